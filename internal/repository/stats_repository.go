package repository

import (
	"database/sql"
	"fmt"

	"github.com/moveon/moveon-backend-go/internal/models"
)

// StatsRepository reads per-user lifetime statistics. Rows are written by
// WalkRepository.Finalize.
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new statistics repository
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetByUser retrieves a user's lifetime totals; zeros for a user with no walks
func (r *StatsRepository) GetByUser(userID int64) (*models.Statistics, error) {
	var s models.Statistics
	err := r.db.QueryRow(`
		SELECT user_id, total_steps, total_distance, total_rewards
		FROM statistics WHERE user_id = ?`,
		userID,
	).Scan(&s.UserID, &s.TotalSteps, &s.TotalDistance, &s.TotalRewards)
	if err == sql.ErrNoRows {
		return &models.Statistics{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return &s, nil
}
