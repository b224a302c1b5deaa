package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/moveon/moveon-backend-go/internal/database"
	"github.com/moveon/moveon-backend-go/internal/models"
)

// WalkRepository handles database operations for completed walks
type WalkRepository struct {
	db *sql.DB
}

// NewWalkRepository creates a new walk repository
func NewWalkRepository(db *sql.DB) *WalkRepository {
	return &WalkRepository{db: db}
}

// Finalize persists a completed walk and, in the same transaction, credits the
// reward and folds the walk into the user's lifetime statistics. Invalid walks
// are recorded but credit nothing.
func (r *WalkRepository) Finalize(w *models.Walk, credit float64) error {
	return database.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO walks (user_id, start_time, end_time, steps, distance_m, avg_speed_mps,
				reward, is_lucky, is_valid, is_interrupted, efficiency_multiplier, streak_bonus)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.UserID, w.StartTime, w.EndTime, w.Steps, w.DistanceM, w.AvgSpeedMps,
			w.Reward, w.IsLucky, w.IsValid, w.IsInterrupted, w.EfficiencyMultiplier, w.StreakBonus,
		)
		if err != nil {
			return fmt.Errorf("failed to insert walk: %w", err)
		}
		if w.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read walk id: %w", err)
		}

		if !w.IsValid {
			return nil
		}

		if credit != 0 {
			if _, err := tx.Exec(`
				UPDATE users SET points = points + ?, updated_at = CURRENT_TIMESTAMP
				WHERE id = ?`,
				credit, w.UserID,
			); err != nil {
				return fmt.Errorf("failed to credit reward: %w", err)
			}
		}

		if _, err := tx.Exec(`
			INSERT INTO statistics (user_id, total_steps, total_distance, total_rewards)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				total_steps = total_steps + excluded.total_steps,
				total_distance = total_distance + excluded.total_distance,
				total_rewards = total_rewards + excluded.total_rewards`,
			w.UserID, w.Steps, w.DistanceM, w.Reward,
		); err != nil {
			return fmt.Errorf("failed to update statistics: %w", err)
		}

		return nil
	})
}

// ListByUser retrieves a user's completed walks, newest first, with pagination
func (r *WalkRepository) ListByUser(userID int64, filter models.WalkFilter) ([]models.Walk, int64, error) {
	conditions := []string{"user_id = ?"}
	args := []interface{}{userID}

	if filter.OnlyValid {
		conditions = append(conditions, "is_valid = 1")
	}
	if filter.OnlyInterrupted {
		conditions = append(conditions, "is_interrupted = 1")
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM walks"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count walks: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	offset := (filter.Page - 1) * filter.PageSize

	query := `SELECT id, user_id, start_time, end_time, steps, distance_m, avg_speed_mps,
		reward, is_lucky, is_valid, is_interrupted, efficiency_multiplier, streak_bonus, created_at
		FROM walks` + where + " ORDER BY start_time DESC LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query walks: %w", err)
	}
	defer rows.Close()

	var walks []models.Walk
	for rows.Next() {
		var w models.Walk
		err := rows.Scan(
			&w.ID, &w.UserID, &w.StartTime, &w.EndTime, &w.Steps, &w.DistanceM, &w.AvgSpeedMps,
			&w.Reward, &w.IsLucky, &w.IsValid, &w.IsInterrupted,
			&w.EfficiencyMultiplier, &w.StreakBonus, &w.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan walk: %w", err)
		}
		walks = append(walks, w)
	}

	return walks, total, rows.Err()
}
