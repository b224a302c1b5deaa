package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/moveon/moveon-backend-go/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, telegram_id, username, first_name, last_name,
	energy, max_energy, last_energy_update, points,
	endurance_level, efficiency_level, luck_level, upgrade_points,
	daily_streak, max_daily_streak, last_claim_date,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
		&u.Energy, &u.MaxEnergy, &u.LastEnergyUpdate, &u.Points,
		&u.EnduranceLevel, &u.EfficiencyLevel, &u.LuckLevel, &u.UpgradePoints,
		&u.DailyStreak, &u.MaxDailyStreak, &u.LastClaimDate,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// GetByTelegramID retrieves a user by Telegram identity, nil if absent
func (r *UserRepository) GetByTelegramID(telegramID int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE telegram_id = ?"
	return scanUser(r.db.QueryRow(query, telegramID))
}

// GetByID retrieves a user by primary key, nil if absent
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return scanUser(r.db.QueryRow(query, id))
}

// Create inserts a new user with default energy and zeroed skills
func (r *UserRepository) Create(u *models.User) error {
	if u.MaxEnergy == 0 {
		u.MaxEnergy = models.DefaultMaxEnergy
	}
	if u.LastEnergyUpdate.IsZero() {
		u.LastEnergyUpdate = time.Now().UTC()
	}

	res, err := r.db.Exec(`
		INSERT INTO users (telegram_id, username, first_name, last_name, energy, max_energy, last_energy_update)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.TelegramID, u.Username, u.FirstName, u.LastName, u.Energy, u.MaxEnergy, u.LastEnergyUpdate,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	return nil
}

// UpdateEnergy stores the user's energy and the regeneration checkpoint
func (r *UserRepository) UpdateEnergy(id int64, energy int, at time.Time) error {
	_, err := r.db.Exec(`
		UPDATE users SET energy = ?, last_energy_update = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		energy, at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update energy: %w", err)
	}
	return nil
}

// AddPoints credits (or debits) the user's point balance
func (r *UserRepository) AddPoints(id int64, delta float64) error {
	_, err := r.db.Exec(`
		UPDATE users SET points = points + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("failed to add points: %w", err)
	}
	return nil
}

// UpdateStreak stores the daily streak state after a bonus claim
func (r *UserRepository) UpdateStreak(id int64, streak, maxStreak int, lastClaim string) error {
	_, err := r.db.Exec(`
		UPDATE users SET daily_streak = ?, max_daily_streak = ?, last_claim_date = ?,
			upgrade_points = upgrade_points + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		streak, maxStreak, lastClaim, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	return nil
}

// UpgradeSkill atomically spends one upgrade point on the named skill.
// Returns sql.ErrNoRows via affected-count check when no point was available.
func (r *UserRepository) UpgradeSkill(id int64, skill string) (bool, error) {
	var column string
	switch skill {
	case models.SkillEndurance:
		column = "endurance_level"
	case models.SkillEfficiency:
		column = "efficiency_level"
	case models.SkillLuck:
		column = "luck_level"
	default:
		return false, fmt.Errorf("unknown skill: %s", skill)
	}

	res, err := r.db.Exec(`
		UPDATE users SET `+column+` = `+column+` + 1, upgrade_points = upgrade_points - 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND upgrade_points > 0`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upgrade skill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
