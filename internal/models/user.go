package models

import "time"

// Energy defaults. Energy is spent one unit per session update and comes back
// passively, one unit per regen interval, up to MaxEnergy.
const (
	DefaultEnergy       = 100
	DefaultMaxEnergy    = 100
	EnergyRegenInterval = 12 * time.Minute
)

// User represents an application user registered via Telegram identity
type User struct {
	ID         int64  `json:"id" db:"id"`
	TelegramID int64  `json:"telegram_id" db:"telegram_id"`
	Username   string `json:"username,omitempty" db:"username"`
	FirstName  string `json:"first_name,omitempty" db:"first_name"`
	LastName   string `json:"last_name,omitempty" db:"last_name"`

	// Energy and points
	Energy           int       `json:"energy" db:"energy"`
	MaxEnergy        int       `json:"max_energy" db:"max_energy"`
	LastEnergyUpdate time.Time `json:"last_energy_update" db:"last_energy_update"`
	Points           float64   `json:"points" db:"points"`

	// Skills parameterizing the reward formula
	EnduranceLevel  int `json:"endurance_level" db:"endurance_level"`
	EfficiencyLevel int `json:"efficiency_level" db:"efficiency_level"`
	LuckLevel       int `json:"luck_level" db:"luck_level"`
	UpgradePoints   int `json:"upgrade_points" db:"upgrade_points"`

	// Daily streak bookkeeping
	DailyStreak    int    `json:"daily_streak" db:"daily_streak"`
	MaxDailyStreak int    `json:"max_daily_streak" db:"max_daily_streak"`
	LastClaimDate  string `json:"last_claim_date,omitempty" db:"last_claim_date"` // YYYY-MM-DD, empty if never claimed

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Skill name constants accepted by the upgrade endpoint
const (
	SkillEndurance  = "endurance"
	SkillEfficiency = "efficiency"
	SkillLuck       = "luck"
)
