package models

import "time"

// Walk is the immutable record of a completed walk session. It is created
// exactly once when a session terminates and never mutated afterwards.
type Walk struct {
	ID     int64 `json:"id" db:"id"`
	UserID int64 `json:"user_id" db:"user_id"`

	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`

	Steps       int     `json:"steps" db:"steps"`
	DistanceM   float64 `json:"distance_m" db:"distance_m"`       // meters
	AvgSpeedMps float64 `json:"avg_speed_mps" db:"avg_speed_mps"` // m/s

	Reward               float64 `json:"reward" db:"reward"`
	IsLucky              bool    `json:"is_lucky" db:"is_lucky"`
	IsValid              bool    `json:"is_valid" db:"is_valid"`
	IsInterrupted        bool    `json:"is_interrupted" db:"is_interrupted"`
	EfficiencyMultiplier float64 `json:"efficiency_multiplier" db:"efficiency_multiplier"`
	StreakBonus          float64 `json:"streak_bonus" db:"streak_bonus"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// WalksResponse represents a paginated page of completed walks
type WalksResponse struct {
	Data       []Walk `json:"data"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}
