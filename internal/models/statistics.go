package models

// Statistics aggregates a user's lifetime walking totals, maintained
// incrementally as walks are finalized
type Statistics struct {
	UserID        int64   `json:"user_id" db:"user_id"`
	TotalSteps    int64   `json:"total_steps" db:"total_steps"`
	TotalDistance float64 `json:"total_distance" db:"total_distance"` // meters
	TotalRewards  float64 `json:"total_rewards" db:"total_rewards"`
}
