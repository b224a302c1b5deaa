package models

// StartWalkRequest registers the user on first contact and opens a session,
// replacing any session the user already has.
type StartWalkRequest struct {
	TelegramID int64  `json:"telegram_id" binding:"required"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// UpdateWalkRequest carries one sensor sample. The acceleration triple is
// required; pointers distinguish an absent field from a legitimate zero.
// GPS fields and the client-reported speed are optional.
type UpdateWalkRequest struct {
	WalkID    string   `json:"walk_id" binding:"required"`
	AccX      *float64 `json:"acc_x" binding:"required"`
	AccY      *float64 `json:"acc_y" binding:"required"`
	AccZ      *float64 `json:"acc_z" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Speed     *float64 `json:"speed"`
}

// WalkIDRequest addresses an existing session (finish / stop)
type WalkIDRequest struct {
	WalkID string `json:"walk_id" binding:"required"`
}

// TelegramIDRequest addresses a user by Telegram identity
type TelegramIDRequest struct {
	TelegramID int64 `json:"telegram_id" binding:"required"`
}

// UpgradeRequest spends one upgrade point on a skill
type UpgradeRequest struct {
	TelegramID int64  `json:"telegram_id" binding:"required"`
	Skill      string `json:"skill" binding:"required"`
}

// CompleteTaskRequest marks a task as done
type CompleteTaskRequest struct {
	TelegramID int64 `json:"telegram_id" binding:"required"`
	TaskID     int64 `json:"task_id" binding:"required"`
}

// UpdateWalkResponse is returned for every accepted sample. When the update
// itself terminated the session (staleness or energy exhaustion), Completed is
// set and Completion carries the final walk summary instead.
type UpdateWalkResponse struct {
	Steps           int     `json:"steps"`
	Distance        float64 `json:"distance"`      // meters, 2dp
	CurrentSpeed    float64 `json:"current_speed"` // 2dp
	AverageSpeed    float64 `json:"average_speed"` // m/s, 2dp
	RemainingEnergy int     `json:"remaining_energy"`

	Completed  bool                `json:"completed"`
	Completion *FinishWalkResponse `json:"completion,omitempty"`
}

// FinishWalkResponse summarizes a terminated session
type FinishWalkResponse struct {
	WalkID        string  `json:"walk_id"`
	Steps         int     `json:"steps"`
	Distance      float64 `json:"distance"` // meters, 2dp
	Reward        float64 `json:"reward"`
	IsLucky       bool    `json:"is_lucky"`
	IsInterrupted bool    `json:"is_interrupted"`
	Points        float64 `json:"points"` // user balance after crediting
	Message       string  `json:"message"`
}

// DailyBonusResponse reports the outcome of a streak claim
type DailyBonusResponse struct {
	Streak        int     `json:"streak"`
	MaxStreak     int     `json:"max_streak"`
	Award         float64 `json:"award"`
	Points        float64 `json:"points"`
	UpgradePoints int     `json:"upgrade_points"`
}
