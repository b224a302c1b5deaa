package service

import "errors"

// Sentinel errors handlers translate into HTTP statuses. Anything else is an
// internal error.
var (
	ErrSessionNotFound  = errors.New("walk session not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrAlreadyCompleted = errors.New("task already completed")
	ErrAlreadyClaimed   = errors.New("daily bonus already claimed today")
	ErrNoUpgradePoints  = errors.New("no upgrade points available")
	ErrUnknownSkill     = errors.New("unknown skill")
	ErrNoEnergy         = errors.New("not enough energy to start a walk")
)
