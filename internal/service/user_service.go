package service

import (
	"math"
	"time"

	"github.com/moveon/moveon-backend-go/internal/models"
	"github.com/moveon/moveon-backend-go/internal/repository"
	"github.com/moveon/moveon-backend-go/internal/reward"
)

// DailyBonusBase is the payout for a one-day streak; it scales with the same
// streak escalator as walk rewards.
const DailyBonusBase = 10.0

const dateLayout = "2006-01-02"

// UserService handles user-facing account operations: energy reads, daily
// bonus claims, and skill upgrades.
type UserService struct {
	users *repository.UserRepository
	stats *repository.StatsRepository
	now   func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users *repository.UserRepository, stats *repository.StatsRepository) *UserService {
	return &UserService{users: users, stats: stats, now: time.Now}
}

// WithClock overrides the wall clock (tests)
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// Energy returns the user's current energy after applying passive
// regeneration, persisting the new checkpoint.
func (s *UserService) Energy(telegramID int64) (int, error) {
	user, err := s.users.GetByTelegramID(telegramID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}

	energy, checkpoint := regenerate(user, s.now())
	if energy != user.Energy {
		if err := s.users.UpdateEnergy(user.ID, energy, checkpoint); err != nil {
			return 0, err
		}
	}
	return energy, nil
}

// Statistics returns the user's lifetime walking totals
func (s *UserService) Statistics(telegramID int64) (*models.Statistics, error) {
	user, err := s.users.GetByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.stats.GetByUser(user.ID)
}

// DailyBonus claims today's streak bonus: consecutive days grow the streak,
// a gap resets it to one, and a repeat claim the same day is rejected. Each
// claim also grants one skill upgrade point.
func (s *UserService) DailyBonus(telegramID int64) (*models.DailyBonusResponse, error) {
	user, err := s.users.GetByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	today := s.now().Format(dateLayout)
	streak, err := NextStreak(user.LastClaimDate, today, user.DailyStreak)
	if err != nil {
		return nil, err
	}

	maxStreak := user.MaxDailyStreak
	if streak > maxStreak {
		maxStreak = streak
	}

	award := BonusAward(streak)

	if err := s.users.UpdateStreak(user.ID, streak, maxStreak, today); err != nil {
		return nil, err
	}
	if err := s.users.AddPoints(user.ID, award); err != nil {
		return nil, err
	}

	return &models.DailyBonusResponse{
		Streak:        streak,
		MaxStreak:     maxStreak,
		Award:         award,
		Points:        user.Points + award,
		UpgradePoints: user.UpgradePoints + 1,
	}, nil
}

// Upgrade spends one upgrade point on the named skill
func (s *UserService) Upgrade(telegramID int64, skill string) (*models.User, error) {
	switch skill {
	case models.SkillEndurance, models.SkillEfficiency, models.SkillLuck:
	default:
		return nil, ErrUnknownSkill
	}

	user, err := s.users.GetByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	ok, err := s.users.UpgradeSkill(user.ID, skill)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoUpgradePoints
	}

	return s.users.GetByTelegramID(telegramID)
}

// NextStreak derives the streak after a claim on today, given the previous
// claim date: same day is an error, the day after extends, anything else
// restarts at one.
func NextStreak(lastClaim, today string, current int) (int, error) {
	if lastClaim == today {
		return 0, ErrAlreadyClaimed
	}
	if lastClaim == "" {
		return 1, nil
	}

	prev, err := time.Parse(dateLayout, lastClaim)
	if err != nil {
		return 1, nil
	}
	day, err := time.Parse(dateLayout, today)
	if err != nil {
		return 1, nil
	}

	if day.Sub(prev) == 24*time.Hour {
		return current + 1, nil
	}
	return 1, nil
}

// BonusAward scales the base payout with the streak escalator, capped the
// same way as the walk reward daily multiplier.
func BonusAward(streak int) float64 {
	mult := math.Min(1+reward.StreakRate*float64(streak-1), reward.StreakCap)
	return math.Round(DailyBonusBase*mult*100) / 100
}
