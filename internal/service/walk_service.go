package service

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/moveon/moveon-backend-go/internal/models"
	"github.com/moveon/moveon-backend-go/internal/reward"
	"github.com/moveon/moveon-backend-go/internal/session"
	"github.com/moveon/moveon-backend-go/internal/signal"
	"github.com/moveon/moveon-backend-go/internal/spatial"
)

// Plausibility gates for GPS-derived distance. Deltas outside the band are
// sensor noise or teleports and never enter the cumulative distance; the same
// goes for samples whose reported speed exceeds the ceiling.
const (
	MinGPSDeltaM  = 2.0
	MaxGPSDeltaM  = 50.0
	MaxSpeedLimit = 20.0
)

// StaleAfter force-terminates a session when no sample has arrived for this
// long. Evaluated lazily on the next update for that session.
const StaleAfter = 10 * time.Minute

// UserStore is the slice of user persistence the walk engine needs
type UserStore interface {
	GetByTelegramID(telegramID int64) (*models.User, error)
	GetByID(id int64) (*models.User, error)
	Create(u *models.User) error
	UpdateEnergy(id int64, energy int, at time.Time) error
}

// WalkStore persists completed walks
type WalkStore interface {
	Finalize(w *models.Walk, credit float64) error
	ListByUser(userID int64, filter models.WalkFilter) ([]models.Walk, int64, error)
}

// WalkService runs the live walk pipeline: sample smoothing, step detection,
// distance accumulation, energy accounting, and terminal reward payout.
type WalkService struct {
	users    UserStore
	walks    WalkStore
	sessions *session.Store
	rng      reward.Source
	now      func() time.Time
}

// NewWalkService creates a walk service with production clock and randomness
func NewWalkService(users UserStore, walks WalkStore, sessions *session.Store) *WalkService {
	return &WalkService{
		users:    users,
		walks:    walks,
		sessions: sessions,
		rng:      reward.NewSource(time.Now().UnixNano()),
		now:      time.Now,
	}
}

// WithClock overrides the wall clock (tests)
func (s *WalkService) WithClock(now func() time.Time) *WalkService {
	s.now = now
	return s
}

// WithRand overrides the luck randomness source (tests)
func (s *WalkService) WithRand(rng reward.Source) *WalkService {
	s.rng = rng
	return s
}

// Start opens a walk session for the Telegram user, registering the user on
// first contact. Any session the user already has is discarded.
func (s *WalkService) Start(req models.StartWalkRequest) (string, error) {
	user, err := s.users.GetByTelegramID(req.TelegramID)
	if err != nil {
		return "", err
	}
	if user == nil {
		user = &models.User{
			TelegramID: req.TelegramID,
			Username:   req.Username,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Energy:     models.DefaultEnergy,
		}
		if err := s.users.Create(user); err != nil {
			return "", err
		}
		log.Printf("Registered new user telegram_id=%d", user.TelegramID)
	} else if energy, _ := regenerate(user, s.now()); energy <= 0 {
		return "", ErrNoEnergy
	}

	w := s.sessions.Start(user.ID, s.now())
	return w.ID, nil
}

// Update processes one sensor sample against the session. The session mutex
// serializes concurrent updates for the same walk; on any error the session
// state is left untouched.
func (s *WalkService) Update(req models.UpdateWalkRequest) (*models.UpdateWalkResponse, error) {
	var resp *models.UpdateWalkResponse
	var opErr error

	found := s.sessions.WithWalk(req.WalkID, func(w *session.Walk) bool {
		now := s.now()

		user, err := s.users.GetByID(w.UserID)
		if err != nil {
			opErr = err
			return false
		}
		if user == nil {
			opErr = ErrUserNotFound
			return false
		}

		energy, regenAt := regenerate(user, now)

		// A long-silent session finishes as interrupted instead of
		// accepting the sample.
		if now.Sub(w.LastSampleAt) > StaleAfter {
			completion, err := s.finalize(w, user, now, true, true)
			if err != nil {
				opErr = err
				return false
			}
			resp = &models.UpdateWalkResponse{
				Steps:        w.Steps,
				Distance:     round2(w.DistanceM),
				AverageSpeed: round2(w.AvgSpeedMps),
				Completed:    true,
				Completion:   completion,
			}
			return true
		}

		// Energy exhaustion also terminates, before the sample is charged.
		if energy <= 0 {
			if err := s.users.UpdateEnergy(user.ID, 0, regenAt); err != nil {
				opErr = err
				return false
			}
			completion, err := s.finalize(w, user, now, true, true)
			if err != nil {
				opErr = err
				return false
			}
			resp = &models.UpdateWalkResponse{
				Steps:        w.Steps,
				Distance:     round2(w.DistanceM),
				AverageSpeed: round2(w.AvgSpeedMps),
				Completed:    true,
				Completion:   completion,
			}
			return true
		}
		energy--

		// Compute the whole update on locals first; the session is only
		// mutated after persistence succeeds.
		magnitude := math.Sqrt(*req.AccX**req.AccX + *req.AccY**req.AccY + *req.AccZ**req.AccZ)
		window := w.WindowWith(magnitude)

		detected := signal.CountSteps(signal.LowPass(window))
		steps := w.Steps
		if detected > steps {
			steps = detected
		}

		reported := -1.0
		if req.Speed != nil {
			reported = *req.Speed
		}

		distance := w.DistanceM
		lastLat, lastLon, hasFix := w.LastLat, w.LastLon, w.HasFix
		if req.Latitude != nil && req.Longitude != nil {
			if hasFix {
				delta := spatial.HaversineDistance(lastLat, lastLon, *req.Latitude, *req.Longitude)
				if delta > MinGPSDeltaM && delta < MaxGPSDeltaM && reported < MaxSpeedLimit {
					distance += delta
				}
			}
			// The fix always advances so a rejected jump is not re-measured
			// against the next sample.
			lastLat, lastLon, hasFix = *req.Latitude, *req.Longitude, true
		}

		elapsed := now.Sub(w.StartTime).Seconds()
		avgSpeed := 0.0
		if elapsed > 0 {
			avgSpeed = distance / elapsed
		}

		current := reported
		if current < 0 {
			current = signal.FallbackSpeed(window)
		}

		if err := s.users.UpdateEnergy(user.ID, energy, regenAt); err != nil {
			opErr = err
			return false
		}

		w.Window = window
		w.Steps = steps
		w.DistanceM = distance
		w.AvgSpeedMps = avgSpeed
		w.LastLat, w.LastLon, w.HasFix = lastLat, lastLon, hasFix
		w.LastSampleAt = now

		resp = &models.UpdateWalkResponse{
			Steps:           steps,
			Distance:        round2(distance),
			CurrentSpeed:    round2(current),
			AverageSpeed:    round2(avgSpeed),
			RemainingEnergy: energy,
		}
		return false
	})

	if !found {
		return nil, ErrSessionNotFound
	}
	return resp, opErr
}

// Finish terminates the session normally and pays out the reward
func (s *WalkService) Finish(walkID string) (*models.FinishWalkResponse, error) {
	return s.terminate(walkID, true, false)
}

// Stop abandons the session: the walk is recorded as invalid, no reward
func (s *WalkService) Stop(walkID string) (*models.FinishWalkResponse, error) {
	return s.terminate(walkID, false, false)
}

func (s *WalkService) terminate(walkID string, valid, interrupted bool) (*models.FinishWalkResponse, error) {
	var resp *models.FinishWalkResponse
	var opErr error

	found := s.sessions.WithWalk(walkID, func(w *session.Walk) bool {
		user, err := s.users.GetByID(w.UserID)
		if err != nil {
			opErr = err
			return false
		}
		if user == nil {
			opErr = ErrUserNotFound
			return false
		}

		resp, opErr = s.finalize(w, user, s.now(), valid, interrupted)
		return opErr == nil
	})

	if !found {
		return nil, ErrSessionNotFound
	}
	return resp, opErr
}

// finalize converts the live session into a completed walk. Called with the
// session locked; the caller removes the session when finalize succeeds.
func (s *WalkService) finalize(w *session.Walk, user *models.User, now time.Time, valid, interrupted bool) (*models.FinishWalkResponse, error) {
	walk := &models.Walk{
		UserID:               w.UserID,
		StartTime:            w.StartTime,
		EndTime:              now,
		Steps:                w.Steps,
		DistanceM:            w.DistanceM,
		AvgSpeedMps:          w.AvgSpeedMps,
		IsValid:              valid,
		IsInterrupted:        interrupted,
		EfficiencyMultiplier: 1,
		StreakBonus:          1,
	}

	message := "Walk abandoned, no reward"
	if valid {
		bd := reward.Calculate(reward.Input{
			DistanceKm:      w.DistanceM / 1000,
			Steps:           w.Steps,
			AvgSpeedKmh:     w.AvgSpeedMps * 3.6,
			DailyStreak:     user.DailyStreak,
			EnduranceLevel:  user.EnduranceLevel,
			EfficiencyLevel: user.EfficiencyLevel,
			LuckLevel:       user.LuckLevel,
		}, s.rng)

		walk.Reward = bd.Total
		walk.IsLucky = bd.Lucky
		walk.EfficiencyMultiplier = bd.EfficiencyMultiplier
		walk.StreakBonus = bd.DailyMultiplier

		message = fmt.Sprintf("Walk complete: %d steps, %.2f m, reward %.2f", w.Steps, w.DistanceM, bd.Total)
		if bd.Lucky {
			message = fmt.Sprintf("Lucky walk! Reward x%.1f: %.2f", bd.LuckMultiplier, bd.Total)
		}
	}

	if err := s.walks.Finalize(walk, walk.Reward); err != nil {
		return nil, err
	}

	if interrupted {
		log.Printf("Walk %s interrupted for user %d (steps=%d distance=%.1fm)", w.ID, w.UserID, w.Steps, w.DistanceM)
	}

	return &models.FinishWalkResponse{
		WalkID:        w.ID,
		Steps:         w.Steps,
		Distance:      round2(w.DistanceM),
		Reward:        walk.Reward,
		IsLucky:       walk.IsLucky,
		IsInterrupted: interrupted,
		Points:        user.Points + walk.Reward,
		Message:       message,
	}, nil
}

// History returns the user's completed walks, newest first
func (s *WalkService) History(telegramID int64, filter models.WalkFilter) ([]models.Walk, int64, error) {
	user, err := s.users.GetByTelegramID(telegramID)
	if err != nil {
		return nil, 0, err
	}
	if user == nil {
		return nil, 0, ErrUserNotFound
	}
	return s.walks.ListByUser(user.ID, filter)
}

// regenerate applies lazy passive energy regeneration: one unit per interval
// since the stored checkpoint, capped at the user's maximum. Returns the
// current energy and the advanced checkpoint.
func regenerate(u *models.User, now time.Time) (int, time.Time) {
	elapsed := now.Sub(u.LastEnergyUpdate)
	if elapsed <= 0 || u.Energy >= u.MaxEnergy {
		return u.Energy, now
	}

	units := int(elapsed / models.EnergyRegenInterval)
	if units <= 0 {
		return u.Energy, u.LastEnergyUpdate
	}

	energy := u.Energy + units
	if energy > u.MaxEnergy {
		energy = u.MaxEnergy
	}
	// Keep the remainder of a partially elapsed interval.
	checkpoint := u.LastEnergyUpdate.Add(time.Duration(units) * models.EnergyRegenInterval)
	return energy, checkpoint
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
