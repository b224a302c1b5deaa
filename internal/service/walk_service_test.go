package service

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/moveon/moveon-backend-go/internal/models"
	"github.com/moveon/moveon-backend-go/internal/session"
)

type fakeUsers struct {
	mu         sync.Mutex
	byID       map[int64]*models.User
	nextID     int64
	failEnergy bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[int64]*models.User)}
}

func (f *fakeUsers) add(u models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.byID[u.ID] = &u
	return &u
}

func (f *fakeUsers) GetByTelegramID(telegramID int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByID(id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUsers) Create(u *models.User) error {
	created := f.add(*u)
	u.ID = created.ID
	return nil
}

func (f *fakeUsers) UpdateEnergy(id int64, energy int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEnergy {
		return errors.New("storage down")
	}
	if u, ok := f.byID[id]; ok {
		u.Energy = energy
		u.LastEnergyUpdate = at
	}
	return nil
}

type fakeWalks struct {
	mu        sync.Mutex
	finalized []models.Walk
	credits   []float64
}

func (f *fakeWalks) Finalize(w *models.Walk, credit float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.ID = int64(len(f.finalized) + 1)
	f.finalized = append(f.finalized, *w)
	f.credits = append(f.credits, credit)
	return nil
}

func (f *fakeWalks) ListByUser(userID int64, filter models.WalkFilter) ([]models.Walk, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Walk
	for _, w := range f.finalized {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, int64(len(out)), nil
}

type fixedRand struct{ v float64 }

func (r fixedRand) Float64() float64 { return r.v }

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func fp(v float64) *float64 { return &v }

func newTestEngine(t *testing.T, u models.User) (*WalkService, *fakeUsers, *fakeWalks, *testClock, string) {
	t.Helper()

	users := newFakeUsers()
	user := users.add(u)
	walks := &fakeWalks{}
	clk := &testClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}

	// Pin the regen checkpoint to the test clock.
	users.byID[user.ID].LastEnergyUpdate = clk.t

	svc := NewWalkService(users, walks, session.NewStore()).
		WithClock(clk.now).
		WithRand(fixedRand{v: 0.99})

	walkID, err := svc.Start(models.StartWalkRequest{TelegramID: user.TelegramID})
	if err != nil {
		t.Fatalf("start walk: %v", err)
	}
	return svc, users, walks, clk, walkID
}

func accSample(walkID string, magnitude float64) models.UpdateWalkRequest {
	return models.UpdateWalkRequest{
		WalkID: walkID,
		AccX:   fp(0),
		AccY:   fp(0),
		AccZ:   fp(magnitude),
	}
}

func TestUpdateUnknownSessionNotFound(t *testing.T) {
	svc, _, _, _, _ := newTestEngine(t, models.User{TelegramID: 1, Energy: 100, MaxEnergy: 100})

	_, err := svc.Update(accSample("missing", 9.81))
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
}

func TestStartReplacesSession(t *testing.T) {
	svc, _, _, _, first := newTestEngine(t, models.User{TelegramID: 1, Energy: 100, MaxEnergy: 100})

	second, err := svc.Start(models.StartWalkRequest{TelegramID: 1})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if first == second {
		t.Fatal("expected a fresh walk id")
	}

	if _, err := svc.Update(accSample(first, 9.81)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("stale session update: got %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.Update(accSample(second, 9.81)); err != nil {
		t.Errorf("fresh session update failed: %v", err)
	}
}

func TestUpdateCountsStepsMonotonically(t *testing.T) {
	svc, _, _, clk, walkID := newTestEngine(t, models.User{TelegramID: 1, Energy: 500, MaxEnergy: 500})

	// A walking-like magnitude stream: gravity baseline with impact bumps
	// every 25 samples.
	var last *models.UpdateWalkResponse
	for i := 0; i < 100; i++ {
		mag := 9.81
		for _, c := range []int{12, 37, 62, 87} {
			d := float64(i - c)
			mag += 3 * math.Exp(-d*d/32)
		}
		clk.advance(20 * time.Millisecond)
		resp, err := svc.Update(accSample(walkID, mag))
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
		if last != nil && resp.Steps < last.Steps {
			t.Fatalf("step count regressed at %d: %d -> %d", i, last.Steps, resp.Steps)
		}
		last = resp
	}
	if last.Steps != 4 {
		t.Fatalf("got %d steps, want 4", last.Steps)
	}

	// A silent stretch slides the bumps out of the window; the running total
	// must not drop.
	for i := 0; i < 120; i++ {
		clk.advance(20 * time.Millisecond)
		resp, err := svc.Update(accSample(walkID, 9.81))
		if err != nil {
			t.Fatalf("silent update %d: %v", i, err)
		}
		if resp.Steps < 4 {
			t.Fatalf("step count dropped to %d after window slid", resp.Steps)
		}
	}
}

func TestUpdateGPSGating(t *testing.T) {
	svc, _, _, clk, walkID := newTestEngine(t, models.User{TelegramID: 1, Energy: 100, MaxEnergy: 100})

	const lonPerMeter = 1.0 / 111194.93 // at the equator

	send := func(lon float64, speed *float64) *models.UpdateWalkResponse {
		clk.advance(time.Second)
		req := accSample(walkID, 9.81)
		req.Latitude = fp(0)
		req.Longitude = fp(lon)
		req.Speed = speed
		resp, err := svc.Update(req)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		return resp
	}

	lon := 0.0
	resp := send(lon, nil) // first fix, nothing to accumulate
	if resp.Distance != 0 {
		t.Fatalf("distance after first fix = %g, want 0", resp.Distance)
	}

	lon += 10 * lonPerMeter // plausible 10 m step
	resp = send(lon, nil)
	if resp.Distance < 9.5 || resp.Distance > 10.5 {
		t.Fatalf("distance after plausible delta = %g, want ~10", resp.Distance)
	}

	lon += 200 * lonPerMeter // teleport, discarded
	resp = send(lon, nil)
	if resp.Distance < 9.5 || resp.Distance > 10.5 {
		t.Fatalf("distance after teleport = %g, want unchanged ~10", resp.Distance)
	}

	// The fix advanced past the teleport, so a normal step from the new
	// position is accepted.
	lon += 10 * lonPerMeter
	resp = send(lon, nil)
	if resp.Distance < 19 || resp.Distance > 21 {
		t.Fatalf("distance after recovery = %g, want ~20", resp.Distance)
	}

	lon += 1 * lonPerMeter // below the 2 m noise floor
	resp = send(lon, nil)
	if resp.Distance < 19 || resp.Distance > 21 {
		t.Fatalf("distance after sub-noise delta = %g, want unchanged", resp.Distance)
	}

	lon += 10 * lonPerMeter // plausible delta but implausible reported speed
	resp = send(lon, fp(25))
	if resp.Distance < 19 || resp.Distance > 21 {
		t.Fatalf("distance after overspeed sample = %g, want unchanged", resp.Distance)
	}

	if resp.Steps != 0 {
		t.Errorf("constant magnitude produced %d steps", resp.Steps)
	}
}

func TestUpdateAverageSpeed(t *testing.T) {
	svc, _, _, clk, walkID := newTestEngine(t, models.User{TelegramID: 1, Energy: 100, MaxEnergy: 100})

	const lonPerMeter = 1.0 / 111194.93

	req := accSample(walkID, 9.81)
	req.Latitude = fp(0)
	req.Longitude = fp(0)
	clk.advance(time.Second)
	if _, err := svc.Update(req); err != nil {
		t.Fatal(err)
	}

	req = accSample(walkID, 9.81)
	req.Latitude = fp(0)
	req.Longitude = fp(10 * lonPerMeter)
	clk.advance(99 * time.Second)
	resp, err := svc.Update(req)
	if err != nil {
		t.Fatal(err)
	}

	// ~10 m over 100 s elapsed.
	if resp.AverageSpeed < 0.09 || resp.AverageSpeed > 0.11 {
		t.Errorf("average speed = %g, want ~0.1 m/s", resp.AverageSpeed)
	}
}

func TestUpdateConsumesEnergy(t *testing.T) {
	svc, users, _, clk, walkID := newTestEngine(t, models.User{TelegramID: 1, Energy: 5, MaxEnergy: 100})

	clk.advance(time.Second)
	resp, err := svc.Update(accSample(walkID, 9.81))
	if err != nil {
		t.Fatal(err)
	}
	if resp.RemainingEnergy != 4 {
		t.Errorf("got remaining energy %d, want 4", resp.RemainingEnergy)
	}

	stored, _ := users.GetByTelegramID(1)
	if stored.Energy != 4 {
		t.Errorf("persisted energy %d, want 4", stored.Energy)
	}
}

func TestEnergyExhaustionInterruptsSession(t *testing.T) {
	svc, _, walks, clk, walkID := newTestEngine(t, models.User{TelegramID: 1, Energy: 1, MaxEnergy: 100})

	clk.advance(time.Second)
	resp, err := svc.Update(accSample(walkID, 9.81))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Completed || resp.RemainingEnergy != 0 {
		t.Fatalf("first update: %+v, want normal response draining to 0", resp)
	}

	clk.advance(time.Second)
	resp, err = svc.Update(accSample(walkID, 9.81))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Completed || resp.Completion == nil {
		t.Fatalf("second update: %+v, want interrupted completion", resp)
	}
	if !resp.Completion.IsInterrupted {
		t.Error("completion not flagged interrupted")
	}

	if len(walks.finalized) != 1 || !walks.finalized[0].IsInterrupted || !walks.finalized[0].IsValid {
		t.Fatalf("finalized walks: %+v, want one valid interrupted walk", walks.finalized)
	}

	if _, err := svc.Update(accSample(walkID, 9.81)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("update after completion: got %v, want ErrSessionNotFound", err)
	}
}

func TestStaleSessionInterrupted(t *testing.T) {
	svc, _, walks, clk, walkID := newTestEngine(t, models.User{TelegramID: 1, Energy: 100, MaxEnergy: 100})

	clk.advance(time.Second)
	if _, err := svc.Update(accSample(walkID, 9.81)); err != nil {
		t.Fatal(err)
	}

	clk.advance(StaleAfter + time.Minute)
	resp, err := svc.Update(accSample(walkID, 9.81))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Completed || resp.Completion == nil || !resp.Completion.IsInterrupted {
		t.Fatalf("got %+v, want interrupted completion", resp)
	}
	if len(walks.finalized) != 1 || !walks.finalized[0].IsInterrupted {
		t.Fatalf("finalized: %+v", walks.finalized)
	}
}

func TestFinishPaysReward(t *testing.T) {
	svc, _, walks, clk, walkID := newTestEngine(t, models.User{TelegramID: 1, Energy: 100, MaxEnergy: 100})

	// Shape the terminal state directly: 1 km at 6 km/h with 1300 steps.
	svc.sessions.WithWalk(walkID, func(w *session.Walk) bool {
		w.Steps = 1300
		w.DistanceM = 1000
		w.AvgSpeedMps = 6.0 / 3.6
		return false
	})

	clk.advance(10 * time.Minute)
	resp, err := svc.Finish(walkID)
	if err != nil {
		t.Fatal(err)
	}

	if resp.Reward != 23.0 {
		t.Errorf("got reward %g, want 23.0", resp.Reward)
	}
	if resp.IsLucky || resp.IsInterrupted {
		t.Errorf("unexpected flags: %+v", resp)
	}

	if len(walks.finalized) != 1 {
		t.Fatalf("got %d finalized walks, want 1", len(walks.finalized))
	}
	w := walks.finalized[0]
	if !w.IsValid || w.IsInterrupted || w.Reward != 23.0 || w.Steps != 1300 {
		t.Errorf("finalized walk: %+v", w)
	}
	if walks.credits[0] != 23.0 {
		t.Errorf("credited %g, want 23.0", walks.credits[0])
	}

	if _, err := svc.Finish(walkID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("double finish: got %v, want ErrSessionNotFound", err)
	}
}

func TestStopRecordsInvalidWalk(t *testing.T) {
	svc, _, walks, _, walkID := newTestEngine(t, models.User{TelegramID: 1, Energy: 100, MaxEnergy: 100})

	resp, err := svc.Stop(walkID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Reward != 0 {
		t.Errorf("stop paid %g", resp.Reward)
	}

	if len(walks.finalized) != 1 || walks.finalized[0].IsValid {
		t.Fatalf("finalized: %+v, want one invalid walk", walks.finalized)
	}
	if walks.credits[0] != 0 {
		t.Errorf("credited %g on stop, want 0", walks.credits[0])
	}
}

func TestUpdateErrorLeavesSessionUntouched(t *testing.T) {
	svc, users, _, clk, walkID := newTestEngine(t, models.User{TelegramID: 1, Energy: 100, MaxEnergy: 100})

	clk.advance(time.Second)
	if _, err := svc.Update(accSample(walkID, 12.0)); err != nil {
		t.Fatal(err)
	}

	var stepsBefore int
	var windowBefore int
	svc.sessions.WithWalk(walkID, func(w *session.Walk) bool {
		stepsBefore = w.Steps
		windowBefore = len(w.Window)
		return false
	})

	users.failEnergy = true
	clk.advance(time.Second)
	if _, err := svc.Update(accSample(walkID, 15.0)); err == nil {
		t.Fatal("expected persistence error")
	}

	svc.sessions.WithWalk(walkID, func(w *session.Walk) bool {
		if w.Steps != stepsBefore || len(w.Window) != windowBefore {
			t.Errorf("session mutated on error: steps %d->%d window %d->%d",
				stepsBefore, w.Steps, windowBefore, len(w.Window))
		}
		return false
	})

	// Recovery: the same sample succeeds once storage is back.
	users.failEnergy = false
	if _, err := svc.Update(accSample(walkID, 15.0)); err != nil {
		t.Errorf("update after recovery: %v", err)
	}
}

func TestRegenerate(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	u := &models.User{Energy: 50, MaxEnergy: 100, LastEnergyUpdate: base}

	// 25 minutes -> two intervals, remainder kept in the checkpoint.
	energy, checkpoint := regenerate(u, base.Add(25*time.Minute))
	if energy != 52 {
		t.Errorf("got energy %d, want 52", energy)
	}
	if want := base.Add(24 * time.Minute); !checkpoint.Equal(want) {
		t.Errorf("got checkpoint %v, want %v", checkpoint, want)
	}

	// Regeneration caps at max.
	u.Energy = 99
	energy, _ = regenerate(u, base.Add(10*time.Hour))
	if energy != 100 {
		t.Errorf("got energy %d, want capped 100", energy)
	}

	// Nothing accrues inside a single interval.
	u.Energy = 50
	energy, checkpoint = regenerate(u, base.Add(5*time.Minute))
	if energy != 50 || !checkpoint.Equal(base) {
		t.Errorf("got %d at %v, want 50 at %v", energy, checkpoint, base)
	}
}

func TestStartRequiresEnergy(t *testing.T) {
	users := newFakeUsers()
	clk := &testClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	users.add(models.User{TelegramID: 2, Energy: 0, MaxEnergy: 100, LastEnergyUpdate: clk.t})

	svc := NewWalkService(users, &fakeWalks{}, session.NewStore()).WithClock(clk.now)

	if _, err := svc.Start(models.StartWalkRequest{TelegramID: 2}); !errors.Is(err, ErrNoEnergy) {
		t.Errorf("got %v, want ErrNoEnergy", err)
	}

	// One regen interval later the walk opens.
	clk.advance(models.EnergyRegenInterval + time.Minute)
	if _, err := svc.Start(models.StartWalkRequest{TelegramID: 2}); err != nil {
		t.Errorf("start after regeneration: %v", err)
	}
}
