package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// WindowCap bounds the rolling magnitude window; the oldest sample is evicted
// on overflow.
const WindowCap = 100

// Walk is the live, mutable record of an in-progress walk. All fields are
// guarded by the walk's own mutex; callers go through Store.WithWalk.
type Walk struct {
	mu   sync.Mutex
	done bool

	ID           string
	UserID       int64
	StartTime    time.Time
	Steps        int
	DistanceM    float64
	AvgSpeedMps  float64
	LastLat      float64
	LastLon      float64
	HasFix       bool
	LastSampleAt time.Time
	Window       []float64
}

// WindowWith returns a copy of the window with m appended, evicting the
// oldest sample when the window is at capacity. The receiver is unchanged;
// the caller commits the result to Window once the update is durable.
func (w *Walk) WindowWith(m float64) []float64 {
	win := w.Window
	if len(win) >= WindowCap {
		win = win[1:]
	}
	out := make([]float64, 0, len(win)+1)
	out = append(out, win...)
	return append(out, m)
}

// Store holds the live sessions, at most one per user. Distinct sessions are
// updated in parallel; each individual session is serialized by its mutex.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]*Walk
	byUser map[int64]string
}

func NewStore() *Store {
	return &Store{
		byID:   make(map[string]*Walk),
		byUser: make(map[int64]string),
	}
}

// Start creates a session for the user, discarding any existing one
// (last-writer-wins: a user has at most one active walk).
func (s *Store) Start(userID int64, now time.Time) *Walk {
	s.mu.Lock()
	defer s.mu.Unlock()

	if oldID, ok := s.byUser[userID]; ok {
		if old, ok := s.byID[oldID]; ok {
			old.mu.Lock()
			old.done = true
			old.mu.Unlock()
		}
		delete(s.byID, oldID)
	}

	w := &Walk{
		ID:           uuid.NewString(),
		UserID:       userID,
		StartTime:    now,
		LastSampleAt: now,
	}
	s.byID[w.ID] = w
	s.byUser[userID] = w.ID
	return w
}

// WithWalk runs fn with the session locked. fn returns true to remove the
// session (terminal transition). Returns false if no session has the given id;
// a session already finalized by a concurrent caller counts as missing.
func (s *Store) WithWalk(id string, fn func(w *Walk) (remove bool)) bool {
	s.mu.RLock()
	w, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	w.mu.Lock()
	if w.done {
		w.mu.Unlock()
		return false
	}
	remove := fn(w)
	if remove {
		w.done = true
	}
	w.mu.Unlock()

	if remove {
		s.mu.Lock()
		delete(s.byID, id)
		if s.byUser[w.UserID] == id {
			delete(s.byUser, w.UserID)
		}
		s.mu.Unlock()
	}
	return true
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
