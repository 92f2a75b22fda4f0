package strava

import "sync"

// Syncer orders overlapping syncs of the same user.
//
// Every Begin bumps the user's generation. A sync holding an older ticket
// than the current generation has been superseded, and Apply refuses to run
// its write step. Begin and Apply for one user are serialized, so a check
// that passes stays true until the write step returns.
type Syncer struct {
	mu    sync.Mutex
	users map[string]*userGen
}

type userGen struct {
	mu  sync.Mutex
	gen uint64
}

// Ticket identifies one sync attempt.
type Ticket struct {
	UserID     string
	Generation uint64
}

// NewSyncer creates a Syncer.
func NewSyncer() *Syncer {
	return &Syncer{users: make(map[string]*userGen)}
}

func (s *Syncer) user(userID string) *userGen {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		u = &userGen{}
		s.users[userID] = u
	}
	return u
}

// Begin starts a sync for userID and supersedes any sync still in flight.
func (s *Syncer) Begin(userID string) Ticket {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.gen++
	return Ticket{UserID: userID, Generation: u.gen}
}

// Current reports whether t is still the newest sync of its user.
func (s *Syncer) Current(t Ticket) bool {
	u := s.user(t.UserID)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.gen == t.Generation
}

// Apply runs fn only if t is still current. It reports whether fn ran.
func (s *Syncer) Apply(t Ticket, fn func() error) (bool, error) {
	u := s.user(t.UserID)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.gen != t.Generation {
		return false, nil
	}
	return true, fn()
}
