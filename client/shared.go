package client

import (
	"sync"

	"github.com/edgeflag/flagcore/config"
	"github.com/edgeflag/flagcore/model"
)

// SharedContext protects the shared user and configuration across
// every Client built from it (the primary and every secondary
// mobile-key environment). It sits above every per-client lock in the
// hierarchy — workers may acquire it while holding their own client
// lock (to read the user when emitting an evaluation event) but never
// the reverse.
type SharedContext struct {
	mu     sync.RWMutex
	user   model.User
	config config.Config
}

// NewSharedContext builds a SharedContext for an initial user and
// configuration, shared by every Client the caller subsequently builds
// against it.
func NewSharedContext(user model.User, cfg config.Config) *SharedContext {
	return &SharedContext{user: user, config: cfg}
}

// User returns a copy of the currently identified user.
func (s *SharedContext) User() model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetUser installs a new shared user, replacing whichever one was
// previously held.
func (s *SharedContext) SetUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// Config returns a copy of the shared configuration.
func (s *SharedContext) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}
