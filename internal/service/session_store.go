package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"freight-insure/internal/intake"

	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("intake session not found")

type sessionEntry struct {
	wizard    *intake.Wizard
	expiresAt time.Time
}

// SessionStore keeps live intake sessions in memory. A session that has not
// been touched for ttl is treated as abandoned and dropped.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewSessionStore(ttl time.Duration, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *SessionStore) Put(id string, w *intake.Wizard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &sessionEntry{wizard: w, expiresAt: s.now().Add(s.ttl)}
}

// Get returns the wizard for id and extends its lifetime.
func (s *SessionStore) Get(id string) (*intake.Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.now()
	if now.After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	entry.expiresAt = now.Add(s.ttl)
	return entry.wizard, nil
}

func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("Expired intake sessions dropped", zap.Int("count", n))
			}
		}
	}
}
