package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain"
	"github.com/Victor-armando18/service-giftbuilder/internal/interfaces"
)

// SessionStore keeps builder sessions in process memory. It is safe for
// concurrent use; sessions do not survive a restart.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

var _ interfaces.SessionStore = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

func (s *SessionStore) Create(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" {
		return fmt.Errorf("session id is required")
	}
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return session.Clone(), nil
}

func (s *SessionStore) Update(_ context.Context, id string, fn func(domain.Session) (domain.Session, error)) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	next, err := fn(current.Clone())
	if err != nil {
		return domain.Session{}, err
	}
	next.ID = id
	s.sessions[id] = next.Clone()
	return next, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) DeleteIfVersion(_ context.Context, id string, version int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if session.Version != version {
		return false, nil
	}
	delete(s.sessions, id)
	return true, nil
}

// PurgeIdle drops every session whose last update is before idleSince.
func (s *SessionStore) PurgeIdle(_ context.Context, idleSince time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(idleSince) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged, nil
}

func (s *SessionStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}
