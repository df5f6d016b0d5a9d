package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.SessionID]*domain.Session),
	}
}

func (s *SessionStore) CreateSession(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return errors.New("session already exists")
	}

	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *SessionStore) UpdateSession(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; !exists {
		return domain.NotFoundf("session %s", session.ID)
	}

	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.NotFoundf("session %s", id)
	}

	return sess.Clone(), nil
}

// ListSessions returns the most recently active sessions first.
func (s *SessionStore) ListSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, sess.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastActivity.After(result[j].LastActivity)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
