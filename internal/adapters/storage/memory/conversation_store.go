package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// ConversationStore keeps one-on-one logs in memory. Callers get copies, so
// the only way to change a stored message is UpdateMessage.
type ConversationStore struct {
	mu   sync.RWMutex
	logs map[domain.ConversationKey][]*domain.Message
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		logs: make(map[domain.ConversationKey][]*domain.Message),
	}
}

func normalize(key domain.ConversationKey) domain.ConversationKey {
	if key.ContextID == "" {
		key.ContextID = domain.GeneralContext
	}
	return key
}

func (s *ConversationStore) AppendMessages(ctx context.Context, key domain.ConversationKey, msgs ...*domain.Message) error {
	key = normalize(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range msgs {
		s.logs[key] = append(s.logs[key], m.Clone())
	}
	return nil
}

func (s *ConversationStore) GetMessages(ctx context.Context, key domain.ConversationKey) ([]*domain.Message, error) {
	key = normalize(key)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.CloneMessages(s.logs[key]), nil
}

func (s *ConversationStore) UpdateMessage(ctx context.Context, key domain.ConversationKey, id domain.MessageID, fn func(*domain.Message) error) error {
	key = normalize(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.logs[key] {
		if m.ID != id {
			continue
		}
		updated := m.Clone()
		if err := fn(updated); err != nil {
			return err
		}
		s.logs[key][i] = updated
		return nil
	}
	return domain.NotFoundf("message %s in %s", id, key)
}
