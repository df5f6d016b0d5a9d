package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (STAFFDESK_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("brainstorm_sessions")
}

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

// conversationDoc holds the sequence counter of one log. Document ids cannot
// contain '/', so the key is joined with "__".
func (s *Store) conversationDoc(key domain.ConversationKey) *firestore.DocumentRef {
	ctx := key.ContextID
	if ctx.IsGeneral() {
		ctx = domain.GeneralContext
	}
	id := strings.ReplaceAll(string(key.EmployeeID), "/", "_") + "__" + strings.ReplaceAll(string(ctx), "/", "_")
	return s.client.Collection("conversations").Doc(id)
}

func (s *Store) messagesCol(key domain.ConversationKey) *firestore.CollectionRef {
	return s.conversationDoc(key).Collection("messages")
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type conversationDoc struct {
	EmployeeID string    `firestore:"employee_id"`
	ContextID  string    `firestore:"context_id"`
	Count      int64     `firestore:"count"`
	UpdatedAt  time.Time `firestore:"updated_at"`
}

type messageDoc struct {
	Seq       int64     `firestore:"seq"`
	Role      string    `firestore:"role"`
	Text      string    `firestore:"text"`
	CreatedAt time.Time `firestore:"created_at"`
	System    bool      `firestore:"system"`
	Praised   bool      `firestore:"praised"`
	// Body is the full message as JSON; the other fields are for querying.
	Body string `firestore:"body"`
}

type sessionDoc struct {
	Topic          string    `firestore:"topic"`
	ContextType    string    `firestore:"context_type"`
	ContextID      string    `firestore:"context_id"`
	ParticipantIDs []string  `firestore:"participant_ids"`
	History        string    `firestore:"history"`
	CreatedAt      time.Time `firestore:"created_at"`
	LastActivity   time.Time `firestore:"last_activity"`
}

func toMessageDoc(seq int64, m *domain.Message) (messageDoc, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return messageDoc{}, fmt.Errorf("encode message %s: %w", m.ID, err)
	}
	return messageDoc{
		Seq:       seq,
		Role:      string(m.Role),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
		System:    m.System,
		Praised:   m.Praised,
		Body:      string(body),
	}, nil
}

func (d messageDoc) message() (*domain.Message, error) {
	var m domain.Message
	if err := json.Unmarshal([]byte(d.Body), &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &m, nil
}

func toSessionDoc(session *domain.Session) (sessionDoc, error) {
	history, err := json.Marshal(session.History)
	if err != nil {
		return sessionDoc{}, fmt.Errorf("encode history: %w", err)
	}
	ids := make([]string, 0, len(session.ParticipantIDs))
	for _, id := range session.ParticipantIDs {
		ids = append(ids, string(id))
	}
	return sessionDoc{
		Topic:          session.Topic,
		ContextType:    string(session.ContextType),
		ContextID:      string(session.ContextID),
		ParticipantIDs: ids,
		History:        string(history),
		CreatedAt:      session.CreatedAt,
		LastActivity:   session.LastActivity,
	}, nil
}

func (d sessionDoc) session(id domain.SessionID) (*domain.Session, error) {
	out := &domain.Session{
		ID:           id,
		Topic:        d.Topic,
		ContextType:  domain.ContextType(d.ContextType),
		ContextID:    domain.ProjectID(d.ContextID),
		History:      []*domain.Message{},
		CreatedAt:    d.CreatedAt,
		LastActivity: d.LastActivity,
	}
	for _, p := range d.ParticipantIDs {
		out.ParticipantIDs = append(out.ParticipantIDs, domain.EmployeeID(p))
	}
	if d.History != "" {
		if err := json.Unmarshal([]byte(d.History), &out.History); err != nil {
			return nil, fmt.Errorf("decode history of %s: %w", id, err)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessages(ctx context.Context, key domain.ConversationKey, msgs ...*domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	convRef := s.conversationDoc(key)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var conv conversationDoc
		snap, err := tx.Get(convRef)
		switch {
		case err == nil:
			if err := snap.DataTo(&conv); err != nil {
				return err
			}
		case isNotFound(err):
			conv = conversationDoc{EmployeeID: string(key.EmployeeID), ContextID: string(key.ContextID)}
		default:
			return err
		}

		for _, m := range msgs {
			conv.Count++
			doc, err := toMessageDoc(conv.Count, m)
			if err != nil {
				return err
			}
			if err := tx.Set(s.messagesCol(key).Doc(string(m.ID)), doc); err != nil {
				return err
			}
		}
		conv.UpdatedAt = time.Now()
		return tx.Set(convRef, conv)
	})
	if err != nil {
		return fmt.Errorf("firestore AppendMessages: %w", err)
	}
	return nil
}

func (s *Store) GetMessages(ctx context.Context, key domain.ConversationKey) ([]*domain.Message, error) {
	iter := s.messagesCol(key).OrderBy("seq", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	out := []*domain.Message{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore GetMessages: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}
		m, err := doc.message()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) UpdateMessage(ctx context.Context, key domain.ConversationKey, id domain.MessageID, fn func(*domain.Message) error) error {
	ref := s.messagesCol(key).Doc(string(id))

	var notFound bool
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				notFound = true
			}
			return err
		}
		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		m, err := doc.message()
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		updated, err := toMessageDoc(doc.Seq, m)
		if err != nil {
			return err
		}
		return tx.Set(ref, updated)
	})
	if notFound {
		return domain.NotFoundf("message %s in %s", id, key)
	}
	if err != nil {
		return fmt.Errorf("firestore UpdateMessage: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	doc, err := toSessionDoc(session)
	if err != nil {
		return err
	}

	_, err = s.sessionDoc(session.ID).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore CreateSession: %w", err)
	}
	return nil
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	doc, err := toSessionDoc(session)
	if err != nil {
		return err
	}

	_, err = s.sessionDoc(session.ID).Update(ctx, []firestore.Update{
		{Path: "topic", Value: doc.Topic},
		{Path: "participant_ids", Value: doc.ParticipantIDs},
		{Path: "history", Value: doc.History},
		{Path: "last_activity", Value: doc.LastActivity},
	})
	if err != nil {
		if isNotFound(err) {
			return domain.NotFoundf("session %s", session.ID)
		}
		return fmt.Errorf("firestore UpdateSession: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	snap, err := s.sessionDoc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFoundf("session %s", id)
		}
		return nil, fmt.Errorf("firestore GetSession: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetSession decode: %w", err)
	}
	return doc.session(id)
}

func (s *Store) ListSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	q := s.sessionsCol().OrderBy("last_activity", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Session
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListSessions: %w", err)
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}
		session, err := doc.session(domain.SessionID(snap.Ref.ID))
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, nil
}

var (
	_ domain.ConversationStore = (*Store)(nil)
	_ domain.SessionStore      = (*Store)(nil)
)
