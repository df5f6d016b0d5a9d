// Package sqlite persists conversation logs and brainstorm sessions in a local
// SQLite file. Messages and histories are stored as JSON documents.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath. ":memory:" is accepted for tests.
func New(dbPath string) (*Store, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers; one connection keeps ":memory:" a single database too.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS conversation_messages (
		employee_id TEXT NOT NULL,
		context_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		message_id TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (employee_id, context_id, seq)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_conversation_message_id
		ON conversation_messages(employee_id, context_id, message_id);

	CREATE TABLE IF NOT EXISTS brainstorm_sessions (
		session_id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		context_type TEXT NOT NULL,
		context_id TEXT,
		participants_json TEXT NOT NULL,
		history_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		last_activity INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_activity ON brainstorm_sessions(last_activity);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func normalize(key domain.ConversationKey) domain.ConversationKey {
	if key.ContextID.IsGeneral() {
		key.ContextID = domain.GeneralContext
	}
	return key
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessages(ctx context.Context, key domain.ConversationKey, msgs ...*domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	key = normalize(key)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM conversation_messages WHERE employee_id = ? AND context_id = ?`,
		string(key.EmployeeID), string(key.ContextID),
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("read sequence: %w", err)
	}

	for _, m := range msgs {
		body, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode message %s: %w", m.ID, err)
		}
		seq++
		_, err = tx.ExecContext(ctx, `
			INSERT INTO conversation_messages (employee_id, context_id, seq, message_id, body, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(key.EmployeeID), string(key.ContextID), seq, string(m.ID), string(body), m.CreatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert message %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetMessages(ctx context.Context, key domain.ConversationKey) ([]*domain.Message, error) {
	key = normalize(key)
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM conversation_messages
		WHERE employee_id = ? AND context_id = ?
		ORDER BY seq`,
		string(key.EmployeeID), string(key.ContextID),
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := []*domain.Message{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		var m domain.Message
		if err := json.Unmarshal([]byte(body), &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMessage(ctx context.Context, key domain.ConversationKey, id domain.MessageID, fn func(*domain.Message) error) error {
	key = normalize(key)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var body string
	err = tx.QueryRowContext(ctx, `
		SELECT body FROM conversation_messages
		WHERE employee_id = ? AND context_id = ? AND message_id = ?`,
		string(key.EmployeeID), string(key.ContextID), string(id),
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundf("message %s in %s", id, key)
	}
	if err != nil {
		return fmt.Errorf("read message %s: %w", id, err)
	}

	var m domain.Message
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := fn(&m); err != nil {
		return err
	}
	updated, err := json.Marshal(&m)
	if err != nil {
		return fmt.Errorf("encode message %s: %w", id, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE conversation_messages SET body = ?
		WHERE employee_id = ? AND context_id = ? AND message_id = ?`,
		string(updated), string(key.EmployeeID), string(key.ContextID), string(id),
	)
	if err != nil {
		return fmt.Errorf("update message %s: %w", id, err)
	}
	return tx.Commit()
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func encodeSession(session *domain.Session) (participants, history string, err error) {
	p, err := json.Marshal(session.ParticipantIDs)
	if err != nil {
		return "", "", fmt.Errorf("encode participants: %w", err)
	}
	h := session.History
	if h == nil {
		h = []*domain.Message{}
	}
	hist, err := json.Marshal(h)
	if err != nil {
		return "", "", fmt.Errorf("encode history: %w", err)
	}
	return string(p), string(hist), nil
}

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	participants, history, err := encodeSession(session)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO brainstorm_sessions
			(session_id, topic, context_type, context_id, participants_json, history_json, created_at, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(session.ID), session.Topic, string(session.ContextType), string(session.ContextID),
		participants, history, session.CreatedAt.UnixNano(), session.LastActivity.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", session.ID, err)
	}
	return nil
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	participants, history, err := encodeSession(session)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE brainstorm_sessions
		SET topic = ?, participants_json = ?, history_json = ?, last_activity = ?
		WHERE session_id = ?`,
		session.Topic, participants, history, session.LastActivity.UnixNano(), string(session.ID),
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", session.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundf("session %s", session.ID)
	}
	return nil
}

const sessionColumns = `session_id, topic, context_type, context_id, participants_json, history_json, created_at, last_activity`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*domain.Session, error) {
	var (
		session                 domain.Session
		contextID               sql.NullString
		participants, history   string
		createdAt, lastActivity int64
	)
	err := row.Scan(&session.ID, &session.Topic, &session.ContextType, &contextID,
		&participants, &history, &createdAt, &lastActivity)
	if err != nil {
		return nil, err
	}
	session.ContextID = domain.ProjectID(contextID.String)
	session.CreatedAt = time.Unix(0, createdAt)
	session.LastActivity = time.Unix(0, lastActivity)
	if err := json.Unmarshal([]byte(participants), &session.ParticipantIDs); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &session.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return &session, nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM brainstorm_sessions WHERE session_id = ?`, string(id))
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("session %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return session, nil
}

func (s *Store) ListSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM brainstorm_sessions ORDER BY last_activity DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

var (
	_ domain.ConversationStore = (*Store)(nil)
	_ domain.SessionStore      = (*Store)(nil)
)
