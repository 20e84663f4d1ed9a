// Package history keeps the conversation of each séance in SQLite: every
// question asked and every answer the planchette finished spelling.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a séance's conversation
type Message struct {
	ID        int64
	SessionID string
	Role      Role
	Content   string
	CreatedAt time.Time
}

var (
	ErrClosed      = errors.New("history store closed")
	ErrInvalidRole = errors.New("invalid message role")
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT    NOT NULL,
	role       TEXT    NOT NULL,
	content    TEXT    NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_session ON messages (session_id, id);
`

// Store is safe for concurrent use by many sessions
type Store struct {
	db *sql.DB

	mu     sync.RWMutex
	closed bool
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history: %w", err)
	}
	return &Store{db: db}, nil
}

// Append stores m and returns it with ID and CreatedAt filled in
func (s *Store) Append(ctx context.Context, m Message) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Message{}, ErrClosed
	}
	if m.Role != RoleUser && m.Role != RoleAssistant {
		return Message{}, fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		m.SessionID, string(m.Role), m.Content, m.CreatedAt.UnixMilli())
	if err != nil {
		return Message{}, fmt.Errorf("failed to append message: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return Message{}, fmt.Errorf("failed to read message id: %w", err)
	}
	return m, nil
}

// Recent returns up to limit of the session's latest messages, oldest first
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM (
			SELECT * FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			m       Message
			role    string
			created int64
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = Role(role)
		m.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
