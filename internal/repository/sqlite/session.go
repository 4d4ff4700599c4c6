package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Rrens/pdf-chat/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	document_text TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL,
	expires_at    INTEGER
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at);
CREATE TABLE IF NOT EXISTS turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session_id ON turns (session_id, id);
`

// SessionStore implements domain.SessionStore on a local SQLite file
type SessionStore struct {
	db         *sql.DB
	ttl        time.Duration
	maxHistory int
}

// NewSessionStore opens (or creates) the database at path and ensures the schema
func NewSessionStore(ctx context.Context, path string, opts domain.StoreOptions) (*SessionStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database file path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SessionStore{
		db:         db,
		ttl:        opts.TTL,
		maxHistory: domain.MaxHistory(opts.HistoryWindow),
	}, nil
}

func (s *SessionStore) expiresAt(now time.Time) sql.NullInt64 {
	if s.ttl <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: now.Add(s.ttl).UnixNano(), Valid: true}
}

func (s *SessionStore) Create(ctx context.Context, documentText string) (*domain.Session, error) {
	now := time.Now().UTC()
	session := &domain.Session{
		ID:           domain.NewSessionID(),
		DocumentText: documentText,
		History:      []domain.Turn{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, document_text, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, session.ID, session.DocumentText, now.UnixNano(), now.UnixNano(), s.expiresAt(now))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	var (
		session          domain.Session
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, document_text, created_at, updated_at
		FROM sessions
		WHERE id = ? AND (expires_at IS NULL OR expires_at > ?)
	`, id, time.Now().UnixNano()).Scan(&session.ID, &session.DocumentText, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	session.CreatedAt = time.Unix(0, created).UTC()
	session.UpdatedAt = time.Unix(0, updated).UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM turns WHERE session_id = ? ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get turns: %w", err)
	}
	defer rows.Close()

	session.History = []domain.Turn{}
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		session.History = append(session.History, domain.Turn{Role: domain.Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}

	return &session, nil
}

func (s *SessionStore) AppendTurn(ctx context.Context, id string, turn domain.Turn) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
		UPDATE sessions SET updated_at = ?, expires_at = ?
		WHERE id = ? AND (expires_at IS NULL OR expires_at > ?)
	`, now.UnixNano(), s.expiresAt(now), id, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to touch session: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("failed to touch session: %w", err)
	} else if n == 0 {
		return 0, domain.ErrSessionNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO turns (session_id, role, content, created_at) VALUES (?, ?, ?, ?)
	`, id, string(turn.Role), turn.Content, now.UnixNano()); err != nil {
		return 0, fmt.Errorf("failed to insert turn: %w", err)
	}

	if turn.Role == domain.RoleAssistant && s.maxHistory > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM turns
			WHERE session_id = ? AND id NOT IN (
				SELECT id FROM turns WHERE session_id = ? ORDER BY id DESC LIMIT ?
			)
		`, id, id, s.maxHistory); err != nil {
			return 0, fmt.Errorf("failed to trim turns: %w", err)
		}
	}

	var length int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM turns WHERE session_id = ?`, id).Scan(&length); err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return length, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE id = ? AND (expires_at IS NULL OR expires_at > ?)
	`, id, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete turns: %w", err)
	}

	return tx.Commit()
}

// DeleteExpired removes sessions past their expiry along with their turns
func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixNano()
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM turns WHERE session_id IN (
			SELECT id FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= ?
		)
	`, now); err != nil {
		return 0, fmt.Errorf("failed to delete expired turns: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= ?
	`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(n), nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}
