package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rrens/pdf-chat/internal/domain"
)

// SessionStore implements domain.SessionStore on PostgreSQL
type SessionStore struct {
	db         *DB
	ttl        time.Duration
	maxHistory int
}

// NewSessionStore creates a new PostgreSQL-backed session store
func NewSessionStore(db *DB, opts domain.StoreOptions) *SessionStore {
	return &SessionStore{
		db:         db,
		ttl:        opts.TTL,
		maxHistory: domain.MaxHistory(opts.HistoryWindow),
	}
}

func (s *SessionStore) expiresAt(now time.Time) *time.Time {
	if s.ttl <= 0 {
		return nil
	}
	t := now.Add(s.ttl)
	return &t
}

func (s *SessionStore) pool() *pgxpool.Pool {
	return s.db.Pool
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

	query := `
		INSERT INTO sessions (id, document_text, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool().Exec(ctx, query,
		session.ID,
		session.DocumentText,
		session.CreatedAt,
		session.UpdatedAt,
		s.expiresAt(now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	query := `
		SELECT id, document_text, created_at, updated_at
		FROM sessions
		WHERE id = $1 AND (expires_at IS NULL OR expires_at > $2)
	`
	var session domain.Session
	err := s.pool().QueryRow(ctx, query, id, time.Now().UTC()).Scan(
		&session.ID,
		&session.DocumentText,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	rows, err := s.pool().Query(ctx, `
		SELECT role, content
		FROM turns
		WHERE session_id = $1
		ORDER BY id ASC
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
	var length int
	err := pgx.BeginFunc(ctx, s.pool(), func(tx pgx.Tx) error {
		now := time.Now().UTC()

		// row lock serializes appends to the same session
		var locked string
		err := tx.QueryRow(ctx, `
			SELECT id FROM sessions
			WHERE id = $1 AND (expires_at IS NULL OR expires_at > $2)
			FOR UPDATE
		`, id, now).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrSessionNotFound
			}
			return fmt.Errorf("failed to lock session: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO turns (session_id, role, content, created_at)
			VALUES ($1, $2, $3, $4)
		`, id, string(turn.Role), turn.Content, now); err != nil {
			return fmt.Errorf("failed to insert turn: %w", err)
		}

		if turn.Role == domain.RoleAssistant && s.maxHistory > 0 {
			if _, err := tx.Exec(ctx, `
				DELETE FROM turns
				WHERE session_id = $1 AND id NOT IN (
					SELECT id FROM turns WHERE session_id = $1 ORDER BY id DESC LIMIT $2
				)
			`, id, s.maxHistory); err != nil {
				return fmt.Errorf("failed to trim turns: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, `
			UPDATE sessions SET updated_at = $2, expires_at = $3 WHERE id = $1
		`, id, now, s.expiresAt(now)); err != nil {
			return fmt.Errorf("failed to touch session: %w", err)
		}

		return tx.QueryRow(ctx, `SELECT COUNT(*) FROM turns WHERE session_id = $1`, id).Scan(&length)
	})
	if err != nil {
		return 0, err
	}
	return length, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool().Exec(ctx, `
		DELETE FROM sessions
		WHERE id = $1 AND (expires_at IS NULL OR expires_at > $2)
	`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired removes sessions past their expiry; turns cascade
func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool().Exec(ctx, `
		DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= $1
	`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *SessionStore) Close() error {
	s.db.Close()
	return nil
}
