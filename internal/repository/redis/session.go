package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/pdf-chat/internal/domain"
)

const sessionKeyPrefix = "session:"

// appendTurnScript appends a turn only if the session hash exists, trims the
// list to ARGV[2] entries when ARGV[2] > 0, and refreshes both TTLs.
var appendTurnScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
redis.call('RPUSH', KEYS[2], ARGV[1])
local keep = tonumber(ARGV[2])
if keep > 0 then
	redis.call('LTRIM', KEYS[2], -keep, -1)
end
redis.call('HSET', KEYS[1], 'updated_at', ARGV[3])
local ttl = tonumber(ARGV[4])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[1], ttl)
	redis.call('PEXPIRE', KEYS[2], ttl)
end
return redis.call('LLEN', KEYS[2])
`)

// SessionStore implements domain.SessionStore on Redis. The document lives in
// the hash session:<id> and turns in the list session:<id>:turns.
type SessionStore struct {
	client     *Client
	ttl        time.Duration
	maxHistory int
}

// NewSessionStore creates a new Redis-backed session store
func NewSessionStore(client *Client, opts domain.StoreOptions) *SessionStore {
	return &SessionStore{
		client:     client,
		ttl:        opts.TTL,
		maxHistory: domain.MaxHistory(opts.HistoryWindow),
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func turnsKey(id string) string {
	return sessionKeyPrefix + id + ":turns"
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

	key := sessionKey(session.ID)
	ts := strconv.FormatInt(now.UnixNano(), 10)

	pipe := s.client.rdb.TxPipeline()
	pipe.HSet(ctx, key, "document", documentText, "created_at", ts, "updated_at", ts)
	if s.ttl > 0 {
		pipe.PExpire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrSessionNotFound
	}

	// MULTI/EXEC so the hash and the turns list come from the same moment
	pipe := s.client.rdb.TxPipeline()
	hashCmd := pipe.HGetAll(ctx, sessionKey(id))
	turnsCmd := pipe.LRange(ctx, turnsKey(id), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	fields := hashCmd.Val()
	if len(fields) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	history := make([]domain.Turn, 0, len(turnsCmd.Val()))
	for _, raw := range turnsCmd.Val() {
		var turn domain.Turn
		if err := json.Unmarshal([]byte(raw), &turn); err != nil {
			return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
		}
		history = append(history, turn)
	}

	return &domain.Session{
		ID:           id,
		DocumentText: fields["document"],
		History:      history,
		CreatedAt:    parseUnixNano(fields["created_at"]),
		UpdatedAt:    parseUnixNano(fields["updated_at"]),
	}, nil
}

func (s *SessionStore) AppendTurn(ctx context.Context, id string, turn domain.Turn) (int, error) {
	data, err := json.Marshal(turn)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal turn: %w", err)
	}

	keep := 0
	if turn.Role == domain.RoleAssistant {
		keep = s.maxHistory
	}

	n, err := appendTurnScript.Run(ctx, s.client.rdb,
		[]string{sessionKey(id), turnsKey(id)},
		string(data),
		keep,
		strconv.FormatInt(time.Now().UTC().UnixNano(), 10),
		s.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to append turn: %w", err)
	}
	if n < 0 {
		return 0, domain.ErrSessionNotFound
	}
	return int(n), nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.rdb.Del(ctx, sessionKey(id), turnsKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}

func parseUnixNano(v string) time.Time {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
