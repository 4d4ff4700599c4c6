package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Rrens/pdf-chat/internal/domain"
)

// SessionStore keeps sessions in process memory with sliding expiry and an
// optional capacity bound.
type SessionStore struct {
	cache       *cache.Cache
	mu          sync.Mutex
	maxHistory  int
	maxSessions int
}

// NewSessionStore creates a new in-memory session store. The go-cache janitor
// purges expired sessions every cleanupInterval; zero disables it.
func NewSessionStore(opts domain.StoreOptions, cleanupInterval time.Duration, maxSessions int) *SessionStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &SessionStore{
		cache:       cache.New(ttl, cleanupInterval),
		maxHistory:  domain.MaxHistory(opts.HistoryWindow),
		maxSessions: maxSessions,
	}
}

func (s *SessionStore) Create(ctx context.Context, documentText string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 {
		s.cache.DeleteExpired()
		if s.cache.ItemCount() >= s.maxSessions {
			s.evictOldest()
		}
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:           domain.NewSessionID(),
		DocumentText: documentText,
		History:      []domain.Turn{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.cache.Add(session.ID, session, cache.DefaultExpiration); err != nil {
		return nil, err
	}

	return session.Clone(), nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookup(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *SessionStore) AppendTurn(ctx context.Context, id string, turn domain.Turn) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.lookup(id)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}

	// copy on write so earlier snapshots stay untouched
	next := current.Clone()
	next.History = append(next.History, turn)
	if turn.Role == domain.RoleAssistant {
		next.History = domain.TrimHistory(next.History, s.maxHistory)
	}
	next.UpdatedAt = time.Now().UTC()

	s.cache.Set(id, next, cache.DefaultExpiration)
	return len(next.History), nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(id); !ok {
		return domain.ErrSessionNotFound
	}
	s.cache.Delete(id)
	return nil
}

// DeleteExpired purges expired sessions and returns how many were removed
func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.cache.ItemCount()
	s.cache.DeleteExpired()
	return before - s.cache.ItemCount(), nil
}

// Len returns the number of stored sessions, including expired ones not yet purged
func (s *SessionStore) Len() int {
	return s.cache.ItemCount()
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return nil
}

func (s *SessionStore) Close() error {
	s.cache.Flush()
	return nil
}

func (s *SessionStore) lookup(id string) (*domain.Session, bool) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	return x.(*domain.Session), true
}

// evictOldest drops the least recently updated session. Caller holds mu.
func (s *SessionStore) evictOldest() {
	var (
		oldestID string
		oldestAt time.Time
	)
	for id, item := range s.cache.Items() {
		session := item.Object.(*domain.Session)
		if oldestID == "" || session.UpdatedAt.Before(oldestAt) {
			oldestID, oldestAt = id, session.UpdatedAt
		}
	}
	if oldestID != "" {
		s.cache.Delete(oldestID)
	}
}
