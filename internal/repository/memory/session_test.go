package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/pdf-chat/internal/domain"
	"github.com/Rrens/pdf-chat/internal/repository/storetest"
)

func TestSessionStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, opts domain.StoreOptions) domain.SessionStore {
		s := NewSessionStore(opts, 0, 0)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(domain.StoreOptions{TTL: 50 * time.Millisecond, HistoryWindow: 8}, 0, 0)

	session, err := s.Create(ctx, "doc")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, err = s.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, s.Len())
}

func TestSessionStore_WriteRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(domain.StoreOptions{TTL: 150 * time.Millisecond, HistoryWindow: 8}, 0, 0)

	session, err := s.Create(ctx, "doc")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		time.Sleep(80 * time.Millisecond)
		_, err := s.AppendTurn(ctx, session.ID, domain.Turn{Role: domain.RoleUser, Content: "ping"})
		require.NoError(t, err)
	}

	_, err = s.Get(ctx, session.ID)
	assert.NoError(t, err)
}

func TestSessionStore_NoTTL(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(domain.StoreOptions{HistoryWindow: 8}, 0, 0)

	session, err := s.Create(ctx, "doc")
	require.NoError(t, err)

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Get(ctx, session.ID)
	assert.NoError(t, err)
}

func TestSessionStore_CapacityEvictsLeastRecentlyUpdated(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(domain.StoreOptions{TTL: time.Hour, HistoryWindow: 8}, 0, 2)

	first, err := s.Create(ctx, "first")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := s.Create(ctx, "second")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	// touching first makes second the oldest
	_, err = s.AppendTurn(ctx, first.ID, domain.Turn{Role: domain.RoleUser, Content: "hi"})
	require.NoError(t, err)

	third, err := s.Create(ctx, "third")
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	_, err = s.Get(ctx, second.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = s.Get(ctx, first.ID)
	assert.NoError(t, err)
	_, err = s.Get(ctx, third.ID)
	assert.NoError(t, err)
}
