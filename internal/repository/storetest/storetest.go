// Package storetest holds the behaviour every domain.SessionStore backend must share.
package storetest

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/pdf-chat/internal/domain"
)

// Factory builds an empty store configured with opts
type Factory func(t *testing.T, opts domain.StoreOptions) domain.SessionStore

// expiryTTL is the session lifetime used by the Expired case
const expiryTTL = 50 * time.Millisecond

func newStore(t *testing.T, factory Factory, window int) domain.SessionStore {
	return factory(t, domain.StoreOptions{TTL: time.Hour, HistoryWindow: window})
}

var sessionIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// Run executes the contract suite against the stores produced by factory
func Run(t *testing.T, factory Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, factory) })
	t.Run("GetUnknown", func(t *testing.T) { testGetUnknown(t, factory) })
	t.Run("AppendPreservesOrder", func(t *testing.T) { testAppendPreservesOrder(t, factory) })
	t.Run("TrimAfterAssistant", func(t *testing.T) { testTrimAfterAssistant(t, factory) })
	t.Run("UserAppendDoesNotTrim", func(t *testing.T) { testUserAppendDoesNotTrim(t, factory) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, factory) })
	t.Run("SnapshotIsolation", func(t *testing.T) { testSnapshotIsolation(t, factory) })
	t.Run("SessionsAreIndependent", func(t *testing.T) { testSessionsAreIndependent(t, factory) })
	t.Run("ConcurrentAppends", func(t *testing.T) { testConcurrentAppends(t, factory) })
	t.Run("Expired", func(t *testing.T) { testExpired(t, factory) })
}

func user(content string) domain.Turn {
	return domain.Turn{Role: domain.RoleUser, Content: content}
}

func assistant(content string) domain.Turn {
	return domain.Turn{Role: domain.RoleAssistant, Content: content}
}

func testCreateAndGet(t *testing.T, factory Factory) {
	ctx := context.Background()
	store := newStore(t, factory, 8)

	doc := "Hello\nWorld\nÜnïcødé ✓"
	created, err := store.Create(ctx, doc)
	require.NoError(t, err)
	assert.Regexp(t, sessionIDPattern, created.ID)
	assert.Equal(t, doc, created.DocumentText)
	assert.Empty(t, created.History)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, doc, got.DocumentText)
	assert.Empty(t, got.History)
	assert.False(t, got.CreatedAt.IsZero())
}

func testGetUnknown(t *testing.T, factory Factory) {
	store := newStore(t, factory, 8)

	_, err := store.Get(context.Background(), domain.NewSessionID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func testAppendPreservesOrder(t *testing.T, factory Factory) {
	ctx := context.Background()
	store := newStore(t, factory, 8)

	s, err := store.Create(ctx, "doc")
	require.NoError(t, err)

	turns := []domain.Turn{user("q1"), assistant("a1"), user("q2"), assistant("a2")}
	for i, turn := range turns {
		n, err := store.AppendTurn(ctx, s.ID, turn)
		require.NoError(t, err)
		assert.Equal(t, i+1, n)
	}

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, turns, got.History)
}

func testTrimAfterAssistant(t *testing.T, factory Factory) {
	ctx := context.Background()
	store := newStore(t, factory, 2)
	limit := domain.MaxHistory(2)

	s, err := store.Create(ctx, "doc")
	require.NoError(t, err)

	var all []domain.Turn
	for i := 0; i < 5; i++ {
		q, a := user(fmt.Sprintf("q%d", i)), assistant(fmt.Sprintf("a%d", i))
		all = append(all, q, a)

		_, err := store.AppendTurn(ctx, s.ID, q)
		require.NoError(t, err)
		n, err := store.AppendTurn(ctx, s.ID, a)
		require.NoError(t, err)
		assert.LessOrEqual(t, n, limit)
	}

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, all[len(all)-limit:], got.History)
}

func testUserAppendDoesNotTrim(t *testing.T, factory Factory) {
	ctx := context.Background()
	store := newStore(t, factory, 1)

	s, err := store.Create(ctx, "doc")
	require.NoError(t, err)

	for _, turn := range []domain.Turn{user("q1"), assistant("a1")} {
		_, err := store.AppendTurn(ctx, s.ID, turn)
		require.NoError(t, err)
	}

	n, err := store.AppendTurn(ctx, s.ID, user("q2"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = store.AppendTurn(ctx, s.ID, assistant("a2"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Turn{user("q2"), assistant("a2")}, got.History)
}

func testDelete(t *testing.T, factory Factory) {
	ctx := context.Background()
	store := newStore(t, factory, 8)

	s, err := store.Create(ctx, "doc")
	require.NoError(t, err)
	_, err = store.AppendTurn(ctx, s.ID, user("q"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, s.ID))

	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, store.Delete(ctx, s.ID), domain.ErrSessionNotFound)

	_, err = store.AppendTurn(ctx, s.ID, user("again"))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func testSnapshotIsolation(t *testing.T, factory Factory) {
	ctx := context.Background()
	store := newStore(t, factory, 8)

	s, err := store.Create(ctx, "doc")
	require.NoError(t, err)
	_, err = store.AppendTurn(ctx, s.ID, user("original"))
	require.NoError(t, err)

	snap, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	snap.History[0].Content = "mutated"
	snap.History = append(snap.History, assistant("injected"))
	snap.DocumentText = "changed"

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Turn{user("original")}, got.History)
	assert.Equal(t, "doc", got.DocumentText)
}

func testSessionsAreIndependent(t *testing.T, factory Factory) {
	ctx := context.Background()
	store := newStore(t, factory, 8)

	a, err := store.Create(ctx, "document A")
	require.NoError(t, err)
	b, err := store.Create(ctx, "document B")
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)

	_, err = store.AppendTurn(ctx, a.ID, user("only in A"))
	require.NoError(t, err)

	gotB, err := store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "document B", gotB.DocumentText)
	assert.Empty(t, gotB.History)

	require.NoError(t, store.Delete(ctx, a.ID))
	_, err = store.Get(ctx, b.ID)
	assert.NoError(t, err)
}

func testConcurrentAppends(t *testing.T, factory Factory) {
	ctx := context.Background()
	store := newStore(t, factory, 50)

	s, err := store.Create(ctx, "doc")
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.AppendTurn(ctx, s.ID, user(fmt.Sprintf("w%d", i))); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, got.History, workers)
}

func testExpired(t *testing.T, factory Factory) {
	ctx := context.Background()
	store := factory(t, domain.StoreOptions{TTL: expiryTTL, HistoryWindow: 8})

	s, err := store.Create(ctx, "doc")
	require.NoError(t, err)

	time.Sleep(2 * expiryTTL)

	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = store.AppendTurn(ctx, s.ID, user("late"))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, store.Delete(ctx, s.ID), domain.ErrSessionNotFound)
}
