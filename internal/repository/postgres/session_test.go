package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/pdf-chat/internal/domain"
	"github.com/Rrens/pdf-chat/internal/repository/storetest"
)

const testMigrationsURL = "file://../../../migrations"

// newTestDB migrates and connects to TEST_POSTGRES_DSN or skips
func newTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	require.NoError(t, RunMigrations(dsn, testMigrationsURL))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDBFromDSN(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestSessionStore_Contract(t *testing.T) {
	db := newTestDB(t)
	storetest.Run(t, func(t *testing.T, opts domain.StoreOptions) domain.SessionStore {
		return NewSessionStore(db, opts)
	})
}

func TestSessionStore_DeleteExpired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := NewSessionStore(db, domain.StoreOptions{TTL: 50 * time.Millisecond, HistoryWindow: 8})

	session, err := store.Create(ctx, "doc")
	require.NoError(t, err)
	_, err = store.AppendTurn(ctx, session.ID, domain.Turn{Role: domain.RoleUser, Content: "hi"})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = store.AppendTurn(ctx, session.ID, domain.Turn{Role: domain.RoleUser, Content: "late"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	var turns int
	require.NoError(t, db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM turns WHERE session_id = $1`, session.ID).Scan(&turns))
	assert.Zero(t, turns)
}

func TestMigrationVersion(t *testing.T) {
	newTestDB(t)

	version, dirty, err := MigrationVersion(os.Getenv("TEST_POSTGRES_DSN"), testMigrationsURL)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.GreaterOrEqual(t, version, uint(1))
}
