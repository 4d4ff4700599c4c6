package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/pdf-chat/internal/domain"
	"github.com/Rrens/pdf-chat/internal/metrics"
	"github.com/Rrens/pdf-chat/internal/repository/memory"
)

func TestSweepOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore(domain.StoreOptions{TTL: 20 * time.Millisecond, HistoryWindow: 8}, 0, 0)
	m := metrics.NewMetrics()

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, "doc")
		require.NoError(t, err)
	}
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 3, SweepOnce(ctx, store, m))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsExpired))
	assert.Equal(t, 0, SweepOnce(ctx, store, m))
}

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) DeleteExpired(context.Context) (int, error) {
	s.calls.Add(1)
	return 0, s.err
}

func TestRunSweeper(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunSweeper(ctx, sweeper, 5*time.Millisecond, nil)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRunSweeper_DisabledInterval(t *testing.T) {
	sweeper := &countingSweeper{}
	RunSweeper(context.Background(), sweeper, 0, nil)
	assert.Zero(t, sweeper.calls.Load())
}
