package rates

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSource counts fetches and tracks how many run at once.
type fakeSource struct {
	mu    sync.Mutex
	table *Table
	err   error

	calls      atomic.Int32
	active     atomic.Int32
	maxActive  atomic.Int32
	fetchDelay time.Duration
}

func (f *fakeSource) set(table *Table, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table, f.err = table, err
}

func (f *fakeSource) Fetch(ctx context.Context) (*Table, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		peak := f.maxActive.Load()
		if n <= peak || f.maxActive.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.fetchDelay > 0 {
		time.Sleep(f.fetchDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.table, f.err
}

// blockingSource blocks every fetch until release is closed.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
	table   *Table
}

func (b *blockingSource) Fetch(ctx context.Context) (*Table, error) {
	close(b.started)
	<-b.release
	return b.table, nil
}

func TestRefresherStartLoadsSnapshot(t *testing.T) {
	table := sampleTable()
	r := NewRefresher(StaticSource{Table: table}, nil, time.Hour, zap.NewNop())

	_, err := r.Current()
	assert.ErrorIs(t, err, ErrNoRates)

	r.Start(context.Background())
	defer r.Stop()

	got, err := r.Current()
	require.NoError(t, err)
	assert.Same(t, table, got)
}

func TestRefresherFallsBackToCache(t *testing.T) {
	cached := sampleTable()
	cache := NewMemoryCache()
	require.NoError(t, cache.Store(context.Background(), cached))

	source := &fakeSource{}
	source.set(nil, errors.New("feed down"))

	r := NewRefresher(source, cache, time.Hour, zap.NewNop())
	r.Start(context.Background())
	defer r.Stop()

	got, err := r.Current()
	require.NoError(t, err)
	assert.Same(t, cached, got)
}

func TestRefresherWithoutAnySnapshot(t *testing.T) {
	source := &fakeSource{}
	source.set(nil, errors.New("feed down"))

	r := NewRefresher(source, NewMemoryCache(), time.Hour, zap.NewNop())
	r.Start(context.Background())
	defer r.Stop()

	_, err := r.Current()
	assert.ErrorIs(t, err, ErrNoRates)
}

func TestRefreshKeepsPreviousSnapshotOnFailure(t *testing.T) {
	first := sampleTable()
	source := &fakeSource{}
	source.set(first, nil)
	cache := NewMemoryCache()

	r := NewRefresher(source, cache, time.Hour, zap.NewNop())
	require.NoError(t, r.Refresh(context.Background()))

	stored, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, stored, "successful refresh must be cached")

	source.set(nil, errors.New("timeout"))
	assert.Error(t, r.Refresh(context.Background()))

	got, err := r.Current()
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestRefreshDoesNotOverlap(t *testing.T) {
	source := &blockingSource{
		started: make(chan struct{}),
		release: make(chan struct{}),
		table:   sampleTable(),
	}
	r := NewRefresher(source, nil, time.Hour, zap.NewNop())

	errCh := make(chan error, 1)
	go func() { errCh <- r.Refresh(context.Background()) }()

	<-source.started
	assert.ErrorIs(t, r.Refresh(context.Background()), ErrRefreshInProgress)

	close(source.release)
	require.NoError(t, <-errCh)

	_, err := r.Current()
	assert.NoError(t, err)
}

func TestRefresherLoopRefreshesPeriodically(t *testing.T) {
	source := &fakeSource{fetchDelay: 5 * time.Millisecond}
	source.set(sampleTable(), nil)

	r := NewRefresher(source, nil, 10*time.Millisecond, zap.NewNop())
	r.Start(context.Background())

	require.Eventually(t, func() bool { return source.calls.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
	r.Stop()

	calls := source.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, source.calls.Load(), "no refresh after Stop")
	assert.Equal(t, int32(1), source.maxActive.Load(), "refreshes must never run concurrently")
}

func TestRefresherStopsWithContext(t *testing.T) {
	source := &fakeSource{}
	source.set(sampleTable(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRefresher(source, nil, 10*time.Millisecond, zap.NewNop())
	r.Start(ctx)
	cancel()

	select {
	case <-r.done:
	case <-time.After(time.Second):
		t.Fatal("refresh loop did not exit after context cancellation")
	}
	r.Stop()
}

func TestRefresherStopWithoutStart(t *testing.T) {
	r := NewRefresher(StaticSource{}, nil, 0, nil)
	r.Stop()
	assert.Equal(t, time.Hour, r.interval, "non-positive interval falls back to the default")
}
