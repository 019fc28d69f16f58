package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locuscode/locus/pkg/types"
)

// fakeBackend is an in-memory GraphBackend stand-in so tests never touch
// the network.
type fakeBackend struct {
	mu         sync.Mutex
	stored     []types.MemoryEvent
	failStore  bool
	retrieveFn func(query string, opts RetrieveOptions) (types.RetrieveResult, error)
}

func (f *fakeBackend) Retrieve(ctx context.Context, query string, opts RetrieveOptions) (types.RetrieveResult, error) {
	if f.retrieveFn != nil {
		return f.retrieveFn(query, opts)
	}
	return types.RetrieveResult{Memories: "no memories", ItemsFound: 0}, nil
}

func (f *fakeBackend) Store(ctx context.Context, event types.MemoryEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStore {
		return assert.AnError
	}
	f.stored = append(f.stored, event)
	return nil
}

func (f *fakeBackend) GenerateInsights(ctx context.Context, prompt string, limit int) (InsightResult, error) {
	return InsightResult{Insight: "summary of: " + prompt}, nil
}

func (f *fakeBackend) storedEvents() []types.MemoryEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.MemoryEvent(nil), f.stored...)
}

func newTestClient(t *testing.T, backend GraphBackend) *Client {
	t.Helper()
	dir := t.TempDir()
	c, err := New(dir, backend)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRetrieveCachesResult(t *testing.T) {
	calls := 0
	backend := &fakeBackend{retrieveFn: func(query string, opts RetrieveOptions) (types.RetrieveResult, error) {
		calls++
		return types.RetrieveResult{Memories: "hit", ItemsFound: 1}, nil
	}}
	c := newTestClient(t, backend)

	first := c.Retrieve(context.Background(), "auth flow", RetrieveOptions{Limit: 5})
	second := c.Retrieve(context.Background(), "auth flow", RetrieveOptions{Limit: 5})

	assert.Equal(t, "hit", first.Memories)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second call should be served from cache")
}

func TestRetrieveDegradesOnBackendFailure(t *testing.T) {
	backend := &fakeBackend{retrieveFn: func(query string, opts RetrieveOptions) (types.RetrieveResult, error) {
		return types.RetrieveResult{}, assert.AnError
	}}
	c := newTestClient(t, backend)

	result := c.Retrieve(context.Background(), "anything", RetrieveOptions{})

	assert.True(t, result.Degraded)
}

func TestRetrieveFallsBackToStaleCacheOnFailure(t *testing.T) {
	succeed := true
	backend := &fakeBackend{retrieveFn: func(query string, opts RetrieveOptions) (types.RetrieveResult, error) {
		if succeed {
			return types.RetrieveResult{Memories: "fresh", ItemsFound: 2}, nil
		}
		return types.RetrieveResult{}, assert.AnError
	}}
	c := newTestClient(t, backend)

	first := c.Retrieve(context.Background(), "q", RetrieveOptions{})
	require.Equal(t, "fresh", first.Memories)

	// expire the cache entry so the next call re-hits the backend
	require.NoError(t, c.cache.Put("q", nil, first, 1))
	succeed = false

	second := c.Retrieve(context.Background(), "q", RetrieveOptions{})
	assert.Equal(t, "fresh", second.Memories)
	assert.True(t, second.Degraded)
}

func TestStoreEnqueuesAndWorkerDelivers(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestClient(t, backend)

	c.StoreUserIntent("fix the login bug", "bug fix")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.RunWorker(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(backend.storedEvents()) == 1
	}, time.Second, 10*time.Millisecond)

	events := backend.storedEvents()
	assert.Equal(t, types.EventKindObservation, events[0].Kind)
	assert.Equal(t, ScopeUserIntent, events[0].ContextScope)
}

func TestStoreRetriesOnDeliveryFailure(t *testing.T) {
	backend := &fakeBackend{failStore: true}
	c := newTestClient(t, backend)

	c.StoreDecision("chose sqlite for the queue", nil)
	c.drainOnce(context.Background())

	due, err := c.queue.ClaimDue(time.Now().Unix()+1000, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Attempts)
}

func TestStoreMovesToDeadLetterAfterMaxAttempts(t *testing.T) {
	backend := &fakeBackend{failStore: true}
	c := newTestClient(t, backend)

	c.StoreError("runtime", "boom", nil, types.MemoryLinks{})
	due, err := c.queue.ClaimDue(time.Now().Unix()+1, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, c.queue.MarkRetry(due[0].ID, MaxAttempts, time.Now().Unix()))

	stillDue, err := c.queue.ClaimDue(time.Now().Unix()+100000, 10)
	require.NoError(t, err)
	assert.Empty(t, stillDue, "dead-lettered writes should no longer be claimable")
}

func TestBuildContextIDs(t *testing.T) {
	ids := BuildContextIDs("abc123", "sess-1")

	assert.Contains(t, ids, "project:abc123")
	assert.Contains(t, ids, ScopeDecisions)
	assert.Contains(t, ids, ScopeErrors)
	assert.Contains(t, ids, ScopeUserIntent)
	assert.Contains(t, ids, ScopeTools)
	assert.Contains(t, ids, "session:sess-1")
}

func TestCleanRemovesCacheFile(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, &fakeBackend{})
	require.NoError(t, err)
	c.Close()

	require.NoError(t, Clean(dir))
}
