package orchestrator

import (
	"context"
	"testing"

	"github.com/locuscode/locus/internal/memory"
	"github.com/locuscode/locus/pkg/types"
)

// fakeGraphBackend is an in-memory memory.GraphBackend double: no network,
// no persistence beyond the slice below, used so orchestrator tests never
// reach the real LocusGraph HTTP backend.
type fakeGraphBackend struct {
	retrieveResult types.RetrieveResult
	retrieveErr    error
	insight        memory.InsightResult
	insightErr     error
	stored         []types.MemoryEvent
}

func (f *fakeGraphBackend) Retrieve(ctx context.Context, query string, opts memory.RetrieveOptions) (types.RetrieveResult, error) {
	return f.retrieveResult, f.retrieveErr
}

func (f *fakeGraphBackend) Store(ctx context.Context, event types.MemoryEvent) error {
	f.stored = append(f.stored, event)
	return nil
}

func (f *fakeGraphBackend) GenerateInsights(ctx context.Context, prompt string, limit int) (memory.InsightResult, error) {
	return f.insight, f.insightErr
}

func newTestMemoryClient(t *testing.T, repoRoot string, backend memory.GraphBackend) *memory.Client {
	t.Helper()
	if backend == nil {
		backend = &fakeGraphBackend{}
	}
	c, err := memory.New(repoRoot, backend)
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}
