// Package memory implements the LocusGraph facade: a durable memory
// service client fronted by a local write queue and read cache so the
// orchestrator's recall/store calls never block on the network.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/locuscode/locus/internal/storedb"
	"github.com/locuscode/locus/pkg/types"
)

// cacheTTL is how long a successful retrieve() result stays valid before a
// fresh request is attempted.
const cacheTTL = 5 * time.Minute

// Client is the C2 Memory Client: retrieve()/store() over a GraphBackend,
// backed by a local queue (writes) and cache (reads) under
// <repoRoot>/.locus/locus_graph_cache.db.
type Client struct {
	backend GraphBackend
	db      *sql.DB
	queue   *writeQueue
	cache   *readCache
}

// New opens the local cache/queue database under repoRoot and wraps backend
// with it. Pass nil for backend to construct the default HTTP backend from
// the environment (spec.md §6).
func New(repoRoot string, backend GraphBackend) (*Client, error) {
	db, err := storedb.OpenCacheDB(repoRoot)
	if err != nil {
		return nil, err
	}
	if backend == nil {
		backend = NewHTTPBackend(ConfigFromEnv())
	}
	return &Client{
		backend: backend,
		db:      db,
		queue:   &writeQueue{db: db},
		cache:   &readCache{db: db},
	}, nil
}

// Close closes the local cache/queue database handle.
func (c *Client) Close() error { return c.db.Close() }

// Retrieve renders a memory bundle for query, consulting the cache first
// and falling back to the backend on miss or expiry. A backend failure
// returns the last cached value (possibly empty) marked degraded, per
// spec.md §4.2's consistency rule.
func (c *Client) Retrieve(ctx context.Context, query string, opts RetrieveOptions) types.RetrieveResult {
	now := time.Now().Unix()
	if result, ok := c.cache.Get(query, opts.ContextIDs, now); ok {
		return result
	}

	result, err := c.backend.Retrieve(ctx, query, opts)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("memory recall failed, operating without memory context")
		if stale, ok := c.cache.Get(query, opts.ContextIDs, 0); ok {
			stale.Degraded = true
			return stale
		}
		return types.RetrieveResult{Degraded: true}
	}

	if err := c.cache.Put(query, opts.ContextIDs, result, now+int64(cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Msg("memory cache write failed")
	}
	return result
}

// GenerateInsights asks the backend to synthesise a summary of prompt,
// bounded to limit items of supporting context. Used by the orchestrator's
// context compression step; a backend failure is returned as-is so the
// caller can treat compression as non-fatal and proceed uncompressed.
func (c *Client) GenerateInsights(ctx context.Context, prompt string, limit int) (InsightResult, error) {
	return c.backend.GenerateInsights(ctx, prompt, limit)
}

// Store enqueues event for fire-and-forget delivery. The call returns as
// soon as the event is durably queued; delivery itself happens on the
// background worker loop started by RunWorker.
func (c *Client) Store(event types.MemoryEvent) {
	event.CreatedAt = time.Now().Unix()
	if err := c.queue.Enqueue(event, event.CreatedAt); err != nil {
		log.Error().Err(err).Str("kind", string(event.Kind)).Msg("memory: failed to enqueue event")
	}
}

// StoreLLMCall records one provider call's usage.
func (c *Client) StoreLLMCall(model string, inTokens, outTokens int, durationMs int64, isError bool, links types.MemoryLinks) {
	payload, _ := json.Marshal(map[string]any{
		"model":            model,
		"promptTokens":     inTokens,
		"completionTokens": outTokens,
		"durationMs":       durationMs,
		"isError":          isError,
	})
	c.Store(types.MemoryEvent{
		Kind:         types.EventKindAction,
		ContextScope: ScopeTools,
		Source:       "llm_call",
		Payload:      payload,
		Links:        links,
	})
}

// StoreUserIntent records the user's message and a short summary of intent.
func (c *Client) StoreUserIntent(message, intentSummary string) {
	payload, _ := json.Marshal(map[string]any{"message": message, "intentSummary": intentSummary})
	c.Store(types.MemoryEvent{
		Kind:         types.EventKindObservation,
		ContextScope: ScopeUserIntent,
		Source:       "user",
		Payload:      payload,
	})
}

// StoreDecision records the assistant's reasoning after a turn.
func (c *Client) StoreDecision(summary string, reasoning *string) {
	fields := map[string]any{"summary": summary}
	if reasoning != nil {
		fields["reasoning"] = *reasoning
	}
	payload, _ := json.Marshal(fields)
	c.Store(types.MemoryEvent{
		Kind:         types.EventKindDecision,
		ContextScope: ScopeDecisions,
		Source:       "assistant",
		Payload:      payload,
	})
}

// StoreToolRun records a completed tool execution.
func (c *Client) StoreToolRun(toolName string, args json.RawMessage, output string, durationMs int64, isError bool, links types.MemoryLinks) {
	payload, _ := json.Marshal(map[string]any{
		"tool":       toolName,
		"args":       args,
		"output":     output,
		"durationMs": durationMs,
		"isError":    isError,
	})
	c.Store(types.MemoryEvent{
		Kind:         types.EventKindAction,
		ContextScope: ScopeTools,
		Source:       "tool_gateway",
		Payload:      payload,
		Links:        links,
	})
}

// StoreError records an error encountered anywhere in the agent loop.
func (c *Client) StoreError(errContext, errorMessage string, commandOrFile *string, links types.MemoryLinks) {
	fields := map[string]any{"context": errContext, "error": errorMessage}
	if commandOrFile != nil {
		fields["commandOrFile"] = *commandOrFile
	}
	payload, _ := json.Marshal(fields)
	c.Store(types.MemoryEvent{
		Kind:         types.EventKindObservation,
		ContextScope: ScopeErrors,
		Source:       "runtime",
		Payload:      payload,
		Links:        links,
	})
}

// StoreFileEdit records a file write or edit, with an optional diff
// preview.
func (c *Client) StoreFileEdit(path, summary string, diffPreview *string, links types.MemoryLinks) {
	fields := map[string]any{"path": path, "summary": summary}
	if diffPreview != nil {
		fields["diffPreview"] = *diffPreview
	}
	payload, _ := json.Marshal(fields)
	c.Store(types.MemoryEvent{
		Kind:         types.EventKindFact,
		ContextScope: "fact:files",
		Source:       "tool_gateway",
		Payload:      payload,
		Links:        links,
	})
}

// StoreProjectConvention records an observed project-specific convention
// (naming, style, layout) worth recalling in future sessions.
func (c *Client) StoreProjectConvention(repoHash, convention string, links types.MemoryLinks) {
	payload, _ := json.Marshal(map[string]any{"convention": convention})
	c.Store(types.MemoryEvent{
		Kind:         types.EventKindFact,
		ContextScope: "project:" + repoHash,
		Source:       "runtime",
		Payload:      payload,
		Links:        links,
	})
}

// RunWorker drains the local write queue until ctx is cancelled, attempting
// delivery of due writes every interval and rescheduling failures with
// exponential backoff up to MaxAttempts.
func (c *Client) RunWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.drainOnce(ctx)
		}
	}
}

func (c *Client) drainOnce(ctx context.Context) {
	due, err := c.queue.ClaimDue(time.Now().Unix(), 50)
	if err != nil {
		log.Error().Err(err).Msg("memory: failed to claim due writes")
		return
	}

	for _, pw := range due {
		if err := c.backend.Store(ctx, pw.Event); err != nil {
			attempts := pw.Attempts + 1
			next := time.Now().Add(nextBackoff(attempts)).Unix()
			if markErr := c.queue.MarkRetry(pw.ID, attempts, next); markErr != nil {
				log.Error().Err(markErr).Int64("id", pw.ID).Msg("memory: failed to reschedule write")
			}
			continue
		}
		if err := c.queue.MarkDelivered(pw.ID); err != nil {
			log.Error().Err(err).Int64("id", pw.ID).Msg("memory: failed to mark write delivered")
		}
	}
}

// nextBackoff returns the exponential backoff delay for the given attempt
// count using the same curve as github.com/cenkalti/backoff/v4's default
// ExponentialBackOff, capped at its MaxInterval.
func nextBackoff(attempts int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 2 * time.Minute
	b.MaxElapsedTime = 0

	var d time.Duration
	for i := 0; i < attempts; i++ {
		d = b.NextBackOff()
	}
	if d <= 0 {
		d = b.MaxInterval
	}
	return d
}

// Clean removes the local cache/queue file outright.
func Clean(repoRoot string) error {
	return storedb.CleanCacheDB(repoRoot)
}
