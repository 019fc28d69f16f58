package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/locuscode/locus/pkg/types"
)

// InsightResult is the outcome of a GenerateInsights call: a single
// synthesized summary used by context compression.
type InsightResult struct {
	Insight string `json:"insight"`
}

// GraphBackend is the LocusGraph facade the Client speaks to when the cache
// is cold. The wire format between the core and the memory service is not
// part of the core's contract (spec scope), so the default implementation
// below uses a minimal JSON/HTTP shape rather than a binary protocol; any
// GraphBackend honoring this interface can replace it.
type GraphBackend interface {
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) (types.RetrieveResult, error)
	Store(ctx context.Context, event types.MemoryEvent) error
	GenerateInsights(ctx context.Context, prompt string, limit int) (InsightResult, error)
}

// Config configures the default HTTP GraphBackend. Environment variables
// follow spec.md §6: LOCUSGRAPH_AGENT_SECRET, LOCUSGRAPH_SERVER_URL,
// LOCUSGRAPH_GRAPH_ID.
type Config struct {
	ServerURL   string
	AgentSecret string
	GraphID     string
	Timeout     time.Duration
}

// ConfigFromEnv reads Config from the environment, applying spec.md §6's
// defaults.
func ConfigFromEnv() Config {
	cfg := Config{
		ServerURL: os.Getenv("LOCUSGRAPH_SERVER_URL"),
		GraphID:   os.Getenv("LOCUSGRAPH_GRAPH_ID"),
		Timeout:   5 * time.Second,
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = "https://grpc-dev.locusgraph.com:443"
	}
	if cfg.GraphID == "" {
		cfg.GraphID = "locus-agent"
	}
	cfg.AgentSecret = os.Getenv("LOCUSGRAPH_AGENT_SECRET")
	return cfg
}

// httpBackend is the default GraphBackend: JSON over HTTPS with a short,
// bounded timeout per spec.md §5 ("Memory RPCs use a short timeout (<=5s)").
type httpBackend struct {
	cfg    Config
	client *http.Client
}

// NewHTTPBackend constructs the default GraphBackend from cfg.
func NewHTTPBackend(cfg Config) GraphBackend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &httpBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (b *httpBackend) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("memory: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.cfg.ServerURL+path, reader)
	if err != nil {
		return fmt.Errorf("memory: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Graph-Id", b.cfg.GraphID)
	if b.cfg.AgentSecret != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.AgentSecret)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("memory: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("memory: server returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type retrieveRequest struct {
	Query      string   `json:"query"`
	Limit      int      `json:"limit"`
	ContextIDs []string `json:"contextIds"`
}

func (b *httpBackend) Retrieve(ctx context.Context, query string, opts RetrieveOptions) (types.RetrieveResult, error) {
	var out types.RetrieveResult
	req := retrieveRequest{Query: query, Limit: opts.Limit, ContextIDs: opts.ContextIDs}
	if err := b.do(ctx, http.MethodPost, "/v1/memories/retrieve", req, &out); err != nil {
		return types.RetrieveResult{}, err
	}
	return out, nil
}

func (b *httpBackend) Store(ctx context.Context, event types.MemoryEvent) error {
	return b.do(ctx, http.MethodPost, "/v1/memories", event, nil)
}

type insightsRequest struct {
	Prompt string `json:"prompt"`
	Limit  int    `json:"limit"`
}

func (b *httpBackend) GenerateInsights(ctx context.Context, prompt string, limit int) (InsightResult, error) {
	var out InsightResult
	req := insightsRequest{Prompt: prompt, Limit: limit}
	if err := b.do(ctx, http.MethodPost, "/v1/insights", req, &out); err != nil {
		return InsightResult{}, err
	}
	return out, nil
}
