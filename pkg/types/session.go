// Package types provides the core data types shared across the locus agent runtime.
package types

// Session is the in-memory conversation state owned exclusively by the
// orchestrator: the working-copy root, the configuration captured at
// creation, an ordered sequence of turns, and aggregate token counters.
type Session struct {
	ID       string         `json:"id"`
	RepoRoot string         `json:"repoRoot"`
	ParentID string         `json:"parentID,omitempty"`
	Config   ConfigSnapshot `json:"config"`
	Turns    []*Turn        `json:"turns"`
	Usage    AggregateUsage `json:"usage"`
	Seq      uint64         `json:"seq"`
	Time     SessionTime    `json:"time"`
}

// SessionTime carries the creation/update timestamps for a session.
type SessionTime struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}

// ConfigSnapshot is captured once when a session is created, so that a
// sub-agent spawned later in its lifetime inherits an immutable copy
// rather than racing the parent's live configuration.
type ConfigSnapshot struct {
	Model         string        `json:"model"`
	Provider      string        `json:"provider"`
	Mode          Mode          `json:"mode"`
	Limits        ModeLimits    `json:"limits"`
	SandboxPolicy SandboxPolicy `json:"sandboxPolicy"`
}

// SandboxPolicy controls how permissively the tool gateway treats
// Write/Execute/GitWrite tool classes for this session.
type SandboxPolicy struct {
	Interactive bool `json:"interactive"`
}

// AggregateUsage sums token usage across every closed turn of a session.
type AggregateUsage struct {
	InputTokens      int `json:"inputTokens"`
	OutputTokens     int `json:"outputTokens"`
	CacheReadTokens  int `json:"cacheReadTokens"`
	CacheWriteTokens int `json:"cacheWriteTokens"`
}

// Add folds one turn's usage into the running aggregate.
func (u *AggregateUsage) Add(t TokenUsage) {
	u.InputTokens += t.Input
	u.OutputTokens += t.Output
	u.CacheReadTokens += t.CacheRead
	u.CacheWriteTokens += t.CacheWrite
}
