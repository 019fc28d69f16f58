// Package orchestrator implements the agentic turn loop (C5): it drives one
// Session through recall, LLM streaming, and tool execution, emitting an
// ordered SessionEvent stream to the UI.
package orchestrator

import "fmt"

// ToolFailed reports a tool that raised during execution. It is recoverable:
// the turn ends but the session and process continue.
type ToolFailed struct {
	Tool    string
	Message string
}

func (e *ToolFailed) Error() string {
	return fmt.Sprintf("tool %q failed: %s", e.Tool, e.Message)
}

// LlmFailed reports a provider error, a response parse error, or a stream
// error surviving the retry budget.
type LlmFailed struct {
	Message string
}

func (e *LlmFailed) Error() string { return "llm failed: " + e.Message }

// ContextOverflow reports that the provider rejected a request for
// exceeding its token limit even after compression.
type ContextOverflow struct{}

func (e *ContextOverflow) Error() string {
	return "context overflow: token limit exceeded despite compression"
}

// MemoryFailed reports a memory-service failure. Never propagated to the
// user as a hard failure; the caller logs it and continues degraded.
type MemoryFailed struct {
	Message string
}

func (e *MemoryFailed) Error() string { return "memory failed: " + e.Message }

// SessionError reports a session invariant violation (for example, a
// tool-result with no matching tool-use). Fatal for the session, not for
// the process.
type SessionError struct {
	Message string
}

func (e *SessionError) Error() string { return "session error: " + e.Message }

// ConfigError reports a missing required environment variable or other
// startup misconfiguration. Fatal.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return "config error: " + e.Message }

// Cancelled marks a turn that ended because of a cancellation signal rather
// than natural completion or failure.
type Cancelled struct{}

func (e *Cancelled) Error() string { return "cancelled" }
