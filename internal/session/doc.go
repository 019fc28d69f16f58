// Package session implements the in-memory conversation state (Session,
// Turn, ContentBlock) owned exclusively by the orchestrator. It carries no
// locks of its own: it is mutated only by the orchestrator goroutine, and
// every other component reads it by being handed an immutable snapshot or a
// specific turn.
package session
