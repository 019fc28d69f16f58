package memory

// Context scope namespaces used by the convenience wrappers and by
// BuildContextIDs, grounded on original_source/crates/locus_runtime/src/
// memory.rs's build_context_ids and locus_core/src/memory.rs's ContextScope.
const (
	ScopeDecisions  = "decision:decisions"
	ScopeErrors     = "observation:errors"
	ScopeUserIntent = "observation:user_intent"
	ScopeTools      = "fact:tools"
	ScopeTerminal   = "terminal"
	ScopeEditor     = "editor"
)

// RetrieveOptions narrows a retrieve() call to a bounded number of results
// drawn from a specific set of context scopes.
type RetrieveOptions struct {
	Limit      int
	ContextIDs []string
}

// BuildContextIDs returns the standard context scopes consulted on every
// memory recall: the current project, the fixed decision/error/intent/tool
// buckets, and the current session.
func BuildContextIDs(repoHash, sessionID string) []string {
	return []string{
		"project:" + repoHash,
		ScopeDecisions,
		ScopeErrors,
		ScopeUserIntent,
		ScopeTools,
		"session:" + sessionID,
	}
}
