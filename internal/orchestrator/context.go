package orchestrator

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/locuscode/locus/internal/session"
	"github.com/locuscode/locus/pkg/types"
)

// AgentRole names the static system prompt variant for an orchestrator
// instance: the primary conversation, or a sub-agent spawned by the task
// tool.
type AgentRole string

const (
	RolePrimary  AgentRole = "primary"
	RoleSubagent AgentRole = "subagent"
)

// systemPrompt returns the static-per-role base instructions. It does not
// vary per call within a role; session-specific detail belongs in
// sessionContextSummary instead.
func systemPrompt(role AgentRole) string {
	var parts []string

	switch role {
	case RoleSubagent:
		parts = append(parts, `You are a sub-agent dispatched to complete one focused task. Work autonomously, report your findings or results as your final message, and do not ask the user for clarification.`)
	default:
		parts = append(parts, `You are an AI coding assistant with access to tools that read, write, and execute commands in the user's workspace. Use them decisively; don't ask for confirmation the tools themselves don't require.`)
	}

	parts = append(parts, `# Tool usage

1. Read a file before editing it.
2. Prefer edit_file for targeted changes, create_file only for new files.
3. Use glob/grep to locate things before guessing paths.
4. Narrate your reasoning briefly before acting, then act.
5. If a tool you need isn't in the catalogue, use tool_search to find it and tool_explain to learn its contract before calling it.`)

	return strings.Join(parts, "\n\n")
}

// sessionContextSummary renders the per-call session context block: working
// directory, repo name, session id, turn count, and file paths mentioned in
// the last five turns' tool calls. Grounded on the teacher's
// environmentContext, narrowed to the fields the spec names.
func sessionContextSummary(s *session.Session) string {
	var b strings.Builder

	repoRoot := s.RepoRoot()
	repoName := filepath.Base(repoRoot)

	fmt.Fprintf(&b, "# Session context\n\n")
	fmt.Fprintf(&b, "Working directory: %s\n", repoRoot)
	fmt.Fprintf(&b, "Repository: %s\n", repoName)
	fmt.Fprintf(&b, "Session: %s\n", s.ID())
	fmt.Fprintf(&b, "Turn count: %d\n", s.TurnCount())
	fmt.Fprintf(&b, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	if files := recentFileMentions(s.Turns(), 5); len(files) > 0 {
		fmt.Fprintf(&b, "Recently referenced files: %s\n", strings.Join(files, ", "))
	}

	return b.String()
}

// recentFileMentions scans the last n turns' ToolUseBlocks for a "path"
// argument, returning the distinct paths found in encounter order.
func recentFileMentions(turns []*types.Turn, n int) []string {
	start := 0
	if len(turns) > n {
		start = len(turns) - n
	}

	seen := make(map[string]bool)
	var files []string
	for _, t := range turns[start:] {
		for _, tu := range t.ToolUses() {
			path, ok := tu.Args["path"].(string)
			if !ok || path == "" || seen[path] {
				continue
			}
			seen[path] = true
			files = append(files, path)
		}
	}
	return files
}
