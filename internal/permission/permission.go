package permission

import "github.com/locuscode/locus/pkg/types"

// Class is the permission class of a tool, fixed in the gateway's
// configuration table and never derived from argument contents.
type Class string

const (
	// ClassRead is always allowed.
	ClassRead Class = "read"
	// ClassWrite requires per-invocation confirmation when interactive.
	ClassWrite Class = "write"
	// ClassExecute requires per-invocation confirmation when interactive.
	ClassExecute Class = "execute"
	// ClassGitWrite always requires confirmation.
	ClassGitWrite Class = "git_write"
)

// classTable maps each core tool name to its fixed permission class.
var classTable = map[string]Class{
	"file_read":   ClassRead,
	"read":        ClassRead,
	"grep":        ClassRead,
	"glob":        ClassRead,
	"finder":      ClassRead,
	"tool_search": ClassRead,
	"tool_explain": ClassRead,
	"task_list":   ClassRead,

	"file_write":  ClassWrite,
	"create_file": ClassWrite,
	"edit_file":   ClassWrite,
	"undo_edit":   ClassWrite,

	"bash":     ClassExecute,
	"run_cmd":  ClassExecute,
	"handoff":  ClassExecute,
	"task":     ClassExecute,

	"git_push": ClassGitWrite,
}

// ClassForTool returns the fixed class for a tool name. Unknown tool names
// default to ClassExecute, the most conservative non-git class, so a newly
// registered tool is never silently treated as always-allowed.
func ClassForTool(name string) Class {
	if c, ok := classTable[name]; ok {
		return c
	}
	return ClassExecute
}

// RegisterClass lets a tool registry declare the class for a tool name it
// defines beyond the core set. It is the only way classTable is extended at
// runtime; call sites must do so at startup, before any Check call.
func RegisterClass(toolName string, class Class) {
	classTable[toolName] = class
}

// Request describes one permission decision the gateway must make before
// dispatching a tool call.
type Request struct {
	SessionID string
	ToolName  string
	Class     Class
	Title     string
}

// RejectedError is returned when a confirmation is declined.
type RejectedError struct {
	SessionID string
	ToolName  string
	Message   string
}

func (e *RejectedError) Error() string { return e.Message }

// IsRejectedError reports whether err is a permission rejection.
func IsRejectedError(err error) bool {
	_, ok := err.(*RejectedError)
	return ok
}

// requiresConfirmation reports whether class needs a confirmation prompt
// under the given sandbox policy. GitWrite always does; Read never does.
func requiresConfirmation(class Class, policy types.SandboxPolicy) bool {
	switch class {
	case ClassRead:
		return false
	case ClassGitWrite:
		return true
	case ClassWrite, ClassExecute:
		return policy.Interactive
	default:
		return policy.Interactive
	}
}
