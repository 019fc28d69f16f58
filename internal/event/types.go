package event

import "github.com/locuscode/locus/pkg/types"

// SessionEvent is the orchestrator's externally visible, ordered stream to
// the UI. It serialises with a "type" discriminant in snake_case.
type SessionEvent interface {
	EventType() string
}

// TurnStart marks the opening of a new turn for the given role.
type TurnStart struct {
	SessionID string    `json:"sessionID"`
	Role      types.Role `json:"role"`
}

func (TurnStart) EventType() string { return "turn_start" }

// TextDelta is one streamed fragment of assistant text.
type TextDelta struct {
	SessionID string `json:"sessionID"`
	Text      string `json:"text"`
}

func (TextDelta) EventType() string { return "text_delta" }

// ThinkingDelta is one streamed fragment of assistant reasoning.
type ThinkingDelta struct {
	SessionID string `json:"sessionID"`
	Text      string `json:"text"`
}

func (ThinkingDelta) EventType() string { return "thinking_delta" }

// ToolStart announces dispatch of a tool call.
type ToolStart struct {
	SessionID string              `json:"sessionID"`
	ToolUse   *types.ToolUseBlock `json:"toolUse"`
}

func (ToolStart) EventType() string { return "tool_start" }

// ToolDone announces completion of a dispatched tool call.
type ToolDone struct {
	SessionID  string                 `json:"sessionID"`
	ToolUseID  string                 `json:"toolUseID"`
	Result     *types.ToolResultBlock `json:"result"`
}

func (ToolDone) EventType() string { return "tool_done" }

// MemoryRecall reports the outcome of a memory retrieve() call.
type MemoryRecall struct {
	SessionID  string `json:"sessionID"`
	Query      string `json:"query"`
	ItemsFound int    `json:"itemsFound"`
}

func (MemoryRecall) EventType() string { return "memory_recall" }

// Status is a human-readable progress notice (compression, retries, etc.).
type Status struct {
	SessionID string `json:"sessionID"`
	Message   string `json:"message"`
}

func (Status) EventType() string { return "status" }

// TurnEnd marks the close of the current turn.
type TurnEnd struct {
	SessionID string `json:"sessionID"`
}

func (TurnEnd) EventType() string { return "turn_end" }

// Error is a turn-terminating or otherwise user-visible error notice.
type Error struct {
	SessionID string `json:"sessionID"`
	Message   string `json:"message"`
}

func (Error) EventType() string { return "error" }

// SessionEnd is always the final event of its turn.
type SessionEnd struct {
	SessionID        string `json:"sessionID"`
	Status           string `json:"status"` // "completed" | "failed" | "cancelled"
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
}

func (SessionEnd) EventType() string { return "session_end" }
