package types

import "encoding/json"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// TokenUsage is the provider-reported usage for one turn, when present.
type TokenUsage struct {
	Input      int `json:"input"`
	Output     int `json:"output"`
	CacheRead  int `json:"cacheRead,omitempty"`
	CacheWrite int `json:"cacheWrite,omitempty"`
}

// Turn is one role-tagged contribution to the conversation: an ordered,
// append-only (while open) sequence of content blocks. A turn is closed by
// stream termination or by the next user message arriving; closed turns are
// immutable.
type Turn struct {
	Role      Role           `json:"role"`
	Blocks    []ContentBlock `json:"blocks"`
	Timestamp int64          `json:"timestamp"`
	Usage     *TokenUsage    `json:"usage,omitempty"`
	closed    bool
}

// Closed reports whether the turn no longer accepts new blocks.
func (t *Turn) Closed() bool { return t.closed }

// Close marks the turn immutable.
func (t *Turn) Close() { t.closed = true }

// AppendBlock appends a content block to an open turn. It is a no-op on a
// closed turn; callers that need to mutate a closed turn are violating the
// session invariant and should be treated as a programming error upstream.
func (t *Turn) AppendBlock(b ContentBlock) {
	if t.closed {
		return
	}
	t.Blocks = append(t.Blocks, b)
}

// ToolUses returns every ToolUseBlock in the turn, in declaration order.
func (t *Turn) ToolUses() []*ToolUseBlock {
	var out []*ToolUseBlock
	for _, b := range t.Blocks {
		if tu, ok := b.(*ToolUseBlock); ok {
			out = append(out, tu)
		}
	}
	return out
}

// ContentBlock is the tagged-variant content of a turn: Text, Thinking,
// ToolUse, ToolResult, or Error.
type ContentBlock interface {
	BlockType() string
}

// TextBlock carries plain assistant or user text.
type TextBlock struct {
	Text string `json:"text"`
}

func (*TextBlock) BlockType() string { return "text" }

// ThinkingBlock carries extended-reasoning content, kept distinguished from
// TextBlock when the provider supports a dedicated thinking channel.
type ThinkingBlock struct {
	Text string `json:"text"`
}

func (*ThinkingBlock) BlockType() string { return "thinking" }

// ToolUseBlock is a single tool invocation requested by the assistant.
// ID is unique within the turn it appears in.
type ToolUseBlock struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

func (*ToolUseBlock) BlockType() string { return "tool_use" }

// ToolResultBlock is the outcome of dispatching a ToolUseBlock, appended to
// a subsequent tool-role turn and referencing its ToolUseID.
type ToolResultBlock struct {
	ToolUseID  string          `json:"toolUseId"`
	Output     json.RawMessage `json:"output"`
	IsError    bool            `json:"isError"`
	DurationMS int64           `json:"durationMs"`
}

func (*ToolResultBlock) BlockType() string { return "tool_result" }

// ErrorBlock records a turn-terminating error for replay.
type ErrorBlock struct {
	Message string `json:"message"`
}

func (*ErrorBlock) BlockType() string { return "error" }

// EstimateTokens is the character-count heuristic used only for compression
// triggers: sum of textual content lengths plus serialised tool
// arguments/results, divided by four. It never substitutes for
// provider-reported usage.
func EstimateTokens(s *Session) int {
	chars := 0
	for _, t := range s.Turns {
		for _, b := range t.Blocks {
			switch v := b.(type) {
			case *TextBlock:
				chars += len(v.Text)
			case *ThinkingBlock:
				chars += len(v.Text)
			case *ToolUseBlock:
				if raw, err := json.Marshal(v.Args); err == nil {
					chars += len(raw)
				}
			case *ToolResultBlock:
				chars += len(v.Output)
			case *ErrorBlock:
				chars += len(v.Message)
			}
		}
	}
	return chars / 4
}
