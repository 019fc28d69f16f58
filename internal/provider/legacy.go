package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/locuscode/locus/pkg/types"
)

// LegacyToolCall is one entry of a LegacyResponse's tool_calls array.
type LegacyToolCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// LegacyResponse is the single-JSON-object response shape some
// OpenAI-compatible endpoints emit as plain text instead of using native
// tool-calling: {reasoning, tool_calls: [{tool, args}], confidence?}. zai and
// ollama models served through NewOpenAIProvider are the most likely source
// of this shape in this codebase, since not every OpenAI-compatible backend
// they front supports structured tool calls.
type LegacyResponse struct {
	Reasoning  string           `json:"reasoning"`
	ToolCalls  []LegacyToolCall `json:"tool_calls,omitempty"`
	Confidence *float64         `json:"confidence,omitempty"`
}

// ParseLegacyResponse extracts and decodes a LegacyResponse from raw, which
// may be wrapped in a markdown code fence or carry leading/trailing prose.
// It takes the substring from the first '{' to the last '}' and decodes
// that; unknown fields are ignored, and a missing confidence leaves
// Confidence nil rather than defaulting to zero.
func ParseLegacyResponse(raw string) (*LegacyResponse, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("legacy response: no JSON object found in %q", raw)
	}

	var resp LegacyResponse
	if err := json.Unmarshal([]byte(raw[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("legacy response: %w", err)
	}
	return &resp, nil
}

// Serialize renders r back to its canonical JSON form. Round-tripping
// through ParseLegacyResponse(r.Serialize()) reproduces r field for field.
func (r *LegacyResponse) Serialize() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// looksLikeLegacyResponse is a cheap pre-check so ordinary assistant text
// isn't run through a JSON decode on every turn: the legacy shape always
// carries a top-level "tool_calls" key.
func looksLikeLegacyResponse(content string) bool {
	return strings.Contains(content, `"tool_calls"`)
}

// ToTurn converts a parsed legacy response into the same open Turn shape
// ConvertFromEinoTurn produces for a native tool-calling response: reasoning
// becomes a TextBlock, and each tool call becomes a ToolUseBlock. Native
// responses carry a provider-assigned call ID; the legacy shape has none, so
// one is minted per call.
func (r *LegacyResponse) ToTurn() *types.Turn {
	turn := &types.Turn{Role: types.RoleAssistant}
	if r.Reasoning != "" {
		turn.AppendBlock(&types.TextBlock{Text: r.Reasoning})
	}
	for _, call := range r.ToolCalls {
		turn.AppendBlock(&types.ToolUseBlock{
			ID:   uuid.NewString(),
			Name: call.Tool,
			Args: call.Args,
		})
	}
	return turn
}
