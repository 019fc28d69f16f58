package provider

import (
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/locuscode/locus/pkg/types"
)

func TestParseLegacyResponse_PlainObject(t *testing.T) {
	raw := `{"reasoning": "checking the test file first", "tool_calls": [{"tool": "read", "args": {"path": "a.go"}}], "confidence": 0.9}`

	got, err := ParseLegacyResponse(raw)
	if err != nil {
		t.Fatalf("ParseLegacyResponse: %v", err)
	}
	if got.Reasoning != "checking the test file first" {
		t.Errorf("Reasoning = %q", got.Reasoning)
	}
	if len(got.ToolCalls) != 1 || got.ToolCalls[0].Tool != "read" {
		t.Fatalf("ToolCalls = %+v", got.ToolCalls)
	}
	if got.ToolCalls[0].Args["path"] != "a.go" {
		t.Errorf("Args[path] = %v", got.ToolCalls[0].Args["path"])
	}
	if got.Confidence == nil || *got.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", got.Confidence)
	}
}

func TestParseLegacyResponse_StripsMarkdownFenceAndProse(t *testing.T) {
	raw := "Sure, here's my plan:\n```json\n{\"reasoning\": \"ok\", \"tool_calls\": []}\n```\nLet me know if that works."

	got, err := ParseLegacyResponse(raw)
	if err != nil {
		t.Fatalf("ParseLegacyResponse: %v", err)
	}
	if got.Reasoning != "ok" {
		t.Errorf("Reasoning = %q", got.Reasoning)
	}
	if len(got.ToolCalls) != 0 {
		t.Errorf("ToolCalls = %+v, want empty", got.ToolCalls)
	}
}

func TestParseLegacyResponse_MissingConfidenceDefaultsAbsent(t *testing.T) {
	got, err := ParseLegacyResponse(`{"reasoning": "no confidence field here"}`)
	if err != nil {
		t.Fatalf("ParseLegacyResponse: %v", err)
	}
	if got.Confidence != nil {
		t.Errorf("Confidence = %v, want nil", *got.Confidence)
	}
}

func TestParseLegacyResponse_IgnoresUnknownFields(t *testing.T) {
	got, err := ParseLegacyResponse(`{"reasoning": "ok", "tool_calls": [], "model_version": "v7", "extra": {"nested": true}}`)
	if err != nil {
		t.Fatalf("ParseLegacyResponse: %v", err)
	}
	if got.Reasoning != "ok" {
		t.Errorf("Reasoning = %q", got.Reasoning)
	}
}

func TestParseLegacyResponse_NoJSONObjectErrors(t *testing.T) {
	if _, err := ParseLegacyResponse("just plain prose, no braces at all"); err == nil {
		t.Fatal("expected an error for content with no JSON object")
	}
}

func TestLegacyResponseRoundTrip(t *testing.T) {
	confidence := 0.42
	cases := []*LegacyResponse{
		{Reasoning: "simple case", ToolCalls: nil, Confidence: nil},
		{
			Reasoning: "multi-call case",
			ToolCalls: []LegacyToolCall{
				{Tool: "read", Args: map[string]any{"path": "a.go"}},
				{Tool: "grep", Args: map[string]any{"pattern": "TODO", "path": "."}},
			},
			Confidence: &confidence,
		},
	}

	for _, want := range cases {
		serialized, err := want.Serialize()
		if err != nil {
			t.Fatalf("Serialize: %v", err)
		}
		got, err := ParseLegacyResponse(serialized)
		if err != nil {
			t.Fatalf("ParseLegacyResponse(serialized): %v", err)
		}
		if got.Reasoning != want.Reasoning {
			t.Errorf("Reasoning = %q, want %q", got.Reasoning, want.Reasoning)
		}
		if len(got.ToolCalls) != len(want.ToolCalls) {
			t.Fatalf("ToolCalls = %+v, want %+v", got.ToolCalls, want.ToolCalls)
		}
		for i := range want.ToolCalls {
			if got.ToolCalls[i].Tool != want.ToolCalls[i].Tool {
				t.Errorf("ToolCalls[%d].Tool = %q, want %q", i, got.ToolCalls[i].Tool, want.ToolCalls[i].Tool)
			}
		}
		if (got.Confidence == nil) != (want.Confidence == nil) {
			t.Fatalf("Confidence presence mismatch: got %v, want %v", got.Confidence, want.Confidence)
		}
		if want.Confidence != nil && *got.Confidence != *want.Confidence {
			t.Errorf("Confidence = %v, want %v", *got.Confidence, *want.Confidence)
		}
	}
}

func TestLegacyResponse_ToTurn(t *testing.T) {
	resp := &LegacyResponse{
		Reasoning: "going to read the file",
		ToolCalls: []LegacyToolCall{{Tool: "read", Args: map[string]any{"path": "a.go"}}},
	}

	turn := resp.ToTurn()
	if turn.Role != types.RoleAssistant {
		t.Errorf("Role = %s, want assistant", turn.Role)
	}

	uses := turn.ToolUses()
	if len(uses) != 1 {
		t.Fatalf("ToolUses = %+v, want 1", uses)
	}
	if uses[0].Name != "read" {
		t.Errorf("ToolUses[0].Name = %q, want read", uses[0].Name)
	}
	if uses[0].ID == "" {
		t.Error("ToolUses[0].ID should not be empty")
	}
}

func TestConvertFromEinoTurn_FallsBackToLegacyShapeWhenNoNativeToolCalls(t *testing.T) {
	msg := &schema.Message{
		Role:    schema.Assistant,
		Content: `{"reasoning": "no native tool call here", "tool_calls": [{"tool": "grep", "args": {"pattern": "TODO"}}]}`,
	}

	turn := ConvertFromEinoTurn(msg)
	uses := turn.ToolUses()
	if len(uses) != 1 || uses[0].Name != "grep" {
		t.Fatalf("ToolUses = %+v, want one grep call", uses)
	}
}

func TestConvertFromEinoTurn_PlainTextIsUnaffected(t *testing.T) {
	msg := &schema.Message{Role: schema.Assistant, Content: "just a plain sentence, no braces"}

	turn := ConvertFromEinoTurn(msg)
	if len(turn.ToolUses()) != 0 {
		t.Fatalf("expected no tool uses for plain text, got %+v", turn.ToolUses())
	}
	if len(turn.Blocks) != 1 {
		t.Fatalf("expected exactly one text block, got %+v", turn.Blocks)
	}
}

func TestConvertFromEinoTurn_NativeToolCallsTakePriorityOverLegacyLookingContent(t *testing.T) {
	msg := &schema.Message{
		Role:    schema.Assistant,
		Content: `mentions "tool_calls" in prose but uses the real API`,
		ToolCalls: []schema.ToolCall{
			{ID: "call_1", Function: schema.FunctionCall{Name: "read", Arguments: `{"path":"a.go"}`}},
		},
	}

	turn := ConvertFromEinoTurn(msg)
	uses := turn.ToolUses()
	if len(uses) != 1 || uses[0].ID != "call_1" {
		t.Fatalf("ToolUses = %+v, want the native call with its provider-assigned ID", uses)
	}
}
