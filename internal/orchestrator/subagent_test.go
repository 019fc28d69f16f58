package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/locuscode/locus/internal/event"
	"github.com/locuscode/locus/pkg/types"
)

func TestRunSubagentTask_MissingPrompt(t *testing.T) {
	o, _ := newFullTestOrchestrator(t)

	result := o.runSubagentTask(context.Background(), &types.ToolUseBlock{
		ID:   "task-1",
		Name: toolNameTask,
		Args: map[string]any{"description": "no prompt given"},
	})

	if !result.IsError {
		t.Fatal("expected an error result when prompt is missing")
	}
	var payload map[string]string
	if err := json.Unmarshal(result.Output, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["error"] == "" {
		t.Fatal("expected an error message")
	}
}

func TestErrorToolResult(t *testing.T) {
	result := errorToolResult("call-9", "something went wrong")
	if !result.IsError || result.ToolUseID != "call-9" {
		t.Fatalf("result = %+v", result)
	}
	var payload map[string]string
	if err := json.Unmarshal(result.Output, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["error"] != "something went wrong" {
		t.Fatalf("error = %q", payload["error"])
	}
}

func TestDescribeSubagentEvent(t *testing.T) {
	cases := []struct {
		name string
		evt  event.SessionEvent
		want string
	}{
		{"text delta passes through", event.TextDelta{Text: "hello"}, "hello"},
		{"status passes through", event.Status{Message: "thinking"}, "thinking"},
		{"tool start describes the tool", event.ToolStart{ToolUse: &types.ToolUseBlock{Name: "grep"}}, "running grep"},
		{"error is prefixed", event.Error{Message: "boom"}, "error: boom"},
		{"turn end is suppressed", event.TurnEnd{}, ""},
		{"session end is suppressed", event.SessionEnd{Status: "completed"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := describeSubagentEvent(tc.evt); got != tc.want {
				t.Errorf("describeSubagentEvent(%v) = %q, want %q", tc.evt, got, tc.want)
			}
		})
	}
}
