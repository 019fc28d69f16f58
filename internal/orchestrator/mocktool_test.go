package orchestrator

import (
	"context"
	"encoding/json"

	einotool "github.com/cloudwego/eino/components/tool"

	"github.com/locuscode/locus/internal/tool"
)

// mockOrchTool is a minimal tool.Tool double for orchestrator-level tests,
// mirroring the tool package's own mockTool pattern.
type mockOrchTool struct {
	id          string
	description string
	result      *tool.Result
	err         error
}

func newMockOrchTool(id, description string) *mockOrchTool {
	return &mockOrchTool{id: id, description: description, result: &tool.Result{Output: "ok"}}
}

func (m *mockOrchTool) ID() string                  { return m.id }
func (m *mockOrchTool) Description() string         { return m.description }
func (m *mockOrchTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object","properties":{}}`) }
func (m *mockOrchTool) EinoTool() einotool.InvokableTool { return nil }

func (m *mockOrchTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *tool.Context) (*tool.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}
