package tool

import (
	"context"
	"encoding/json"
	"time"

	"github.com/locuscode/locus/internal/permission"
	"github.com/locuscode/locus/pkg/types"
)

// Gateway dispatches tool calls on behalf of the orchestrator: it looks the
// tool up in a Registry, enforces its permission class through a
// permission.Checker, runs it, and turns the outcome into a
// types.ToolResultBlock. It is the one place that performs all three steps,
// so the orchestrator never calls Registry.Get or Checker.Check directly.
type Gateway struct {
	registry *Registry
	checker  *permission.Checker
}

// NewGateway builds a Gateway over registry and checker.
func NewGateway(registry *Registry, checker *permission.Checker) *Gateway {
	return &Gateway{registry: registry, checker: checker}
}

// Dispatch runs the tool use named in call, returning a ToolResultBlock
// whose ToolUseID matches call.ID in every case, including "tool not found"
// and permission rejection: the orchestrator always gets a result block to
// append to the tool-role turn, never a bare error, unless ctx itself is
// already done.
func (g *Gateway) Dispatch(ctx context.Context, call *types.ToolUseBlock, toolCtx *Context) *types.ToolResultBlock {
	start := time.Now()

	t, ok := g.registry.Get(call.Name)
	if !ok {
		return errorResult(call.ID, start, "tool not found: "+call.Name)
	}

	req := permission.Request{
		SessionID: toolCtx.SessionID,
		ToolName:  call.Name,
		Class:     permission.ClassForTool(call.Name),
		Title:     call.Name,
	}
	if err := g.checker.Check(ctx, req, toolCtx.SandboxPolicy); err != nil {
		return errorResult(call.ID, start, err.Error())
	}

	input, err := json.Marshal(call.Args)
	if err != nil {
		return errorResult(call.ID, start, "failed to marshal tool input: "+err.Error())
	}
	toolCtx.CallID = call.ID

	result, err := t.Execute(ctx, input, toolCtx)
	if err != nil {
		return errorResult(call.ID, start, err.Error())
	}

	output, err := json.Marshal(result)
	if err != nil {
		return errorResult(call.ID, start, "failed to marshal tool result: "+err.Error())
	}

	return &types.ToolResultBlock{
		ToolUseID:  call.ID,
		Output:     output,
		IsError:    false,
		DurationMS: time.Since(start).Milliseconds(),
	}
}

func errorResult(toolUseID string, start time.Time, message string) *types.ToolResultBlock {
	raw, _ := json.Marshal(map[string]string{"error": message})
	return &types.ToolResultBlock{
		ToolUseID:  toolUseID,
		Output:     raw,
		IsError:    true,
		DurationMS: time.Since(start).Milliseconds(),
	}
}
