package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/locuscode/locus/internal/event"
	"github.com/locuscode/locus/internal/tool"
	"github.com/locuscode/locus/pkg/types"
)

// executeTools runs a closed assistant turn's ToolUse blocks, implementing
// spec.md §4.5.5: task calls are partitioned out and run after the
// non-task calls, which execute strictly in declaration order since later
// calls often depend on earlier filesystem state. A non-task failure
// aborts the remaining batch.
func (o *Orchestrator) executeTools(ctx context.Context, toolUses []*types.ToolUseBlock) error {
	toolTurn := o.sess.AddTurn(types.RoleTool)

	var taskCalls []*types.ToolUseBlock
	var rest []*types.ToolUseBlock
	for _, tu := range toolUses {
		if tu.Name == toolNameTask {
			taskCalls = append(taskCalls, tu)
		} else {
			rest = append(rest, tu)
		}
	}

	for _, tu := range rest {
		result := o.dispatchOne(ctx, tu)
		toolTurn.AppendBlock(result)
		o.recordToolRun(tu, result)

		if result.IsError {
			toolTurn.AppendBlock(&types.ErrorBlock{Message: extractErrorMessage(result.Output)})
			toolTurn.Close()
			_ = o.bus.Publish(o.sess.ID(), event.Error{SessionID: o.sess.ID(), Message: extractErrorMessage(result.Output)})
			return &ToolFailed{Tool: tu.Name, Message: extractErrorMessage(result.Output)}
		}
	}

	for _, tu := range taskCalls {
		result := o.dispatchTask(ctx, tu)
		toolTurn.AppendBlock(result)
		o.recordToolRun(tu, result)
	}

	toolTurn.Close()
	return nil
}

// dispatchOne runs a single non-task tool call, routing the two
// orchestrator-owned introspection meta-tools inline and everything else
// through the gateway.
func (o *Orchestrator) dispatchOne(ctx context.Context, tu *types.ToolUseBlock) *types.ToolResultBlock {
	start := time.Now()
	_ = o.bus.Publish(o.sess.ID(), event.ToolStart{SessionID: o.sess.ID(), ToolUse: tu})

	var result *types.ToolResultBlock
	switch tu.Name {
	case toolNameToolSearch:
		query, _ := tu.Args["query"].(string)
		result = &types.ToolResultBlock{
			ToolUseID:  tu.ID,
			Output:     json.RawMessage(runToolSearch(o.tools, query)),
			DurationMS: time.Since(start).Milliseconds(),
		}
	case toolNameToolExplain:
		name, _ := tu.Args["name"].(string)
		result = &types.ToolResultBlock{
			ToolUseID:  tu.ID,
			Output:     json.RawMessage(runToolExplain(o.tools, name)),
			DurationMS: time.Since(start).Milliseconds(),
		}
	default:
		toolCtx := &tool.Context{
			SessionID:     o.sess.ID(),
			CallID:        tu.ID,
			Agent:         string(o.role),
			WorkDir:       o.sess.RepoRoot(),
			SandboxPolicy: o.sess.Config().SandboxPolicy,
		}
		result = o.gateway.Dispatch(ctx, tu, toolCtx)
	}

	result.Output = json.RawMessage(RedactSecrets(string(result.Output)))
	_ = o.bus.Publish(o.sess.ID(), event.ToolDone{SessionID: o.sess.ID(), ToolUseID: tu.ID, Result: result})
	return result
}

// dispatchTask runs one task meta-tool call by spawning a sub-agent.
func (o *Orchestrator) dispatchTask(ctx context.Context, tu *types.ToolUseBlock) *types.ToolResultBlock {
	_ = o.bus.Publish(o.sess.ID(), event.ToolStart{SessionID: o.sess.ID(), ToolUse: tu})
	result := o.runSubagentTask(ctx, tu)
	_ = o.bus.Publish(o.sess.ID(), event.ToolDone{SessionID: o.sess.ID(), ToolUseID: tu.ID, Result: result})
	return result
}

func (o *Orchestrator) recordToolRun(tu *types.ToolUseBlock, result *types.ToolResultBlock) {
	argsJSON, _ := json.Marshal(tu.Args)
	o.mem.StoreToolRun(tu.Name, argsJSON, string(result.Output), result.DurationMS, result.IsError, types.MemoryLinks{})
}

// extractErrorMessage pulls the "error" field out of a tool result's JSON
// output, falling back to the raw output when it isn't shaped that way.
func extractErrorMessage(output json.RawMessage) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(output, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	return string(output)
}
