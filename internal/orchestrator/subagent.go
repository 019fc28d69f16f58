package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/locuscode/locus/internal/event"
	"github.com/locuscode/locus/internal/session"
	"github.com/locuscode/locus/pkg/types"
)

// subagentMaxTurns is the forced inner-loop round-trip limit for every
// sub-agent spawned via the task meta-tool, per spec.md §4.5.5. Recursion
// through nested task calls is bounded by this limit rather than an
// explicit depth cap.
const subagentMaxTurns = 30

// runSubagentTask spawns a fresh Orchestrator over a new sub-session derived
// from o's, drives it with the task call's prompt argument, and turns its
// final assistant text into a ToolResultBlock. Sub-agent events are
// forwarded onto o's own session topic so the parent UI sees them without
// a separate subscription.
func (o *Orchestrator) runSubagentTask(ctx context.Context, tu *types.ToolUseBlock) *types.ToolResultBlock {
	prompt, _ := tu.Args["prompt"].(string)
	description, _ := tu.Args["description"].(string)
	if prompt == "" {
		return errorToolResult(tu.ID, "task call missing required \"prompt\" argument")
	}

	subSession := session.NewSubagent(o.sess)
	sub := New(subSession, o.bus, o.mem, o.provs, o.gateway, o.tools, RoleSubagent)
	sub.maxTurns = subagentMaxTurns

	bridgeCtx, stopBridge := context.WithCancel(ctx)
	defer stopBridge()
	go o.bridgeSubagentEvents(bridgeCtx, subSession.ID(), description)

	if err := sub.SendMessage(ctx, prompt); err != nil {
		return errorToolResult(tu.ID, fmt.Sprintf("sub-agent %q failed: %s", description, err.Error()))
	}

	summary := lastAssistantText(subSession.Turns())
	raw, _ := json.Marshal(map[string]string{"summary": summary})
	return &types.ToolResultBlock{ToolUseID: tu.ID, Output: raw}
}

// bridgeSubagentEvents republishes every event from the sub-agent's own
// topic onto the parent's, as a Status notice prefixed with description, so
// a UI subscribed only to the parent session still observes sub-agent
// progress in real time.
func (o *Orchestrator) bridgeSubagentEvents(ctx context.Context, subSessionID, description string) {
	events, err := o.bus.Subscribe(ctx, subSessionID)
	if err != nil {
		return
	}
	for evt := range events {
		msg := describeSubagentEvent(evt)
		if msg == "" {
			continue
		}
		_ = o.bus.Publish(o.sess.ID(), event.Status{
			SessionID: o.sess.ID(),
			Message:   fmt.Sprintf("[%s] %s", description, msg),
		})
	}
}

// describeSubagentEvent renders the subset of SessionEvent variants worth
// surfacing as a bridged progress notice; it returns "" for variants that
// would be redundant (prompt-token deltas) or parent-scoped (SessionEnd).
func describeSubagentEvent(evt event.SessionEvent) string {
	switch e := evt.(type) {
	case event.TextDelta:
		return e.Text
	case event.Status:
		return e.Message
	case event.ToolStart:
		if e.ToolUse != nil {
			return "running " + e.ToolUse.Name
		}
	case event.Error:
		return "error: " + e.Message
	}
	return ""
}

func errorToolResult(toolUseID, message string) *types.ToolResultBlock {
	raw, _ := json.Marshal(map[string]string{"error": message})
	return &types.ToolResultBlock{ToolUseID: toolUseID, Output: raw, IsError: true}
}
