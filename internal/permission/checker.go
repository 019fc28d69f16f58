package permission

import (
	"context"
	"fmt"
	"sync"

	"github.com/locuscode/locus/pkg/types"
)

// ConfirmFunc asks the caller (the orchestrator) to confirm a pending
// Write/Execute/GitWrite tool call. It returns true to proceed.
type ConfirmFunc func(ctx context.Context, req Request) (bool, error)

// Checker enforces the permission-class table for one process. Approvals
// are remembered per session so a user is not re-asked for the same tool
// repeatedly within one session.
type Checker struct {
	confirm ConfirmFunc

	mu       sync.Mutex
	approved map[string]map[string]bool // sessionID -> toolName -> approved
}

// NewChecker creates a Checker that calls confirm whenever a class requires
// confirmation under the session's sandbox policy. A nil confirm always
// rejects confirmable requests, matching a non-interactive run.
func NewChecker(confirm ConfirmFunc) *Checker {
	return &Checker{
		confirm:  confirm,
		approved: make(map[string]map[string]bool),
	}
}

// Check enforces the class for req under policy, calling the confirmation
// callback at most once per (session, tool) pair.
func (c *Checker) Check(ctx context.Context, req Request, policy types.SandboxPolicy) error {
	if !requiresConfirmation(req.Class, policy) {
		return nil
	}

	if c.isApproved(req.SessionID, req.ToolName) {
		return nil
	}

	if c.confirm == nil {
		return &RejectedError{
			SessionID: req.SessionID,
			ToolName:  req.ToolName,
			Message:   fmt.Sprintf("permission required for %q but no confirmation channel is attached", req.ToolName),
		}
	}

	ok, err := c.confirm(ctx, req)
	if err != nil {
		return err
	}
	if !ok {
		return &RejectedError{
			SessionID: req.SessionID,
			ToolName:  req.ToolName,
			Message:   fmt.Sprintf("permission denied for %q", req.ToolName),
		}
	}

	c.approve(req.SessionID, req.ToolName)
	return nil
}

func (c *Checker) isApproved(sessionID, toolName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.approved[sessionID][toolName]
}

func (c *Checker) approve(sessionID, toolName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.approved[sessionID] == nil {
		c.approved[sessionID] = make(map[string]bool)
	}
	c.approved[sessionID][toolName] = true
}

// ClearSession drops all remembered approvals for a session, e.g. when a
// sub-agent's ephemeral session ends.
func (c *Checker) ClearSession(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.approved, sessionID)
}
