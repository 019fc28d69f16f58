package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/locuscode/locus/internal/event"
	"github.com/locuscode/locus/internal/permission"
	"github.com/locuscode/locus/internal/provider"
	"github.com/locuscode/locus/internal/session"
	"github.com/locuscode/locus/internal/tool"
	"github.com/locuscode/locus/pkg/types"
)

func newFullTestOrchestrator(t *testing.T) (*Orchestrator, *event.Bus) {
	t.Helper()
	repoRoot := t.TempDir()
	cfg := types.ConfigSnapshot{Model: "m", Provider: "missing-provider", Mode: types.ModeSmart, Limits: types.LimitsFor(types.ModeSmart)}

	registry := tool.NewRegistry(repoRoot)
	gateway := tool.NewGateway(registry, permission.NewChecker(nil))
	bus := event.New()
	t.Cleanup(func() { _ = bus.Close() })

	o := New(
		session.New(repoRoot, cfg),
		bus,
		newTestMemoryClient(t, repoRoot, nil),
		provider.NewRegistry(&types.Config{}),
		gateway,
		registry,
		RolePrimary,
	)
	return o, bus
}

func TestSendMessage_SecretRejectedWithoutCallingProvider(t *testing.T) {
	o, bus := newFullTestOrchestrator(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := bus.Subscribe(ctx, o.Session().ID())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	err = o.SendMessage(context.Background(), "my key is sk-proj-ABCDEF0123456789ABCDEF0123456789, don't leak it")
	if err == nil {
		t.Fatal("expected SendMessage to reject a prompt containing a secret")
	}
	if _, ok := err.(*SessionError); !ok {
		t.Fatalf("err = %T, want *SessionError", err)
	}

	var sawError, sawSessionEnd bool
	deadline := time.After(time.Second)
drain:
	for {
		select {
		case evt := <-events:
			switch e := evt.(type) {
			case event.Error:
				sawError = true
			case event.SessionEnd:
				if e.Status == "failed" {
					sawSessionEnd = true
				}
			}
			if sawError && sawSessionEnd {
				break drain
			}
		case <-deadline:
			break drain
		}
	}
	if !sawError {
		t.Error("expected an Error event on the bus")
	}
	if !sawSessionEnd {
		t.Error("expected a failed SessionEnd event on the bus")
	}

	if len(o.Session().Turns()) != 0 {
		t.Fatalf("secret-bearing prompt should never become a turn, got %d turns", len(o.Session().Turns()))
	}
}

func TestSendMessage_CommandShortCircuitsBeforeProvider(t *testing.T) {
	o, _ := newFullTestOrchestrator(t)

	if err := o.SendMessage(context.Background(), ":mode rush"); err != nil {
		t.Fatalf("SendMessage(:mode rush): %v", err)
	}
	if o.Session().Config().Mode != types.ModeRush {
		t.Fatalf("mode = %s, want rush", o.Session().Config().Mode)
	}
	if len(o.Session().Turns()) != 0 {
		t.Fatalf("a command should never add a turn, got %d", len(o.Session().Turns()))
	}
}

func TestSendMessage_MissingProviderFailsTheTurn(t *testing.T) {
	o, _ := newFullTestOrchestrator(t)

	err := o.SendMessage(context.Background(), "hello there")
	if err == nil {
		t.Fatal("expected an error for an unregistered provider")
	}
	if _, ok := err.(*LlmFailed); !ok {
		t.Fatalf("err = %T, want *LlmFailed", err)
	}

	turns := o.Session().Turns()
	if len(turns) != 1 || turns[0].Role != types.RoleUser {
		t.Fatalf("expected exactly the user turn to survive, got %+v", turns)
	}
}

func TestBuildRequest_IncludesSystemPromptMemoryAndTools(t *testing.T) {
	o, _ := newFullTestOrchestrator(t)
	o.tools.Register(newMockOrchTool("grep", "search file contents"))

	recall := types.RetrieveResult{Memories: "user prefers tabs over spaces", ItemsFound: 1}
	req := o.buildRequest(o.sess.Config(), recall)

	if len(req.Messages) == 0 {
		t.Fatal("expected at least the system message")
	}
	sysContent := req.Messages[0].Content
	if !strings.Contains(sysContent, "Recalled memory") || !strings.Contains(sysContent, "tabs over spaces") {
		t.Errorf("system message missing recalled memory: %q", sysContent)
	}
	if !strings.Contains(sysContent, "Session context") {
		t.Errorf("system message missing session context summary: %q", sysContent)
	}

	var sawGrep, sawMetaTool bool
	for _, info := range req.Tools {
		if info.Name == "grep" {
			sawGrep = true
		}
		if info.Name == toolNameTask {
			sawMetaTool = true
		}
	}
	if !sawGrep {
		t.Error("expected gateway tool 'grep' in request tool catalogue")
	}
	if !sawMetaTool {
		t.Error("expected meta-tool 'task' in request tool catalogue")
	}
}

func TestBuildRequest_OmitsRecalledMemoryWhenEmpty(t *testing.T) {
	o, _ := newFullTestOrchestrator(t)
	req := o.buildRequest(o.sess.Config(), types.RetrieveResult{})
	if strings.Contains(req.Messages[0].Content, "Recalled memory") {
		t.Error("expected no recalled-memory section when recall is empty")
	}
}

func TestSetMaxTurns_UpdatesTheField(t *testing.T) {
	o, _ := newFullTestOrchestrator(t)
	if o.maxTurns != 0 {
		t.Fatalf("maxTurns = %d, want 0 (unlimited) before SetMaxTurns", o.maxTurns)
	}
	o.SetMaxTurns(5)
	if o.maxTurns != 5 {
		t.Fatalf("maxTurns = %d, want 5", o.maxTurns)
	}
}

