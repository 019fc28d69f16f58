package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/locuscode/locus/internal/event"
	"github.com/locuscode/locus/internal/memory"
	"github.com/locuscode/locus/internal/project"
	"github.com/locuscode/locus/internal/provider"
	"github.com/locuscode/locus/internal/session"
	"github.com/locuscode/locus/internal/tool"
	"github.com/locuscode/locus/pkg/types"
)

// Orchestrator is the C5 turn loop: it drives one Session through memory
// recall, LLM streaming, and tool execution, publishing SessionEvents to
// the Bus as it goes. One Orchestrator serves exactly one Session; a
// sub-agent spawned by the task meta-tool gets its own Orchestrator over a
// fresh sub-Session (see subagent.go).
type Orchestrator struct {
	sess     *session.Session
	bus      *event.Bus
	mem      *memory.Client
	provs    *provider.Registry
	gateway  *tool.Gateway
	tools    *tool.Registry
	role     AgentRole
	repoHash string

	// maxTurns bounds the number of inner-loop iterations (LLM round
	// trips) for one SendMessage call. Zero means unlimited; sub-agents
	// are forced to 30 per spec.md's task-tool contract.
	maxTurns int

	mu       sync.Mutex
	cancelFn context.CancelFunc
}

// New builds an Orchestrator bound to sess, publishing to bus and using mem,
// provs, and the given tool gateway/registry for recall, generation, and
// tool execution respectively.
func New(sess *session.Session, bus *event.Bus, mem *memory.Client, provs *provider.Registry, gateway *tool.Gateway, tools *tool.Registry, role AgentRole) *Orchestrator {
	return &Orchestrator{
		sess:     sess,
		bus:      bus,
		mem:      mem,
		provs:    provs,
		gateway:  gateway,
		tools:    tools,
		role:     role,
		repoHash: project.HashDirectory(sess.RepoRoot()),
	}
}

// Session returns the session this orchestrator drives.
func (o *Orchestrator) Session() *session.Session { return o.sess }

// SetMaxTurns bounds the number of inner-loop round trips a single
// SendMessage call may take. Zero (the default) means unlimited; callers
// driving a non-interactive run use this to enforce spec.md §6's
// --max-turns flag the same way subagent.go enforces subagentMaxTurns.
func (o *Orchestrator) SetMaxTurns(n int) { o.maxTurns = n }

// Cancel requests cancellation of whatever turn is currently in flight. A
// no-op if no turn is running.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancelFn != nil {
		o.cancelFn()
	}
}

// SendMessage drives one full turn: local commands short-circuit before
// reaching the LLM; everything else is validated, recalled against, and
// run through the inner loop until the assistant closes a turn with no
// further tool calls. Implements spec.md §4.5.1.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) error {
	if handled, err := o.handleCommand(ctx, text); handled {
		return err
	}

	if ContainsSecret(text) {
		msg := "User prompt contains sensitive data and was not sent to the model"
		o.mem.StoreError("user_message", msg, nil, types.MemoryLinks{})
		_ = o.bus.Publish(o.sess.ID(), event.Error{SessionID: o.sess.ID(), Message: msg})
		_ = o.bus.Publish(o.sess.ID(), event.SessionEnd{SessionID: o.sess.ID(), Status: "failed"})
		return &SessionError{Message: msg}
	}

	turnCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancelFn = cancel
	o.mu.Unlock()
	defer cancel()

	o.mem.StoreUserIntent(text, "")

	userTurn := o.sess.AddTurn(types.RoleUser)
	userTurn.AppendBlock(&types.TextBlock{Text: text})
	userTurn.Close()

	sm := newTurnStateMachine()
	if err := sm.to(StateRecalling); err != nil {
		log.Warn().Err(err).Msg("turn state machine")
	}

	contextIDs := memory.BuildContextIDs(o.repoHash, o.sess.ID())
	recall := o.mem.Retrieve(turnCtx, text, memory.RetrieveOptions{Limit: 20, ContextIDs: contextIDs})
	_ = o.bus.Publish(o.sess.ID(), event.MemoryRecall{SessionID: o.sess.ID(), Query: text, ItemsFound: recall.ItemsFound})

	if err := sm.to(StateStreaming); err != nil {
		log.Warn().Err(err).Msg("turn state machine")
	}
	runErr := o.innerLoop(turnCtx, sm, recall)

	status := "completed"
	var reasoning *string
	switch {
	case isCancelled(runErr):
		status = "cancelled"
		_ = sm.to(StateCancelled)
	case runErr != nil:
		status = "failed"
		_ = sm.to(StateFailed)
	default:
		_ = sm.to(StateClosed)
		if summary := lastAssistantText(o.sess.Turns()); summary != "" {
			reasoning = &summary
		}
	}

	_ = o.bus.Publish(o.sess.ID(), event.TurnEnd{SessionID: o.sess.ID()})
	usage := o.sess.Usage()
	_ = o.bus.Publish(o.sess.ID(), event.SessionEnd{
		SessionID:        o.sess.ID(),
		Status:           status,
		PromptTokens:     usage.InputTokens,
		CompletionTokens: usage.OutputTokens,
	})

	summary := "turn " + status
	o.mem.StoreDecision(summary, reasoning)

	return runErr
}

// innerLoop repeats generate-then-execute-tools until a closed assistant
// turn carries no ToolUse blocks, implementing spec.md §4.5.2.
func (o *Orchestrator) innerLoop(ctx context.Context, sm *turnStateMachine, recall types.RetrieveResult) error {
	for round := 0; ; round++ {
		if o.maxTurns > 0 && round >= o.maxTurns {
			return &SessionError{Message: fmt.Sprintf("turn limit of %d reached", o.maxTurns)}
		}

		maybeCompress(ctx, o.sess, o.mem, o.bus)

		turn, err := o.runOneGeneration(ctx, recall)
		if err != nil {
			return err
		}

		toolUses := turn.ToolUses()
		if len(toolUses) == 0 {
			return nil
		}

		if err := sm.to(StateToolExecuting); err != nil {
			log.Warn().Err(err).Msg("turn state machine")
		}
		if err := o.executeTools(ctx, toolUses); err != nil {
			return err
		}
		if err := sm.to(StateStreaming); err != nil {
			log.Warn().Err(err).Msg("turn state machine")
		}
	}
}

// runOneGeneration issues one streamed completion request and assembles its
// result into a closed assistant turn, emitting TextDelta/ThinkingDelta
// events as they arrive.
func (o *Orchestrator) runOneGeneration(ctx context.Context, recall types.RetrieveResult) (*types.Turn, error) {
	cfg := o.sess.Config()

	prov, err := o.provs.Get(cfg.Provider)
	if err != nil {
		return nil, &LlmFailed{Message: err.Error()}
	}

	req := o.buildRequest(cfg, recall)

	stream, err := createStreamWithRetry(ctx, prov, req, cfg.Limits.MaxRetries)
	if err != nil {
		return nil, &LlmFailed{Message: err.Error()}
	}
	defer stream.Close()

	_ = o.bus.Publish(o.sess.ID(), event.TurnStart{SessionID: o.sess.ID(), Role: types.RoleAssistant})
	turn := o.sess.AddTurn(types.RoleAssistant)

	var textBlock *types.TextBlock
	var thinkingBlock *types.ThinkingBlock

	type pendingCall struct {
		name string
		args strings.Builder
	}
	order := []string{}
	calls := map[string]*pendingCall{}

	var finishReason string
	var usage *types.TokenUsage
	var streamErr error

	for evt := range provider.Normalize(stream) {
		switch e := evt.(type) {
		case provider.TextDelta:
			if textBlock == nil {
				textBlock = &types.TextBlock{}
				turn.AppendBlock(textBlock)
			}
			textBlock.Text += e.Text
			_ = o.bus.Publish(o.sess.ID(), event.TextDelta{SessionID: o.sess.ID(), Text: e.Text})

		case provider.ThinkingDelta:
			if thinkingBlock == nil {
				thinkingBlock = &types.ThinkingBlock{}
				turn.AppendBlock(thinkingBlock)
			}
			thinkingBlock.Text += e.Text
			_ = o.bus.Publish(o.sess.ID(), event.ThinkingDelta{SessionID: o.sess.ID(), Text: e.Text})

		case provider.ToolCallStart:
			calls[e.ID] = &pendingCall{name: e.Name}
			order = append(order, e.ID)

		case provider.ToolCallDelta:
			if pc, ok := calls[e.ID]; ok {
				pc.args.WriteString(e.ArgsDelta)
			}

		case provider.Finish:
			finishReason = e.Reason
			if e.Usage != nil {
				usage = &types.TokenUsage{Input: e.Usage.PromptTokens, Output: e.Usage.CompletionTokens}
			}

		case provider.StreamErrorEvent:
			streamErr = e.Err
		}
	}

	if streamErr != nil {
		if ctx.Err() != nil {
			turn.AppendBlock(&types.ErrorBlock{Message: "cancelled"})
			turn.Close()
			return turn, &Cancelled{}
		}
		turn.AppendBlock(&types.ErrorBlock{Message: streamErr.Error()})
		turn.Close()
		_ = o.bus.Publish(o.sess.ID(), event.Error{SessionID: o.sess.ID(), Message: streamErr.Error()})
		return turn, &LlmFailed{Message: streamErr.Error()}
	}

	for _, id := range order {
		pc := calls[id]
		var args map[string]any
		if pc.args.Len() > 0 {
			if err := json.Unmarshal([]byte(pc.args.String()), &args); err != nil {
				turn.AppendBlock(&types.ErrorBlock{Message: "unparseable tool arguments: " + err.Error()})
				turn.Close()
				_ = o.bus.Publish(o.sess.ID(), event.Error{SessionID: o.sess.ID(), Message: "unparseable tool arguments for " + pc.name})
				return turn, &LlmFailed{Message: "unparseable tool arguments: " + err.Error()}
			}
		}
		turn.AppendBlock(&types.ToolUseBlock{ID: id, Name: pc.name, Args: args})
	}

	if usage != nil {
		turn.Usage = usage
		o.sess.RecordUsage(*usage)
	}
	turn.Close()

	log.Debug().Str("session", o.sess.ID()).Str("finishReason", finishReason).Msg("generation closed")
	inTokens, outTokens := 0, 0
	if usage != nil {
		inTokens, outTokens = usage.Input, usage.Output
	}
	o.mem.StoreLLMCall(cfg.Model, inTokens, outTokens, 0, false, types.MemoryLinks{})

	return turn, nil
}

// buildRequest assembles a CompletionRequest from the static system prompt,
// the per-call session context summary, recalled memory, the tool
// catalogue, and prior turn history, per spec.md §4.5.2 step 2.
func (o *Orchestrator) buildRequest(cfg types.ConfigSnapshot, recall types.RetrieveResult) *provider.CompletionRequest {
	var sys strings.Builder
	sys.WriteString(systemPrompt(o.role))
	sys.WriteString("\n\n")
	sys.WriteString(sessionContextSummary(o.sess))
	if recall.Memories != "" {
		sys.WriteString("\n\n# Recalled memory\n\n")
		sys.WriteString(recall.Memories)
	}

	messages := provider.ConvertToEinoMessages(o.sess.Turns())
	systemMsg := provider.ConvertToEinoMessages([]*types.Turn{systemTurn(sys.String())})
	all := append(systemMsg, messages...)

	gatewayTools, err := o.tools.ToolInfos()
	if err != nil {
		log.Warn().Err(err).Msg("failed to build gateway tool catalogue")
	}
	tools := append(gatewayTools, metaToolInfos()...)

	return &provider.CompletionRequest{
		Model:     cfg.Model,
		Messages:  all,
		Tools:     tools,
		MaxTokens: cfg.Limits.MaxOutputTokens,
	}
}

// systemTurn wraps text in a closed system-role turn so it can be rendered
// through the same ConvertToEinoMessages path as everything else.
func systemTurn(text string) *types.Turn {
	t := &types.Turn{Role: types.RoleSystem}
	t.AppendBlock(&types.TextBlock{Text: text})
	t.Close()
	return t
}

// createStreamWithRetry attempts CreateCompletion up to maxRetries+1 times
// with capped exponential backoff between attempts, mirroring
// GenerateWithRetry's curve for the streaming path.
func createStreamWithRetry(ctx context.Context, prov provider.Provider, req *provider.CompletionRequest, maxRetries int) (*provider.CompletionStream, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * time.Second
			if delay > 10*time.Second {
				delay = 10 * time.Second
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		stream, err := prov.CreateCompletion(ctx, req)
		if err == nil {
			return stream, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func isCancelled(err error) bool {
	_, ok := err.(*Cancelled)
	return ok
}

func lastAssistantText(turns []*types.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != types.RoleAssistant {
			continue
		}
		for _, b := range turns[i].Blocks {
			if tb, ok := b.(*types.TextBlock); ok {
				return tb.Text
			}
		}
	}
	return ""
}
