package provider

import (
	"io"

	"github.com/cloudwego/eino/schema"
)

// StreamEvent is the provider-neutral event union the orchestrator's inner
// loop consumes. Normalize translates eino's incremental *schema.Message
// chunks, which differ in shape between Anthropic and OpenAI, into this one
// set of variants.
type StreamEvent interface {
	streamEvent()
}

// TextDelta carries a fragment of assistant-visible text.
type TextDelta struct{ Text string }

func (TextDelta) streamEvent() {}

// ThinkingDelta carries a fragment of extended-thinking/reasoning content.
type ThinkingDelta struct{ Text string }

func (ThinkingDelta) streamEvent() {}

// ToolCallStart announces a new tool call; it arrives once per call, before
// any ToolCallDelta for the same ID.
type ToolCallStart struct {
	ID   string
	Name string
}

func (ToolCallStart) streamEvent() {}

// ToolCallDelta carries a fragment of a tool call's JSON argument string.
// Fragments arrive in order and must be concatenated, not merged as JSON.
type ToolCallDelta struct {
	ID        string
	ArgsDelta string
}

func (ToolCallDelta) streamEvent() {}

// Finish marks the end of the stream with the model's stop reason and, when
// the provider reports it, token usage for the turn.
type Finish struct {
	Reason string
	Usage  *schema.TokenUsage
}

func (Finish) streamEvent() {}

// StreamErrorEvent reports a transport or provider error observed mid-stream.
// Normalize emits this instead of Finish and closes the channel afterward.
type StreamErrorEvent struct{ Err error }

func (StreamErrorEvent) streamEvent() {}

// chunkReceiver is satisfied by *CompletionStream; tests substitute a fake
// so Normalize can be exercised without a real Eino stream reader.
type chunkReceiver interface {
	Recv() (*schema.Message, error)
}

// Normalize drains stream in a goroutine, emitting one StreamEvent per
// logical change in the underlying chunks. Tool calls are tracked by eino's
// Index field (one open call per index): the first chunk for an index that
// carries an ID and a function name becomes ToolCallStart, every later
// fragment for that index becomes a ToolCallDelta. A chunk with no Index and
// no ID is unattributable and is dropped rather than guessed at.
//
// The returned channel is closed after a Finish or StreamErrorEvent event,
// or immediately if the stream ends without either (callers should treat a
// close with no Finish as finish reason "stop").
func Normalize(stream chunkReceiver) <-chan StreamEvent {
	out := make(chan StreamEvent)

	go func() {
		defer close(out)

		type openCall struct{ id string }
		open := make(map[int]openCall)
		nextAnonIndex := -1

		for {
			msg, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				out <- StreamErrorEvent{Err: err}
				return
			}

			if msg.Content != "" {
				out <- TextDelta{Text: msg.Content}
			}

			if msg.ReasoningContent != "" {
				out <- ThinkingDelta{Text: msg.ReasoningContent}
			}

			for _, tc := range msg.ToolCalls {
				idx := 0
				switch {
				case tc.Index != nil:
					idx = *tc.Index
				case tc.ID != "":
					idx = nextAnonIndex
					nextAnonIndex--
				default:
					continue
				}

				call, started := open[idx]
				if !started && tc.ID != "" && tc.Function.Name != "" {
					call = openCall{id: tc.ID}
					open[idx] = call
					out <- ToolCallStart{ID: call.id, Name: tc.Function.Name}
					started = true
				}

				if started && tc.Function.Arguments != "" {
					out <- ToolCallDelta{ID: call.id, ArgsDelta: tc.Function.Arguments}
				}
			}

			if msg.ResponseMeta != nil && msg.ResponseMeta.FinishReason != "" {
				out <- Finish{Reason: msg.ResponseMeta.FinishReason, Usage: msg.ResponseMeta.Usage}
				return
			}
		}
	}()

	return out
}
