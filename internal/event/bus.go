// Package event implements the orchestrator's outbound SessionEvent stream:
// a per-session, causally-ordered pub/sub channel to the UI, built on
// watermill's in-memory pub/sub so publish order is preserved per topic.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// SessionEventChannelCapacity is the recommended bounded capacity for a
// session's outbound event channel; producers suspend once it fills,
// preserving order at the cost of throughput.
const SessionEventChannelCapacity = 256

// envelope carries the type discriminant alongside the marshalled payload so
// a subscriber can decode back into the correct SessionEvent variant.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Bus is the event bus. One Bus instance typically lives for the process
// lifetime; each session publishes to its own topic (the session ID) so
// multiple sessions (parent and sub-agents) never interleave on the wire.
type Bus struct {
	pubsub *gochannel.GoChannel

	mu     sync.Mutex
	closed bool
}

// New creates a Bus backed by an in-memory watermill GoChannel.
func New() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer:            SessionEventChannelCapacity,
				Persistent:                     false,
				BlockPublishUntilSubscriberAck: false,
			},
			watermill.NopLogger{},
		),
	}
}

// Publish appends evt to sessionID's ordered stream. Publish is synchronous
// with respect to watermill's internal fan-out, which preserves the order
// events were published in for every subscriber of the topic.
func (b *Bus) Publish(sessionID string, evt SessionEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("event: marshal %s: %w", evt.EventType(), err)
	}
	env := envelope{Type: evt.EventType(), Payload: payload}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("event: marshal envelope: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), raw)
	return b.pubsub.Publish(sessionID, msg)
}

// Subscribe returns a bounded, ordered channel of decoded SessionEvents for
// sessionID. The channel is closed when ctx is cancelled or the bus closes.
func (b *Bus) Subscribe(ctx context.Context, sessionID string) (<-chan SessionEvent, error) {
	raw, err := b.pubsub.Subscribe(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("event: subscribe %s: %w", sessionID, err)
	}

	out := make(chan SessionEvent, SessionEventChannelCapacity)
	go func() {
		defer close(out)
		for msg := range raw {
			evt, err := decode(msg.Payload)
			msg.Ack()
			if err != nil {
				continue
			}
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close shuts the bus down; all subscriber channels are closed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

func decode(raw []byte) (SessionEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case "turn_start":
		var e TurnStart
		return e, json.Unmarshal(env.Payload, &e)
	case "text_delta":
		var e TextDelta
		return e, json.Unmarshal(env.Payload, &e)
	case "thinking_delta":
		var e ThinkingDelta
		return e, json.Unmarshal(env.Payload, &e)
	case "tool_start":
		var e ToolStart
		return e, json.Unmarshal(env.Payload, &e)
	case "tool_done":
		var e ToolDone
		return e, json.Unmarshal(env.Payload, &e)
	case "memory_recall":
		var e MemoryRecall
		return e, json.Unmarshal(env.Payload, &e)
	case "status":
		var e Status
		return e, json.Unmarshal(env.Payload, &e)
	case "turn_end":
		var e TurnEnd
		return e, json.Unmarshal(env.Payload, &e)
	case "error":
		var e Error
		return e, json.Unmarshal(env.Payload, &e)
	case "session_end":
		var e SessionEnd
		return e, json.Unmarshal(env.Payload, &e)
	default:
		return nil, fmt.Errorf("event: unknown type %q", env.Type)
	}
}
