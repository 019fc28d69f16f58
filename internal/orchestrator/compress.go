package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/locuscode/locus/internal/event"
	"github.com/locuscode/locus/internal/memory"
	"github.com/locuscode/locus/internal/session"
	"github.com/locuscode/locus/pkg/types"
)

// compressionThreshold is the fraction of the mode's input-token budget
// that triggers compaction, per spec.md §4.5.3/§8.
const compressionThreshold = 0.85

// keepLastTurns is how many trailing turns survive compression verbatim.
const keepLastTurns = 3

// shouldCompress reports whether s's estimated token usage has reached
// compressionThreshold of its mode's input budget.
func shouldCompress(s *session.Session) bool {
	limit := s.Config().Limits.MaxInputTokens
	if limit <= 0 {
		return false
	}
	return float64(s.EstimateTokens())/float64(limit) >= compressionThreshold
}

// maybeCompress runs context compression when shouldCompress reports true.
// Failure is logged and swallowed: the inner loop proceeds uncompressed and
// may surface a ContextOverflow from the provider instead.
func maybeCompress(ctx context.Context, s *session.Session, mem *memory.Client, bus *event.Bus) {
	if !shouldCompress(s) {
		return
	}

	_ = bus.Publish(s.ID(), event.Status{SessionID: s.ID(), Message: "Context near limit, compressing..."})

	prompt := concatenateTurns(s.Turns())
	insight, err := mem.GenerateInsights(ctx, prompt, 20)
	if err != nil {
		log.Warn().Err(err).Str("session", s.ID()).Msg("context compression failed, proceeding uncompressed")
		return
	}

	s.Compress(insight.Insight, keepLastTurns)
	_ = bus.Publish(s.ID(), event.Status{
		SessionID: s.ID(),
		Message:   fmt.Sprintf("Context compressed. %d turns remaining.", s.TurnCount()),
	})
}

// concatenateTurns renders every turn's text content for the summarizer
// prompt, in turn order.
func concatenateTurns(turns []*types.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		for _, block := range t.Blocks {
			switch v := block.(type) {
			case *types.TextBlock:
				b.WriteString(string(t.Role))
				b.WriteString(": ")
				b.WriteString(v.Text)
				b.WriteString("\n")
			case *types.ThinkingBlock:
				b.WriteString(v.Text)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
