package session

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/locuscode/locus/pkg/types"
)

// Session wraps types.Session with the mutation operations the orchestrator
// uses to drive one conversation. It is not safe for concurrent use; the
// orchestrator is its sole owner and mutator.
type Session struct {
	data *types.Session
}

// New creates a fresh session rooted at repoRoot with the given
// configuration snapshot captured for the lifetime of the session.
func New(repoRoot string, cfg types.ConfigSnapshot) *Session {
	now := time.Now().Unix()
	return &Session{
		data: &types.Session{
			ID:       ulid.Make().String(),
			RepoRoot: repoRoot,
			Config:   cfg,
			Turns:    nil,
			Time:     types.SessionTime{Created: now, Updated: now},
		},
	}
}

// NewSubagent creates a session for a sub-agent spawned via the task
// meta-tool: a fresh session identity, an empty turn history, and the
// parent's configuration snapshot inherited verbatim.
func NewSubagent(parent *Session) *Session {
	s := New(parent.data.RepoRoot, parent.data.Config)
	s.data.ParentID = parent.data.ID
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.data.ID }

// RepoRoot returns the working-copy root this session operates against.
func (s *Session) RepoRoot() string { return s.data.RepoRoot }

// Config returns the immutable configuration snapshot for this session.
func (s *Session) Config() types.ConfigSnapshot { return s.data.Config }

// SetMode updates the session's mode and limits, effective for the next LLM
// call only; a call already in flight keeps its limits.
func (s *Session) SetMode(mode types.Mode) {
	s.data.Config.Mode = mode
	s.data.Config.Limits = types.LimitsFor(mode)
	s.touch()
}

// AddTurn appends a new closed-or-open turn to the session and returns it.
func (s *Session) AddTurn(role types.Role) *types.Turn {
	t := &types.Turn{Role: role, Timestamp: time.Now().Unix()}
	s.data.Turns = append(s.data.Turns, t)
	s.data.Seq++
	s.touch()
	return t
}

// CurrentTurnMut returns the most recently added turn if it is still open,
// so the orchestrator can keep appending blocks to it. Returns nil when
// there are no turns or the last one is closed.
func (s *Session) CurrentTurnMut() *types.Turn {
	if len(s.data.Turns) == 0 {
		return nil
	}
	last := s.data.Turns[len(s.data.Turns)-1]
	if last.Closed() {
		return nil
	}
	return last
}

// TurnCount returns the number of turns recorded so far.
func (s *Session) TurnCount() int { return len(s.data.Turns) }

// Turns returns the full turn history. Callers must not mutate the slice.
func (s *Session) Turns() []*types.Turn { return s.data.Turns }

// Seq returns the monotonically increasing turn sequence number, used by
// the orchestrator's state machine to detect stale transitions.
func (s *Session) Seq() uint64 { return s.data.Seq }

// EstimateTokens is the character-count heuristic used only to decide when
// to compress context; provider-reported usage is authoritative elsewhere.
func (s *Session) EstimateTokens() int { return types.EstimateTokens(s.data) }

// RecordUsage folds a turn's provider-reported usage into the session's
// aggregate counters.
func (s *Session) RecordUsage(u types.TokenUsage) { s.data.Usage.Add(u) }

// Usage returns the aggregate token counters recorded so far.
func (s *Session) Usage() types.AggregateUsage { return s.data.Usage }

// Compress replaces every turn before the last keepLast turns with a single
// system-role turn containing summary. It is the only operation permitted to
// rewrite turn history, and is invoked solely by the orchestrator's context
// compression step.
func (s *Session) Compress(summary string, keepLast int) {
	if len(s.data.Turns) <= keepLast {
		return
	}
	tail := s.data.Turns[len(s.data.Turns)-keepLast:]
	summaryTurn := &types.Turn{
		Role:      types.RoleSystem,
		Timestamp: time.Now().Unix(),
	}
	summaryTurn.AppendBlock(&types.TextBlock{Text: summary})
	summaryTurn.Close()

	merged := make([]*types.Turn, 0, keepLast+1)
	merged = append(merged, summaryTurn)
	merged = append(merged, tail...)
	s.data.Turns = merged
	s.touch()
}

func (s *Session) touch() { s.data.Time.Updated = time.Now().Unix() }
