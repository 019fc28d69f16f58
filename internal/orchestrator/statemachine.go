package orchestrator

// TurnState is one state in the per-turn state machine: Idle, Recalling,
// Streaming, ToolExecuting, Closed, Cancelled, Failed.
type TurnState string

const (
	StateIdle          TurnState = "idle"
	StateRecalling     TurnState = "recalling"
	StateStreaming     TurnState = "streaming"
	StateToolExecuting TurnState = "tool_executing"
	StateClosed        TurnState = "closed"
	StateCancelled     TurnState = "cancelled"
	StateFailed        TurnState = "failed"
)

// turnStateMachine tracks the current state of one turn and rejects
// transitions the spec's table does not allow, catching orchestrator bugs
// rather than the user's input.
type turnStateMachine struct {
	state TurnState
}

func newTurnStateMachine() *turnStateMachine {
	return &turnStateMachine{state: StateIdle}
}

// allowed maps each state to the set of states it may transition to.
// Cancellation is reachable from every non-terminal state, per spec.md
// §4.5.8 ("any state → Cancelled on cancellation signal").
var allowed = map[TurnState]map[TurnState]bool{
	StateIdle:          {StateRecalling: true, StateCancelled: true},
	StateRecalling:     {StateStreaming: true, StateCancelled: true, StateFailed: true},
	StateStreaming:     {StateToolExecuting: true, StateClosed: true, StateCancelled: true, StateFailed: true},
	StateToolExecuting: {StateStreaming: true, StateFailed: true, StateCancelled: true},
}

// transitionError reports an attempted transition the state table forbids.
type transitionError struct {
	from, to TurnState
}

func (e *transitionError) Error() string {
	return "illegal turn transition: " + string(e.from) + " -> " + string(e.to)
}

// to attempts a transition, returning a transitionError if it is not in the
// state table. Terminal states (Closed, Cancelled, Failed) accept no
// further transitions.
func (m *turnStateMachine) to(next TurnState) error {
	if m.state == StateClosed || m.state == StateCancelled || m.state == StateFailed {
		return &transitionError{from: m.state, to: next}
	}
	if !allowed[m.state][next] {
		return &transitionError{from: m.state, to: next}
	}
	m.state = next
	return nil
}

func (m *turnStateMachine) current() TurnState { return m.state }
