package orchestrator

import "fmt"

// OutcomeKind enumerates the terminal states of a reasoning session.
type OutcomeKind int

const (
	// Concluded means the expert emitted a final_answer tool call.
	Concluded OutcomeKind = iota
	// RawFallback means the expert's reply was not a valid tool call and
	// the raw text was taken as the answer. A deliberate escape hatch.
	RawFallback
	// UnknownTool means the expert named a tool that does not exist.
	UnknownTool
	// StepsExhausted means the step budget ran out before a terminal tool
	// call. Not an error, a defined outcome.
	StepsExhausted
)

// String returns the kind's name for logs.
func (k OutcomeKind) String() string {
	switch k {
	case Concluded:
		return "concluded"
	case RawFallback:
		return "raw_fallback"
	case UnknownTool:
		return "unknown_tool"
	case StepsExhausted:
		return "steps_exhausted"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the terminal result of one session. Text carries the answer for
// Concluded, the raw reply for RawFallback, and the offending tool name for
// UnknownTool.
type Outcome struct {
	Kind OutcomeKind
	Text string
}

// Message renders the single line written to the primary output stream.
func (o Outcome) Message() string {
	switch o.Kind {
	case Concluded, RawFallback:
		return o.Text
	case UnknownTool:
		return fmt.Sprintf("The expert called an unknown tool: %s", o.Text)
	case StepsExhausted:
		return "The expert could not reach a consensus in the allowed number of steps."
	default:
		return o.Text
	}
}
