package protocol

import "fmt"

// Envelope wraps a tool's raw output with an echo of the invocation, so the
// conversation history stays self-describing to the expert on later steps.
type Envelope struct {
	Tool    string
	Payload string
	Reason  string
	Output  string
}

// Render produces the text block appended to the history as a tool turn.
func (e Envelope) Render() string {
	return fmt.Sprintf("Using %s(%s) with reason '%s'.\nOutput:\n%s",
		e.Tool, e.Payload, e.Reason, e.Output)
}
