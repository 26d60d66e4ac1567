package session

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Turn roles as replayed to the inference backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn is a single conversation entry. The ordered sequence of turns is
// replayed verbatim to the expert model on every reasoning step.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session holds the mutable state of one reasoning run: the append-only
// conversation history, the accumulated tool outputs used as panel context,
// and the step counter. A session is owned by a single orchestrator loop and
// must never be mutated concurrently, so no locking is done here.
type Session struct {
	Key       string
	StartedAt time.Time

	history     []Turn
	toolOutputs []string
	stepIndex   int
	maxSteps    int
}

// New creates a session with a fresh key and an empty history.
func New(maxSteps int) (*Session, error) {
	if maxSteps <= 0 {
		return nil, fmt.Errorf("max steps must be positive, got %d", maxSteps)
	}

	key, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}

	return &Session{
		Key:       key,
		StartedAt: time.Now(),
		maxSteps:  maxSteps,
	}, nil
}

// Append adds a turn to the history. Entries are never removed or reordered.
func (s *Session) Append(role, content string) {
	s.history = append(s.history, Turn{Role: role, Content: content})
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of turns recorded.
func (s *Session) Len() int {
	return len(s.history)
}

// PushToolOutput records a rendered tool result for use as context in later
// panel consultations.
func (s *Session) PushToolOutput(output string) {
	s.toolOutputs = append(s.toolOutputs, output)
}

// ToolOutputs returns a copy of the accumulated tool outputs in order.
func (s *Session) ToolOutputs() []string {
	out := make([]string, len(s.toolOutputs))
	copy(out, s.toolOutputs)
	return out
}

// Step returns the zero-based index of the current reasoning step.
func (s *Session) Step() int {
	return s.stepIndex
}

// MaxSteps returns the step budget for this session.
func (s *Session) MaxSteps() int {
	return s.maxSteps
}

// Advance moves to the next reasoning step.
func (s *Session) Advance() {
	s.stepIndex++
}

// Exhausted reports whether the step budget has been used up.
func (s *Session) Exhausted() bool {
	return s.stepIndex >= s.maxSteps
}
