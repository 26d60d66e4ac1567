// Package panel fans a single question out to a fixed set of peer models and
// gathers their replies into one attributed text block. No voting or scoring
// happens here; the expert synthesizes the opinions on later steps.
package panel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"llamapanel/pkg/inference"
)

// Member is one panelist: a model, its sampling temperature, and the adapter
// handle used to reach it. Immutable after construction.
type Member struct {
	Model       string
	Temperature float64
	Client      inference.Client
}

// Coordinator owns the panel roster. Member order is preserved in the
// combined output for deterministic reporting.
type Coordinator struct {
	members []Member
	logger  zerolog.Logger
}

// NewCoordinator creates a coordinator over the given members.
func NewCoordinator(members []Member, logger zerolog.Logger) (*Coordinator, error) {
	for i, m := range members {
		if m.Client == nil {
			return nil, fmt.Errorf("panel member %d (%s) has no inference client", i, m.Model)
		}
	}
	roster := make([]Member, len(members))
	copy(roster, members)
	return &Coordinator{
		members: roster,
		logger:  logger.With().Str("component", "panel").Logger(),
	}, nil
}

// Members returns the roster in registration order.
func (c *Coordinator) Members() []Member {
	out := make([]Member, len(c.members))
	copy(out, c.members)
	return out
}

// BuildPrompt combines the question with the accumulated tool outputs. Every
// member receives this identical prompt.
func BuildPrompt(question string, contextOutputs []string) string {
	if len(contextOutputs) == 0 {
		return question
	}
	return question + "\n\nContext from previous tool outputs:\n" +
		strings.Join(contextOutputs, "\n\n")
}

// Consult sends the question to every member concurrently and joins all
// replies. A member's failure never cancels its siblings; it is rendered as
// an attributed error line in the member's section. The result always
// contains exactly one section per member, in registration order.
func (c *Coordinator) Consult(ctx context.Context, question string, contextOutputs []string) string {
	prompt := BuildPrompt(question, contextOutputs)
	c.logger.Info().Str("question", question).Int("members", len(c.members)).Msg("Consulting the panel")

	sections := make([]string, len(c.members))
	var wg sync.WaitGroup

	for i, member := range c.members {
		wg.Add(1)
		go func(idx int, m Member) {
			defer wg.Done()
			sections[idx] = c.queryMember(ctx, m, prompt)
		}(i, member)
	}

	wg.Wait()

	c.logger.Info().Msg("Panel consultation complete")
	return strings.Join(sections, "\n\n---\n\n")
}

// queryMember performs one panelist call and renders its section.
func (c *Coordinator) queryMember(ctx context.Context, m Member, prompt string) string {
	c.logger.Info().
		Str("model", m.Model).
		Float64("temperature", m.Temperature).
		Msg("Querying panelist")

	resp, err := m.Client.Chat(ctx, inference.ChatRequest{
		Model:       m.Model,
		Temperature: m.Temperature,
		Messages:    []inference.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		c.logger.Error().Err(err).Str("model", m.Model).Msg("Panelist query failed")
		return fmt.Sprintf("Error: could not get a response from model '%s': %v", m.Model, err)
	}

	return fmt.Sprintf("Response from '%s':\n%s", m.Model, resp.Content)
}
