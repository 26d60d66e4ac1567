// Package orchestrator runs the expert's step-bounded reasoning loop: ask the
// model for a tool call, dispatch it, fold the result back into the
// conversation, repeat until a terminal state.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"llamapanel/pkg/inference"
	"llamapanel/pkg/protocol"
	"llamapanel/pkg/session"
)

// ToolDispatcher executes one parsed call and reports whether it terminated
// the session.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, call protocol.Call, toolContext []string) (result string, done bool)
}

// Config controls one orchestrator instance. Output is the primary stream
// for the single final message; all narration goes to the logger.
type Config struct {
	ExpertModel       string
	ExpertTemperature float64
	MaxSteps          int
	Thinking          bool
	Verbose           bool
	WriteTranscript   bool
	TranscriptDir     string
	Output            io.Writer
	Logger            zerolog.Logger
}

// Orchestrator owns the reasoning loop for sequential sessions. Each call to
// Run creates an independent session; no state is shared between runs.
type Orchestrator struct {
	expert     inference.Client
	dispatcher ToolDispatcher
	cfg        Config
	output     io.Writer
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates an orchestrator.
func New(expert inference.Client, dispatcher ToolDispatcher, cfg Config) (*Orchestrator, error) {
	if expert == nil {
		return nil, fmt.Errorf("expert inference client is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("tool dispatcher is required")
	}
	if cfg.ExpertModel == "" {
		return nil, fmt.Errorf("expert model cannot be empty")
	}
	if cfg.ExpertTemperature < 0 || cfg.ExpertTemperature > 1 {
		return nil, fmt.Errorf("expert temperature must be between 0 and 1")
	}
	if cfg.MaxSteps <= 0 {
		return nil, fmt.Errorf("max steps must be positive")
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	return &Orchestrator{
		expert:     expert,
		dispatcher: dispatcher,
		cfg:        cfg,
		output:     output,
		logger:     cfg.Logger.With().Str("component", "orchestrator").Logger(),
		now:        time.Now,
	}, nil
}

// Run processes one user query to a terminal outcome. The returned error is
// only non-nil for expert-side transport failures; protocol violations and
// step exhaustion are expressed as outcomes, not errors.
func (o *Orchestrator) Run(ctx context.Context, userPrompt string) (Outcome, error) {
	sess, err := session.New(o.cfg.MaxSteps)
	if err != nil {
		return Outcome{}, err
	}
	logger := o.logger.With().Str("session_key", sess.Key).Logger()

	sess.Append(session.RoleSystem, o.buildSystemPrompt())
	sess.Append(session.RoleUser, userPrompt)

	for !sess.Exhausted() {
		logger.Info().
			Int("step", sess.Step()+1).
			Int("max_steps", sess.MaxSteps()).
			Msg("Expert reasoning step")

		resp, err := o.expert.Chat(ctx, inference.ChatRequest{
			Model:       o.cfg.ExpertModel,
			Temperature: o.cfg.ExpertTemperature,
			Messages:    toMessages(sess.History()),
			JSONFormat:  true,
			Thinking:    o.cfg.Thinking,
		})
		if err != nil {
			return Outcome{}, fmt.Errorf("expert call failed: %w", err)
		}

		if o.cfg.Verbose && resp.Thinking != "" {
			logger.Info().Str("thinking", resp.Thinking).Msg("Expert thinking")
		}

		sess.Append(session.RoleAssistant, resp.Content)

		call, perr := protocol.Parse(resp.Content)
		if perr != nil {
			var unknown *protocol.UnknownToolError
			if errors.As(perr, &unknown) {
				logger.Error().Str("tool", unknown.Name).Msg("Expert called an unknown tool")
				return o.finish(logger, sess, Outcome{Kind: UnknownTool, Text: unknown.Name}), nil
			}
			logger.Warn().Err(perr).Msg("Expert reply is not a valid tool call, treating it as the final answer")
			return o.finish(logger, sess, Outcome{Kind: RawFallback, Text: resp.Content}), nil
		}

		logger.Info().
			Str("tool", call.Tool()).
			Str("reason", call.Reason()).
			Msg("Expert selected a tool")

		result, done := o.dispatcher.Dispatch(ctx, call, sess.ToolOutputs())
		if done {
			return o.finish(logger, sess, Outcome{Kind: Concluded, Text: result}), nil
		}

		sess.Append(session.RoleTool, result)
		sess.PushToolOutput(result)
		sess.Advance()
	}

	logger.Warn().Int("max_steps", sess.MaxSteps()).Msg("Step budget exhausted without a final answer")
	return o.finish(logger, sess, Outcome{Kind: StepsExhausted}), nil
}

// finish prints the single terminal message and, for concluded sessions,
// persists the transcript when requested. A transcript write failure is
// reported but never withholds the already-produced answer.
func (o *Orchestrator) finish(logger zerolog.Logger, sess *session.Session, outcome Outcome) Outcome {
	fmt.Fprintln(o.output, outcome.Message())
	logger.Info().Str("outcome", outcome.Kind.String()).Msg("Session finished")

	if outcome.Kind == Concluded && o.cfg.WriteTranscript {
		path, err := session.WriteTranscript(o.cfg.TranscriptDir, sess)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to write transcript")
		} else {
			logger.Info().Str("path", path).Msg("Conversation history written")
		}
	}

	return outcome
}

func (o *Orchestrator) buildSystemPrompt() string {
	return fmt.Sprintf(
		"%s\nYou only have %d steps to reach a final answer. If you cannot reach a consensus in %d steps, return your best answer to that point.\n\nCurrent date: %s",
		expertSystemPrompt,
		o.cfg.MaxSteps,
		o.cfg.MaxSteps,
		o.now().Format("2006-01-02"),
	)
}

func toMessages(turns []session.Turn) []inference.Message {
	messages := make([]inference.Message, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, inference.Message{Role: t.Role, Content: t.Content})
	}
	return messages
}
