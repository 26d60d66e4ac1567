package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"llamapanel/pkg/protocol"
	"llamapanel/pkg/retrieval"
)

// noAnswerPlaceholder substitutes a missing or empty final answer. An empty
// answer is deliberately not a failure.
const noAnswerPlaceholder = "No answer provided."

// PanelConsultant is the dispatcher's view of the panel coordinator.
type PanelConsultant interface {
	Consult(ctx context.Context, question string, contextOutputs []string) string
}

// Searcher is the dispatcher's view of the web search adapter.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]retrieval.Result, error)
}

// PageFetcher is the dispatcher's view of the page fetch adapter.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Dispatcher routes parsed tool calls to their adapters. Adapter failures
// are rendered into the result text, never returned as errors: the
// orchestrator always receives a string for each tool invocation.
type Dispatcher struct {
	panel       PanelConsultant
	searcher    Searcher
	fetcher     PageFetcher
	resultCount int
	logger      zerolog.Logger
}

// DispatcherConfig wires the dispatcher's collaborators.
type DispatcherConfig struct {
	Panel       PanelConsultant
	Searcher    Searcher
	Fetcher     PageFetcher
	ResultCount int
	Logger      zerolog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Panel == nil {
		return nil, fmt.Errorf("panel consultant is required")
	}
	if cfg.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	resultCount := cfg.ResultCount
	if resultCount <= 0 {
		resultCount = 20
	}
	return &Dispatcher{
		panel:       cfg.Panel,
		searcher:    cfg.Searcher,
		fetcher:     cfg.Fetcher,
		resultCount: resultCount,
		logger:      cfg.Logger.With().Str("component", "dispatcher").Logger(),
	}, nil
}

// Dispatch executes one tool call. For final_answer it returns the answer
// text with done=true; for every other call it returns the rendered result
// envelope with done=false. toolContext is the session's accumulated tool
// output, passed to the panel as extra context.
func (d *Dispatcher) Dispatch(ctx context.Context, call protocol.Call, toolContext []string) (string, bool) {
	switch c := call.(type) {
	case protocol.FinalAnswerCall:
		answer := c.Answer
		if strings.TrimSpace(answer) == "" {
			answer = noAnswerPlaceholder
		}
		return answer, true

	case protocol.PanelCall:
		output := d.panel.Consult(ctx, c.Question, toolContext)
		return d.envelope(c, c.Question, output), false

	case protocol.SearchCall:
		var output string
		results, err := d.searcher.Search(ctx, c.Query, d.resultCount)
		if err != nil {
			d.logger.Error().Err(err).Str("query", c.Query).Msg("Web search failed")
			output = fmt.Sprintf("An error occurred during the web search: %v", err)
		} else {
			output = retrieval.FormatResults(c.Query, results)
		}
		return d.envelope(c, c.Query, output), false

	case protocol.ReadPageCall:
		output, err := d.fetcher.Fetch(ctx, c.URL)
		if err != nil {
			d.logger.Error().Err(err).Str("url", c.URL).Msg("Page fetch failed")
			output = fmt.Sprintf("Error fetching URL %s: %v", c.URL, err)
		}
		return d.envelope(c, c.URL, output), false

	default:
		// Unreachable while protocol.Parse rejects unknown tools; kept so
		// a new Call variant cannot silently produce an empty result.
		d.logger.Error().Str("tool", call.Tool()).Msg("No route for tool call")
		return d.envelope(call, "", fmt.Sprintf("no route for tool %q", call.Tool())), false
	}
}

func (d *Dispatcher) envelope(call protocol.Call, payload, output string) string {
	return protocol.Envelope{
		Tool:    call.Tool(),
		Payload: payload,
		Reason:  call.Reason(),
		Output:  output,
	}.Render()
}
