package protocol

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/xeipuuv/gojsonschema"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Tool names the expert may invoke.
const (
	ToolPanel       = "llama_panel"
	ToolSearchWeb   = "search_web"
	ToolReadWebpage = "read_webpage"
	ToolFinalAnswer = "final_answer"
)

// callSchema validates the shape of an expert reply before it is decoded.
// The tool name itself is checked afterwards so an unrecognized tool can be
// reported by name instead of as a generic schema failure.
const callSchema = `{
	"type": "object",
	"required": ["tool"],
	"properties": {
		"tool": {"type": "string"},
		"question": {"type": "string"},
		"query": {"type": "string"},
		"url": {"type": "string"},
		"answer": {"type": "string"},
		"reason": {"type": "string"}
	}
}`

var compiledCallSchema = mustCompileSchema(callSchema)

func mustCompileSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid tool call schema: %v", err))
	}
	return schema
}

// Call is a parsed tool directive from the expert. It is a closed set: one
// variant per tool, routed through an exhaustive type switch in the
// dispatcher.
type Call interface {
	// Tool returns the wire name of the invoked tool.
	Tool() string
	// Reason returns the expert's stated motivation. Informational only.
	Reason() string

	isCall()
}

// PanelCall asks the peer panel a question.
type PanelCall struct {
	Question string
	Why      string
}

func (PanelCall) isCall()          {}
func (PanelCall) Tool() string     { return ToolPanel }
func (c PanelCall) Reason() string { return c.Why }

// SearchCall runs a web search.
type SearchCall struct {
	Query string
	Why   string
}

func (SearchCall) isCall()          {}
func (SearchCall) Tool() string     { return ToolSearchWeb }
func (c SearchCall) Reason() string { return c.Why }

// ReadPageCall fetches and extracts a web page.
type ReadPageCall struct {
	URL string
	Why string
}

func (ReadPageCall) isCall()          {}
func (ReadPageCall) Tool() string     { return ToolReadWebpage }
func (c ReadPageCall) Reason() string { return c.Why }

// FinalAnswerCall terminates the session with the given answer.
type FinalAnswerCall struct {
	Answer string
	Why    string
}

func (FinalAnswerCall) isCall()          {}
func (FinalAnswerCall) Tool() string     { return ToolFinalAnswer }
func (c FinalAnswerCall) Reason() string { return c.Why }

// MalformedReplyError reports a reply that is not valid structured text.
// The orchestrator falls back to treating the raw reply as the final answer.
type MalformedReplyError struct {
	Detail string
}

func (e *MalformedReplyError) Error() string {
	return fmt.Sprintf("reply is not a valid tool call: %s", e.Detail)
}

// UnknownToolError reports a well-formed call naming a tool that does not
// exist. This is terminal for the session.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %q", e.Name)
}

type rawCall struct {
	Tool     string `json:"tool"`
	Question string `json:"question"`
	Query    string `json:"query"`
	URL      string `json:"url"`
	Answer   string `json:"answer"`
	Reason   string `json:"reason"`
}

// Parse validates and decodes an expert reply into a Call. It returns
// *MalformedReplyError when the reply is not a schema-valid JSON object and
// *UnknownToolError when the tool name is not recognized. Missing payload
// fields are passed through empty; the dispatcher and adapters decide how to
// treat them.
func Parse(reply string) (Call, error) {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return nil, &MalformedReplyError{Detail: "empty reply"}
	}

	result, err := compiledCallSchema.Validate(gojsonschema.NewStringLoader(trimmed))
	if err != nil {
		return nil, &MalformedReplyError{Detail: err.Error()}
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			details = append(details, verr.String())
		}
		return nil, &MalformedReplyError{Detail: strings.Join(details, "; ")}
	}

	var raw rawCall
	if err := json.UnmarshalFromString(trimmed, &raw); err != nil {
		return nil, &MalformedReplyError{Detail: err.Error()}
	}

	switch raw.Tool {
	case ToolPanel:
		return PanelCall{Question: raw.Question, Why: raw.Reason}, nil
	case ToolSearchWeb:
		return SearchCall{Query: raw.Query, Why: raw.Reason}, nil
	case ToolReadWebpage:
		return ReadPageCall{URL: raw.URL, Why: raw.Reason}, nil
	case ToolFinalAnswer:
		return FinalAnswerCall{Answer: raw.Answer, Why: raw.Reason}, nil
	default:
		return nil, &UnknownToolError{Name: raw.Tool}
	}
}
