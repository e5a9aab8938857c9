package stream

import "encoding/json"

// Event type tags the agent emits that this system interprets. Anything
// else is carried through as-is.
const (
	TypeResult    = "result"
	TypeAssistant = "assistant"
)

// SubtypeErrorDuringExecution marks a result event where the agent crashed
// before producing a usable answer. It overrides the IsError flag during
// classification.
const SubtypeErrorDuringExecution = "error_during_execution"

// Event is one parsed line of the agent's NDJSON stream. Recognized fields
// are lifted into the struct; Raw keeps the full line for passthrough so
// timing/cost metadata survives the round trip untouched.
type Event struct {
	Type      string          `json:"type"`
	Subtype   string          `json:"subtype,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Result    string          `json:"result,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Message   *Message        `json:"message,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// Message is the nested payload of an assistant event. Used only as a
// fallback source of human-readable text when no result event exists.
type Message struct {
	Content []ContentBlock `json:"content"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Text returns the human-readable text an event carries: the final result
// text for result events, concatenated text blocks for assistant events,
// empty otherwise.
func (e Event) Text() string {
	switch e.Type {
	case TypeResult:
		return e.Result
	case TypeAssistant:
		if e.Message == nil {
			return ""
		}
		text := ""
		for _, block := range e.Message.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		return text
	default:
		return ""
	}
}
