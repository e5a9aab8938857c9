package stream

import (
	"encoding/json"
	"os"
	"strings"
)

// ParseResult holds the ordered event sequence from one NDJSON stream and
// the terminal result event, if any.
type ParseResult struct {
	Events      []Event
	ResultEvent *Event
}

// ParseFile reads the NDJSON stream at path. A missing or unreadable file
// is not an error: it is evidence the subprocess never produced output, so
// the result is simply empty.
func ParseFile(path string) ParseResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParseResult{}
	}
	return ParseText(string(data))
}

// ParseText splits text on newlines and parses each non-blank line as one
// JSON event. Malformed lines are skipped: partial output is common after a
// timeout or crash and must not abort the whole parse.
func ParseText(text string) ParseResult {
	var events []Event
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var event Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}
		event.Raw = json.RawMessage(line)
		events = append(events, event)
	}
	return ParseResult{
		Events:      events,
		ResultEvent: lastResult(events),
	}
}

// lastResult scans from the end for the last occurring result event. A
// well-formed stream has at most one, but trailing noise and duplicates
// happen in practice.
func lastResult(events []Event) *Event {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == TypeResult {
			return &events[i]
		}
	}
	return nil
}
