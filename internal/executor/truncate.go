package executor

import (
	"fmt"
	"strings"

	"delegate/internal/stream"
)

// TruncationSuffix marks every cut so operators know text was shortened.
const TruncationSuffix = "... (truncated)"

const (
	newlineLookback = 50
	spaceLookback   = 20
)

// Truncate cuts text to at most limit characters plus the truncation
// suffix, preferring a newline or space boundary near the cut point.
//
// If text looks like a raw unparsed event stream was handed in instead of
// extracted text, it is not cut blindly: the last result or assistant
// event's human-readable text is extracted and truncated instead.
func Truncate(text string, limit int) string {
	if looksLikeEventStream(text) {
		parsed := stream.ParseText(text)
		if extracted, ok := extractText(parsed.Events); ok {
			return truncatePlain(extracted, limit)
		}
		return fmt.Sprintf("[agent stream with %d events, no extractable text]", len(parsed.Events))
	}
	return truncatePlain(text, limit)
}

func truncatePlain(text string, limit int) string {
	if len(text) <= limit {
		return text
	}

	cut := limit
	if i := strings.LastIndexByte(text[boundLow(limit, newlineLookback):limit], '\n'); i >= 0 {
		cut = boundLow(limit, newlineLookback) + i
	} else if i := strings.LastIndexByte(text[boundLow(limit, spaceLookback):limit], ' '); i >= 0 {
		cut = boundLow(limit, spaceLookback) + i
	}

	return strings.TrimRight(text[:cut], " \n") + TruncationSuffix
}

func looksLikeEventStream(text string) bool {
	return strings.HasPrefix(text, `{"type":`) && strings.Contains(text, "\n{\"type\":")
}

// extractText scans the event sequence from the end for the last event
// carrying human-readable text.
func extractText(events []stream.Event) (string, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if t := events[i].Text(); t != "" {
			return t, true
		}
	}
	return "", false
}

func boundLow(limit, lookback int) int {
	low := limit - lookback
	if low < 0 {
		return 0
	}
	return low
}
