package executor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 500))
	assert.Equal(t, "", Truncate("", 500))
}

func TestTruncateLongPlainText(t *testing.T) {
	text := strings.Repeat("word ", 400) // 2000 chars
	out := Truncate(text, 500)

	assert.LessOrEqual(t, len(out), 500+len(TruncationSuffix))
	assert.True(t, strings.HasSuffix(out, TruncationSuffix))
	// The cut lands on a word boundary within the lookback window.
	body := strings.TrimSuffix(out, TruncationSuffix)
	assert.False(t, strings.HasSuffix(body, " "))
	assert.True(t, strings.HasSuffix(body, "word"))
}

func TestTruncatePrefersNewlineBoundary(t *testing.T) {
	text := strings.Repeat("x", 480) + "\n" + strings.Repeat("y", 600)
	out := Truncate(text, 500)

	body := strings.TrimSuffix(out, TruncationSuffix)
	assert.Equal(t, strings.Repeat("x", 480), body)
}

func TestTruncateNoBoundaryCutsAtLimit(t *testing.T) {
	text := strings.Repeat("z", 800)
	out := Truncate(text, 500)

	assert.Equal(t, strings.Repeat("z", 500)+TruncationSuffix, out)
}

func TestTruncateExtractsFromEventStream(t *testing.T) {
	text := `{"type":"system","subtype":"init"}` + "\n" +
		`{"type":"assistant","message":{"content":[{"type":"text","text":"intermediate"}]}}` + "\n" +
		`{"type":"result","result":"` + strings.Repeat("a", 600) + `"}`

	out := Truncate(text, 100)
	assert.True(t, strings.HasSuffix(out, TruncationSuffix))
	assert.True(t, strings.HasPrefix(out, "aaa"))
	assert.LessOrEqual(t, len(out), 100+len(TruncationSuffix))
}

func TestTruncateEventStreamWithoutText(t *testing.T) {
	text := `{"type":"system"}` + "\n" + `{"type":"tool_use"}`

	out := Truncate(text, 100)
	assert.Contains(t, out, "2 events")
}

func TestTruncateIdempotentOnShortExtraction(t *testing.T) {
	text := `{"type":"result","result":"tiny"}` + "\n" + `{"type":"system"}`
	out := Truncate(text, 100)
	assert.Equal(t, "tiny", out)
}
