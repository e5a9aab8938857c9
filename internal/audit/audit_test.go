package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delegate/internal/stream"
)

func TestWriterScopesByAgent(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	parsed := stream.ParseText(`{"type":"result","result":"ok"}`)
	require.NoError(t, w.Events("planner", "agent-1", parsed.Events))
	require.NoError(t, w.FinalObject("planner", "agent-1", parsed.Events))
	require.NoError(t, w.Prompt("planner", "agent-1", "plan", "/plan x"))

	dir := filepath.Join(root, "planner", "agent-1")
	assert.FileExists(t, filepath.Join(dir, "events.json"))
	assert.FileExists(t, filepath.Join(dir, "final.json"))

	data, err := os.ReadFile(filepath.Join(dir, "plan.prompt.txt"))
	require.NoError(t, err)
	assert.Equal(t, "/plan x", string(data))
}

func TestWriterUnconfiguredRootErrors(t *testing.T) {
	var w *Writer
	assert.Error(t, w.Prompt("a", "b", "c", "text"))

	w = NewWriter("")
	assert.Error(t, w.Prompt("a", "b", "c", "text"))
}
