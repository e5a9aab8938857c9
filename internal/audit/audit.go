// Package audit persists best-effort mirrors of agent invocations: the
// event stream as a JSON array, a snapshot of the final event, and the raw
// prompt text. None of these are load-bearing; failures must never alter an
// invocation's outcome, so callers discard the returned errors.
package audit

import (
	"fmt"
	"os"
	"path/filepath"

	"delegate/internal/stream"
)

// Writer scopes audit files by (agentName, agentID) directory.
type Writer struct {
	Root string
}

func NewWriter(root string) *Writer {
	return &Writer{Root: root}
}

func (w *Writer) Events(agentName, agentID string, events []stream.Event) error {
	dir, err := w.ensureDir(agentName, agentID)
	if err != nil {
		return err
	}
	return stream.WriteArray(filepath.Join(dir, "events.json"), events)
}

func (w *Writer) FinalObject(agentName, agentID string, events []stream.Event) error {
	dir, err := w.ensureDir(agentName, agentID)
	if err != nil {
		return err
	}
	return stream.WriteFinalObject(filepath.Join(dir, "final.json"), events)
}

func (w *Writer) Prompt(agentName, agentID, commandName, text string) error {
	dir, err := w.ensureDir(agentName, agentID)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s.prompt.txt", commandName)
	return os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644)
}

func (w *Writer) ensureDir(agentName, agentID string) (string, error) {
	if w == nil || w.Root == "" {
		return "", fmt.Errorf("audit root not configured")
	}
	dir := filepath.Join(w.Root, agentName, agentID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create audit dir: %w", err)
	}
	return dir, nil
}
