// Package eventlog appends delegation-run events to an NDJSON file, one
// object per line. This is the run's own journal, not the agent stream.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"delegate/internal/core"
)

type EventLog struct {
	mu  sync.Mutex
	enc *json.Encoder
	f   *os.File
}

func New(path string) (*EventLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	return &EventLog{enc: json.NewEncoder(f), f: f}, nil
}

func (l *EventLog) Emit(event core.Event) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.enc.Encode(struct {
		TS string `json:"ts"`
		core.Event
	}{
		TS:    time.Now().UTC().Format(time.RFC3339),
		Event: event,
	})
}

func (l *EventLog) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}
