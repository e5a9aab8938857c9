package stream

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteArray mirrors the event sequence to path as a pretty-printed JSON
// array. Purely for downstream audit and debugging.
func WriteArray(path string, events []Event) error {
	raws := make([]json.RawMessage, 0, len(events))
	for _, event := range events {
		raws = append(raws, event.Raw)
	}
	data, err := json.MarshalIndent(raws, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal event array: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteFinalObject persists the last event of the sequence to path as a
// standalone pretty-printed object.
func WriteFinalObject(path string, events []Event) error {
	if len(events) == 0 {
		return fmt.Errorf("no events to persist")
	}
	var obj interface{}
	last := events[len(events)-1]
	if err := json.Unmarshal(last.Raw, &obj); err != nil {
		return fmt.Errorf("decode final event: %w", err)
	}
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal final event: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
