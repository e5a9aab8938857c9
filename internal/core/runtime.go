package core

// Event is one entry in the delegation run log. Distinct from the agent's
// own NDJSON stream, which internal/stream owns.
type Event struct {
	RunID     string      `json:"run_id"`
	Level     string      `json:"level"`
	EventType string      `json:"event_type"`
	TaskID    int64       `json:"task_id,omitempty"`
	AgentID   string      `json:"agent_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

type EventLogger interface {
	Emit(event Event) error
}
