package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

const (
	TaskStatusReady      = "ready"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
	TaskStatusFailed     = "failed"
)

// Model selects the agent's reasoning tier.
type Model string

const (
	ModelSonnet Model = "sonnet"
	ModelOpus   Model = "opus"
)

func (m Model) Valid() bool {
	return m == ModelSonnet || m == ModelOpus
}

// ResultCode classifies why an invocation failed. CodeNone always pairs
// with Success = true; every other value implies Success = false.
type ResultCode string

const (
	CodeNone                 ResultCode = "none"
	CodeAgentError           ResultCode = "agentError"
	CodeTimeoutError         ResultCode = "timeoutError"
	CodeInvocationError      ResultCode = "invocationError"
	CodeErrorDuringExecution ResultCode = "errorDuringExecution"
)

// InvocationRequest describes one agent call. Constructed per attempt,
// consumed once. OutputPath must be unique per in-flight invocation.
type InvocationRequest struct {
	Prompt           string
	AgentID          string
	AgentName        string
	Model            Model
	SkipPermissions  bool
	OutputPath       string
	WorkingDirectory string
}

// Validate rejects malformed requests before any retry budget is spent.
// These are programmer errors in the caller, not transient conditions, so
// they surface as plain errors rather than a result code.
func (r InvocationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New("invocation request: prompt must not be empty")
	}
	if r.AgentID == "" {
		return errors.New("invocation request: agent id required")
	}
	if r.OutputPath == "" {
		return errors.New("invocation request: output path required")
	}
	if r.Model != "" && !r.Model.Valid() {
		return fmt.Errorf("invocation request: unknown model %q", r.Model)
	}
	return nil
}

// InvocationResponse is the result of one invocation (post any retries for
// the caller-facing variant). SessionID is present only if the event stream
// yielded one.
type InvocationResponse struct {
	Output     string
	Success    bool
	SessionID  string
	ResultCode ResultCode
}

type RunRecord struct {
	RunID     string
	Tracker   string
	StartedAt time.Time
	Status    string
	Config    string
}

type TaskRecord struct {
	ID          int64
	RunID       string
	ExternalID  string
	Title       string
	Description string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AttemptRecord captures one subprocess launch of the agent for one task
// phase, including the classification the executor produced.
type AttemptRecord struct {
	ID         int64
	TaskID     int64
	AgentID    string
	AttemptNo  int
	Phase      string
	Status     string
	ResultCode string
	SessionID  string
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time
	Excerpt    string
}

type RunSummary struct {
	RunID    string
	Status   string
	Tasks    int
	Attempts int
	Started  time.Time
	Finished time.Time
}

type Summary struct {
	Tasks     int `json:"tasks"`
	Delegated int `json:"delegated"`
	Failed    int `json:"failed"`
}

func (s *Summary) Add(delegated bool) {
	s.Tasks++
	if delegated {
		s.Delegated++
	} else {
		s.Failed++
	}
}

func (s Summary) String() string {
	out, _ := json.Marshal(s)
	return string(out)
}
