// Package executor owns the invocation request/response contract: it
// builds the wrapper's positional arguments, waits for exit, parses the
// event stream, and classifies the outcome into the closed result-code
// set. Expected failure modes classify; they never surface as errors.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"delegate/internal/audit"
	"delegate/internal/bridge"
	"delegate/internal/core"
	"delegate/internal/logging"
	"delegate/internal/stream"
)

const (
	// Failure text from a clean agent exit is cut at this length. Success
	// text is never truncated here.
	failureTextLimit = 1000
	// Agent-error text (nonzero exit) is cut harder.
	agentErrorTextLimit = 800
)

const timeoutMessage = "Agent invocation timed out after 5 minutes"

type Executor struct {
	Spawner Spawner
	Audit   *audit.Writer
	Logger  logging.Logger

	// SettingsPath is the wrapper's optional secondary-config argument,
	// passed as the empty string when unused.
	SettingsPath string
}

func New(spawner Spawner, auditWriter *audit.Writer, logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Executor{Spawner: spawner, Audit: auditWriter, Logger: logger}
}

// Invoke runs one agent attempt and classifies the outcome. It does not
// retry; see internal/retry for the bounded-backoff wrapper.
func (e *Executor) Invoke(ctx context.Context, req core.InvocationRequest) core.InvocationResponse {
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return invocationError(fmt.Errorf("create output dir: %w", err))
	}

	res, err := e.Spawner.Spawn(ctx, SpawnRequest{Args: wrapperArgs(req, e.SettingsPath)})
	if err != nil {
		return invocationError(fmt.Errorf("spawn agent bridge: %w", err))
	}

	// Even failed and timed-out runs may have partial useful output.
	parsed := stream.ParseFile(req.OutputPath)
	e.mirror(req, parsed)

	return e.classify(req, res, parsed)
}

func (e *Executor) classify(req core.InvocationRequest, res SpawnResult, parsed stream.ParseResult) core.InvocationResponse {
	sessionID := ""
	if parsed.ResultEvent != nil {
		sessionID = parsed.ResultEvent.SessionID
	}

	switch {
	case res.ExitCode == bridge.ExitTimeout:
		e.Logger.Warn("agent timed out", "agent_id", req.AgentID)
		return core.InvocationResponse{
			Output:     timeoutMessage,
			Success:    false,
			SessionID:  sessionID,
			ResultCode: core.CodeTimeoutError,
		}

	case res.ExitCode == bridge.ExitOK && parsed.ResultEvent != nil:
		return e.classifyResult(req, *parsed.ResultEvent)

	default:
		output := strings.TrimSpace(res.Stderr)
		if output == "" && parsed.ResultEvent != nil && parsed.ResultEvent.IsError {
			output = "Agent error: " + parsed.ResultEvent.Result
		}
		if output == "" {
			if res.ExitCode == bridge.ExitOK {
				output = "agent produced no result event"
			} else {
				output = fmt.Sprintf("agent failed with exit code %d", res.ExitCode)
			}
		}
		e.Logger.Warn("agent invocation failed",
			"agent_id", req.AgentID, "exit_code", res.ExitCode)
		return core.InvocationResponse{
			Output:     Truncate(output, agentErrorTextLimit),
			Success:    false,
			SessionID:  sessionID,
			ResultCode: core.CodeAgentError,
		}
	}
}

func (e *Executor) classifyResult(req core.InvocationRequest, ev stream.Event) core.InvocationResponse {
	// This subtype signals the agent crashed before producing a usable
	// answer. It overrides the is_error flag: an intentional special case,
	// not a general rule.
	if ev.Subtype == stream.SubtypeErrorDuringExecution {
		output := ev.Result
		if output == "" {
			output = "Agent reported an error during execution"
		}
		e.Logger.Warn("agent errored during execution", "agent_id", req.AgentID)
		return core.InvocationResponse{
			Output:     Truncate(output, failureTextLimit),
			Success:    false,
			SessionID:  ev.SessionID,
			ResultCode: core.CodeErrorDuringExecution,
		}
	}

	output := ev.Result
	if ev.IsError && len(output) > failureTextLimit {
		output = Truncate(output, failureTextLimit)
	}
	return core.InvocationResponse{
		Output:     output,
		Success:    !ev.IsError,
		SessionID:  ev.SessionID,
		ResultCode: core.CodeNone,
	}
}

// mirror runs the audit-conversion helpers. Best-effort: their failure
// never alters classification.
func (e *Executor) mirror(req core.InvocationRequest, parsed stream.ParseResult) {
	if e.Audit == nil || len(parsed.Events) == 0 {
		return
	}
	if err := e.Audit.Events(req.AgentName, req.AgentID, parsed.Events); err != nil {
		e.Logger.Debug("audit event mirror failed", "error", err)
	}
	if err := e.Audit.FinalObject(req.AgentName, req.AgentID, parsed.Events); err != nil {
		e.Logger.Debug("audit final object failed", "error", err)
	}
}

// wrapperArgs builds the six positional arguments of the process wrapper
// contract, in order.
func wrapperArgs(req core.InvocationRequest, settingsPath string) []string {
	model := req.Model
	if model == "" {
		model = core.ModelSonnet
	}
	workingDir := req.WorkingDirectory
	if workingDir == "" {
		workingDir = "."
	}
	return []string{
		req.Prompt,
		string(model),
		req.OutputPath,
		workingDir,
		settingsPath,
		strconv.FormatBool(req.SkipPermissions),
	}
}

func invocationError(err error) core.InvocationResponse {
	return core.InvocationResponse{
		Output:     err.Error(),
		Success:    false,
		ResultCode: core.CodeInvocationError,
	}
}
