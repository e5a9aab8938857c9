// Package delegate is the caller-facing surface: a raw-prompt invocation
// without retry, and a template invocation that builds the slash-command
// prompt, persists its audit copy, and invokes with the bounded retry
// budget.
package delegate

import (
	"context"
	"time"

	"delegate/internal/audit"
	"delegate/internal/core"
	"delegate/internal/executor"
	"delegate/internal/logging"
	"delegate/internal/prompt"
	"delegate/internal/retry"
	"delegate/internal/store"
)

// Invoker is one single-attempt invocation; *executor.Executor satisfies
// it, tests substitute canned responses.
type Invoker interface {
	Invoke(ctx context.Context, req core.InvocationRequest) core.InvocationResponse
}

type Client struct {
	Invoker Invoker
	IDs     core.IDGenerator
	Audit   *audit.Writer
	Store   *store.SQLiteStore
	Logger  logging.Logger

	DefaultModel core.Model
	MaxAttempts  int
	RetryDelays  []time.Duration

	// Sleep overrides the retry backoff clock in tests.
	Sleep func(time.Duration)
}

func NewClient(invoker Invoker, ids core.IDGenerator, auditWriter *audit.Writer, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		Invoker:      invoker,
		IDs:          ids,
		Audit:        auditWriter,
		Logger:       logger,
		DefaultModel: core.ModelSonnet,
		MaxAttempts:  retry.DefaultMaxAttempts,
		RetryDelays:  retry.DefaultDelays,
	}
}

// Invoke runs a single raw-prompt attempt with no retry. Malformed
// requests fail fast as errors; everything else classifies into the
// response.
func (c *Client) Invoke(ctx context.Context, req core.InvocationRequest) (core.InvocationResponse, error) {
	if err := req.Validate(); err != nil {
		return core.InvocationResponse{}, err
	}
	return c.Invoker.Invoke(ctx, req), nil
}

// TemplateRequest describes one slash-command invocation.
type TemplateRequest struct {
	AgentID         string
	AgentName       string
	Command         string
	Args            []string
	Model           core.Model
	SkipPermissions bool
	WorkingDir      string

	// TaskID links physical attempts to a stored task when nonzero.
	TaskID int64
	Phase  string
}

// InvokeTemplate builds the slash-command prompt, persists it for audit,
// and invokes with retry. Each physical attempt is recorded in the store
// when the request names a task.
func (c *Client) InvokeTemplate(ctx context.Context, treq TemplateRequest) (core.InvocationResponse, error) {
	agentID := treq.AgentID
	if agentID == "" {
		agentID = c.IDs.NewAgentID()
	}
	agentName := treq.AgentName
	if agentName == "" {
		agentName = "delegate"
	}
	model := treq.Model
	if model == "" {
		model = c.DefaultModel
	}

	line := prompt.BuildTemplateRequest(treq.Command, treq.Args...)
	req := core.InvocationRequest{
		Prompt:           line,
		AgentID:          agentID,
		AgentName:        agentName,
		Model:            model,
		SkipPermissions:  treq.SkipPermissions,
		OutputPath:       c.IDs.OutputPath(agentID),
		WorkingDirectory: treq.WorkingDir,
	}
	if err := req.Validate(); err != nil {
		return core.InvocationResponse{}, err
	}

	// Prompt persistence is audit logging, never load-bearing.
	if c.Audit != nil {
		if err := c.Audit.Prompt(agentName, agentID, treq.Command, line); err != nil {
			c.Logger.Debug("prompt audit write failed", "error", err)
		}
	}

	attemptNo := 0
	invoke := func(ctx context.Context, req core.InvocationRequest) core.InvocationResponse {
		attemptNo++
		attemptID := c.beginAttempt(ctx, treq, req, attemptNo)
		resp := c.Invoker.Invoke(ctx, req)
		c.finishAttempt(ctx, attemptID, resp)
		return resp
	}

	controller := retry.NewController(invoke, c.Logger)
	if c.Sleep != nil {
		controller.Sleep = c.Sleep
	}
	resp := controller.InvokeWithRetry(ctx, req, retry.Options{
		MaxAttempts: c.MaxAttempts,
		Delays:      c.RetryDelays,
	})
	return resp, nil
}

func (c *Client) beginAttempt(ctx context.Context, treq TemplateRequest, req core.InvocationRequest, attemptNo int) int64 {
	if c.Store == nil || treq.TaskID == 0 {
		return 0
	}
	attemptID, err := c.Store.CreateAttempt(ctx, core.AttemptRecord{
		TaskID:     treq.TaskID,
		AgentID:    req.AgentID,
		AttemptNo:  attemptNo,
		Phase:      treq.Phase,
		Status:     "running",
		OutputPath: req.OutputPath,
		StartedAt:  time.Now(),
	})
	if err != nil {
		c.Logger.Warn("create attempt record failed", "error", err)
		return 0
	}
	return attemptID
}

func (c *Client) finishAttempt(ctx context.Context, attemptID int64, resp core.InvocationResponse) {
	if attemptID == 0 {
		return
	}
	status := "failed"
	if resp.Success {
		status = "succeeded"
	}
	excerpt := executor.Truncate(resp.Output, 200)
	if err := c.Store.FinishAttempt(ctx, attemptID, status, string(resp.ResultCode), resp.SessionID, excerpt); err != nil {
		c.Logger.Warn("finish attempt record failed", "error", err)
	}
}
