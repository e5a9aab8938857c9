// Package app wires one delegation run: configuration, store, run log,
// tracker source, and the sequential per-task plan/implement phases.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"delegate/internal/audit"
	"delegate/internal/config"
	"delegate/internal/core"
	"delegate/internal/delegate"
	"delegate/internal/eventlog"
	"delegate/internal/executor"
	"delegate/internal/logging"
	"delegate/internal/store"
	"delegate/internal/tracker"
	"delegate/internal/workspace"
)

type Command struct {
	ConfigPath  string
	TrackerPath string
	Logger      logging.Logger
}

type Result struct {
	RunID   string
	Status  string
	Summary string
}

// Run drains the tracker's ready tasks, delegating each one sequentially.
// A task's phases run to completion (including all retries) before the
// next phase or task starts; later phases consume earlier phases' output.
func (c Command) Run(ctx context.Context) (Result, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return Result{}, err
	}
	if c.TrackerPath != "" {
		cfg.TrackerPath = c.TrackerPath
	}
	if cfg.TrackerPath == "" {
		return Result{}, fmt.Errorf("tracker path not configured")
	}

	logger := c.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	runID := core.NewRunID()
	artifactRoot := filepath.Join(cfg.ArtifactDir, runID)
	if err := os.MkdirAll(artifactRoot, 0o755); err != nil {
		return Result{}, fmt.Errorf("create artifact root: %w", err)
	}

	runLog, err := eventlog.New(filepath.Join(artifactRoot, "events.jsonl"))
	if err != nil {
		return Result{}, err
	}
	defer runLog.Close()

	storeDB, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return Result{}, err
	}
	defer storeDB.Close()
	if err := storeDB.Init(ctx); err != nil {
		return Result{}, err
	}

	source := tracker.NewFileSource(cfg.TrackerPath)

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return Result{}, fmt.Errorf("marshal config: %w", err)
	}
	if err := storeDB.CreateRun(ctx, core.RunRecord{
		RunID:     runID,
		Tracker:   source.Name(),
		StartedAt: time.Now(),
		Status:    core.RunStatusRunning,
		Config:    string(configJSON),
	}); err != nil {
		return Result{}, err
	}
	_ = runLog.Emit(core.Event{RunID: runID, Level: "info", EventType: "run_started"})

	client := newClient(cfg, artifactRoot, storeDB, logger)
	strategy := workspace.Select(cfg.WorkspaceMode, artifactRoot)

	tasks, err := source.Fetch(ctx)
	if err != nil {
		return finalize(storeDB, runLog, runID, core.Summary{}, err)
	}

	summary := core.Summary{}
	for _, task := range tasks {
		delegated, err := c.delegateTask(ctx, cfg, client, strategy, source, storeDB, runLog, runID, artifactRoot, task, logger)
		if err != nil {
			return finalize(storeDB, runLog, runID, summary, err)
		}
		summary.Add(delegated)
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return finalize(storeDB, runLog, runID, summary, err)
	}
	if err := storeDB.UpdateRunStatus(ctx, runID, core.RunStatusSucceeded, string(summaryJSON)); err != nil {
		return Result{}, err
	}
	_ = runLog.Emit(core.Event{RunID: runID, Level: "info", EventType: "run_finished", Payload: summary})

	return Result{RunID: runID, Status: core.RunStatusSucceeded, Summary: summary.String()}, nil
}

// delegateTask runs the two sequential phases for one task: a planning
// invocation whose output lands in a plan file, then an implementation
// invocation that receives the plan path.
func (c Command) delegateTask(
	ctx context.Context,
	cfg config.Config,
	client *delegate.Client,
	strategy workspace.Strategy,
	source tracker.Source,
	storeDB *store.SQLiteStore,
	runLog *eventlog.EventLog,
	runID, artifactRoot string,
	task tracker.Task,
	logger logging.Logger,
) (bool, error) {
	taskID, err := storeDB.InsertTask(ctx, core.TaskRecord{
		RunID:       runID,
		ExternalID:  task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      core.TaskStatusInProgress,
	})
	if err != nil {
		return false, err
	}
	_ = source.UpdateStatus(ctx, task.ID, core.TaskStatusInProgress, "")
	_ = runLog.Emit(core.Event{RunID: runID, Level: "info", EventType: "task_started", TaskID: taskID})

	ws, err := strategy.Prepare(ctx, cfg.RepoPath, task.ID)
	if err != nil {
		_ = storeDB.UpdateTaskStatus(ctx, taskID, core.TaskStatusFailed)
		_ = source.UpdateStatus(ctx, task.ID, core.TaskStatusFailed, "workspace preparation failed")
		return false, nil
	}
	defer func() {
		if err := strategy.Finalize(ctx, ws); err != nil {
			logger.Warn("workspace finalize failed", "task", task.ID, "error", err)
		}
	}()

	planPath := filepath.Join(artifactRoot, fmt.Sprintf("task-%s.plan.md", task.ID))

	planResp, err := client.InvokeTemplate(ctx, delegate.TemplateRequest{
		AgentName:       cfg.AgentName,
		Command:         "plan",
		Args:            []string{task.Title, task.Description, planPath},
		Model:           core.Model(cfg.Model),
		SkipPermissions: true,
		WorkingDir:      ws.Path,
		TaskID:          taskID,
		Phase:           "plan",
	})
	if err != nil {
		return false, err
	}
	if !planResp.Success {
		return c.failTask(ctx, source, storeDB, runLog, runID, taskID, task.ID, "plan", planResp), nil
	}

	implResp, err := client.InvokeTemplate(ctx, delegate.TemplateRequest{
		AgentName:       cfg.AgentName,
		Command:         "implement",
		Args:            []string{planPath},
		Model:           core.Model(cfg.Model),
		SkipPermissions: true,
		WorkingDir:      ws.Path,
		TaskID:          taskID,
		Phase:           "implement",
	})
	if err != nil {
		return false, err
	}
	if !implResp.Success {
		return c.failTask(ctx, source, storeDB, runLog, runID, taskID, task.ID, "implement", implResp), nil
	}

	if err := storeDB.UpdateTaskStatus(ctx, taskID, core.TaskStatusDone); err != nil {
		return false, err
	}
	_ = source.UpdateStatus(ctx, task.ID, core.TaskStatusDone, implResp.Output)
	_ = runLog.Emit(core.Event{RunID: runID, Level: "info", EventType: "task_finished", TaskID: taskID})
	return true, nil
}

func (c Command) failTask(
	ctx context.Context,
	source tracker.Source,
	storeDB *store.SQLiteStore,
	runLog *eventlog.EventLog,
	runID string,
	taskID int64,
	externalID, phase string,
	resp core.InvocationResponse,
) bool {
	_ = storeDB.UpdateTaskStatus(ctx, taskID, core.TaskStatusFailed)
	_ = source.UpdateStatus(ctx, externalID, core.TaskStatusFailed, resp.Output)
	_ = runLog.Emit(core.Event{
		RunID:     runID,
		Level:     "error",
		EventType: "task_failed",
		TaskID:    taskID,
		Payload: map[string]string{
			"phase":       phase,
			"result_code": string(resp.ResultCode),
		},
	})
	return false
}

func newClient(cfg config.Config, artifactRoot string, storeDB *store.SQLiteStore, logger logging.Logger) *delegate.Client {
	auditWriter := audit.NewWriter(filepath.Join(artifactRoot, "audit"))
	exec := executor.New(
		executor.BridgeSpawner{BridgePath: cfg.BridgeBin, AgentBin: cfg.AgentBin},
		auditWriter,
		logger,
	)
	exec.SettingsPath = cfg.SettingsPath

	ids := core.UUIDGenerator{Root: filepath.Join(artifactRoot, "streams")}
	client := delegate.NewClient(exec, ids, auditWriter, logger)
	client.Store = storeDB
	client.DefaultModel = core.Model(cfg.Model)
	client.MaxAttempts = cfg.MaxAttempts
	if delays := cfg.RetryDelayDurations(); len(delays) > 0 {
		client.RetryDelays = delays
	}
	return client
}

func finalize(storeDB *store.SQLiteStore, runLog *eventlog.EventLog, runID string, summary core.Summary, runErr error) (Result, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return Result{}, err
	}
	if updateErr := storeDB.UpdateRunStatus(context.Background(), runID, core.RunStatusFailed, string(summaryJSON)); updateErr != nil {
		return Result{}, updateErr
	}
	_ = runLog.Emit(core.Event{
		RunID:     runID,
		Level:     "error",
		EventType: "run_failed",
		Payload:   map[string]string{"error": runErr.Error()},
	})
	return Result{}, runErr
}
