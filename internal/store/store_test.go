package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delegate/internal/core"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "delegate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Init(context.Background()))
	return s
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.CreateRun(ctx, core.RunRecord{
		RunID:     "run-1",
		Tracker:   "file",
		StartedAt: time.Now(),
		Status:    core.RunStatusRunning,
		Config:    "{}",
	}))

	summary, err := s.GetRunSummary(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusRunning, summary.Status)
	assert.True(t, summary.Finished.IsZero())

	require.NoError(t, s.UpdateRunStatus(ctx, "run-1", core.RunStatusSucceeded, `{"tasks":1}`))

	summary, err = s.GetRunSummary(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusSucceeded, summary.Status)
	assert.False(t, summary.Finished.IsZero())
}

func TestTaskAndAttemptRecording(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.CreateRun(ctx, core.RunRecord{
		RunID:     "run-1",
		Tracker:   "file",
		StartedAt: time.Now(),
		Status:    core.RunStatusRunning,
		Config:    "{}",
	}))

	taskID, err := s.InsertTask(ctx, core.TaskRecord{
		RunID:       "run-1",
		ExternalID:  "NOTION-42",
		Title:       "Fix flaky test",
		Description: "intermittent failure in CI",
		Status:      core.TaskStatusInProgress,
	})
	require.NoError(t, err)
	require.NotZero(t, taskID)

	attemptID, err := s.CreateAttempt(ctx, core.AttemptRecord{
		TaskID:     taskID,
		AgentID:    "agent-abc",
		AttemptNo:  1,
		Phase:      "plan",
		Status:     "running",
		OutputPath: "/tmp/stream.jsonl",
		StartedAt:  time.Now(),
	})
	require.NoError(t, err)
	require.NotZero(t, attemptID)

	require.NoError(t, s.FinishAttempt(ctx, attemptID, "succeeded", "none", "sess-1", "Done"))
	require.NoError(t, s.UpdateTaskStatus(ctx, taskID, core.TaskStatusDone))

	summary, err := s.GetRunSummary(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Tasks)
	assert.Equal(t, 1, summary.Attempts)
}
