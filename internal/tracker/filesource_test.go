package tracker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delegate/internal/core"
)

func writeTasks(t *testing.T, tasks []Task) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.json")
	data, err := json.Marshal(tasks)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFetchReturnsOnlyReadyTasks(t *testing.T) {
	path := writeTasks(t, []Task{
		{ID: "1", Title: "a", Status: core.TaskStatusReady},
		{ID: "2", Title: "b", Status: core.TaskStatusDone},
		{ID: "3", Title: "c", Status: core.TaskStatusReady},
	})

	source := NewFileSource(path)
	tasks, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "1", tasks[0].ID)
	assert.Equal(t, "3", tasks[1].ID)
}

func TestUpdateStatusRewritesFile(t *testing.T) {
	path := writeTasks(t, []Task{
		{ID: "1", Title: "a", Status: core.TaskStatusReady},
	})

	source := NewFileSource(path)
	require.NoError(t, source.UpdateStatus(context.Background(), "1", core.TaskStatusDone, "done"))

	tasks, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), core.TaskStatusDone)
}

func TestUpdateStatusUnknownTask(t *testing.T) {
	path := writeTasks(t, []Task{{ID: "1", Status: core.TaskStatusReady}})
	source := NewFileSource(path)
	assert.Error(t, source.UpdateStatus(context.Background(), "missing", core.TaskStatusDone, ""))
}

func TestFetchMissingFile(t *testing.T) {
	source := NewFileSource(filepath.Join(t.TempDir(), "nope.json"))
	_, err := source.Fetch(context.Background())
	assert.Error(t, err)
}
