// Package tracker is the boundary to the external task trackers. The
// polling loops themselves live outside this system; this package only
// defines the interface the run loop consumes and a file-backed source for
// local operation and tests.
package tracker

import "context"

// Task is one delegatable unit of work pulled from a tracker.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Source fetches ready tasks and writes status back to the tracker.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Task, error)
	UpdateStatus(ctx context.Context, taskID, status, note string) error
}
