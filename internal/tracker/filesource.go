package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"delegate/internal/core"
)

// FileSource reads tasks from a JSON array on disk and rewrites the file
// on status updates. One delegation process owns the file at a time.
type FileSource struct {
	Path string

	mu sync.Mutex
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string {
	return "file"
}

// Fetch returns the tasks currently marked ready.
func (s *FileSource) Fetch(ctx context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return nil, err
	}

	ready := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Status == core.TaskStatusReady {
			ready = append(ready, task)
		}
	}
	return ready, nil
}

func (s *FileSource) UpdateStatus(ctx context.Context, taskID, status, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return err
	}

	found := false
	for i := range tasks {
		if tasks[i].ID == taskID {
			tasks[i].Status = status
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("task %q not found in %s", taskID, s.Path)
	}

	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o644)
}

func (s *FileSource) load() ([]Task, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read tracker file: %w", err)
	}
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decode tracker file: %w", err)
	}
	return tasks, nil
}
