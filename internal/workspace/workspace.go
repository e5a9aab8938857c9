// Package workspace prepares the directory each agent invocation operates
// in: either the repository itself or a throwaway git worktree per task.
package workspace

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

type Workspace struct {
	Path     string
	Branch   string
	Worktree bool

	repoPath string
}

type Strategy interface {
	Prepare(ctx context.Context, repoPath, taskID string) (Workspace, error)
	Finalize(ctx context.Context, ws Workspace) error
}

type InPlaceStrategy struct{}

func NewInPlace() *InPlaceStrategy {
	return &InPlaceStrategy{}
}

func (s *InPlaceStrategy) Prepare(ctx context.Context, repoPath, taskID string) (Workspace, error) {
	return Workspace{Path: repoPath}, nil
}

func (s *InPlaceStrategy) Finalize(ctx context.Context, ws Workspace) error {
	return nil
}

type WorktreeStrategy struct {
	Root string
}

func NewWorktree(root string) *WorktreeStrategy {
	return &WorktreeStrategy{Root: root}
}

func (s *WorktreeStrategy) Prepare(ctx context.Context, repoPath, taskID string) (Workspace, error) {
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return Workspace{}, err
	}
	branch := fmt.Sprintf("delegate/task-%s", taskID)
	path := filepath.Join(s.Root, fmt.Sprintf("task-%s", taskID))

	cmd := exec.CommandContext(ctx, "git", "-C", repoPath, "worktree", "add", "-b", branch, path)
	if err := cmd.Run(); err != nil {
		return Workspace{}, fmt.Errorf("create worktree: %w", err)
	}
	return Workspace{Path: path, Branch: branch, Worktree: true, repoPath: repoPath}, nil
}

func (s *WorktreeStrategy) Finalize(ctx context.Context, ws Workspace) error {
	if !ws.Worktree {
		return nil
	}
	// git refuses to remove the worktree it is invoked from, so run
	// against the main repository.
	cmd := exec.CommandContext(ctx, "git", "-C", ws.repoPath, "worktree", "remove", "--force", ws.Path)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("remove worktree: %w", err)
	}
	return nil
}

func Select(mode, artifactRoot string) Strategy {
	switch mode {
	case "worktree":
		return NewWorktree(filepath.Join(artifactRoot, "worktrees"))
	default:
		return NewInPlace()
	}
}
