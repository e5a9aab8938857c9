package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"delegate/internal/core"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	ddl := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			tracker TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL,
			config_json TEXT NOT NULL,
			summary_json TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			external_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_run_status ON tasks(run_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_external ON tasks(external_id);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id INTEGER NOT NULL,
			agent_id TEXT NOT NULL,
			attempt_no INTEGER NOT NULL,
			phase TEXT NOT NULL,
			status TEXT NOT NULL,
			result_code TEXT,
			session_id TEXT,
			output_path TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			excerpt TEXT,
			FOREIGN KEY(task_id) REFERENCES tasks(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_task_id ON attempts(task_id);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_agent_id ON attempts(agent_id);`,
	}

	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run core.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, tracker, started_at, status, config_json)
		VALUES (?, ?, ?, ?, ?)`,
		run.RunID,
		run.Tracker,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.Status,
		run.Config,
	)
	return err
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status string, summaryJSON string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, summary_json = ?, finished_at = ?
		WHERE run_id = ?`,
		status,
		summaryJSON,
		time.Now().UTC().Format(time.RFC3339),
		runID,
	)
	return err
}

func (s *SQLiteStore) InsertTask(ctx context.Context, task core.TaskRecord) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (run_id, external_id, title, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.RunID,
		task.ExternalID,
		task.Title,
		task.Description,
		task.Status,
		now,
		now,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, taskID int64, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = ?, updated_at = ?
		WHERE id = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339),
		taskID,
	)
	return err
}

func (s *SQLiteStore) CreateAttempt(ctx context.Context, attempt core.AttemptRecord) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (task_id, agent_id, attempt_no, phase, status, output_path, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		attempt.TaskID,
		attempt.AgentID,
		attempt.AttemptNo,
		attempt.Phase,
		attempt.Status,
		attempt.OutputPath,
		attempt.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) FinishAttempt(ctx context.Context, attemptID int64, status, resultCode, sessionID, excerpt string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE attempts
		SET status = ?, result_code = ?, session_id = ?, excerpt = ?, finished_at = ?
		WHERE id = ?`,
		status,
		resultCode,
		sessionID,
		excerpt,
		time.Now().UTC().Format(time.RFC3339),
		attemptID,
	)
	return err
}

func (s *SQLiteStore) GetRunSummary(ctx context.Context, runID string) (core.RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT status, started_at, finished_at
		FROM runs
		WHERE run_id = ?`,
		runID,
	)

	var (
		status     string
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&status, &startedAt, &finishedAt); err != nil {
		return core.RunSummary{}, err
	}

	var taskCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE run_id = ?`, runID).Scan(&taskCount); err != nil {
		return core.RunSummary{}, err
	}

	var attemptCount int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM attempts
		JOIN tasks ON tasks.id = attempts.task_id
		WHERE tasks.run_id = ?`, runID).Scan(&attemptCount); err != nil {
		return core.RunSummary{}, err
	}

	started, _ := time.Parse(time.RFC3339, startedAt)
	finished := time.Time{}
	if finishedAt.Valid {
		finished, _ = time.Parse(time.RFC3339, finishedAt.String)
	}

	return core.RunSummary{
		RunID:    runID,
		Status:   status,
		Tasks:    taskCount,
		Attempts: attemptCount,
		Started:  started,
		Finished: finished,
	}, nil
}
