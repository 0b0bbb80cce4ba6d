package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapsite/pkg/core"
)

// DefaultListLimit caps ListBuilds when no positive limit is given.
const DefaultListLimit = 20

// CreateBuild records a new running build.
func (s *SQLiteStore) CreateBuild(pipeline string) (*core.Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	build := &core.Build{
		ID:        generateID(),
		Pipeline:  pipeline,
		Status:    core.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.logger.Debug("creating build", slog.String("id", build.ID), slog.String("pipeline", pipeline))

	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO builds (id, pipeline, status, started_at) VALUES (?, ?, ?, ?)`,
		build.ID, build.Pipeline, string(build.Status), formatTime(build.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create build: %w", err)
	}
	return build, nil
}

// CompleteBuild marks a build finished with the given status.
func (s *SQLiteStore) CompleteBuild(id string, status core.RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	res, err := s.db.ExecContext(context.Background(),
		`UPDATE builds SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), formatTime(time.Now()), nullString(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete build: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("build not found: %s", id)
	}
	return nil
}

// GetBuild retrieves a build by ID.
func (s *SQLiteStore) GetBuild(id string) (*core.Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(context.Background(),
		`SELECT id, pipeline, status, started_at, completed_at, error FROM builds WHERE id = ?`, id)
	build, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}
	return build, nil
}

// ListBuilds returns the most recent builds, newest first.
func (s *SQLiteStore) ListBuilds(limit int) ([]*core.Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id, pipeline, status, started_at, completed_at, error
		 FROM builds ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var builds []*core.Build
	for rows.Next() {
		build, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, build)
	}
	return builds, rows.Err()
}

// RecordTaskRun stores a finished task run. An empty ID is filled in.
func (s *SQLiteStore) RecordTaskRun(run *core.TaskRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if run.ID == "" {
		run.ID = generateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO task_runs (id, build_id, task, kind, status, files, started_at, completed_at, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.BuildID, run.Task, string(run.Kind), string(run.Status), run.Files,
		formatTime(run.StartedAt), formatTimePtr(run.CompletedAt), run.DurationMS, nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to record task run: %w", err)
	}
	return nil
}

// GetTaskRuns returns a build's task runs in execution order.
func (s *SQLiteStore) GetTaskRuns(buildID string) ([]*core.TaskRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id, build_id, task, kind, status, files, started_at, completed_at, duration_ms, error
		 FROM task_runs WHERE build_id = ? ORDER BY started_at, rowid`, buildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task runs: %w", err)
	}
	defer rows.Close()

	var runs []*core.TaskRun
	for rows.Next() {
		var (
			run                core.TaskRun
			kind, status       string
			started            string
			completed, errText sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.BuildID, &run.Task, &kind, &status, &run.Files,
			&started, &completed, &run.DurationMS, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan task run: %w", err)
		}
		run.Kind = core.TaskKind(kind)
		run.Status = core.RunStatus(status)
		run.Error = errText.String
		if run.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if run.CompletedAt, err = parseTimePtr(completed); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (*core.Build, error) {
	var (
		build              core.Build
		status, started    string
		completed, errText sql.NullString
	)
	if err := row.Scan(&build.ID, &build.Pipeline, &status, &started, &completed, &errText); err != nil {
		return nil, err
	}
	build.Status = core.RunStatus(status)
	build.Error = errText.String

	var err error
	if build.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if build.CompletedAt, err = parseTimePtr(completed); err != nil {
		return nil, err
	}
	return &build, nil
}
