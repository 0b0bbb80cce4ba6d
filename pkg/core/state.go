package core

import "time"

// Store defines the interface for build history persistence.
type Store interface {
	Close() error

	// Build operations
	CreateBuild(pipeline string) (*Build, error)
	CompleteBuild(id string, status RunStatus, errMsg string) error
	GetBuild(id string) (*Build, error)
	ListBuilds(limit int) ([]*Build, error)

	// Task run operations
	RecordTaskRun(run *TaskRun) error
	GetTaskRuns(buildID string) ([]*TaskRun, error)
}

// RunStatus represents the status of a build or task run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Build is one orchestrated invocation: a pipeline or an ad-hoc task list.
type Build struct {
	ID          string     `json:"id"`
	Pipeline    string     `json:"pipeline"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// TaskRun is a single task execution within a build.
type TaskRun struct {
	ID          string     `json:"id"`
	BuildID     string     `json:"build_id"`
	Task        string     `json:"task"`
	Kind        TaskKind   `json:"kind"`
	Status      RunStatus  `json:"status"`
	Files       int        `json:"files"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	DurationMS  int64      `json:"duration_ms"`
}
