package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapsite/pkg/core"
)

// CleanRunner removes the task's destination directory.
type CleanRunner struct{}

// Kind implements Runner.
func (CleanRunner) Kind() core.TaskKind { return core.KindClean }

// Run removes Files.Dest. It refuses the project root itself and anything
// outside it. A missing directory is not an error.
func (CleanRunner) Run(_ context.Context, job *Job) error {
	target, err := filepath.Abs(job.Task.Files.Dest)
	if err != nil {
		return job.fail(job.Task.Files.Dest, err)
	}
	if job.Root == "" {
		return &core.ToolError{Task: job.Task.Name, Message: "refusing to clean without a project root"}
	}
	root, err := filepath.Abs(job.Root)
	if err != nil {
		return job.fail(job.Root, err)
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return &core.ToolError{
			Task:    job.Task.Name,
			File:    target,
			Message: fmt.Sprintf("refusing to remove %s: not inside project root %s", target, root),
		}
	}

	if _, err := os.Lstat(target); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(target); err != nil {
		return job.fail(target, err)
	}
	job.Written++
	job.Logger.Info("cleaned", "task", job.Task.Name, "path", job.display(target))
	return nil
}
