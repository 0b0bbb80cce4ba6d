package pipeline

import (
	"time"

	"github.com/leapstack-labs/leapsite/pkg/core"
)

// Recording failures are logged and never fail a build.

func (o *Orchestrator) startBuild(label string) string {
	if o.recorder == nil {
		return ""
	}
	build, err := o.recorder.CreateBuild(label)
	if err != nil {
		o.logger.Warn("failed to record build", "pipeline", label, "error", err)
		return ""
	}
	o.logger.Debug("created build", "build_id", build.ID, "pipeline", label)
	return build.ID
}

func (o *Orchestrator) finishBuild(id string, status core.RunStatus, cause error) {
	if o.recorder == nil || id == "" {
		return
	}
	var msg string
	if cause != nil {
		msg = cause.Error()
	}
	if err := o.recorder.CompleteBuild(id, status, msg); err != nil {
		o.logger.Warn("failed to complete build record", "build_id", id, "error", err)
	}
}

func (o *Orchestrator) recordTask(buildID string, task core.Task, started time.Time, result Result) {
	if o.recorder == nil || buildID == "" {
		return
	}
	completed := started.Add(result.Duration)
	run := &core.TaskRun{
		BuildID:     buildID,
		Task:        task.Name,
		Kind:        task.Kind,
		Status:      core.RunStatusCompleted,
		Files:       result.Files,
		StartedAt:   started,
		CompletedAt: &completed,
		DurationMS:  result.Duration.Milliseconds(),
	}
	if result.Err != nil {
		run.Status = core.RunStatusFailed
		run.Error = result.Err.Error()
	}
	if err := o.recorder.RecordTaskRun(run); err != nil {
		o.logger.Warn("failed to record task run", "build_id", buildID, "task", task.Name, "error", err)
	}
}
