package commands

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/leapsite/internal/cli/output"
	"github.com/leapstack-labs/leapsite/internal/pipeline"
	"github.com/leapstack-labs/leapsite/internal/watch"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

// progressObserver prints one status line per finished task.
type progressObserver struct {
	mu sync.Mutex
	r  *output.Renderer
}

func newProgressObserver(r *output.Renderer) *progressObserver {
	return &progressObserver{r: r}
}

func (o *progressObserver) TaskStarted(core.Task) {}

func (o *progressObserver) TaskFinished(task core.Task, res pipeline.Result) {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := output.StatusSuccess
	if res.Err != nil {
		status = output.StatusFailed
	}
	o.r.StatusLine(task.Name, status, taskDetail(task, res))
}

func taskDetail(task core.Task, res pipeline.Result) string {
	var parts []string
	switch {
	case task.Kind == core.KindClean:
	case task.Kind.IsLint():
		parts = append(parts, plural(res.Files, "file"))
		if res.Diagnostics > 0 {
			parts = append(parts, plural(res.Diagnostics, "problem"))
		}
	default:
		parts = append(parts, plural(res.Written, "file"))
	}
	parts = append(parts, res.Duration.Round(time.Millisecond).String())
	return "(" + strings.Join(parts, ", ") + ")"
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// newWatchReporter prints a line per watcher run.
func newWatchReporter(r *output.Renderer) func(watch.Result) {
	return func(res watch.Result) {
		if res.Err != nil {
			r.Error(fmt.Errorf("%s (%s): %w", res.Rule, res.Trigger, res.Err))
			return
		}
		r.Muted(fmt.Sprintf("%s rebuilt after %s changed (%s)", res.Rule, res.Trigger, res.Duration.Round(time.Millisecond)))
	}
}
