// Package watch re-runs tasks when source files change.
//
// Each watch rule moves through idle, triggered and running. A single loop
// goroutine owns all rule state; a single worker goroutine runs rules one
// at a time in the order their debounce windows expired.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/leapsite/internal/fileset"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

// DefaultDebounce is the quiet period before a triggered rule runs.
const DefaultDebounce = 150 * time.Millisecond

// Event is a file system change.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Executor runs a single task.
type Executor interface {
	RunTask(ctx context.Context, name string) error
}

// Notifier is told when a reloading rule succeeds.
type Notifier interface {
	Notify()
}

// Result describes one rule run.
type Result struct {
	Rule string
	// Trigger is the first path that triggered the run.
	Trigger string
	// Ran lists the tasks that completed.
	Ran      []string
	Duration time.Duration
	Err      error
}

// Config holds watcher configuration.
type Config struct {
	// Root makes absolute event paths relative before matching.
	Root     string
	Rules    []core.WatchRule
	Executor Executor
	// Notifier is optional.
	Notifier Notifier
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// OnResult is called on the loop goroutine after every run. Optional.
	OnResult func(Result)
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

type state int

const (
	stateIdle state = iota
	stateTriggered
	stateRunning
)

type ruleState struct {
	rule     core.WatchRule
	patterns fileset.Set
	state    state
	queued   bool // debounce expired, waiting for the worker
	dirty    string // path changed while running
	trigger  string
	timer    *time.Timer
	gen      int
}

// Watcher maps file events to rule runs.
type Watcher struct {
	root     string
	rules    []*ruleState
	exec     Executor
	notifier Notifier
	debounce time.Duration
	onResult func(Result)
	logger   *slog.Logger
}

// New creates a watcher. Rule patterns are compiled up front.
func New(cfg Config) (*Watcher, error) {
	if cfg.Executor == nil {
		return nil, errors.New("watch: executor is required")
	}
	w := &Watcher{
		root:     cfg.Root,
		exec:     cfg.Executor,
		notifier: cfg.Notifier,
		debounce: cfg.Debounce,
		onResult: cfg.OnResult,
		logger:   cfg.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	for _, rule := range cfg.Rules {
		set, err := fileset.CompileSet(rule.Patterns)
		if err != nil {
			return nil, fmt.Errorf("watch rule %s: %w", rule.Name, err)
		}
		w.rules = append(w.rules, &ruleState{rule: rule, patterns: set})
	}
	return w, nil
}

// relative returns the slash-separated path relative to the root, or false
// when the path lies outside it.
func (w *Watcher) relative(p string) (string, bool) {
	if filepath.IsAbs(p) && w.root != "" {
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return "", false
		}
		p = rel
	}
	p = filepath.ToSlash(filepath.Clean(p))
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return p, true
}

type fired struct {
	idx int
	gen int
}

type finished struct {
	idx    int
	result Result
}

// Run consumes events until ctx is cancelled, or until events is closed and
// every pending rule has run. It is the only goroutine that touches rule state.
func (w *Watcher) Run(ctx context.Context, events <-chan Event) error {
	firedC := make(chan fired)
	jobs := make(chan int, 1)
	results := make(chan finished)
	quit := make(chan struct{})

	go w.worker(ctx, jobs, results)

	var queue []int
	busy := false

	arm := func(idx int) {
		rs := w.rules[idx]
		rs.gen++
		gen := rs.gen
		if rs.timer != nil {
			rs.timer.Stop()
		}
		rs.timer = time.AfterFunc(w.debounce, func() {
			select {
			case firedC <- fired{idx: idx, gen: gen}:
			case <-quit:
			}
		})
	}

	dispatch := func() {
		if busy || len(queue) == 0 {
			return
		}
		idx := queue[0]
		queue = queue[1:]
		rs := w.rules[idx]
		rs.state, rs.queued = stateRunning, false
		busy = true
		w.logger.Debug("running watch rule", "rule", rs.rule.Name, "trigger", rs.trigger)
		jobs <- idx
	}

	pending := func() bool {
		if busy || len(queue) > 0 {
			return true
		}
		for _, rs := range w.rules {
			if rs.state != stateIdle {
				return true
			}
		}
		return false
	}

	stop := func() error {
		close(quit)
		for _, rs := range w.rules {
			if rs.timer != nil {
				rs.timer.Stop()
			}
		}
		close(jobs)
		for range results {
		}
		return nil
	}

	for {
		if events == nil && !pending() {
			return stop()
		}

		select {
		case <-ctx.Done():
			return stop()

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			w.handleEvent(ev, arm)

		case f := <-firedC:
			rs := w.rules[f.idx]
			if rs.state != stateTriggered || rs.queued || f.gen != rs.gen {
				continue
			}
			rs.queued = true
			queue = append(queue, f.idx)
			dispatch()

		case done := <-results:
			busy = false
			rs := w.rules[done.idx]
			rs.state = stateIdle
			trigger := rs.trigger
			rs.trigger = ""
			w.report(rs, trigger, done.result)

			if rs.dirty != "" {
				rs.state = stateTriggered
				rs.trigger, rs.dirty = rs.dirty, ""
				arm(done.idx)
			}
			dispatch()
		}
	}
}

func (w *Watcher) handleEvent(ev Event, arm func(int)) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	rel, ok := w.relative(ev.Path)
	if !ok {
		return
	}

	for idx, rs := range w.rules {
		if !rs.patterns.Match(rel) {
			continue
		}
		switch rs.state {
		case stateIdle:
			w.logger.Debug("watch rule triggered", "rule", rs.rule.Name, "path", rel, "op", ev.Op.String())
			rs.state = stateTriggered
			rs.trigger = rel
			arm(idx)
		case stateTriggered:
			// Queued rules already cover this change.
			if !rs.queued {
				arm(idx)
			}
		case stateRunning:
			rs.dirty = rel
		}
	}
}

func (w *Watcher) worker(ctx context.Context, jobs <-chan int, results chan<- finished) {
	defer close(results)
	for idx := range jobs {
		rule := w.rules[idx].rule
		start := time.Now()

		res := Result{Rule: rule.Name}
		for _, name := range rule.Tasks {
			if err := w.exec.RunTask(ctx, name); err != nil {
				res.Err = err
				break
			}
			res.Ran = append(res.Ran, name)
		}
		res.Duration = time.Since(start)
		results <- finished{idx: idx, result: res}
	}
}

func (w *Watcher) report(rs *ruleState, trigger string, res Result) {
	res.Trigger = trigger
	if res.Err != nil {
		w.logger.Error("watch rule failed", "rule", res.Rule, "trigger", trigger, "error", res.Err)
	} else {
		w.logger.Info("watch rule completed", "rule", res.Rule, "trigger", trigger,
			"tasks", len(res.Ran), "duration", res.Duration.Round(time.Millisecond))
		if rs.rule.Reload && w.notifier != nil {
			w.notifier.Notify()
		}
	}
	if w.onResult != nil {
		w.onResult(res)
	}
}
