package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsite/internal/testutil"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

const testDebounce = 20 * time.Millisecond

var testRules = []core.WatchRule{
	{Name: "styles", Patterns: []string{"src/sass/**/*.scss"}, Tasks: []string{"lint:styles", "styles:compile"}, Reload: true},
	{Name: "scripts", Patterns: []string{"src/js/**/*.js"}, Tasks: []string{"scripts:bundle"}, Reload: true},
	{Name: "views", Patterns: []string{"src/**/*.njk"}, Tasks: []string{"views:render"}},
}

type fakeExecutor struct {
	mu      sync.Mutex
	calls   []string
	delay   time.Duration
	fail    map[string]error
	started chan string

	running    atomic.Int32
	maxRunning atomic.Int32
}

func (e *fakeExecutor) RunTask(ctx context.Context, name string) error {
	n := e.running.Add(1)
	defer e.running.Add(-1)
	for {
		max := e.maxRunning.Load()
		if n <= max || e.maxRunning.CompareAndSwap(max, n) {
			break
		}
	}

	e.mu.Lock()
	e.calls = append(e.calls, name)
	e.mu.Unlock()

	if e.started != nil {
		e.started <- name
	}
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return e.fail[name]
}

func (e *fakeExecutor) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

type countingNotifier struct {
	n atomic.Int32
}

func (c *countingNotifier) Notify() { c.n.Add(1) }

type harness struct {
	exec     *fakeExecutor
	notifier *countingNotifier
	events   chan Event
	results  []Result
	done     chan error
}

func startWatcher(t *testing.T, exec *fakeExecutor) *harness {
	t.Helper()
	h := &harness{exec: exec, notifier: &countingNotifier{}, events: make(chan Event), done: make(chan error, 1)}
	w, err := New(Config{
		Root:     "/site",
		Rules:    testRules,
		Executor: exec,
		Notifier: h.notifier,
		Debounce: testDebounce,
		OnResult: func(r Result) { h.results = append(h.results, r) },
		Logger:   testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	go func() { h.done <- w.Run(context.Background(), h.events) }()
	return h
}

// finish closes the event stream and waits for pending runs to drain.
func (h *harness) finish(t *testing.T) {
	t.Helper()
	close(h.events)
	select {
	case err := <-h.done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not drain")
	}
}

func (h *harness) send(paths ...string) {
	for _, p := range paths {
		h.events <- Event{Path: p, Op: fsnotify.Write}
	}
}

func TestWatcher_DebounceCollapse(t *testing.T) {
	h := startWatcher(t, &fakeExecutor{})

	h.send(
		"/site/src/sass/theme.scss",
		"/site/src/sass/atoms/_button.scss",
		"src/sass/theme.scss",
		"/site/src/sass/theme.scss",
	)
	h.finish(t)

	assert.Equal(t, []string{"lint:styles", "styles:compile"}, h.exec.Calls())
	require.Len(t, h.results, 1)
	assert.Equal(t, "styles", h.results[0].Rule)
	assert.Equal(t, "src/sass/theme.scss", h.results[0].Trigger)
	assert.Equal(t, []string{"lint:styles", "styles:compile"}, h.results[0].Ran)
	assert.NoError(t, h.results[0].Err)
	assert.Equal(t, int32(1), h.notifier.n.Load())
}

func TestWatcher_SerializesRules(t *testing.T) {
	h := startWatcher(t, &fakeExecutor{delay: 15 * time.Millisecond})

	h.send("/site/src/sass/theme.scss", "/site/src/js/app.js", "/site/src/views/index.njk")
	h.finish(t)

	assert.Equal(t, int32(1), h.exec.maxRunning.Load())
	assert.ElementsMatch(t, []string{"lint:styles", "styles:compile", "scripts:bundle", "views:render"}, h.exec.Calls())
	require.Len(t, h.results, 3)

	// Views does not reload.
	assert.Equal(t, int32(2), h.notifier.n.Load())
}

func TestWatcher_ChangeWhileRunningRetriggers(t *testing.T) {
	exec := &fakeExecutor{delay: 30 * time.Millisecond, started: make(chan string, 8)}
	h := startWatcher(t, exec)

	h.send("/site/src/js/app.js")
	select {
	case name := <-exec.started:
		require.Equal(t, "scripts:bundle", name)
	case <-time.After(2 * time.Second):
		t.Fatal("rule never started")
	}
	h.send("/site/src/js/lib/util.js", "/site/src/js/app.js")
	h.finish(t)

	assert.Equal(t, []string{"scripts:bundle", "scripts:bundle"}, exec.Calls())
	require.Len(t, h.results, 2)
	assert.Equal(t, "src/js/app.js", h.results[0].Trigger)
	assert.Equal(t, "src/js/app.js", h.results[1].Trigger)
}

func TestWatcher_FailureIsReportedAndLoopContinues(t *testing.T) {
	boom := errors.New("compile failed")
	h := startWatcher(t, &fakeExecutor{fail: map[string]error{"lint:styles": boom}})

	h.send("/site/src/sass/theme.scss")
	time.Sleep(5 * testDebounce)
	h.send("/site/src/js/app.js")
	h.finish(t)

	assert.Equal(t, []string{"lint:styles", "scripts:bundle"}, h.exec.Calls())
	require.Len(t, h.results, 2)
	assert.ErrorIs(t, h.results[0].Err, boom)
	assert.Empty(t, h.results[0].Ran)
	assert.NoError(t, h.results[1].Err)
	assert.Equal(t, int32(1), h.notifier.n.Load())
}

func TestWatcher_IgnoresUnrelatedEvents(t *testing.T) {
	h := startWatcher(t, &fakeExecutor{})

	h.send("/site/README.md", "/elsewhere/src/sass/theme.scss", "/site/public/assets/css/theme.css")
	h.events <- Event{Path: "/site/src/sass/theme.scss", Op: fsnotify.Chmod}
	h.finish(t)

	assert.Empty(t, h.exec.Calls())
	assert.Empty(t, h.results)
}

func TestWatcher_Cancel(t *testing.T) {
	exec := &fakeExecutor{delay: time.Minute, started: make(chan string, 1)}
	w, err := New(Config{Root: "/site", Rules: testRules, Executor: exec, Debounce: testDebounce})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event, 1)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, events) }()

	events <- Event{Path: "/site/src/js/app.js", Op: fsnotify.Create}
	<-exec.started
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(Config{
		Executor: &fakeExecutor{},
		Rules:    []core.WatchRule{{Name: "bad", Patterns: []string{""}, Tasks: []string{"x"}}},
	})
	assert.ErrorContains(t, err, "watch rule bad")

	_, err = New(Config{})
	assert.Error(t, err)
}

func waitEvent(t *testing.T, events <-chan Event, want string) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event stream closed before %s", want)
			if ev.Path == want {
				return
			}
		case <-timeout:
			t.Fatalf("no event for %s", want)
		}
	}
}

func TestWatchFS(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	public := filepath.Join(src, "public")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sass"), 0o750))
	require.NoError(t, os.MkdirAll(public, 0o750))

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event, 64)
	done := make(chan error, 1)
	go func() {
		done <- WatchFS(ctx, root, []string{"src"}, events, WithSkip(public), WithLogger(testutil.NewTestLogger(t)))
	}()

	// Give the watcher time to register directories.
	time.Sleep(100 * time.Millisecond)

	theme := filepath.Join(src, "sass", "theme.scss")
	require.NoError(t, os.WriteFile(theme, []byte(".a{}"), 0o600))
	waitEvent(t, events, theme)

	nested := filepath.Join(src, "views", "atoms")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	time.Sleep(100 * time.Millisecond)
	button := filepath.Join(nested, "button.njk")
	require.NoError(t, os.WriteFile(button, []byte("<button>"), 0o600))
	waitEvent(t, events, button)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("WatchFS did not return after cancel")
	}

	for ev := range events {
		assert.NotContains(t, ev.Path, public)
	}
}
