package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsite/internal/fileset"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

func TestDeclare(t *testing.T) {
	root := t.TempDir()
	cfg, err := Declare(root, DefaultLayout())
	require.NoError(t, err)

	assert.Equal(t, BuildOrder, cfg.TaskNames())

	dev, ok := cfg.Pipeline(core.PipelineDev)
	require.True(t, ok)
	prod, ok := cfg.Pipeline(core.PipelineProd)
	require.True(t, ok)
	assert.Equal(t, prod.Tasks, dev.Tasks)
	assert.True(t, dev.Serve)
	assert.False(t, prod.Serve)

	assert.Equal(t, []string{
		filepath.Join(root, "public"),
		filepath.Join(root, "public", "views"),
	}, cfg.ServeRoots)
}

func TestDeclare_TaskKinds(t *testing.T) {
	cfg, err := Declare(t.TempDir(), DefaultLayout())
	require.NoError(t, err)

	want := map[string]core.TaskKind{
		TaskClean:         core.KindClean,
		TaskLintStyles:    core.KindLintStyle,
		TaskLintScripts:   core.KindLintScript,
		TaskScriptsBundle: core.KindScriptBundle,
		TaskScriptsMinify: core.KindScriptMinify,
		TaskStylesCompile: core.KindStyleCompile,
		TaskStylesMinify:  core.KindStyleMinify,
		TaskStylesPrefix:  core.KindStylePostprocess,
		TaskViewsRender:   core.KindTemplateRender,
	}
	for name, kind := range want {
		task, ok := cfg.Task(name)
		require.True(t, ok, name)
		assert.Equal(t, kind, task.Kind, name)
	}
}

func TestDeclare_WatchRules(t *testing.T) {
	cfg, err := Declare(t.TempDir(), DefaultLayout())
	require.NoError(t, err)

	tests := []struct {
		path string
		rule string
	}{
		{"src/assets/sass/theme.scss", WatchStyles},
		{"src/assets/sass/atoms/_button.scss", WatchStyles},
		{"src/assets/js/app.js", WatchScripts},
		{"src/assets/js/lib/util.js", WatchScripts},
		{"src/views/index.njk", WatchViews},
		{"src/views/atoms/button/button.njk", WatchViews},
		{"src/index.html", WatchViews},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var matched []string
			for _, rule := range cfg.WatchRules {
				set, err := fileset.CompileSet(rule.Patterns)
				require.NoError(t, err)
				if set.Match(tt.path) {
					matched = append(matched, rule.Name)
				}
			}
			assert.Equal(t, []string{tt.rule}, matched)
		})
	}

	for _, rule := range cfg.WatchRules {
		assert.True(t, rule.Reload, rule.Name)
	}
	styles := cfg.WatchRules[0]
	assert.Equal(t, []string{TaskLintStyles, TaskStylesCompile, TaskStylesMinify, TaskStylesPrefix}, styles.Tasks)
}

func TestDeclare_ViewsFlatten(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{
		"src/views/index.njk",
		"src/views/_layout.njk",
		"src/views/atoms/button/button.njk",
		"src/views/atoms/_macros.njk",
	} {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, nil, 0o600))
	}

	cfg, err := Declare(root, DefaultLayout())
	require.NoError(t, err)
	task, ok := cfg.Task(TaskViewsRender)
	require.True(t, ok)

	pairs, err := fileset.Resolve(task.Files)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, filepath.Join(root, "public/views/atoms/button.html"), pairs[0].Dest)
	assert.Equal(t, filepath.Join(root, "public/views/index.html"), pairs[1].Dest)
}

func TestDeclare_LayoutOverrides(t *testing.T) {
	root := t.TempDir()
	layout := DefaultLayout()
	layout.PublicDir = "dist"
	layout.Styles.Compiler = "command"
	layout.Styles.Command = `sass "$SRC" "$DEST"`

	cfg, err := Declare(root, layout)
	require.NoError(t, err)

	clean, _ := cfg.Task(TaskClean)
	assert.Equal(t, filepath.Join(root, "dist"), clean.Files.Dest)

	compile, _ := cfg.Task(TaskStylesCompile)
	assert.Equal(t, "command", compile.Options["compiler"])
	assert.Equal(t, `sass "$SRC" "$DEST"`, compile.Options["command"])
	assert.Equal(t, DefaultSassBinary, compile.Options["sass_binary"])
	assert.Equal(t, filepath.Join(root, "dist", "assets", "css"), compile.Files.Dest)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "views")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileNameAlt), nil, 0o600))

	assert.Equal(t, root, FindProjectRoot(nested))
	assert.Equal(t, "", FindProjectRoot(t.TempDir()))
}
