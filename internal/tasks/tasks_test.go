package tasks

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsite/internal/fileset"
	"github.com/leapstack-labs/leapsite/internal/testutil"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

// newJob resolves the task's file set and wraps it in a job rooted at root.
func newJob(t *testing.T, root string, task core.Task) *Job {
	t.Helper()
	var pairs []fileset.Pair
	if task.Kind != core.KindClean {
		var err error
		pairs, err = fileset.Resolve(task.Files)
		require.NoError(t, err)
	}
	return &Job{Task: task, Files: pairs, Root: root, Logger: testutil.NewTestLogger(t)}
}

func run(t *testing.T, job *Job) error {
	t.Helper()
	return DefaultRegistry().Run(context.Background(), job)
}

func requireToolError(t *testing.T, err error) *core.ToolError {
	t.Helper()
	require.Error(t, err)
	var toolErr *core.ToolError
	require.ErrorAs(t, err, &toolErr)
	return toolErr
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	assert.ElementsMatch(t, core.AllTaskKinds(), reg.Kinds())

	_, err := reg.Get("sprite-sheet")
	assert.ErrorContains(t, err, `no runner registered for task kind "sprite-sheet"`)

	for _, kind := range core.AllTaskKinds() {
		runner, err := reg.Get(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, runner.Kind())
	}
}

func TestDecodeOptions(t *testing.T) {
	opts := ScriptMinifyOptions{Compress: true, Mangle: true, Target: "es2015"}
	err := decodeOptions(core.Task{Name: "m", Options: map[string]any{"mangle": "false", "target": "es2020"}}, &opts)
	require.NoError(t, err)
	assert.Equal(t, ScriptMinifyOptions{Compress: true, Mangle: false, Target: "es2020"}, opts)

	err = decodeOptions(core.Task{Name: "m", Options: map[string]any{"bogus": 1}}, &opts)
	toolErr := requireToolError(t, err)
	assert.Equal(t, "m", toolErr.Task)
	assert.Equal(t, "invalid options", toolErr.Message)
}

func TestClean(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "public/assets/css/theme.css", "x")

	task := core.Task{Name: "clean", Kind: core.KindClean, Files: core.FileSetSpec{Dest: filepath.Join(root, "public")}}
	job := newJob(t, root, task)
	require.NoError(t, run(t, job))
	assert.NoDirExists(t, filepath.Join(root, "public"))
	assert.Equal(t, 1, job.Written)

	// Already clean.
	job = newJob(t, root, task)
	require.NoError(t, run(t, job))
	assert.Equal(t, 0, job.Written)
}

func TestClean_RefusesOutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, outside, "keep.txt", "x")

	tests := []struct {
		name string
		dest string
		root string
	}{
		{"outside", outside, root},
		{"root itself", root, root},
		{"parent", filepath.Dir(root), root},
		{"no root", filepath.Join(root, "public"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &Job{
				Task: core.Task{Name: "clean", Kind: core.KindClean, Files: core.FileSetSpec{Dest: tt.dest}},
				Root: tt.root,
			}
			err := run(t, job)
			requireToolError(t, err)
			assert.FileExists(t, filepath.Join(outside, "keep.txt"))
			assert.DirExists(t, root)
		})
	}
}

func styleCompileTask(root string) core.Task {
	return core.Task{
		Name: "styles:compile",
		Kind: core.KindStyleCompile,
		Files: core.FileSetSpec{
			Base:    filepath.Join(root, "src/sass"),
			Include: []string{"**/*.scss"},
			Exclude: []string{"**/_*.scss"},
			Dest:    filepath.Join(root, "public/css"),
			Ext:     ".css",
		},
	}
}

func TestStyleCompile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/sass/_variables.scss", ".brand { color: rebeccapurple; }\n")
	writeFile(t, root, "src/sass/atoms/_button.scss", ".button { padding: 4px; }\n")
	writeFile(t, root, "src/sass/theme.scss", "@import \"variables\";\n@import \"atoms/button\";\n.page { margin: 0; }\n")

	job := newJob(t, root, styleCompileTask(root))
	require.Len(t, job.Files, 1)
	require.NoError(t, run(t, job))

	css := readFile(t, root, "public/css/theme.css")
	assert.Contains(t, css, ".brand")
	assert.Contains(t, css, "rebeccapurple")
	assert.Contains(t, css, ".button")
	assert.Contains(t, css, ".page")
	assert.NoFileExists(t, filepath.Join(root, "public/css/_variables.css"))
}

func TestStyleCompile_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/sass/theme.scss", ".page {\n  .title { font-weight: bold; }\n}\n")

	job := newJob(t, root, styleCompileTask(root))
	require.NoError(t, run(t, job))
	assert.Equal(t, 1, job.Written)
	first := readFile(t, root, "public/css/theme.css")

	job = newJob(t, root, styleCompileTask(root))
	require.NoError(t, run(t, job))
	assert.Equal(t, 0, job.Written)
	assert.Equal(t, first, readFile(t, root, "public/css/theme.css"))
}

func TestStyleCompile_Error(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/sass/theme.scss", "@import \"missing\";\n.page { margin: 0; }\n")

	err := run(t, newJob(t, root, styleCompileTask(root)))
	toolErr := requireToolError(t, err)
	assert.Equal(t, "styles:compile", toolErr.Task)
	assert.Equal(t, "src/sass/theme.scss", toolErr.File)
	assert.Equal(t, 1, toolErr.Line)
	assert.NoFileExists(t, filepath.Join(root, "public/css/theme.css"))
}

func TestStyleCompile_Command(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses cp")
	}
	root := t.TempDir()
	writeFile(t, root, "src/sass/theme.scss", ".page { margin: 0; }\n")

	task := styleCompileTask(root)
	task.Options = map[string]any{"compiler": "command", "command": `cp "$SRC" "$DEST"`}
	job := newJob(t, root, task)
	require.NoError(t, run(t, job))
	assert.Equal(t, ".page { margin: 0; }\n", readFile(t, root, "public/css/theme.css"))
	assert.NoFileExists(t, filepath.Join(root, "public/css/theme.css.tmp"))

	job = newJob(t, root, task)
	require.NoError(t, run(t, job))
	assert.Equal(t, 0, job.Written)

	task.Options = map[string]any{"compiler": "command", "command": "echo boom >&2; exit 3"}
	err := run(t, newJob(t, root, task))
	toolErr := requireToolError(t, err)
	assert.Contains(t, toolErr.Message, "status 3")
	assert.Contains(t, toolErr.Message, "boom")
}

func TestStyleCompile_UnknownCompiler(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/sass/theme.scss", ".page { margin: 0; }\n")

	task := styleCompileTask(root)
	task.Options = map[string]any{"compiler": "libsass"}
	toolErr := requireToolError(t, run(t, newJob(t, root, task)))
	assert.Contains(t, toolErr.Message, `unknown compiler "libsass"`)
}

func TestStyleCompile_SassSyntaxNeedsSass(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/sass/theme.scss",
		"/* $ignored in comments */\n$primary: #336699;\n@mixin pad($n) { padding: $n; }\n.btn { color: $primary; @include pad(4px); }\n")

	task := styleCompileTask(root)
	task.Options = map[string]any{"compiler": "esbuild"}
	toolErr := requireToolError(t, run(t, newJob(t, root, task)))
	assert.Equal(t, "src/sass/theme.scss", toolErr.File)
	assert.Equal(t, 2, toolErr.Line)
	assert.Equal(t, 1, toolErr.Column)
	assert.Contains(t, toolErr.Message, "$primary")
	assert.Contains(t, toolErr.Message, "needs a Sass compiler")
	assert.NoFileExists(t, filepath.Join(root, "public/css/theme.css"))
}

func TestStyleCompile_SassSyntaxInPartial(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/sass/_mixins.scss", ".a { color: red; }\n@mixin pad { padding: 0; }\n")
	writeFile(t, root, "src/sass/theme.scss", "@import \"mixins\";\n")

	task := styleCompileTask(root)
	task.Options = map[string]any{"compiler": "esbuild"}
	toolErr := requireToolError(t, run(t, newJob(t, root, task)))
	assert.Equal(t, "src/sass/_mixins.scss", toolErr.File)
	assert.Equal(t, 2, toolErr.Line)
}

func TestStyleCompile_LineComments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/sass/theme.scss",
		"// layout\n.page { margin: 0; } // trailing\n.logo { background: url(http://example.com/a.png); content: \"//\"; }\n")

	task := styleCompileTask(root)
	task.Options = map[string]any{"compiler": "esbuild"}
	require.NoError(t, run(t, newJob(t, root, task)))

	css := readFile(t, root, "public/css/theme.css")
	assert.NotContains(t, css, "layout")
	assert.NotContains(t, css, "trailing")
	assert.Contains(t, css, "http://example.com/a.png")
	assert.Contains(t, css, ".page")
}

func TestStyleCompile_DartSass(t *testing.T) {
	if _, err := exec.LookPath("sass"); err != nil {
		t.Skip("dart-sass not installed")
	}
	root := t.TempDir()
	writeFile(t, root, "src/sass/_mixins.scss", "@mixin pad($n) { padding: $n; }\n")
	writeFile(t, root, "src/sass/theme.scss",
		"@import \"mixins\";\n$primary: #336699;\n.btn { color: $primary; @include pad(4px); }\n")

	task := styleCompileTask(root)
	task.Options = map[string]any{"compiler": "dartsass"}
	require.NoError(t, run(t, newJob(t, root, task)))

	css := readFile(t, root, "public/css/theme.css")
	assert.Contains(t, css, "color: #336699")
	assert.Contains(t, css, "padding: 4px")
	assert.NotContains(t, css, "$primary")

	writeFile(t, root, "src/sass/theme.scss", ".btn {\n  color: $missing;\n}\n")
	toolErr := requireToolError(t, run(t, newJob(t, root, task)))
	assert.Equal(t, "src/sass/theme.scss", toolErr.File)
	assert.Equal(t, 2, toolErr.Line)
	assert.Equal(t, 10, toolErr.Column)
}

func TestSassOnlySyntax(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{".a { color: red; }", false},
		{`a[href$="pdf"] { color: red; }`, false},
		{"@keyframes k { 50% { opacity: 0; } }", false},
		{".a { background: url(img/$icon.png); }", false},
		{`.a::after { content: "$price @include"; }`, false},
		{"/* @mixin m {} */ .a {}", false},
		{"// $x: 1;\n.a {}", false},
		{"$x: 1;", true},
		{".a { @extend .b; }", true},
		{".a-#{$side} {}", true},
		{"%placeholder { color: red; }", true},
		{"@use 'sass:math';", true},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, masked := maskSass([]byte(tt.source))
			assert.Equal(t, tt.want, sassOnly.Match(masked))
		})
	}
}

func TestResolveCompiler(t *testing.T) {
	assert.Equal(t, CompilerEsbuild, resolveCompiler(StyleCompileOptions{Compiler: CompilerAuto, SassBinary: "leapsite-no-such-sass"}))
	assert.Equal(t, CompilerCommand, resolveCompiler(StyleCompileOptions{Compiler: CompilerCommand}))
	assert.Equal(t, CompilerDartSass, resolveCompiler(StyleCompileOptions{Compiler: CompilerDartSass, SassBinary: "leapsite-no-such-sass"}))
}

func TestStyleCompile_DartSassMissing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/sass/theme.scss", ".page { margin: 0; }\n")

	task := styleCompileTask(root)
	task.Options = map[string]any{"compiler": "dartsass", "sass_binary": "leapsite-no-such-sass"}
	toolErr := requireToolError(t, run(t, newJob(t, root, task)))
	assert.Contains(t, toolErr.Message, "dart-sass not found")
}

func TestStyleMinify(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "public/css/theme.css", ".a {\n  color: #ff0000;\n}\n\n.b {\n  margin: 0px;\n}\n")
	writeFile(t, root, "public/css/vendor.min.css", ".v{}")

	task := core.Task{
		Name: "styles:minify",
		Kind: core.KindStyleMinify,
		Files: core.FileSetSpec{
			Base:    filepath.Join(root, "public/css"),
			Include: []string{"**/*.css"},
			Exclude: []string{"**/*.min.css"},
			Dest:    filepath.Join(root, "public/css"),
			Ext:     ".min.css",
		},
	}
	job := newJob(t, root, task)
	require.Len(t, job.Files, 1)
	require.NoError(t, run(t, job))

	min := readFile(t, root, "public/css/theme.min.css")
	assert.Contains(t, min, ".a{color:")
	assert.Contains(t, min, ".b{margin:0}")
	assert.NotContains(t, min, "\n  ")
	assert.Equal(t, ".v{}", readFile(t, root, "public/css/vendor.min.css"))
}

func TestStylePostprocess(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "public/css/theme.css", ".a {\n  user-select: none;\n}\n")

	task := core.Task{
		Name: "styles:prefix",
		Kind: core.KindStylePostprocess,
		Files: core.FileSetSpec{
			Base:    filepath.Join(root, "public/css"),
			Include: []string{"*.css"},
			Dest:    filepath.Join(root, "public/css"),
		},
	}
	job := newJob(t, root, task)
	require.NoError(t, run(t, job))
	assert.Contains(t, readFile(t, root, "public/css/theme.css"), "-webkit-user-select: none")

	// Prefixing an already prefixed sheet changes nothing.
	job = newJob(t, root, task)
	require.NoError(t, run(t, job))
	assert.Equal(t, 0, job.Written)

	task.Options = map[string]any{"browsers": []string{"netscape4"}}
	toolErr := requireToolError(t, run(t, newJob(t, root, task)))
	assert.Equal(t, "invalid options", toolErr.Message)
}

func scriptBundleTask(root string) core.Task {
	return core.Task{
		Name: "scripts:bundle",
		Kind: core.KindScriptBundle,
		Files: core.FileSetSpec{
			Base:    filepath.Join(root, "src/js"),
			Include: []string{"app.js"},
			Dest:    filepath.Join(root, "public/js"),
			Ext:     ".bundle.js",
		},
	}
}

func TestScriptBundle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/js/util.js", "export function greet(name) {\n  return 'hello from util ' + name;\n}\n")
	writeFile(t, root, "src/js/app.js", "import { greet } from './util.js';\ndocument.title = greet('site');\n")

	job := newJob(t, root, scriptBundleTask(root))
	require.NoError(t, run(t, job))

	js := readFile(t, root, "public/js/app.bundle.js")
	assert.Contains(t, js, "hello from util")
	assert.Contains(t, js, "document.title")
	assert.NotContains(t, js, "import ")
	assert.NoFileExists(t, filepath.Join(root, "public/js/util.bundle.js"))

	job = newJob(t, root, scriptBundleTask(root))
	require.NoError(t, run(t, job))
	assert.Equal(t, 0, job.Written)
}

func TestScriptBundle_Error(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/js/app.js", "import { nope } from './missing.js';\nnope();\n")

	toolErr := requireToolError(t, run(t, newJob(t, root, scriptBundleTask(root))))
	assert.Equal(t, "src/js/app.js", toolErr.File)
	assert.Equal(t, 1, toolErr.Line)
	assert.Contains(t, toolErr.Message, "missing.js")
}

func TestScriptMinify(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "public/js/app.js", "function add(first, second) {\n  return first + second;\n}\nwindow.total = add(1, 2);\n")

	task := core.Task{
		Name: "scripts:minify",
		Kind: core.KindScriptMinify,
		Files: core.FileSetSpec{
			Base:    filepath.Join(root, "public/js"),
			Include: []string{"*.js"},
			Exclude: []string{"*.min.js"},
			Dest:    filepath.Join(root, "public/js"),
			Ext:     ".min.js",
		},
	}
	job := newJob(t, root, task)
	require.NoError(t, run(t, job))

	min := readFile(t, root, "public/js/app.min.js")
	assert.NotContains(t, min, "second")
	assert.Contains(t, min, "window.total")
	assert.Less(t, len(min), len(readFile(t, root, "public/js/app.js")))
}

func TestTemplateRender(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/data.json", `{"site": {"title": "Demo", "year": 2024}}`)
	writeFile(t, root, "src/views/_layout.njk", "<title>{{ site.title }}</title>{% block body %}{% endblock %}")
	writeFile(t, root, "src/views/pages/about/team.njk",
		"{% extends \"_layout.njk\" %}{% block body %}<p>{{ page.name }} {{ page.url }} {{ site.year }}</p>{% endblock %}")

	task := core.Task{
		Name: "views:render",
		Kind: core.KindTemplateRender,
		Files: core.FileSetSpec{
			Base:       filepath.Join(root, "src/views"),
			Include:    []string{"**/*.njk"},
			Exclude:    []string{"**/_*"},
			Dest:       filepath.Join(root, "public/views"),
			Ext:        ".html",
			Rename:     fileset.Flatten,
			RenameName: "flatten",
		},
		Options: map[string]any{"data": "src/data.json"},
	}
	job := newJob(t, root, task)
	require.NoError(t, run(t, job))
	assert.Equal(t, "<title>Demo</title><p>team pages/team.html 2024</p>",
		readFile(t, root, "public/views/pages/team.html"))

	job = newJob(t, root, task)
	require.NoError(t, run(t, job))
	assert.Equal(t, 0, job.Written)
}

func TestTemplateRender_MissingData(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/views/index.html", "<h1>{{ title | default(\"Untitled\") }}</h1>")

	task := core.Task{
		Name:    "views:render",
		Kind:    core.KindTemplateRender,
		Files:   core.FileSetSpec{Base: filepath.Join(root, "src/views"), Include: []string{"*.html"}, Dest: filepath.Join(root, "public")},
		Options: map[string]any{"data": "src/missing.json"},
	}
	logger, logs := testutil.NewCaptureLogger()
	job := newJob(t, root, task)
	job.Logger = logger
	require.NoError(t, run(t, job))
	assert.Equal(t, "<h1>Untitled</h1>", readFile(t, root, "public/index.html"))
	assert.Contains(t, logs.String(), "template data file not found")
}

func TestTemplateRender_Error(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/views/index.html", "<p>ok</p>\n{% if site %}\n<p>never closed</p>\n")

	task := core.Task{
		Name:  "views:render",
		Kind:  core.KindTemplateRender,
		Files: core.FileSetSpec{Base: filepath.Join(root, "src/views"), Include: []string{"*.html"}, Dest: filepath.Join(root, "public")},
	}
	toolErr := requireToolError(t, run(t, newJob(t, root, task)))
	assert.Equal(t, "src/views/index.html", toolErr.File)
	assert.Equal(t, 2, toolErr.Line)
	assert.NoFileExists(t, filepath.Join(root, "public/index.html"))
}

func TestLintStyle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/sass/theme.scss", "#header {\n  color: red;\n}\n")
	writeFile(t, root, "src/sass/vendor/reset.scss", "#x { color: red !important; }\n")
	writeFile(t, root, ".sass-lint.yml", "files:\n  ignore: vendor/**\nrules:\n  no-ids: 2\n")

	task := core.Task{
		Name:    "lint:styles",
		Kind:    core.KindLintStyle,
		Files:   core.FileSetSpec{Base: filepath.Join(root, "src/sass"), Include: []string{"**/*.scss"}},
		Options: map[string]any{"config": ".sass-lint.yml"},
	}
	job := newJob(t, root, task)
	toolErr := requireToolError(t, run(t, job))
	assert.Equal(t, "src/sass/theme.scss", toolErr.File)
	assert.Equal(t, 1, toolErr.Line)
	assert.Contains(t, toolErr.Message, "(no-ids)")
	assert.NoDirExists(t, filepath.Join(root, "public"))

	for _, d := range job.Diagnostics {
		assert.NotEqual(t, "src/sass/vendor/reset.scss", d.File)
	}
}

func TestLintStyle_SassLintConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/assets/sass/theme.scss", ".a {\n  color: red !important;\n}\n")
	writeFile(t, root, "src/assets/sass/vendor/reset.scss", "#x { color: red; }\n")
	writeFile(t, root, ".sass-lint.yml", `options:
  formatter: stylish
files:
  include: 'src/assets/sass/**/*.s+(a|c)ss'
  ignore:
    - 'src/assets/sass/vendor/**'
rules:
  indentation: [1, {size: 2}]
  quotes: [1, {style: single}]
  no-ids: 2
`)

	task := core.Task{
		Name:    "lint:styles",
		Kind:    core.KindLintStyle,
		Files:   core.FileSetSpec{Base: filepath.Join(root, "src/assets/sass"), Include: []string{"**/*.scss"}},
		Options: map[string]any{"config": ".sass-lint.yml"},
	}
	logger, logs := testutil.NewCaptureLogger()
	job := newJob(t, root, task)
	job.Logger = logger
	require.NoError(t, run(t, job))
	require.Len(t, job.Diagnostics, 1)
	assert.Equal(t, "no-important", job.Diagnostics[0].RuleID)
	assert.Equal(t, "src/assets/sass/theme.scss", job.Diagnostics[0].File)
	assert.Contains(t, logs.String(), `unknown rule \"indentation\" skipped`)
	assert.Contains(t, logs.String(), `unknown rule \"quotes\" skipped`)
}

func TestLintStyle_WarningsPass(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/sass/theme.scss", ".a {\n  color: red !important;\n}\n")

	task := core.Task{
		Name:  "lint:styles",
		Kind:  core.KindLintStyle,
		Files: core.FileSetSpec{Base: filepath.Join(root, "src/sass"), Include: []string{"**/*.scss"}},
		// Missing config file means default rules.
		Options: map[string]any{"config": ".sass-lint.yml"},
	}
	logger, logs := testutil.NewCaptureLogger()
	job := newJob(t, root, task)
	job.Logger = logger
	require.NoError(t, run(t, job))
	require.Len(t, job.Diagnostics, 1)
	assert.Equal(t, "no-important", job.Diagnostics[0].RuleID)
	assert.Contains(t, logs.String(), "src/sass/theme.scss:2:")

	task.Options["fail_on_warning"] = true
	toolErr := requireToolError(t, run(t, newJob(t, root, task)))
	assert.Contains(t, toolErr.Message, "(no-important)")
}

func TestLintScript(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantErr  bool
		wantLine int
		wantRule string
	}{
		{name: "clean", source: "const x = 1;\nexport default x;\n"},
		{name: "debugger", source: "const x = 1;\ndebugger;\n", wantErr: true, wantLine: 2, wantRule: "no-debugger"},
		{name: "syntax", source: "function f( {\n", wantErr: true, wantLine: 2, wantRule: "syntax"},
		{name: "console is a warning", source: "console.log('hi');\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, root, "src/js/app.js", tt.source)
			task := core.Task{
				Name:  "lint:scripts",
				Kind:  core.KindLintScript,
				Files: core.FileSetSpec{Base: filepath.Join(root, "src/js"), Include: []string{"**/*.js"}},
			}
			err := run(t, newJob(t, root, task))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			toolErr := requireToolError(t, err)
			assert.Equal(t, "lint:scripts", toolErr.Task)
			assert.Equal(t, "src/js/app.js", toolErr.File)
			assert.Equal(t, tt.wantLine, toolErr.Line)
			assert.Contains(t, toolErr.Message, "("+tt.wantRule+")")
		})
	}
}

func TestParseEngines(t *testing.T) {
	engines, err := parseEngines([]string{"chrome58", " Safari11.1 "})
	require.NoError(t, err)
	require.Len(t, engines, 2)
	assert.Equal(t, "58", engines[0].Version)
	assert.Equal(t, "11.1", engines[1].Version)

	_, err = parseEngines([]string{"chrome"})
	assert.Error(t, err)
	_, err = parseEngines([]string{"mosaic2"})
	assert.ErrorContains(t, err, `unknown browser "mosaic"`)
}

func TestPartialCandidates(t *testing.T) {
	assert.Equal(t, []string{
		"atoms/button.scss",
		"atoms/_button.scss",
		"atoms/button.css",
		"atoms/button/_index.scss",
		"atoms/button/index.scss",
	}, partialCandidates("atoms/button"))
	assert.Equal(t, []string{"reset.css", "_reset.css"}, partialCandidates("reset.css"))
}
