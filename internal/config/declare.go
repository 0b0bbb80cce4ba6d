package config

import (
	"fmt"
	"path/filepath"

	"github.com/leapstack-labs/leapsite/internal/fileset"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

// Task names.
const (
	TaskClean         = "clean"
	TaskLintStyles    = "lint:styles"
	TaskLintScripts   = "lint:scripts"
	TaskScriptsBundle = "scripts:bundle"
	TaskScriptsMinify = "scripts:minify"
	TaskStylesCompile = "styles:compile"
	TaskStylesMinify  = "styles:minify"
	TaskStylesPrefix  = "styles:prefix"
	TaskViewsRender   = "views:render"
)

// Watch rule names.
const (
	WatchStyles  = "styles"
	WatchScripts = "scripts"
	WatchViews   = "views"
)

// BuildOrder is the task order shared by build:dev and build:prod.
var BuildOrder = []string{
	TaskClean,
	TaskLintStyles,
	TaskLintScripts,
	TaskScriptsBundle,
	TaskScriptsMinify,
	TaskStylesCompile,
	TaskStylesMinify,
	TaskStylesPrefix,
	TaskViewsRender,
}

// Paths are the absolute source and output directories of a layout.
type Paths struct {
	Root      string
	Src       string
	Public    string
	SassSrc   string
	ScriptSrc string
	ViewSrc   string
	CSSOut    string
	ScriptOut string
	ViewOut   string
}

// ResolvePaths anchors the layout at root.
func ResolvePaths(root string, layout Layout) (Paths, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Paths{}, fmt.Errorf("resolve project root: %w", err)
	}
	src := anchor(abs, layout.SrcDir)
	public := anchor(abs, layout.PublicDir)
	return Paths{
		Root:      abs,
		Src:       src,
		Public:    public,
		SassSrc:   filepath.Join(src, "assets", "sass"),
		ScriptSrc: filepath.Join(src, "assets", "js"),
		ViewSrc:   filepath.Join(src, "views"),
		CSSOut:    filepath.Join(public, "assets", "css"),
		ScriptOut: filepath.Join(public, "assets", "js"),
		ViewOut:   filepath.Join(public, "views"),
	}, nil
}

func anchor(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// Declare builds the project's task, pipeline and watch declaration.
// The result is validated and must be treated as read-only.
func Declare(root string, layout Layout) (*core.BuildConfig, error) {
	layout.ApplyDefaults()
	p, err := ResolvePaths(root, layout)
	if err != nil {
		return nil, err
	}

	styleCompile := map[string]any{
		"compiler":    layout.Styles.Compiler,
		"sass_binary": layout.Styles.SassBinary,
	}
	if layout.Styles.Command != "" {
		styleCompile["command"] = layout.Styles.Command
	}

	cfg := &core.BuildConfig{
		Root: p.Root,
		Tasks: []core.Task{
			{
				Name:  TaskClean,
				Kind:  core.KindClean,
				Files: core.FileSetSpec{Dest: p.Public},
			},
			{
				Name: TaskLintStyles,
				Kind: core.KindLintStyle,
				Files: core.FileSetSpec{
					Base:    p.SassSrc,
					Include: []string{"**/*.scss"},
					Exclude: []string{"vendor/**"},
				},
				Options: map[string]any{"config": layout.StyleLintConfig},
			},
			{
				Name: TaskLintScripts,
				Kind: core.KindLintScript,
				Files: core.FileSetSpec{
					Base:    p.ScriptSrc,
					Include: []string{"*.js"},
				},
				Options: map[string]any{"config": layout.ScriptLintConfig},
			},
			{
				Name: TaskScriptsBundle,
				Kind: core.KindScriptBundle,
				Files: core.FileSetSpec{
					Base:    p.ScriptSrc,
					Include: []string{"*.js"},
					Dest:    p.ScriptOut,
					Ext:     ".js",
				},
				Options: map[string]any{
					"target":    layout.Scripts.Target,
					"sourcemap": layout.Scripts.Sourcemap,
				},
			},
			{
				Name: TaskScriptsMinify,
				Kind: core.KindScriptMinify,
				Files: core.FileSetSpec{
					Base:    p.ScriptOut,
					Include: []string{"*.js"},
					Exclude: []string{"*.min.js"},
					Dest:    p.ScriptOut,
					Ext:     ".min.js",
				},
				Options: map[string]any{"compress": true, "target": layout.Scripts.Target},
			},
			{
				Name: TaskStylesCompile,
				Kind: core.KindStyleCompile,
				Files: core.FileSetSpec{
					Base:    p.SassSrc,
					Include: []string{"**/*.scss"},
					Exclude: []string{"**/_*.scss"},
					Dest:    p.CSSOut,
					Ext:     ".css",
				},
				Options: styleCompile,
			},
			{
				Name: TaskStylesMinify,
				Kind: core.KindStyleMinify,
				Files: core.FileSetSpec{
					Base:    p.Public,
					Include: []string{"**/*.css"},
					Exclude: []string{"**/*.min.css"},
					Dest:    p.Public,
					Ext:     ".min.css",
				},
			},
			{
				Name: TaskStylesPrefix,
				Kind: core.KindStylePostprocess,
				Files: core.FileSetSpec{
					Base:    p.CSSOut,
					Include: []string{"**/*.css"},
					Exclude: []string{"**/*.min.css"},
					Dest:    p.CSSOut,
				},
				Options: map[string]any{"browsers": layout.Styles.Browsers},
			},
			{
				Name: TaskViewsRender,
				Kind: core.KindTemplateRender,
				Files: core.FileSetSpec{
					Base:       p.ViewSrc,
					Include:    []string{"**/*.njk"},
					Exclude:    []string{"**/_*.njk"},
					Dest:       p.ViewOut,
					Ext:        ".html",
					Rename:     fileset.Flatten,
					RenameName: "flatten",
				},
				Options: map[string]any{
					"data":         layout.DataFile,
					"search_paths": []string{p.ViewSrc},
					"autoescape":   layout.Templates.Autoescape,
				},
			},
		},
		Pipelines: []core.Pipeline{
			{Name: core.PipelineDev, Tasks: append([]string(nil), BuildOrder...), Serve: true},
			{Name: core.PipelineProd, Tasks: append([]string(nil), BuildOrder...)},
		},
		WatchRules: []core.WatchRule{
			{
				Name:     WatchStyles,
				Patterns: []string{watchGlob(p, p.SassSrc, "**/*.scss")},
				Tasks:    []string{TaskLintStyles, TaskStylesCompile, TaskStylesMinify, TaskStylesPrefix},
				Reload:   true,
			},
			{
				Name:     WatchScripts,
				Patterns: []string{watchGlob(p, p.ScriptSrc, "**/*.js")},
				Tasks:    []string{TaskLintScripts, TaskScriptsBundle, TaskScriptsMinify},
				Reload:   true,
			},
			{
				Name:     WatchViews,
				Patterns: []string{watchGlob(p, p.Src, "**/*.html"), watchGlob(p, p.Src, "**/*.njk")},
				Tasks:    []string{TaskViewsRender},
				Reload:   true,
			},
		},
		ServeRoots: []string{p.Public, p.ViewOut},
		WatchDirs:  []string{p.Src},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build declaration: %w", err)
	}
	return cfg, nil
}

// watchGlob expresses glob under dir relative to the project root.
func watchGlob(p Paths, dir, glob string) string {
	rel, err := filepath.Rel(p.Root, dir)
	if err != nil || rel == "." {
		return glob
	}
	return filepath.ToSlash(rel) + "/" + glob
}
