package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bep/godartsass/v2"
	"github.com/evanw/esbuild/pkg/api"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/leapstack-labs/leapsite/pkg/core"
)

// Style compilers.
const (
	// CompilerAuto uses dart-sass when its binary is on PATH and esbuild otherwise.
	CompilerAuto     = "auto"
	CompilerDartSass = "dartsass"
	CompilerEsbuild  = "esbuild"
	CompilerCommand  = "command"
)

// DefaultBrowsers are the postprocess targets when none are configured.
var DefaultBrowsers = []string{"chrome58", "edge16", "firefox57", "safari11"}

// StyleCompileOptions configures style-compile.
type StyleCompileOptions struct {
	// Compiler is "auto" (default), "dartsass", "esbuild" or "command".
	Compiler string `mapstructure:"compiler"`
	// SassBinary is the dart-sass executable. Defaults to "sass" on PATH.
	SassBinary string `mapstructure:"sass_binary"`
	// Command is a shell command line run per file with SRC and DEST set.
	Command string `mapstructure:"command"`
	// LoadPaths are extra directories searched by @import.
	LoadPaths []string `mapstructure:"load_paths"`
	// Sourcemap inlines a source map into each stylesheet.
	Sourcemap bool `mapstructure:"sourcemap"`
}

// StyleCompileRunner compiles SCSS entry points to CSS.
type StyleCompileRunner struct{}

// Kind implements Runner.
func (StyleCompileRunner) Kind() core.TaskKind { return core.KindStyleCompile }

// Run compiles each file pair.
func (StyleCompileRunner) Run(ctx context.Context, job *Job) error {
	opts := StyleCompileOptions{Compiler: CompilerAuto}
	if err := decodeOptions(job.Task, &opts); err != nil {
		return err
	}
	compiler := resolveCompiler(opts)
	job.Logger.Debug("compiling styles", "task", job.Task.Name, "compiler", compiler, "files", len(job.Files))

	var sass *godartsass.Transpiler
	if compiler == CompilerDartSass && len(job.Files) > 0 {
		var err error
		if sass, err = job.startSass(opts); err != nil {
			return err
		}
		defer func() { _ = sass.Close() }()
		if opts.Sourcemap {
			job.Logger.Warn("sourcemap is not written for dart-sass output", "task", job.Task.Name)
		}
	}

	for _, pair := range job.Files {
		if err := ctx.Err(); err != nil {
			return err
		}

		var css []byte
		var err error
		switch compiler {
		case CompilerDartSass:
			css, err = job.compileWithSass(sass, pair.Src, opts)
		case CompilerEsbuild:
			css, err = job.compileWithEsbuild(pair.Src, pair.Dest, opts)
		case CompilerCommand:
			css, err = job.compileWithCommand(ctx, pair.Src, pair.Dest, opts.Command)
		default:
			return &core.ToolError{Task: job.Task.Name, Message: fmt.Sprintf("unknown compiler %q", opts.Compiler)}
		}
		if err != nil {
			return job.fail(pair.Src, err)
		}

		if err := job.writeOutput(pair.Dest, css); err != nil {
			return job.fail(pair.Dest, err)
		}
	}
	return nil
}

func (j *Job) compileWithEsbuild(src, dest string, opts StyleCompileOptions) ([]byte, error) {
	sourcemap := api.SourceMapNone
	if opts.Sourcemap {
		sourcemap = api.SourceMapInline
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{src},
		Bundle:        true,
		Write:         false,
		Outfile:       dest,
		AbsWorkingDir: j.Root,
		Loader: map[string]api.Loader{
			".scss": api.LoaderCSS,
			".css":  api.LoaderCSS,
		},
		External:  assetExternals,
		Plugins:   []api.Plugin{sassPartials(j.loadPaths(opts)), plainSass},
		Sourcemap: sourcemap,
		LogLevel:  api.LogLevelSilent,
	})
	if err := j.messagesError(src, result.Errors); err != nil {
		return nil, err
	}
	j.logWarnings(result.Warnings)

	return pickOutput(result.OutputFiles, ".css")
}

// loadPaths returns the configured @import search directories as absolute paths.
func (j *Job) loadPaths(opts StyleCompileOptions) []string {
	paths := make([]string, 0, len(opts.LoadPaths))
	for _, p := range opts.LoadPaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(j.Root, p)
		}
		paths = append(paths, p)
	}
	return paths
}

// sassPartials resolves @import the way sass does: "x" finds x.scss,
// _x.scss, x.css or x/_index.scss next to the importer, then in loadPaths.
func sassPartials(loadPaths []string) api.Plugin {
	return api.Plugin{
		Name: "sass-partials",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `.*`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Kind != api.ResolveCSSImportRule || strings.Contains(args.Path, "://") {
						return api.OnResolveResult{}, nil
					}
					dirs := append([]string{args.ResolveDir}, loadPaths...)
					for _, dir := range dirs {
						if found := findPartial(dir, args.Path); found != "" {
							return api.OnResolveResult{Path: found}, nil
						}
					}
					return api.OnResolveResult{}, nil
				})
		},
	}
}

// partialCandidates lists the file names a sass import may refer to.
func partialCandidates(importPath string) []string {
	dir, name := path.Split(filepath.ToSlash(importPath))
	if ext := path.Ext(name); ext == ".scss" || ext == ".css" {
		return []string{dir + name, dir + "_" + name}
	}
	return []string{
		dir + name + ".scss",
		dir + "_" + name + ".scss",
		dir + name + ".css",
		dir + name + "/_index.scss",
		dir + name + "/index.scss",
	}
}

func findPartial(dir, importPath string) string {
	if dir == "" {
		return ""
	}
	for _, candidate := range partialCandidates(importPath) {
		full := filepath.Join(dir, filepath.FromSlash(candidate))
		if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
			return full
		}
	}
	return ""
}

// compileWithCommand runs the configured command line through the shell
// interpreter. The command writes to a temporary DEST that is then moved
// into place only when its content changed.
func (j *Job) compileWithCommand(ctx context.Context, src, dest, command string) ([]byte, error) {
	if strings.TrimSpace(command) == "" {
		return nil, errors.New(`compiler "command" needs a command line`)
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(command), "command")
	if err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}

	tmp := dest + ".tmp"
	defer os.Remove(tmp)

	var stdout, stderr bytes.Buffer
	env := append(os.Environ(), "SRC="+src, "DEST="+tmp)
	runner, err := interp.New(
		interp.Dir(j.Root),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, &stdout, &stderr),
		interp.Params("-e"),
	)
	if err != nil {
		return nil, fmt.Errorf("init shell: %w", err)
	}

	if err := runner.Run(ctx, file); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = strings.TrimSpace(stdout.String())
			}
			return nil, &core.ToolError{
				Task:    j.Task.Name,
				File:    j.display(src),
				Message: fmt.Sprintf("command exited with status %d: %s", status, msg),
				Err:     err,
			}
		}
		return nil, err
	}

	out, err := os.ReadFile(tmp)
	if err != nil {
		return nil, fmt.Errorf("command wrote no output: %w", err)
	}
	return out, nil
}

// StyleMinifyRunner minifies stylesheets.
type StyleMinifyRunner struct{}

// Kind implements Runner.
func (StyleMinifyRunner) Kind() core.TaskKind { return core.KindStyleMinify }

// Run minifies each file pair.
func (StyleMinifyRunner) Run(ctx context.Context, job *Job) error {
	var opts struct{}
	if err := decodeOptions(job.Task, &opts); err != nil {
		return err
	}
	return job.transformEach(ctx, func(src []byte, name string) api.TransformResult {
		return api.Transform(string(src), api.TransformOptions{
			Loader:            api.LoaderCSS,
			Sourcefile:        name,
			MinifyWhitespace:  true,
			MinifySyntax:      true,
			MinifyIdentifiers: true,
			LogLevel:          api.LogLevelSilent,
		})
	})
}

// StylePostprocessOptions configures style-postprocess.
type StylePostprocessOptions struct {
	Browsers []string `mapstructure:"browsers"`
}

// StylePostprocessRunner lowers stylesheets for the configured browsers,
// adding vendor prefixes where they need them.
type StylePostprocessRunner struct{}

// Kind implements Runner.
func (StylePostprocessRunner) Kind() core.TaskKind { return core.KindStylePostprocess }

// Run postprocesses each file pair.
func (StylePostprocessRunner) Run(ctx context.Context, job *Job) error {
	opts := StylePostprocessOptions{Browsers: DefaultBrowsers}
	if err := decodeOptions(job.Task, &opts); err != nil {
		return err
	}
	engines, err := parseEngines(opts.Browsers)
	if err != nil {
		return &core.ToolError{Task: job.Task.Name, Message: "invalid options", Err: err}
	}

	return job.transformEach(ctx, func(src []byte, name string) api.TransformResult {
		return api.Transform(string(src), api.TransformOptions{
			Loader:     api.LoaderCSS,
			Sourcefile: name,
			Engines:    engines,
			LogLevel:   api.LogLevelSilent,
		})
	})
}

// transformEach reads every source, transforms it and writes the result.
func (j *Job) transformEach(ctx context.Context, transform func(src []byte, name string) api.TransformResult) error {
	for _, pair := range j.Files {
		if err := ctx.Err(); err != nil {
			return err
		}

		src, err := os.ReadFile(pair.Src)
		if err != nil {
			return j.fail(pair.Src, err)
		}

		result := transform(src, j.display(pair.Src))
		if err := j.messagesError(pair.Src, result.Errors); err != nil {
			return err
		}
		j.logWarnings(result.Warnings)

		if err := j.writeOutput(pair.Dest, result.Code); err != nil {
			return j.fail(pair.Dest, err)
		}
	}
	return nil
}
