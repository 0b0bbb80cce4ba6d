package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/leapstack-labs/leapsite/pkg/core"
)

// ScriptBundleOptions configures script-bundle.
type ScriptBundleOptions struct {
	// Target is the language level output is lowered to.
	Target string `mapstructure:"target"`
	// Sourcemap inlines a source map into each bundle.
	Sourcemap bool `mapstructure:"sourcemap"`
	// GlobalName exposes the IIFE's exports under this name.
	GlobalName string `mapstructure:"global_name"`
	// Define replaces global identifiers with constant expressions.
	Define map[string]string `mapstructure:"define"`
	// External leaves these imports unbundled.
	External []string `mapstructure:"external"`
}

// ScriptBundleRunner bundles each entry script with its imports into one IIFE.
type ScriptBundleRunner struct{}

// Kind implements Runner.
func (ScriptBundleRunner) Kind() core.TaskKind { return core.KindScriptBundle }

// Run bundles each file pair.
func (ScriptBundleRunner) Run(ctx context.Context, job *Job) error {
	opts := ScriptBundleOptions{Target: "es2015"}
	if err := decodeOptions(job.Task, &opts); err != nil {
		return err
	}
	target, err := parseTarget(opts.Target)
	if err != nil {
		return &core.ToolError{Task: job.Task.Name, Message: "invalid options", Err: err}
	}

	sourcemap := api.SourceMapNone
	if opts.Sourcemap {
		sourcemap = api.SourceMapInline
	}

	for _, pair := range job.Files {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := api.Build(api.BuildOptions{
			EntryPoints:   []string{pair.Src},
			Bundle:        true,
			Write:         false,
			Outfile:       pair.Dest,
			AbsWorkingDir: job.Root,
			Platform:      api.PlatformBrowser,
			Format:        api.FormatIIFE,
			GlobalName:    opts.GlobalName,
			Target:        target,
			Define:        opts.Define,
			External:      opts.External,
			Sourcemap:     sourcemap,
			TreeShaking:   api.TreeShakingTrue,
			LogLevel:      api.LogLevelSilent,
		})
		if err := job.messagesError(pair.Src, result.Errors); err != nil {
			return err
		}
		job.logWarnings(result.Warnings)

		js, err := pickOutput(result.OutputFiles, ".js")
		if err != nil {
			return job.fail(pair.Src, err)
		}
		if err := job.writeOutput(pair.Dest, js); err != nil {
			return job.fail(pair.Dest, err)
		}
	}
	return nil
}

func pickOutput(files []api.OutputFile, ext string) ([]byte, error) {
	for _, out := range files {
		if strings.HasSuffix(out.Path, ext) {
			return out.Contents, nil
		}
	}
	return nil, errors.New("bundler produced no " + ext + " output")
}

// ScriptMinifyOptions configures script-minify.
type ScriptMinifyOptions struct {
	// Compress removes whitespace and rewrites syntax into shorter forms.
	Compress bool `mapstructure:"compress"`
	// Mangle shortens local identifiers.
	Mangle bool `mapstructure:"mangle"`
	// Target is the language level the output must stay within.
	Target string `mapstructure:"target"`
}

// ScriptMinifyRunner minifies scripts.
type ScriptMinifyRunner struct{}

// Kind implements Runner.
func (ScriptMinifyRunner) Kind() core.TaskKind { return core.KindScriptMinify }

// Run minifies each file pair.
func (ScriptMinifyRunner) Run(ctx context.Context, job *Job) error {
	opts := ScriptMinifyOptions{Compress: true, Mangle: true, Target: "es2015"}
	if err := decodeOptions(job.Task, &opts); err != nil {
		return err
	}
	target, err := parseTarget(opts.Target)
	if err != nil {
		return &core.ToolError{Task: job.Task.Name, Message: fmt.Sprintf("invalid options: %v", err), Err: err}
	}

	return job.transformEach(ctx, func(src []byte, name string) api.TransformResult {
		return api.Transform(string(src), api.TransformOptions{
			Loader:            api.LoaderJS,
			Sourcefile:        name,
			Target:            target,
			MinifyWhitespace:  opts.Compress,
			MinifySyntax:      opts.Compress,
			MinifyIdentifiers: opts.Mangle,
			LogLevel:          api.LogLevelSilent,
		})
	})
}
