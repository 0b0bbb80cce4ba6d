package tasks

import (
	"bytes"
	"errors"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bep/godartsass/v2"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/leapstack-labs/leapsite/pkg/core"
)

const (
	defaultSassBinary = "sass"
	sassTimeout       = 30 * time.Second
)

func sassBinary(opts StyleCompileOptions) string {
	if opts.SassBinary != "" {
		return opts.SassBinary
	}
	return defaultSassBinary
}

// resolveCompiler settles "auto" on dart-sass when its binary is found.
func resolveCompiler(opts StyleCompileOptions) string {
	if opts.Compiler != CompilerAuto {
		return opts.Compiler
	}
	if _, err := exec.LookPath(sassBinary(opts)); err == nil {
		return CompilerDartSass
	}
	return CompilerEsbuild
}

// startSass launches one embedded dart-sass process for the job.
func (j *Job) startSass(opts StyleCompileOptions) (*godartsass.Transpiler, error) {
	binary, err := exec.LookPath(sassBinary(opts))
	if err != nil {
		return nil, &core.ToolError{Task: j.Task.Name, Message: "dart-sass not found: " + sassBinary(opts), Err: err}
	}
	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: binary,
		Timeout:                  sassTimeout,
		LogEventHandler: func(e godartsass.LogEvent) {
			j.Logger.Warn("sass warning", "task", j.Task.Name, "message", e.Message)
		},
	})
	if err != nil {
		return nil, &core.ToolError{Task: j.Task.Name, Message: "starting dart-sass", Err: err}
	}
	return t, nil
}

func (j *Job) compileWithSass(t *godartsass.Transpiler, src string, opts StyleCompileOptions) ([]byte, error) {
	source, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return nil, err
	}

	result, err := t.Execute(godartsass.Args{
		Source:       string(source),
		URL:          fileURL(abs),
		SourceSyntax: godartsass.SourceSyntaxSCSS,
		OutputStyle:  godartsass.OutputStyleExpanded,
		IncludePaths: append([]string{filepath.Dir(abs)}, j.loadPaths(opts)...),
	})
	if err != nil {
		var sassErr godartsass.SassError
		if errors.As(err, &sassErr) {
			return nil, j.sassError(abs, sassErr)
		}
		return nil, err
	}
	css := result.CSS
	if !strings.HasSuffix(css, "\n") {
		css += "\n"
	}
	return []byte(css), nil
}

func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// sassError locates a dart-sass failure in the file its span points at.
func (j *Job) sassError(src string, e godartsass.SassError) error {
	file := src
	if u, err := url.Parse(e.Span.Url); err == nil && u.Scheme == "file" && u.Path != "" {
		file = filepath.FromSlash(u.Path)
	}
	toolErr := &core.ToolError{Task: j.Task.Name, File: j.display(file), Message: e.Message, Err: e}
	if content, err := os.ReadFile(file); err == nil && e.Span.Start.Offset <= len(content) {
		toolErr.Line = bytes.Count(content[:e.Span.Start.Offset], []byte("\n")) + 1
		toolErr.Column = e.Span.Start.Column + 1
	}
	return toolErr
}

// sassOnly matches constructs that need a Sass compiler. It runs over
// source whose comments, strings and url() arguments are blanked out.
var sassOnly = regexp.MustCompile(`\$[A-Za-z_][\w-]*|@(?:mixin|include|extend|function|return|each|for|while|if|else|use|forward|debug|warn|error)\b|#\{|%[A-Za-z_][\w-]*\s*\{`)

// plainSass loads .scss files for esbuild. Sources that are plain CSS
// apart from // comments pass through; anything else fails with the
// location of the first Sass construct.
var plainSass = api.Plugin{
	Name: "plain-sass",
	Setup: func(build api.PluginBuild) {
		build.OnLoad(api.OnLoadOptions{Filter: `\.scss$`, Namespace: "file"},
			func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				source, err := os.ReadFile(args.Path)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				clean, masked := maskSass(source)
				if loc := sassOnly.FindIndex(masked); loc != nil {
					return api.OnLoadResult{Errors: []api.Message{{
						Text:     "Sass syntax " + strings.TrimSpace(string(source[loc[0]:loc[1]])) + " needs a Sass compiler (set styles.compiler to dartsass or command)",
						Location: sourceLocation(args.Path, source, loc[0]),
					}}}, nil
				}
				contents := string(clean)
				return api.OnLoadResult{
					Contents:   &contents,
					Loader:     api.LoaderCSS,
					ResolveDir: filepath.Dir(args.Path),
				}, nil
			})
	},
}

func sourceLocation(file string, source []byte, offset int) *api.Location {
	start := bytes.LastIndexByte(source[:offset], '\n') + 1
	end := bytes.IndexByte(source[offset:], '\n')
	if end < 0 {
		end = len(source)
	} else {
		end += offset
	}
	return &api.Location{
		File:     file,
		Line:     bytes.Count(source[:offset], []byte("\n")) + 1,
		Column:   offset - start,
		LineText: strings.TrimRight(string(source[start:end]), "\r"),
	}
}

// maskSass returns source with // comments blanked, and a second copy
// that also blanks block comments, strings and unquoted url() arguments.
// Both keep every newline so offsets line up with the original.
func maskSass(source []byte) (clean, masked []byte) {
	clean = bytes.Clone(source)
	masked = bytes.Clone(source)
	blank := func(b []byte, from, to int) {
		for k := from; k < to; k++ {
			if b[k] != '\n' {
				b[k] = ' '
			}
		}
	}

	n := len(source)
	for i := 0; i < n; {
		c := source[i]
		switch {
		case c == '/' && i+1 < n && source[i+1] == '*':
			end := bytes.Index(source[i+2:], []byte("*/"))
			stop := n
			if end >= 0 {
				stop = i + 2 + end + 2
			}
			blank(masked, i, stop)
			i = stop
		case c == '/' && i+1 < n && source[i+1] == '/':
			stop := i + bytes.IndexByte(source[i:], '\n')
			if stop < i {
				stop = n
			}
			blank(clean, i, stop)
			blank(masked, i, stop)
			i = stop
		case c == '"' || c == '\'':
			stop := i + 1
			for stop < n && source[stop] != c && source[stop] != '\n' {
				if source[stop] == '\\' {
					stop++
				}
				stop++
			}
			stop = min(stop+1, n)
			blank(masked, i, stop)
			i = stop
		case (c == 'u' || c == 'U') && i+4 <= n && strings.EqualFold(string(source[i:i+4]), "url("):
			stop := i + 4
			if stop < n && source[stop] != '"' && source[stop] != '\'' {
				end := bytes.IndexByte(source[stop:], ')')
				if end < 0 {
					end = n - stop
				}
				blank(masked, stop, stop+end)
				stop += end
			}
			i = stop
		default:
			i++
		}
	}
	return clean, masked
}
