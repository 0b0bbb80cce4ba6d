package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.starlark.net/starlark"
	"gopkg.in/yaml.v3"

	starctx "github.com/leapstack-labs/leapsite/internal/starlark"
	"github.com/leapstack-labs/leapsite/internal/template"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

// TemplateRenderOptions configures template-render.
type TemplateRenderOptions struct {
	// Data is the data document whose keys become template globals.
	// JSON by default, YAML for .yml/.yaml.
	Data string `mapstructure:"data"`
	// SearchPaths resolve include and extends. Defaults to the file set base.
	SearchPaths []string `mapstructure:"search_paths"`
	// Autoescape HTML-escapes expression output unless marked safe.
	Autoescape bool `mapstructure:"autoescape"`
}

// TemplateRenderRunner renders page templates to HTML.
type TemplateRenderRunner struct{}

// Kind implements Runner.
func (TemplateRenderRunner) Kind() core.TaskKind { return core.KindTemplateRender }

// Run renders each file pair with one shared environment.
func (TemplateRenderRunner) Run(ctx context.Context, job *Job) error {
	opts := TemplateRenderOptions{Autoescape: true}
	if err := decodeOptions(job.Task, &opts); err != nil {
		return err
	}

	data, err := job.loadData(opts.Data)
	if err != nil {
		return err
	}

	searchPaths := opts.SearchPaths
	if len(searchPaths) == 0 {
		searchPaths = []string{job.Task.Files.Base}
	}
	for i, p := range searchPaths {
		if !filepath.IsAbs(p) && job.Root != "" {
			searchPaths[i] = filepath.Join(job.Root, p)
		}
	}
	env := template.NewEnvironment(searchPaths, opts.Autoescape)

	for _, pair := range job.Files {
		if err := ctx.Err(); err != nil {
			return err
		}

		page := &starctx.PageInfo{
			Path: pair.Rel,
			Name: strings.TrimSuffix(path.Base(pair.Rel), path.Ext(pair.Rel)),
			URL:  pageURL(job.Task.Files.Dest, pair.Dest),
		}
		html, err := env.RenderFile(pair.Src, starctx.NewExecutionContext(data, page))
		if err != nil {
			return job.templateError(pair.Src, err)
		}

		if err := job.writeOutput(pair.Dest, []byte(html)); err != nil {
			return job.fail(pair.Dest, err)
		}
	}
	return nil
}

// loadData reads the data document and converts it to template globals.
// A missing file renders with no data.
func (j *Job) loadData(file string) (starlark.StringDict, error) {
	if file == "" {
		return nil, nil
	}
	if !filepath.IsAbs(file) && j.Root != "" {
		file = filepath.Join(j.Root, file)
	}

	content, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		j.Logger.Warn("template data file not found, rendering without data", "task", j.Task.Name, "path", j.display(file))
		return nil, nil
	}
	if err != nil {
		return nil, j.fail(file, err)
	}

	var data map[string]any
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(content, &data)
	default:
		dec := json.NewDecoder(bytes.NewReader(content))
		dec.UseNumber()
		err = dec.Decode(&data)
	}
	if err != nil {
		return nil, &core.ToolError{Task: j.Task.Name, File: j.display(file), Message: "invalid data document: " + err.Error(), Err: err}
	}

	globals, err := starctx.DataToStarlark(data)
	if err != nil {
		return nil, &core.ToolError{Task: j.Task.Name, File: j.display(file), Message: err.Error(), Err: err}
	}
	return globals, nil
}

// templateError maps a template failure to a tool error at its position.
func (j *Job) templateError(src string, err error) error {
	var tmplErr template.Error
	if errors.As(err, &tmplErr) {
		pos := tmplErr.Position()
		file := src
		if pos.File != "" {
			file = pos.File
		}
		return &core.ToolError{
			Task:    j.Task.Name,
			File:    j.display(file),
			Line:    pos.Line,
			Column:  pos.Column,
			Message: templateMessage(err),
			Err:     err,
		}
	}
	return j.fail(src, err)
}

// templateMessage strips the position prefix the template error already carries.
func templateMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 && strings.Count(msg[:i], ":") >= 2 {
		return msg[i+2:]
	}
	return msg
}

// pageURL is the page's output path relative to the destination root.
func pageURL(destRoot, dest string) string {
	if abs, err := filepath.Abs(destRoot); err == nil {
		destRoot = abs
	}
	rel, err := filepath.Rel(destRoot, dest)
	if err != nil {
		return filepath.ToSlash(dest)
	}
	return filepath.ToSlash(rel)
}
