package core

import (
	"errors"
	"fmt"
	"slices"
)

// Pipeline names.
const (
	PipelineDev  = "build:dev"
	PipelineProd = "build:prod"
)

// BuildConfig is the complete task, pipeline and watch declaration of a project.
// It is built once at startup and must not be mutated afterwards.
type BuildConfig struct {
	Root       string
	Tasks      []Task
	Pipelines  []Pipeline
	WatchRules []WatchRule
	// ServeRoots are the output directories served by the dev server, in precedence order.
	ServeRoots []string
	// WatchDirs are the source directories observed by the watcher.
	WatchDirs []string
}

// Task returns the task with the given name.
func (c *BuildConfig) Task(name string) (*Task, bool) {
	for i := range c.Tasks {
		if c.Tasks[i].Name == name {
			return &c.Tasks[i], true
		}
	}
	return nil, false
}

// Pipeline returns the pipeline with the given name.
func (c *BuildConfig) Pipeline(name string) (*Pipeline, bool) {
	for i := range c.Pipelines {
		if c.Pipelines[i].Name == name {
			return &c.Pipelines[i], true
		}
	}
	return nil, false
}

// TaskNames returns declared task names in declaration order.
func (c *BuildConfig) TaskNames() []string {
	names := make([]string, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		names = append(names, t.Name)
	}
	return names
}

// Validate checks the declaration for internal consistency.
// All problems are reported together.
func (c *BuildConfig) Validate() error {
	var errs []error

	seen := make(map[string]bool, len(c.Tasks))
	for _, t := range c.Tasks {
		switch {
		case t.Name == "":
			errs = append(errs, errors.New("task with empty name"))
		case seen[t.Name]:
			errs = append(errs, fmt.Errorf("duplicate task %q", t.Name))
		}
		seen[t.Name] = true
		if !t.Kind.Valid() {
			errs = append(errs, fmt.Errorf("task %q: unknown kind %q", t.Name, t.Kind))
		}
		if t.Kind != KindClean && t.Files.Base == "" {
			errs = append(errs, fmt.Errorf("task %q: file set has no base directory", t.Name))
		}
		if t.Kind.Writes() && t.Files.Dest == "" {
			errs = append(errs, fmt.Errorf("task %q: file set has no destination", t.Name))
		}
		if t.Kind == KindClean && t.Files.Dest == "" {
			errs = append(errs, fmt.Errorf("task %q: nothing to clean", t.Name))
		}
	}

	pipelines := make(map[string]bool, len(c.Pipelines))
	for _, p := range c.Pipelines {
		if pipelines[p.Name] {
			errs = append(errs, fmt.Errorf("duplicate pipeline %q", p.Name))
		}
		pipelines[p.Name] = true
		for _, name := range p.Tasks {
			if !seen[name] {
				errs = append(errs, fmt.Errorf("pipeline %q: unknown task %q", p.Name, name))
			}
		}
	}

	dev, hasDev := c.Pipeline(PipelineDev)
	prod, hasProd := c.Pipeline(PipelineProd)
	if hasDev && hasProd {
		if !slices.Equal(dev.Tasks, prod.Tasks) {
			errs = append(errs, fmt.Errorf("%s must run the same tasks as %s in the same order", PipelineDev, PipelineProd))
		}
		if !dev.Serve {
			errs = append(errs, fmt.Errorf("%s must serve", PipelineDev))
		}
		if prod.Serve {
			errs = append(errs, fmt.Errorf("%s must not serve", PipelineProd))
		}
	}

	for _, r := range c.WatchRules {
		if len(r.Patterns) == 0 {
			errs = append(errs, fmt.Errorf("watch rule %q has no patterns", r.Name))
		}
		if len(r.Tasks) == 0 {
			errs = append(errs, fmt.Errorf("watch rule %q has no tasks", r.Name))
		}
		for _, name := range r.Tasks {
			if !seen[name] {
				errs = append(errs, fmt.Errorf("watch rule %q: unknown task %q", r.Name, name))
			}
		}
	}

	return errors.Join(errs...)
}
