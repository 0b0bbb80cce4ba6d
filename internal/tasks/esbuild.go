package tasks

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/leapstack-labs/leapsite/pkg/core"
)

// assetExternals keeps url() references to binary assets out of CSS bundles.
var assetExternals = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.avif", "*.svg", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.otf", "*.eot",
}

// messagesError turns esbuild errors into a tool error that points at the
// first failure. The remaining messages are kept in the message text.
func (j *Job) messagesError(src string, msgs []api.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	first := msgs[0]
	toolErr := &core.ToolError{Task: j.Task.Name, File: j.display(src), Message: first.Text}
	if loc := first.Location; loc != nil {
		if loc.File != "" {
			file := loc.File
			if !filepath.IsAbs(file) && j.Root != "" {
				file = filepath.Join(j.Root, file)
			}
			toolErr.File = j.display(file)
		}
		toolErr.Line = loc.Line
		toolErr.Column = loc.Column + 1
	}

	var errs []error
	for _, msg := range msgs {
		errs = append(errs, errors.New(formatMessage(msg)))
	}
	toolErr.Err = errors.Join(errs...)
	if len(msgs) > 1 {
		toolErr.Message = fmt.Sprintf("%s (and %d more)", first.Text, len(msgs)-1)
	}
	return toolErr
}

func formatMessage(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column+1, msg.Text)
}

// logWarnings reports esbuild warnings through the job logger.
func (j *Job) logWarnings(msgs []api.Message) {
	for _, msg := range msgs {
		j.Logger.Warn("build warning", "task", j.Task.Name, "message", formatMessage(msg))
	}
}

// parseTarget maps "es2015"-style names to esbuild targets.
func parseTarget(name string) (api.Target, error) {
	switch strings.ToLower(name) {
	case "", "es2015", "es6":
		return api.ES2015, nil
	case "es5":
		return api.ES5, nil
	case "es2016":
		return api.ES2016, nil
	case "es2017":
		return api.ES2017, nil
	case "es2018":
		return api.ES2018, nil
	case "es2019":
		return api.ES2019, nil
	case "es2020":
		return api.ES2020, nil
	case "es2021":
		return api.ES2021, nil
	case "es2022":
		return api.ES2022, nil
	case "esnext":
		return api.ESNext, nil
	default:
		return api.DefaultTarget, fmt.Errorf("unknown script target %q", name)
	}
}

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"node":    api.EngineNode,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// parseEngines maps browser targets like "chrome58" or "safari11.1" to esbuild engines.
func parseEngines(browsers []string) ([]api.Engine, error) {
	engines := make([]api.Engine, 0, len(browsers))
	for _, b := range browsers {
		b = strings.ToLower(strings.TrimSpace(b))
		i := strings.IndexFunc(b, func(r rune) bool { return r >= '0' && r <= '9' })
		if i <= 0 {
			return nil, fmt.Errorf("invalid browser target %q (expected e.g. chrome58)", b)
		}
		name, ok := engineNames[b[:i]]
		if !ok {
			return nil, fmt.Errorf("unknown browser %q", b[:i])
		}
		engines = append(engines, api.Engine{Name: name, Version: b[i:]})
	}
	return engines, nil
}
