package lint

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapsite/pkg/core"
)

// =============================================================================
// Sources
// =============================================================================

// Source is one file handed to the rules.
type Source struct {
	Path string // Path shown in diagnostics, relative to the project root
	Text string

	lines []string
}

// NewSource creates a source from file content.
func NewSource(path string, content []byte) *Source {
	return &Source{Path: path, Text: string(content)}
}

// Lines returns the text split on newlines, without the terminators.
// A trailing newline does not produce an extra empty line.
func (s *Source) Lines() []string {
	if s.lines == nil {
		text := strings.TrimSuffix(s.Text, "\n")
		if text == "" {
			s.lines = []string{}
		} else {
			s.lines = strings.Split(text, "\n")
			for i, line := range s.lines {
				s.lines[i] = strings.TrimSuffix(line, "\r")
			}
		}
	}
	return s.lines
}

// Position converts a byte offset in Text into a 1-based line and column.
func (s *Source) Position(offset int) (line, col int) {
	if offset > len(s.Text) {
		offset = len(s.Text)
	}
	before := s.Text[:offset]
	line = strings.Count(before, "\n") + 1
	col = offset - strings.LastIndexByte(before, '\n')
	return line, col
}

// =============================================================================
// Rule Definitions
// =============================================================================

// RuleDef is a data-driven rule definition.
// Rules are stateless - all context comes via the Check function parameters.
type RuleDef struct {
	ID          string        // Unique identifier within its group, e.g., "no-important"
	Group       string        // "style" or "script"
	Description string        // Human-readable description
	Severity    core.Severity // Default severity
	Check       CheckFunc     // The check function
	ConfigKeys  []string      // Options this rule accepts

	BadExample  string // Code showing the anti-pattern
	GoodExample string // Code showing the correct pattern
}

// CheckFunc analyzes a source and returns diagnostics.
// The opts parameter contains rule-specific options from configuration.
type CheckFunc func(src *Source, opts map[string]any) []Diagnostic

// Info returns the rule's documentation metadata.
func (r RuleDef) Info() core.RuleInfo {
	return core.RuleInfo{
		ID:              r.ID,
		Group:           r.Group,
		Description:     r.Description,
		DefaultSeverity: r.Severity,
		ConfigKeys:      r.ConfigKeys,
		BadExample:      r.BadExample,
		GoodExample:     r.GoodExample,
	}
}

// =============================================================================
// Diagnostics
// =============================================================================

// Diagnostic represents a lint finding.
type Diagnostic struct {
	RuleID   string
	Severity core.Severity
	Message  string
	File     string
	Line     int // 1-based
	Column   int // 1-based, 0 when the finding covers a whole line
}

// At builds a diagnostic for src at a line and column.
// Severity is filled in by the analyzer.
func At(src *Source, line, col int, format string, args ...any) Diagnostic {
	return Diagnostic{
		Message: fmt.Sprintf(format, args...),
		File:    src.Path,
		Line:    line,
		Column:  col,
	}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s (%s)", d.File, d.Line, d.Column, d.Severity, d.Message, d.RuleID)
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == core.SeverityError {
			return true
		}
	}
	return false
}

// FirstError returns the first error diagnostic.
func FirstError(diags []Diagnostic) (Diagnostic, bool) {
	for _, d := range diags {
		if d.Severity == core.SeverityError {
			return d, true
		}
	}
	return Diagnostic{}, false
}
