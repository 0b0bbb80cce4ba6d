package core

import (
	"fmt"
	"strings"
)

// ResolutionError reports a file set that could not be expanded:
// a missing base directory, a malformed glob or colliding destinations.
type ResolutionError struct {
	Base    string
	Pattern string
	Err     error
}

func (e *ResolutionError) Error() string {
	var sb strings.Builder
	sb.WriteString("resolve ")
	sb.WriteString(e.Base)
	if e.Pattern != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Pattern)
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ToolError reports that a transformation capability rejected its input.
// File, Line and Column are set when the failure points at a location.
type ToolError struct {
	Task    string
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	var sb strings.Builder
	if e.Task != "" {
		sb.WriteString(e.Task)
		sb.WriteString(": ")
	}
	if e.File != "" {
		sb.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&sb, ":%d", e.Line)
			if e.Column > 0 {
				fmt.Fprintf(&sb, ":%d", e.Column)
			}
		}
		sb.WriteString(": ")
	}
	switch {
	case e.Message != "":
		sb.WriteString(e.Message)
	case e.Err != nil:
		sb.WriteString(e.Err.Error())
	default:
		sb.WriteString("failed")
	}
	return sb.String()
}

func (e *ToolError) Unwrap() error { return e.Err }

// ServerBindError reports that no port in the fallback range could be bound.
type ServerBindError struct {
	Host     string
	Port     int
	Attempts int
	Err      error
}

func (e *ServerBindError) Error() string {
	last := e.Port + e.Attempts - 1
	if e.Attempts <= 1 {
		return fmt.Sprintf("bind %s:%d: %v", e.Host, e.Port, e.Err)
	}
	return fmt.Sprintf("bind %s: no free port in %d-%d: %v", e.Host, e.Port, last, e.Err)
}

func (e *ServerBindError) Unwrap() error { return e.Err }
