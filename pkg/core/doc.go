// Package core defines the shared language of the leapsite build system.
//
// This package contains:
//   - Declaration entities (Task, FileSetSpec, Pipeline, WatchRule, BuildConfig)
//   - The error taxonomy (ResolutionError, ToolError, ServerBindError)
//   - Run history entities and the Store interface
//   - Lint severities and rule metadata
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
