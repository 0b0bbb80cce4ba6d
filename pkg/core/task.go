package core

// =============================================================================
// Task kinds
// =============================================================================

// TaskKind selects the runner that executes a task.
type TaskKind string

// Task kinds known to the build.
const (
	KindClean            TaskKind = "clean"
	KindStyleCompile     TaskKind = "style-compile"
	KindStyleMinify      TaskKind = "style-minify"
	KindStylePostprocess TaskKind = "style-postprocess"
	KindScriptBundle     TaskKind = "script-bundle"
	KindScriptMinify     TaskKind = "script-minify"
	KindTemplateRender   TaskKind = "template-render"
	KindLintStyle        TaskKind = "lint-style"
	KindLintScript       TaskKind = "lint-script"
)

// AllTaskKinds returns every task kind in a stable order.
func AllTaskKinds() []TaskKind {
	return []TaskKind{
		KindClean,
		KindStyleCompile,
		KindStyleMinify,
		KindStylePostprocess,
		KindScriptBundle,
		KindScriptMinify,
		KindTemplateRender,
		KindLintStyle,
		KindLintScript,
	}
}

// Valid reports whether k is a known task kind.
func (k TaskKind) Valid() bool {
	for _, known := range AllTaskKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// IsLint reports whether tasks of this kind only report and never write output.
func (k TaskKind) IsLint() bool {
	return k == KindLintStyle || k == KindLintScript
}

// Writes reports whether tasks of this kind produce files under their destination.
func (k TaskKind) Writes() bool {
	return !k.IsLint() && k != KindClean
}

// =============================================================================
// File sets
// =============================================================================

// ExtDot controls which dot starts the extension replaced by FileSetSpec.Ext.
type ExtDot string

// Extension modes.
const (
	ExtDotFirst ExtDot = "first"
	ExtDotLast  ExtDot = "last"
)

// RenameFunc maps a matched relative path (slash separated, extension already
// substituted) to a destination path relative to FileSetSpec.Dest.
// It must depend on its argument only.
type RenameFunc func(rel string) string

// FileSetSpec describes which files a task reads and where it writes them.
type FileSetSpec struct {
	// Base is the directory globs are evaluated against.
	Base string
	// Include holds globs relative to Base. A file matching any of them is selected.
	Include []string
	// Exclude holds globs relative to Base. A file matching any of them is dropped.
	Exclude []string
	// Dest is the output root. Destinations are computed beneath it.
	Dest string
	// Ext replaces the source extension when non-empty (e.g. ".min.css").
	Ext string
	// ExtDot selects where the replaced extension begins. Defaults to ExtDotFirst.
	ExtDot ExtDot
	// Rename optionally remaps the relative destination.
	Rename RenameFunc
	// RenameName names Rename in the tasks listing ("flatten").
	RenameName string
}

// =============================================================================
// Tasks, pipelines and watch rules
// =============================================================================

// Task is one transformation step bound to a file set and a runner kind.
type Task struct {
	Name    string
	Kind    TaskKind
	Files   FileSetSpec
	Options map[string]any
}

// Pipeline is a named, ordered list of task names.
type Pipeline struct {
	Name  string
	Tasks []string
	// Serve hands control to the dev server and watcher after the last task.
	Serve bool
}

// WatchRule maps source globs to the tasks re-run when they change.
type WatchRule struct {
	Name     string
	Patterns []string
	Tasks    []string
	Reload   bool
}
