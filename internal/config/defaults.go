package config

// Default configuration values.
const (
	DefaultSrcDir           = "src"
	DefaultPublicDir        = "public"
	DefaultDataFile         = "data.json"
	DefaultStyleLintConfig  = ".sass-lint.yml"
	DefaultScriptLintConfig = ".eslintrc.yml"
	DefaultStyleCompiler    = "auto"
	DefaultSassBinary       = "sass"
	DefaultScriptTarget     = "es2015"
)

// DefaultBrowsers are the postprocess targets.
var DefaultBrowsers = []string{"chrome58", "edge16", "firefox57", "safari11"}

// DefaultValues returns the layout defaults keyed the way config files spell them.
func DefaultValues() map[string]any {
	return map[string]any{
		"src_dir":              DefaultSrcDir,
		"public_dir":           DefaultPublicDir,
		"data_file":            DefaultDataFile,
		"style_lint_config":    DefaultStyleLintConfig,
		"script_lint_config":   DefaultScriptLintConfig,
		"styles.compiler":      DefaultStyleCompiler,
		"styles.command":       "",
		"styles.sass_binary":   DefaultSassBinary,
		"styles.browsers":      append([]string(nil), DefaultBrowsers...),
		"scripts.target":       DefaultScriptTarget,
		"scripts.sourcemap":    true,
		"templates.autoescape": true,
	}
}

// DefaultLayout returns the standard project layout.
func DefaultLayout() Layout {
	l := Layout{
		Scripts:   ScriptsConfig{Sourcemap: true},
		Templates: TemplatesConfig{Autoescape: true},
	}
	l.ApplyDefaults()
	return l
}

// ApplyDefaults fills unset fields with default values.
func (l *Layout) ApplyDefaults() {
	if l == nil {
		return
	}
	if l.SrcDir == "" {
		l.SrcDir = DefaultSrcDir
	}
	if l.PublicDir == "" {
		l.PublicDir = DefaultPublicDir
	}
	if l.DataFile == "" {
		l.DataFile = DefaultDataFile
	}
	if l.StyleLintConfig == "" {
		l.StyleLintConfig = DefaultStyleLintConfig
	}
	if l.ScriptLintConfig == "" {
		l.ScriptLintConfig = DefaultScriptLintConfig
	}
	if l.Styles.Compiler == "" {
		l.Styles.Compiler = DefaultStyleCompiler
	}
	if l.Styles.SassBinary == "" {
		l.Styles.SassBinary = DefaultSassBinary
	}
	if len(l.Styles.Browsers) == 0 {
		l.Styles.Browsers = append([]string(nil), DefaultBrowsers...)
	}
	if l.Scripts.Target == "" {
		l.Scripts.Target = DefaultScriptTarget
	}
}
