// Package config declares the project's tasks, pipelines and watch rules.
// It is decoupled from CLI concerns: the CLI layers flags and environment
// over a Layout and hands the result to Declare.
package config

// Layout names the project's directories and tool settings.
// Relative paths are resolved against the project root.
type Layout struct {
	SrcDir           string          `koanf:"src_dir"`
	PublicDir        string          `koanf:"public_dir"`
	DataFile         string          `koanf:"data_file"`
	StyleLintConfig  string          `koanf:"style_lint_config"`
	ScriptLintConfig string          `koanf:"script_lint_config"`
	Styles           StylesConfig    `koanf:"styles"`
	Scripts          ScriptsConfig   `koanf:"scripts"`
	Templates        TemplatesConfig `koanf:"templates"`
}

// StylesConfig configures stylesheet compilation and postprocessing.
type StylesConfig struct {
	Compiler   string   `koanf:"compiler"`    // auto, dartsass, esbuild or command
	SassBinary string   `koanf:"sass_binary"` // dart-sass executable
	Command    string   `koanf:"command"`     // used with compiler: command
	Browsers   []string `koanf:"browsers"`
}

// ScriptsConfig configures script bundling.
type ScriptsConfig struct {
	Target    string `koanf:"target"`
	Sourcemap bool   `koanf:"sourcemap"`
}

// TemplatesConfig configures template rendering.
type TemplatesConfig struct {
	Autoescape bool `koanf:"autoescape"`
}
