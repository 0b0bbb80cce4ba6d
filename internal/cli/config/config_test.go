package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "leapsite.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0600))
	return cfgPath
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.Bool("no-open", false, "")
	flags.Bool("no-livereload", false, "")
	flags.String("src-dir", "", "")
	flags.String("state", "", "")
	flags.Duration("debounce", 0, "")
	flags.BoolP("verbose", "v", false, "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	root := filepath.Dir(cfgPath)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, "src", cfg.SrcDir)
	assert.Equal(t, "public", cfg.PublicDir)
	assert.Equal(t, "data.json", cfg.DataFile)
	assert.Equal(t, ".sass-lint.yml", cfg.StyleLintConfig)
	assert.Equal(t, filepath.Join(root, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, ServerConfig{Host: DefaultHost, Port: DefaultPort, LiveReload: true, Open: true, PortAttempts: DefaultPortAttempts}, cfg.Server)
	assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
	assert.Equal(t, "auto", cfg.Styles.Compiler)
	assert.Equal(t, "sass", cfg.Styles.SassBinary)
	assert.NotEmpty(t, cfg.Styles.Browsers)
	assert.True(t, cfg.Scripts.Sourcemap)
	assert.True(t, cfg.Templates.Autoescape)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, `src_dir: site
public_dir: dist
state_path: ""
log_format: json
server:
  port: 8080
  open: false
watch:
  debounce: 250ms
styles:
  browsers: [chrome100]
scripts:
  target: es2020
  sourcemap: false
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "site", cfg.SrcDir)
	assert.Equal(t, "dist", cfg.PublicDir)
	assert.Empty(t, cfg.StatePath)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Server.Open)
	assert.True(t, cfg.Server.LiveReload)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, []string{"chrome100"}, cfg.Styles.Browsers)
	assert.Equal(t, "es2020", cfg.Scripts.Target)
	assert.False(t, cfg.Scripts.Sourcemap)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.ErrorContains(t, err, "error reading config file")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"log format", "log_format: xml\n", "log_format"},
		{"port", "server:\n  port: 70000\n", "server.port"},
		{"attempts", "server:\n  port_attempts: 0\n", "port_attempts"},
		{"same dirs", "src_dir: out\npublic_dir: out\n", "must differ"},
		{"debounce", "watch:\n  debounce: soon\n", "decode"},
		{"output", "output: yaml\n", "output must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "src_dir: from_file\nserver:\n  port: 8080\n")

	t.Setenv("LEAPSITE_SRC_DIR", "from_env")
	t.Setenv("LEAPSITE_SERVER__PORT", "9090")
	t.Setenv("LEAPSITE_WATCH__DEBOUNCE", "1s")
	t.Setenv("LEAPSITE_STYLES__BROWSERS", "chrome90,firefox90")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.SrcDir)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, []string{"chrome90", "firefox90"}, cfg.Styles.Browsers)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "src_dir: from_file\nserver:\n  port: 8080\n")
	t.Setenv("LEAPSITE_SRC_DIR", "from_env")

	flags := testFlags()
	require.NoError(t, flags.Set("src-dir", "from_flag"))
	require.NoError(t, flags.Set("port", "3000"))
	require.NoError(t, flags.Set("no-open", "true"))
	require.NoError(t, flags.Set("no-livereload", "true"))
	require.NoError(t, flags.Set("debounce", "50ms"))
	require.NoError(t, flags.Set("state", "history.db"))
	require.NoError(t, flags.Set("verbose", "true"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag", cfg.SrcDir)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.False(t, cfg.Server.Open)
	assert.False(t, cfg.Server.LiveReload)
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, filepath.Join(filepath.Dir(cfgPath), "history.db"), cfg.StatePath)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "src_dir: from_file\n")
	t.Setenv("LEAPSITE_SRC_DIR", "from_env")

	cfg, err := LoadConfig(cfgPath, testFlags())
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.SrcDir, "env var should be used when flag is not set")
	assert.True(t, cfg.Server.Open)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	var buf bytes.Buffer
	logger := NewLogger(&Config{LogFormat: LogFormatJSON}, &buf)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	GetLogger(ctx).Info("hello")
	GetLogger(ctx).Debug("hidden")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.NotContains(t, buf.String(), "hidden")

	buf.Reset()
	NewLogger(&Config{Verbose: true}, &buf).Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestValidateDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{ProjectRoot: root, Layout: Layout{SrcDir: "src"}}
	assert.ErrorContains(t, cfg.ValidateDirectories(), "source directory does not exist")

	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0750))
	assert.NoError(t, cfg.ValidateDirectories())
}
