package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "(calc) ", cfg.Prompt)
	require.True(t, cfg.Banner)
	require.True(t, cfg.Color)
	require.False(t, cfg.History.Enabled)
	require.Equal(t, "sqlite3", cfg.History.Driver)
	require.NoError(t, cfg.Validate())

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	require.Equal(t, logrus.WarnLevel, level)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg := Default()
	err := cfg.Parse([]byte(`
prompt: "> "
color: false
force-color: true
logging: info
history:
  enabled: true
  driver: postgres
  dsn: "user=postgres password=password"
`))
	require.NoError(t, err)

	require.Equal(t, "> ", cfg.Prompt)
	require.False(t, cfg.Color)
	require.True(t, cfg.ForceColor)
	require.True(t, cfg.Banner)
	require.True(t, cfg.History.Enabled)
	require.Equal(t, "postgres", cfg.History.Driver)
	require.Equal(t, "user=postgres password=password", cfg.History.DSN)
	require.NoError(t, cfg.Validate())

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	require.Equal(t, logrus.InfoLevel, level)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calc.yml")
	require.NoError(t, ioutil.WriteFile(path, []byte("debug-mode: true\ndump-tokens: true\n"), 0644))

	cfg := Default()
	require.NoError(t, cfg.ParseFile(path))
	require.True(t, cfg.DumpTokens)
	require.False(t, cfg.ForceColor)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, level)
}

func TestParseFileMissing(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.ParseFile(filepath.Join(t.TempDir(), "nope.yml")))
}

func TestParseInvalid(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Parse([]byte("prompt: [unterminated")))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Logging = "chatty"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.History.Enabled = true
	cfg.History.Driver = "mysql"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.History.Enabled = true
	cfg.History.DSN = ""
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.History.Driver = "mysql"
	require.NoError(t, cfg.Validate())
}
