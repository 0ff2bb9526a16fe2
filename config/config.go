package config

import (
	"fmt"
	"io/ioutil"

	"github.com/graeme-hill/calcstuff-go/store"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Config is the calculator's configuration.
type Config struct {
	Prompt     string `yaml:"prompt,omitempty"`
	Banner     bool   `yaml:"banner"`
	Color      bool   `yaml:"color"`
	ForceColor bool   `yaml:"force-color,omitempty"`
	DebugMode  bool   `yaml:"debug-mode,omitempty"`
	Logging    string `yaml:"logging,omitempty"`
	DumpTokens bool   `yaml:"dump-tokens,omitempty"`

	History struct {
		Enabled bool   `yaml:"enabled"`
		Driver  string `yaml:"driver,omitempty"`
		DSN     string `yaml:"dsn,omitempty"`
	} `yaml:"history,omitempty"`
}

func Default() Config {
	cfg := Config{
		Prompt:  "(calc) ",
		Banner:  true,
		Color:   true,
		Logging: "warning",
	}
	cfg.History.Driver = string(store.DialectSQLite)
	cfg.History.DSN = "calc-history.db"
	return cfg
}

// ParseFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values.
func (cfg *Config) ParseFile(path string) error {
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	return cfg.Parse(bytes)
}

func (cfg *Config) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}
	return nil
}

// LogLevel is the configured logging level, forced to debug in debug mode.
func (cfg Config) LogLevel() (logrus.Level, error) {
	if cfg.DebugMode {
		return logrus.DebugLevel, nil
	}
	return logrus.ParseLevel(cfg.Logging)
}

func (cfg Config) Validate() error {
	if _, err := cfg.LogLevel(); err != nil {
		return err
	}
	if cfg.History.Enabled {
		if _, err := store.ParseDialect(cfg.History.Driver); err != nil {
			return err
		}
		if cfg.History.DSN == "" {
			return fmt.Errorf("history dsn is required when history is enabled")
		}
	}
	return nil
}
