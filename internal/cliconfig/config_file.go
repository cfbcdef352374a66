package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config with TOML-friendly field types.
type FileConfig struct {
	OutputDir   string   `toml:"output_dir"`
	WatchDir    string   `toml:"watch_dir"`
	StateDir    string   `toml:"state_dir"`
	Pattern     string   `toml:"pattern"`
	Columns     []string `toml:"columns"`
	Parallelism int      `toml:"parallelism"`
	Debounce    string   `toml:"debounce"`
	LogLevel    string   `toml:"log_level"`
	Once        *bool    `toml:"once"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.tobdump/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".tobdump", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies file values for every flag not in changed.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("watch-dir", fc.WatchDir, &cfg.WatchDir)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("pattern", fc.Pattern, &cfg.Pattern)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setStrings("columns", fc.Columns, &cfg.Columns)
	s.setInt("parallelism", fc.Parallelism, &cfg.Parallelism)
	if err := s.setDuration("debounce", fc.Debounce, &cfg.Debounce); err != nil {
		return err
	}
	s.setBool("once", fc.Once, &cfg.Once)
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
