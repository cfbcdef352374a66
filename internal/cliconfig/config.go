package cliconfig

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultPattern matches plain and compressed table files.
const DefaultPattern = "*.dat*"

// Config holds CLI configuration for tobdump.
type Config struct {
	OutputDir string
	WatchDir  string
	StateDir  string
	Pattern   string
	Columns   []string

	Parallelism int
	Debounce    time.Duration

	LogLevel string
	Once     bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		OutputDir:   ".",
		Pattern:     DefaultPattern,
		Parallelism: 4,
		Debounce:    500 * time.Millisecond,
		LogLevel:    "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output-dir is required")
	}
	if c.StateDir == "" {
		c.StateDir = c.OutputDir
	}
	if c.Pattern == "" {
		c.Pattern = DefaultPattern
	}
	if _, err := filepath.Match(c.Pattern, ""); err != nil {
		return fmt.Errorf("pattern %q: %w", c.Pattern, err)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative")
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	return nil
}

// ValidateWatch additionally requires a directory to watch.
func (c *Config) ValidateWatch() error {
	if c.WatchDir == "" {
		return fmt.Errorf("watch-dir is required")
	}
	return c.Validate()
}

// configSetter applies values only for flags the user did not set
// explicitly.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setList splits a comma-separated list.
func (s *configSetter) setList(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	*dst = out
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses an environment value.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString treats "true" and "1" as true.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
