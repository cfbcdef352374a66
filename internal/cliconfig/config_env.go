package cliconfig

import "os"

// ApplyEnvConfig applies TOBDUMP_* environment variables for every flag not
// in changed.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("output-dir", os.Getenv("TOBDUMP_OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("watch-dir", os.Getenv("TOBDUMP_WATCH_DIR"), &cfg.WatchDir)
	s.setString("state-dir", os.Getenv("TOBDUMP_STATE_DIR"), &cfg.StateDir)
	s.setString("pattern", os.Getenv("TOBDUMP_PATTERN"), &cfg.Pattern)
	s.setString("log-level", os.Getenv("TOBDUMP_LOG_LEVEL"), &cfg.LogLevel)
	s.setList("columns", os.Getenv("TOBDUMP_COLUMNS"), &cfg.Columns)

	if err := s.setIntFromString("parallelism", os.Getenv("TOBDUMP_PARALLELISM"), &cfg.Parallelism); err != nil {
		return err
	}
	if err := s.setDuration("debounce", os.Getenv("TOBDUMP_DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}
	s.setBoolFromString("once", os.Getenv("TOBDUMP_ONCE"), &cfg.Once)
	return nil
}
