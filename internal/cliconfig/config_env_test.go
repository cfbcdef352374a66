package cliconfig

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"TOBDUMP_OUTPUT_DIR":  "/env/out",
				"TOBDUMP_WATCH_DIR":   "/env/in",
				"TOBDUMP_COLUMNS":     "AirTC, RH,,",
				"TOBDUMP_PARALLELISM": "3",
				"TOBDUMP_DEBOUNCE":    "250ms",
				"TOBDUMP_ONCE":        "1",
			},
			changed: map[string]bool{},
			expected: Config{
				OutputDir:   "/env/out",
				WatchDir:    "/env/in",
				Columns:     []string{"AirTC", "RH"},
				Parallelism: 3,
				Debounce:    250 * time.Millisecond,
				Once:        true,
			},
		},
		{
			name:     "respects changed flags",
			envVars:  map[string]string{"TOBDUMP_OUTPUT_DIR": "/env/out", "TOBDUMP_PATTERN": "*.bin"},
			changed:  map[string]bool{"output-dir": true},
			initial:  Config{OutputDir: "/flag/out"},
			expected: Config{OutputDir: "/flag/out", Pattern: "*.bin"},
		},
		{
			name:     "non-positive parallelism ignored",
			envVars:  map[string]string{"TOBDUMP_PARALLELISM": "0"},
			changed:  map[string]bool{},
			initial:  Config{Parallelism: 4},
			expected: Config{Parallelism: 4},
		},
		{
			name:    "invalid parallelism",
			envVars: map[string]string{"TOBDUMP_PARALLELISM": "many"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "invalid debounce",
			envVars: map[string]string{"TOBDUMP_DEBOUNCE": "later"},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)
			if tt.wantErr {
				if err == nil {
					t.Error("ApplyEnvConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(cfg, tt.expected) {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}
