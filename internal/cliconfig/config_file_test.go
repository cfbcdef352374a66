package cliconfig

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all values",
			fileConfig: FileConfig{
				OutputDir:   "/out",
				WatchDir:    "/in",
				StateDir:    "/state",
				Pattern:     "*.dat",
				Columns:     []string{"AirTC", "RH"},
				Parallelism: 8,
				Debounce:    "2s",
				LogLevel:    "debug",
				Once:        &trueVal,
			},
			changed: map[string]bool{},
			expected: Config{
				OutputDir:   "/out",
				WatchDir:    "/in",
				StateDir:    "/state",
				Pattern:     "*.dat",
				Columns:     []string{"AirTC", "RH"},
				Parallelism: 8,
				Debounce:    2 * time.Second,
				LogLevel:    "debug",
				Once:        true,
			},
		},
		{
			name:       "respects changed flags",
			fileConfig: FileConfig{OutputDir: "/config/out", WatchDir: "/config/in"},
			changed:    map[string]bool{"output-dir": true},
			initial:    Config{OutputDir: "/flag/out"},
			expected:   Config{OutputDir: "/flag/out", WatchDir: "/config/in"},
		},
		{
			name:       "empty values keep defaults",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    DefaultConfig(),
			expected:   DefaultConfig(),
		},
		{
			name:       "bad duration",
			fileConfig: FileConfig{Debounce: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)
			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(cfg, tt.expected) {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
output_dir = "/srv/csv"
watch_dir = "/srv/loggers"
columns = ["AirTC_Avg", "RH"]
parallelism = 2
debounce = "1s"
once = true
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}
	if fc.OutputDir != "/srv/csv" {
		t.Errorf("OutputDir = %v, want /srv/csv", fc.OutputDir)
	}
	if fc.WatchDir != "/srv/loggers" {
		t.Errorf("WatchDir = %v, want /srv/loggers", fc.WatchDir)
	}
	if !reflect.DeepEqual(fc.Columns, []string{"AirTC_Avg", "RH"}) {
		t.Errorf("Columns = %v", fc.Columns)
	}
	if fc.Parallelism != 2 {
		t.Errorf("Parallelism = %v, want 2", fc.Parallelism)
	}
	if fc.Debounce != "1s" {
		t.Errorf("Debounce = %v, want 1s", fc.Debounce)
	}
	if fc.Once == nil || !*fc.Once {
		t.Errorf("Once = %v, want true", fc.Once)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	if _, err := LoadFileConfig("/nonexistent/path/config.toml"); err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.toml")
	if err := os.WriteFile(configPath, []byte("output_dir = \"/x\"\nthis is not valid toml\n"), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	if _, err := LoadFileConfig(configPath); err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if path != "" && !strings.Contains(path, ".tobdump") {
		t.Errorf("DefaultConfigPath() = %v, should contain .tobdump", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existing := filepath.Join(tmpDir, "exists.txt")
	if err := os.WriteFile(existing, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if !FileExists(existing) {
		t.Error("FileExists() = false, want true for existing file")
	}
	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
