package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configEnvVars = []string{
	"CGREP_LANGUAGE", "CGREP_DATABASE_URL", "CGREP_INCLUDE", "CGREP_EXCLUDE",
	"CGREP_WORKERS", "CGREP_PARSE_WORKERS", "CGREP_MAX_DEPTH", "CGREP_MAX_FILES",
	"CGREP_RETENTION_RUNS", "CGREP_STRICT", "CGREP_FOLLOW_SYMLINKS", "CGREP_RECORD",
	"CGREP_DEBUG", "CGREP_TIMEOUT",
}

// clearConfigEnvVars unsets every CGREP_* variable for the duration of the test
func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		if value, ok := os.LookupEnv(key); ok {
			t.Setenv(key, value) // registers restore
			os.Unsetenv(key)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnvVars(t)

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Language != "rust" {
		t.Errorf("Language = %q, want rust", cfg.Language)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.ParseWorkers < 1 {
		t.Errorf("ParseWorkers = %d, want at least 1", cfg.ParseWorkers)
	}
	if cfg.RetentionRuns != 50 {
		t.Errorf("RetentionRuns = %d, want 50", cfg.RetentionRuns)
	}
	if cfg.Strict || cfg.Record || cfg.Debug || cfg.FollowSymlinks {
		t.Error("boolean options should default to false")
	}
	if cfg.DatabaseURL == "" {
		t.Error("DatabaseURL should have a default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearConfigEnvVars(t)
	t.Setenv("CGREP_LANGUAGE", "go")
	t.Setenv("CGREP_WORKERS", "8")
	t.Setenv("CGREP_MAX_DEPTH", "3")
	t.Setenv("CGREP_STRICT", "true")
	t.Setenv("CGREP_RECORD", "1")
	t.Setenv("CGREP_INCLUDE", "src/**, lib/** ,")
	t.Setenv("CGREP_TIMEOUT", "30s")
	t.Setenv("CGREP_DATABASE_URL", "/tmp/cgrep.db")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Language != "go" {
		t.Errorf("Language = %q, want go", cfg.Language)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", cfg.MaxDepth)
	}
	if !cfg.Strict || !cfg.Record {
		t.Error("Strict and Record should be enabled")
	}
	if len(cfg.Include) != 2 || cfg.Include[0] != "src/**" || cfg.Include[1] != "lib/**" {
		t.Errorf("Include = %v", cfg.Include)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.DatabaseURL != "/tmp/cgrep.db" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestLoad_InvalidEnvKeepsDefaults(t *testing.T) {
	clearConfigEnvVars(t)
	t.Setenv("CGREP_WORKERS", "many")
	t.Setenv("CGREP_MAX_FILES", "-2")
	t.Setenv("CGREP_DEBUG", "maybe")
	t.Setenv("CGREP_TIMEOUT", "soon")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want default 4", cfg.Workers)
	}
	if cfg.MaxFiles != 0 {
		t.Errorf("MaxFiles = %d, want 0", cfg.MaxFiles)
	}
	if cfg.Debug {
		t.Error("Debug should stay false")
	}
	if cfg.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", cfg.Timeout)
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearConfigEnvVars(t)
	dir := t.TempDir()

	project := "language = \"python\"\nworkers = 2\nmax_depth = 5\nexclude = [\"vendor/**\"]\n"
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte(project), 0644); err != nil {
		t.Fatal(err)
	}
	dotenv := "CGREP_WORKERS=6\nCGREP_LANGUAGE=java\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CGREP_LANGUAGE", "php")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Language != "php" {
		t.Errorf("Language = %q, process env should win", cfg.Language)
	}
	if cfg.Workers != 6 {
		t.Errorf("Workers = %d, .env should override the project file", cfg.Workers)
	}
	if cfg.MaxDepth != 5 {
		t.Errorf("MaxDepth = %d, want 5 from project file", cfg.MaxDepth)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "vendor/**" {
		t.Errorf("Exclude = %v", cfg.Exclude)
	}
	if _, ok := os.LookupEnv("CGREP_WORKERS"); ok {
		t.Error(".env values must not leak into the process environment")
	}
}

func TestLoad_BadProjectFile(t *testing.T) {
	clearConfigEnvVars(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte("workers = ["), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestLoad_InvalidRange(t *testing.T) {
	clearConfigEnvVars(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte("workers = 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"empty language", func(c *Config) { c.Language = " " }, false},
		{"zero workers", func(c *Config) { c.Workers = 0 }, false},
		{"zero parse workers", func(c *Config) { c.ParseWorkers = 0 }, false},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }, false},
		{"negative files", func(c *Config) { c.MaxFiles = -1 }, false},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, false},
		{"negative retention", func(c *Config) { c.RetentionRuns = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestLoad_ProjectTimeout(t *testing.T) {
	clearConfigEnvVars(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte("timeout = \"2m\"\nstrict = true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Timeout != 2*time.Minute {
		t.Errorf("Timeout = %v, want 2m", cfg.Timeout)
	}
	if !cfg.Strict {
		t.Error("Strict should be read from the project file")
	}
}
