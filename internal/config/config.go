package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// ProjectFile is the optional per-project configuration file
const ProjectFile = ".cgrep.toml"

// ErrConfig marks an invalid configuration value
var ErrConfig = errors.New("invalid configuration")

// Config holds the application's configuration.
type Config struct {
	Language       string        `toml:"language"`
	Workers        int           `toml:"workers"`
	ParseWorkers   int           `toml:"parse_workers"`
	Strict         bool          `toml:"strict"`
	Include        []string      `toml:"include"`
	Exclude        []string      `toml:"exclude"`
	MaxDepth       int           `toml:"max_depth"`
	MaxFiles       int           `toml:"max_files"`
	FollowSymlinks bool          `toml:"follow_symlinks"`
	Timeout        time.Duration `toml:"-"`
	DatabaseURL    string        `toml:"database_url"`
	Record         bool          `toml:"record"`
	RetentionRuns  int           `toml:"retention_runs"`
	Debug          bool          `toml:"debug"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Language:      "rust",
		Workers:       4,
		ParseWorkers:  runtime.NumCPU(),
		DatabaseURL:   defaultDatabaseURL(),
		RetentionRuns: 50,
	}
}

// Load builds the configuration for a project directory. Later sources win:
// defaults, then dir/.cgrep.toml, then dir/.env, then the process
// environment.
func Load(dir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, ProjectFile))
	switch {
	case err == nil:
		if err := decodeProjectFile(data, cfg); err != nil {
			return nil, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read %s: %w", ProjectFile, err)
	}

	dotenv, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	applyEnv(cfg, func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeProjectFile reads the TOML project file into cfg. The timeout is
// written as a duration string such as "30s".
func decodeProjectFile(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfig, ProjectFile, err)
	}

	var extra struct {
		Timeout string `toml:"timeout"`
	}
	if err := toml.Unmarshal(data, &extra); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfig, ProjectFile, err)
	}
	if extra.Timeout != "" {
		d, err := time.ParseDuration(extra.Timeout)
		if err != nil {
			return fmt.Errorf("%w: %s: timeout: %v", ErrConfig, ProjectFile, err)
		}
		cfg.Timeout = d
	}
	return nil
}

// applyEnv overrides cfg with CGREP_* variables. Malformed numbers and
// booleans are ignored and keep the previous value.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("CGREP_LANGUAGE"); ok && v != "" {
		cfg.Language = v
	}
	if v, ok := lookup("CGREP_DATABASE_URL"); ok && v != "" {
		cfg.DatabaseURL = v
	}
	if v, ok := lookup("CGREP_INCLUDE"); ok {
		cfg.Include = splitList(v)
	}
	if v, ok := lookup("CGREP_EXCLUDE"); ok {
		cfg.Exclude = splitList(v)
	}

	intVars := map[string]*int{
		"CGREP_WORKERS":        &cfg.Workers,
		"CGREP_PARSE_WORKERS":  &cfg.ParseWorkers,
		"CGREP_MAX_DEPTH":      &cfg.MaxDepth,
		"CGREP_MAX_FILES":      &cfg.MaxFiles,
		"CGREP_RETENTION_RUNS": &cfg.RetentionRuns,
	}
	for key, target := range intVars {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
				*target = n
			}
		}
	}

	boolVars := map[string]*bool{
		"CGREP_STRICT":          &cfg.Strict,
		"CGREP_FOLLOW_SYMLINKS": &cfg.FollowSymlinks,
		"CGREP_RECORD":          &cfg.Record,
		"CGREP_DEBUG":           &cfg.Debug,
	}
	for key, target := range boolVars {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				*target = b
			}
		}
	}

	if v, ok := lookup("CGREP_TIMEOUT"); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && d >= 0 {
			cfg.Timeout = d
		}
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Language) == "":
		return fmt.Errorf("%w: language is required", ErrConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrConfig, c.Workers)
	case c.ParseWorkers < 1:
		return fmt.Errorf("%w: parse_workers must be at least 1, got %d", ErrConfig, c.ParseWorkers)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: max_depth cannot be negative", ErrConfig)
	case c.MaxFiles < 0:
		return fmt.Errorf("%w: max_files cannot be negative", ErrConfig)
	case c.Timeout < 0:
		return fmt.Errorf("%w: timeout cannot be negative", ErrConfig)
	case c.RetentionRuns < 0:
		return fmt.Errorf("%w: retention_runs cannot be negative", ErrConfig)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func defaultDatabaseURL() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "cgrep", "history.db")
	}
	return filepath.Join(".cgrep", "history.db")
}
