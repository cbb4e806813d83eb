package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oxhq/cgrep/internal/config"
	"github.com/oxhq/cgrep/providers"
	"github.com/oxhq/cgrep/providers/builtin"
)

// app carries the state shared by every command of one invocation
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	registry *providers.Registry
	logger   *zap.Logger

	configDir string
	language  string
	database  string
	debug     bool

	search searchFlags
}

// searchFlags holds the flags of the default search command
type searchFlags struct {
	workers        int
	parseWorkers   int
	strict         bool
	include        []string
	exclude        []string
	maxDepth       int
	maxFiles       int
	followSymlinks bool
	timeout        time.Duration
	json           bool
	output         string
	verbose        bool
	timings        bool
	record         bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		registry: builtin.NewRegistry(),
		logger:   zap.NewNop(),
	}

	rootCmd := &cobra.Command{
		Use:   "cgrep <directory> <snippet>",
		Short: "cgrep - structural code search driven by an example snippet",
		Long: `cgrep parses every source file under <directory>, turns <snippet> into a
structural query and prints the location of every piece of code shaped like it.
Pass "-" as the snippet to read it from standard input.`,
		Args:              cobra.MinimumNArgs(2),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
		RunE: a.runSearch,
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configDir, "config", ".", "Directory holding .cgrep.toml and .env")
	pf.StringVarP(&a.language, "lang", "l", "", "Language of the snippet and the searched files (default from config, rust)")
	pf.StringVar(&a.database, "db", "", "History database path or libsql URL")
	pf.BoolVar(&a.debug, "debug", false, "Enable debug logging")

	f := rootCmd.Flags()
	f.IntVarP(&a.search.workers, "workers", "w", 0, "Number of search shards")
	f.IntVar(&a.search.parseWorkers, "parse-workers", 0, "Number of files parsed at once")
	f.BoolVar(&a.search.strict, "strict", false, "Fail on source files with syntax errors")
	f.StringSliceVar(&a.search.include, "include", nil, "Glob patterns of files to include, relative to the directory")
	f.StringSliceVar(&a.search.exclude, "exclude", nil, "Glob patterns of files to exclude, relative to the directory")
	f.IntVar(&a.search.maxDepth, "max-depth", 0, "Maximum directory depth (0 = unlimited)")
	f.IntVar(&a.search.maxFiles, "max-files", 0, "Maximum number of files to search (0 = unlimited)")
	f.BoolVar(&a.search.followSymlinks, "follow-symlinks", false, "Follow symbolic links")
	f.DurationVar(&a.search.timeout, "timeout", 0, "Abort the search after this duration (e.g. 30s)")
	f.BoolVar(&a.search.json, "json", false, "Print the report as JSON")
	f.StringVarP(&a.search.output, "output", "o", "", "Write the report to a file instead of stdout")
	f.BoolVarP(&a.search.verbose, "verbose", "v", false, "List the searched files")
	f.BoolVar(&a.search.timings, "timings", false, "Print the duration of each stage")
	f.BoolVar(&a.search.record, "record", false, "Store the run in the history database")

	rootCmd.AddCommand(a.newPatternCmd())
	rootCmd.AddCommand(a.newLanguagesCmd())
	rootCmd.AddCommand(a.newHistoryCmd())
	rootCmd.AddCommand(a.newCompareCmd())

	return rootCmd
}

// setup loads the configuration and lets command-line flags override it
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("lang") {
		cfg.Language = a.language
	}
	if flags.Changed("db") {
		cfg.DatabaseURL = a.database
	}
	if flags.Changed("debug") {
		cfg.Debug = a.debug
	}
	a.applySearchFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg.Debug)
	return nil
}

// newLogger writes JSON logs at info level, or console logs at debug level
// when debugging
func newLogger(w io.Writer, debug bool) *zap.Logger {
	if debug {
		encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.DebugLevel), zap.AddCaller())
	}
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.InfoLevel))
}

// provider resolves the configured language
func (a *app) provider() (providers.Provider, error) {
	p, err := a.registry.Resolve(a.cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("--lang: %w", err)
	}
	return p, nil
}
