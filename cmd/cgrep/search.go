package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oxhq/cgrep/core"
	"github.com/oxhq/cgrep/db"
	"github.com/oxhq/cgrep/internal/config"
	"github.com/oxhq/cgrep/internal/output"
)

// applySearchFlags copies every explicitly set search flag onto cfg
func (a *app) applySearchFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	s := a.search

	if flags.Changed("workers") {
		cfg.Workers = s.workers
	}
	if flags.Changed("parse-workers") {
		cfg.ParseWorkers = s.parseWorkers
	}
	if flags.Changed("strict") {
		cfg.Strict = s.strict
	}
	if flags.Changed("include") {
		cfg.Include = s.include
	}
	if flags.Changed("exclude") {
		cfg.Exclude = s.exclude
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = s.maxDepth
	}
	if flags.Changed("max-files") {
		cfg.MaxFiles = s.maxFiles
	}
	if flags.Changed("follow-symlinks") {
		cfg.FollowSymlinks = s.followSymlinks
	}
	if flags.Changed("timeout") {
		cfg.Timeout = s.timeout
	}
	if flags.Changed("record") {
		cfg.Record = s.record
	}
}

// runSearch is the default command: cgrep <directory> <snippet>
func (a *app) runSearch(cmd *cobra.Command, args []string) error {
	root := args[0]
	language := a.cfg.Language

	snippet, err := readSnippet(a.stdin, args[1])
	if err != nil {
		return err
	}

	provider, err := a.provider()
	if err != nil {
		return a.fail(root, language, err)
	}
	language = provider.Language()

	ctx := cmd.Context()
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	scope := core.FileScope{
		Path:           root,
		Include:        a.cfg.Include,
		Exclude:        a.cfg.Exclude,
		MaxDepth:       a.cfg.MaxDepth,
		MaxFiles:       a.cfg.MaxFiles,
		FollowSymlinks: a.cfg.FollowSymlinks,
	}

	searcher := core.NewSearcher(provider,
		core.WithLogger(a.logger),
		core.WithWorkers(a.cfg.Workers),
		core.WithParseWorkers(a.cfg.ParseWorkers),
		core.WithStrict(a.cfg.Strict),
	)

	result, err := searcher.Run(ctx, scope, snippet)
	if err != nil {
		return a.fail(root, language, err)
	}
	a.logger.Info("search finished",
		zap.String("root", root),
		zap.String("language", language),
		zap.Int("files", len(result.Files)),
		zap.Int("matches", result.Matches()))

	report := output.NewReport(root, language, result)

	if a.cfg.Record {
		scope.Extensions = provider.Extensions()
		id, err := a.record(ctx, language, snippet, scope, result)
		if err != nil {
			return err
		}
		report.RunID = id
	}

	return a.emit(report, string(snippet), result)
}

// record stores the run in the history database and applies the retention
// limit
func (a *app) record(ctx context.Context, language string, snippet []byte, scope core.FileScope, result *core.Result) (string, error) {
	history, closeDB, err := a.openHistory()
	if err != nil {
		return "", err
	}
	defer closeDB()

	run, err := db.NewRun(language, snippet, scope, a.cfg.Workers, result)
	if err != nil {
		return "", err
	}
	if err := history.Record(ctx, run); err != nil {
		return "", err
	}

	if a.cfg.RetentionRuns > 0 {
		pruned, err := history.Prune(ctx, a.cfg.RetentionRuns)
		if err != nil {
			a.logger.Warn("failed to prune history", zap.Error(err))
		} else if pruned > 0 {
			a.logger.Debug("pruned history", zap.Int64("runs", pruned))
		}
	}
	return run.ID, nil
}

// emit writes the report in the requested format, to --output when set
func (a *app) emit(report *output.Report, snippet string, result *core.Result) error {
	if a.search.json || a.search.output != "" {
		format := output.FormatText
		if a.search.json {
			format = output.FormatJSON
		}
		data, err := report.Render(format)
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		if a.search.output != "" {
			if err := output.NewAtomicWriter(output.DefaultAtomicConfig()).WriteFile(a.search.output, data); err != nil {
				return err
			}
			if !a.search.json {
				newPrinter(a.stdout, false).summary(report, a.search.output)
			}
			return nil
		}
		_, err = a.stdout.Write(data)
		return err
	}

	p := newPrinter(a.stdout, a.search.verbose)
	if p.verbose {
		p.paths(result.Files)
	}
	if a.search.timings {
		p.timings(result)
	}
	p.hits(report, snippet)
	if report.RunID != "" {
		p.recorded(report.RunID)
	}
	return nil
}

// fail reports err as JSON when JSON output was requested, then returns it
func (a *app) fail(root, language string, err error) error {
	if a.search.json && a.search.output == "" {
		if data, rerr := output.NewErrorReport(root, language, err).Render(output.FormatJSON); rerr == nil {
			_, _ = a.stdout.Write(data)
		}
	}
	return err
}

// readSnippet returns arg, or standard input when arg is "-"
func readSnippet(stdin io.Reader, arg string) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	if stdin == nil {
		return nil, errors.New("no standard input to read the snippet from")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read snippet: %w", err)
	}
	return data, nil
}

// openHistory connects to the configured history database
func (a *app) openHistory() (*db.History, func(), error) {
	conn, err := db.Connect(a.cfg.DatabaseURL, a.cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	closeDB := func() {
		if err := db.Close(conn); err != nil {
			a.logger.Warn("failed to close history", zap.Error(err))
		}
	}
	return db.NewHistory(conn), closeDB, nil
}
