package core

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/oxhq/cgrep/providers"
)

// DefaultSearchWorkers is the number of match shards when none is configured
const DefaultSearchWorkers = 4

// StatsReporter is implemented by providers that count parser pool usage
type StatsReporter interface {
	Stats() providers.Stats
}

// Searcher drives a whole run: walk, parse, generalize, compile and search
type Searcher struct {
	walker       *FileWalker
	provider     Provider
	logger       *zap.Logger
	workers      int
	parseWorkers int
	strict       bool
}

// SearcherOption configures a Searcher
type SearcherOption func(*Searcher)

// WithLogger sets the logger used for stage reporting
func WithLogger(logger *zap.Logger) SearcherOption {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWorkers sets the number of match shards
func WithWorkers(n int) SearcherOption {
	return func(s *Searcher) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithParseWorkers bounds the number of files parsed at once
func WithParseWorkers(n int) SearcherOption {
	return func(s *Searcher) {
		if n > 0 {
			s.parseWorkers = n
		}
	}
}

// WithStrict rejects source files whose tree contains syntax errors
func WithStrict(strict bool) SearcherOption {
	return func(s *Searcher) {
		s.strict = strict
	}
}

// NewSearcher creates a searcher for one grammar
func NewSearcher(provider Provider, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		walker:       NewFileWalker(),
		provider:     provider,
		logger:       zap.NewNop(),
		workers:      DefaultSearchWorkers,
		parseWorkers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the grammar provider the searcher runs with
func (s *Searcher) Provider() Provider {
	return s.provider
}

type generalizeResult struct {
	compiled *CompiledPattern
	err      error
}

// Run searches every file under scope for code shaped like snippet. When the
// scope carries no extensions the provider's extensions are used. A snippet
// that yields no pattern is not an error: the result simply has no hits.
func (s *Searcher) Run(ctx context.Context, scope FileScope, snippet []byte) (*Result, error) {
	if len(scope.Extensions) == 0 {
		scope.Extensions = s.provider.Extensions()
	}

	result := &Result{Hits: []MatchHit{}}

	start := time.Now()
	paths, err := s.walker.Collect(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to walk files: %w", err)
	}
	result.Files = paths
	result.WalkDuration = time.Since(start)
	s.logger.Debug("walk finished",
		zap.String("root", scope.Path),
		zap.Int("files", len(paths)),
		zap.Duration("duration", result.WalkDuration))

	// The pattern does not depend on the files, so it is built while they parse.
	patternCh := make(chan generalizeResult, 1)
	go func() {
		patternCh <- s.compile(ctx, snippet)
	}()

	start = time.Now()
	table, parseErr := ParseFiles(ctx, s.provider, paths, ParseOptions{
		Workers: s.parseWorkers,
		Strict:  s.strict,
	})
	result.ParseDuration = time.Since(start)
	gen := <-patternCh

	if parseErr != nil {
		if gen.compiled != nil {
			gen.compiled.Close()
		}
		return nil, parseErr
	}
	defer table.Close()
	fields := []zap.Field{
		zap.Int("files", len(table)),
		zap.Duration("duration", result.ParseDuration),
	}
	if reporter, ok := s.provider.(StatsReporter); ok {
		stats := reporter.Stats()
		fields = append(fields,
			zap.Int64("parsers_borrowed", stats.BorrowCount),
			zap.Int64("parsers_returned", stats.ReturnCount))
	}
	s.logger.Debug("parse finished", fields...)

	if gen.err != nil {
		if errors.Is(gen.err, ErrNoPattern) {
			s.logger.Warn("no pattern could be built from snippet", zap.Error(gen.err))
			return result, nil
		}
		return nil, gen.err
	}
	defer gen.compiled.Close()
	result.Pattern = gen.compiled.Pattern()
	s.logger.Debug("pattern compiled",
		zap.String("pattern", result.Pattern.Source),
		zap.Int("fields", result.Pattern.Fields))

	start = time.Now()
	hits, err := Search(ctx, table, gen.compiled, s.workers)
	result.SearchDuration = time.Since(start)
	if err != nil {
		return nil, err
	}
	result.Hits = hits
	s.logger.Debug("search finished",
		zap.Int("hits", len(hits)),
		zap.Int("workers", s.workers),
		zap.Duration("duration", result.SearchDuration))

	return result, nil
}

// Pattern generalizes snippet without searching anything
func (s *Searcher) Pattern(ctx context.Context, snippet []byte) (*Pattern, error) {
	gen := s.compile(ctx, snippet)
	if gen.err != nil {
		return nil, gen.err
	}
	defer gen.compiled.Close()
	return gen.compiled.Pattern(), nil
}

func (s *Searcher) compile(ctx context.Context, snippet []byte) generalizeResult {
	pattern, err := Generalize(ctx, s.provider, snippet)
	if err != nil {
		return generalizeResult{err: err}
	}
	compiled, err := CompilePattern(pattern, s.provider.GetLanguage())
	if err != nil {
		return generalizeResult{err: err}
	}
	return generalizeResult{compiled: compiled}
}
