package core

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Shard splits entries into contiguous, disjoint shards of ceil(n/workers)
// entries. No shard is empty, so fewer than workers shards come back when
// there are few entries.
func Shard(entries []*ParsedFile, workers int) [][]*ParsedFile {
	if len(entries) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}

	size := (len(entries) + workers - 1) / workers
	shards := make([][]*ParsedFile, 0, workers)
	for start := 0; start < len(entries); start += size {
		end := min(start+size, len(entries))
		shards = append(shards, entries[start:end:end])
	}
	return shards
}

// Search matches the compiled pattern against every file of the table using
// one goroutine per shard. Each goroutine owns its shard, so nothing is
// locked while matching. Hits are concatenated in shard completion order. A
// failing or panicking shard fails the whole search.
func Search(ctx context.Context, files FileTable, pattern *CompiledPattern, workers int) ([]MatchHit, error) {
	shards := Shard(files.Entries(), workers)
	if len(shards) == 0 {
		return []MatchHit{}, nil
	}

	results := make(chan []MatchHit, len(shards))
	g, gctx := errgroup.WithContext(ctx)

	for i, shard := range shards {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &WorkerError{Shard: i, Err: fmt.Errorf("panic: %v", r)}
				}
			}()

			hits, err := pattern.Match(gctx, shard)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return &WorkerError{Shard: i, Err: err}
			}
			results <- hits
			return nil
		})
	}

	err := g.Wait()
	close(results)
	if err != nil {
		return nil, err
	}

	all := make([]MatchHit, 0)
	for hits := range results {
		all = append(all, hits...)
	}
	return all, nil
}
