package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"
)

// Provider is the part of a language provider the search pipeline uses.
// Parse must be safe for concurrent use.
type Provider interface {
	Language() string
	Extensions() []string
	GetLanguage() *sitter.Language
	Parse(ctx context.Context, source []byte) (*sitter.Tree, error)
}

// ErrSyntax marks a tree rejected in strict mode because it contains errors
var ErrSyntax = errors.New("source contains syntax errors")

// ParseOptions tunes the parse stage
type ParseOptions struct {
	Workers int  // concurrent parse units, 0 means runtime.NumCPU()
	Strict  bool // reject trees containing ERROR or MISSING nodes
}

// ParseFile reads one file and parses it with the provider's grammar
func ParseFile(ctx context.Context, provider Provider, path string, opts ParseOptions) (*ParsedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, readError(path, err)
	}

	tree, err := provider.Parse(ctx, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, parseError(path, err)
	}

	if opts.Strict && tree.RootNode().HasError() {
		tree.Close()
		return nil, parseError(path, ErrSyntax)
	}

	return &ParsedFile{Path: path, Tree: tree}, nil
}

// ParseFiles parses every path concurrently and returns once all of them are
// done. The first failure stops the remaining work; trees parsed so far are
// released and the failure is returned.
func ParseFiles(ctx context.Context, provider Provider, paths []string, opts ParseOptions) (FileTable, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	table := make(FileTable, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}

		g.Go(func() error {
			pf, err := ParseFile(gctx, provider, path, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			table[pf.Path] = pf
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		table.Close()
		return nil, fmt.Errorf("parsing %d files: %w", len(seen), err)
	}
	return table, nil
}
