package core

import (
	"context"
	"errors"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
)

// CompiledPattern is a pattern compiled against one grammar. The underlying
// query is read-only once built and may be shared between goroutines; each
// Match call uses its own cursor.
type CompiledPattern struct {
	pattern *Pattern
	lang    *sitter.Language
	query   *sitter.Query
}

// CompilePattern compiles the pattern with the query engine
func CompilePattern(pattern *Pattern, lang *sitter.Language) (*CompiledPattern, error) {
	if pattern == nil {
		return nil, ErrNoPattern
	}

	q, err := sitter.NewQuery([]byte(pattern.Source), lang)
	if err != nil {
		qErr := &QueryCompileError{Pattern: pattern.Source, Err: err}
		var se *sitter.QueryError
		if errors.As(err, &se) {
			qErr.Offset = se.Offset
			qErr.Kind = queryErrorKind(se.Type)
		}
		return nil, qErr
	}

	return &CompiledPattern{pattern: pattern, lang: lang, query: q}, nil
}

// Pattern returns the source pattern
func (c *CompiledPattern) Pattern() *Pattern {
	return c.pattern
}

// Close releases the compiled query
func (c *CompiledPattern) Close() {
	if c.query != nil {
		c.query.Close()
	}
}

// Match runs the query over every file and returns one hit per capture per
// match. Each file's bytes are read again from disk so predicates compare
// against the exact text the tree was built from.
func (c *CompiledPattern) Match(ctx context.Context, files []*ParsedFile) ([]MatchHit, error) {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	var hits []MatchHit
	for _, pf := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		source, err := os.ReadFile(pf.Path)
		if err != nil {
			return nil, readError(pf.Path, err)
		}

		hits = c.matchTree(cursor, pf, source, hits)
	}
	return hits, nil
}

// MatchSource runs the query over a single tree with the given source text
func (c *CompiledPattern) MatchSource(pf *ParsedFile, source []byte) []MatchHit {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	return c.matchTree(cursor, pf, source, nil)
}

func (c *CompiledPattern) matchTree(cursor *sitter.QueryCursor, pf *ParsedFile, source []byte, hits []MatchHit) []MatchHit {
	cursor.Exec(c.query, pf.Tree.RootNode())

	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		// Filter out predicates before iterating captures
		match = cursor.FilterPredicates(match, source)
		for _, capture := range match.Captures {
			start := capture.Node.StartPoint()
			hits = append(hits, MatchHit{
				Path:    pf.Path,
				Row:     start.Row + 1,
				Column:  start.Column + 1,
				Capture: c.query.CaptureNameForId(capture.Index),
			})
		}
	}
	return hits
}

func queryErrorKind(t sitter.QueryErrorType) string {
	switch t {
	case sitter.QueryErrorSyntax:
		return "syntax"
	case sitter.QueryErrorNodeType:
		return "node type"
	case sitter.QueryErrorField:
		return "field"
	case sitter.QueryErrorCapture:
		return "capture"
	case sitter.QueryErrorStructure:
		return "structure"
	case sitter.QueryErrorLanguage:
		return "language"
	}
	return "unknown"
}
