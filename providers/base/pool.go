package base

import (
	"sync"
	"sync/atomic"

	sitter "github.com/smacker/go-tree-sitter"
)

// ParserPool hands out parsers bound to one grammar. A sitter.Parser must not
// be used by two goroutines at once, so every concurrent parse borrows its own.
type ParserPool struct {
	lang    *sitter.Language
	pool    sync.Pool
	borrows atomic.Int64
	returns atomic.Int64
}

// NewParserPool creates a pool for the given grammar
func NewParserPool(lang *sitter.Language) *ParserPool {
	pp := &ParserPool{lang: lang}
	pp.pool.New = func() any {
		parser := sitter.NewParser()
		parser.SetLanguage(lang)
		return parser
	}
	return pp
}

// Borrow takes a parser out of the pool
func (pp *ParserPool) Borrow() *sitter.Parser {
	pp.borrows.Add(1)
	return pp.pool.Get().(*sitter.Parser)
}

// Return puts a parser back. The parser is reset so an interrupted parse
// does not leak state into the next one.
func (pp *ParserPool) Return(parser *sitter.Parser) {
	if parser == nil {
		return
	}
	parser.Reset()
	pp.returns.Add(1)
	pp.pool.Put(parser)
}

// Discard drops a parser instead of returning it to the pool
func (pp *ParserPool) Discard(parser *sitter.Parser) {
	if parser == nil {
		return
	}
	parser.Close()
	pp.returns.Add(1)
}

// Counters returns borrow and return totals
func (pp *ParserPool) Counters() (borrowed, returned int64) {
	return pp.borrows.Load(), pp.returns.Load()
}
