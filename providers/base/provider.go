package base

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/cgrep/providers"
)

// LanguageConfig defines the language-specific data a provider is built from
type LanguageConfig interface {
	Language() string
	Aliases() []string
	Extensions() []string
	GetLanguage() *sitter.Language
}

// PreambleConfig is implemented by languages whose files start with node
// kinds that carry no structure of their own
type PreambleConfig interface {
	Preamble() []string
}

// ErrNilTree is returned when the parser produced no tree at all
var ErrNilTree = errors.New("parser returned no tree")

// Provider provides common functionality for all language providers
type Provider struct {
	config LanguageConfig
	lang   *sitter.Language
	pool   *ParserPool
}

// New creates a base provider with language-specific config
func New(config LanguageConfig) *Provider {
	lang := config.GetLanguage()
	if lang == nil {
		panic(fmt.Sprintf("Failed to load %s language for tree-sitter", config.Language()))
	}

	return &Provider{
		config: config,
		lang:   lang,
		pool:   NewParserPool(lang),
	}
}

// Language returns language identifier
func (p *Provider) Language() string {
	return p.config.Language()
}

// Aliases returns alternative names accepted for the language
func (p *Provider) Aliases() []string {
	return p.config.Aliases()
}

// Extensions returns supported file extensions
func (p *Provider) Extensions() []string {
	return p.config.Extensions()
}

// GetLanguage returns the tree-sitter grammar
func (p *Provider) GetLanguage() *sitter.Language {
	return p.lang
}

// Parse builds a syntax tree for source with a pooled parser. Safe for
// concurrent use.
func (p *Provider) Parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := p.pool.Borrow()
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		// A parser interrupted mid-parse is not reused.
		p.pool.Discard(parser)
		return nil, err
	}
	p.pool.Return(parser)

	if tree == nil {
		return nil, ErrNilTree
	}
	return tree, nil
}

// Validate checks syntax
func (p *Provider) Validate(source []byte) providers.ValidationResult {
	tree, err := p.Parse(context.Background(), source)
	if err != nil {
		return providers.ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("Failed to parse source: %v", err)},
		}
	}
	defer tree.Close()

	var errs []string
	findErrors(tree.RootNode(), &errs)

	return providers.ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// SnippetRoot returns the first top-level child of root that is not part of
// the language preamble
func (p *Provider) SnippetRoot(root *sitter.Node) *sitter.Node {
	if root == nil || root.ChildCount() == 0 {
		return nil
	}

	preamble, ok := p.config.(PreambleConfig)
	if !ok {
		return root.Child(0)
	}

	skip := make(map[string]struct{})
	for _, kind := range preamble.Preamble() {
		skip[kind] = struct{}{}
	}
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if _, preambleNode := skip[child.Type()]; !preambleNode {
			return child
		}
	}
	return nil
}

// Stats reports parser pool usage
func (p *Provider) Stats() providers.Stats {
	borrowed, returned := p.pool.Counters()
	return providers.Stats{
		BorrowCount: borrowed,
		ReturnCount: returned,
		Active:      borrowed - returned,
	}
}

// findErrors looks for syntax errors in AST
func findErrors(node *sitter.Node, errs *[]string) {
	switch {
	case node.IsMissing():
		*errs = append(*errs, fmt.Sprintf(
			"Missing %s at line %d, column %d",
			node.Type(),
			node.StartPoint().Row+1,
			node.StartPoint().Column+1,
		))
	case node.Type() == "ERROR":
		*errs = append(*errs, fmt.Sprintf(
			"Syntax error at line %d, column %d",
			node.StartPoint().Row+1,
			node.StartPoint().Column+1,
		))
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		findErrors(node.Child(i), errs)
	}
}
