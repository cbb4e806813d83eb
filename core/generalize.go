package core

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/cgrep/providers"
)

// fieldCounter hands out capture ids. One counter serves a whole
// generalization pass so ids never repeat, whatever the depth.
type fieldCounter struct {
	next int
}

func (c *fieldCounter) take() int {
	id := c.next
	c.next++
	return id
}

// SnippetRooter is implemented by providers whose grammar opens every file
// with a fixed node, such as the PHP open tag. SnippetRoot returns the
// top-level node the snippet is generalized from.
type SnippetRooter interface {
	SnippetRoot(root *sitter.Node) *sitter.Node
}

// SyntaxChecker is implemented by providers that can describe the syntax
// errors of a source
type SyntaxChecker interface {
	Validate(source []byte) providers.ValidationResult
}

// Generalize parses a snippet with the provider's grammar and turns its first
// top-level node into a structural query. Recovered errors elsewhere in the
// tree, such as a missing semicolon, do not prevent a pattern. It returns
// ErrNoPattern when the snippet is empty, cannot be parsed, or its first
// top-level node is missing, anonymous or an ERROR node.
func Generalize(ctx context.Context, provider Provider, snippet []byte) (*Pattern, error) {
	if len(bytes.TrimSpace(snippet)) == 0 {
		return nil, fmt.Errorf("%w: empty snippet", ErrNoPattern)
	}

	tree, err := provider.Parse(ctx, snippet)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrNoPattern, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.IsMissing() {
		return nil, fmt.Errorf("%w: snippet tree has no root", ErrNoPattern)
	}
	if root.ChildCount() == 0 {
		return nil, fmt.Errorf("%w: snippet has no top-level node", ErrNoPattern)
	}

	first := root.Child(0)
	if rooter, ok := provider.(SnippetRooter); ok {
		first = rooter.SnippetRoot(root)
	}
	if root.Type() == errorNode || first == nil || first.IsMissing() || !first.IsNamed() || first.Type() == errorNode {
		return nil, fmt.Errorf("%w: %s", ErrNoPattern, unusableReason(provider, snippet))
	}

	return GeneralizeNode(first, snippet), nil
}

const errorNode = "ERROR"

// unusableReason explains why a snippet has no usable top-level node, using
// the provider's syntax check when it has one
func unusableReason(provider Provider, snippet []byte) string {
	if checker, ok := provider.(SyntaxChecker); ok {
		if result := checker.Validate(snippet); !result.Valid && len(result.Errors) > 0 {
			return fmt.Sprintf("snippet does not parse as %s: %s", provider.Language(), result.Errors[0])
		}
	}
	return "snippet has no usable top-level node"
}

// GeneralizeNode builds the pattern for node, whose text is taken from source.
// The node itself is captured as @match.
func GeneralizeNode(node *sitter.Node, source []byte) *Pattern {
	var counter fieldCounter
	sexp := generalize(node, source, &counter)
	return &Pattern{
		Source: fmt.Sprintf("(%s @%s)", sexp, MatchCapture),
		Fields: counter.next,
	}
}

// generalize emits the s-expression for node. Named children in a field get a
// capture; single-line field text is pinned with #eq?, multi-line text is
// left open. Anonymous children are skipped.
func generalize(node *sitter.Node, source []byte, counter *fieldCounter) string {
	kind := node.Type()
	if node.ChildCount() == 0 {
		return "(" + kind + ")"
	}

	var parts []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}

		field := node.FieldNameForChild(i)
		if field == "" {
			parts = append(parts, generalize(child, source, counter))
			continue
		}

		id := field + strconv.Itoa(counter.take())
		text := child.Content(source)
		sub := generalize(child, source, counter)

		part := fmt.Sprintf("%s: %s @%s", field, sub, id)
		if !strings.Contains(text, "\n") {
			part += fmt.Sprintf(" (#eq? @%s %s)", id, quoteQueryString(text))
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return "(" + kind + ")"
	}
	return "(" + kind + " " + strings.Join(parts, " ") + ")"
}

var queryStringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\x00", `\0`,
)

// quoteQueryString renders s as a string literal of the query language
func quoteQueryString(s string) string {
	return `"` + queryStringEscaper.Replace(s) + `"`
}
