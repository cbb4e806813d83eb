package golang

import "github.com/oxhq/cgrep/providers/base"

// New creates a Go provider using base functionality with Go grammar
func New() *base.Provider {
	return base.New(&Config{})
}
