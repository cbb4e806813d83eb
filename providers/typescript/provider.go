package typescript

import "github.com/oxhq/cgrep/providers/base"

// New creates a TypeScript provider using base functionality with TypeScript grammar
func New() *base.Provider {
	return base.New(&Config{})
}
