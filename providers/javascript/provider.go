package javascript

import "github.com/oxhq/cgrep/providers/base"

// New creates a JavaScript provider using base functionality with JavaScript grammar
func New() *base.Provider {
	return base.New(&Config{})
}
