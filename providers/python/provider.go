package python

import "github.com/oxhq/cgrep/providers/base"

// New creates a Python provider using base functionality with Python grammar
func New() *base.Provider {
	return base.New(&Config{})
}
