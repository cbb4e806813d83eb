package rust

import "github.com/oxhq/cgrep/providers/base"

// New creates a Rust provider using base functionality with Rust grammar
func New() *base.Provider {
	return base.New(&Config{})
}
