package php

import "github.com/oxhq/cgrep/providers/base"

// New creates a PHP provider using base functionality with PHP grammar
func New() *base.Provider {
	return base.New(&Config{})
}
