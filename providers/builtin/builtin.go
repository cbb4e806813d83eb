// Package builtin wires the grammars compiled into cgrep into a registry.
package builtin

import (
	"github.com/oxhq/cgrep/providers"
	"github.com/oxhq/cgrep/providers/golang"
	"github.com/oxhq/cgrep/providers/javascript"
	"github.com/oxhq/cgrep/providers/php"
	"github.com/oxhq/cgrep/providers/python"
	"github.com/oxhq/cgrep/providers/rust"
	"github.com/oxhq/cgrep/providers/typescript"
)

// Factories lists the constructors of every built-in provider
var Factories = []func() providers.Provider{
	func() providers.Provider { return golang.New() },
	func() providers.Provider { return rust.New() },
	func() providers.Provider { return python.New() },
	func() providers.Provider { return javascript.New() },
	func() providers.Provider { return typescript.New() },
	func() providers.Provider { return php.New() },
}

// Register adds all built-in providers to the registry
func Register(r *providers.Registry) {
	for _, factory := range Factories {
		r.Register(factory())
	}
}

// NewRegistry returns a registry holding every built-in provider
func NewRegistry() *providers.Registry {
	r := providers.NewRegistry()
	Register(r)
	return r
}
