package rust

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// Config implements LanguageConfig for Rust
type Config struct{}

// Language identifier
func (c *Config) Language() string {
	return "rust"
}

// Aliases accepted on the command line
func (c *Config) Aliases() []string {
	return []string{"rs"}
}

// Extensions supported
func (c *Config) Extensions() []string {
	return []string{".rs"}
}

// GetLanguage returns tree-sitter language for Rust
func (c *Config) GetLanguage() *sitter.Language {
	return rust.GetLanguage()
}
