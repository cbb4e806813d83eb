package typescript

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Config implements LanguageConfig for TypeScript
type Config struct{}

// Language identifier
func (c *Config) Language() string {
	return "typescript"
}

// Aliases accepted on the command line
func (c *Config) Aliases() []string {
	return []string{"ts"}
}

// Extensions supported
func (c *Config) Extensions() []string {
	return []string{".ts", ".mts", ".cts"}
}

// GetLanguage returns tree-sitter language for TypeScript
func (c *Config) GetLanguage() *sitter.Language {
	return typescript.GetLanguage()
}
