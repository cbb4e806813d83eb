package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/cgrep/core"
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	assert.Equal(t, []string{"go", "javascript", "php", "python", "rust", "typescript"}, registry.Languages())

	for _, alias := range []string{"golang", "rs", "py", "js", "node", "ts"} {
		_, ok := registry.Get(alias)
		assert.True(t, ok, "alias %s", alias)
	}

	provider, ok := registry.ForPath("lib/app.tsx")
	assert.False(t, ok, "tsx is not claimed by any built-in grammar: %v", provider)

	provider, ok = registry.ForPath("lib/app.mjs")
	require.True(t, ok)
	assert.Equal(t, "javascript", provider.Language())
}

// Every built-in grammar must produce patterns that find the literal function
// they came from and reject the same function under another name.
func TestBuiltinGrammars_LiteralSearch(t *testing.T) {
	tests := []struct {
		language string
		file     string
		snippet  string
		renamed  string
	}{
		{
			language: "go",
			file:     "add.go",
			snippet:  "func add(a int, b int) int {\n\treturn a + b\n}\n",
			renamed:  "func plus(a int, b int) int {\n\treturn a + b\n}\n",
		},
		{
			language: "rust",
			file:     "add.rs",
			snippet:  "fn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n",
			renamed:  "fn plus(a: i32, b: i32) -> i32 {\n    a + b\n}\n",
		},
		{
			language: "python",
			file:     "add.py",
			snippet:  "def add(a, b):\n    return a + b\n",
			renamed:  "def plus(a, b):\n    return a + b\n",
		},
		{
			language: "javascript",
			file:     "add.js",
			snippet:  "function add(a, b) {\n  return a + b;\n}\n",
			renamed:  "function plus(a, b) {\n  return a + b;\n}\n",
		},
		{
			language: "typescript",
			file:     "add.ts",
			snippet:  "function add(a: number, b: number): number {\n  return a + b;\n}\n",
			renamed:  "function plus(a: number, b: number): number {\n  return a + b;\n}\n",
		},
		{
			language: "php",
			file:     "add.php",
			snippet:  "<?php\nfunction add($a, $b) {\n  return $a + $b;\n}\n",
			renamed:  "<?php\nfunction plus($a, $b) {\n  return $a + $b;\n}\n",
		},
	}

	registry := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			provider, err := registry.Resolve(tt.language)
			require.NoError(t, err)

			root := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(root, tt.file), []byte(tt.snippet), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(root, "renamed"+filepath.Ext(tt.file)), []byte(tt.renamed), 0o644))

			result, err := core.NewSearcher(provider).Run(context.Background(), core.FileScope{Path: root}, []byte(tt.snippet))
			require.NoError(t, err)
			require.NotNil(t, result.Pattern)
			assert.Len(t, result.Files, 2)
			assert.Equal(t, 1, result.Matches(), "pattern: %s", result.Pattern.Source)

			for _, hit := range result.Hits {
				assert.Equal(t, filepath.Join(root, tt.file), hit.Path)
			}
		})
	}
}
