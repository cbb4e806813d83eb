package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/cgrep/providers/golang"
	"github.com/oxhq/cgrep/providers/rust"
)

var (
	goProvider   = golang.New()
	rustProvider = rust.New()
)

// writeTree creates files (relative path -> content) under a fresh temp dir
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func collectPaths(t *testing.T, results <-chan WalkResult) map[string]bool {
	t.Helper()
	found := make(map[string]bool)
	for result := range results {
		if result.Error == nil {
			found[result.Path] = true
		}
	}
	return found
}
