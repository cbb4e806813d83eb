package python

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	config := &Config{}

	assert.Equal(t, "python", config.Language())
	assert.Equal(t, []string{".py", ".pyw", ".pyi"}, config.Extensions())
	assert.NotNil(t, config.GetLanguage())
	assert.Equal(t, []string{"py"}, config.Aliases())
}

func TestProvider_Parse(t *testing.T) {
	provider := New()

	tree, err := provider.Parse(context.Background(), []byte("def add(a, b):\n    return a + b\n"))
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, "module", tree.RootNode().Type())
	assert.False(t, tree.RootNode().HasError())
}

func TestProvider_Validate(t *testing.T) {
	provider := New()

	tests := []struct {
		name   string
		source string
		valid  bool
	}{
		{name: "valid Python", source: "def add(a, b):\n    return a + b\n", valid: true},
		{name: "broken Python", source: "def add(:\n", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := provider.Validate([]byte(tt.source))
			assert.Equal(t, tt.valid, result.Valid, "errors: %v", result.Errors)
			if !tt.valid {
				assert.NotEmpty(t, result.Errors)
			}
		})
	}
}
