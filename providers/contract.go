package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/oxhq/cgrep/providers/catalog"
)

// Provider interface for language-specific grammar access
type Provider interface {
	// Metadata
	Language() string
	Aliases() []string
	Extensions() []string

	// Grammar
	GetLanguage() *sitter.Language
	Parse(ctx context.Context, source []byte) (*sitter.Tree, error)
	Validate(source []byte) ValidationResult

	// Observability
	Stats() Stats
}

// ValidationResult from syntax check
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Registry manages all providers
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	names     map[string]string // alias or id -> id
}

// NewRegistry creates provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		names:     make(map[string]string),
	}
}

// Register adds a provider under its language id and aliases
func (r *Registry) Register(provider Provider) {
	id := strings.ToLower(provider.Language())

	r.mu.Lock()
	r.providers[id] = provider
	r.names[id] = id
	for _, alias := range provider.Aliases() {
		r.names[strings.ToLower(alias)] = id
	}
	r.mu.Unlock()

	catalog.Register(catalog.LanguageInfo{
		ID:         id,
		Aliases:    provider.Aliases(),
		Extensions: provider.Extensions(),
	})
}

// Get retrieves provider by language id or alias
func (r *Registry) Get(language string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		return nil, false
	}
	p, exists := r.providers[id]
	return p, exists
}

// Resolve is Get with an error listing the known languages
func (r *Registry) Resolve(language string) (Provider, error) {
	if p, ok := r.Get(language); ok {
		return p, nil
	}
	return nil, fmt.Errorf("unsupported language %q (available: %s)", language, strings.Join(r.Languages(), ", "))
}

// ForPath picks the provider whose extensions cover the file
func (r *Registry) ForPath(path string) (Provider, bool) {
	info, ok := catalog.LookupByPath(path)
	if !ok {
		return nil, false
	}
	return r.Get(info.ID)
}

// List returns all providers sorted by language
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Language() < result[j].Language()
	})
	return result
}

// Languages returns all registered language identifiers, sorted
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	langs := make([]string, 0, len(r.providers))
	for k := range r.providers {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	return langs
}

// Stats captures parser-pool level metrics exposed by providers.
type Stats struct {
	BorrowCount int64 `json:"borrow_count"`
	ReturnCount int64 `json:"return_count"`
	Active      int64 `json:"active"`
}
