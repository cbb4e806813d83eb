package catalog

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// LanguageInfo captures metadata about a language provider.
type LanguageInfo struct {
	ID         string
	Aliases    []string
	Extensions []string
}

var (
	mu     sync.RWMutex
	byLang = make(map[string]LanguageInfo)
	byExt  = make(map[string]LanguageInfo)
)

// Register stores language metadata for extension lookups. A later
// registration for the same language replaces the earlier one, including the
// extensions it claimed.
func Register(info LanguageInfo) {
	if info.ID == "" {
		return
	}

	id := strings.ToLower(info.ID)
	info.ID = id
	info.Extensions = NormalizeExtensions(info.Extensions)

	mu.Lock()
	defer mu.Unlock()

	if prev, ok := byLang[id]; ok {
		for _, ext := range prev.Extensions {
			if owner, ok := byExt[ext]; ok && owner.ID == id {
				delete(byExt, ext)
			}
		}
	}

	byLang[id] = info
	for _, ext := range info.Extensions {
		byExt[ext] = info
	}
}

// LookupByExtension returns the language info associated with a file extension.
func LookupByExtension(ext string) (LanguageInfo, bool) {
	normalized := NormalizeExtensions([]string{ext})
	if len(normalized) == 0 {
		return LanguageInfo{}, false
	}

	mu.RLock()
	defer mu.RUnlock()
	info, ok := byExt[normalized[0]]
	return info, ok
}

// LookupByPath returns the language info for a file path's extension.
func LookupByPath(path string) (LanguageInfo, bool) {
	return LookupByExtension(filepath.Ext(path))
}

// Languages returns all registered language infos sorted by language ID.
func Languages() []LanguageInfo {
	mu.RLock()
	defer mu.RUnlock()

	infos := make([]LanguageInfo, 0, len(byLang))
	for _, info := range byLang {
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// NormalizeExtensions lower-cases, dot-prefixes and dedupes extensions.
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(exts))
	for _, ext := range exts {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" || normalized == "." {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}
