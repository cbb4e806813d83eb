package core

import (
	"fmt"
	"io/fs"
	"sort"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
)

// FileScope defines which files a search walks
type FileScope struct {
	Path           string   `json:"path"`                 // Root path to scan
	Extensions     []string `json:"extensions,omitempty"` // Extension filter (.go, rs); empty means all files
	Include        []string `json:"include,omitempty"`    // File patterns to include (*.go, **/*.ts)
	Exclude        []string `json:"exclude,omitempty"`    // File patterns to exclude
	MaxDepth       int      `json:"max_depth,omitempty"`  // Max directory depth (0 = unlimited)
	MaxFiles       int      `json:"max_files,omitempty"`  // Max files to process (0 = unlimited)
	FollowSymlinks bool     `json:"follow_symlinks"`      // Follow symbolic links
}

// WalkResult represents a discovered file
type WalkResult struct {
	Path  string
	Info  fs.FileInfo
	Error error
}

// ParsedFile is one entry of a FileTable: a path and the tree parsed from it.
// The tree is owned by the entry and released by FileTable.Close.
type ParsedFile struct {
	Path string
	Tree *sitter.Tree
}

// FileTable maps a file path to its parsed tree. It is built once by
// ParseFiles and only read afterwards.
type FileTable map[string]*ParsedFile

// Entries returns the table's entries sorted by path.
func (t FileTable) Entries() []*ParsedFile {
	entries := make([]*ParsedFile, 0, len(t))
	for _, pf := range t {
		entries = append(entries, pf)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries
}

// Paths returns the sorted keys of the table.
func (t FileTable) Paths() []string {
	paths := make([]string, 0, len(t))
	for path := range t {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Close releases every tree held by the table.
func (t FileTable) Close() {
	for _, pf := range t {
		if pf != nil && pf.Tree != nil {
			pf.Tree.Close()
		}
	}
}

// Pattern is a generalized structural query built from a snippet.
type Pattern struct {
	Source string `json:"source"` // tree-sitter query text
	Fields int    `json:"fields"` // field captures allocated while generalizing
}

// MatchCapture is the capture wrapping the whole snippet in every pattern.
const MatchCapture = "match"

// MatchHit is one captured node of one match. Row and Column are 1-based.
type MatchHit struct {
	Path    string `json:"path"`
	Row     uint32 `json:"row"`
	Column  uint32 `json:"column"`
	Capture string `json:"capture"`
}

// String renders the hit as path:row:col
func (h MatchHit) String() string {
	return fmt.Sprintf("%s:%d:%d", h.Path, h.Row, h.Column)
}

// Result is the outcome of a full search run
type Result struct {
	Files          []string      `json:"files"`
	Pattern        *Pattern      `json:"pattern,omitempty"`
	Hits           []MatchHit    `json:"hits"`
	WalkDuration   time.Duration `json:"walk_duration"`
	ParseDuration  time.Duration `json:"parse_duration"`
	SearchDuration time.Duration `json:"search_duration"`
}

// Lines renders every hit as path:row:col
func (r *Result) Lines() []string {
	lines := make([]string, 0, len(r.Hits))
	for _, hit := range r.Hits {
		lines = append(lines, hit.String())
	}
	return lines
}

// Matches counts the distinct matches, i.e. hits produced by the top-level capture
func (r *Result) Matches() int {
	count := 0
	for _, hit := range r.Hits {
		if hit.Capture == MatchCapture {
			count++
		}
	}
	return count
}
