package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oxhq/cgrep/core"
	"github.com/oxhq/cgrep/models"
)

var (
	ErrRunNotFound  = errors.New("search run not found")
	ErrAmbiguousRun = errors.New("search run id prefix is ambiguous")
)

// hitBatchSize keeps a single insert well below SQLite's variable limit
const hitBatchSize = 200

// History stores finished searches so they can be listed and compared later
type History struct {
	db *gorm.DB
}

// NewHistory wraps an open, migrated database
func NewHistory(db *gorm.DB) *History {
	return &History{db: db}
}

// NewRun converts a finished search into a record ready to be stored
func NewRun(language string, snippet []byte, scope core.FileScope, workers int, result *core.Result) (*models.SearchRun, error) {
	scopeJSON, err := json.Marshal(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scope: %w", err)
	}

	run := &models.SearchRun{
		ID:       uuid.NewString(),
		Root:     scope.Path,
		Language: language,
		Snippet:  string(snippet),
		Scope:    datatypes.JSON(scopeJSON),
		Workers:  workers,
	}
	if result == nil {
		return run, nil
	}

	if result.Pattern != nil {
		run.Pattern = result.Pattern.Source
	}
	run.FileCount = len(result.Files)
	run.HitCount = len(result.Hits)
	run.MatchCount = result.Matches()
	run.WalkMS = result.WalkDuration.Milliseconds()
	run.ParseMS = result.ParseDuration.Milliseconds()
	run.SearchMS = result.SearchDuration.Milliseconds()

	run.Hits = make([]models.SearchHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		run.Hits = append(run.Hits, models.SearchHit{
			RunID:   run.ID,
			Path:    hit.Path,
			Row:     hit.Row,
			Column:  hit.Column,
			Capture: hit.Capture,
		})
	}
	return run, nil
}

// Record stores the run and its hits in one transaction
func (h *History) Record(ctx context.Context, run *models.SearchRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	return h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Hits").Create(run).Error; err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		if len(run.Hits) == 0 {
			return nil
		}

		for i := range run.Hits {
			run.Hits[i].RunID = run.ID
		}
		if err := tx.CreateInBatches(run.Hits, hitBatchSize).Error; err != nil {
			return fmt.Errorf("failed to record hits: %w", err)
		}
		return nil
	})
}

// List returns the most recent runs first, without their hits. A limit of
// zero or less returns every run.
func (h *History) List(ctx context.Context, limit int) ([]models.SearchRun, error) {
	query := h.db.WithContext(ctx).Order("created_at desc").Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []models.SearchRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Load returns the run whose id is or starts with id, hits included
func (h *History) Load(ctx context.Context, id string) (*models.SearchRun, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRunNotFound
	}

	var runs []models.SearchRun
	err := h.db.WithContext(ctx).
		Preload("Hits", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("path").Order("line").Order("col").Order("id")
		}).
		Where(`id = ? OR id LIKE ? ESCAPE '\'`, id, escapeLike(id)+"%").
		Limit(2).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return &runs[0], nil
	}
	for i := range runs {
		if runs[i].ID == id {
			return &runs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAmbiguousRun, id)
}

// Prune deletes all but the keep most recent runs and returns how many
// runs were removed
func (h *History) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	var ids []string
	err := h.db.WithContext(ctx).Model(&models.SearchRun{}).
		Order("created_at desc").Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find stale runs: %w", err)
	}
	if len(ids) <= keep {
		return 0, nil
	}
	stale := ids[keep:]

	var removed int64
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id IN ?", stale).Delete(&models.SearchHit{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", stale).Delete(&models.SearchRun{})
		removed = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return removed, nil
}

// HitLines renders the run's hits as sorted "path:row:col capture" lines
func HitLines(run *models.SearchRun) []string {
	lines := make([]string, 0, len(run.Hits))
	for _, hit := range run.Hits {
		lines = append(lines, fmt.Sprintf("%s:%d:%d %s", hit.Path, hit.Row, hit.Column, hit.Capture))
	}
	sort.Strings(lines)
	return lines
}

// DiffRuns returns a unified diff of the hit lists of two runs. An empty
// string means both runs found exactly the same captures.
func DiffRuns(a, b *models.SearchRun) (string, error) {
	linesA := HitLines(a)
	linesB := HitLines(b)
	if strings.Join(linesA, "\n") == strings.Join(linesB, "\n") {
		return "", nil
	}

	diff := difflib.UnifiedDiff{
		A:        withNewlines(linesA),
		B:        withNewlines(linesB),
		FromFile: "run " + a.ID,
		ToFile:   "run " + b.ID,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line + "\n"
	}
	return out
}

// escapeLike escapes the LIKE wildcards of a literal prefix
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
