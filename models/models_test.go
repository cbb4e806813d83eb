package models

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(&SearchRun{}, &SearchHit{}))
	return db
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "search_runs", SearchRun{}.TableName())
	assert.Equal(t, "search_hits", SearchHit{}.TableName())
}

func TestSearchRunModel(t *testing.T) {
	db := setupTestDB(t)

	scope, err := json.Marshal(map[string]any{
		"extensions": []string{".rs"},
		"exclude":    []string{"**/target/**"},
	})
	require.NoError(t, err)

	tests := []struct {
		name          string
		run           SearchRun
		expectedError bool
	}{
		{
			name: "minimal run",
			run:  SearchRun{ID: "run-001", Root: "/src", Language: "rust"},
		},
		{
			name: "run with hits and scope",
			run: SearchRun{
				ID:         "run-002",
				Root:       "/src",
				Language:   "go",
				Snippet:    "func add() {}",
				Pattern:    "((function_declaration) @match)",
				Scope:      datatypes.JSON(scope),
				FileCount:  3,
				HitCount:   2,
				MatchCount: 1,
				Hits: []SearchHit{
					{Path: "/src/a.go", Row: 3, Column: 1, Capture: "match"},
					{Path: "/src/a.go", Row: 3, Column: 6, Capture: "name0"},
				},
			},
		},
		{
			name:          "duplicate id",
			run:           SearchRun{ID: "run-001", Root: "/other", Language: "go"},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.Create(&tt.run).Error
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var loaded SearchRun
			require.NoError(t, db.Preload("Hits").First(&loaded, "id = ?", tt.run.ID).Error)
			assert.Equal(t, tt.run.Root, loaded.Root)
			assert.Equal(t, tt.run.Language, loaded.Language)
			assert.Len(t, loaded.Hits, len(tt.run.Hits))
			assert.False(t, loaded.CreatedAt.IsZero())
			for _, hit := range loaded.Hits {
				assert.Equal(t, tt.run.ID, hit.RunID)
				assert.NotZero(t, hit.ID)
			}
		})
	}
}

func TestSearchRunScopeJSON(t *testing.T) {
	db := setupTestDB(t)

	run := SearchRun{
		ID:       "run-json",
		Root:     "/src",
		Language: "python",
		Scope:    datatypes.JSON(`{"extensions":[".py"],"max_depth":3}`),
	}
	require.NoError(t, db.Create(&run).Error)

	var loaded SearchRun
	require.NoError(t, db.First(&loaded, "id = ?", run.ID).Error)

	var scope map[string]any
	require.NoError(t, json.Unmarshal(loaded.Scope, &scope))
	assert.Equal(t, []any{".py"}, scope["extensions"])
	assert.Equal(t, float64(3), scope["max_depth"])
}

func TestSearchHitsAssociation(t *testing.T) {
	db := setupTestDB(t)

	run := SearchRun{ID: "run-assoc", Root: "/src", Language: "go"}
	for i := range 5 {
		run.Hits = append(run.Hits, SearchHit{Path: fmt.Sprintf("/src/f%d.go", i), Row: uint32(i + 1), Column: 1, Capture: "match"})
	}
	require.NoError(t, db.Create(&run).Error)

	var count int64
	require.NoError(t, db.Model(&SearchHit{}).Where("run_id = ?", run.ID).Count(&count).Error)
	assert.Equal(t, int64(5), count)

	var hit SearchHit
	require.NoError(t, db.Where("run_id = ? AND line = ?", run.ID, 3).First(&hit).Error)
	assert.Equal(t, "/src/f2.go", hit.Path)
	assert.Equal(t, uint32(1), hit.Column)
}

func TestSearchRunOrdering(t *testing.T) {
	db := setupTestDB(t)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		run := SearchRun{
			ID:        fmt.Sprintf("run-%d", i),
			Root:      "/src",
			Language:  "go",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&run).Error)
	}

	var runs []SearchRun
	require.NoError(t, db.Order("created_at desc").Find(&runs).Error)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-0", runs[2].ID)
}
