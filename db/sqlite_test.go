package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oxhq/cgrep/models"
)

func TestConnect(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name          string
		dsn           string
		debug         bool
		expectedError bool
		errorContains string
	}{
		{
			name: "memory database",
			dsn:  MemoryDSN,
		},
		{
			name:  "memory database with debug enabled",
			dsn:   MemoryDSN,
			debug: true,
		},
		{
			name: "file database",
			dsn:  filepath.Join(tempDir, "history.db"),
		},
		{
			name: "nested directory creation",
			dsn:  filepath.Join(tempDir, "nested", "path", "history.db"),
		},
		{
			name:          "libsql URL without server",
			dsn:           "libsql://127.0.0.1:19999",
			expectedError: true,
			errorContains: "failed to",
		},
		{
			name:          "https URL without server",
			dsn:           "https://127.0.0.1:19999/db",
			expectedError: true,
			errorContains: "failed to",
		},
		{
			name:          "directory cannot be created",
			dsn:           "/dev/null/cannot_create_here/history.db",
			expectedError: true,
			errorContains: "failed to create database directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Connect(tt.dsn, tt.debug)

			if tt.expectedError {
				assert.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				assert.Nil(t, db)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, db)
			defer Close(db)

			sqlDB, err := db.DB()
			require.NoError(t, err)
			require.NoError(t, sqlDB.Ping())

			var fkEnabled int
			require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fkEnabled).Error)
			assert.Equal(t, 1, fkEnabled)

			for _, table := range []string{"search_runs", "search_hits"} {
				assert.True(t, db.Migrator().HasTable(table), "Table %s should exist", table)
			}

			testBasicOperations(t, db)
		})
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		expected bool
	}{
		{name: "HTTP URL", dsn: "http://example.com", expected: true},
		{name: "HTTPS URL", dsn: "https://example.com", expected: true},
		{name: "libsql URL", dsn: "libsql://test.turso.io", expected: true},
		{name: "file path", dsn: "/path/to/database.db", expected: false},
		{name: "relative file path", dsn: "database.db", expected: false},
		{name: "memory database", dsn: ":memory:", expected: false},
		{name: "empty string", dsn: "", expected: false},
		{name: "short string", dsn: "http", expected: false},
		{name: "almost HTTPS", dsn: "https:/", expected: false},
		{name: "almost libsql", dsn: "libsql:", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isURL(tt.dsn))
		})
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := Connect(MemoryDSN, false)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, db.Migrator().DropTable(&models.SearchHit{}, &models.SearchRun{}))
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&models.SearchRun{}))
	assert.True(t, db.Migrator().HasTable(&models.SearchHit{}))
	testBasicOperations(t, db)
}

// testBasicOperations performs basic CRUD operations to verify database functionality
func testBasicOperations(t *testing.T, db *gorm.DB) {
	run := &models.SearchRun{
		ID:       "test-run-123",
		Root:     "/src",
		Language: "rust",
		Hits: []models.SearchHit{
			{Path: "/src/main.rs", Row: 1, Column: 1, Capture: "match"},
		},
	}
	require.NoError(t, db.Create(run).Error)

	var loaded models.SearchRun
	require.NoError(t, db.Preload("Hits").Where("id = ?", run.ID).First(&loaded).Error)
	assert.Equal(t, run.Language, loaded.Language)
	require.Len(t, loaded.Hits, 1)
	assert.Equal(t, "/src/main.rs", loaded.Hits[0].Path)
}
