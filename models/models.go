package models

import (
	"time"

	"gorm.io/datatypes"
)

// SearchRun records one structural search
type SearchRun struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	Root     string `gorm:"type:text;not null"`
	Language string `gorm:"type:varchar(50);not null;index"`

	// Query
	Snippet string         `gorm:"type:text"`
	Pattern string         `gorm:"type:text"` // empty when the snippet produced no pattern
	Scope   datatypes.JSON `gorm:"type:jsonb"` // extensions, include/exclude globs, limits

	// Statistics
	Workers    int `gorm:"default:0"`
	FileCount  int `gorm:"default:0"`
	HitCount   int `gorm:"default:0"`
	MatchCount int `gorm:"default:0"`

	// Stage timings in milliseconds
	WalkMS   int64 `gorm:"default:0"`
	ParseMS  int64 `gorm:"default:0"`
	SearchMS int64 `gorm:"default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	// Relationships
	Hits []SearchHit `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// SearchHit is one captured node of a recorded run
type SearchHit struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	RunID   string `gorm:"type:varchar(36);not null;index"`
	Path    string `gorm:"type:text;not null"`
	Row     uint32 `gorm:"column:line;not null"`
	Column  uint32 `gorm:"column:col;not null"`
	Capture string `gorm:"type:varchar(100)"`
}

// TableName customizations for cleaner names
func (SearchRun) TableName() string { return "search_runs" }
func (SearchHit) TableName() string { return "search_hits" }
