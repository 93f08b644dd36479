package store

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type ThumbnailSchema struct {
	bun.BaseModel `bun:"table:thumbnail,alias:t"`

	ID        int64     `bun:",pk,autoincrement"`
	UUID      string    `bun:",unique,notnull"`
	VideoID   string    `bun:",notnull"`
	Title     string    `bun:","`
	Link      string    `bun:","`
	Rank      int       `bun:","`
	Source    string    `bun:",notnull"`
	Quality   string    `bun:","`
	FileName  string    `bun:",notnull"`
	FilePath  string    `bun:",notnull"`
	Width     int       `bun:","`
	Height    int       `bun:","`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

type CrawlRunSchema struct {
	bun.BaseModel `bun:"table:crawl_run,alias:cr"`

	ID         int64     `bun:",pk,autoincrement"`
	UUID       string    `bun:",unique,notnull"`
	Source     string    `bun:",notnull"`
	StartedAt  time.Time `bun:",nullzero"`
	FinishedAt time.Time `bun:",nullzero"`
	Saved      int       `bun:","`
	Skipped    int       `bun:","`
	Failed     int       `bun:","`
	// QualityStats is a JSON object counting saves per quality rung.
	QualityStats string `bun:",type:text"`
}

type AnalysisSchema struct {
	bun.BaseModel `bun:"table:analysis,alias:a"`

	ID             int64     `bun:",pk,autoincrement"`
	UUID           string    `bun:",unique,notnull"`
	Type           string    `bun:",notnull"`
	Threshold      float64   `bun:","`
	ViewCountScore float64   `bun:","`
	TrendingScore  float64   `bun:","`
	OverallScore   float64   `bun:","`
	// Result holds the full analysis record as JSON, annotated image
	// included. The scalar columns above exist for cheap listing.
	Result    string    `bun:",type:text"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// tableList enumerates all table models for schema creation, in FK-safe
// order.
var tableList = []interface{}{
	&ThumbnailSchema{},
	&CrawlRunSchema{},
	&AnalysisSchema{},
}

// CreateSchema creates all tables if they don't exist.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range tableList {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return NewStorageError("failed to create table", err)
		}
	}
	for _, index := range []struct {
		name    string
		table   string
		columns string
	}{
		{"ix_thumbnail_video_id", "thumbnail", "video_id"},
		{"ix_analysis_created_at", "analysis", "created_at"},
	} {
		if _, err := db.NewCreateIndex().
			Table(index.table).
			Index(index.name).
			ColumnExpr(index.columns).
			IfNotExists().
			Exec(ctx); err != nil {
			return NewStorageError("failed to create index", err)
		}
	}
	return nil
}
