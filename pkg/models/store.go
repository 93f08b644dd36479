package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists crawl output and dashboard analyses.
type Store interface {
	// SaveThumbnail records a crawled thumbnail.
	SaveThumbnail(ctx context.Context, t *Thumbnail) error
	// ThumbnailExists reports whether a video ID has been saved before,
	// regardless of source. Used for cross-run dedup.
	ThumbnailExists(ctx context.Context, videoID string) (bool, error)
	// ListThumbnails returns the most recently crawled thumbnails.
	ListThumbnails(ctx context.Context, limit int) ([]Thumbnail, error)

	// SaveCrawlRun records a finished crawl run.
	SaveCrawlRun(ctx context.Context, run *CrawlRun) error
	// ListCrawlRuns returns the most recent crawl runs.
	ListCrawlRuns(ctx context.Context, limit int) ([]CrawlRun, error)

	// SaveAnalysis records a dashboard analysis.
	SaveAnalysis(ctx context.Context, a *Analysis) error
	// GetAnalysis returns a stored analysis by its UUID.
	GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error)
	// ListAnalyses returns the most recent analyses, without image payloads.
	ListAnalyses(ctx context.Context, limit int) ([]Analysis, error)
	// PurgeAnalyses deletes analyses older than the cutoff.
	PurgeAnalyses(ctx context.Context, olderThan time.Time) (int, error)

	Close() error
}
