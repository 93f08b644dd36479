package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/thumbtrend/thumbtrend/pkg/models"
)

// SaveThumbnail records a crawled thumbnail. A nil UUID is assigned one.
func (s *SQLiteStore) SaveThumbnail(ctx context.Context, t *models.Thumbnail) error {
	if t.VideoID == "" {
		return NewStorageError("videoID cannot be empty", nil)
	}
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}

	row := &ThumbnailSchema{
		UUID:      t.UUID.String(),
		VideoID:   t.VideoID,
		Title:     t.Title,
		Link:      t.Link,
		Rank:      t.Rank,
		Source:    string(t.Source),
		Quality:   t.Quality,
		FileName:  t.FileName,
		FilePath:  t.FilePath,
		Width:     t.Width,
		Height:    t.Height,
		CreatedAt: t.CrawledAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return NewStorageError("failed to save thumbnail", err)
	}
	return nil
}

// ThumbnailExists reports whether a video ID was saved before, from any
// source.
func (s *SQLiteStore) ThumbnailExists(ctx context.Context, videoID string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*ThumbnailSchema)(nil)).
		Where("video_id = ?", videoID).
		Exists(ctx)
	if err != nil {
		return false, NewStorageError("failed to check thumbnail existence", err)
	}
	return exists, nil
}

// ListThumbnails returns the most recently crawled thumbnails.
func (s *SQLiteStore) ListThumbnails(ctx context.Context, limit int) ([]models.Thumbnail, error) {
	var rows []ThumbnailSchema
	err := s.db.NewSelect().
		Model(&rows).
		Order("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, NewStorageError("failed to list thumbnails", err)
	}

	thumbnails := make([]models.Thumbnail, len(rows))
	for i, row := range rows {
		thumbnails[i] = models.Thumbnail{
			UUID:      uuid.MustParse(row.UUID),
			VideoID:   row.VideoID,
			Title:     row.Title,
			Link:      row.Link,
			Rank:      row.Rank,
			Source:    models.CrawlSource(row.Source),
			Quality:   row.Quality,
			FileName:  row.FileName,
			FilePath:  row.FilePath,
			Width:     row.Width,
			Height:    row.Height,
			CrawledAt: row.CreatedAt,
		}
	}
	return thumbnails, nil
}

// SaveCrawlRun records a finished crawl run.
func (s *SQLiteStore) SaveCrawlRun(ctx context.Context, run *models.CrawlRun) error {
	if run.UUID == uuid.Nil {
		run.UUID = uuid.New()
	}
	stats, err := json.Marshal(run.QualityStats)
	if err != nil {
		return NewStorageError("failed to marshal quality stats", err)
	}

	row := &CrawlRunSchema{
		UUID:         run.UUID.String(),
		Source:       string(run.Source),
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
		Saved:        run.Saved,
		Skipped:      run.Skipped,
		Failed:       run.Failed,
		QualityStats: string(stats),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return NewStorageError("failed to save crawl run", err)
	}
	return nil
}

// ListCrawlRuns returns the most recent crawl runs.
func (s *SQLiteStore) ListCrawlRuns(ctx context.Context, limit int) ([]models.CrawlRun, error) {
	var rows []CrawlRunSchema
	err := s.db.NewSelect().
		Model(&rows).
		Order("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, NewStorageError("failed to list crawl runs", err)
	}

	runs := make([]models.CrawlRun, len(rows))
	for i, row := range rows {
		run := models.CrawlRun{
			UUID:       uuid.MustParse(row.UUID),
			Source:     models.CrawlSource(row.Source),
			StartedAt:  row.StartedAt,
			FinishedAt: row.FinishedAt,
			Saved:      row.Saved,
			Skipped:    row.Skipped,
			Failed:     row.Failed,
		}
		if row.QualityStats != "" {
			if err := json.Unmarshal([]byte(row.QualityStats), &run.QualityStats); err != nil {
				return nil, NewStorageError("failed to unmarshal quality stats", err)
			}
		}
		runs[i] = run
	}
	return runs, nil
}
