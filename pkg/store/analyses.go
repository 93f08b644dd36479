package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/thumbtrend/thumbtrend/pkg/models"
)

// SaveAnalysis records a dashboard analysis.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a *models.Analysis) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	result, err := json.Marshal(a)
	if err != nil {
		return NewStorageError("failed to marshal analysis", err)
	}

	row := &AnalysisSchema{
		UUID:           a.UUID.String(),
		Type:           string(a.Type),
		Threshold:      a.Threshold,
		ViewCountScore: a.ViewCountScore,
		TrendingScore:  a.TrendingScore,
		OverallScore:   a.OverallScore,
		Result:         string(result),
		CreatedAt:      a.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return NewStorageError("failed to save analysis", err)
	}
	return nil
}

// GetAnalysis returns a stored analysis by its UUID.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	row := &AnalysisSchema{}
	err := s.db.NewSelect().
		Model(row).
		Where("uuid = ?", id.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("analysis " + id.String())
		}
		return nil, NewStorageError("failed to get analysis", err)
	}

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(row.Result), &analysis); err != nil {
		return nil, NewStorageError("failed to unmarshal analysis", err)
	}
	return &analysis, nil
}

// ListAnalyses returns the most recent analyses. Image payloads and
// reports are not populated; fetch individual analyses for those.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, limit int) ([]models.Analysis, error) {
	var rows []AnalysisSchema
	err := s.db.NewSelect().
		Model(&rows).
		Column("uuid", "type", "threshold", "view_count_score", "trending_score", "overall_score", "created_at").
		Order("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, NewStorageError("failed to list analyses", err)
	}

	analyses := make([]models.Analysis, len(rows))
	for i, row := range rows {
		analyses[i] = models.Analysis{
			UUID:           uuid.MustParse(row.UUID),
			Type:           models.AnalysisType(row.Type),
			Threshold:      row.Threshold,
			ViewCountScore: row.ViewCountScore,
			TrendingScore:  row.TrendingScore,
			OverallScore:   row.OverallScore,
			CreatedAt:      row.CreatedAt,
		}
	}
	return analyses, nil
}

// PurgeAnalyses deletes analyses created before the cutoff and returns the
// number deleted.
func (s *SQLiteStore) PurgeAnalyses(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.NewDelete().
		Model((*AnalysisSchema)(nil)).
		Where("created_at < ?", olderThan).
		Exec(ctx)
	if err != nil {
		return 0, NewStorageError("failed to purge analyses", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(deleted), nil
}
