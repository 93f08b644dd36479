package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/thumbtrend/thumbtrend/pkg/models"
	"github.com/thumbtrend/thumbtrend/pkg/testutils"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	s, err := NewSQLiteStoreWithDB(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndListThumbnails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testutils.NewTestThumbnail(models.CrawlSourceYouTube)
	second := testutils.NewTestThumbnail(models.CrawlSourcePlayboard)

	require.NoError(t, s.SaveThumbnail(ctx, first))
	require.NoError(t, s.SaveThumbnail(ctx, second))
	assert.NotEmpty(t, first.UUID, "save assigns a UUID")

	thumbnails, err := s.ListThumbnails(ctx, 10)
	require.NoError(t, err)
	require.Len(t, thumbnails, 2)

	// Most recent first.
	assert.Equal(t, second.VideoID, thumbnails[0].VideoID)
	assert.Equal(t, first.VideoID, thumbnails[1].VideoID)
	assert.Equal(t, first.Title, thumbnails[1].Title)
	assert.Equal(t, models.CrawlSourceYouTube, thumbnails[1].Source)
}

func TestSaveThumbnailRequiresVideoID(t *testing.T) {
	s := newTestStore(t)

	thumb := testutils.NewTestThumbnail(models.CrawlSourceYouTube)
	thumb.VideoID = ""
	err := s.SaveThumbnail(context.Background(), thumb)
	require.ErrorContains(t, err, "videoID")
}

func TestThumbnailExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	thumb := testutils.NewTestThumbnail(models.CrawlSourceYouTube)
	require.NoError(t, s.SaveThumbnail(ctx, thumb))

	exists, err := s.ThumbnailExists(ctx, thumb.VideoID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ThumbnailExists(ctx, "never-seen-id")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSaveAndListCrawlRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := testutils.NewTestCrawlRun(models.CrawlSourcePlayboard)
	require.NoError(t, s.SaveCrawlRun(ctx, run))

	runs, err := s.ListCrawlRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.UUID, got.UUID)
	assert.Equal(t, models.CrawlSourcePlayboard, got.Source)
	assert.Equal(t, run.Saved, got.Saved)
	assert.Equal(t, run.QualityStats, got.QualityStats)
}

func TestSaveAndGetAnalysis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	analysis := testutils.NewTestAnalysis(models.AnalysisTypeCombined)
	analysis.AnnotatedImage = "aGVsbG8="
	require.NoError(t, s.SaveAnalysis(ctx, analysis))

	got, err := s.GetAnalysis(ctx, analysis.UUID)
	require.NoError(t, err)
	assert.Equal(t, analysis.UUID, got.UUID)
	assert.Equal(t, analysis.Type, got.Type)
	assert.InDelta(t, analysis.OverallScore, got.OverallScore, 1e-9)
	assert.Equal(t, analysis.Categories, got.Categories)
	assert.Equal(t, analysis.Recommendations, got.Recommendations)
	assert.Equal(t, "aGVsbG8=", got.AnnotatedImage, "get returns the full payload")
}

func TestGetAnalysisNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetAnalysis(context.Background(), testutils.NewTestAnalysis(models.AnalysisTypeCombined).UUID)
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestListAnalysesOmitsPayloads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		analysis := testutils.NewTestAnalysis(models.AnalysisTypeViewCount)
		analysis.AnnotatedImage = "aGVsbG8="
		require.NoError(t, s.SaveAnalysis(ctx, analysis))
	}

	analyses, err := s.ListAnalyses(ctx, 2)
	require.NoError(t, err)
	require.Len(t, analyses, 2, "list respects the limit")

	for _, a := range analyses {
		assert.Empty(t, a.AnnotatedImage)
		assert.Empty(t, a.Report)
		assert.NotZero(t, a.UUID)
		assert.Equal(t, models.AnalysisTypeViewCount, a.Type)
	}
}

func TestPurgeAnalyses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stale := testutils.NewTestAnalysis(models.AnalysisTypeCombined)
	stale.CreatedAt = time.Now().Add(-48 * time.Hour)
	fresh := testutils.NewTestAnalysis(models.AnalysisTypeCombined)

	require.NoError(t, s.SaveAnalysis(ctx, stale))
	require.NoError(t, s.SaveAnalysis(ctx, fresh))

	purged, err := s.PurgeAnalyses(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = s.GetAnalysis(ctx, stale.UUID)
	require.Error(t, err)
	_, err = s.GetAnalysis(ctx, fresh.UUID)
	require.NoError(t, err)
}
