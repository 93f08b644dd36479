package testutils

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/thumbtrend/thumbtrend/pkg/models"
)

// NewTestThumbnail returns a populated thumbnail record with a random
// video ID and title.
func NewTestThumbnail(source models.CrawlSource) *models.Thumbnail {
	videoID := gofakeit.LetterN(11)
	return &models.Thumbnail{
		VideoID:   videoID,
		Title:     gofakeit.Sentence(4),
		Link:      fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID),
		Rank:      gofakeit.Number(1, 50),
		Source:    source,
		Quality:   "maxresdefault",
		FileName:  fmt.Sprintf("%s.jpg", videoID),
		FilePath:  fmt.Sprintf("/tmp/thumbnails/%s.jpg", videoID),
		Width:     1280,
		Height:    720,
		CrawledAt: time.Now().UTC(),
	}
}

// NewTestCrawlRun returns a crawl run record with plausible counters.
func NewTestCrawlRun(source models.CrawlSource) *models.CrawlRun {
	saved := gofakeit.Number(1, 50)
	started := time.Now().UTC().Add(-time.Minute)
	return &models.CrawlRun{
		Source:     source,
		StartedAt:  started,
		FinishedAt: started.Add(45 * time.Second),
		Saved:      saved,
		Skipped:    gofakeit.Number(0, 10),
		Failed:     gofakeit.Number(0, 3),
		QualityStats: map[string]int{
			"maxresdefault": saved,
		},
	}
}

// NewTestAnalysis returns a completed analysis record.
func NewTestAnalysis(analysisType models.AnalysisType) *models.Analysis {
	viewCount := gofakeit.Float64Range(40, 95)
	trending := gofakeit.Float64Range(40, 95)
	return &models.Analysis{
		CreatedAt:      time.Now().UTC(),
		Type:           analysisType,
		Threshold:      0.5,
		ViewCountScore: viewCount,
		TrendingScore:  trending,
		OverallScore:   (viewCount + trending) / 2,
		Categories: []models.CategoryScore{
			{Label: "인물", ViewCount: 0.92, Trending: 0.88, Delta: 0.04},
			{Label: "텍스트", ViewCount: 0.81, Trending: 0.9, Delta: -0.09},
		},
		Recommendations: []string{gofakeit.Sentence(8)},
		Report:          gofakeit.Paragraph(1, 3, 10, "\n"),
	}
}
