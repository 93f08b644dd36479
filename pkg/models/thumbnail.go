package models

import (
	"time"

	"github.com/google/uuid"
)

// CrawlSource identifies where a thumbnail was collected from.
type CrawlSource string

const (
	CrawlSourceYouTube   CrawlSource = "youtube"
	CrawlSourcePlayboard CrawlSource = "playboard"
)

// Thumbnail quality ladder, best first. The names match the path segment
// of the thumbnail CDN URL.
var QualityLadder = []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault"}

// Thumbnail is one crawled thumbnail image plus its sidecar metadata.
type Thumbnail struct {
	UUID      uuid.UUID   `json:"uuid"`
	VideoID   string      `json:"video_id"`
	Title     string      `json:"title"`
	Link      string      `json:"link"`
	Rank      int         `json:"rank"`
	Source    CrawlSource `json:"source"`
	Quality   string      `json:"quality"`
	FileName  string      `json:"file_name"`
	FilePath  string      `json:"file_path"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	CrawledAt time.Time   `json:"crawled_at"`
}

// CrawlRun records one invocation of a crawler against one source.
type CrawlRun struct {
	UUID       uuid.UUID      `json:"uuid"`
	Source     CrawlSource    `json:"source"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Saved      int            `json:"saved"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
	// QualityStats counts saved thumbnails per quality rung.
	QualityStats map[string]int `json:"quality_stats"`
}
