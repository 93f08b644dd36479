// Package crawler collects thumbnail images and sidecar metadata from
// YouTube trending and the third-party ranking site.
package crawler

import (
	"net/http"
	"time"

	"github.com/thumbtrend/thumbtrend/config"
	"github.com/thumbtrend/thumbtrend/internal"
	"github.com/thumbtrend/thumbtrend/pkg/models"
)

var log = internal.GetLogger()

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

	pageFetchTimeout  = 30 * time.Second
	imageFetchTimeout = 10 * time.Second
	probeTimeout      = 5 * time.Second

	// maxImageBytes bounds a thumbnail download. Maxres thumbnails run
	// a few hundred KB.
	maxImageBytes = 4 << 20
)

// item is one video discovered on a chart page.
type item struct {
	VideoID string
	Title   string
	Link    string
	Rank    int
}

// Crawler fetches chart pages and downloads the thumbnails they reference.
type Crawler struct {
	cfg        *config.Config
	store      models.Store
	httpClient *http.Client
	userAgent  string
}

// New creates a crawler backed by the given store. The store provides
// cross-run video ID dedup and records every saved thumbnail.
func New(cfg *config.Config, store models.Store) *Crawler {
	userAgent := cfg.Crawler.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Crawler{
		cfg:        cfg,
		store:      store,
		httpClient: &http.Client{Timeout: pageFetchTimeout},
		userAgent:  userAgent,
	}
}

// newRun initializes a run record for a source.
func newRun(source models.CrawlSource) *models.CrawlRun {
	return &models.CrawlRun{
		Source:       source,
		StartedAt:    time.Now(),
		QualityStats: make(map[string]int),
	}
}
