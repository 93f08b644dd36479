package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/thumbtrend/thumbtrend/pkg/models"
)

const defaultTrendingURL = "https://www.youtube.com/feed/trending?bp=6gQJRkVleHBsb3Jl"

// ytInitialDataRe extracts the page's embedded data blob. The trending
// chart is rendered client-side from this JSON.
var ytInitialDataRe = regexp.MustCompile(`(?s)var ytInitialData\s*=\s*(\{.*?\});\s*</script>`)

// thumbnailCandidates is the quality ladder probed per video, best first.
// The last entry always exists, so it is used unprobed as the fallback.
var thumbnailCandidates = []struct {
	name string
	file string
}{
	{"maxresdefault", "maxresdefault.jpg"},
	{"hq720", "hq720.jpg"},
	{"hqdefault", "hqdefault.jpg"},
}

// CrawlYouTube crawls the trending chart, downloads the best-quality
// thumbnail for each video and records the results.
func (c *Crawler) CrawlYouTube(ctx context.Context) (*models.CrawlRun, error) {
	run := newRun(models.CrawlSourceYouTube)

	trendingURL := c.cfg.Crawler.YouTube.TrendingURL
	if trendingURL == "" {
		trendingURL = defaultTrendingURL
	}

	body, err := c.fetch(ctx, trendingURL, map[string]string{"Accept-Language": "ko-KR,ko;q=0.9"})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trending page: %w", err)
	}

	items, err := extractTrendingItems(body)
	if err != nil {
		return nil, err
	}
	log.Infof("found %d videos on the trending chart", len(items))

	timestamp := run.StartedAt.Format("2006-01-02_15-04-05")
	dir := filepath.Join(c.cfg.DataConfig.Root, "youtube_trending", timestamp)
	dateLabel := run.StartedAt.Format("2006.01.02")

	var dedup *hashFilter
	if c.cfg.Crawler.DedupByHash {
		dedup = &hashFilter{}
	}

	seen := make(map[string]bool)
	for _, it := range items {
		if seen[it.VideoID] {
			run.Skipped++
			continue
		}
		seen[it.VideoID] = true

		exists, err := c.store.ThumbnailExists(ctx, it.VideoID)
		if err != nil {
			return nil, err
		}
		if exists {
			log.Debugf("video %s already collected, skipping", it.VideoID)
			run.Skipped++
			continue
		}

		thumbURL, quality := c.bestThumbnailURL(ctx, it.VideoID)
		data, img, width, height, err := c.downloadImage(ctx, thumbURL)
		if err != nil {
			log.Warnf("thumbnail download failed for %s: %v", it.VideoID, err)
			run.Failed++
			continue
		}
		if dedup != nil && dedup.isDuplicate(img) {
			log.Debugf("thumbnail for %s is a perceptual duplicate, skipping", it.VideoID)
			run.Skipped++
			continue
		}

		fileName := fmt.Sprintf("%s_%03d_%s.jpg", dateLabel, it.Rank, it.VideoID)
		path, err := saveImage(dir, fileName, data)
		if err != nil {
			return nil, err
		}

		thumb := &models.Thumbnail{
			VideoID:   it.VideoID,
			Title:     SanitizeTitle(it.Title),
			Link:      it.Link,
			Rank:      it.Rank,
			Source:    models.CrawlSourceYouTube,
			Quality:   quality,
			FileName:  fileName,
			FilePath:  path,
			Width:     width,
			Height:    height,
			CrawledAt: time.Now(),
		}
		if err := c.store.SaveThumbnail(ctx, thumb); err != nil {
			return nil, err
		}
		run.Saved++
		run.QualityStats[quality]++
		log.Infof("[%d/%d] saved %s (%s)", it.Rank, len(items), fileName, quality)
	}

	run.FinishedAt = time.Now()
	if err := c.store.SaveCrawlRun(ctx, run); err != nil {
		return nil, err
	}
	log.Infof("trending crawl finished: %d saved, %d skipped, %d failed", run.Saved, run.Skipped, run.Failed)
	return run, nil
}

// bestThumbnailURL probes the quality ladder for a video and returns the
// best available thumbnail URL together with its quality name.
func (c *Crawler) bestThumbnailURL(ctx context.Context, videoID string) (string, string) {
	for i, candidate := range thumbnailCandidates {
		candidateURL := fmt.Sprintf("https://i.ytimg.com/vi/%s/%s", videoID, candidate.file)
		if i == len(thumbnailCandidates)-1 {
			return candidateURL, candidate.name
		}
		if c.probeURL(ctx, candidateURL) {
			return candidateURL, candidate.name
		}
	}
	// Unreachable, the loop always returns on the last candidate.
	return "", ""
}

// extractTrendingItems parses the embedded data blob and walks it for
// video renderers.
func extractTrendingItems(page []byte) ([]item, error) {
	match := ytInitialDataRe.FindSubmatch(page)
	if match == nil {
		return nil, fmt.Errorf("trending page does not contain ytInitialData; markup may have changed")
	}

	var data interface{}
	if err := json.Unmarshal(match[1], &data); err != nil {
		return nil, fmt.Errorf("failed to parse ytInitialData: %w", err)
	}

	var items []item
	collectVideoRenderers(data, &items)
	for i := range items {
		items[i].Rank = i + 1
	}
	return items, nil
}

// collectVideoRenderers walks the data blob depth-first, collecting every
// videoRenderer node. The blob's surrounding structure shifts with
// experiments, but the renderer payload itself is stable.
func collectVideoRenderers(node interface{}, out *[]item) {
	switch n := node.(type) {
	case map[string]interface{}:
		if renderer, ok := n["videoRenderer"].(map[string]interface{}); ok {
			if it, ok := parseVideoRenderer(renderer); ok {
				*out = append(*out, it)
			}
			return
		}
		for _, v := range n {
			collectVideoRenderers(v, out)
		}
	case []interface{}:
		for _, v := range n {
			collectVideoRenderers(v, out)
		}
	}
}

func parseVideoRenderer(renderer map[string]interface{}) (item, bool) {
	videoID, ok := renderer["videoId"].(string)
	if !ok || videoID == "" {
		return item{}, false
	}

	var title string
	if t, ok := renderer["title"].(map[string]interface{}); ok {
		if runs, ok := t["runs"].([]interface{}); ok && len(runs) > 0 {
			if run, ok := runs[0].(map[string]interface{}); ok {
				title, _ = run["text"].(string)
			}
		}
	}

	return item{
		VideoID: videoID,
		Title:   title,
		Link:    "https://www.youtube.com/watch?v=" + videoID,
	}, true
}
