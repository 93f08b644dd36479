package crawler

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/thumbtrend/thumbtrend/pkg/models"
)

const defaultChartURL = "https://playboard.co/chart/video/most-viewed-all-videos-in-south-korea-daily"

var (
	// Thumbnails on the chart are lazy-loaded div backgrounds, not img tags.
	styleURLRe = regexp.MustCompile(`background-image:\s*url\(['"]?([^)'"]+)['"]?\)`)
	dataURLRe  = regexp.MustCompile(`data-background-image="([^"]+)"`)

	videoIDRe = regexp.MustCompile(`/vi/([a-zA-Z0-9_-]+)/`)
	qualityRe = regexp.MustCompile(`(maxresdefault|sddefault|hqdefault|mqdefault|default)`)
)

// day is one chart day addressed by its UTC midnight timestamp.
type day struct {
	Label string
	Unix  int64
}

// periodList returns every valid day of the month as chart periods.
func periodList(year, month int) []day {
	var days []day
	for d := 1; d <= 31; d++ {
		date := time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)
		if int(date.Month()) != month {
			break
		}
		days = append(days, day{Label: date.Format("2006.01.02"), Unix: date.Unix()})
	}
	return days
}

// CrawlPlayboard crawls the daily most-viewed chart for every day of the
// configured year/month, downloading each thumbnail at the best quality
// the CDN has. Days that fail to load are skipped, not fatal.
func (c *Crawler) CrawlPlayboard(ctx context.Context) (*models.CrawlRun, error) {
	run := newRun(models.CrawlSourcePlayboard)

	chartURL := c.cfg.Crawler.Playboard.ChartURL
	if chartURL == "" {
		chartURL = defaultChartURL
	}

	headers := map[string]string{}
	if cookie := c.cfg.Crawler.Playboard.SessionCookie; cookie != "" {
		headers["Cookie"] = cookie
	} else {
		log.Warn("no session cookie configured; the chart may only show a truncated list")
	}

	var dedup *hashFilter
	if c.cfg.Crawler.DedupByHash {
		dedup = &hashFilter{}
	}

	baseDir := filepath.Join(c.cfg.DataConfig.Root, "playboard_thumbnails")
	seen := make(map[string]bool)

	for _, d := range periodList(c.cfg.Crawler.Playboard.Year, c.cfg.Crawler.Playboard.Month) {
		pageURL := chartURL + "?period=" + strconv.FormatInt(d.Unix, 10)
		body, err := c.fetch(ctx, pageURL, headers)
		if err != nil {
			log.Warnf("failed to load chart for %s: %v", d.Label, err)
			run.Failed++
			continue
		}

		thumbURLs := extractThumbnailURLs(body)
		log.Infof("%s: %d thumbnails on chart", d.Label, len(thumbURLs))

		saved := 0
		for _, thumbURL := range thumbURLs {
			videoID := extractVideoID(thumbURL)
			if videoID == "" || seen[videoID] {
				run.Skipped++
				continue
			}
			seen[videoID] = true

			exists, err := c.store.ThumbnailExists(ctx, videoID)
			if err != nil {
				return nil, err
			}
			if exists {
				run.Skipped++
				continue
			}

			bestURL, quality := c.upgradeQuality(ctx, thumbURL)
			if bestURL == "" {
				log.Debugf("no HD thumbnail for %s, skipping", videoID)
				run.Skipped++
				continue
			}

			data, img, width, height, err := c.downloadImage(ctx, bestURL)
			if err != nil {
				log.Warnf("thumbnail download failed for %s: %v", videoID, err)
				run.Failed++
				continue
			}
			if dedup != nil && dedup.isDuplicate(img) {
				run.Skipped++
				continue
			}

			saved++
			fileName := fmt.Sprintf("%s_%03d_%s.jpg", d.Label, saved, videoID)
			path, err := saveImage(filepath.Join(baseDir, d.Label), fileName, data)
			if err != nil {
				return nil, err
			}

			thumb := &models.Thumbnail{
				VideoID:   videoID,
				Link:      "https://www.youtube.com/watch?v=" + videoID,
				Rank:      saved,
				Source:    models.CrawlSourcePlayboard,
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
		}
		log.Infof("%s: saved %d thumbnails", d.Label, saved)
	}

	run.FinishedAt = time.Now()
	if err := c.store.SaveCrawlRun(ctx, run); err != nil {
		return nil, err
	}
	logQualityStats(run)
	return run, nil
}

// extractThumbnailURLs pulls thumbnail URLs out of the chart markup,
// normalizing protocol-relative URLs and dropping duplicates while
// keeping chart order.
func extractThumbnailURLs(page []byte) []string {
	var urls []string
	seen := make(map[string]bool)

	add := func(raw string) {
		if strings.HasPrefix(raw, "//") {
			raw = "https:" + raw
		}
		if raw == "" || seen[raw] {
			return
		}
		seen[raw] = true
		urls = append(urls, raw)
	}

	for _, m := range styleURLRe.FindAllSubmatch(page, -1) {
		add(string(m[1]))
	}
	for _, m := range dataURLRe.FindAllSubmatch(page, -1) {
		add(string(m[1]))
	}
	return urls
}

func extractVideoID(thumbURL string) string {
	m := videoIDRe.FindStringSubmatch(thumbURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// upgradeQuality rewrites the URL's quality token, probing down the
// ladder for the best variant the CDN actually has. In HD-only mode,
// anything less than maxres is rejected and an empty URL is returned.
func (c *Crawler) upgradeQuality(ctx context.Context, thumbURL string) (string, string) {
	if !qualityRe.MatchString(thumbURL) {
		return thumbURL, "unknown"
	}

	if c.cfg.Crawler.HDOnly {
		hdURL := qualityRe.ReplaceAllString(thumbURL, models.QualityLadder[0])
		if c.probeURL(ctx, hdURL) {
			return hdURL, models.QualityLadder[0]
		}
		return "", ""
	}

	for _, quality := range models.QualityLadder {
		candidate := qualityRe.ReplaceAllString(thumbURL, quality)
		if c.probeURL(ctx, candidate) {
			return candidate, quality
		}
	}
	return thumbURL, "unknown"
}

func logQualityStats(run *models.CrawlRun) {
	log.Infof("playboard crawl finished: %d saved, %d skipped, %d failed", run.Saved, run.Skipped, run.Failed)
	for _, quality := range append(append([]string{}, models.QualityLadder...), "unknown") {
		if n := run.QualityStats[quality]; n > 0 {
			log.Infof("  %s: %d", quality, n)
		}
	}
}
