package crawler

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	// The ranking site serves some thumbnails as webp.
	_ "golang.org/x/image/webp"
)

var (
	reservedChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	// Titles keep letters (any script), digits, whitespace, dots,
	// underscores and hyphens. Everything else, emoji included, goes.
	disallowedRunes = regexp.MustCompile(`[^\p{L}\p{N}\s._-]`)
	multiSpace      = regexp.MustCompile(`\s+`)
)

// SanitizeTitle strips characters that are unsafe in filenames or break
// encoding downstream, then collapses runs of whitespace.
func SanitizeTitle(title string) string {
	s := reservedChars.ReplaceAllString(title, "")
	s = strings.TrimSpace(disallowedRunes.ReplaceAllString(s, ""))
	return multiSpace.ReplaceAllString(s, " ")
}

// fetch performs a GET with the crawler's user agent and optional extra
// headers, returning the body. Non-200 responses are an error.
func (c *Crawler) fetch(ctx context.Context, pageURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %d", pageURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// probeURL reports whether a HEAD request to the URL succeeds. Used to
// find the best thumbnail quality without downloading each candidate.
func (c *Crawler) probeURL(ctx context.Context, probeURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, probeURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// downloadImage fetches an image and verifies it decodes to something at
// least MinWidth wide. Returns the raw bytes, the decoded image and its
// dimensions.
func (c *Crawler) downloadImage(ctx context.Context, imageURL string) ([]byte, image.Image, int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, imageFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, nil, 0, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, 0, 0, fmt.Errorf("GET %s: unexpected status %d", imageURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, nil, 0, 0, err
	}
	if len(data) == 0 {
		return nil, nil, 0, 0, fmt.Errorf("GET %s: empty body", imageURL)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, 0, 0, fmt.Errorf("image at %s does not decode: %w", imageURL, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if minWidth := c.cfg.Crawler.MinWidth; minWidth > 0 && width < minWidth {
		return nil, nil, 0, 0, fmt.Errorf("image at %s is %dpx wide, below minimum %d", imageURL, width, minWidth)
	}

	return data, img, width, height, nil
}

// saveImage writes image bytes to dir/fileName, creating dir as needed.
func saveImage(dir, fileName string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
