package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trendingPage = `<!DOCTYPE html><html><head><script nonce="x">
var ytInitialData = {"contents":{"twoColumnBrowseResultsRenderer":{"tabs":[
 {"tabRenderer":{"content":{"sectionListRenderer":{"contents":[
  {"itemSectionRenderer":{"contents":[
   {"videoRenderer":{"videoId":"abc123DEF45","title":{"runs":[{"text":"첫 번째 영상"}]}}},
   {"videoRenderer":{"videoId":"xyz789GHI01","title":{"runs":[{"text":"second video"}]}}},
   {"videoRenderer":{"title":{"runs":[{"text":"renderer without an id"}]}}}
  ]}}
 ]}}}}
]}}};</script>
<script>var other = {};</script></head><body></body></html>`

func TestExtractTrendingItems(t *testing.T) {
	items, err := extractTrendingItems([]byte(trendingPage))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "abc123DEF45", items[0].VideoID)
	assert.Equal(t, "첫 번째 영상", items[0].Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123DEF45", items[0].Link)
	assert.Equal(t, 1, items[0].Rank)

	assert.Equal(t, "xyz789GHI01", items[1].VideoID)
	assert.Equal(t, 2, items[1].Rank)
}

func TestExtractTrendingItemsMissingBlob(t *testing.T) {
	_, err := extractTrendingItems([]byte("<html><body>no data here</body></html>"))
	require.ErrorContains(t, err, "ytInitialData")
}

func TestExtractTrendingItemsMalformedBlob(t *testing.T) {
	page := `<script>var ytInitialData = {"unterminated":};</script>`
	_, err := extractTrendingItems([]byte(page))
	require.Error(t, err)
}

func TestParseVideoRenderer(t *testing.T) {
	t.Run("complete renderer", func(t *testing.T) {
		it, ok := parseVideoRenderer(map[string]interface{}{
			"videoId": "abc123DEF45",
			"title": map[string]interface{}{
				"runs": []interface{}{map[string]interface{}{"text": "a title"}},
			},
		})
		require.True(t, ok)
		assert.Equal(t, "abc123DEF45", it.VideoID)
		assert.Equal(t, "a title", it.Title)
	})

	t.Run("missing title keeps the video", func(t *testing.T) {
		it, ok := parseVideoRenderer(map[string]interface{}{"videoId": "abc123DEF45"})
		require.True(t, ok)
		assert.Empty(t, it.Title)
	})

	t.Run("missing id drops the renderer", func(t *testing.T) {
		_, ok := parseVideoRenderer(map[string]interface{}{"title": "nope"})
		assert.False(t, ok)
	})
}
