package web

import (
	"github.com/thumbtrend/thumbtrend/pkg/models"
)

var IndexTemplates = []string{
	"templates/pages/index.html",
}

// IndexData feeds the analyzer page.
type IndexData struct {
	DefaultThreshold   float64
	ViewCountIteration string
	TrendingIteration  string
	Analyses           []models.Analysis
}

func NewIndexPage(data IndexData) *Page {
	return NewPage(
		"Thumbnail Analyzer",
		"Score a thumbnail against the view-count and trending models",
		"/",
		IndexTemplates,
		data,
	)
}
