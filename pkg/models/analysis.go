package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisType selects which published models an upload is scored against.
type AnalysisType string

const (
	AnalysisTypeCombined  AnalysisType = "combined"
	AnalysisTypeViewCount AnalysisType = "viewcount"
	AnalysisTypeTrending  AnalysisType = "trending"
)

// CategoryScore compares the two models' confidence for one label.
type CategoryScore struct {
	Label     string  `json:"label"`
	ViewCount float64 `json:"viewcount"`
	Trending  float64 `json:"trending"`
	Delta     float64 `json:"delta"`
}

// Analysis is the result of scoring one uploaded image on the dashboard.
type Analysis struct {
	UUID            uuid.UUID       `json:"uuid"`
	CreatedAt       time.Time       `json:"created_at"`
	Type            AnalysisType    `json:"type"`
	Threshold       float64         `json:"threshold"`
	ViewCountScore  float64         `json:"viewcount_score"`
	TrendingScore   float64         `json:"trending_score"`
	OverallScore    float64         `json:"overall_score"`
	Categories      []CategoryScore `json:"categories"`
	Recommendations []string        `json:"recommendations"`
	Report          string          `json:"report"`
	// AnnotatedImage is the uploaded image with detection boxes drawn on,
	// encoded as a base64 JPEG for direct embedding in the dashboard.
	AnnotatedImage string `json:"annotated_image,omitempty"`
}
