// Package analyzer scores an uploaded thumbnail against the two published
// detection models and produces the dashboard's analysis artifacts.
package analyzer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/thumbtrend/thumbtrend/config"
	"github.com/thumbtrend/thumbtrend/internal"
	"github.com/thumbtrend/thumbtrend/pkg/models"
)

var log = internal.GetLogger()

// Analyzer runs detections against the view-count and trending models and
// derives scores, comparisons and recommendations.
type Analyzer struct {
	cfg        *config.Config
	prediction models.VisionPredictionClient
}

func New(cfg *config.Config, prediction models.VisionPredictionClient) *Analyzer {
	return &Analyzer{cfg: cfg, prediction: prediction}
}

// Analyze scores an image. The analysis type selects which models run;
// the threshold filters which boxes are drawn on the annotated image.
func (a *Analyzer) Analyze(
	ctx context.Context,
	imageData []byte,
	analysisType models.AnalysisType,
	threshold float64,
) (*models.Analysis, error) {
	var viewCountPreds, trendingPreds []models.Prediction

	if analysisType != models.AnalysisTypeTrending {
		result, err := a.prediction.Detect(ctx, a.cfg.Dashboard.ViewCountIteration, imageData)
		if err != nil {
			return nil, fmt.Errorf("view-count model detection failed: %w", err)
		}
		viewCountPreds = result.Predictions
	}
	if analysisType != models.AnalysisTypeViewCount {
		result, err := a.prediction.Detect(ctx, a.cfg.Dashboard.TrendingIteration, imageData)
		if err != nil {
			return nil, fmt.Errorf("trending model detection failed: %w", err)
		}
		trendingPreds = result.Predictions
	}

	viewCountScore := a.similarityScore(viewCountPreds)
	trendingScore := a.similarityScore(trendingPreds)
	overall := (viewCountScore + trendingScore) / 2

	annotated, err := a.drawComparison(imageData, viewCountPreds, trendingPreds, threshold)
	if err != nil {
		// The annotated image is a nicety; scores still stand.
		log.Warnf("failed to draw annotated image: %v", err)
	}

	categories := a.categoryScores(viewCountPreds, trendingPreds)
	recommendations := a.recommendations(viewCountScore, trendingScore)

	analysis := &models.Analysis{
		Type:            analysisType,
		Threshold:       threshold,
		ViewCountScore:  viewCountScore,
		TrendingScore:   trendingScore,
		OverallScore:    overall,
		Categories:      categories,
		Recommendations: recommendations,
		AnnotatedImage:  annotated,
	}
	analysis.Report = buildReport(analysis)
	return analysis, nil
}

// similarityScore is the weighted mean confidence across detections,
// scaled to 0-100 and capped there. Labels without a configured weight
// count with weight 1.
func (a *Analyzer) similarityScore(predictions []models.Prediction) float64 {
	weights := make(map[string]float64, len(a.cfg.Labels))
	for _, label := range a.cfg.Labels {
		weights[label.Name] = label.Weight
	}

	var weightedScore, totalWeight float64
	for _, pred := range predictions {
		weight, ok := weights[pred.TagName]
		if !ok || weight == 0 {
			weight = 1.0
		}
		weightedScore += pred.Probability * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0
	}
	return math.Min(weightedScore/totalWeight*100, 100)
}

// topProbability returns the highest confidence either model produced for
// a label, 0 when the label wasn't detected.
func topProbability(predictions []models.Prediction, label string) float64 {
	best := 0.0
	for _, pred := range predictions {
		if pred.TagName == label && pred.Probability > best {
			best = pred.Probability
		}
	}
	return best
}

// categoryScores builds the per-label comparison between the two models.
func (a *Analyzer) categoryScores(viewCount, trending []models.Prediction) []models.CategoryScore {
	scores := make([]models.CategoryScore, 0, len(a.cfg.Labels))
	for _, label := range a.cfg.Labels {
		vc := topProbability(viewCount, label.Name)
		tr := topProbability(trending, label.Name)
		scores = append(scores, models.CategoryScore{
			Label:     label.Name,
			ViewCount: vc,
			Trending:  tr,
			Delta:     math.Abs(vc - tr),
		})
	}
	return scores
}

// Score bands for recommendations. Below needsWork a model gets
// improvement tips; above solid on both, the thumbnail is done.
const (
	needsWorkScore = 70
	solidScore     = 80
)

func (a *Analyzer) recommendations(viewCountScore, trendingScore float64) []string {
	var recs []string
	if viewCountScore < needsWorkScore {
		recs = append(recs,
			"View-count tip: make the subject's expression or pose more dynamic",
			"Increase text size and contrast to improve readability",
		)
	}
	if trendingScore < needsWorkScore {
		recs = append(recs,
			"Trend tip: try a brighter color palette that matches current charts",
			"Adding character or emoji elements can better match the trend",
		)
	}
	if viewCountScore > solidScore && trendingScore > solidScore {
		recs = append(recs,
			"Great work! This thumbnail is optimized for both views and trends",
		)
	}
	return recs
}

// buildReport renders the downloadable plain-text report.
func buildReport(a *models.Analysis) string {
	var b strings.Builder
	b.WriteString("Thumbnail Analysis Report\n")
	b.WriteString("=========================\n\n")
	fmt.Fprintf(&b, "View-count model: %.1f%%\n", a.ViewCountScore)
	fmt.Fprintf(&b, "Trending model:   %.1f%%\n", a.TrendingScore)
	fmt.Fprintf(&b, "Overall score:    %.1f%%\n\n", a.OverallScore)

	b.WriteString("Per-category comparison\n")
	fmt.Fprintf(&b, "%-20s %12s %12s %8s\n", "category", "view-count", "trending", "delta")
	for _, c := range a.Categories {
		fmt.Fprintf(&b, "%-20s %11.1f%% %11.1f%% %7.1f%%\n",
			c.Label, c.ViewCount*100, c.Trending*100, c.Delta*100)
	}

	if len(a.Recommendations) > 0 {
		b.WriteString("\nRecommendations\n")
		for _, rec := range a.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}
	return b.String()
}
