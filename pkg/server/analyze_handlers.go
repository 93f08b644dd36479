package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/thumbtrend/thumbtrend/pkg/analyzer"
	"github.com/thumbtrend/thumbtrend/pkg/models"
)

// maxUploadBytes bounds the multipart form. Thumbnails are small; this
// leaves generous headroom for full-size artwork.
const maxUploadBytes = 16 << 20

const defaultListLimit = 20

// PostAnalyzeHandler scores an uploaded image against the published
// models and stores the result.
//
// The request is multipart/form-data with fields:
//
//	image     - the image file (required)
//	type      - combined | viewcount | trending (default combined)
//	threshold - box display threshold, 0..1 (default from config)
func PostAnalyzeHandler(appState *models.AppState) http.HandlerFunc {
	a := analyzer.New(appState.Config, appState.PredictionClient)

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			renderError(w, fmt.Errorf("failed to parse upload: %w", err), http.StatusBadRequest)
			return
		}

		file, _, err := r.FormFile("image")
		if err != nil {
			renderError(w, models.NewBadRequestError("image file is required"), http.StatusBadRequest)
			return
		}
		defer file.Close()

		imageData, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			renderError(w, fmt.Errorf("failed to read upload: %w", err), http.StatusBadRequest)
			return
		}

		analysisType, err := parseAnalysisType(r.FormValue("type"))
		if err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		threshold := appState.Config.Dashboard.DefaultThreshold
		if rawThreshold := r.FormValue("threshold"); rawThreshold != "" {
			threshold, err = strconv.ParseFloat(rawThreshold, 64)
			if err != nil || threshold < 0 || threshold > 1 {
				renderError(
					w,
					models.NewBadRequestError("threshold must be a number between 0 and 1"),
					http.StatusBadRequest,
				)
				return
			}
		}

		analysis, err := a.Analyze(r.Context(), imageData, analysisType, threshold)
		if err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := appState.Store.SaveAnalysis(r.Context(), analysis); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := encodeJSON(w, analysis); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

func parseAnalysisType(raw string) (models.AnalysisType, error) {
	switch models.AnalysisType(raw) {
	case "":
		return models.AnalysisTypeCombined, nil
	case models.AnalysisTypeCombined, models.AnalysisTypeViewCount, models.AnalysisTypeTrending:
		return models.AnalysisType(raw), nil
	default:
		return "", models.NewBadRequestError(
			fmt.Sprintf("unknown analysis type %q", raw),
		)
	}
}

// GetAnalysisHandler returns a stored analysis, annotated image included.
func GetAnalysisHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analysisUUID := parseUUIDFromURL(r, w, "analysisUUID")
		if analysisUUID == uuid.Nil {
			return
		}

		analysis, err := appState.Store.GetAnalysis(r.Context(), analysisUUID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				renderError(w, err, http.StatusNotFound)
				return
			}
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := encodeJSON(w, analysis); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetReportHandler serves an analysis report as a downloadable text file.
func GetReportHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analysisUUID := parseUUIDFromURL(r, w, "analysisUUID")
		if analysisUUID == uuid.Nil {
			return
		}

		analysis, err := appState.Store.GetAnalysis(r.Context(), analysisUUID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				renderError(w, err, http.StatusNotFound)
				return
			}
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set(
			"Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "analysis_"+analysisUUID.String()+".txt"),
		)
		_, _ = w.Write([]byte(analysis.Report))
	}
}

// ListAnalysesHandler returns recent analyses without image payloads.
func ListAnalysesHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultListLimit
		if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
			parsed, err := strconv.Atoi(rawLimit)
			if err != nil || parsed < 1 {
				renderError(w, models.NewBadRequestError("limit must be a positive integer"), http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		analyses, err := appState.Store.ListAnalyses(r.Context(), limit)
		if err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := encodeJSON(w, analyses); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
