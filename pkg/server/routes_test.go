package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thumbtrend/thumbtrend/config"
	"github.com/thumbtrend/thumbtrend/pkg/models"
	"github.com/thumbtrend/thumbtrend/pkg/testutils"
)

// fakeStore is an in-memory models.Store for handler tests.
type fakeStore struct {
	thumbnails []models.Thumbnail
	crawlRuns  []models.CrawlRun
	analyses   map[uuid.UUID]*models.Analysis
	order      []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{analyses: make(map[uuid.UUID]*models.Analysis)}
}

func (f *fakeStore) SaveThumbnail(_ context.Context, t *models.Thumbnail) error {
	f.thumbnails = append(f.thumbnails, *t)
	return nil
}

func (f *fakeStore) ThumbnailExists(_ context.Context, videoID string) (bool, error) {
	for _, t := range f.thumbnails {
		if t.VideoID == videoID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListThumbnails(_ context.Context, limit int) ([]models.Thumbnail, error) {
	if limit > len(f.thumbnails) {
		limit = len(f.thumbnails)
	}
	return f.thumbnails[:limit], nil
}

func (f *fakeStore) SaveCrawlRun(_ context.Context, run *models.CrawlRun) error {
	f.crawlRuns = append(f.crawlRuns, *run)
	return nil
}

func (f *fakeStore) ListCrawlRuns(_ context.Context, limit int) ([]models.CrawlRun, error) {
	if limit > len(f.crawlRuns) {
		limit = len(f.crawlRuns)
	}
	return f.crawlRuns[:limit], nil
}

func (f *fakeStore) SaveAnalysis(_ context.Context, a *models.Analysis) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	f.analyses[a.UUID] = a
	f.order = append(f.order, a.UUID)
	return nil
}

func (f *fakeStore) GetAnalysis(_ context.Context, id uuid.UUID) (*models.Analysis, error) {
	a, ok := f.analyses[id]
	if !ok {
		return nil, models.NewNotFoundError("analysis " + id.String())
	}
	return a, nil
}

func (f *fakeStore) ListAnalyses(_ context.Context, limit int) ([]models.Analysis, error) {
	var out []models.Analysis
	for i := len(f.order) - 1; i >= 0 && len(out) < limit; i-- {
		a := *f.analyses[f.order[i]]
		a.AnnotatedImage = ""
		a.Report = ""
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) PurgeAnalyses(_ context.Context, olderThan time.Time) (int, error) {
	purged := 0
	for id, a := range f.analyses {
		if a.CreatedAt.Before(olderThan) {
			delete(f.analyses, id)
			purged++
		}
	}
	return purged, nil
}

func (f *fakeStore) Close() error { return nil }

// fakePredictionClient returns one fixed detection for every model.
type fakePredictionClient struct{}

func (fakePredictionClient) Detect(
	context.Context,
	string,
	[]byte,
) (*models.ImagePrediction, error) {
	return &models.ImagePrediction{Predictions: []models.Prediction{
		{
			TagName:     "인물",
			Probability: 0.9,
			BoundingBox: models.BoundingBox{Left: 0.1, Top: 0.1, Width: 0.5, Height: 0.5},
		},
	}}, nil
}

func newTestAppState() *models.AppState {
	return &models.AppState{
		Config:           testutils.NewTestConfig(),
		Store:            newFakeStore(),
		PredictionClient: fakePredictionClient{},
	}
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 180))
	for x := 0; x < 320; x++ {
		for y := 0; y < 180; y++ {
			img.Set(x, y, color.RGBA{R: 180, G: 60, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func multipartUpload(t *testing.T, fields map[string]string, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if imageData != nil {
		part, err := writer.CreateFormFile("image", "upload.jpg")
		require.NoError(t, err)
		_, err = part.Write(imageData)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("auth required", func(t *testing.T) {
		appState := newTestAppState()
		appState.Config.Auth = config.AuthConfig{Secret: "test-secret", Required: true}

		router := setupRouter(appState)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze", nil)
		res := httptest.NewRecorder()

		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("auth not required", func(t *testing.T) {
		appState := newTestAppState()

		router := setupRouter(appState)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze", nil)
		res := httptest.NewRecorder()

		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusOK, res.Code)
	})
}

func TestSendVersion(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	handler := SendVersion(nextHandler)

	req, err := http.NewRequest("GET", "/", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get(versionHeader) != config.VersionString {
		t.Errorf("handler returned wrong version header: got %v want %v",
			rr.Header().Get(versionHeader), config.VersionString)
	}
}

func TestPostAnalyzeHandler(t *testing.T) {
	appState := newTestAppState()
	router := setupRouter(appState)

	t.Run("scores an upload", func(t *testing.T) {
		body, contentType := multipartUpload(t, map[string]string{
			"type":      "combined",
			"threshold": "0.4",
		}, testJPEG(t))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
		req.Header.Set("Content-Type", contentType)
		res := httptest.NewRecorder()

		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		var analysis models.Analysis
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &analysis))
		assert.Equal(t, models.AnalysisTypeCombined, analysis.Type)
		assert.InDelta(t, 0.4, analysis.Threshold, 1e-9)
		assert.Greater(t, analysis.OverallScore, 0.0)
		assert.NotZero(t, analysis.UUID, "the analysis is persisted with a UUID")

		store := appState.Store.(*fakeStore)
		assert.Len(t, store.analyses, 1)
	})

	t.Run("missing image", func(t *testing.T) {
		body, contentType := multipartUpload(t, map[string]string{"type": "combined"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
		req.Header.Set("Content-Type", contentType)
		res := httptest.NewRecorder()

		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("unknown type", func(t *testing.T) {
		body, contentType := multipartUpload(t, map[string]string{"type": "sideways"}, testJPEG(t))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
		req.Header.Set("Content-Type", contentType)
		res := httptest.NewRecorder()

		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("threshold out of range", func(t *testing.T) {
		body, contentType := multipartUpload(t, map[string]string{"threshold": "1.5"}, testJPEG(t))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
		req.Header.Set("Content-Type", contentType)
		res := httptest.NewRecorder()

		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestGetAnalysisHandler(t *testing.T) {
	appState := newTestAppState()
	router := setupRouter(appState)

	analysis := testutils.NewTestAnalysis(models.AnalysisTypeCombined)
	require.NoError(t, appState.Store.SaveAnalysis(context.Background(), analysis))

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze/"+analysis.UUID.String(), nil)
		res := httptest.NewRecorder()

		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusOK, res.Code)

		var got models.Analysis
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
		assert.Equal(t, analysis.UUID, got.UUID)
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze/"+uuid.NewString(), nil)
		res := httptest.NewRecorder()

		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("invalid uuid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze/not-a-uuid", nil)
		res := httptest.NewRecorder()

		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestGetReportHandler(t *testing.T) {
	appState := newTestAppState()
	router := setupRouter(appState)

	analysis := testutils.NewTestAnalysis(models.AnalysisTypeCombined)
	analysis.Report = "Thumbnail Analysis Report\n"
	require.NoError(t, appState.Store.SaveAnalysis(context.Background(), analysis))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze/"+analysis.UUID.String()+"/report", nil)
	res := httptest.NewRecorder()

	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, res.Body.String(), "Thumbnail Analysis Report")
}

func TestListAnalysesHandler(t *testing.T) {
	appState := newTestAppState()
	router := setupRouter(appState)

	for i := 0; i < 3; i++ {
		analysis := testutils.NewTestAnalysis(models.AnalysisTypeCombined)
		analysis.AnnotatedImage = "payload"
		require.NoError(t, appState.Store.SaveAnalysis(context.Background(), analysis))
	}

	t.Run("respects the limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze?limit=2", nil)
		res := httptest.NewRecorder()

		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusOK, res.Code)

		var analyses []models.Analysis
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &analyses))
		require.Len(t, analyses, 2)
		assert.Empty(t, analyses[0].AnnotatedImage)
	})

	t.Run("rejects bad limits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze?limit=zero", nil)
		res := httptest.NewRecorder()

		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestIndexHandler(t *testing.T) {
	appState := newTestAppState()
	router := setupRouter(appState)

	analysis := testutils.NewTestAnalysis(models.AnalysisTypeCombined)
	require.NoError(t, appState.Store.SaveAnalysis(context.Background(), analysis))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()

	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, res.Body.String(), "Thumbnail Analyzer")
	assert.Contains(t, res.Body.String(), "viewcount-v1")
}

func TestHealthz(t *testing.T) {
	router := setupRouter(newTestAppState())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
}
