package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"

	"github.com/thumbtrend/thumbtrend/config"
	"github.com/thumbtrend/thumbtrend/pkg/models"
)

// PredictionClient talks to the service's prediction API.
type PredictionClient struct {
	endpoint   string
	key        string
	projectID  string
	httpClient *http.Client
	// maxAttempts is the retry budget per Detect call.
	maxAttempts uint
}

var _ models.VisionPredictionClient = &PredictionClient{}

// NewPredictionClient creates a prediction client from the app config.
func NewPredictionClient(cfg *config.Config) *PredictionClient {
	if cfg.Vision.PredictionKey == "" {
		log.Fatal("vision prediction key not set. Ensure THUMBTREND_VISION_PREDICTION_KEY is set in your environment.")
	}
	return &PredictionClient{
		endpoint:    cfg.Vision.PredictionEndpoint,
		key:         cfg.Vision.PredictionKey,
		projectID:   cfg.Vision.ProjectID,
		httpClient:  &http.Client{Timeout: VisionAPITimeout},
		maxAttempts: MaxVisionAPIRequestAttempts,
	}
}

// DetectURL returns the prediction endpoint for a published iteration.
func (c *PredictionClient) DetectURL(publishName string) string {
	return joinEndpoint(c.endpoint, fmt.Sprintf(
		"customvision/%s/Prediction/%s/detect/iterations/%s/image",
		predictionAPIVersion, c.projectID, publishName,
	))
}

// Detect runs object detection on the image body against the published
// iteration. Transient failures are retried with backoff.
func (c *PredictionClient) Detect(
	ctx context.Context,
	publishName string,
	image []byte,
) (*models.ImagePrediction, error) {
	detectURL := c.DetectURL(publishName)

	var prediction models.ImagePrediction
	err := retry.Do(
		func() error {
			return c.detectOnce(ctx, detectURL, image, &prediction)
		},
		retry.Context(ctx),
		retry.Attempts(c.maxAttempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			// Client errors won't resolve on retry.
			var serviceErr *ServiceError
			if errors.As(err, &serviceErr) &&
				serviceErr.StatusCode >= http.StatusBadRequest &&
				serviceErr.StatusCode < http.StatusInternalServerError {
				return false
			}
			return true
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("unexpected response from prediction API: %w", err)
	}
	return &prediction, nil
}

func (c *PredictionClient) detectOnce(
	ctx context.Context,
	detectURL string,
	image []byte,
	out *models.ImagePrediction,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, detectURL, bytes.NewReader(image))
	if err != nil {
		return NewServiceError("failed to create detect request", err)
	}
	req.Header.Set(predictionKeyHeader, c.key)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewServiceError("prediction API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewServiceStatusError(
			fmt.Sprintf("detect: %s", strings.TrimSpace(string(respBody))),
			resp.StatusCode,
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewServiceError("failed to decode prediction response", err)
	}
	return nil
}
