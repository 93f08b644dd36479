package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/thumbtrend/thumbtrend/config"
	"github.com/thumbtrend/thumbtrend/pkg/models"
)

// TrainingClient talks to the service's training API.
type TrainingClient struct {
	endpoint   string
	key        string
	projectID  string
	resourceID string
	advanced   bool
	httpClient *http.Client
}

var _ models.VisionTrainingClient = &TrainingClient{}

// NewTrainingClient creates a training client from the app config.
func NewTrainingClient(cfg *config.Config) *TrainingClient {
	if cfg.Vision.TrainingKey == "" {
		log.Fatal("vision training key not set. Ensure THUMBTREND_VISION_TRAINING_KEY is set in your environment.")
	}
	return &TrainingClient{
		endpoint:   cfg.Vision.TrainingEndpoint,
		key:        cfg.Vision.TrainingKey,
		projectID:  cfg.Vision.ProjectID,
		resourceID: cfg.Vision.PredictionResourceID,
		advanced:   cfg.Vision.AdvancedTraining,
		httpClient: NewRetryableHTTPClient(MaxVisionAPIRequestAttempts, VisionAPITimeout),
	}
}

func (c *TrainingClient) projectURL(parts ...string) string {
	path := fmt.Sprintf("customvision/%s/training/projects/%s", trainingAPIVersion, c.projectID)
	if len(parts) > 0 {
		path += "/" + strings.Join(parts, "/")
	}
	return joinEndpoint(c.endpoint, path)
}

func (c *TrainingClient) do(
	ctx context.Context,
	method, requestURL string,
	body io.Reader,
	out interface{},
) error {
	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return NewServiceError("failed to create request", err)
	}
	req.Header.Set(trainingKeyHeader, c.key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewServiceError("training API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewServiceStatusError(
			fmt.Sprintf("%s %s: %s", method, requestURL, strings.TrimSpace(string(respBody))),
			resp.StatusCode,
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewServiceError("failed to decode training API response", err)
	}
	return nil
}

// GetProject returns the project's metadata.
func (c *TrainingClient) GetProject(ctx context.Context) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, http.MethodGet, c.projectURL(), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListIterations returns all iterations of the project.
func (c *TrainingClient) ListIterations(ctx context.Context) ([]models.Iteration, error) {
	var iterations []models.Iteration
	if err := c.do(ctx, http.MethodGet, c.projectURL("iterations"), nil, &iterations); err != nil {
		return nil, err
	}
	return iterations, nil
}

// ListTags returns the tags registered on the project.
func (c *TrainingClient) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := c.do(ctx, http.MethodGet, c.projectURL("tags"), nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// UploadImages uploads a batch of images with their labeled regions. The
// service rejects batches larger than UploadBatchSize; use UploadInBatches
// for arbitrary entry counts.
func (c *TrainingClient) UploadImages(ctx context.Context, batch []models.ImageFileEntry) error {
	payload, err := json.Marshal(map[string][]models.ImageFileEntry{"images": batch})
	if err != nil {
		return NewServiceError("failed to marshal image batch", err)
	}
	return c.do(ctx, http.MethodPost, c.projectURL("images", "files"), bytes.NewReader(payload), nil)
}

// Train creates the named iteration and triggers training on it.
func (c *TrainingClient) Train(ctx context.Context, iterationName string) error {
	trainURL := c.projectURL("train") + "?" + url.Values{
		"iterationName":    {iterationName},
		"advancedTraining": {strconv.FormatBool(c.advanced)},
	}.Encode()
	return c.do(ctx, http.MethodPost, trainURL, nil, nil)
}

// Publish publishes a trained iteration against the prediction resource,
// making it available to the prediction API under publishName.
func (c *TrainingClient) Publish(ctx context.Context, iterationID, publishName string) error {
	if c.resourceID == "" {
		return NewServiceError("prediction resource ID is required to publish", nil)
	}
	publishURL := c.projectURL("iterations", iterationID, "publish") + "?" + url.Values{
		"predictionId": {c.resourceID},
		"publishName":  {publishName},
	}.Encode()
	return c.do(ctx, http.MethodPost, publishURL, nil, nil)
}

// TagMap returns a name to ID mapping for the project's tags.
func TagMap(ctx context.Context, tc models.VisionTrainingClient) (map[string]string, error) {
	tags, err := tc.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	tagMap := make(map[string]string, len(tags))
	for _, tag := range tags {
		tagMap[tag.Name] = tag.ID
	}
	return tagMap, nil
}

// LatestPublishedIteration returns the most recently created iteration that
// has been published for prediction.
func LatestPublishedIteration(
	ctx context.Context,
	tc models.VisionTrainingClient,
) (*models.Iteration, error) {
	iterations, err := tc.ListIterations(ctx)
	if err != nil {
		return nil, err
	}

	var latest *models.Iteration
	for i := range iterations {
		it := &iterations[i]
		if it.PublishName == "" {
			continue
		}
		if latest == nil || it.Created.After(latest.Created) {
			latest = it
		}
	}
	if latest == nil {
		return nil, ErrNoPublishedIteration
	}
	return latest, nil
}

// NextIterationName scans existing iterations named "Iteration <n>" and
// returns the next name in the sequence.
func NextIterationName(ctx context.Context, tc models.VisionTrainingClient) (string, error) {
	iterations, err := tc.ListIterations(ctx)
	if err != nil {
		return "", err
	}

	maxNum := 0
	for _, it := range iterations {
		if !strings.HasPrefix(it.Name, "Iteration") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(it.Name, "Iteration")))
		if err != nil {
			continue
		}
		if num > maxNum {
			maxNum = num
		}
	}
	return fmt.Sprintf("Iteration %d", maxNum+1), nil
}

// UploadBatchSize is the maximum number of images the service accepts in a
// single upload request.
const UploadBatchSize = 50

// UploadInBatches uploads entries in UploadBatchSize groups, logging
// progress per batch.
func UploadInBatches(
	ctx context.Context,
	tc models.VisionTrainingClient,
	entries []models.ImageFileEntry,
) error {
	for start := 0; start < len(entries); start += UploadBatchSize {
		end := start + UploadBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := tc.UploadImages(ctx, entries[start:end]); err != nil {
			return fmt.Errorf("failed to upload images %d-%d: %w", start+1, end, err)
		}
		log.Infof("uploaded images %d-%d of %d", start+1, end, len(entries))
	}
	return nil
}

// WaitForCompletion polls the iteration's status until it completes, fails,
// is canceled, or the context expires.
func WaitForCompletion(
	ctx context.Context,
	tc models.VisionTrainingClient,
	iterationName string,
	interval time.Duration,
) error {
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		iterations, err := tc.ListIterations(ctx)
		if err != nil {
			return err
		}

		for _, it := range iterations {
			if it.Name != iterationName {
				continue
			}
			elapsed := time.Since(start).Round(time.Second)
			log.Infof("iteration %q status: %s (elapsed %s)", iterationName, it.Status, elapsed)
			switch it.Status {
			case models.IterationStatusCompleted:
				return nil
			case models.IterationStatusFailed, models.IterationStatusCanceled:
				return NewServiceError(
					fmt.Sprintf("training of %q ended with status %s", iterationName, it.Status),
					nil,
				)
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for iteration %q: %w", iterationName, ctx.Err())
		case <-ticker.C:
		}
	}
}
