// Package vision implements clients for the hosted object-detection
// service's training and prediction REST APIs.
package vision

import (
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/thumbtrend/thumbtrend/internal"
)

var log = internal.GetLogger()

const (
	// VisionAPITimeout bounds a single request to the service.
	VisionAPITimeout = 90 * time.Second
	// MaxVisionAPIRequestAttempts is the retry budget for transient failures.
	MaxVisionAPIRequestAttempts = 5

	trainingAPIVersion   = "v3.3"
	predictionAPIVersion = "v3.0"

	trainingKeyHeader   = "Training-Key"
	predictionKeyHeader = "Prediction-Key"
)

// NewRetryableHTTPClient returns a new retryable HTTP client with the given
// retryMax and timeout. Retries use the default exponential backoff policy.
func NewRetryableHTTPClient(retryMax int, timeout time.Duration) *http.Client {
	retryableHTTPClient := retryablehttp.NewClient()
	retryableHTTPClient.RetryMax = retryMax
	retryableHTTPClient.HTTPClient.Timeout = timeout
	retryableHTTPClient.Logger = internal.NewLeveledLogrus(log)
	retryableHTTPClient.Backoff = retryablehttp.DefaultBackoff
	retryableHTTPClient.CheckRetry = retryablehttp.DefaultRetryPolicy

	return retryableHTTPClient.StandardClient()
}

// joinEndpoint joins a service endpoint with a path, tolerating endpoints
// configured with or without a trailing slash.
func joinEndpoint(endpoint, path string) string {
	return strings.TrimSuffix(endpoint, "/") + "/" + strings.TrimPrefix(path, "/")
}
