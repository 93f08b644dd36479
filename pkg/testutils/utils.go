package testutils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/oiime/logrusbun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/thumbtrend/thumbtrend/config"
)

// NewTestConfig returns a config suitable for package tests. Service
// endpoints are left empty; tests point the clients at httptest servers.
func NewTestConfig() *config.Config {
	return &config.Config{
		Vision: config.VisionConfig{
			ProjectID:            "test-project",
			PredictionResourceID: "test-resource",
			TrainingKey:          "test-training-key",
			PredictionKey:        "test-prediction-key",
			PollInterval:         1,
		},
		Labels: []config.LabelConfig{
			{Name: "브랜드/로고", ID: 1, Threshold: 0.9, Weight: 1.0},
			{Name: "인물", ID: 2, Threshold: 0.9, Weight: 1.2},
			{Name: "캐릭터", ID: 3, Threshold: 0.9, Weight: 0.9},
			{Name: "텍스트", ID: 4, Threshold: 0.9, Weight: 1.1},
		},
		Dashboard: config.DashboardConfig{
			ViewCountIteration: "viewcount-v1",
			TrendingIteration:  "trending-v1",
			DefaultThreshold:   0.5,
		},
		Crawler: config.CrawlerConfig{
			MinWidth: 480,
		},
		Store: config.StoreConfig{
			Type:   "sqlite",
			SQLite: config.SQLiteConfig{DSN: "file::memory:?cache=shared"},
		},
		Server: config.ServerConfig{Port: 8000},
		Log:    config.LogConfig{Level: "info"},
	}
}

// FindProjectRoot returns the absolute path to the project root directory.
func FindProjectRoot() (string, error) {
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("could not get current file path")
	}

	dir := filepath.Dir(currentFilePath)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		// If we've reached the top-level directory, the project root is not found.
		if dir == filepath.Dir(dir) {
			return "", fmt.Errorf("project root not found")
		}

		dir = filepath.Dir(dir)
	}
}

func SetUpDBLogging(db *bun.DB, log logrus.FieldLogger) {
	db.AddQueryHook(logrusbun.NewQueryHook(logrusbun.QueryHookOptions{
		LogSlow:         time.Second,
		Logger:          log,
		QueryLevel:      logrus.InfoLevel,
		ErrorLevel:      logrus.ErrorLevel,
		SlowLevel:       logrus.WarnLevel,
		MessageTemplate: "{{.Operation}}[{{.Duration}}]: {{.Query}}",
		ErrorTemplate:   "{{.Operation}}[{{.Duration}}]: {{.Query}}: {{.Error}}",
	}))
}

const charset = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func GenerateRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		bigInt, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		b[i] = charset[bigInt.Int64()]
	}
	return string(b)
}
