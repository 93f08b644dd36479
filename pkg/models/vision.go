package models

import (
	"context"
	"time"
)

// BoundingBox is an axis-aligned rectangle with dimensions normalized to
// the image size, as returned by the detection service.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Prediction is a single detected object.
type Prediction struct {
	TagID       string      `json:"tagId"`
	TagName     string      `json:"tagName"`
	Probability float64     `json:"probability"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// ImagePrediction is the detection result for one image.
type ImagePrediction struct {
	ID          string       `json:"id"`
	Project     string       `json:"project"`
	Iteration   string       `json:"iteration"`
	Created     time.Time    `json:"created"`
	Predictions []Prediction `json:"predictions"`
}

// Project describes a detection project on the service.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Iteration is one training run of a project.
type Iteration struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Created     time.Time `json:"created"`
	PublishName string    `json:"publishName"`
}

// Iteration status values reported by the training API.
const (
	IterationStatusCompleted = "Completed"
	IterationStatusFailed    = "Failed"
	IterationStatusCanceled  = "Canceled"
	IterationStatusTraining  = "Training"
)

// Tag is a category registered on the training project.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Region is a labeled box in the service's upload format. Coordinates are
// normalized to the image size.
type Region struct {
	TagID  string  `json:"tagId"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ImageFileEntry is one image in an upload batch. Contents is the base64
// encoded image body.
type ImageFileEntry struct {
	Name     string   `json:"name"`
	Contents string   `json:"contents"`
	Regions  []Region `json:"regions"`
}

// VisionTrainingClient wraps the training side of the hosted detection
// service: project metadata, tags, iterations, uploads, training and
// publishing.
type VisionTrainingClient interface {
	GetProject(ctx context.Context) (*Project, error)
	ListIterations(ctx context.Context) ([]Iteration, error)
	ListTags(ctx context.Context) ([]Tag, error)
	UploadImages(ctx context.Context, batch []ImageFileEntry) error
	Train(ctx context.Context, iterationName string) error
	Publish(ctx context.Context, iterationID, publishName string) error
}

// VisionPredictionClient wraps the prediction side of the hosted detection
// service.
type VisionPredictionClient interface {
	Detect(ctx context.Context, publishName string, image []byte) (*ImagePrediction, error)
}
