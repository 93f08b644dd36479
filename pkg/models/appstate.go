package models

import (
	"github.com/thumbtrend/thumbtrend/config"
)

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	TrainingClient   VisionTrainingClient
	PredictionClient VisionPredictionClient
	Store            Store
	Config           *config.Config
}
