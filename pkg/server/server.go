// Package server exposes the demo dashboard and its JSON API.
package server

import (
	"fmt"
	"net/http"
	"time"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"

	"github.com/thumbtrend/thumbtrend/internal"
	"github.com/thumbtrend/thumbtrend/pkg/auth"
	"github.com/thumbtrend/thumbtrend/pkg/models"
)

var log = internal.GetLogger()

const ReadHeaderTimeout = 5 * time.Second

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) *http.Server {
	router := setupRouter(appState)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", appState.Config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
}

func setupRouter(appState *models.AppState) *chi.Mux {
	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(middleware.Heartbeat("/healthz"))

	// Dashboard page
	router.Get("/", IndexHandler(appState))

	router.Route("/api/v1", func(r chi.Router) {
		if appState.Config.Auth.Required {
			log.Info("JWT authentication required")
			r.Use(auth.JWTVerifier(appState.Config))
			r.Use(jwtauth.Authenticator)
		}

		r.Route("/analyze", func(r chi.Router) {
			r.Post("/", PostAnalyzeHandler(appState))
			r.Get("/", ListAnalysesHandler(appState))
			r.Route("/{analysisUUID}", func(r chi.Router) {
				r.Get("/", GetAnalysisHandler(appState))
				r.Get("/report", GetReportHandler(appState))
			})
		})
	})

	return router
}
