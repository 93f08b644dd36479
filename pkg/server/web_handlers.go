package server

import (
	"net/http"

	"github.com/thumbtrend/thumbtrend/pkg/models"
	"github.com/thumbtrend/thumbtrend/pkg/web"
)

// IndexHandler renders the dashboard page with the most recent analyses.
func IndexHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analyses, err := appState.Store.ListAnalyses(r.Context(), defaultListLimit)
		if err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		dashboard := appState.Config.Dashboard
		page := web.NewIndexPage(web.IndexData{
			DefaultThreshold:   dashboard.DefaultThreshold,
			ViewCountIteration: dashboard.ViewCountIteration,
			TrendingIteration:  dashboard.TrendingIteration,
			Analyses:           analyses,
		})
		page.Render(w, r)
	}
}
