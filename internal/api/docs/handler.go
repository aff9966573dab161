// Package docs serves the hand-maintained OpenAPI description of the datachat API
// (docs/swagger.yaml, relative to the working directory) behind a Swagger UI.
package docs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const (
	specRoute = "/docs/swagger.yaml"
	specFile  = "docs/swagger.yaml"
)

// Handler serves the Swagger UI pointed at the datachat OpenAPI file.
func Handler() http.HandlerFunc {
	return httpSwagger.Handler(
		httpSwagger.URL(specRoute),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	)
}

// SpecHandler serves the OpenAPI file describing the corpus, ask and legacy routes.
func SpecHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		http.ServeFile(w, r, specFile)
	}
}

// RegisterRoutes mounts /docs (redirect), the UI assets and the OpenAPI file.
func RegisterRoutes(r chi.Router) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusFound)
	})

	// The exact route wins over the wildcard in chi.
	r.Get(specRoute, SpecHandler())
	r.Get("/docs/*", Handler())
}
