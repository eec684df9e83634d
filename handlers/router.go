// handlers/router.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gewnthar/verif-rotation/metrics"
)

// RouterDeps are the collaborators behind the HTTP API. History is nil when
// import history is disabled.
type RouterDeps struct {
	Importer       TripImporter
	Index          PointCounter
	History        ImportHistory
	CORSOrigin     string
	MaxUploadBytes int64
}

// NewRouter mounts every endpoint of the service.
func NewRouter(deps RouterDeps) http.Handler {
	trips := NewTripImportHandler(deps.Importer, deps.MaxUploadBytes)
	history := NewImportHistoryHandler(deps.History)
	health := NewHealthHandler(deps.Index, deps.History)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{deps.CORSOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/health", health.Health)
	r.Post("/imports/trips", trips.ImportTrips)
	r.Get("/imports", history.ListImports)
	r.Get("/imports/{importID}/errors", history.ListImportErrors)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}
