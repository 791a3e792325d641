// v1
// internal/httpapi/router.go
package httpapi

import (
	"net/http"

	"log/slog"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/Abhishek5467/dogpose-backend/internal/metrics"
)

// NewRouter wires all HTTP routes exposed by the backend: the sensor
// endpoints, the pose endpoints, health probes, and the metrics scrape.
func NewRouter(logger *slog.Logger, health *HealthState, h *Handlers) http.Handler {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware(logger))

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/sensor", h.ReportSensor).Methods(http.MethodPost)
	api.HandleFunc("/sensor", h.ReadSensor).Methods(http.MethodGet)
	api.HandleFunc("/pose", h.ClassifyPose).Methods(http.MethodPost)
	api.HandleFunc("/pose/latest", h.LatestPose).Methods(http.MethodGet)

	r.HandleFunc("/health", healthLive).Methods(http.MethodGet)
	r.HandleFunc("/health/live", healthLive).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", healthReady(health)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// The mobile client is served from a different origin.
	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{"*"}),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type"}),
	)(r)
}

func healthLive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func healthReady(health *HealthState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !health.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
