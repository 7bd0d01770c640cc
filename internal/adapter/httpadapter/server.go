package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ActiveAirspace serves the active restrictions as GeoJSON.
type ActiveAirspace interface {
	ActiveGeoJSON(ctx context.Context, fir string) (*geojson.FeatureCollection, error)
}

// Server exposes health, readiness, metrics and airspace HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /airspace/active routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, airspace ActiveAirspace, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /airspace/active", s.handleActive(airspace))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleActive returns the active restrictions, optionally filtered by the
// fir query parameter.
func (s *Server) handleActive(airspace ActiveAirspace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fir := r.URL.Query().Get("fir")
		fc, err := airspace.ActiveGeoJSON(r.Context(), fir)
		if err != nil {
			s.logger.Error("active airspace query failed", "error", err, "fir", fir)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "active airspace unavailable"})
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(fc) //nolint:errcheck // client may have gone away
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort error response
}
