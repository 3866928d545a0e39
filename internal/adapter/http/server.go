package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/wireline-recovery-map/internal/filter"
	"github.com/couchcryptid/wireline-recovery-map/internal/pipeline"
	"github.com/couchcryptid/wireline-recovery-map/internal/render"
	"github.com/couchcryptid/wireline-recovery-map/internal/session"
)

// maxActionBytes bounds the body of POST /api/actions.
const maxActionBytes = 64 << 10

// Server exposes the map API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	session    *session.Session
	logger     *slog.Logger
}

// NewServer creates an HTTP server for sess. ready backs /readyz.
func NewServer(addr string, sess *session.Session, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// A refresh geocodes every address one second apart.
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		session: sess,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/scene", s.handleScene)
	mux.HandleFunc("GET /api/scene.geojson", s.handleSceneGeoJSON)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/actions", s.handleAction)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/reverse", s.handleReverse)
	mux.HandleFunc("GET /api/tables/progress", s.handleProgressTable)
	mux.HandleFunc("GET /api/tables/repeaters", s.handleRepeaterTable)
	mux.HandleFunc("GET /api/legend", s.handleLegend)

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

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("bbox")
	if raw == "" {
		writeJSON(w, http.StatusOK, s.session.Scene())
		return
	}
	bound, err := parseBBox(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.SceneWithin(bound))
}

func (s *Server) handleSceneGeoJSON(w http.ResponseWriter, _ *http.Request) {
	fc := s.session.Scene().FeatureCollection()
	data, err := fc.MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client disconnects are not actionable
}

type stateResponse struct {
	State    filter.State             `json:"state"`
	Datasets []pipeline.DatasetStatus `json:"datasets"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		State:    s.session.State(),
		Datasets: s.session.Datasets(),
	})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxActionBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	action, err := filter.ParseAction(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	state, err := s.session.Dispatch(action)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, filter.ErrInvalidAction) || errors.Is(err, filter.ErrUnknownAction) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: state, Datasets: s.session.Datasets()})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Refresh(r.Context()); err != nil {
		s.logger.Error("refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{
		State:    s.session.State(),
		Datasets: s.session.Datasets(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Summary())
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid lat %q", q.Get("lat")))
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid lon %q", q.Get("lon")))
		return
	}
	writeJSON(w, http.StatusOK, s.session.Reverse(r.Context(), lat, lon))
}

func (s *Server) handleProgressTable(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.ProgressTable())
}

func (s *Server) handleRepeaterTable(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.RepeaterTable())
}

func (s *Server) handleLegend(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, render.Legend())
}

// parseBBox reads "minLon,minLat,maxLon,maxLat".
func parseBBox(raw string) (orb.Bound, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("invalid bbox %q: want minLon,minLat,maxLon,maxLat", raw)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid bbox %q: %w", raw, err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, fmt.Errorf("invalid bbox %q: min exceeds max", raw)
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	sharedobs.WriteJSON(w, status, v)
}
