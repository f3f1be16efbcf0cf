package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/district-livability-service/internal/domain"
	"github.com/couchcryptid/district-livability-service/internal/health"
	"github.com/couchcryptid/district-livability-service/internal/travel"
)

const (
	defaultLeaderboardCount = 10
	maxLeaderboardCount     = 64
	maxBodyBytes            = 1 << 16
)

// Leaderboard serves the published ranking.
type Leaderboard interface {
	TopDistricts(ctx context.Context, count int) ([]domain.RankedDistrict, error)
}

// Recommender answers travel recommendation requests and explains them.
type Recommender interface {
	Recommend(ctx context.Context, req travel.Request) (domain.TravelRecommendationResult, error)
	Describe(res domain.TravelRecommendationResult) string
}

// HealthChecker reports per-dependency status.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// Server exposes the public API alongside health, readiness and metrics.
type Server struct {
	httpServer  *http.Server
	leaderboard Leaderboard
	recommender Recommender
	health      HealthChecker
	clock       clockwork.Clock
	logger      *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /health,
// GET /leaderboard and POST /travel/recommendation routes.
func NewServer(
	addr string,
	ready sharedobs.ReadinessChecker,
	leaderboard Leaderboard,
	recommender Recommender,
	checker HealthChecker,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		leaderboard: leaderboard,
		recommender: recommender,
		health:      checker,
		clock:       clock,
		logger:      logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /leaderboard", s.handleLeaderboard)
	mux.HandleFunc("POST /travel/recommendation", s.handleRecommendation)

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

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	report := s.health.Check(ctx)
	status := http.StatusOK
	if report.Status == health.StatusDown {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	count := defaultLeaderboardCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLeaderboardCount {
			writeError(w, http.StatusBadRequest, "count must be an integer between 1 and 64")
			return
		}
		count = n
	}

	ranked, err := s.leaderboard.TopDistricts(r.Context(), count)
	switch {
	case errors.Is(err, domain.ErrLeaderboardNotReady):
		writeError(w, http.StatusServiceUnavailable, "leaderboard is not available yet")
		return
	case err != nil:
		s.logger.Error("leaderboard read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ranked == nil {
		ranked = []domain.RankedDistrict{}
	}
	writeJSON(w, http.StatusOK, ranked)
}

type recommendationRequest struct {
	Latitude    *float64        `json:"latitude"`
	Longitude   *float64        `json:"longitude"`
	Destination json.RawMessage `json:"destination"`
	TravelDate  string          `json:"travelDate"`
}

type recommendationResponse struct {
	Recommended     bool    `json:"recommended"`
	Reason          string  `json:"reason"`
	TempDelta       float64 `json:"tempDelta"`
	AirQualityDelta float64 `json:"airQualityDelta"`
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	var body recommendationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req, msg := s.toRequest(body)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := s.recommender.Recommend(r.Context(), req)
	if err != nil {
		s.logger.Error("recommendation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, recommendationResponse{
		Recommended:     res.IsRecommended,
		Reason:          s.recommender.Describe(res),
		TempDelta:       res.TempDelta,
		AirQualityDelta: res.AirQualityDelta,
	})
}

// toRequest validates the body and returns a client-facing message on failure.
func (s *Server) toRequest(body recommendationRequest) (travel.Request, string) {
	if body.Latitude == nil || body.Longitude == nil {
		return travel.Request{}, "latitude and longitude are required"
	}
	dest, ok := parseDestination(body.Destination)
	if !ok {
		return travel.Request{}, "destination must be a district id or a non-blank district name"
	}
	date, err := domain.ParseDate(body.TravelDate)
	if err != nil {
		return travel.Request{}, "travelDate must be formatted as YYYY-MM-DD"
	}
	if date.Before(domain.Today(s.clock)) {
		return travel.Request{}, "travelDate must not be in the past"
	}
	return travel.Request{
		Latitude:    *body.Latitude,
		Longitude:   *body.Longitude,
		Destination: dest,
		TravelDate:  date,
	}, ""
}

// parseDestination accepts a JSON integer as an id or a JSON string as a name.
func parseDestination(raw json.RawMessage) (travel.Destination, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return travel.Destination{}, false
	}
	if raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil || strings.TrimSpace(name) == "" {
			return travel.Destination{}, false
		}
		return travel.DestinationName(name), true
	}
	var id int
	if err := json.Unmarshal(raw, &id); err != nil {
		return travel.Destination{}, false
	}
	return travel.DestinationID(id), true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
