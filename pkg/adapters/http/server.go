package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/vanity/internal/logging"
	"github.com/aretw0/vanity/pkg/definition"
	"github.com/aretw0/vanity/pkg/domain"
	"github.com/aretw0/vanity/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// MaxRangeDays bounds the days a single metric request may span.
const MaxRangeDays = 366

// Registry is the part of the registry the API serves.
type Registry interface {
	Experiments(ctx context.Context) ([]*definition.Experiment, error)
	Experiment(ctx context.Context, name string) (*definition.Experiment, error)
	Metrics(ctx context.Context) ([]*definition.Metric, error)
	Metric(ctx context.Context, name string) (*definition.Metric, error)
	Track(ctx context.Context, name string, amount int) error
	ReloadAndLoad(ctx context.Context) error
}

// Server serves the registry over JSON.
type Server struct {
	Registry Registry
	Streams  *StreamManager
	Version  string

	logger  *slog.Logger
	metrics http.Handler
	now     func() time.Time
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// WithStreams shares a StreamManager, so events published elsewhere reach /events.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewHandler creates the HTTP handler for reg.
func NewHandler(reg Registry, opts ...Option) http.Handler {
	s := &Server{
		Registry: reg,
		Version:  "dev",
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(IdentityMiddleware)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/experiments", s.ListExperiments)
		r.Get("/experiments/{name}", s.GetExperiment)
		r.Get("/metrics", s.ListMetrics)
		r.Get("/metrics/{name}", s.GetMetric)
		r.Post("/metrics/{name}/track", s.TrackMetric)
		r.Post("/reload", s.Reload)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+IdentityHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListExperiments handles GET /api/experiments.
func (s *Server) ListExperiments(w http.ResponseWriter, r *http.Request) {
	experiments, err := s.Registry.Experiments(r.Context())
	if err != nil {
		s.fail(w, "ListExperiments", err)
		return
	}
	views := make([]ExperimentView, 0, len(experiments))
	for _, e := range experiments {
		v, err := experimentView(r.Context(), e)
		if err != nil {
			s.fail(w, "ListExperiments", err)
			return
		}
		views = append(views, v)
	}
	s.writeJSON(w, http.StatusOK, views)
}

// GetExperiment handles GET /api/experiments/{name}.
func (s *Server) GetExperiment(w http.ResponseWriter, r *http.Request) {
	e, err := s.Registry.Experiment(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, "GetExperiment", err)
		return
	}
	v, err := experimentView(r.Context(), e)
	if err != nil {
		s.fail(w, "GetExperiment", err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// ListMetrics handles GET /api/metrics.
func (s *Server) ListMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.Registry.Metrics(r.Context())
	if err != nil {
		s.fail(w, "ListMetrics", err)
		return
	}
	views := make([]MetricView, 0, len(metrics))
	for _, m := range metrics {
		v, err := metricView(r.Context(), m)
		if err != nil {
			s.fail(w, "ListMetrics", err)
			return
		}
		views = append(views, v)
	}
	s.writeJSON(w, http.StatusOK, views)
}

// GetMetric handles GET /api/metrics/{name}?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Without a range the last seven days are returned.
func (s *Server) GetMetric(w http.ResponseWriter, r *http.Request) {
	m, err := s.Registry.Metric(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, "GetMetric", err)
		return
	}

	to := s.now().UTC()
	from := to.AddDate(0, 0, -6)
	if q := r.URL.Query().Get("from"); q != "" {
		if from, err = time.Parse(time.DateOnly, q); err != nil {
			http.Error(w, "Invalid from date", http.StatusBadRequest)
			return
		}
	}
	if q := r.URL.Query().Get("to"); q != "" {
		if to, err = time.Parse(time.DateOnly, q); err != nil {
			http.Error(w, "Invalid to date", http.StatusBadRequest)
			return
		}
	}
	if to.Before(from) {
		http.Error(w, "Invalid range: to before from", http.StatusBadRequest)
		return
	}
	if to.Sub(from) >= MaxRangeDays*24*time.Hour {
		http.Error(w, fmt.Sprintf("Invalid range: more than %d days", MaxRangeDays), http.StatusBadRequest)
		return
	}

	v, err := metricView(r.Context(), m)
	if err != nil {
		s.fail(w, "GetMetric", err)
		return
	}
	values, err := m.Values(r.Context(), from, to)
	if err != nil {
		s.fail(w, "GetMetric", err)
		return
	}
	days := ports.Days(from, to)
	v.Values = make([]DayValue, len(days))
	for i, day := range days {
		v.Values[i] = DayValue{Date: ports.DayKey(day)}
		if i < len(values) {
			v.Values[i].Value = values[i]
		}
	}
	s.writeJSON(w, http.StatusOK, v)
}

// TrackRequest is the optional body of POST /api/metrics/{name}/track.
type TrackRequest struct {
	Amount int `json:"amount"`
}

// TrackMetric handles POST /api/metrics/{name}/track.
func (s *Server) TrackMetric(w http.ResponseWriter, r *http.Request) {
	var body TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("TrackMetric: Invalid request body", "err", err)
		return
	}

	name := chi.URLParam(r, "name")
	if err := s.Registry.Track(r.Context(), name, body.Amount); err != nil {
		s.fail(w, "TrackMetric", err)
		return
	}
	s.Streams.Broadcast(TopicTracks, name)
	w.WriteHeader(http.StatusNoContent)
}

// Reload handles POST /api/reload.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	if err := s.Registry.ReloadAndLoad(r.Context()); err != nil {
		s.fail(w, "Reload", err)
		return
	}
	s.Streams.Broadcast(TopicReloads, "reload")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "vanity-http",
		"version": s.Version,
	})
}

// SubscribeEvents handles the GET /events request (SSE).
// ?topic=tracks|reloads selects one stream; the default is reloads.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = TopicReloads
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "topic", topic)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		s.logger.Error(op+" failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
