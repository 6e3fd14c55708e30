// Package api exposes the HTTP interface for the conversion service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openconvert/markitdown-server/internal/audit"
	"github.com/openconvert/markitdown-server/internal/engine"
	"github.com/openconvert/markitdown-server/internal/metrics"
	"github.com/openconvert/markitdown-server/internal/pipeline"
	"github.com/openconvert/markitdown-server/internal/publisher"
)

// ServiceName identifies the service in the liveness payload.
const ServiceName = "markitdown-server"

// Server wires HTTP handlers to the conversion pipeline.
type Server struct {
	router   chi.Router
	pipeline *pipeline.Pipeline
	engines  *engine.Initializer
	recorder audit.Recorder
	events   publisher.Publisher
	topic    string
	logger   *zap.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithAudit records every conversion request into the recorder.
func WithAudit(recorder audit.Recorder) Option {
	return func(s *Server) {
		s.recorder = recorder
	}
}

// WithPublisher emits a conversion-completed event for each success.
func WithPublisher(pub publisher.Publisher, topic string) Option {
	return func(s *Server) {
		s.events = pub
		s.topic = topic
	}
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	p *pipeline.Pipeline,
	engines *engine.Initializer,
	requestTimeout time.Duration,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		pipeline: p,
		engines:  engines,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/", s.root)
	r.Get("/health", s.health)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})
	r.Post("/", s.convert)
	r.Post("/events", s.convert)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// root is the liveness probe. It never touches the engine.
func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{
		"status":  "ready",
		"service": ServiceName,
	})
}

// health triggers lazy engine initialization as a side effect, so the
// first probe is what warms the engine. Always 200; the body reports
// whether the engine is usable.
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	if s.engines.State() == engine.StateInitializing {
		writeJSON(s.logger, w, http.StatusOK, map[string]any{
			"status":               "loading",
			"markitdown_available": false,
			"runtime_version":      runtime.Version(),
		})
		return
	}

	eng, err := s.engines.Get()
	if err != nil {
		writeJSON(s.logger, w, http.StatusOK, map[string]any{
			"status":               "error",
			"error":                err.Error(),
			"markitdown_available": false,
			"runtime_version":      runtime.Version(),
		})
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]any{
		"status":               "healthy",
		"markitdown_available": eng != nil,
		"runtime_version":      runtime.Version(),
	})
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(s.logger, w, http.StatusBadRequest, "invalid JSON")
		return
	}

	start := time.Now()
	res, err := s.pipeline.Convert(r.Context(), req)
	duration := time.Since(start)

	if err != nil {
		status := http.StatusInternalServerError
		outcome := "error"
		if pe, ok := pipeline.AsError(err); ok {
			status = pe.Kind.HTTPStatus()
			outcome = pe.Kind.Label()
		}
		s.record(r, req.Source, outcome, err.Error(), duration)
		writeError(s.logger, w, status, err.Error())
		return
	}

	s.record(r, req.Source, "success", "", duration)
	s.publish(r.Context(), req.Source, res, requestID(r.Context()))
	writeJSON(s.logger, w, http.StatusOK, res)
}

// record writes an audit row when a recorder is configured. Failures are
// logged and never affect the response.
func (s *Server) record(r *http.Request, source, outcome, errMsg string, duration time.Duration) {
	if s.recorder == nil {
		return
	}
	rec := audit.Record{
		ID:            uuid.NewString(),
		Source:        source,
		Outcome:       outcome,
		CorrelationID: requestID(r.Context()),
		ErrorMessage:  errMsg,
		Duration:      duration,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.recorder.Record(r.Context(), rec); err != nil {
		s.logger.Error("audit record failed", zap.String("source", source), zap.Error(err))
	}
}

func (s *Server) publish(ctx context.Context, source string, res pipeline.Result, corrID string) {
	if s.events == nil {
		return
	}
	event := publisher.Event{
		Source:        source,
		Title:         res.Title,
		CorrelationID: corrID,
		ContentBytes:  len(res.TextContent),
		CompletedAt:   time.Now().UTC(),
	}
	if _, err := s.events.Publish(ctx, s.topic, event); err != nil {
		s.logger.Error("publish conversion event failed", zap.String("source", source), zap.Error(err))
	}
}
