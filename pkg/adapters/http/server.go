package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/trialset"
	"github.com/aretw0/trialset/pkg/adapters/file"
	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/ports"
	"github.com/aretw0/trialset/pkg/schema"
	"github.com/aretw0/trialset/pkg/sequence"
)

// Engine defines what the HTTP adapter needs from the trialset engine.
type Engine interface {
	Experiment(ctx context.Context) (*domain.Experiment, error)
	Validate(ctx context.Context) error
	Sequence(ctx context.Context) (sequence.Expr, error)
	Plan(ctx context.Context, opts trialset.PlanOptions) (*domain.Plan, error)
	Replay(ctx context.Context, planID string) (*domain.Plan, error)
	CheckField(ctx context.Context, group, field, input string) error
	Store() ports.PlanStore
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Server implements ServerInterface on top of an Engine.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	logger  *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

// Option configures the handler.
type Option func(*handlerConfig)

type handlerConfig struct {
	logger  *slog.Logger
	metrics http.Handler
}

// WithLogger sets the request logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *handlerConfig) {
		c.logger = logger
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(c *handlerConfig) {
		c.metrics = h
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	cfg := handlerConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	server := &Server{
		Engine:  engine,
		Streams: NewStreamManager(cfg.logger),
		logger:  cfg.logger,
	}
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if cfg.metrics != nil {
		r.Handle("/metrics", cfg.metrics)
	}

	handler := HandlerFromMux(server, r, func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(w, http.StatusBadRequest, err)
	})
	return enableCORS(handler)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Trialset API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "trialset-http",
		"version":     strings.TrimSpace(trialset.Version),
		"api_version": apiVersion,
	})
}

// GetExperiment handles the GET /experiment request.
func (s *Server) GetExperiment(w http.ResponseWriter, r *http.Request) {
	exp, err := s.Engine.Experiment(r.Context())
	if err != nil {
		s.fail(w, "load experiment", err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// GetSequence handles the GET /sequence request.
func (s *Server) GetSequence(w http.ResponseWriter, r *http.Request) {
	expr, err := s.Engine.Sequence(r.Context())
	if err != nil {
		s.fail(w, "sequence", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sequence": expr.String()})
}

// ValidateExperiment handles the POST /validate request.
func (s *Server) ValidateExperiment(w http.ResponseWriter, r *http.Request) {
	err := s.Engine.Validate(r.Context())
	if err == nil {
		writeJSON(w, http.StatusOK, ValidationResult{Valid: true})
		return
	}

	problems := schema.ValidationErrors(err)
	if len(problems) == 0 {
		s.fail(w, "validate", err)
		return
	}
	res := ValidationResult{Errors: make([]string, len(problems))}
	for i, p := range problems {
		res.Errors[i] = p.Error()
	}
	writeJSON(w, http.StatusUnprocessableEntity, res)
}

// CheckField handles the POST /check request.
func (s *Server) CheckField(w http.ResponseWriter, r *http.Request) {
	var body CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		s.logger.Warn("CheckField: invalid request body", "error", err)
		return
	}

	err := s.Engine.CheckField(r.Context(), body.Group, body.Field, body.Input)
	var fe *schema.FieldError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, CheckResult{Accepted: true})
	case errors.As(err, &fe):
		writeJSON(w, http.StatusOK, CheckResult{Accepted: false, Message: fe.Message})
	case errors.Is(err, domain.ErrUnknownGroup), errors.Is(err, domain.ErrFieldNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, schema.ErrInputTooLarge), errors.Is(err, schema.ErrInvalidUTF8):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, schema.ErrInvalidRule):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		s.fail(w, "check field", err)
	}
}

// ListPlans handles the GET /plans request.
func (s *Server) ListPlans(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Store().List(r.Context())
	if err != nil {
		s.fail(w, "list plans", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// CreatePlan handles the POST /plans request.
func (s *Server) CreatePlan(w http.ResponseWriter, r *http.Request, params CreatePlanParams) {
	opts := trialset.PlanOptions{Seed: params.Seed}
	if params.Save != nil {
		opts.Save = *params.Save
	}

	plan, err := s.Engine.Plan(r.Context(), opts)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownGroup) || errors.Is(err, sequence.ErrInvalidExpression) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		s.fail(w, "plan", err)
		return
	}

	if data, err := json.Marshal(map[string]any{"id": plan.ID, "seed": plan.Seed, "items": len(plan.Entries)}); err == nil {
		s.Streams.Broadcast(TopicPlans, string(data))
	}
	writeJSON(w, http.StatusCreated, plan)
}

// GetPlan handles the GET /plans/{id} request.
func (s *Server) GetPlan(w http.ResponseWriter, r *http.Request, id string) {
	plan, err := s.Engine.Store().Load(r.Context(), id)
	if err != nil {
		s.fail(w, "load plan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// DeletePlan handles the DELETE /plans/{id} request.
func (s *Server) DeletePlan(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.Engine.Store().Delete(r.Context(), id); err != nil {
		s.fail(w, "delete plan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplayPlan handles the POST /plans/{id}/replay request.
func (s *Server) ReplayPlan(w http.ResponseWriter, r *http.Request, id string) {
	plan, err := s.Engine.Replay(r.Context(), id)
	if err != nil {
		s.fail(w, "replay plan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// fail maps engine errors to status codes. Unexpected errors are logged.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrPlanNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, file.ErrInvalidID):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrPlanMismatch):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, fmt.Errorf("%s: %w", op, err))
		s.logger.Error(op+" failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// Event topics published on /events.
const (
	TopicPlans = "plans"
)

// StreamManager fans messages out to SSE subscribers by topic.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(topic string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[topic]; !ok {
		sm.subscribers[topic] = make(map[chan<- string]struct{})
	}
	sm.subscribers[topic][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[topic]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, topic)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(topic string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[topic] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message", "topic", topic)
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE).
// It emits "reload" when the experiment source changes and "plan" for every
// plan created through this server. The stream ends when the client leaves
// or the source watcher closes.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	reloads, err := s.Engine.Watch(r.Context())
	if err != nil && !errors.Is(err, trialset.ErrWatchUnsupported) {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("watch: %w", err))
		return
	}

	plans, cancel := s.Streams.Subscribe(TopicPlans)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case _, ok := <-reloads:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: experiment changed\n\n")
			flusher.Flush()
		case msg, ok := <-plans:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: plan\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
