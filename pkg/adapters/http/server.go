package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/presentation/graph"
	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/products"
	"github.com/aretw0/funnel/pkg/runner"
	"github.com/aretw0/funnel/pkg/session"
)

// OwnerHeader scopes snapshots to a user. Requests without it share the
// anonymous slot.
const OwnerHeader = "X-Funnel-Owner"

// Provider builds the funnel of a product for one owner.
type Provider func(product, owner string) (*funnel.Funnel, error)

// live is a journey served over HTTP.
type live struct {
	*funnel.Journey
	product string
	owner   string
	unwatch func()
}

// Server exposes journeys over a JSON API.
type Server struct {
	provide  Provider
	journeys *session.Manager[*live]
	streams  *StreamManager
	metrics  http.Handler
	logger   *slog.Logger

	mu      sync.Mutex
	funnels map[string]*funnel.Funnel
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a Server. Funnels are built lazily through provide and
// cached per product and owner.
func NewServer(provide Provider, opts ...Option) *Server {
	s := &Server{
		provide: provide,
		streams: NewStreamManager(),
		logger:  logging.NewNop(),
		funnels: make(map[string]*funnel.Funnel),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams.logger = s.logger
	s.journeys = session.NewManager[*live](session.WithLogger(s.logger))
	return s
}

// NewHandler wires the routes.
func NewHandler(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.ListProducts)
		r.Get("/{product}/graph", s.GetGraph)
		r.Get("/{product}/resume-card", s.GetResumeCard)
		r.Delete("/{product}/snapshot", s.DiscardSnapshot)
	})

	r.Route("/journeys", func(r chi.Router) {
		r.Post("/", s.StartJourney)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetJourney)
			r.Delete("/", s.CloseJourney)
			r.Post("/respond", s.Respond)
			r.Post("/restart", s.Restart)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/edits", s.RequestEdit)
			r.Delete("/edits", s.CancelEdit)
			r.Post("/edits/confirm", s.ConfirmEdit)
			r.Post("/edits/submit", s.SubmitEdit)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+OwnerHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close releases every live journey.
func (s *Server) Close() {
	ctx := context.Background()
	for _, id := range s.journeys.List() {
		if j, err := s.journeys.Get(id); err == nil {
			j.release()
		}
		_ = s.journeys.Delete(ctx, id)
	}
}

func (s *Server) funnel(product, owner string) (*funnel.Funnel, error) {
	key := product + "\x00" + owner
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.funnels[key]; ok {
		return f, nil
	}
	f, err := s.provide(product, owner)
	if err != nil {
		return nil, err
	}
	s.funnels[key] = f
	return f, nil
}

func (l *live) release() {
	l.unwatch()
	l.Close()
}

// JourneyView is the wire shape of a journey.
type JourneyView struct {
	State   *domain.State        `json:"state"`
	Persona domain.Persona       `json:"persona"`
	Prompt  *ports.Prompt        `json:"prompt,omitempty"`
	Edit    *runtime.EditRequest `json:"edit,omitempty"`
}

func view(j *live) JourneyView {
	return JourneyView{
		State:   j.State(),
		Persona: j.Persona(),
		Prompt:  j.Prompt(),
		Edit:    j.PendingEdit(),
	}
}

// StartRequest is the body of POST /journeys.
type StartRequest struct {
	Product   string `json:"product"`
	JourneyID string `json:"journey_id,omitempty"`
	Resume    bool   `json:"resume,omitempty"`
}

// StartJourney handles POST /journeys.
func (s *Server) StartJourney(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if !s.decode(w, r, &body) {
		return
	}
	owner := r.Header.Get(OwnerHeader)
	f, err := s.funnel(body.Product, owner)
	if err != nil {
		s.fail(w, http.StatusNotFound, err)
		return
	}

	var started bool
	var startErr error
	id := body.JourneyID
	if id == "" {
		id = uuid.NewString()
	}
	j, err := s.journeys.LoadOrStart(r.Context(), id, func(ctx context.Context) (*live, error) {
		journey, _, err := f.Start(ctx, funnel.StartOptions{JourneyID: id, Resume: body.Resume})
		if journey == nil {
			return nil, err
		}
		startErr = err
		started = true
		l := &live{Journey: journey, product: body.Product, owner: owner}
		l.unwatch = s.broadcast(journey)
		return l, nil
	})
	if err != nil {
		s.error(w, err)
		return
	}
	if !started && (j.product != body.Product || j.owner != owner) {
		s.fail(w, http.StatusConflict, errors.New("journey id already in use"))
		return
	}
	if startErr != nil {
		s.logger.Warn("journey halted on start", "journey_id", j.ID(), "err", startErr)
	}

	status := http.StatusOK
	if started {
		status = http.StatusCreated
	}
	s.write(w, status, view(j))
}

// GetJourney handles GET /journeys/{id}.
func (s *Server) GetJourney(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.write(w, http.StatusOK, view(j))
}

// CloseJourney handles DELETE /journeys/{id}. The snapshot survives.
func (s *Server) CloseJourney(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookup(w, r)
	if !ok {
		return
	}
	j.release()
	if err := s.journeys.Delete(r.Context(), j.ID()); err != nil {
		s.error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RespondRequest is the body of POST /journeys/{id}/respond. Text is parsed
// with the terminal codec of the active widget; otherwise Response is used as is.
type RespondRequest struct {
	Activation uint64 `json:"activation"`
	Response   any    `json:"response,omitempty"`
	Text       string `json:"text,omitempty"`
}

// Respond handles POST /journeys/{id}/respond.
func (s *Server) Respond(w http.ResponseWriter, r *http.Request) {
	var body RespondRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.turn(w, r, func(ctx context.Context, j *live) error {
		resp, err := s.response(j.Prompt(), body.Response, body.Text)
		if err != nil {
			return err
		}
		_, err = j.Respond(ctx, body.Activation, resp)
		return err
	})
}

// Restart handles POST /journeys/{id}/restart.
func (s *Server) Restart(w http.ResponseWriter, r *http.Request) {
	s.turn(w, r, func(ctx context.Context, j *live) error {
		_, err := j.Restart(ctx)
		return err
	})
}

// EditBody is the body of POST /journeys/{id}/edits.
type EditBody struct {
	MessageID string `json:"message_id"`
}

// RequestEdit handles POST /journeys/{id}/edits.
func (s *Server) RequestEdit(w http.ResponseWriter, r *http.Request) {
	var body EditBody
	if !s.decode(w, r, &body) {
		return
	}
	s.turn(w, r, func(ctx context.Context, j *live) error {
		_, err := j.RequestEdit(ctx, body.MessageID)
		return err
	})
}

// ConfirmEdit handles POST /journeys/{id}/edits/confirm.
func (s *Server) ConfirmEdit(w http.ResponseWriter, r *http.Request) {
	s.turn(w, r, func(ctx context.Context, j *live) error {
		_, err := j.ConfirmEdit(ctx)
		return err
	})
}

// SubmitEdit handles POST /journeys/{id}/edits/submit.
func (s *Server) SubmitEdit(w http.ResponseWriter, r *http.Request) {
	var body RespondRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.turn(w, r, func(ctx context.Context, j *live) error {
		var inline *ports.Prompt
		if pending := j.PendingEdit(); pending != nil && pending.Confirmed {
			inline = pending.Prompt
		}
		resp, err := s.response(inline, body.Response, body.Text)
		if err != nil {
			return err
		}
		_, err = j.SubmitEdit(ctx, resp)
		return err
	})
}

// CancelEdit handles DELETE /journeys/{id}/edits.
func (s *Server) CancelEdit(w http.ResponseWriter, r *http.Request) {
	s.turn(w, r, func(_ context.Context, j *live) error {
		j.CancelEdit()
		return nil
	})
}

// response picks the structured response, or parses text against prompt.
func (s *Server) response(prompt *ports.Prompt, structured any, text string) (any, error) {
	if text == "" {
		return structured, nil
	}
	clean, err := runner.SanitizeInput(text)
	if err != nil {
		return nil, err
	}
	if prompt == nil {
		return clean, nil
	}
	return runner.ParseResponse(*prompt, clean)
}

// turn runs fn under the journey lock and writes the resulting view.
func (s *Server) turn(w http.ResponseWriter, r *http.Request, fn func(context.Context, *live) error) {
	j, ok := s.lookup(w, r)
	if !ok {
		return
	}
	err := s.journeys.WithLock(r.Context(), j.ID(), func(ctx context.Context) error {
		return fn(ctx, j)
	})
	if err != nil {
		s.error(w, err)
		return
	}
	s.write(w, http.StatusOK, view(j))
}

// ListProducts handles GET /products.
func (s *Server) ListProducts(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, map[string][]string{"products": products.Names()})
}

// GetGraph handles GET /products/{product}/graph. With ?journey= the
// journey's path is highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	f, err := s.funnel(chi.URLParam(r, "product"), r.Header.Get(OwnerHeader))
	if err != nil {
		s.fail(w, http.StatusNotFound, err)
		return
	}

	var overlay *graph.Overlay
	if id := r.URL.Query().Get("journey"); id != "" {
		j, err := s.journeys.Get(id)
		if err != nil {
			s.error(w, err)
			return
		}
		overlay = graph.OverlayOf(j.State())
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(f.Registry(), overlay)))
}

// GetResumeCard handles GET /products/{product}/resume-card. It answers 204
// when the owner has nothing to resume.
func (s *Server) GetResumeCard(w http.ResponseWriter, r *http.Request) {
	f, err := s.funnel(chi.URLParam(r, "product"), r.Header.Get(OwnerHeader))
	if err != nil {
		s.fail(w, http.StatusNotFound, err)
		return
	}
	card, ok := f.ResumeCard(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.write(w, http.StatusOK, card)
}

// DiscardSnapshot handles DELETE /products/{product}/snapshot.
func (s *Server) DiscardSnapshot(w http.ResponseWriter, r *http.Request) {
	f, err := s.funnel(chi.URLParam(r, "product"), r.Header.Get(OwnerHeader))
	if err != nil {
		s.fail(w, http.StatusNotFound, err)
		return
	}
	if err := f.Discard(r.Context()); err != nil {
		s.error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, map[string]any{
		"app":      "funnel-http",
		"version":  strings.TrimSpace(funnel.Version),
		"journeys": len(s.journeys.List()),
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*live, bool) {
	j, err := s.journeys.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.error(w, err)
		return nil, false
	}
	return j, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.fail(w, http.StatusBadRequest, errors.New("invalid request body"))
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

// error maps engine errors to status codes.
func (s *Server) error(w http.ResponseWriter, err error) {
	var validation *runner.ValidationError
	switch {
	case errors.As(err, &validation):
		s.fail(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domain.ErrJourneyNotFound):
		s.fail(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrReplayConflict),
		errors.Is(err, domain.ErrStalePrompt),
		errors.Is(err, domain.ErrNoActivePrompt),
		errors.Is(err, domain.ErrNoPendingEdit),
		errors.Is(err, domain.ErrCompleted),
		errors.Is(err, domain.ErrHalted),
		errors.Is(err, domain.ErrStaleTurn):
		s.fail(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrConfiguration):
		s.logger.Error("journey halted", "err", err)
		s.fail(w, http.StatusInternalServerError, err)
	case errors.Is(err, context.Canceled):
		s.fail(w, http.StatusRequestTimeout, err)
	default:
		s.logger.Error("request failed", "err", err)
		s.fail(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.write(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
