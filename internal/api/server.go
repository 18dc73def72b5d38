package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/signalsfoundry/groundview/internal/logging"
	"github.com/signalsfoundry/groundview/internal/observability"
	"github.com/signalsfoundry/groundview/internal/stream"
	"github.com/signalsfoundry/groundview/internal/view"
	"github.com/signalsfoundry/groundview/scene"
	"github.com/signalsfoundry/groundview/web"
)

// Config carries the HTTP listener settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 120 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Server exposes the operator console over HTTP: the rendered dashboard,
// the scene API, the live frame stream and the operational endpoints.
type Server struct {
	config    Config
	store     *scene.Store
	renderer  *view.Renderer
	streamer  *stream.Handler
	collector *observability.ConsoleCollector
	logger    logging.Logger
	httpSrv   *http.Server
	ready     atomic.Bool
}

// NewServer wires the routes and middleware for the console.
func NewServer(config Config, store *scene.Store, streamer *stream.Handler, collector *observability.ConsoleCollector, logger logging.Logger) (*Server, error) {
	config.applyDefaults()
	if logger == nil {
		logger = logging.Noop()
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    config,
		store:     store,
		renderer:  renderer,
		streamer:  streamer,
		collector: collector,
		logger:    logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", s.staticHandler()))

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/scene", s.handleScene).Methods(http.MethodGet)
	apiV1.HandleFunc("/toggles", s.handleToggles).Methods(http.MethodGet)
	apiV1.HandleFunc("/toggles/{id}", s.handleToggleFlip).Methods(http.MethodPost)
	if streamer != nil {
		apiV1.HandleFunc("/stream/frames", streamer.HandleFrames).Methods(http.MethodGet)
	}

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)
	if collector != nil {
		r.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	}

	var handler http.Handler = r
	handler = s.requestLogging(handler)
	if collector != nil {
		handler = collector.Middleware(handler)
	}
	handler = otelhttp.NewHandler(handler, "console")

	s.httpSrv = &http.Server{
		Addr:        config.Addr,
		Handler:     handler,
		ReadTimeout: config.ReadTimeout,
		// WriteTimeout stays unset so the SSE stream can outlive it; the
		// stream handler clears its own write deadline per connection.
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s, nil
}

// HTTPServer returns the underlying server, mainly for tests.
func (s *Server) HTTPServer() *http.Server { return s.httpSrv }

// SetReady flips the readiness probe. Call it once startup has finished.
func (s *Server) SetReady(ready bool) { s.ready.Store(ready) }

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "console listening", logging.String("addr", s.config.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) staticHandler() http.Handler {
	return http.FileServer(http.FS(web.Content))
}

func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, logger := logging.WithRequestLogger(r.Context(), s.logger)
		logger.Debug(ctx, "request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderDashboard(w, snap); err != nil {
		s.logger.Error(r.Context(), "render dashboard", logging.String("error", err.Error()))
	}
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleToggles(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]any{"toggles": s.store.Toggles()})
}

func (s *Server) handleToggleFlip(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	on, err := s.store.FlipToggle(id)
	if err != nil {
		s.writeJSON(w, r, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if s.collector != nil {
		s.collector.ObserveToggleFlip(id)
	}
	s.logger.Info(r.Context(), "toggle flipped",
		logging.String("toggle", id),
		logging.Any("on", on),
	)
	s.writeJSON(w, r, http.StatusOK, map[string]any{"id": id, "on": on})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		s.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(r.Context(), "encode response", logging.String("error", err.Error()))
	}
}
