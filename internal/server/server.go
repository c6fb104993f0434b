// Package server exposes a storage.Backend over the camplan REST API and the
// write stream used by the websocket backend. It also serves uploaded floor
// plans and the browser client.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sitesurvey/camplan/internal/config"
	"github.com/sitesurvey/camplan/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
	callTimeout     = 30 * time.Second
)

// Options configures a Server.
type Options struct {
	Backend storage.Backend
	Config  config.ServerConfig
	Logger  *slog.Logger
	// Recorder, when set, receives per-request samples (InfluxDB).
	Recorder RequestRecorder
	// Registry collects the Prometheus metrics served on /metrics. A private
	// registry is created when nil.
	Registry *prometheus.Registry
	// ServiceName names the OpenTelemetry server spans.
	ServiceName string
}

// Server is the camplan HTTP server.
type Server struct {
	backend  storage.Backend
	cfg      config.ServerConfig
	log      *slog.Logger
	recorder RequestRecorder
	metrics  *Metrics
	upgrader websocket.Upgrader
	handler  http.Handler

	requests     atomic.Uint64
	streamsOpen  atomic.Int64
	streamWrites atomic.Uint64
	streamErrors atomic.Uint64
}

// Stats is a point-in-time view of the server counters.
type Stats struct {
	Requests     uint64 `json:"requests"`
	OpenStreams  int64  `json:"openStreams"`
	StreamWrites uint64 `json:"streamWrites"`
	StreamErrors uint64 `json:"streamErrors"`
}

// New wires routes and middleware.
func New(opts Options) (*Server, error) {
	if opts.Backend == nil {
		return nil, errors.New("server: backend is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "camplan"
	}

	s := &Server{
		backend:  opts.Backend,
		cfg:      opts.Config,
		log:      opts.Logger,
		recorder: opts.Recorder,
		metrics:  NewMetrics(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	if err := s.metrics.Register(opts.Registry); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /api/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("GET /api/projects/{id}/config", s.handleGetConfig)
	mux.HandleFunc("PUT /api/projects/{id}/config", s.handleUpdateConfig)
	mux.HandleFunc("GET /api/projects/{id}/cameras", s.handleListCameras)
	mux.HandleFunc("POST /api/projects/{id}/cameras", s.handleCreateCamera)
	mux.HandleFunc("PUT /api/cameras/{id}", s.handleUpdateCamera)
	mux.HandleFunc("DELETE /api/cameras/{id}", s.handleDeleteCamera)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/stream", s.handleStream)
	mux.HandleFunc("GET /uploads/{name}", s.handleUploadedFile)
	mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", s.handleStatic)

	var h http.Handler = s.observe(mux)
	h = requireKey(s.cfg.APIKey, h)
	h = cors(h)
	s.handler = otelhttp.NewHandler(h, opts.ServiceName,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return s, nil
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Stats returns the current counters.
func (s *Server) Stats() Stats {
	return Stats{
		Requests:     s.requests.Load(),
		OpenStreams:  s.streamsOpen.Load(),
		StreamWrites: s.streamWrites.Load(),
		StreamErrors: s.streamErrors.Load(),
	}
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("Server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
