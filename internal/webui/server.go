package webui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ca-srg/researchpanel/internal/logging"
	"github.com/ca-srg/researchpanel/internal/panel"
	"github.com/ca-srg/researchpanel/internal/research"
	"github.com/ca-srg/researchpanel/internal/types"
)

const (
	defaultPageTitle  = "Company Research"
	sessionCookieName = "researchpanel_session"
)

// ServerConfig holds the web UI server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// ResearchEndpointURL is the origin /api/research is forwarded to
	ResearchEndpointURL string
	SessionIdleTimeout  time.Duration
	MaxSessions         int
	SweepInterval       time.Duration
	DiscardSuperseded   bool
	Title               string
}

// DefaultServerConfig returns the default server configuration.
// WriteTimeout is zero: SSE streams and searches have no deadline.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:                "localhost",
		Port:                8081,
		ReadTimeout:         30 * time.Second,
		WriteTimeout:        0,
		IdleTimeout:         120 * time.Second,
		ShutdownTimeout:     30 * time.Second,
		ResearchEndpointURL: "http://localhost:8000",
		SessionIdleTimeout:  defaultSessionIdleTimeout,
		MaxSessions:         defaultMaxSessions,
		SweepInterval:       defaultSweepInterval,
		Title:               defaultPageTitle,
	}
}

// ServerConfigFromApp builds the server configuration from the root configuration
func ServerConfigFromApp(cfg *types.Config) *ServerConfig {
	serverConfig := DefaultServerConfig()
	if cfg == nil {
		return serverConfig
	}

	serverConfig.Host = cfg.WebUIHost
	serverConfig.Port = cfg.WebUIPort
	serverConfig.ResearchEndpointURL = cfg.ResearchEndpointURL
	serverConfig.SessionIdleTimeout = cfg.WebUISessionIdleTimeout
	serverConfig.MaxSessions = cfg.WebUIMaxSessions
	serverConfig.DiscardSuperseded = cfg.WebUIDiscardSuperseded
	return serverConfig
}

// Server represents the web UI server
type Server struct {
	config       *ServerConfig
	httpServer   *http.Server
	templates    *TemplateManager
	sessions     *SessionRegistry
	sseManager   *SSEManager
	sweeper      *Sweeper
	searcher     panel.Searcher
	proxy        *httputil.ReverseProxy
	endpoint     *url.URL
	logger       *slog.Logger
	startOnce    sync.Once
	shutdownOnce sync.Once
}

// NewServer creates a new web UI server. Every browser session gets its own
// panel backed by searcher.
func NewServer(serverConfig *ServerConfig, searcher panel.Searcher, logger *slog.Logger) (*Server, error) {
	if serverConfig == nil {
		serverConfig = DefaultServerConfig()
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	logger = logging.OrDiscard(logger).With("component", "webui")
	if serverConfig.Title == "" {
		serverConfig.Title = defaultPageTitle
	}

	endpoint, err := url.Parse(strings.TrimRight(serverConfig.ResearchEndpointURL, "/"))
	if err != nil || endpoint.Host == "" || (endpoint.Scheme != "http" && endpoint.Scheme != "https") {
		return nil, fmt.Errorf("invalid research endpoint URL %q", serverConfig.ResearchEndpointURL)
	}

	templates, err := NewTemplateManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize templates: %w", err)
	}

	maxClients := serverConfig.MaxSessions * 4
	if maxClients <= 0 {
		maxClients = defaultMaxSessions
	}
	sseManager := NewSSEManager(&SSEConfig{
		HeartbeatInterval: 30 * time.Second,
		BufferSize:        100,
		MaxClients:        maxClients,
	}, logger)

	s := &Server{
		config:     serverConfig,
		templates:  templates,
		sseManager: sseManager,
		searcher:   searcher,
		endpoint:   endpoint,
		logger:     logger,
	}

	s.sessions = NewSessionRegistry(serverConfig.SessionIdleTimeout, serverConfig.MaxSessions, s.newPanel, logger)
	s.sessions.OnEvict(sseManager.DisconnectSession)
	s.sweeper = NewSweeper(s.sessions.Sweep, serverConfig.SweepInterval, logger)
	s.proxy = s.newResearchProxy()

	return s, nil
}

// newPanel builds the panel of one session. State changes are pushed to the
// browsers of that session.
func (s *Server) newPanel(sessionID string) *panel.Panel {
	opts := []panel.Option{
		panel.WithLogger(s.logger.With("session", sessionID)),
		panel.WithObserver(func(snap panel.Snapshot) {
			s.sseManager.SendEvent(&SSEEvent{
				Event:   EventTypePanelState,
				Session: sessionID,
				Data:    PanelEvent{Seq: snap.Seq, View: panel.Render(snap)},
			})
		}),
	}
	if s.config.DiscardSuperseded {
		opts = append(opts, panel.WithDiscardSuperseded())
	}
	return panel.New(s.searcher, opts...)
}

func (s *Server) newResearchProxy() *httputil.ReverseProxy {
	target := s.endpoint
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Header.Del("Cookie")
		},
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Error("research proxy request failed",
				"kind", string(research.KindTransport),
				"error", err)
			s.writeJSONStatus(w, http.StatusBadGateway, &APIErrorResponse{Error: "search endpoint unavailable"})
		},
	}
}

// Start launches the SSE manager and the idle session sweeper
func (s *Server) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.sseManager.Start(ctx)
		s.sweeper.Start(ctx)
	})
}

// Run starts the server and blocks until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.Start(ctx)
	defer s.sseManager.Stop()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting web UI server", "url", fmt.Sprintf("http://%s:%d", s.config.Host, s.config.Port))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return err
	}
}

func (s *Server) shutdown() error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info("shutting down server")

		s.sweeper.Stop()
		// SSE streams never end on their own; close them first.
		s.sseManager.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
	})
	return shutdownErr
}

// Handler returns the instrumented HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.loggingMiddleware(s.setupRoutes()), "researchpanel.webui")
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.logger.Warn("failed to setup static files", "error", err)
	} else {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	// Pages
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/search", s.handleSearch)

	// HTMX partials
	mux.HandleFunc("/partials/results", s.handlePartialResults)

	// SSE endpoints
	mux.HandleFunc("/sse/panel", s.handleSSEPanel)

	// API endpoints
	mux.HandleFunc(research.Path, s.handleAPIResearch)
	mux.HandleFunc("/healthz", s.handleHealthz)

	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Static files and SSE are too noisy
		if strings.HasPrefix(r.URL.Path, "/static/") || strings.HasPrefix(r.URL.Path, "/sse/") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start))
	})
}

// Sessions returns the session registry
func (s *Server) Sessions() *SessionRegistry {
	return s.sessions
}

// SSE returns the SSE manager
func (s *Server) SSE() *SSEManager {
	return s.sseManager
}
