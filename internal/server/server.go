package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/formfieldlabs/formfield/internal/analysis"
	"github.com/formfieldlabs/formfield/internal/api"
	"github.com/formfieldlabs/formfield/internal/config"
	"github.com/formfieldlabs/formfield/internal/documents"
	"github.com/formfieldlabs/formfield/internal/home"
	"github.com/formfieldlabs/formfield/internal/server/endpoints"
	"github.com/formfieldlabs/formfield/internal/store"
	"github.com/formfieldlabs/formfield/internal/svcctx"
	"github.com/formfieldlabs/formfield/internal/types"
)

// Server is the formfield HTTP server. It owns the analysis job
// registry, the open-document set, and the durable result store, and
// keeps jobs running independent of any client connection.
type Server struct {
	httpServer *http.Server
	configMgr  *config.Manager
	homeDir    *home.Dir
	logger     *slog.Logger

	// analyzer is the upstream analysis client; swapped on config
	// reload, so dispatches go through currentAnalyzer.
	analyzerMu sync.RWMutex
	analyzer   *analysis.HTTPAnalyzer

	registry *analysis.Registry
	docs     *documents.Manager
	results  *store.SQLite

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8585)
	Port string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Home is the formfield home directory
	Home *home.Dir
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8585"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}
	if cfg.Home == nil {
		h, err := home.New("")
		if err != nil {
			return nil, err
		}
		cfg.Home = h
	}

	appCfg := cfg.ConfigManager.Get()
	analyzer, err := analysis.NewHTTPAnalyzer(config.ResolveEnvVars(appCfg.Analyzer.BaseURL), cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer client: %w", err)
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		homeDir:   cfg.Home,
		logger:    cfg.Logger,
		analyzer:  analyzer,
		docs: documents.NewManager(documents.ManagerConfig{
			Logger:      cfg.Logger,
			PointSpace:  appCfg.Analyzer.PointSpace,
			RenderScale: appCfg.Detection.RenderScale,
		}),
	}

	// Swap the analyzer client when the config file changes.
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		next, err := analysis.NewHTTPAnalyzer(config.ResolveEnvVars(c.Analyzer.BaseURL), cfg.Logger)
		if err != nil {
			cfg.Logger.Error("failed to rebuild analyzer client", "error", err)
			return
		}
		s.analyzerMu.Lock()
		s.analyzer = next
		s.analyzerMu.Unlock()
		cfg.Logger.Info("analyzer client reloaded from config", "base_url", c.Analyzer.BaseURL)
	})

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{Analyzer: liveAnalyzer{s}}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     s.withServices(mux),
		ReadTimeout: 30 * time.Second,
		// No write timeout: analysis submissions block on the upstream
		// service and must not be cut off by the transport.
		IdleTimeout: 120 * time.Second,
	}

	return s, nil
}

// Start starts the server. It blocks until the context is cancelled or
// an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.homeDir.EnsureExists(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to prepare home directory: %w", err)
	}

	// Open the durable result store.
	appCfg := s.configMgr.Get()
	dbPath := appCfg.Store.Path
	if dbPath == "" {
		dbPath = s.homeDir.ResultsDBPath()
	}
	results, err := store.Open(dbPath, s.logger)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to open result store: %w", err)
	}
	s.results = results

	// Wait for the analyzer so misconfiguration fails fast instead of
	// surfacing as failed jobs later.
	s.logger.Info("waiting for analysis service", "base_url", appCfg.Analyzer.BaseURL)
	if err := s.waitForAnalyzer(ctx, appCfg.Analyzer.HealthTimeout); err != nil {
		_ = s.shutdown()
		return fmt.Errorf("analysis service not reachable: %w", err)
	}

	// The job registry dispatches through whatever analyzer client is
	// current at call time.
	s.registry = analysis.NewRegistry(analysis.RegistryConfig{
		Dispatcher: analysis.DispatcherFunc(func(ctx context.Context, req analysis.Request) ([]types.RawField, error) {
			return s.currentAnalyzer().Analyze(ctx, req)
		}),
		Store:  s.results,
		Logger: s.logger,
	})

	// Map every successful settlement onto the document's field overlay.
	s.registry.AddListener(func(fingerprint string, res analysis.Result) {
		if res.Success {
			s.docs.ApplyResult(fingerprint, res.Fields)
		}
	})

	s.services = &svcctx.Services{
		Config:    s.configMgr,
		Registry:  s.registry,
		Store:     s.results,
		Documents: s.docs,
		Logger:    s.logger,
		Home:      s.homeDir,
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// waitForAnalyzer polls the analyzer health endpoint until it responds
// or the timeout elapses.
func (s *Server) waitForAnalyzer(ctx context.Context, timeoutSeconds int) error {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	return retry.Do(
		func() error { return s.currentAnalyzer().Health(waitCtx) },
		retry.Context(waitCtx),
		retry.Attempts(0), // bounded by waitCtx
		retry.Delay(time.Second),
		retry.DelayType(retry.FixedDelay),
	)
}

// shutdown performs graceful shutdown of the HTTP server and closes the
// result store. In-memory job state is lost; settled results survive in
// the store.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.results != nil {
		if err := s.results.Close(); err != nil {
			s.logger.Error("result store close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Registry returns the analysis job registry.
// Returns nil if the server hasn't started yet.
func (s *Server) Registry() *analysis.Registry {
	return s.registry
}

// Documents returns the open-document manager.
func (s *Server) Documents() *documents.Manager {
	return s.docs
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) currentAnalyzer() *analysis.HTTPAnalyzer {
	s.analyzerMu.RLock()
	defer s.analyzerMu.RUnlock()
	return s.analyzer
}

// liveAnalyzer defers to whichever analyzer client is current, so
// readiness checks survive config reloads.
type liveAnalyzer struct {
	s *Server
}

func (a liveAnalyzer) Health(ctx context.Context) error {
	return a.s.currentAnalyzer().Health(ctx)
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the registry and store are ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.services == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
