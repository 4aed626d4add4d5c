// Package api - Thin HTTP layer over the query engine and account service.
// The API is ONLY responsible for: request parsing, session handling, output serialization.
// The API NEVER filters or sorts data itself.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"go.uber.org/zap"

	"cloudkeeper/core/account"
	"cloudkeeper/core/query"
	"cloudkeeper/core/types"
	"cloudkeeper/internal/errors"
)

// Config holds HTTP server configuration
type Config struct {
	// Address to listen on
	Address string `json:"address"`

	// ReadTimeout for requests
	ReadTimeout time.Duration `json:"read_timeout"`

	// WriteTimeout for responses
	WriteTimeout time.Duration `json:"write_timeout"`

	// MaxBodySize limits request body size
	MaxBodySize int64 `json:"max_body_size"`

	// EnableCORS enables CORS headers
	EnableCORS bool `json:"enable_cors"`

	// AllowedOrigins for CORS
	AllowedOrigins []string `json:"allowed_origins"`

	// EnableMetrics exposes GET /metrics
	EnableMetrics bool `json:"enable_metrics"`

	// CookieName is the session cookie
	CookieName string `json:"cookie_name"`

	// CookieSecure marks the session cookie Secure
	CookieSecure bool `json:"cookie_secure"`

	// SessionTTL is how long a session lives after it starts
	SessionTTL time.Duration `json:"session_ttl"`

	// DefaultLimit applies when a query names no limit
	DefaultLimit string `json:"default_limit"`

	// DefaultSortBy applies when a query names no sort field
	DefaultSortBy string `json:"default_sort_by"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Address:        ":5002",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxBodySize:    1 << 20, // 1MB
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		EnableMetrics:  true,
		CookieName:     "cloudkeeper_session",
		SessionTTL:     24 * time.Hour,
		DefaultLimit:   query.DefaultLimit,
		DefaultSortBy:  string(types.DefaultSortField),
	}
}

// Server is the API server
type Server struct {
	config   *Config
	engine   *query.Engine
	accounts *account.Service
	log      *zap.Logger
	version  string
	server   *http.Server

	sessions     *scs.SessionManager
	sessionStore *memstore.MemStore

	routerOnce sync.Once
	router     http.Handler

	// Metrics
	mu             sync.Mutex
	requestCount   int64
	errorCount     int64
	queryCount     int64
	totalLatencyMs int64
}

// NewServer creates a new API server
func NewServer(config *Config, engine *query.Engine, accounts *account.Service, log *zap.Logger, version string) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		config:       config,
		engine:       engine,
		accounts:     accounts,
		log:          log,
		version:      version,
		sessionStore: memstore.New(),
	}
	s.sessions = s.newSessionManager(s.sessionStore)
	return s
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	s.routerOnce.Do(func() { s.router = s.buildRouter() })
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /version", s.handleVersion)

	// Accounts
	mux.HandleFunc("POST /api/v1/signup", s.handleSignup)
	mux.HandleFunc("POST /api/v1/verify", s.handleVerify)
	mux.HandleFunc("POST /api/v1/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/logout", s.handleLogout)

	// Pricing data, login required
	mux.Handle("GET /api/v1/instances", s.requireUser(http.HandlerFunc(s.handleInstances)))
	mux.Handle("GET /api/v1/regions", s.requireUser(http.HandlerFunc(s.handleRegions)))

	// Metrics
	if s.config.EnableMetrics {
		mux.HandleFunc("GET /metrics", s.handleMetrics)
	}

	// Apply middleware
	handler := s.sessions.LoadAndSave(mux)
	handler = s.corsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)

	return handler
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router().ServeHTTP(w, r)
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.server = s.httpServer()
	return s.listen(s.server)
}

func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Addr:         s.config.Address,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
}

func (s *Server) listen(srv *http.Server) error {
	s.log.Info("listening", zap.String("address", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	defer s.sessionStore.StopCleanup()

	s.server = s.httpServer()
	errCh := make(chan error, 1)
	go func() { errCh <- s.listen(s.server) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		if err := s.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}

// Helpers

// writeJSON encodes v before writing the status, so an unencodable value
// becomes a 500 rather than an empty 200.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
		status = http.StatusInternalServerError
		data = []byte(`{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeErr maps a domain error to its status and error code
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	message := err.Error()
	var e *errors.Error
	if errors.As(err, &e) {
		message = e.Message
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
		if status == http.StatusInternalServerError {
			message = "internal server error"
		}
	}
	s.writeError(w, status, string(errors.TypeOf(err)), message)
}
