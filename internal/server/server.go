package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/mhenke/inboxtriage/internal/google"
	"github.com/mhenke/inboxtriage/internal/instrumentation"
	"github.com/mhenke/inboxtriage/internal/logging"
	"github.com/mhenke/inboxtriage/internal/triage"
)

const (
	// DefaultAPIAddr is the default address for the API server.
	DefaultAPIAddr = ":8080"

	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 120 * time.Second

	// defaultWriteTimeout covers a whole processing batch, which may include
	// classification retries against the primary backend.
	defaultWriteTimeout = 5 * time.Minute
)

// oauthState is the static state parameter for the consent round trip. The
// token never leaves HTTP-only cookies, so CSRF on the callback cannot leak
// credentials to the frontend.
const oauthState = "state"

// InboxProcessor runs the triage pipeline for one authenticated user.
// Satisfied by *triage.Processor.
type InboxProcessor interface {
	ProcessInbox(ctx context.Context) ([]triage.Result, string, error)
	ProcessMessage(ctx context.Context, messageID string) ([]triage.Result, string, error)
}

// ProcessorFactory builds a processor bound to the given access token. The
// API server creates one processor per request since every request may carry
// a different user's token.
type ProcessorFactory func(ctx context.Context, accessToken string) (InboxProcessor, error)

// APIServerConfig holds configuration for the API server.
type APIServerConfig struct {
	// Addr is the address to bind the API server to (e.g., ":8080").
	Addr string

	// OAuth is the Google OAuth2 client configuration.
	OAuth *oauth2.Config

	// Factory builds per-request processors.
	Factory ProcessorFactory

	// AllowedOrigin is the CORS origin for the browser frontend.
	// Empty disables CORS headers.
	AllowedOrigin string

	// Logger for request logging. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records HTTP and OAuth metrics. May be nil.
	Metrics *instrumentation.Metrics
}

// APIServer serves the triage HTTP JSON API.
type APIServer struct {
	config     APIServerConfig
	logger     *slog.Logger
	health     *HealthChecker
	httpServer *http.Server
}

// NewAPIServer creates a new API server.
func NewAPIServer(config APIServerConfig) (*APIServer, error) {
	if config.OAuth == nil {
		return nil, fmt.Errorf("OAuth configuration is required")
	}
	if config.Factory == nil {
		return nil, fmt.Errorf("processor factory is required")
	}
	if config.Addr == "" {
		config.Addr = DefaultAPIAddr
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &APIServer{
		config: config,
		logger: logging.WithService(logger, "api"),
		health: NewHealthChecker(),
	}, nil
}

// Handler returns the fully routed HTTP handler for the API server.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/api/auth/url", s.instrumented("/api/auth/url", s.handleAuthURL))
	mux.Handle("/api/auth/callback", s.instrumented("/api/auth/callback", s.handleAuthCallback))
	mux.Handle("/api/auth/status", s.instrumented("/api/auth/status", s.handleAuthStatus))
	mux.Handle("/api/process", s.instrumented("/api/process", s.handleProcess))

	s.health.RegisterHealthEndpoints(mux)

	return s.corsMiddleware(mux)
}

// Start starts the API server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *APIServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	s.logger.Info("starting API server", slog.String("addr", s.config.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the API server, failing readiness probes
// first so traffic drains.
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.health.SetShuttingDown()
	s.health.SetReady(false)

	if s.httpServer != nil {
		s.logger.Info("shutting down API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Health returns the server's health checker.
func (s *APIServer) Health() *HealthChecker {
	return s.health
}

// handleAuthURL returns the Google consent page URL.
func (s *APIServer) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"authUrl": google.AuthURL(s.config.OAuth, oauthState),
	})
}

// handleAuthCallback exchanges the authorization code and stores the token
// pair as HTTP-only cookies.
func (s *APIServer) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		s.writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := google.Exchange(r.Context(), s.config.OAuth, code)
	if err != nil {
		s.logger.Error("authorization code exchange failed", logging.Err(err))
		if s.config.Metrics != nil {
			s.config.Metrics.RecordOAuthExchange(r.Context(), instrumentation.OAuthResultFailure)
		}
		s.writeError(w, http.StatusBadRequest, "failed to exchange authorization code")
		return
	}

	if s.config.Metrics != nil {
		s.config.Metrics.RecordOAuthExchange(r.Context(), instrumentation.OAuthResultSuccess)
	}

	setAuthCookies(w, r, token)
	s.writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

// handleAuthStatus reports whether the browser session carries an access token.
func (s *APIServer) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	authenticated := accessTokenFromCookie(r) != ""
	s.writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
}

// processRequest is the body of POST /api/process. Both fields are optional;
// the access token falls back to the session cookie.
type processRequest struct {
	AccessToken string `json:"accessToken,omitempty"`
	EmailID     string `json:"emailId,omitempty"`
}

// processResponse is the body of a successful POST /api/process.
type processResponse struct {
	Results   []triage.Result `json:"results"`
	UserEmail string          `json:"userEmail"`
}

// handleProcess runs one triage batch, or a single message when emailId is set.
func (s *APIServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req processRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	accessToken := req.AccessToken
	if accessToken == "" {
		accessToken = accessTokenFromCookie(r)
	}
	if accessToken == "" {
		s.writeError(w, http.StatusBadRequest, "missing access token")
		return
	}

	s.logger.Debug("processing request",
		slog.String("token", logging.SanitizeToken(accessToken)),
		slog.String("email_id", req.EmailID))

	processor, err := s.config.Factory(r.Context(), accessToken)
	if err != nil {
		s.logger.Error("failed to create processor", logging.Err(err))
		s.writeError(w, http.StatusInternalServerError, "failed to initialize mail client")
		return
	}

	var results []triage.Result
	var userEmail string
	if req.EmailID != "" {
		results, userEmail, err = processor.ProcessMessage(r.Context(), req.EmailID)
	} else {
		results, userEmail, err = processor.ProcessInbox(r.Context())
	}

	if err != nil {
		if errors.Is(err, triage.ErrMessageNotFound) {
			s.writeError(w, http.StatusNotFound, "message not found")
			return
		}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden) {
			s.writeError(w, http.StatusUnauthorized, "invalid or expired access token")
			return
		}
		s.logger.Error("processing failed", logging.Err(err))
		s.writeError(w, http.StatusInternalServerError, "failed to process inbox")
		return
	}

	if results == nil {
		results = []triage.Result{}
	}

	s.logger.Info("batch processed",
		slog.Int("messages", len(results)),
		logging.Domain(userEmail))

	s.writeJSON(w, http.StatusOK, processResponse{
		Results:   results,
		UserEmail: userEmail,
	})
}

// corsMiddleware adds CORS headers for the browser frontend and answers
// preflight requests.
func (s *APIServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.AllowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.config.AllowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// instrumented wraps a handler with request logging and HTTP metrics.
func (s *APIServer) instrumented(path string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		duration := time.Since(start)
		s.logger.Info("request handled",
			slog.String("method", r.Method),
			slog.String("path", path),
			slog.Int("status", rec.status),
			slog.Duration("duration", duration))

		if s.config.Metrics != nil {
			s.config.Metrics.RecordHTTPRequest(r.Context(), r.Method, path, rec.status, duration)
		}
	})
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// errorResponse is the JSON shape of all error replies.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to encode response", logging.Err(err))
	}
}

func (s *APIServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
