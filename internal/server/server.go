package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/forgeline/artifact-gateway/internal/middleware"
	"github.com/forgeline/artifact-gateway/internal/routing"
	"github.com/forgeline/artifact-gateway/internal/security"
	"github.com/forgeline/artifact-gateway/internal/store"
	"github.com/forgeline/artifact-gateway/internal/types"

	reg "github.com/forgeline/artifact-gateway/internal/registry"
)

// Server is the HTTP front door of the gateway.
type Server struct {
	router     *routing.Router
	registry   *reg.Registry
	store      *store.Store // nil when persistence is disabled
	httpServer *http.Server
	logger     *logrus.Logger
	config     *Config

	auth        *security.Authenticator
	rateLimiter *security.RateLimiter
	validation  *middleware.ValidationMiddleware
}

// Config holds server configuration.
type Config struct {
	Port           string        `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`

	Auth       *security.Config             `yaml:"auth"`
	RateLimit  *security.RateLimitConfig    `yaml:"rate_limit"`
	Validation *middleware.ValidationConfig `yaml:"validation"`
}

// NewServer wires the router, registry and optional store behind HTTP.
func NewServer(router *routing.Router, registry *reg.Registry, st *store.Store, config *Config, logger *logrus.Logger) (*Server, error) {
	s := &Server{
		router:   router,
		registry: registry,
		store:    st,
		logger:   logger,
		config:   config,
	}

	if config.Auth != nil {
		s.auth = security.NewAuthenticator(config.Auth, logger)
	}
	if config.RateLimit != nil {
		s.rateLimiter = security.NewRateLimiter(config.RateLimit, logger)
	}

	validation, err := middleware.NewValidationMiddleware(config.Validation, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize validation middleware: %w", err)
	}
	s.validation = validation

	return s, nil
}

// Start starts the HTTP server. Blocks until the listener fails or is shut
// down.
func (s *Server) Start() error {
	r := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           ":" + s.config.Port,
		Handler:        r,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	s.logger.WithField("port", s.config.Port).Info("Starting artifact gateway server")
	return s.httpServer.ListenAndServe()
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping artifact gateway server")

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	return s.httpServer.Shutdown(ctx)
}

// Handler returns the configured route tree, exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	if s.auth != nil {
		r.Use(s.auth.Middleware())
	}
	if s.rateLimiter != nil {
		r.Use(s.rateLimiter.Middleware())
	}
	r.Use(s.validation.Middleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.contentTypeMiddleware)

	api := r.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/generate/{kind}", s.handleGenerate).Methods("POST")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")

	if s.store != nil {
		api.HandleFunc("/projects", s.handleCreateProject).Methods("POST")
		api.HandleFunc("/projects/{id}", s.handleGetProject).Methods("GET")
	}

	r.HandleFunc("/health", s.handleHealthCheck).Methods("GET")
	s.setupDocsRoutes(r)

	return r
}

// Middleware

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(wrapped, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) contentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			contentType := r.Header.Get("Content-Type")
			if contentType != "application/json" && contentType != "" {
				s.writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handlers

// handleGenerate routes a generation request and returns the result envelope.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	kind := types.RequestKind(mux.Vars(r)["kind"])

	var req types.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	// Input validation happens before the router is ever invoked.
	if req.Subject == "" && req.Description == "" {
		s.writeError(w, http.StatusBadRequest, "missing_field", "A subject or description is required")
		return
	}

	if req.ID == "" {
		req.ID = fmt.Sprintf("gen-%d", time.Now().UnixNano())
	}
	req.Timestamp = time.Now()

	result, err := s.router.Route(r.Context(), kind, &req)
	if err != nil {
		s.writeRoutingError(w, err)
		return
	}

	s.persistArtifact(&req, kind, result)

	response := map[string]interface{}{
		"success": true,
		"data":    result,
		"metadata": map[string]interface{}{
			"responseTime": result.ResponseTimeMs,
			"provider":     result.Provider,
			"model":        result.Model,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
			"fallback":     result.FallbackUsed,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// persistArtifact saves a successful result against its project record, when
// both a store and a project ID are present. Persistence failures are logged
// but never fail the request that already produced content.
func (s *Server) persistArtifact(req *types.GenerateRequest, kind types.RequestKind, result *types.RouteResult) {
	if s.store == nil || req.ProjectID == "" {
		return
	}

	projectID, err := strconv.ParseUint(req.ProjectID, 10, 32)
	if err != nil {
		s.logger.WithField("project_id", req.ProjectID).Warn("Invalid project ID, artifact not persisted")
		return
	}

	if _, err := s.store.SaveArtifact(uint(projectID), kind, result); err != nil {
		s.logger.WithError(err).WithField("project_id", projectID).Error("Failed to persist artifact")
	}
}

// handleStatus returns the registry snapshot plus the aggregate request count.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := types.GatewayStatus{
		Providers:     s.registry.Snapshot(),
		TotalRequests: s.registry.TotalRequests(),
		Timestamp:     time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// handleHealthCheck reports overall gateway health from the registry.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	snapshot := s.registry.Snapshot()

	overallHealthy := true
	for _, st := range snapshot {
		if !st.Healthy {
			overallHealthy = false
			break
		}
	}

	state := "healthy"
	statusCode := http.StatusOK
	if !overallHealthy {
		state = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    state,
		"providers": snapshot,
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// handleCreateProject inserts a project record.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", fmt.Sprintf("Invalid JSON: %v", err))
		return
	}
	if body.Name == "" {
		s.writeError(w, http.StatusBadRequest, "missing_field", "Project name is required")
		return
	}

	project, err := s.store.CreateProject(body.Name, body.Description)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(project)
}

// handleGetProject loads a project with its artifacts.
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_id", "Project ID must be numeric")
		return
	}

	project, err := s.store.GetProject(uint(id))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("Project %d not found", id))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(project)
}

// Helpers

// writeRoutingError maps router failures onto HTTP statuses: unknown kinds
// are client errors, exhausted fallback chains are upstream failures.
func (s *Server) writeRoutingError(w http.ResponseWriter, err error) {
	var allFailed *routing.AllProvidersFailedError
	switch {
	case errors.Is(err, routing.ErrUnknownRequestKind):
		s.writeError(w, http.StatusBadRequest, "unknown_request_kind", err.Error())
	case errors.As(err, &allFailed):
		s.writeError(w, http.StatusBadGateway, "all_providers_failed", allFailed.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "routing_error", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]interface{}{
		"error":   errCode,
		"message": message,
		"code":    statusCode,
	}
	json.NewEncoder(w).Encode(response)
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
