package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juanroddotdev/LeadForge/internal/archive"
	"github.com/juanroddotdev/LeadForge/internal/config"
	"github.com/juanroddotdev/LeadForge/internal/email"
	"github.com/juanroddotdev/LeadForge/internal/enrich"
	"github.com/juanroddotdev/LeadForge/internal/ingest"
	"github.com/juanroddotdev/LeadForge/internal/lead"
	"github.com/juanroddotdev/LeadForge/internal/telemetry"
)

// Server wires the REST API to the business store and the enrichment
// services. The archiver is optional; when nil, uploads are not persisted to
// blob storage.
type Server struct {
	router   chi.Router
	store    lead.Store
	mappings *ingest.MappingRegistry
	enricher *enrich.Service
	drafter  *email.Service
	archiver *archive.Writer
	idGen    lead.IDGenerator
	cfg      config.Config
	logger   *zap.Logger
}

// NewServer builds the HTTP surface: middleware chain, health and metrics
// endpoints, and the /api routes.
func NewServer(
	cfg config.Config,
	store lead.Store,
	mappings *ingest.MappingRegistry,
	enricher *enrich.Service,
	drafter *email.Service,
	archiver *archive.Writer,
	idGen lead.IDGenerator,
	logger *zap.Logger,
) *Server {
	s := &Server{
		store:    store,
		mappings: mappings,
		enricher: enricher,
		drafter:  drafter,
		archiver: archiver,
		idGen:    idGen,
		cfg:      cfg,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(telemetry.Middleware)
	if cfg.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}
	r.Use(timeoutMiddleware(cfg.RequestTimeout()))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Handle("/metrics", telemetry.Handler())

	r.Route("/api", func(api chi.Router) {
		if cfg.Auth.Enabled {
			api.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		api.Get("/test", s.handleTest)
		api.Get("/column_mapping", s.handleColumnMapping)
		api.Post("/upload", s.handleUpload)
		api.Get("/businesses", s.handleListBusinesses)
		api.Get("/businesses/{business_id}/website", s.handleIdentifyWebsite)
		api.Post("/businesses/websites", s.handleIdentifyWebsites)
		api.Post("/generate_email", s.handleGenerateEmail)
		api.Post("/clear", s.handleClear)
	})

	s.router = r
	return s
}

// Handler exposes the underlying router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	// The store is the only hard dependency; a failing List means we cannot
	// serve any /api route.
	if _, err := s.store.List(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// mapError translates domain errors into HTTP status codes. Validation
// problems are the caller's fault, missing records are 404, everything else
// is a server error.
func (s *Server) mapError(w http.ResponseWriter, err error) {
	var vErr *lead.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Message)
		return
	}
	var nfErr *lead.NotFoundError
	if errors.As(err, &nfErr) {
		writeError(w, http.StatusNotFound, nfErr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already written; nothing left to do but note it.
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", requestIDFromContext(r.Context())),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic in handler",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
					)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, `{"error":"request timed out"}`)
	}
}

// apiKeyMiddleware guards the /api subtree. The key travels either in the
// X-API-Key header or the api_key query parameter.
func apiKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-Key")
			if got == "" {
				got = r.URL.Query().Get("api_key")
			}
			if got != key {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// responseWriter captures the status code for logging while passing
// streaming interfaces through to the underlying writer.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("response writer does not support hijacking")
}
