package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmax-ai/blockgen/pkg/diagram"
	"github.com/rmax-ai/blockgen/pkg/engine"
)

const maxRequestBody = 64 << 10

// DiagramGenerator produces a diagram from a product description.
type DiagramGenerator interface {
	Generate(ctx context.Context, description string) (diagram.Diagram, error)
}

// Server encapsulates the HTTP API server
type Server struct {
	generator DiagramGenerator
	server    *http.Server
	logger    *slog.Logger
	staticFS  fs.FS
	version   string

	// TLS Config
	tlsCertFile string
	tlsKeyFile  string
}

// NewServer creates a new API server instance
func NewServer(generator DiagramGenerator, addr string) *Server {
	s := &Server{
		generator: generator,
		logger:    slog.Default(),
	}

	mux := http.NewServeMux()

	// Register routes
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/template", s.handleTemplate)
	mux.HandleFunc("/v1/generate-diagram", s.handleGenerate)
	mux.HandleFunc("/generate-diagram", s.handleGenerate)

	// Static file handler (catch-all for SPA)
	mux.Handle("/", s.handleStatic())

	// Middleware: Logging, Panic Recovery, Security Headers, CORS
	handler := s.withLogging(s.withRecovery(withSecureHeaders(withCORS(mux))))

	// Use default port if addr is empty
	if addr == "" {
		addr = "127.0.0.1:8090"
	}

	s.server = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Model calls dominate request time.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// SetStaticFS sets the filesystem for serving static web assets
func (s *Server) SetStaticFS(fs fs.FS) {
	s.staticFS = fs
}

// SetTLS configures the server to use TLS
func (s *Server) SetTLS(certFile, keyFile string) {
	s.tlsCertFile = certFile
	s.tlsKeyFile = keyFile
}

// SetVersion sets the version reported by /v1/health
func (s *Server) SetVersion(v string) {
	s.version = v
}

// SetLogger replaces the default logger
func (s *Server) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Start runs the HTTP server (blocking)
func (s *Server) Start() error {
	if s.tlsCertFile != "" && s.tlsKeyFile != "" {
		s.logger.Info("server_starting_tls", "addr", s.server.Addr)
		if err := s.server.ListenAndServeTLS(s.tlsCertFile, s.tlsKeyFile); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	} else {
		s.logger.Info("server_starting", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("server_stopping")
	return s.server.Shutdown(ctx)
}

// handleGenerate turns a description into a diagram.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		writeError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		engine.GenerateTotal.WithLabelValues(engine.OutcomeBadRequest).Inc()
		s.logger.Debug("invalid_request_body", "trace_id", getTraceID(r.Context()), "error", err)
		writeError(w, http.StatusBadRequest, MsgDescriptionRequired)
		return
	}

	d, err := s.generator.Generate(r.Context(), req.Description)
	if err != nil {
		status, msg := errorStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("generation_failed", "trace_id", getTraceID(r.Context()), "error", err)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{Diagram: d})
}

// errorStatus maps generator errors to the status and message sent to callers.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrEmptyDescription):
		return http.StatusBadRequest, MsgDescriptionRequired
	case errors.Is(err, engine.ErrRateLimited):
		return http.StatusTooManyRequests, MsgRateLimited
	case errors.Is(err, engine.ErrQuotaExhausted):
		return http.StatusPaymentRequired, MsgQuotaExhausted
	case errors.Is(err, engine.ErrInvalidOutput):
		return http.StatusInternalServerError, MsgInvalidDiagram
	case errors.Is(err, engine.ErrNotConfigured):
		return http.StatusInternalServerError, MsgNotConfigured
	default:
		return http.StatusInternalServerError, MsgGenerationFailed
	}
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponse{Diagram: diagram.DefaultTemplate()})
}

// handleHealth returns simple status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}

// handleStatic serves static web assets with SPA fallback
func (s *Server) handleStatic() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.staticFS == nil {
			http.NotFound(w, r)
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/")

		// Skip API routes
		if strings.HasPrefix(path, "v1/") {
			http.NotFound(w, r)
			return
		}

		// Try to serve the file directly
		if path != "" {
			if file, err := s.staticFS.Open(path); err == nil {
				defer file.Close()
				if stat, err := file.Stat(); err == nil && !stat.IsDir() {
					// Set content type based on extension
					switch {
					case strings.HasSuffix(path, ".css"):
						w.Header().Set("Content-Type", "text/css")
					case strings.HasSuffix(path, ".js"):
						w.Header().Set("Content-Type", "application/javascript")
					case strings.HasSuffix(path, ".html"):
						w.Header().Set("Content-Type", "text/html")
					}
					io.Copy(w, file)
					return
				}
			}
		}

		// Fallback to index.html for SPA routing
		if indexFile, err := s.staticFS.Open("index.html"); err == nil {
			defer indexFile.Close()
			w.Header().Set("Content-Type", "text/html")
			io.Copy(w, indexFile)
			return
		}

		// If index.html not found, 404
		http.NotFound(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
