package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"go-base64vlq/vlq"
)

type ServeConfig struct {
	Host string
	Port int

	// Number of decoded segments kept in memory
	CacheSize int

	MaxRequestSize  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DecodeResponse struct {
	Segment string `json:"segment"`
	Values  []int  `json:"values"`
}

type MappingsResponse struct {
	Lines [][][]int `json:"lines"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Char   string `json:"char,omitempty"`
	Offset *int   `json:"offset,omitempty"`
}

type server struct {
	cache  *vlq.Cache
	logger *log.Logger
}

func newServeCmd(a *app) *cobra.Command {
	cfg := &ServeConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the decoding HTTP server",
		Example: `  vlq serve --port 8080
  curl localhost:8080/decode/SAAQ
  curl --data-binary 'AAAA,SAAQ;AACA' localhost:8080/mappings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), cfg, a.logger)
		},
	}

	cmd.Flags().StringVar(&cfg.Host, "host", "localhost", "Host to bind to")
	cmd.Flags().IntVarP(&cfg.Port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().IntVar(&cfg.CacheSize, "cache-size", 4096, "Number of decoded segments to cache")
	cmd.Flags().Int64Var(&cfg.MaxRequestSize, "max-request-size", 16*1024*1024, "Maximum request body size in bytes")
	cmd.Flags().DurationVar(&cfg.ReadTimeout, "read-timeout", 15*time.Second, "HTTP read timeout")
	cmd.Flags().DurationVar(&cfg.WriteTimeout, "write-timeout", 30*time.Second, "HTTP write timeout")
	cmd.Flags().DurationVar(&cfg.IdleTimeout, "idle-timeout", 120*time.Second, "HTTP idle timeout")
	cmd.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	return cmd
}

func validateServeConfig(cfg *ServeConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.CacheSize < 1 {
		return fmt.Errorf("invalid cache size: %d", cfg.CacheSize)
	}
	if cfg.MaxRequestSize < 1 {
		return fmt.Errorf("invalid max request size: %d", cfg.MaxRequestSize)
	}

	return nil
}

func newServer(cfg *ServeConfig, logger *log.Logger) (*server, error) {
	cache, err := vlq.NewCache(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create segment cache: %w", err)
	}

	return &server{cache: cache, logger: logger}, nil
}

func runServer(ctx context.Context, cfg *ServeConfig, logger *log.Logger) error {
	if err := validateServeConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	s, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.routes(cfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Ready to decode segments", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func (s *server) routes(cfg *ServeConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(cfg.MaxRequestSize))

	r.Get("/health", s.handleHealth)
	r.Get("/decode/{segment}", s.handleDecode)
	r.Post("/mappings", s.handleMappings)

	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

func (s *server) handleDecode(w http.ResponseWriter, r *http.Request) {
	// '/' is part of the alphabet, so clients send it as %2F. chi then routes
	// on the raw path and the parameter is still escaped; otherwise it is
	// already decoded and must be taken as is.
	segment := chi.URLParam(r, "segment")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(segment)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		segment = unescaped
	}

	values, err := s.cache.Decode(segment)
	if err != nil {
		s.writeDecodeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, DecodeResponse{Segment: segment, Values: values})
}

func (s *server) handleMappings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return
		}
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}

	lines, err := s.cache.DecodeMappings(string(body))
	if err != nil {
		s.writeDecodeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, MappingsResponse{Lines: lines})
}

func (s *server) writeDecodeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var invalid *vlq.InvalidCharacterError
	if errors.As(err, &invalid) {
		resp.Char = string(invalid.Char)
		resp.Offset = &invalid.Offset
	}

	s.writeJSON(w, http.StatusBadRequest, resp)
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}
