// File: internal/server/server.go
// Description: The HTTP surface of the service. Exposes health probes and
// the analysis endpoint, and owns the mapping from pipeline error types to
// response status codes.

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/sitelens/api/schemas"
	"github.com/xkilldash9x/sitelens/internal/analysis"
	"github.com/xkilldash9x/sitelens/internal/browser"
	"github.com/xkilldash9x/sitelens/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const genericErrorDetail = "An unexpected error occurred"

// Analyzer runs the full analysis pipeline for one request. Implemented by
// the orchestrator; stubbed in tests.
type Analyzer interface {
	Analyze(ctx context.Context, req schemas.AnalyzeRequest) (*schemas.AnalysisResult, error)
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Server hosts the HTTP API.
type Server struct {
	cfg      config.ServerConfig
	analyzer Analyzer
	version  string
	logger   *zap.Logger
	limiter  *rate.Limiter
	httpSrv  *http.Server
}

// New creates the server. The rate limit applies to the analysis endpoint
// only; health probes always answer.
func New(cfg config.ServerConfig, analyzer Analyzer, version string, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		version:  version,
		logger:   logger.Named("server"),
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	}
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the full middleware chain around the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /analyze", withRateLimit(s.limiter, http.HandlerFunc(s.handleAnalyze)))

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(withRequestID(s.withLogging(s.withRecovery(mux))))
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, schemas.HealthResponse{
		Status:    "healthy",
		Version:   s.version,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, schemas.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req schemas.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.writeAnalyzeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeAnalyzeError maps pipeline error types to status codes: navigation
// timeouts answer 408, session and navigation failures answer 400 with the
// underlying reason, generation failures answer 500, and anything
// unclassified answers a generic 500.
func (s *Server) writeAnalyzeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		timeoutErr *browser.NavigationTimeoutError
		navErr     *browser.NavigationError
		startErr   *browser.SessionStartError
		genErr     *analysis.GenerationError
	)

	log := s.logger.With(
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Error(err))

	switch {
	case errors.As(err, &timeoutErr):
		log.Warn("Analysis timed out")
		writeError(w, http.StatusRequestTimeout, "Timeout while loading website")
	case errors.As(err, &navErr):
		log.Warn("Website not reachable")
		writeError(w, http.StatusBadRequest, navErr.Error())
	case errors.As(err, &startErr):
		log.Error("Browser session unavailable")
		writeError(w, http.StatusBadRequest, startErr.Error())
	case errors.As(err, &genErr):
		log.Error("Analysis generation failed")
		writeError(w, http.StatusInternalServerError, genErr.Error())
	default:
		log.Error("Analysis failed")
		writeError(w, http.StatusInternalServerError, genericErrorDetail)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
