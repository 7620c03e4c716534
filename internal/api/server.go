package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"vsm/config"
	"vsm/internal/domain"
)

// Searcher answers search requests. Both the retrieve use case and the
// cached retriever satisfy it.
type Searcher interface {
	Retrieve(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}

type StatsSource interface {
	Stats() (domain.Stats, error)
}

type Server struct {
	Searcher Searcher
	Index    StatsSource
	Logger   *logrus.Entry
	Router   *http.ServeMux

	metrics http.Handler
	limiter *rate.Limiter
	started time.Time
}

// NewServer wires the routes. metrics may be nil, in which case /metrics is
// not served.
func NewServer(searcher Searcher, index StatsSource, metrics http.Handler, logger *logrus.Entry) *Server {
	s := &Server{
		Searcher: searcher,
		Index:    index,
		Logger:   logger,
		Router:   http.NewServeMux(),
		metrics:  metrics,
		started:  time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.HandleFunc("/api/v1/search", s.limited(s.handleSearch))
	s.Router.HandleFunc("/api/v1/stats", s.handleStats)
	s.Router.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.Router.Handle("/metrics", s.metrics)
	}
}

// SetRateLimit caps search requests at rps per second with the given burst.
// rps <= 0 removes the limit.
func (s *Server) SetRateLimit(rps float64, burst int) {
	if rps <= 0 {
		s.limiter = nil
		return
	}
	if burst < 1 {
		burst = int(rps) + 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			jsonResponse(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		next(w, r)
	}
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServeConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Infof("Starting API Server on %s", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("Shutting down API Server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Responses
type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// Handlers

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("q")
		req.Match = q.Get("match")
		if k := q.Get("k"); k != "" {
			n, err := strconv.Atoi(k)
			if err != nil || n < 0 {
				jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "'k' must be a non-negative integer"})
				return
			}
			req.TopK = n
		}
		if ms := q.Get("min_score"); ms != "" {
			v, err := strconv.ParseFloat(ms, 64)
			if err != nil {
				jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "'min_score' must be a number"})
				return
			}
			req.MinScore = &v
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON"})
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if req.Query == "" {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Query 'q' is required"})
		return
	}

	resp, err := s.Searcher.Retrieve(r.Context(), req)
	if err != nil {
		code := statusFor(err)
		s.Logger.WithError(err).WithField("query", req.Query).Warn("search failed")
		jsonResponse(w, code, ErrorResponse{Error: err.Error()})
		return
	}

	jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := s.Index.Stats()
	if err != nil {
		jsonResponse(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
