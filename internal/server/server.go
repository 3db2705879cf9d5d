package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"campus-assistant/internal/application/port/input"
	"campus-assistant/internal/application/port/output"
	"campus-assistant/internal/domain/entity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
)

// Server exposes the query runner over HTTP. It is the only surface the
// excluded UI layers talk to.
type Server struct {
	runner input.QueryRunner
	logger output.LoggerPort
	runCfg entity.RunConfig
}

func New(runner input.QueryRunner, logger output.LoggerPort, runCfg entity.RunConfig) *Server {
	return &Server{runner: runner, logger: logger, runCfg: runCfg}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	requestLogger := httplog.NewLogger("campus-assistant", httplog.Options{
		JSON:    true,
		Concise: true,
	})
	r.Use(httplog.RequestLogger(requestLogger))

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/query", s.handleQuery)
	return r
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Info("http server listening", "addr", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Answer            string             `json:"answer"`
	Citations         []string           `json:"citations"`
	TerminationReason string             `json:"termination_reason"`
	Iterations        int                `json:"iterations"`
	Transcript        *entity.Transcript `json:"transcript,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		http.Error(w, `{"error":"question is required"}`, http.StatusBadRequest)
		return
	}

	result, err := s.runner.Run(r.Context(), req.Question, s.runCfg)
	if err != nil {
		s.logger.Error("query failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	resp := queryResponse{
		Answer:            result.AnswerText,
		Citations:         result.Citations,
		TerminationReason: string(result.Reason),
		Iterations:        result.Iterations,
	}
	if r.URL.Query().Get("debug") == "1" {
		resp.Transcript = result.Transcript
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
