// Package server expõe a sincronização por HTTP para agendadores externos.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"catalogsync/internal/lock"
	"catalogsync/internal/model"
)

const (
	tokenHeader    = "X-Sync-Token"
	releaseTimeout = 5 * time.Second
)

// Runner executa uma rodada de sincronização.
type Runner interface {
	Run(ctx context.Context) (model.RunReport, error)
}

type Server struct {
	token   string
	runner  Runner
	locks   lock.Store
	metrics http.Handler
	timeout time.Duration
	log     *slog.Logger
}

// New monta o servidor. metrics pode ser nil; timeout limita cada rodada e
// normalmente é o TTL do lock.
func New(token string, runner Runner, locks lock.Store, metrics http.Handler, timeout time.Duration, log *slog.Logger) *Server {
	return &Server{token: token, runner: runner, locks: locks, metrics: metrics, timeout: timeout, log: log}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sync", s.handleSync)
	mux.HandleFunc("/api/sync/status", s.handleStatus)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) || !s.authorize(w, r) {
		return
	}

	ctx := r.Context()
	token, ok, err := s.locks.Acquire(ctx)
	if err != nil {
		s.log.Error("falha ao obter lock", "error", err)
		writeJSON(w, http.StatusInternalServerError, failure(err.Error()))
		return
	}
	if !ok {
		writeJSON(w, http.StatusConflict, failure("SYNC_ALREADY_RUNNING"))
		return
	}

	// a rodada continua mesmo se o cliente desconectar
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	// liberar tem prazo próprio: uma rodada que estourou o timeout ainda
	// precisa soltar o lock
	defer func() {
		relCtx, relCancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer relCancel()
		if err := s.locks.Release(relCtx, token); err != nil {
			s.log.Warn("falha ao liberar lock", "error", err)
		}
	}()

	rep, runErr := s.runner.Run(runCtx)
	if err := s.locks.SaveStatus(runCtx, rep); err != nil {
		s.log.Warn("falha ao gravar status", "error", err)
	}

	if runErr != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok":     false,
			"error":  runErr.Error(),
			"run_id": rep.RunID,
		})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) || !s.authorize(w, r) {
		return
	}

	ctx := r.Context()
	running, err := s.locks.Running(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, failure(err.Error()))
		return
	}
	last, err := s.locks.LastStatus(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, failure(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"running": running,
		"status":  last,
	})
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, failure("Method Not Allowed"))
	return false
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	if s.token == "" {
		writeJSON(w, http.StatusInternalServerError, failure("SYNC_TOKEN not configured"))
		return false
	}
	got := r.Header.Get(tokenHeader)
	if got == "" {
		writeJSON(w, http.StatusUnauthorized, failure("Unauthorized"))
		return false
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
		writeJSON(w, http.StatusForbidden, failure("Forbidden"))
		return false
	}
	return true
}

func failure(msg string) map[string]any {
	return map[string]any{"ok": false, "error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
