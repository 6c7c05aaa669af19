// Package handlers implements the studio's HTTP API. Handlers validate and
// translate; the queue, history and pipeline packages own all state.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"flyerstudio/internal/assets"
	"flyerstudio/internal/domain"
	"flyerstudio/internal/history"
	"flyerstudio/internal/infra"
	"flyerstudio/internal/pipeline"
	"flyerstudio/internal/queue"
	"flyerstudio/internal/ws"
)

type App struct {
	Scheduler *queue.Scheduler
	Queue     *queue.Store
	History   *history.Store
	Pipeline  *pipeline.Pipeline
	Assets    *assets.Library
	Hub       *ws.Hub
	Logger    infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": errCode, "message": message},
	})
}

// domainError maps store and pipeline errors onto API responses.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "no such resource")
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrJobRunning):
		a.error(w, http.StatusConflict, "job_running", "job is running, cancel it first")
	case errors.Is(err, domain.ErrJobNotRetryable):
		a.error(w, http.StatusConflict, "not_retryable", "only failed or canceled jobs can be retried")
	case errors.Is(err, domain.ErrAlreadyUpscaled):
		a.error(w, http.StatusConflict, "already_upscaled", "item is already upscaled")
	case errors.Is(err, domain.ErrAlready4K):
		a.error(w, http.StatusConflict, "already_4k", "item is already a 4k render")
	case errors.Is(err, domain.ErrOperationInFlight):
		a.error(w, http.StatusConflict, "operation_in_flight", "another operation is running for this item")
	case errors.Is(err, domain.ErrEmptyResult):
		a.error(w, http.StatusBadGateway, "empty_result", "provider returned no images")
	default:
		a.error(w, http.StatusBadGateway, "provider_failure", err.Error())
	}
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
