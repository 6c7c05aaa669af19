package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"flyerstudio/internal/providers/enhance"
)

type upscaleRequest struct {
	Scale int `json:"scale"`
}

// HistoryUpscale runs an upscale for one item and returns the derived entry.
func (a *App) HistoryUpscale(w http.ResponseWriter, r *http.Request) {
	var req upscaleRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
	}
	derived, err := a.Pipeline.Upscale(r.Context(), chi.URLParam(r, "id"), req.Scale)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, derived)
}

// HistoryRegenerate4K re-renders one item at 4K.
func (a *App) HistoryRegenerate4K(w http.ResponseWriter, r *http.Request) {
	derived, err := a.Pipeline.Regenerate4K(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, derived)
}

type editRequest struct {
	Regions []enhance.EditRegion `json:"regions"`
}

// HistoryEdit applies region edit instructions to one item.
func (a *App) HistoryEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	derived, err := a.Pipeline.Edit(r.Context(), chi.URLParam(r, "id"), req.Regions)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, derived)
}

// HistoryRemoveText strips rendered text from one item.
func (a *App) HistoryRemoveText(w http.ResponseWriter, r *http.Request) {
	derived, err := a.Pipeline.RemoveText(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, derived)
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

func (a *App) decodeBatch(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return nil, false
	}
	if len(req.IDs) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "ids must not be empty")
		return nil, false
	}
	return req.IDs, true
}

// HistoryQualityCheck kicks off quality checks for the given items. The
// checks run in the background; results arrive as history change events.
func (a *App) HistoryQualityCheck(w http.ResponseWriter, r *http.Request) {
	ids, ok := a.decodeBatch(w, r)
	if !ok {
		return
	}
	go a.Pipeline.RunQualityCheck(context.Background(), ids)
	a.json(w, http.StatusAccepted, map[string]int{"queued": len(ids)})
}

// HistoryAutoTag kicks off tag suggestion for the given items.
func (a *App) HistoryAutoTag(w http.ResponseWriter, r *http.Request) {
	ids, ok := a.decodeBatch(w, r)
	if !ok {
		return
	}
	go a.Pipeline.AutoTag(context.Background(), ids)
	a.json(w, http.StatusAccepted, map[string]int{"queued": len(ids)})
}
