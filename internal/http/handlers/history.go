package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/history"
	"flyerstudio/pkg/zip"
)

// HistoryList returns history items newest first, optionally filtered by
// ?tag=, ?favorite=true and ?side=.
func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := history.Filter{
		Tag:          q.Get("tag"),
		FavoriteOnly: q.Get("favorite") == "true",
		Side:         domain.FlyerSide(q.Get("side")),
	}
	a.json(w, http.StatusOK, map[string]any{"items": a.History.Items(f)})
}

// HistoryGet returns one item by id.
func (a *App) HistoryGet(w http.ResponseWriter, r *http.Request) {
	item, ok := a.History.Get(chi.URLParam(r, "id"))
	if !ok {
		a.domainError(w, domain.ErrNotFound)
		return
	}
	a.json(w, http.StatusOK, item)
}

type historyPatchRequest struct {
	Tags       *[]string `json:"tags,omitempty"`
	IsFavorite *bool     `json:"is_favorite,omitempty"`
}

// HistoryPatch updates the caller-editable fields of an item.
func (a *App) HistoryPatch(w http.ResponseWriter, r *http.Request) {
	var req historyPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	item, ok := a.History.PatchByID(chi.URLParam(r, "id"), func(it *domain.HistoryItem) {
		if req.Tags != nil {
			it.Tags = append([]string(nil), (*req.Tags)...)
		}
		if req.IsFavorite != nil {
			it.IsFavorite = *req.IsFavorite
		}
	})
	if !ok {
		a.domainError(w, domain.ErrNotFound)
		return
	}
	a.json(w, http.StatusOK, item)
}

type historyUploadRequest struct {
	MIME string           `json:"mime,omitempty"`
	Data []byte           `json:"data"`
	Tags []string         `json:"tags,omitempty"`
	Side domain.FlyerSide `json:"side,omitempty"`
}

// HistoryUpload adds an externally produced image to the gallery.
func (a *App) HistoryUpload(w http.ResponseWriter, r *http.Request) {
	var req historyUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	item, err := a.Pipeline.Ingest(r.Context(), req.MIME, req.Data, req.Tags, req.Side)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, item)
}

// HistoryDelete removes one item.
func (a *App) HistoryDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.History.Remove(id); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"removed": id})
}

// HistoryExportZip streams the current (optionally filtered) gallery as a
// zip archive of full-size images.
func (a *App) HistoryExportZip(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := history.Filter{
		Tag:          q.Get("tag"),
		FavoriteOnly: q.Get("favorite") == "true",
		Side:         domain.FlyerSide(q.Get("side")),
	}
	items := a.History.Items(f)
	if len(items) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no items match the filter")
		return
	}

	archive := make([]zip.Asset, 0, len(items))
	for _, item := range items {
		data, mime, ok := domain.DecodeDataURI(item.Data)
		if !ok {
			a.Logger.Warn().Str("item_id", item.ID).Msg("api: skipping item with no inline payload")
			continue
		}
		archive = append(archive, zip.Asset{Filename: item.ID, MIME: mime, Data: data})
	}
	payload := zip.ArchiveAssets(archive)
	if len(payload) == 0 {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="flyers.zip"`)
	w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
