package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"flyerstudio/internal/assets"
	"flyerstudio/internal/domain"
)

// AssetsList returns every collection keyed by kind.
func (a *App) AssetsList(w http.ResponseWriter, r *http.Request) {
	out := make(map[string][]domain.AssetImage, len(assets.Kinds))
	for _, kind := range assets.Kinds {
		out[string(kind)] = a.Assets.List(kind)
	}
	a.json(w, http.StatusOK, map[string]any{"collections": out})
}

type assetUploadRequest struct {
	Name string `json:"name"`
	MIME string `json:"mime,omitempty"`
	Data []byte `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

// AssetsUpload adds an image to the collection named in the path.
func (a *App) AssetsUpload(w http.ResponseWriter, r *http.Request) {
	var req assetUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	added, err := a.Assets.Add(assets.Kind(chi.URLParam(r, "kind")), domain.AssetImage{
		Name: req.Name,
		MIME: req.MIME,
		Data: req.Data,
		URL:  req.URL,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, added)
}

// AssetsDelete removes an asset from its collection.
func (a *App) AssetsDelete(w http.ResponseWriter, r *http.Request) {
	kind := assets.Kind(chi.URLParam(r, "kind"))
	id := chi.URLParam(r, "id")
	if err := a.Assets.Remove(kind, id); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"removed": id})
}
