package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/snapshot"
)

const maxPatternCount = 4

type createJobRequest struct {
	APIKey string           `json:"api_key"`
	Form   domain.FormState `json:"form"`
}

// JobsCreate validates the form synchronously and enqueues a generation job.
// A rejected request never reaches the queue.
func (a *App) JobsCreate(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		a.error(w, http.StatusBadRequest, "missing_api_key", "an api key is required to generate")
		return
	}
	if msg := validateForm(&req.Form); msg != "" {
		a.error(w, http.StatusBadRequest, "invalid_form", msg)
		return
	}
	if emptySelection(req.Form.Assets) {
		req.Form.Assets = a.Assets.Selection()
	}

	job := a.Scheduler.Enqueue(snapshot.Build(req.APIKey, req.Form))
	a.Logger.Info().Str("job_id", job.ID).Str("mode", job.Snapshot.Mode().String()).Msg("api: job enqueued")
	a.json(w, http.StatusAccepted, job)
}

// validateForm normalizes defaults in place and returns a rejection message
// for input no snapshot should be taken of.
func validateForm(f *domain.FormState) string {
	if f.Side == "" {
		f.Side = domain.FlyerSideFront
	}
	if f.Side != domain.FlyerSideFront && f.Side != domain.FlyerSideBack {
		return "side must be front or back"
	}
	if f.FrontFlyerType == "" {
		f.FrontFlyerType = domain.FrontFlyerCampaign
	}
	if f.FrontFlyerType != domain.FrontFlyerCampaign && f.FrontFlyerType != domain.FrontFlyerProductService {
		return "unknown front flyer type"
	}
	if f.PatternCount <= 0 {
		f.PatternCount = 1
	}
	if f.PatternCount > maxPatternCount {
		f.PatternCount = maxPatternCount
	}
	if f.Side == domain.FlyerSideBack {
		return ""
	}
	if f.SalesLetterMode {
		if strings.TrimSpace(f.SalesLetter.Body) == "" {
			return "sales letter body is required"
		}
		return ""
	}
	switch f.FrontFlyerType {
	case domain.FrontFlyerCampaign:
		if strings.TrimSpace(f.Campaign.Title) == "" {
			return "campaign title is required"
		}
	case domain.FrontFlyerProductService:
		if strings.TrimSpace(f.ProductService.Headline) == "" && len(f.Products) == 0 {
			return "a headline or at least one product is required"
		}
	}
	return ""
}

func emptySelection(s domain.AssetSelection) bool {
	return len(s.Characters) == 0 && len(s.References) == 0 && len(s.Logos) == 0 &&
		len(s.Illustrations) == 0 && len(s.CustomerPhotos) == 0 && len(s.ProductPhotos) == 0
}

// JobsList returns every queued, running and finished job in FIFO order.
func (a *App) JobsList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"jobs": a.Queue.Jobs()})
}

// JobCancel requests cancellation. Pending jobs finalize immediately; a
// running job keeps its status until the executor honors the flag.
func (a *App) JobCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := a.Queue.Get(id)
	if !ok {
		a.domainError(w, domain.ErrNotFound)
		return
	}
	if job.Status.Terminal() {
		a.json(w, http.StatusOK, job)
		return
	}
	a.Scheduler.Cancel(id)
	job, _ = a.Queue.Get(id)
	a.json(w, http.StatusAccepted, job)
}

// JobRetry puts a failed or canceled job back at the queue tail.
func (a *App) JobRetry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Scheduler.Retry(id); err != nil {
		a.domainError(w, err)
		return
	}
	job, _ := a.Queue.Get(id)
	a.json(w, http.StatusAccepted, job)
}

// JobDelete removes a non-running job from the queue.
func (a *App) JobDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Queue.Remove(id); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"removed": id})
}

// JobsClearFinished drops every terminal job.
func (a *App) JobsClearFinished(w http.ResponseWriter, r *http.Request) {
	n := a.Queue.ClearFinished()
	a.json(w, http.StatusOK, map[string]int{"cleared": n})
}
