package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"flyerstudio/internal/http/handlers"
	appmw "flyerstudio/internal/middleware"
)

func NewRouter(app *handlers.App, corsOrigins []string, staticDir string) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(appmw.CORS(corsOrigins))
	r.Use(appmw.Logger(app.Logger))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", app.JobsCreate)
		r.Get("/", app.JobsList)
		r.Post("/finished/clear", app.JobsClearFinished)
		r.Post("/{id}/cancel", app.JobCancel)
		r.Post("/{id}/retry", app.JobRetry)
		r.Delete("/{id}", app.JobDelete)
	})

	r.Route("/v1/history", func(r chi.Router) {
		r.Get("/", app.HistoryList)
		r.Post("/upload", app.HistoryUpload)
		r.Get("/export.zip", app.HistoryExportZip)
		r.Post("/quality-check", app.HistoryQualityCheck)
		r.Post("/auto-tag", app.HistoryAutoTag)
		r.Get("/{id}", app.HistoryGet)
		r.Patch("/{id}", app.HistoryPatch)
		r.Delete("/{id}", app.HistoryDelete)
		r.Post("/{id}/upscale", app.HistoryUpscale)
		r.Post("/{id}/regenerate-4k", app.HistoryRegenerate4K)
		r.Post("/{id}/edit", app.HistoryEdit)
		r.Post("/{id}/remove-text", app.HistoryRemoveText)
	})

	r.Route("/v1/assets", func(r chi.Router) {
		r.Get("/", app.AssetsList)
		r.Post("/{kind}", app.AssetsUpload)
		r.Delete("/{kind}/{id}", app.AssetsDelete)
	})

	if app.Hub != nil {
		r.Get("/v1/ws", app.Hub.ServeHTTP)
	}

	// Full-size images written by the local object store.
	if staticDir != "" {
		fileServer := stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.Dir(staticDir)))
		r.Get("/static/*", fileServer.ServeHTTP)
	}

	return r
}
