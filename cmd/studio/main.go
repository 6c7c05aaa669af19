package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"flyerstudio/internal/assets"
	"flyerstudio/internal/domain"
	"flyerstudio/internal/executor"
	"flyerstudio/internal/history"
	"flyerstudio/internal/http/handlers"
	httpapi "flyerstudio/internal/http/httpapi"
	"flyerstudio/internal/infra"
	"flyerstudio/internal/pipeline"
	"flyerstudio/internal/providers/enhance"
	"flyerstudio/internal/providers/flyergen"
	"flyerstudio/internal/queue"
	"flyerstudio/internal/storage"
	"flyerstudio/internal/thumbnail"
	"flyerstudio/internal/ws"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local persistence.
	kv, err := storage.OpenSQLiteKV(cfg.LocalDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open local database")
	}
	defer kv.Close()

	objects, err := storage.NewFileObjectStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare object storage")
	}

	// Remote metadata mirror, optional.
	var meta storage.MetadataStore
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		pg := storage.NewPGMetadataStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure mirror schema")
		}
		meta = pg
		logger.Info().Msg("remote metadata mirror enabled")
	}

	// State stores.
	queueStore := queue.NewStore(kv, logger)
	historyStore := history.NewStore(kv, meta, logger)
	library := assets.NewLibrary(kv, meta, logger, cfg.AssetSyncDelay)
	if err := queueStore.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load queue state")
	}
	if err := historyStore.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load history state")
	}
	if err := library.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load asset collections")
	}
	queueStore.RequeueStale()

	// Providers.
	generator := flyergen.NewClient(flyergen.Options{
		BaseURL: cfg.FlyerGenBaseURL,
		APIKey:  cfg.FlyerGenAPIKey,
		Timeout: 5 * time.Minute,
	})
	enhancer := enhance.NewClient(enhance.Options{
		BaseURL: cfg.EnhanceBaseURL,
		APIKey:  cfg.EnhanceAPIKey,
		Timeout: 5 * time.Minute,
	})
	thumbs := thumbnail.NewScaler(256)

	// Processing.
	pipe := pipeline.New(pipeline.Options{
		History:    historyStore,
		Service:    enhancer,
		Thumbnails: thumbs,
		Objects:    objects,
		Logger:     logger,
	})
	cancels := queue.NewCancelRegistry()
	exec := executor.New(executor.Options{
		Queue:      queueStore,
		Cancels:    cancels,
		History:    historyStore,
		Generator:  generator,
		Thumbnails: thumbs,
		Objects:    objects,
		OnCommitted: func(ids []string) {
			bg := context.Background()
			pipe.RunQualityCheck(bg, ids)
			pipe.AutoTag(bg, ids)
		},
		Logger: logger,
	})
	scheduler := queue.NewScheduler(queueStore, cancels, exec.Run, logger)

	// Live updates.
	hub := ws.NewHub(func() ([]domain.Job, []domain.HistoryItem) {
		return queueStore.Jobs(), historyStore.Items(history.Filter{})
	}, logger)
	queueStore.SetOnChange(func(job domain.Job, kind queue.ChangeKind) {
		if kind == queue.ChangeRemoved {
			hub.JobRemoved(job.ID)
			return
		}
		hub.JobUpdated(job)
	})
	historyStore.SetOnChange(func(item domain.HistoryItem, kind history.ChangeKind) {
		if kind == history.ChangeRemoved {
			hub.HistoryRemoved(item.ID)
			return
		}
		hub.HistoryUpdated(item)
	})

	scheduler.Start(ctx)

	app := &handlers.App{
		Scheduler: scheduler,
		Queue:     queueStore,
		History:   historyStore,
		Pipeline:  pipe,
		Assets:    library,
		Hub:       hub,
		Logger:    logger,
	}
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, cfg.CORSOrigins, cfg.StoragePath))

	go func() {
		logger.Info().Msgf("studio listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	scheduler.Wait()
	library.Flush(shutdownCtx)
	logger.Info().Msg("studio stopped")
}
