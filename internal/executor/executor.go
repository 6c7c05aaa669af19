// Package executor drives one generation job from running to a terminal
// state: calls the generation backend, derives per-item artifacts and commits
// them into history, reporting progress and honoring cooperative cancellation
// at defined checkpoints. A cancel tripped mid-batch keeps the items already
// committed; partial results are a deliberate policy, not an error.
package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/history"
	"flyerstudio/internal/infra"
	"flyerstudio/internal/providers/flyergen"
	"flyerstudio/internal/queue"
	"flyerstudio/internal/storage"
	"flyerstudio/internal/thumbnail"
)

// Executor runs jobs dispatched by the scheduler. All collaborators are
// injected; the executor owns no state of its own beyond them.
type Executor struct {
	queue   *queue.Store
	cancels *queue.CancelRegistry
	history *history.Store
	gen     flyergen.Generator
	thumbs  thumbnail.Deriver
	objects storage.ObjectStore
	logger  infra.Logger

	// onCommitted is invoked fire-and-forget with the committed item ids
	// after a fully successful run; the wiring points it at the quality
	// check pipeline.
	onCommitted func(ids []string)
}

// Options bundles the executor's collaborators. Objects and OnCommitted are
// optional.
type Options struct {
	Queue       *queue.Store
	Cancels     *queue.CancelRegistry
	History     *history.Store
	Generator   flyergen.Generator
	Thumbnails  thumbnail.Deriver
	Objects     storage.ObjectStore
	OnCommitted func(ids []string)
	Logger      infra.Logger
}

// New creates an executor.
func New(opts Options) *Executor {
	return &Executor{
		queue:       opts.Queue,
		cancels:     opts.Cancels,
		history:     opts.History,
		gen:         opts.Generator,
		thumbs:      opts.Thumbnails,
		objects:     opts.Objects,
		logger:      opts.Logger,
		onCommitted: opts.OnCommitted,
	}
}

// Run executes one job to a terminal state. The job record is the only
// externally observable outcome; nothing escapes this boundary.
func (e *Executor) Run(ctx context.Context, job domain.Job) {
	defer func() {
		if r := recover(); r != nil {
			e.fail(job.ID, fmt.Errorf("executor panic: %v", r))
		}
	}()

	e.progress(job.ID, 5, "preparing inputs")

	// Checkpoint A: before the backend call.
	if e.finalizeIfCanceled(job.ID) {
		return
	}

	mode := job.Snapshot.Mode()
	e.progress(job.ID, 20, "generating "+modeLabel(mode))
	images, err := e.gen.Generate(ctx, flyergen.FromSnapshot(job.Snapshot))
	if err != nil {
		e.fail(job.ID, err)
		return
	}
	if len(images) == 0 {
		e.fail(job.ID, domain.ErrEmptyResult)
		return
	}

	// Previews derive in parallel; each item still commits only with its
	// preview attached.
	previews := e.derivePreviews(ctx, images)

	n := len(images)
	var committed []string
	for i, img := range images {
		// Checkpoint B: before processing each item. A trip here keeps
		// everything committed so far.
		if e.finalizeIfCanceled(job.ID) {
			e.logger.Info().Str("job_id", job.ID).Int("committed", len(committed)).Msg("executor: canceled mid-batch, partial results kept")
			return
		}
		item := e.buildItem(ctx, job, img, previews[i])
		e.history.Add(item)
		committed = append(committed, item.ID)
		e.progress(job.ID, 35+(95-35)*(i+1)/n, fmt.Sprintf("%d/%d flyers ready", i+1, n))
	}

	e.queue.Patch(job.ID, func(j *domain.Job) {
		j.Status = domain.JobStatusCompleted
		j.Progress = 100
		j.Message = fmt.Sprintf("generated %d flyers", n)
		j.Error = ""
	})
	e.logger.Info().Str("job_id", job.ID).Int("count", n).Str("mode", mode.String()).Msg("executor: job completed")

	if e.onCommitted != nil && len(committed) > 0 {
		ids := append([]string(nil), committed...)
		go e.onCommitted(ids)
	}
}

type preview struct {
	data []byte
	mime string
}

func (e *Executor) derivePreviews(ctx context.Context, images []flyergen.Image) []preview {
	previews := make([]preview, len(images))
	var wg sync.WaitGroup
	for i := range images {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, mime := e.thumbs.Derive(ctx, images[i].Data, images[i].MIME)
			previews[i] = preview{data: data, mime: mime}
		}(i)
	}
	wg.Wait()
	return previews
}

func (e *Executor) buildItem(ctx context.Context, job domain.Job, img flyergen.Image, pv preview) domain.HistoryItem {
	id := "flyer-" + uuid.NewString() + extensionForMIME(img.MIME)
	item := domain.HistoryItem{
		ID:        id,
		Data:      domain.EncodeDataURI(img.MIME, img.Data),
		Thumbnail: domain.EncodeDataURI(pv.mime, pv.data),
		Side:      job.Side,
		JobID:     job.ID,
		ImageSize: job.Snapshot.Form.ImageSize,
		CreatedAt: time.Now().UTC(),
	}
	if e.objects != nil {
		url, err := e.objects.Put(ctx, "flyers/"+id, img.Data)
		switch {
		case err != nil:
			e.logger.Warn().Err(err).Str("item_id", id).Msg("executor: upload failed, keeping local payload")
		case url != "":
			item.RemoteURL = url
		}
	}
	return item
}

func (e *Executor) progress(id string, pct int, message string) {
	e.queue.Patch(id, func(j *domain.Job) {
		if pct > j.Progress {
			j.Progress = pct
		}
		j.Message = message
	})
}

func (e *Executor) fail(id string, cause error) {
	e.queue.Patch(id, func(j *domain.Job) {
		j.Status = domain.JobStatusFailed
		j.Progress = 0
		j.Message = "generation failed"
		j.Error = cause.Error()
	})
	e.logger.Error().Err(cause).Str("job_id", id).Msg("executor: job failed")
}

func (e *Executor) finalizeIfCanceled(id string) bool {
	if !e.cancels.Requested(id) {
		return false
	}
	e.queue.Patch(id, func(j *domain.Job) {
		j.Status = domain.JobStatusCanceled
		j.Progress = 0
		j.Message = "canceled"
	})
	e.logger.Info().Str("job_id", id).Msg("executor: cancellation observed")
	return true
}

func modeLabel(mode domain.GenerationMode) string {
	return strings.ReplaceAll(mode.String(), "_", " ") + " flyer"
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
