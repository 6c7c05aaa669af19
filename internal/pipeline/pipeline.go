// Package pipeline implements the asynchronous post-processing operations
// over committed history items: quality checking, auto-tagging, upscaling,
// 4K regeneration, manual edits and text removal. Operations for different
// items race freely; each one touches exactly one history entry by id.
package pipeline

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
	"flyerstudio/internal/providers/enhance"
	"flyerstudio/internal/storage"
	"flyerstudio/internal/thumbnail"
)

// Pipeline coordinates enhancement calls against the shared history store.
// An in-flight registry enforces at most one initiated operation per item;
// operations targeting different items race freely.
type Pipeline struct {
	history *history.Store
	svc     enhance.Service
	thumbs  thumbnail.Deriver
	objects storage.ObjectStore
	logger  infra.Logger

	mu       sync.Mutex
	inflight map[string]string
}

// Options bundles the pipeline's collaborators. Objects is optional.
type Options struct {
	History    *history.Store
	Service    enhance.Service
	Thumbnails thumbnail.Deriver
	Objects    storage.ObjectStore
	Logger     infra.Logger
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	return &Pipeline{
		history:  opts.History,
		svc:      opts.Service,
		thumbs:   opts.Thumbnails,
		objects:  opts.Objects,
		logger:   opts.Logger,
		inflight: make(map[string]string),
	}
}

// InFlight reports the operation currently running for the item, if any.
func (p *Pipeline) InFlight(id string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	op, ok := p.inflight[id]
	return op, ok
}

func (p *Pipeline) acquire(id, op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.inflight[id]; ok {
		return fmt.Errorf("%w: %s", domain.ErrOperationInFlight, cur)
	}
	p.inflight[id] = op
	return nil
}

func (p *Pipeline) release(id string) {
	p.mu.Lock()
	delete(p.inflight, id)
	p.mu.Unlock()
}

// imageRef builds the provider-facing reference for an item, preferring the
// durable remote URL over the inline payload.
func imageRef(item domain.HistoryItem) enhance.ImageRef {
	if item.RemoteURL != "" {
		return enhance.ImageRef{URL: item.RemoteURL}
	}
	if data, mime, ok := domain.DecodeDataURI(item.Data); ok {
		return enhance.ImageRef{Data: data, MIME: mime}
	}
	return enhance.ImageRef{URL: item.Data}
}

// newDerived builds a fresh history item derived from src: inherited tags
// plus one marker tag, lineage recorded, preview and optional upload applied.
func (p *Pipeline) newDerived(ctx context.Context, src domain.HistoryItem, res enhance.Result, marker string) domain.HistoryItem {
	id := "flyer-" + uuid.NewString() + extensionForMIME(res.MIME)
	thumbData, thumbMIME := res.Data, res.MIME
	if p.thumbs != nil {
		thumbData, thumbMIME = p.thumbs.Derive(ctx, res.Data, res.MIME)
	}
	item := domain.HistoryItem{
		ID:            id,
		Data:          domain.EncodeDataURI(res.MIME, res.Data),
		Thumbnail:     domain.EncodeDataURI(thumbMIME, thumbData),
		Tags:          MergeTags(src.Tags, []string{marker}),
		Side:          src.Side,
		JobID:         src.JobID,
		ImageSize:     src.ImageSize,
		DerivedFromID: src.ID,
		CreatedAt:     time.Now().UTC(),
	}
	if p.objects != nil {
		url, err := p.objects.Put(ctx, "flyers/"+id, res.Data)
		switch {
		case err != nil:
			p.logger.Warn().Err(err).Str("item_id", id).Msg("pipeline: upload failed, keeping local payload")
		case url != "":
			item.RemoteURL = url
		}
	}
	return item
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
