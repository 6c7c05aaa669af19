package pipeline

import (
	"context"
	"fmt"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/providers/enhance"
)

// Marker tags stamped on derived items.
const (
	TagUpscaled    = "upscaled"
	Tag4K          = "4k"
	TagEdited      = "edited"
	TagTextRemoved = "text-removed"
)

// Upscale produces an upscaled copy of the item and records it as a new
// history entry. The previous upscale flag on the source is cleared so at
// most one item in the lineage carries it. Already upscaled or 4K items are
// rejected before the external service is contacted.
func (p *Pipeline) Upscale(ctx context.Context, id string, scale int) (domain.HistoryItem, error) {
	item, ok := p.history.Get(id)
	if !ok {
		return domain.HistoryItem{}, domain.ErrNotFound
	}
	if item.IsUpscaled {
		return domain.HistoryItem{}, domain.ErrAlreadyUpscaled
	}
	if item.Is4KRegenerate {
		return domain.HistoryItem{}, domain.ErrAlready4K
	}
	if scale <= 0 {
		scale = 2
	}
	if err := p.acquire(id, "upscale"); err != nil {
		return domain.HistoryItem{}, err
	}
	defer p.release(id)

	res, err := p.svc.Upscale(ctx, imageRef(item), scale)
	if err != nil {
		return domain.HistoryItem{}, fmt.Errorf("upscale %s: %w", id, err)
	}
	derived := p.newDerived(ctx, item, res, TagUpscaled)
	derived.IsUpscaled = true
	derived.UpscaleScale = scale
	p.history.Add(derived)
	p.history.PatchByID(id, func(it *domain.HistoryItem) { it.IsUpscaled = false })
	p.logger.Info().Str("item_id", id).Str("derived_id", derived.ID).Int("scale", scale).Msg("pipeline: upscaled")
	return derived, nil
}

// Regenerate4K re-renders the item at 4K resolution as a new history entry.
func (p *Pipeline) Regenerate4K(ctx context.Context, id string) (domain.HistoryItem, error) {
	item, ok := p.history.Get(id)
	if !ok {
		return domain.HistoryItem{}, domain.ErrNotFound
	}
	if item.Is4KRegenerate {
		return domain.HistoryItem{}, domain.ErrAlready4K
	}
	if err := p.acquire(id, "regenerate-4k"); err != nil {
		return domain.HistoryItem{}, err
	}
	defer p.release(id)

	res, err := p.svc.Regenerate4K(ctx, imageRef(item))
	if err != nil {
		return domain.HistoryItem{}, fmt.Errorf("regenerate 4k %s: %w", id, err)
	}
	derived := p.newDerived(ctx, item, res, Tag4K)
	derived.Is4KRegenerate = true
	derived.ImageSize = "4k"
	p.history.Add(derived)
	p.logger.Info().Str("item_id", id).Str("derived_id", derived.ID).Msg("pipeline: regenerated 4k")
	return derived, nil
}

// Edit applies region-scoped edit instructions and appends the result.
func (p *Pipeline) Edit(ctx context.Context, id string, regions []enhance.EditRegion) (domain.HistoryItem, error) {
	item, ok := p.history.Get(id)
	if !ok {
		return domain.HistoryItem{}, domain.ErrNotFound
	}
	if len(regions) == 0 {
		return domain.HistoryItem{}, fmt.Errorf("%w: edit needs at least one region", domain.ErrInvalidInput)
	}
	if err := p.acquire(id, "edit"); err != nil {
		return domain.HistoryItem{}, err
	}
	defer p.release(id)

	res, err := p.svc.Edit(ctx, imageRef(item), regions)
	if err != nil {
		return domain.HistoryItem{}, fmt.Errorf("edit %s: %w", id, err)
	}
	derived := p.newDerived(ctx, item, res, TagEdited)
	derived.IsEdited = true
	p.history.Add(derived)
	p.logger.Info().Str("item_id", id).Str("derived_id", derived.ID).Int("regions", len(regions)).Msg("pipeline: edited")
	return derived, nil
}

// RemoveText strips rendered text from the item and appends the cleaned copy.
func (p *Pipeline) RemoveText(ctx context.Context, id string) (domain.HistoryItem, error) {
	item, ok := p.history.Get(id)
	if !ok {
		return domain.HistoryItem{}, domain.ErrNotFound
	}
	if err := p.acquire(id, "remove-text"); err != nil {
		return domain.HistoryItem{}, err
	}
	defer p.release(id)

	res, err := p.svc.RemoveText(ctx, imageRef(item))
	if err != nil {
		return domain.HistoryItem{}, fmt.Errorf("remove text %s: %w", id, err)
	}
	derived := p.newDerived(ctx, item, res, TagTextRemoved)
	derived.IsEdited = true
	p.history.Add(derived)
	p.logger.Info().Str("item_id", id).Str("derived_id", derived.ID).Msg("pipeline: text removed")
	return derived, nil
}
