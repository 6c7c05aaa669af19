package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flyerstudio/internal/domain"
)

// Ingest adds an externally supplied image to the history, running it through
// the same preview derivation and upload path as generated output.
func (p *Pipeline) Ingest(ctx context.Context, mime string, data []byte, tags []string, side domain.FlyerSide) (domain.HistoryItem, error) {
	if len(data) == 0 {
		return domain.HistoryItem{}, fmt.Errorf("%w: upload needs a payload", domain.ErrInvalidInput)
	}
	if mime == "" {
		mime = "image/png"
	}
	if side == "" {
		side = domain.FlyerSideFront
	}

	id := "flyer-" + uuid.NewString() + extensionForMIME(mime)
	thumbData, thumbMIME := data, mime
	if p.thumbs != nil {
		thumbData, thumbMIME = p.thumbs.Derive(ctx, data, mime)
	}
	item := domain.HistoryItem{
		ID:        id,
		Data:      domain.EncodeDataURI(mime, data),
		Thumbnail: domain.EncodeDataURI(thumbMIME, thumbData),
		Tags:      MergeTags(nil, tags),
		Side:      side,
		CreatedAt: time.Now().UTC(),
	}
	if p.objects != nil {
		url, err := p.objects.Put(ctx, "flyers/"+id, data)
		switch {
		case err != nil:
			p.logger.Warn().Err(err).Str("item_id", id).Msg("pipeline: upload failed, keeping local payload")
		case url != "":
			item.RemoteURL = url
		}
	}
	p.history.Add(item)
	p.logger.Info().Str("item_id", id).Msg("pipeline: image ingested")
	return item, nil
}
