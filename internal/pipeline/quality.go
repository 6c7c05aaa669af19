package pipeline

import (
	"context"
	"sync"
	"time"

	"flyerstudio/internal/domain"
)

// RunQualityCheck assesses the given items concurrently. Each item is marked
// pending before its check starts and always reaches a terminal quality
// status, including on provider failure. Unknown ids are skipped.
func (p *Pipeline) RunQualityCheck(ctx context.Context, ids []string) {
	var wg sync.WaitGroup
	for _, id := range ids {
		item, ok := p.history.Get(id)
		if !ok {
			continue
		}
		p.history.PatchByID(id, func(it *domain.HistoryItem) {
			it.QualityCheck = &domain.QualityCheck{Status: domain.QualityPending}
		})
		wg.Add(1)
		go func(id string, item domain.HistoryItem) {
			defer wg.Done()
			p.checkOne(ctx, id, item)
		}(id, item)
	}
	wg.Wait()
}

func (p *Pipeline) checkOne(ctx context.Context, id string, item domain.HistoryItem) {
	verdict, err := p.svc.QualityCheck(ctx, imageRef(item))
	now := time.Now().UTC()
	if err != nil {
		p.logger.Warn().Err(err).Str("item_id", id).Msg("pipeline: quality check failed")
		p.history.PatchByID(id, func(it *domain.HistoryItem) {
			it.QualityCheck = &domain.QualityCheck{
				Status:    domain.QualityError,
				Summary:   err.Error(),
				CheckedAt: now,
			}
		})
		return
	}
	status := qualityStatus(verdict.Status)
	p.history.PatchByID(id, func(it *domain.HistoryItem) {
		it.QualityCheck = &domain.QualityCheck{
			Status:    status,
			Summary:   verdict.Summary,
			Issues:    verdict.Issues,
			CheckedAt: now,
		}
	})
}

func qualityStatus(s string) domain.QualityStatus {
	switch domain.QualityStatus(s) {
	case domain.QualityPass, domain.QualityWarn, domain.QualityFail:
		return domain.QualityStatus(s)
	default:
		return domain.QualityError
	}
}
