package pipeline

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"flyerstudio/internal/domain"
)

var tagCaser = cases.Title(language.Und)

// NormalizeTag trims and collapses whitespace and title-cases multi-word
// suggestions so provider output lands in a uniform shape. Short all-lower
// single words (marker tags included) pass through unchanged.
func NormalizeTag(tag string) string {
	tag = strings.Join(strings.Fields(tag), " ")
	if tag == "" {
		return ""
	}
	if !strings.Contains(tag, " ") && strings.ToLower(tag) == tag {
		return tag
	}
	return tagCaser.String(strings.ToLower(tag))
}

// MergeTags appends add onto existing, dropping empties and case-insensitive
// duplicates while preserving first-seen order.
func MergeTags(existing, add []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(add))
	out := make([]string, 0, len(existing)+len(add))
	for _, t := range existing {
		key := strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	for _, t := range add {
		t = NormalizeTag(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// AutoTag asks the provider for tag suggestions per item and merges them into
// each item's tag list. Items are processed in order; a failure on one item
// is logged and does not stop the rest.
func (p *Pipeline) AutoTag(ctx context.Context, ids []string) {
	for _, id := range ids {
		item, ok := p.history.Get(id)
		if !ok {
			continue
		}
		tags, err := p.svc.SuggestTags(ctx, imageRef(item))
		if err != nil {
			p.logger.Warn().Err(err).Str("item_id", id).Msg("pipeline: auto-tag failed")
			continue
		}
		p.history.PatchByID(id, func(it *domain.HistoryItem) {
			it.Tags = MergeTags(it.Tags, tags)
		})
	}
}
