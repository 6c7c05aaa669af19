// Package history holds the shared collection of generated artifacts. The
// executor and every post-processing operation write to it concurrently; the
// discipline is id-keyed patches of single entries under the store mutex, so
// racing enrichments for different items never clobber each other.
package history

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/infra"
	"flyerstudio/internal/storage"
)

const itemsKey = "history/items"

// ChangeKind discriminates store change notifications.
type ChangeKind int

const (
	ChangeUpdated ChangeKind = iota
	ChangeRemoved
)

// ChangeFn receives a copy of the affected item after every store mutation.
type ChangeFn func(item domain.HistoryItem, kind ChangeKind)

// Filter narrows the listing returned by Items.
type Filter struct {
	Tag          string
	FavoriteOnly bool
	Side         domain.FlyerSide
}

// Store is the history collection, ordered most-recent-first. Every mutation
// is written through to the local store and mirrored to the remote metadata
// store best-effort; in-memory state stays authoritative for the session.
type Store struct {
	mu    sync.Mutex
	items []domain.HistoryItem

	kv       storage.KV
	meta     storage.MetadataStore
	logger   infra.Logger
	onChange ChangeFn
}

// NewStore creates an empty history store. kv and meta may be nil to disable
// the respective persistence layer.
func NewStore(kv storage.KV, meta storage.MetadataStore, logger infra.Logger) *Store {
	return &Store{kv: kv, meta: meta, logger: logger}
}

// SetOnChange registers a change callback. Must be called before the store is
// shared across goroutines.
func (s *Store) SetOnChange(fn ChangeFn) {
	s.onChange = fn
}

// Add prepends the item: newest first is the gallery order.
func (s *Store) Add(item domain.HistoryItem) {
	s.mu.Lock()
	s.items = append([]domain.HistoryItem{item.Clone()}, s.items...)
	snapshot := s.cloneLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	s.mirror(item)
	s.notify(item, ChangeUpdated)
}

// PatchByID applies mutate to a clone of the matching item and swaps the
// single entry in. Sibling entries are untouched, so concurrent patches to
// other items are never lost. A missing id is a no-op.
func (s *Store) PatchByID(id string, mutate func(*domain.HistoryItem)) (domain.HistoryItem, bool) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.HistoryItem{}, false
	}
	item := s.items[idx].Clone()
	mutate(&item)
	s.items[idx] = item
	snapshot := s.cloneLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	s.mirror(item)
	s.notify(item, ChangeUpdated)
	return item.Clone(), true
}

// Remove deletes the item with the given id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	removed := s.items[idx]
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	snapshot := s.cloneLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	if s.meta != nil {
		ctx, cancel := mirrorContext()
		defer cancel()
		if err := s.meta.DeleteItem(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("item_id", id).Msg("history: remote delete failed")
		}
	}
	s.notify(removed, ChangeRemoved)
	return nil
}

// Items returns a filtered copy of the collection, newest first.
func (s *Store) Items(f Filter) []domain.HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.HistoryItem, 0, len(s.items))
	for _, item := range s.items {
		if f.FavoriteOnly && !item.IsFavorite {
			continue
		}
		if f.Side != "" && item.Side != f.Side {
			continue
		}
		if f.Tag != "" && !item.HasTag(f.Tag) {
			continue
		}
		out = append(out, item.Clone())
	}
	return out
}

// Get returns a copy of the item with the given id.
func (s *Store) Get(id string) (domain.HistoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.HistoryItem{}, false
	}
	return s.items[idx].Clone(), true
}

// Len reports the number of items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Load restores the collection from the local store. Call once at startup.
func (s *Store) Load(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	data, err := s.kv.Get(ctx, itemsKey)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil
		}
		return err
	}
	var items []domain.HistoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

func (s *Store) indexLocked(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) cloneLocked() []domain.HistoryItem {
	out := make([]domain.HistoryItem, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

func (s *Store) persist(items []domain.HistoryItem) {
	if s.kv == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error().Err(err).Msg("history: marshal items for persistence")
		return
	}
	if err := s.kv.Set(context.Background(), itemsKey, data); err != nil {
		s.logger.Warn().Err(err).Msg("history: local persist failed, in-memory state remains authoritative")
	}
}

func (s *Store) mirror(item domain.HistoryItem) {
	if s.meta == nil {
		return
	}
	ctx, cancel := mirrorContext()
	defer cancel()
	if err := s.meta.UpsertItem(ctx, item); err != nil {
		s.logger.Warn().Err(err).Str("item_id", item.ID).Msg("history: remote mirror failed")
	}
}

func (s *Store) notify(item domain.HistoryItem, kind ChangeKind) {
	if s.onChange == nil {
		return
	}
	s.onChange(item.Clone(), kind)
}

func mirrorContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
