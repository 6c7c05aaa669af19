// Package assets manages the reusable image collections users attach to
// generation jobs: characters, style references, logos, illustrations and
// customer or product photos. Collections are held in memory, written
// through to the local store, and mirrored to the metadata store on a
// per-kind debounce so rapid editing bursts collapse into one remote write.
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/infra"
	"flyerstudio/internal/storage"
)

// Kind names an asset collection.
type Kind string

const (
	KindCharacter     Kind = "character"
	KindReference     Kind = "reference"
	KindLogo          Kind = "logo"
	KindIllustration  Kind = "illustration"
	KindCustomerPhoto Kind = "customer_photo"
	KindProductPhoto  Kind = "product_photo"
)

// Kinds lists every collection in display order.
var Kinds = []Kind{KindCharacter, KindReference, KindLogo, KindIllustration, KindCustomerPhoto, KindProductPhoto}

func validKind(k Kind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Library is the in-memory asset store. Safe for concurrent use.
type Library struct {
	kv     storage.KV
	meta   storage.MetadataStore
	logger infra.Logger
	delay  time.Duration

	mu          sync.Mutex
	collections map[Kind][]domain.AssetImage
	timers      map[Kind]*time.Timer
	dirty       map[Kind]bool
}

// NewLibrary creates an empty library. kv and meta may be nil; delay controls
// how long a collection stays quiet before it is mirrored remotely.
func NewLibrary(kv storage.KV, meta storage.MetadataStore, logger infra.Logger, delay time.Duration) *Library {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Library{
		kv:          kv,
		meta:        meta,
		logger:      logger,
		delay:       delay,
		collections: make(map[Kind][]domain.AssetImage),
		timers:      make(map[Kind]*time.Timer),
		dirty:       make(map[Kind]bool),
	}
}

// Add registers an asset in the collection and returns it with its id filled
// in. The payload must be non-empty unless a remote URL is given.
func (l *Library) Add(kind Kind, asset domain.AssetImage) (domain.AssetImage, error) {
	if !validKind(kind) {
		return domain.AssetImage{}, fmt.Errorf("%w: unknown asset kind %q", domain.ErrInvalidInput, kind)
	}
	if len(asset.Data) == 0 && asset.URL == "" {
		return domain.AssetImage{}, fmt.Errorf("%w: asset needs a payload or url", domain.ErrInvalidInput)
	}
	if asset.ID == "" {
		asset.ID = "asset-" + uuid.NewString()
	}
	if asset.MIME == "" {
		asset.MIME = "image/png"
	}

	l.mu.Lock()
	l.collections[kind] = append(l.collections[kind], asset.Clone())
	l.mu.Unlock()

	l.persist(kind)
	l.scheduleSync(kind)
	return asset, nil
}

// Remove deletes an asset from the collection.
func (l *Library) Remove(kind Kind, id string) error {
	if !validKind(kind) {
		return fmt.Errorf("%w: unknown asset kind %q", domain.ErrInvalidInput, kind)
	}

	l.mu.Lock()
	col := l.collections[kind]
	idx := -1
	for i, a := range col {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return domain.ErrNotFound
	}
	l.collections[kind] = append(col[:idx], col[idx+1:]...)
	l.mu.Unlock()

	l.persist(kind)
	l.scheduleSync(kind)
	return nil
}

// List returns a copy of the collection.
func (l *Library) List(kind Kind) []domain.AssetImage {
	l.mu.Lock()
	defer l.mu.Unlock()
	col := l.collections[kind]
	out := make([]domain.AssetImage, len(col))
	for i, a := range col {
		out[i] = a.Clone()
	}
	return out
}

// Selection builds the full asset selection attached to new job snapshots.
func (l *Library) Selection() domain.AssetSelection {
	l.mu.Lock()
	defer l.mu.Unlock()
	clone := func(col []domain.AssetImage) []domain.AssetImage {
		out := make([]domain.AssetImage, len(col))
		for i, a := range col {
			out[i] = a.Clone()
		}
		return out
	}
	return domain.AssetSelection{
		Characters:     clone(l.collections[KindCharacter]),
		References:     clone(l.collections[KindReference]),
		Logos:          clone(l.collections[KindLogo]),
		Illustrations:  clone(l.collections[KindIllustration]),
		CustomerPhotos: clone(l.collections[KindCustomerPhoto]),
		ProductPhotos:  clone(l.collections[KindProductPhoto]),
	}
}

// Load restores every collection from the local store.
func (l *Library) Load(ctx context.Context) error {
	if l.kv == nil {
		return nil
	}
	for _, kind := range Kinds {
		raw, err := l.kv.Get(ctx, kvKey(kind))
		if err == domain.ErrNotFound {
			continue
		}
		if err != nil {
			return fmt.Errorf("load assets %s: %w", kind, err)
		}
		var col []domain.AssetImage
		if err := json.Unmarshal(raw, &col); err != nil {
			return fmt.Errorf("decode assets %s: %w", kind, err)
		}
		l.mu.Lock()
		l.collections[kind] = col
		l.mu.Unlock()
	}
	return nil
}

// Flush cancels pending debounce timers and mirrors every dirty collection
// immediately. Call on shutdown.
func (l *Library) Flush(ctx context.Context) {
	l.mu.Lock()
	var pending []Kind
	for kind, t := range l.timers {
		t.Stop()
		delete(l.timers, kind)
	}
	for kind := range l.dirty {
		pending = append(pending, kind)
		delete(l.dirty, kind)
	}
	l.mu.Unlock()

	for _, kind := range pending {
		l.sync(ctx, kind)
	}
}

func kvKey(kind Kind) string { return "assets/" + string(kind) }

func (l *Library) persist(kind Kind) {
	if l.kv == nil {
		return
	}
	l.mu.Lock()
	raw, err := json.Marshal(l.collections[kind])
	l.mu.Unlock()
	if err != nil {
		l.logger.Error().Err(err).Str("kind", string(kind)).Msg("assets: encode failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.kv.Set(ctx, kvKey(kind), raw); err != nil {
		l.logger.Warn().Err(err).Str("kind", string(kind)).Msg("assets: local persist failed")
	}
}

// scheduleSync arms the kind's debounce timer; a change while a timer is
// pending restarts the wait.
func (l *Library) scheduleSync(kind Kind) {
	if l.meta == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirty[kind] = true
	if t, ok := l.timers[kind]; ok {
		t.Stop()
	}
	l.timers[kind] = time.AfterFunc(l.delay, func() {
		l.mu.Lock()
		delete(l.timers, kind)
		wasDirty := l.dirty[kind]
		delete(l.dirty, kind)
		l.mu.Unlock()
		if !wasDirty {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		l.sync(ctx, kind)
	})
}

func (l *Library) sync(ctx context.Context, kind Kind) {
	if l.meta == nil {
		return
	}
	col := l.List(kind)
	if err := l.meta.SaveAssets(ctx, string(kind), col); err != nil {
		l.logger.Warn().Err(err).Str("kind", string(kind)).Msg("assets: remote sync failed")
		return
	}
	l.logger.Debug().Str("kind", string(kind)).Int("count", len(col)).Msg("assets: synced")
}
