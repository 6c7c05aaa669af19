package assets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/storage"
)

type fakeMeta struct {
	mu    sync.Mutex
	saves map[string]int
	last  map[string][]domain.AssetImage
}

func newFakeMeta() *fakeMeta {
	return &fakeMeta{saves: make(map[string]int), last: make(map[string][]domain.AssetImage)}
}

func (m *fakeMeta) UpsertItem(ctx context.Context, item domain.HistoryItem) error { return nil }
func (m *fakeMeta) DeleteItem(ctx context.Context, id string) error               { return nil }

func (m *fakeMeta) SaveAssets(ctx context.Context, kind string, assets []domain.AssetImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[kind]++
	m.last[kind] = assets
	return nil
}

func (m *fakeMeta) saveCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[kind]
}

func (m *fakeMeta) lastSave(kind string) []domain.AssetImage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last[kind]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestAddAssignsIDAndLists(t *testing.T) {
	lib := NewLibrary(nil, nil, zerolog.Nop(), time.Second)

	added, err := lib.Add(KindLogo, domain.AssetImage{Name: "logo.png", Data: []byte{1}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.ID == "" {
		t.Fatal("no id assigned")
	}
	col := lib.List(KindLogo)
	if len(col) != 1 || col[0].ID != added.ID {
		t.Fatalf("List = %+v", col)
	}
	if len(lib.List(KindCharacter)) != 0 {
		t.Fatal("asset leaked into another collection")
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	lib := NewLibrary(nil, nil, zerolog.Nop(), time.Second)

	if _, err := lib.Add(Kind("weird"), domain.AssetImage{Data: []byte{1}}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown kind err = %v", err)
	}
	if _, err := lib.Add(KindLogo, domain.AssetImage{Name: "empty.png"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty payload err = %v", err)
	}
}

func TestRemoveUnknownAsset(t *testing.T) {
	lib := NewLibrary(nil, nil, zerolog.Nop(), time.Second)
	if err := lib.Remove(KindLogo, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSelectionCopiesEveryCollection(t *testing.T) {
	lib := NewLibrary(nil, nil, zerolog.Nop(), time.Second)
	if _, err := lib.Add(KindCharacter, domain.AssetImage{Data: []byte{1}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := lib.Add(KindProductPhoto, domain.AssetImage{Data: []byte{2}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	sel := lib.Selection()
	if len(sel.Characters) != 1 || len(sel.ProductPhotos) != 1 {
		t.Fatalf("selection = %+v", sel)
	}
	sel.Characters[0].Name = "mutated"
	if lib.List(KindCharacter)[0].Name == "mutated" {
		t.Fatal("selection shares backing data with the library")
	}
}

func TestDebounceCollapsesBurstsIntoOneSync(t *testing.T) {
	meta := newFakeMeta()
	lib := NewLibrary(nil, meta, zerolog.Nop(), 30*time.Millisecond)

	for i := 0; i < 5; i++ {
		if _, err := lib.Add(KindReference, domain.AssetImage{Data: []byte{byte(i + 1)}}); err != nil {
			t.Fatalf("Add: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, 2*time.Second, func() bool { return meta.saveCount("reference") > 0 })
	time.Sleep(60 * time.Millisecond)
	if got := meta.saveCount("reference"); got != 1 {
		t.Fatalf("sync count = %d, want 1", got)
	}
	if got := len(meta.lastSave("reference")); got != 5 {
		t.Fatalf("synced %d assets, want 5", got)
	}
}

func TestFlushMirrorsPendingChanges(t *testing.T) {
	meta := newFakeMeta()
	lib := NewLibrary(nil, meta, zerolog.Nop(), time.Hour)

	if _, err := lib.Add(KindLogo, domain.AssetImage{Data: []byte{1}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if meta.saveCount("logo") != 0 {
		t.Fatal("synced before the debounce elapsed")
	}

	lib.Flush(context.Background())
	if meta.saveCount("logo") != 1 {
		t.Fatalf("sync count after flush = %d, want 1", meta.saveCount("logo"))
	}
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	kv := newKV(t)
	lib := NewLibrary(kv, nil, zerolog.Nop(), time.Second)
	added, err := lib.Add(KindIllustration, domain.AssetImage{Name: "wave.png", Data: []byte{9}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	restored := NewLibrary(kv, nil, zerolog.Nop(), time.Second)
	if err := restored.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	col := restored.List(KindIllustration)
	if len(col) != 1 || col[0].ID != added.ID || col[0].Name != "wave.png" {
		t.Fatalf("restored = %+v", col)
	}
}

func newKV(t *testing.T) storage.KV {
	t.Helper()
	kv, err := storage.OpenSQLiteKV(t.TempDir() + "/assets.db")
	if err != nil {
		t.Fatalf("OpenSQLiteKV: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}
