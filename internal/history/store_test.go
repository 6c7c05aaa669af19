package history

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/storage"
)

func testItem(id string) domain.HistoryItem {
	return domain.HistoryItem{
		ID:        id,
		Data:      "data:image/png;base64,iVBO",
		Side:      domain.FlyerSideFront,
		CreatedAt: time.Now().UTC(),
	}
}

func TestAddPrependsNewestFirst(t *testing.T) {
	s := NewStore(nil, nil, zerolog.Nop())
	s.Add(testItem("old"))
	s.Add(testItem("new"))

	items := s.Items(Filter{})
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "new" || items[1].ID != "old" {
		t.Fatalf("history not newest-first: %s, %s", items[0].ID, items[1].ID)
	}
}

func TestPatchByIDTouchesOnlyTarget(t *testing.T) {
	s := NewStore(nil, nil, zerolog.Nop())
	s.Add(testItem("a"))
	s.Add(testItem("b"))

	s.PatchByID("a", func(item *domain.HistoryItem) {
		item.IsFavorite = true
		item.Tags = append(item.Tags, "keeper")
	})

	a, _ := s.Get("a")
	if !a.IsFavorite || !a.HasTag("keeper") {
		t.Fatalf("patch not applied: %+v", a)
	}
	b, _ := s.Get("b")
	if b.IsFavorite || len(b.Tags) != 0 {
		t.Fatalf("sibling item modified: %+v", b)
	}
}

func TestPatchByIDMissingIsNoop(t *testing.T) {
	s := NewStore(nil, nil, zerolog.Nop())
	if _, ok := s.PatchByID("ghost", func(item *domain.HistoryItem) { item.IsFavorite = true }); ok {
		t.Fatalf("patch of missing id should report not found")
	}
}

func TestConcurrentPatchesAreNotLost(t *testing.T) {
	s := NewStore(nil, nil, zerolog.Nop())
	const n = 20
	for i := 0; i < n; i++ {
		s.Add(testItem(itemID(i)))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s.PatchByID(id, func(item *domain.HistoryItem) { item.IsFavorite = true })
		}(itemID(i))
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		item, ok := s.Get(itemID(i))
		if !ok || !item.IsFavorite {
			t.Fatalf("patch lost for %s", itemID(i))
		}
	}
}

func itemID(i int) string {
	return fmt.Sprintf("item-%02d", i)
}

func TestFilter(t *testing.T) {
	s := NewStore(nil, nil, zerolog.Nop())
	fav := testItem("fav")
	fav.IsFavorite = true
	fav.Tags = []string{"Bakery"}
	back := testItem("back")
	back.Side = domain.FlyerSideBack
	s.Add(testItem("plain"))
	s.Add(fav)
	s.Add(back)

	if got := s.Items(Filter{FavoriteOnly: true}); len(got) != 1 || got[0].ID != "fav" {
		t.Fatalf("favorite filter: %+v", got)
	}
	if got := s.Items(Filter{Side: domain.FlyerSideBack}); len(got) != 1 || got[0].ID != "back" {
		t.Fatalf("side filter: %+v", got)
	}
	if got := s.Items(Filter{Tag: "Bakery"}); len(got) != 1 || got[0].ID != "fav" {
		t.Fatalf("tag filter: %+v", got)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	kv, err := storage.OpenSQLiteKV(":memory:")
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	defer kv.Close()

	s := NewStore(kv, nil, zerolog.Nop())
	item := testItem("a")
	item.Tags = []string{"bakery"}
	item.QualityCheck = &domain.QualityCheck{Status: domain.QualityPass, Summary: "clean"}
	s.Add(item)
	s.PatchByID("a", func(i *domain.HistoryItem) { i.IsFavorite = true })

	restored := NewStore(kv, nil, zerolog.Nop())
	if err := restored.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := restored.Get("a")
	if !ok {
		t.Fatalf("item not restored")
	}
	if !got.IsFavorite || !got.HasTag("bakery") {
		t.Fatalf("restored fields mismatch: %+v", got)
	}
	if got.QualityCheck == nil || got.QualityCheck.Status != domain.QualityPass {
		t.Fatalf("quality check not restored: %+v", got.QualityCheck)
	}
}

func TestRemove(t *testing.T) {
	s := NewStore(nil, nil, zerolog.Nop())
	s.Add(testItem("a"))
	if err := s.Remove("a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove("a"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("item still present")
	}
}
