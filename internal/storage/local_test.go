package storage

import (
	"context"
	"errors"
	"testing"

	"flyerstudio/internal/domain"
)

func TestSQLiteKVRoundTrip(t *testing.T) {
	kv, err := OpenSQLiteKV(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer kv.Close()

	ctx := context.Background()
	if _, err := kv.Get(ctx, "history"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}

	if err := kv.Set(ctx, "history", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := kv.Get(ctx, "history")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[{"id":"a"}]` {
		t.Fatalf("unexpected value: %s", got)
	}

	// Overwrite replaces, not appends.
	if err := kv.Set(ctx, "history", []byte(`[]`)); err != nil {
		t.Fatalf("set again: %v", err)
	}
	got, err = kv.Get(ctx, "history")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if string(got) != `[]` {
		t.Fatalf("overwrite not applied: %s", got)
	}
}

func TestFileObjectStorePutAndRead(t *testing.T) {
	store, err := NewFileObjectStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	url, err := store.Put(context.Background(), "flyers/flyer-1.png", []byte{0x89, 0x50})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "http://localhost:8080/static/flyers/flyer-1.png" {
		t.Fatalf("unexpected url: %s", url)
	}
	data, err := store.Read("flyers/flyer-1.png")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) != 2 || data[0] != 0x89 {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestFileObjectStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileObjectStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Put(context.Background(), "../escape.png", []byte{1}); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}
