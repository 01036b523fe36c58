package storage

import (
	"context"
	"testing"
)

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Put(ctx, "a/b.json", []byte("hello")); err != nil {
		t.Fatalf("put: %v", err)
	}

	data, err := store.Get(ctx, "a/b.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected hello, got %q", data)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_HeadAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(ctx, "k", []byte("v"))

	ok, err := store.Head(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected head true, got %v %v", ok, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	ok, _ = store.Head(ctx, "k")
	if ok {
		t.Fatal("expected head false after delete")
	}
}

func TestMemoryStore_ListByPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(ctx, "privacy/agents/a.json", []byte("1"))
	store.Put(ctx, "privacy/agents/b.json", []byte("2"))
	store.Put(ctx, "privacy/channels/c/metadata.json", []byte("3"))

	keys, err := store.List(ctx, "privacy/agents/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}
