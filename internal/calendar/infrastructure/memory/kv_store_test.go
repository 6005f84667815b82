package memory

import (
	"context"
	"testing"
)

func TestKVStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore()

	if _, ok, err := store.Get(ctx, "cc:stations"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "cc:stations", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := store.Get(ctx, "cc:stations")
	if err != nil || !ok || value != "[]" {
		t.Fatalf("unexpected get %q ok=%v err=%v", value, ok, err)
	}
	if err := store.Delete(ctx, "cc:stations"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "cc:stations"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
	if err := store.Set(ctx, "", "x"); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
