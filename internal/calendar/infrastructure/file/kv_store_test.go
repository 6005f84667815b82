package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestKVStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "calendar.json")

	store, err := NewKVStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, ok, err := store.Get(ctx, "cc:stations"); err != nil || ok {
		t.Fatalf("expected missing key before first write, ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "cc:stations", `[{"id":"s1"}]`); err != nil {
		t.Fatalf("set stations: %v", err)
	}
	if err := store.Set(ctx, "cc:selectedStationId", "s1"); err != nil {
		t.Fatalf("set selection: %v", err)
	}
	if _, err := os.Stat(path + tmpSuffix); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away, stat err=%v", err)
	}

	reopened, err := NewKVStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	value, ok, err := reopened.Get(ctx, "cc:stations")
	if err != nil || !ok || value != `[{"id":"s1"}]` {
		t.Fatalf("unexpected value %q ok=%v err=%v", value, ok, err)
	}

	if err := reopened.Delete(ctx, "cc:selectedStationId"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "cc:selectedStationId"); ok {
		t.Fatalf("expected deleted key")
	}
}

func TestKVStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendar.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := NewKVStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, _, err := store.Get(context.Background(), "cc:stations"); err == nil {
		t.Fatalf("expected decode error")
	}
	if err := store.Set(context.Background(), "cc:stations", "[]"); err == nil {
		t.Fatalf("expected write to fail on corrupt document")
	}
}

func TestNewKVStore_EmptyPath(t *testing.T) {
	if _, err := NewKVStore(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
