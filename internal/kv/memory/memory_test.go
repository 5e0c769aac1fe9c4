package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreGetSetRemove(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, found, err := s.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("unexpected get: found=%v err=%v", found, err)
	}

	value := []byte(`[1,2]`)
	if err := s.Set(ctx, "k", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[1] = '9' // caller mutations must not leak into the store

	got, found, err := s.Get(ctx, "k")
	if err != nil || !found || string(got) != `[1,2]` {
		t.Fatalf("unexpected get: %q found=%v err=%v", got, found, err)
	}

	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("removing an absent key should succeed: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
}

func TestNewFromDirSeeds(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("user-1_accounts.json", `[{"id":"a"}]`)
	mustWrite("broken.json", `{not json`)
	mustWrite("notes.txt", `ignored`)

	s := NewFromDir(dir)
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	got, found, _ := s.Get(context.Background(), "user-1_accounts")
	if !found || string(got) != `[{"id":"a"}]` {
		t.Fatalf("unexpected seed: %q found=%v", got, found)
	}

	if NewFromDir(filepath.Join(dir, "missing")).Len() != 0 {
		t.Fatal("missing directory should give an empty store")
	}
}
