package state

import (
	"context"
	"errors"
	"testing"

	"github.com/user/souentd/internal/types"
)

func prefStores(t *testing.T) map[string]types.PreferenceStore {
	t.Helper()
	return map[string]types.PreferenceStore{
		"memory": NewMemoryPreferenceStore(),
		"file":   NewFilePreferenceStore(t.TempDir()),
	}
}

func TestPreferenceStore_PutGet(t *testing.T) {
	ctx := context.Background()

	for name, store := range prefStores(t) {
		t.Run(name, func(t *testing.T) {
			prefs := types.DefaultPreferences("user-1")
			prefs.TonePreference = types.ToneConcise
			prefs.MaxResponseLength = 200

			stored, err := store.Put(ctx, prefs)
			if err != nil {
				t.Fatal(err)
			}
			if stored.UpdatedAt.IsZero() {
				t.Error("expected UpdatedAt to be set on Put")
			}

			got, err := store.Get(ctx, "user-1")
			if err != nil {
				t.Fatal(err)
			}
			if got.TonePreference != types.ToneConcise {
				t.Errorf("expected concise, got %v", got.TonePreference)
			}
			if got.MaxResponseLength != 200 {
				t.Errorf("expected max length 200, got %d", got.MaxResponseLength)
			}
		})
	}
}

func TestPreferenceStore_GetMissing(t *testing.T) {
	ctx := context.Background()

	for name, store := range prefStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get(ctx, "nobody"); !errors.Is(err, types.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestFilePreferenceStore_RejectsPathTraversal(t *testing.T) {
	ctx := context.Background()
	store := NewFilePreferenceStore(t.TempDir())

	prefs := types.DefaultPreferences("../../etc/passwd")
	if _, err := store.Put(ctx, prefs); !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected ErrValidation for traversal id, got %v", err)
	}
	if _, err := store.Get(ctx, "../escape"); !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected ErrValidation for traversal id, got %v", err)
	}
}

func TestCachedPreferenceStore_ReadThrough(t *testing.T) {
	ctx := context.Background()

	inner := NewMemoryPreferenceStore()
	store, err := NewCachedPreferenceStore(inner)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	prefs := types.DefaultPreferences("cached-user")
	if _, err := store.Put(ctx, prefs); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "cached-user")
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "cached-user" {
		t.Errorf("unexpected user id: %v", got.UserID)
	}

	// A write through the cache updates what reads see.
	got.TonePreference = types.ToneDetailed
	if _, err := store.Put(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, err := store.Get(ctx, "cached-user")
	if err != nil {
		t.Fatal(err)
	}
	if again.TonePreference != types.ToneDetailed {
		t.Errorf("expected detailed after update, got %v", again.TonePreference)
	}
}

func TestFilePreferenceStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := NewFilePreferenceStore(dir)
	prefs := types.DefaultPreferences("durable-user")
	prefs.CustomSettings = map[string]any{"theme": "dark"}
	if _, err := store.Put(ctx, prefs); err != nil {
		t.Fatal(err)
	}

	reopened := NewFilePreferenceStore(dir)
	got, err := reopened.Get(ctx, "durable-user")
	if err != nil {
		t.Fatal(err)
	}
	if got.CustomSettings["theme"] != "dark" {
		t.Errorf("expected custom settings to persist, got %v", got.CustomSettings)
	}
}
