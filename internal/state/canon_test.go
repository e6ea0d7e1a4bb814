package state

import (
	"context"
	"errors"
	"testing"

	"github.com/user/souentd/internal/types"
)

func TestCanonStore_BootstrapsDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewCanonStore(t.TempDir())

	canon, err := store.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !canon.Locked {
		t.Error("expected canon memory to be locked")
	}
	if canon.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %s", canon.Version)
	}
	if canon.Model.Designation != "SLM-A1" || canon.Model.Name != "Anthroi-1" {
		t.Errorf("unexpected model descriptor: %+v", canon.Model)
	}
	if canon.SystemKnowledge["developer"] != "VelaPlex Systems" {
		t.Errorf("unexpected developer: %v", canon.SystemKnowledge["developer"])
	}
	if len(canon.Model.Characteristics) == 0 {
		t.Error("expected default characteristics")
	}
}

func TestCanonStore_UpdateSystemKnowledge(t *testing.T) {
	ctx := context.Background()
	store := NewCanonStore(t.TempDir())

	updated, err := store.Update(ctx, map[string]any{
		"system_knowledge": map[string]any{
			"region": "us-east",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if updated.SystemKnowledge["region"] != "us-east" {
		t.Errorf("expected merged key, got %v", updated.SystemKnowledge)
	}
	// Existing keys survive the merge.
	if updated.SystemKnowledge["developer"] != "VelaPlex Systems" {
		t.Errorf("expected existing keys preserved, got %v", updated.SystemKnowledge)
	}
	if updated.Version != "1.0.1" {
		t.Errorf("expected version bump to 1.0.1, got %s", updated.Version)
	}
	if updated.LastUpdated == nil {
		t.Error("expected last_updated to be set")
	}
}

func TestCanonStore_UpdateModelInfo(t *testing.T) {
	ctx := context.Background()
	store := NewCanonStore(t.TempDir())

	updated, err := store.Update(ctx, map[string]any{
		"model_info": map[string]any{
			"model_name": "Anthroi-2",
			"characteristics": []any{"Logic-first reasoning", "Terse answers"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Model.Name != "Anthroi-2" {
		t.Errorf("expected model name updated, got %s", updated.Model.Name)
	}
	if len(updated.Model.Characteristics) != 2 {
		t.Errorf("expected 2 characteristics, got %v", updated.Model.Characteristics)
	}
	// Untouched fields keep their values.
	if updated.Model.Designation != "SLM-A1" {
		t.Errorf("expected designation unchanged, got %s", updated.Model.Designation)
	}
}

func TestCanonStore_RejectsManagedFields(t *testing.T) {
	ctx := context.Background()
	store := NewCanonStore(t.TempDir())

	before, err := store.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}

	for _, field := range []string{"locked", "version"} {
		if _, err := store.Update(ctx, map[string]any{field: false}); !errors.Is(err, types.ErrValidation) {
			t.Errorf("field %s: expected ErrValidation, got %v", field, err)
		}
	}

	// A rejected update must not change anything, version included.
	after, err := store.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if after.Version != before.Version {
		t.Errorf("version changed after rejected update: %s -> %s", before.Version, after.Version)
	}
	if !after.Locked {
		t.Error("canon must stay locked")
	}
}

func TestCanonStore_RejectsUnknownFields(t *testing.T) {
	ctx := context.Background()
	store := NewCanonStore(t.TempDir())

	if _, err := store.Update(ctx, map[string]any{"favorite_color": "blue"}); !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown field, got %v", err)
	}
	if _, err := store.Update(ctx, map[string]any{}); !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected ErrValidation for empty update, got %v", err)
	}
}

func TestCanonStore_ReadsAreIsolatedCopies(t *testing.T) {
	ctx := context.Background()
	store := NewCanonStore(t.TempDir())

	first, err := store.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	first.SystemKnowledge["developer"] = "tampered"
	first.Model.Characteristics[0] = "tampered"
	first.Locked = false

	second, err := store.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second.SystemKnowledge["developer"] != "VelaPlex Systems" {
		t.Errorf("mutation through a returned copy leaked: %v", second.SystemKnowledge["developer"])
	}
	if second.Model.Characteristics[0] == "tampered" {
		t.Error("characteristics slice is shared with callers")
	}
	if !second.Locked {
		t.Error("locked flag changed through a returned copy")
	}
}

func TestCanonStore_UpdateVisibleToReaders(t *testing.T) {
	ctx := context.Background()
	store := NewCanonStore(t.TempDir())

	if _, err := store.Read(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Update(ctx, map[string]any{
		"system_knowledge": map[string]any{"region": "eu"},
	}); err != nil {
		t.Fatal(err)
	}

	canon, err := store.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if canon.Version != "1.0.1" {
		t.Errorf("expected version 1.0.1 after update, got %s", canon.Version)
	}
	if canon.SystemKnowledge["region"] != "eu" {
		t.Errorf("update not visible to subsequent read: %v", canon.SystemKnowledge["region"])
	}
}

func TestCanonStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := NewCanonStore(dir)
	if _, err := store.Update(ctx, map[string]any{
		"system_knowledge": map[string]any{"note": "kept"},
	}); err != nil {
		t.Fatal(err)
	}

	reopened := NewCanonStore(dir)
	canon, err := reopened.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if canon.SystemKnowledge["note"] != "kept" {
		t.Errorf("expected update to persist, got %v", canon.SystemKnowledge)
	}
	if canon.Version != "1.0.1" {
		t.Errorf("expected persisted version 1.0.1, got %s", canon.Version)
	}
}

func TestBumpVersion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1.0.0", "1.0.1"},
		{"1.0.9", "1.0.10"},
		{"2.3", "2.4"},
		{"7", "8"},
		{"abc", "abc.1"},
	}
	for _, tt := range tests {
		if got := bumpVersion(tt.in); got != tt.want {
			t.Errorf("bumpVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
