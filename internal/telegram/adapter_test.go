package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/user/souentd/internal/state"
	"github.com/user/souentd/internal/types"
)

func TestSplitMessage(t *testing.T) {
	short := "Hello world"
	parts := splitMessage(short)
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if parts[0] != short {
		t.Errorf("expected %q, got %q", short, parts[0])
	}
}

func TestSplitMessageLong(t *testing.T) {
	long := strings.Repeat("a", 5000)
	parts := splitMessage(long)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if len(parts[0]) != maxTelegramMessage {
		t.Errorf("expected first part length %d, got %d", maxTelegramMessage, len(parts[0]))
	}
}

func TestUserIDAcceptedByStores(t *testing.T) {
	id := userIDFor(123456)

	if !types.ValidUserID(string(id)) {
		t.Fatalf("user id %q fails validation", id)
	}

	// The file backend rejects invalid IDs before touching disk, so a
	// missing record must surface as not-found, not as a validation error.
	store := state.NewFilePreferenceStore(t.TempDir())
	ctx := context.Background()

	if _, err := store.Get(ctx, id); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unsaved user, got %v", err)
	}

	prefs := types.DefaultPreferences(id)
	prefs.TonePreference = types.ToneConcise
	if _, err := store.Put(ctx, prefs); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TonePreference != types.ToneConcise {
		t.Errorf("expected concise tone, got %q", got.TonePreference)
	}
}

func TestSessionTracking(t *testing.T) {
	a := &Adapter{sessions: make(map[int64]types.SessionID)}

	if got := a.sessionFor(42); got != "" {
		t.Errorf("expected no session for new chat, got %q", got)
	}

	a.rememberSession(42, "session_deadbeef00000000")
	if got := a.sessionFor(42); got != "session_deadbeef00000000" {
		t.Errorf("expected remembered session, got %q", got)
	}
	if got := a.sessionFor(43); got != "" {
		t.Errorf("expected no session for other chat, got %q", got)
	}
}
