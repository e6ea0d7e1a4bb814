// internal/types/interfaces.go
package types

import "context"

// SessionStore owns the ephemeral per-conversation transcripts. Appends
// within a single session are serialized by the implementation; sessions
// are independent of each other.
type SessionStore interface {
	// Create allocates a new empty session and returns its identifier.
	Create(ctx context.Context) (SessionID, error)

	// Append adds a message to an existing session. Returns ErrNotFound
	// if the session does not exist.
	Append(ctx context.Context, id SessionID, msg Message) error

	// History returns the session's messages in append order. Returns
	// ErrNotFound if the session does not exist.
	History(ctx context.Context, id SessionID) ([]Message, error)

	// Clear removes a session. Clearing a non-existent session is not an
	// error.
	Clear(ctx context.Context, id SessionID) error

	// Sweep evicts sessions idle longer than the store's configured TTL
	// and returns how many were removed. Stores whose backend expires
	// keys natively may return 0 without scanning.
	Sweep(ctx context.Context) (int, error)

	// Close releases any backend resources.
	Close() error
}

// PreferenceStore persists per-user settings. Put replaces the whole
// record atomically.
type PreferenceStore interface {
	Get(ctx context.Context, userID UserID) (*UserPreferences, error)
	Put(ctx context.Context, prefs *UserPreferences) (*UserPreferences, error)
	Close() error
}

// CanonStore is the single source of truth for the canon memory document.
// Read is permitted at any tier; tier enforcement for Update happens at
// the boundary, before the store is reached.
type CanonStore interface {
	// Read returns a copy of the current document.
	Read(ctx context.Context) (*CanonMemory, error)

	// Update merges the supplied top-level fields into the document,
	// bumps the version, and returns the updated copy.
	Update(ctx context.Context, fields map[string]any) (*CanonMemory, error)
}
