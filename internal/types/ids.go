// internal/types/ids.go
package types

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type SessionID string
type UserID string
type MessageID string

// NewSessionID returns a fresh session identifier of the form
// "session_<16 hex chars>". The 64 random bits make collisions with live
// sessions negligible; the session store still retries on the off chance.
func NewSessionID() SessionID {
	id := uuid.New()
	return SessionID("session_" + hex.EncodeToString(id[:8]))
}

// NewMessageID returns a lexicographically sortable unique message identifier.
func NewMessageID() MessageID {
	return MessageID(ulid.Make().String())
}

// ValidSessionID reports whether id looks like an identifier this system
// could have minted. Checked at the boundary so a crafted id never reaches
// a file-backed store as a path component.
func ValidSessionID(id string) bool {
	return validIdent(id, 64, false)
}

// ValidUserID applies the same character discipline to user identifiers,
// additionally allowing '@' and '.' for email-shaped ids.
func ValidUserID(id string) bool {
	return validIdent(id, 128, true)
}

func validIdent(s string, maxLen int, allowEmail bool) bool {
	if s == "" || len(s) > maxLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		case allowEmail && (r == '@' || r == '.'):
		default:
			return false
		}
	}
	return true
}
