package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/user/souentd/internal/chat"
	"github.com/user/souentd/internal/types"
)

// chatRequest is the JSON body for POST /api/v1/chat/message.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", types.ErrValidation))
		return
	}

	resp, err := s.orch.Send(r.Context(), &chat.Request{
		Message:    req.Message,
		SessionID:  types.SessionID(req.SessionID),
		UserID:     types.UserID(req.UserID),
		Credential: r.Header.Get("X-API-Key"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	id := types.SessionID(r.PathValue("session_id"))

	messages, err := s.orch.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":    id,
		"messages":      messages,
		"message_count": len(messages),
	})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := types.SessionID(r.PathValue("session_id"))

	if err := s.orch.ClearSession(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"session_id": id,
		"message":    "session cleared",
	})
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.orch.NewSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"created_at": time.Now().UTC(),
	})
}
