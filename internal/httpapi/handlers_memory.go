package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/user/souentd/internal/types"
)

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if !types.ValidUserID(userID) {
		writeError(w, fmt.Errorf("%w: invalid user id", types.ErrValidation))
		return
	}

	prefs, err := s.prefs.Get(r.Context(), types.UserID(userID))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			writeError(w, fmt.Errorf("%w: no preferences saved for user %q", types.ErrNotFound, userID))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs types.UserPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", types.ErrValidation))
		return
	}

	if err := validatePreferences(&prefs); err != nil {
		writeError(w, err)
		return
	}

	stored, err := s.prefs.Put(r.Context(), &prefs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func validatePreferences(prefs *types.UserPreferences) error {
	if prefs.UserID == "" {
		return fmt.Errorf("%w: user_id is required", types.ErrValidation)
	}
	if !types.ValidUserID(string(prefs.UserID)) {
		return fmt.Errorf("%w: invalid user id", types.ErrValidation)
	}
	if prefs.TonePreference == "" {
		prefs.TonePreference = types.ToneBalanced
	}
	if _, err := types.ParseTone(string(prefs.TonePreference)); err != nil {
		return fmt.Errorf("%w: %v", types.ErrValidation, err)
	}
	if prefs.MaxResponseLength == 0 {
		prefs.MaxResponseLength = 500
	}
	if prefs.MaxResponseLength < 50 || prefs.MaxResponseLength > 2000 {
		return fmt.Errorf("%w: max_response_length must be between 50 and 2000", types.ErrValidation)
	}
	return nil
}

func (s *Server) handleGetCanon(w http.ResponseWriter, r *http.Request) {
	canon, err := s.canon.Read(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, canon)
}

func (s *Server) handlePutCanon(w http.ResponseWriter, r *http.Request) {
	if _, err := s.gate.Require(r.Header.Get("X-API-Key"), types.TierAdminReady); err != nil {
		s.logger.Warn("unauthorized canon update attempt", "ip", clientIP(r))
		writeError(w, err)
		return
	}

	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", types.ErrValidation))
		return
	}

	canon, err := s.canon.Update(r.Context(), updates)
	if err != nil {
		writeError(w, err)
		return
	}

	fields := make([]string, 0, len(updates))
	for k := range updates {
		fields = append(fields, k)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"message":        "canon memory updated",
		"version":        canon.Version,
		"updated_fields": fields,
		"timestamp":      time.Now().UTC(),
	})
}

func (s *Server) handleCanonInfo(w http.ResponseWriter, r *http.Request) {
	canon, err := s.canon.Read(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"locked":        canon.Locked,
		"version":       canon.Version,
		"last_updated":  canon.LastUpdated,
		"model_name":    canon.Model.Name,
		"model_version": canon.Model.Version,
	})
}
