package httpapi

import (
	"net/http"
	"time"
)

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	canon, err := s.canon.Read(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current_model": map[string]any{
			"designation":      canon.Model.Designation,
			"name":             canon.Model.Name,
			"version":          canon.Model.Version,
			"status":           "active",
			"characteristics":  canon.Model.Characteristics,
			"underlying_model": s.info.Provider + "/" + s.info.Model,
		},
		"available_models": []map[string]any{
			{
				"designation": canon.Model.Designation,
				"name":        canon.Model.Name,
				"status":      "active",
			},
			{
				"designation": "SLM-A2",
				"name":        "Anthroi-2",
				"status":      "planned",
				"description": "Next generation Souent Logic Model",
			},
		},
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"application": map[string]any{
			"name":        s.info.AppName,
			"version":     s.info.Version,
			"environment": s.info.Environment,
		},
		"model": map[string]any{
			"designation":      "SLM-A1",
			"name":             "Anthroi-1",
			"provider":         s.info.Provider,
			"underlying_model": s.info.Model,
		},
		"memory": map[string]any{
			"storage_type": s.info.StorageType,
			"layers": []string{
				"Ephemeral Session Memory",
				"Persistent User Preferences",
				"Locked Canon Memory",
			},
		},
		"features": map[string]any{
			"tone_harmonization":  true,
			"context_weave":       true,
			"authorization_tiers": []string{"basic", "advisory", "admin_ready"},
			"rate_limiting":       s.info.RateLimitEnabled,
		},
		"uptime_seconds": time.Since(s.started).Seconds(),
		"status":         "operational",
		"timestamp":      time.Now().UTC(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	rateLimit := map[string]any{"enabled": s.info.RateLimitEnabled}
	if s.info.RateLimitEnabled {
		rateLimit["requests_per_period"] = s.info.RateLimit
		rateLimit["period_seconds"] = s.info.RateLimitPeriod
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"app_name":       s.info.AppName,
		"version":        s.info.Version,
		"environment":    s.info.Environment,
		"ai_provider":    s.info.Provider,
		"memory_storage": s.info.StorageType,
		"rate_limiting":  rateLimit,
		"model_settings": map[string]any{
			"temperature": s.info.Temperature,
			"max_tokens":  s.info.MaxTokens,
		},
	})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	canon, err := s.canon.Read(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"capabilities":    canon.Model.Capabilities,
		"characteristics": canon.Model.Characteristics,
		"limitations": []string{
			"Cannot access real-time information",
			"Cannot execute code or perform actions in external systems",
			"Cannot claim emotions or consciousness",
			"Cannot engage in extended fictional roleplay",
			"Limited to training data and provided context",
		},
		"authorization_tiers": map[string]string{
			"basic":       "Standard user interaction",
			"advisory":    "Enhanced context access for detailed analysis",
			"admin_ready": "System administration and canon memory modification",
		},
	})
}
