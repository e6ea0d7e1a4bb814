package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	AppName  string `json:"app_name"`
	Version  string `json:"version"`
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
	HTTP     struct {
		Listen         string   `json:"listen"`
		AllowedOrigins []string `json:"allowed_origins"`
	} `json:"http"`
	Auth struct {
		AdvisoryAPIKey string `json:"advisory_api_key"`
		AdminAPIKey    string `json:"admin_api_key"`
	} `json:"auth"`
	Memory struct {
		StorageType   string `json:"storage_type"` // memory, file, redis
		RedisURL      string `json:"redis_url"`
		SessionTTLSec int    `json:"session_ttl_seconds"`
	} `json:"memory"`
	RateLimit struct {
		Enabled   bool `json:"enabled"`
		Requests  int  `json:"requests"`
		PeriodSec int  `json:"period_seconds"`
	} `json:"rate_limit"`
	LLM struct {
		Provider         string  `json:"provider"` // openai, anthropic, mock
		BaseURL          string  `json:"base_url"`
		APIKey           string  `json:"api_key"`
		Model            string  `json:"model"`
		MaxTokens        int     `json:"max_tokens"`
		Temperature      float32 `json:"temperature"`
		MaxContextTokens int     `json:"max_context_tokens"`
		OutputReserve    int     `json:"output_reserve"`
		MaxConcurrent    int     `json:"max_concurrent"`
		TimeoutSec       int     `json:"timeout_seconds"`
	} `json:"llm"`
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		AppName:  "Souent",
		Version:  "1.0.0",
		DataDir:  filepath.Join(os.Getenv("HOME"), ".souentd"),
		LogLevel: "info",
	}
	cfg.HTTP.Listen = "127.0.0.1:8000"
	cfg.HTTP.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	cfg.Memory.StorageType = "file"
	cfg.Memory.RedisURL = "redis://localhost:6379/0"
	cfg.Memory.SessionTTLSec = 3600
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Requests = 60
	cfg.RateLimit.PeriodSec = 60
	cfg.LLM.Provider = "mock"
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4-turbo-preview"
	cfg.LLM.MaxTokens = 2048
	cfg.LLM.Temperature = 0.7
	cfg.LLM.MaxContextTokens = 128000
	cfg.LLM.OutputReserve = 4096
	cfg.LLM.MaxConcurrent = 4
	cfg.LLM.TimeoutSec = 60

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if key := os.Getenv("SOUENT_ADMIN_API_KEY"); key != "" {
		cfg.Auth.AdminAPIKey = key
	}
	if key := os.Getenv("SOUENT_ADVISORY_API_KEY"); key != "" {
		cfg.Auth.AdvisoryAPIKey = key
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Memory.RedisURL = url
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.LLM.Provider == "openai" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.LLM.Provider == "anthropic" {
		cfg.LLM.APIKey = key
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}

	return cfg, nil
}

// Save writes the config as indented JSON, atomically (temp file + rename).
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ListValues returns the config as a flat dot-separated key map. When
// maskSecrets is true, secret values are shown as "***" + last 4 chars.
func ListValues(cfg *Config, maskSecrets bool) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, err
	}
	flat := Flatten(nested)
	if maskSecrets {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue loads the config at path and returns the value for the given
// dot-separated key. Secrets are masked.
func GetValue(path, key string) (any, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	values, err := ListValues(cfg, true)
	if err != nil {
		return nil, err
	}
	val, ok := values[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return val, nil
}

// SetValue loads the config at path, sets the dot-separated key to the
// given value (coercing numbers and booleans), and saves it back.
func SetValue(path, key, value string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}
	flat := Flatten(nested)
	if _, ok := flat[key]; !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	flat[key] = coerce(value)

	updated, err := json.Marshal(Unflatten(flat))
	if err != nil {
		return err
	}
	out := &Config{}
	if err := json.Unmarshal(updated, out); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return Save(path, out)
}

// coerce interprets a CLI string as bool, int, or float where possible.
func coerce(value string) any {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
