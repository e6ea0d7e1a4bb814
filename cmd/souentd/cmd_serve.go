package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/souentd/internal/auth"
	"github.com/user/souentd/internal/chat"
	"github.com/user/souentd/internal/config"
	"github.com/user/souentd/internal/engine"
	"github.com/user/souentd/internal/httpapi"
	"github.com/user/souentd/internal/maintenance"
	"github.com/user/souentd/internal/state"
	"github.com/user/souentd/internal/telegram"
	"github.com/user/souentd/pkg/llm"
	"github.com/user/souentd/pkg/llm/anthropic"
	"github.com/user/souentd/pkg/llm/mock"
	"github.com/user/souentd/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the souentd daemon",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "souentd.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func buildProvider(cfg *config.Config) llm.Provider {
	providerCfg := &llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.TimeoutSec,
	}
	switch cfg.LLM.Provider {
	case "openai":
		return openai.New(providerCfg)
	case "anthropic":
		return anthropic.New(providerCfg)
	default:
		return mock.New()
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stores
	sessions, prefs, canon, err := state.NewStores(ctx, state.Options{
		StorageType: cfg.Memory.StorageType,
		DataDir:     cfg.DataDir,
		RedisURL:    cfg.Memory.RedisURL,
		SessionTTL:  time.Duration(cfg.Memory.SessionTTLSec) * time.Second,
		Logger:      slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}

	// LLM provider
	if cfg.LLM.Provider != "mock" && cfg.LLM.APIKey == "" {
		slog.Warn("no API key configured, responses will be mocked", "provider", cfg.LLM.Provider)
		cfg.LLM.Provider = "mock"
	}
	provider := buildProvider(cfg)

	// Context builder
	builder, err := engine.NewContextBuilder(cfg.LLM.Model, cfg.LLM.MaxContextTokens, cfg.LLM.OutputReserve)
	if err != nil {
		return fmt.Errorf("create context builder: %w", err)
	}

	eng := engine.New(engine.Options{
		Provider:      provider,
		Builder:       builder,
		MaxConcurrent: cfg.LLM.MaxConcurrent,
		Timeout:       time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})

	gate := auth.NewGate(cfg.Auth.AdvisoryAPIKey, cfg.Auth.AdminAPIKey)

	orch := chat.New(chat.Options{
		Gate:     gate,
		Sessions: sessions,
		Prefs:    prefs,
		Canon:    canon,
		Engine:   eng,
	})

	var limiter *httpapi.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = httpapi.NewRateLimiter(cfg.RateLimit.Requests,
			time.Duration(cfg.RateLimit.PeriodSec)*time.Second)
	}

	srv := httpapi.NewServer(httpapi.Options{
		Orchestrator: orch,
		Gate:         gate,
		Prefs:        prefs,
		Canon:        canon,
		Limiter:      limiter,
		Info: httpapi.SystemInfo{
			AppName:          cfg.AppName,
			Version:          cfg.Version,
			Environment:      "production",
			Provider:         cfg.LLM.Provider,
			Model:            cfg.LLM.Model,
			StorageType:      cfg.Memory.StorageType,
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        cfg.RateLimit.Requests,
			RateLimitPeriod:  cfg.RateLimit.PeriodSec,
			Temperature:      cfg.LLM.Temperature,
			MaxTokens:        cfg.LLM.MaxTokens,
		},
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	// Maintenance scheduler
	sched := maintenance.New(maintenance.Options{
		Sessions: sessions,
		Limiter:  limiter,
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start maintenance scheduler: %w", err)
	}
	defer sched.Stop()

	// Telegram adapter
	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, orch, slog.Default())
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		slog.Info("telegram adapter started")
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Listen,
		Handler: srv,
	}
	go func() {
		slog.Info("souentd started",
			"listen", cfg.HTTP.Listen,
			"data_dir", cfg.DataDir,
			"storage", cfg.Memory.StorageType,
			"llm_provider", cfg.LLM.Provider,
			"llm_model", cfg.LLM.Model,
			"rate_limit_enabled", cfg.RateLimit.Enabled,
			"pid_file", pidPath,
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}

		slog.Info("shutting down", "signal", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
		return nil
	}
}
