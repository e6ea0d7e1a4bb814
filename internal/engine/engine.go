// Package engine generates model responses: it assembles
// token-budgeted prompts from session history and canonical memory,
// bounds concurrent provider calls, and retries transient failures.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/souentd/internal/types"
	"github.com/user/souentd/pkg/llm"
)

// Engine drives response generation against a single LLM provider.
type Engine struct {
	provider llm.Provider
	builder  *ContextBuilder
	retry    *RetryPolicy
	sem      *semaphore.Weighted
	timeout  time.Duration
	logger   *slog.Logger
}

// Options configures New.
type Options struct {
	Provider      llm.Provider
	Builder       *ContextBuilder
	Retry         *RetryPolicy
	MaxConcurrent int
	Timeout       time.Duration
	Logger        *slog.Logger
}

func New(opts Options) *Engine {
	if opts.Retry == nil {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		provider: opts.Provider,
		builder:  opts.Builder,
		retry:    opts.Retry,
		sem:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

// Generate produces an assistant response for the given conversation.
// history must already include the latest user message. Provider
// failures after retries surface as ErrUpstream.
func (e *Engine) Generate(ctx context.Context, history []types.Message, prefs *types.UserPreferences, tier types.Tier, canon *types.CanonMemory) (*llm.Response, error) {
	req, err := e.builder.Build(history, prefs, tier, canon)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	var resp *llm.Response
	err = e.retry.Execute(callCtx, func() error {
		var callErr error
		resp, callErr = e.provider.Complete(callCtx, req)
		return callErr
	})
	if err != nil {
		e.logger.Error("provider call failed", "error", err, "elapsed", time.Since(start))
		return nil, fmt.Errorf("%w: %v", types.ErrUpstream, err)
	}

	e.logger.Debug("generated response",
		"elapsed", time.Since(start),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)
	return resp, nil
}
