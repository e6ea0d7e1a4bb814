package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_IsRetryable(t *testing.T) {
	p := DefaultRetryPolicy()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"timeout", errors.New("request timeout exceeded"), true},
		{"rate limited", errors.New("API error (status 429): slow down"), true},
		{"server error", errors.New("API error (status 500): oops"), true},
		{"overloaded", errors.New("anthropic API error: overloaded_error"), true},
		{"invalid request", errors.New("invalid request body"), false},
		{"unauthorized", errors.New("unauthorized: bad key"), false},
		{"canceled", errors.New("context canceled"), false},
		{"unknown", errors.New("something odd happened"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryPolicy_NextDelay(t *testing.T) {
	p := &RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}

	if d := p.NextDelay(1); d != time.Second {
		t.Errorf("attempt 1: expected 1s, got %v", d)
	}
	if d := p.NextDelay(2); d != 2*time.Second {
		t.Errorf("attempt 2: expected 2s, got %v", d)
	}
	if d := p.NextDelay(10); d != 5*time.Second {
		t.Errorf("attempt 10: expected cap at 5s, got %v", d)
	}
}

func TestRetryPolicy_ExecuteRecovers(t *testing.T) {
	p := &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Multiplier:   1.0,
		MaxDelay:     time.Millisecond,
	}

	calls := 0
	err := p.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("timeout")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicy_ExecuteStopsOnPermanent(t *testing.T) {
	p := &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Multiplier:   1.0,
		MaxDelay:     time.Millisecond,
	}

	calls := 0
	err := p.Execute(context.Background(), func() error {
		calls++
		return errors.New("unauthorized")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for permanent error, got %d", calls)
	}
}

func TestRetryPolicy_ExecuteHonorsContext(t *testing.T) {
	p := &RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: time.Hour,
		Multiplier:   1.0,
		MaxDelay:     time.Hour,
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- p.Execute(ctx, func() error {
			return errors.New("timeout")
		})
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Execute did not return after cancel")
	}
}
