package llm

import (
	"context"
	"testing"
)

// StubProvider is a test double that satisfies the Provider interface.
type StubProvider struct {
	CompleteFunc func(ctx context.Context, req *Request) (*Response, error)
}

func (s *StubProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if s.CompleteFunc != nil {
		return s.CompleteFunc(ctx, req)
	}
	return &Response{Content: "stub response"}, nil
}

func TestProviderInterface(t *testing.T) {
	var provider Provider = &StubProvider{}
	ctx := context.Background()

	resp, err := provider.Complete(ctx, &Request{
		System:   "be direct",
		Messages: []Message{{Role: "user", Content: "test"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content == "" {
		t.Error("expected non-empty content")
	}
}
