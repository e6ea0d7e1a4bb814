package mock

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/user/souentd/pkg/llm"
)

func TestMockProvider(t *testing.T) {
	p := New()

	resp, err := p.Complete(context.Background(), &llm.Request{
		Messages: []llm.Message{
			{Role: "user", Content: "what is souent?"},
			{Role: "assistant", Content: "a chatbot"},
			{Role: "user", Content: "tell me more"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Content, "[MOCK RESPONSE - SLM-A1]") {
		t.Errorf("expected mock marker prefix, got %q", resp.Content)
	}
	// Echoes the latest user message, not an earlier one.
	if !strings.Contains(resp.Content, "tell me more") {
		t.Errorf("expected last user message echoed, got %q", resp.Content)
	}
}

func TestMockProvider_TruncatesLongMessages(t *testing.T) {
	p := New()

	long := strings.Repeat("a", 200)
	resp, err := p.Complete(context.Background(), &llm.Request{
		Messages: []llm.Message{{Role: "user", Content: long}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(resp.Content, long) {
		t.Error("expected message preview to be truncated")
	}
	if !strings.Contains(resp.Content, strings.Repeat("a", 50)) {
		t.Error("expected 50-char preview present")
	}
}

func TestMockProvider_TruncatesOnRuneBoundary(t *testing.T) {
	p := New()

	// Multibyte runes spanning the cutoff must not be split mid-sequence.
	long := strings.Repeat("é", 200)
	resp, err := p.Complete(context.Background(), &llm.Request{
		Messages: []llm.Message{{Role: "user", Content: long}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !utf8.ValidString(resp.Content) {
		t.Fatalf("response is not valid UTF-8: %q", resp.Content)
	}
	if !strings.Contains(resp.Content, strings.Repeat("é", 50)) {
		t.Error("expected 50-rune preview present")
	}
	if strings.Contains(resp.Content, strings.Repeat("é", 51)) {
		t.Error("expected preview capped at 50 runes")
	}
}
