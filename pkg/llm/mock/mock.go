// Package mock provides a deterministic llm.Provider used when no real
// provider is configured. It lets the whole stack run, including tests,
// without API keys.
package mock

import (
	"context"
	"fmt"

	"github.com/user/souentd/pkg/llm"
)

// Provider returns canned responses that echo the last user message.
type Provider struct{}

func New() *Provider {
	return &Provider{}
}

// Complete returns a simulated response referencing the latest user
// message. No network calls are made.
func (p *Provider) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUser = req.Messages[i].Content
			break
		}
	}

	preview := lastUser
	if runes := []rune(preview); len(runes) > 50 {
		preview = string(runes[:50])
	}

	content := fmt.Sprintf("[MOCK RESPONSE - SLM-A1] I received your message: '%s...'. This is a simulated response because no AI provider is configured. Configure the llm provider and api key to enable real AI responses.", preview)

	return &llm.Response{
		Content: content,
		Model:   "mock",
		Usage: llm.Usage{
			InputTokens:  len(lastUser) / 4,
			OutputTokens: len(content) / 4,
			TotalTokens:  (len(lastUser) + len(content)) / 4,
		},
	}, nil
}
