package engine

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/souentd/internal/types"
	"github.com/user/souentd/pkg/llm"
)

// historyWindow bounds how many trailing messages are considered for
// the prompt before token budgeting applies.
const historyWindow = 10

// ContextBuilder assembles token-budgeted prompts from session history.
type ContextBuilder struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
}

// NewContextBuilder creates a context builder with the specified token
// budget. model selects the tokenizer (e.g. "gpt-4"); unknown models
// fall back to cl100k_base. maxTokens is the model's context window
// size and reserve is held back for the model's response.
func NewContextBuilder(model string, maxTokens, reserve int) (*ContextBuilder, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &ContextBuilder{
		tokenizer: enc,
		maxTokens: maxTokens,
		reserve:   reserve,
	}, nil
}

func (b *ContextBuilder) countTokens(text string) int {
	return len(b.tokenizer.Encode(text, nil, nil))
}

// Build assembles the provider request: the system prompt plus as much
// of the trailing conversation as fits the input budget. History is
// trimmed oldest-first so the newest exchange always survives.
func (b *ContextBuilder) Build(history []types.Message, prefs *types.UserPreferences, tier types.Tier, canon *types.CanonMemory) (*llm.Request, error) {
	sysPrompt := BuildSystemPrompt(prefs, tier, canon)
	budget := b.maxTokens - b.reserve - b.countTokens(sysPrompt)
	if budget <= 0 {
		return nil, fmt.Errorf("system prompt exceeds context budget")
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	// Walk backwards so the newest messages claim budget first.
	used := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		tokens := b.countTokens(history[i].Content)
		if used+tokens > budget {
			break
		}
		used += tokens
		start = i
	}

	messages := make([]llm.Message, 0, len(history)-start)
	for _, msg := range history[start:] {
		role := string(msg.Role)
		if msg.Role == types.RoleSystem {
			// System notes inside the transcript are folded in as user
			// context; the provider-level system slot is the prompt.
			role = "user"
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}

	if len(messages) == 0 {
		return nil, fmt.Errorf("no history fits the context budget")
	}

	return &llm.Request{System: sysPrompt, Messages: messages}, nil
}
