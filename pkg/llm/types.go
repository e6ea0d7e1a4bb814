package llm

// Message represents a chat message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries a system prompt and conversation messages to a provider.
type Request struct {
	System   string    `json:"system,omitempty"`
	Messages []Message `json:"messages"`
}

// Response represents a complete response from an LLM provider.
type Response struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
	Usage   Usage  `json:"usage"`
}

// Usage tracks token consumption for a request/response pair.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}
