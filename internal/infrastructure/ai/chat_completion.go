package ai

import "strings"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	// Ollama's /api/chat answers with a single message.
	Message    *chatMessage `json:"message,omitempty"`
	DoneReason string       `json:"done_reason,omitempty"`
	Error      *apiError    `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (c chatCompletionResponse) FirstMessage() (string, string) {
	if len(c.Choices) > 0 {
		return strings.TrimSpace(c.Choices[0].Message.Content), c.Choices[0].FinishReason
	}
	if c.Message != nil {
		return strings.TrimSpace(c.Message.Content), c.DoneReason
	}
	return "", ""
}
