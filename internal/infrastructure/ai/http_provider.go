package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// httpProvider talks to JSON chat APIs. These backends cannot read PDF bytes,
// so the document text travels inside the prompt.
type httpProvider struct {
	name       string
	model      domain.ModelDefinition
	httpClient *http.Client
	adapter    providerAdapter
}

type providerAdapter struct {
	endpoint      string
	buildRequest  func(domain.ModelDefinition, string) ([]byte, error)
	parseResponse func([]byte) (string, string, error)
	setHeaders    func(*http.Request, domain.ModelDefinition) error
}

func newHTTPProvider(name string, model domain.ModelDefinition, client *http.Client, adapter providerAdapter) ports.Provider {
	return &httpProvider{
		name:       name,
		model:      model,
		httpClient: client,
		adapter:    adapter,
	}
}

func (p *httpProvider) Name() string {
	return p.name
}

func (p *httpProvider) Model() domain.ModelDefinition {
	return p.model
}

func (p *httpProvider) Generate(ctx context.Context, req ports.ProviderRequest) (ports.ProviderResponse, error) {
	requestBody, err := p.adapter.buildRequest(p.model, req.Prompt)
	if err != nil {
		return ports.ProviderResponse{}, err
	}

	endpoint := defaultString(p.model.Endpoint, p.adapter.endpoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return ports.ProviderResponse{}, err
	}

	httpReq.Header.Set("content-type", "application/json")
	if err := p.adapter.setHeaders(httpReq, p.model); err != nil {
		return ports.ProviderResponse{}, err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return ports.ProviderResponse{}, fmt.Errorf("%w: %s: %v", domain.ErrProviderUnavailable, p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.ProviderResponse{}, fmt.Errorf("%w: %s: %v", domain.ErrProviderUnavailable, p.name, err)
	}

	if resp.StatusCode >= 400 {
		return ports.ProviderResponse{}, fmt.Errorf("%w: %s: %s: %s", domain.ErrProviderResponse, p.name, resp.Status, snippet(body))
	}

	content, finish, err := p.adapter.parseResponse(body)
	if err != nil {
		return ports.ProviderResponse{}, fmt.Errorf("%w: %s: %v", domain.ErrProviderResponse, p.name, err)
	}

	return ports.ProviderResponse{
		Text:         content,
		FinishReason: finish,
	}, nil
}

func anthropicAdapter() providerAdapter {
	return providerAdapter{
		endpoint:      "https://api.anthropic.com/v1/messages",
		buildRequest:  buildAnthropicRequest,
		parseResponse: parseAnthropicResponse,
		setHeaders:    setAnthropicHeaders,
	}
}

func openaiAdapter() providerAdapter {
	return providerAdapter{
		endpoint:      "https://api.openai.com/v1/chat/completions",
		buildRequest:  buildChatCompletionRequest,
		parseResponse: parseChatCompletionResponse,
		setHeaders:    setOpenAIHeaders,
	}
}

func ollamaAdapter() providerAdapter {
	return providerAdapter{
		endpoint:      "http://localhost:11434/api/chat",
		buildRequest:  buildChatCompletionRequest,
		parseResponse: parseChatCompletionResponse,
		setHeaders:    setOllamaHeaders,
	}
}

func buildAnthropicRequest(model domain.ModelDefinition, prompt string) ([]byte, error) {
	request := map[string]interface{}{
		"model":      defaultString(model.ModelID, "claude-3-5-sonnet-20240620"),
		"max_tokens": defaultInt(model.MaxTokens, domain.DefaultMaxTokens),
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]string{
					{"type": "text", "text": prompt},
				},
			},
		},
	}
	if model.Temperature != nil {
		request["temperature"] = *model.Temperature
	}
	return json.Marshal(request)
}

func parseAnthropicResponse(body []byte) (string, string, error) {
	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string    `json:"stop_reason"`
		Error      *apiError `json:"error"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return "", "", err
	}
	if response.Error != nil {
		return "", "", fmt.Errorf("%s", response.Error.Message)
	}

	var parts []string
	for _, block := range response.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "")), response.StopReason, nil
}

func setAnthropicHeaders(req *http.Request, model domain.ModelDefinition) error {
	apiKey := getEnv(model.AuthEnvVar, "ANTHROPIC_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("%w: set %s or ANTHROPIC_API_KEY", domain.ErrMissingAPIKey, model.AuthEnvVar)
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	return nil
}

func buildChatCompletionRequest(model domain.ModelDefinition, prompt string) ([]byte, error) {
	return json.Marshal(chatCompletionRequest{
		Model:       model.ModelID,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   model.MaxTokens,
		Temperature: model.Temperature,
	})
}

func parseChatCompletionResponse(body []byte) (string, string, error) {
	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", "", err
	}
	if response.Error != nil {
		return "", "", fmt.Errorf("%s", response.Error.Message)
	}
	content, finish := response.FirstMessage()
	return content, finish, nil
}

func setOpenAIHeaders(req *http.Request, model domain.ModelDefinition) error {
	apiKey := getEnv(model.AuthEnvVar, "OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("%w: set %s or OPENAI_API_KEY", domain.ErrMissingAPIKey, model.AuthEnvVar)
	}
	req.Header.Set("authorization", "Bearer "+apiKey)
	return nil
}

func setOllamaHeaders(req *http.Request, model domain.ModelDefinition) error {
	if apiKey := getEnv(model.AuthEnvVar); apiKey != "" {
		req.Header.Set("authorization", "Bearer "+apiKey)
	}
	return nil
}

func snippet(body []byte) string {
	const max = 200
	text := strings.TrimSpace(string(body))
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}
