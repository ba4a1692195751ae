package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// geminiProvider sends the document as its own part followed by the prompt.
// PDFs travel as raw bytes; DOCX documents as their paragraph text.
type geminiProvider struct {
	model   domain.ModelDefinition
	apiKey  string
	options []option.ClientOption
}

func newGeminiProvider(model domain.ModelDefinition, apiKey string, extra ...option.ClientOption) ports.Provider {
	return &geminiProvider{
		model:   model,
		apiKey:  apiKey,
		options: extra,
	}
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) Model() domain.ModelDefinition {
	return p.model
}

func (p *geminiProvider) Generate(ctx context.Context, req ports.ProviderRequest) (ports.ProviderResponse, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(p.apiKey)}, p.options...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return ports.ProviderResponse{}, fmt.Errorf("%w: create gemini client: %v", domain.ErrProviderUnavailable, err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model.ModelID)
	if p.model.Temperature != nil {
		model.SetTemperature(*p.model.Temperature)
	}
	if p.model.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(p.model.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, contentParts(req)...)
	if err != nil {
		return ports.ProviderResponse{}, classifyGeminiError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ports.ProviderResponse{}, fmt.Errorf("%w: gemini returned no candidates", domain.ErrProviderResponse)
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	return ports.ProviderResponse{
		Text:         strings.TrimSpace(sb.String()),
		FinishReason: candidate.FinishReason.String(),
	}, nil
}

func contentParts(req ports.ProviderRequest) []genai.Part {
	parts := make([]genai.Part, 0, 2)
	switch {
	case req.Document.HasBinaryPart():
		parts = append(parts, genai.Blob{MIMEType: domain.MIMETypePDF, Data: req.Document.Data})
	case strings.TrimSpace(req.Document.Text) != "":
		parts = append(parts, genai.Text(req.Document.Text))
	}
	return append(parts, genai.Text(req.Prompt))
}

func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	var blocked *genai.BlockedError
	switch {
	case errors.As(err, &apiErr):
		return fmt.Errorf("%w: gemini: %d %s", domain.ErrProviderResponse, apiErr.Code, apiErr.Message)
	case errors.As(err, &blocked):
		return fmt.Errorf("%w: gemini: %v", domain.ErrProviderResponse, blocked)
	default:
		return err
	}
}
