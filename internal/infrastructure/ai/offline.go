package ai

import (
	"context"
	"strings"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// offlineProvider answers without a model: every field is reported as absent.
type offlineProvider struct {
	model domain.ModelDefinition
}

func newOfflineProvider(model domain.ModelDefinition) ports.Provider {
	return &offlineProvider{model: model}
}

func (p *offlineProvider) Name() string {
	return "offline"
}

func (p *offlineProvider) Model() domain.ModelDefinition {
	return p.model
}

func (p *offlineProvider) Generate(ctx context.Context, req ports.ProviderRequest) (ports.ProviderResponse, error) {
	if err := ctx.Err(); err != nil {
		return ports.ProviderResponse{}, err
	}
	var b strings.Builder
	for _, field := range fieldsFromPrompt(req.Prompt) {
		b.WriteString("#### ")
		b.WriteString(field)
		b.WriteString("\nNA\n\n")
	}
	return ports.ProviderResponse{
		Text:         strings.TrimSpace(b.String()),
		FinishReason: "offline",
	}, nil
}

// fieldsFromPrompt recovers the "**Field**" lines of the rendered prompt.
func fieldsFromPrompt(prompt string) []string {
	var fields []string
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 4 && strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") {
			fields = append(fields, strings.TrimSuffix(strings.TrimPrefix(line, "**"), "**"))
		}
	}
	return fields
}
