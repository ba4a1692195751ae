// Package ai builds model providers for extraction: the Gemini SDK provider,
// JSON chat providers over HTTP, and an offline provider.
package ai

import (
	"fmt"
	"net/http"

	"google.golang.org/api/option"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// Factory creates providers from model definitions.
type Factory struct {
	httpClient    *http.Client
	geminiOptions []option.ClientOption
}

// NewFactory creates a factory sharing one HTTP client across chat providers.
func NewFactory(geminiOptions ...option.ClientOption) *Factory {
	return &Factory{
		httpClient:    &http.Client{Timeout: domain.DefaultHTTPClientTimeout},
		geminiOptions: geminiOptions,
	}
}

func (f *Factory) ForModel(model domain.ModelDefinition) (ports.Provider, error) {
	providerKind := model.Kind()

	switch providerKind {
	case domain.ProviderKindGemini:
		apiKey := getEnv(model.AuthEnvVar, "GOOGLE_GENAI_API_KEY", "GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("%w: set %s or GEMINI_API_KEY", domain.ErrMissingAPIKey, defaultString(model.AuthEnvVar, "GOOGLE_GENAI_API_KEY"))
		}
		return newGeminiProvider(model, apiKey, f.geminiOptions...), nil
	case domain.ProviderKindAnthropic:
		return newHTTPProvider("anthropic", model, f.httpClient, anthropicAdapter()), nil
	case domain.ProviderKindOpenAI:
		return newHTTPProvider("openai", model, f.httpClient, openaiAdapter()), nil
	case domain.ProviderKindOllama:
		return newHTTPProvider("ollama", model, f.httpClient, ollamaAdapter()), nil
	case domain.ProviderKindOffline:
		return newOfflineProvider(model), nil
	default:
		return nil, fmt.Errorf("unsupported provider kind: %s", providerKind)
	}
}

var _ ports.ProviderFactory = (*Factory)(nil)
