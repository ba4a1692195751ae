// Package domain defines core business entities and value objects for fieldx.
//
// This file contains model (tier) and provider definitions used throughout the
// application. The domain layer is independent of infrastructure concerns.
package domain

import "strings"

// ProviderKind enumerates supported provider backends.
type ProviderKind string

const (
	ProviderKindGemini    ProviderKind = "gemini"
	ProviderKindOpenAI    ProviderKind = "openai"
	ProviderKindAnthropic ProviderKind = "anthropic"
	ProviderKindOllama    ProviderKind = "ollama"
	ProviderKindOffline   ProviderKind = "offline"
	ProviderKindUnknown   ProviderKind = ""
)

// ModelDefinition describes one selectable performance tier declared in the config file.
// Name is the tier label shown to the user ("Fast"), ModelID the provider's model identifier.
type ModelDefinition struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Provider    ProviderKind `yaml:"provider,omitempty"`
	Endpoint    string       `yaml:"endpoint,omitempty"`
	AuthEnvVar  string       `yaml:"auth_env_var,omitempty"`
	ModelID     string       `yaml:"model_id"`
	MaxTokens   int          `yaml:"max_tokens,omitempty"`
	MaxPages    int          `yaml:"max_pages,omitempty"`
	Temperature *float32     `yaml:"temperature,omitempty"`
}

// Kind returns the declared provider or infers it from the endpoint.
// Definitions without provider and endpoint target Gemini.
func (m ModelDefinition) Kind() ProviderKind {
	if m.Provider != ProviderKindUnknown {
		return ProviderKind(strings.ToLower(string(m.Provider)))
	}
	endpoint := strings.ToLower(m.Endpoint)
	switch {
	case endpoint == "", strings.Contains(endpoint, "generativelanguage.googleapis.com"):
		return ProviderKindGemini
	case strings.Contains(endpoint, "anthropic.com"):
		return ProviderKindAnthropic
	case strings.Contains(endpoint, "openai.com"):
		return ProviderKindOpenAI
	case strings.Contains(endpoint, "11434"), strings.Contains(endpoint, "localhost"):
		return ProviderKindOllama
	default:
		return ProviderKindOpenAI
	}
}

// AcceptsBinaryDocuments reports whether the provider takes raw PDF bytes.
func (m ModelDefinition) AcceptsBinaryDocuments() bool {
	return m.Kind() == ProviderKindGemini
}

// ExceedsPageLimit reports whether a document with pages pages is over the tier cap.
func (m ModelDefinition) ExceedsPageLimit(pages int) bool {
	return m.MaxPages > 0 && pages > m.MaxPages
}

// DefaultModels mirrors the three tiers the application ships with.
func DefaultModels() []ModelDefinition {
	return []ModelDefinition{
		{
			Name:        "Fast",
			Description: "High speed, supports up to 32 pages, zero token cost",
			Provider:    ProviderKindGemini,
			AuthEnvVar:  "GOOGLE_GENAI_API_KEY",
			ModelID:     "gemma-3-27b-it",
			MaxPages:    32,
		},
		{
			Name:        "Balanced",
			Description: "Balanced performance and cost, 1x token cost",
			Provider:    ProviderKindGemini,
			AuthEnvVar:  "GOOGLE_GENAI_API_KEY",
			ModelID:     "gemini-2.5-flash-preview-05-20",
		},
		{
			Name:        "Best Performance",
			Description: "For complex tasks, 15x token cost",
			Provider:    ProviderKindGemini,
			AuthEnvVar:  "GOOGLE_GENAI_API_KEY",
			ModelID:     "gemini-2.5-pro-preview-05-06",
		},
	}
}
