package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/doeshing/fieldx/internal/domain"
)

func tierConfig() domain.Config {
	return domain.Config{
		Preferences: domain.Preferences{DefaultModel: "Balanced"},
		Models:      domain.DefaultModels(),
	}
}

// TestConfig_GetDefaultModel tests retrieving the default model
func TestConfig_GetDefaultModel(t *testing.T) {
	tests := []struct {
		name        string
		config      domain.Config
		wantError   bool
		wantModelID string
	}{
		{
			name:        "returns default model successfully",
			config:      tierConfig(),
			wantModelID: "gemini-2.5-flash-preview-05-20",
		},
		{
			name: "returns error when default model not found",
			config: domain.Config{
				Preferences: domain.Preferences{DefaultModel: "nonexistent"},
				Models:      domain.DefaultModels(),
			},
			wantError: true,
		},
		{
			name: "returns error when no default model configured",
			config: domain.Config{
				Models: domain.DefaultModels(),
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := tt.config.GetDefaultModel()

			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if model.ModelID != tt.wantModelID {
				t.Errorf("got model ID %s, want %s", model.ModelID, tt.wantModelID)
			}
		})
	}
}

// TestConfig_ResolveModel tests tier and model id lookup with fallbacks
func TestConfig_ResolveModel(t *testing.T) {
	cfg := tierConfig()

	tests := []struct {
		name        string
		input       string
		wantModelID string
		wantErr     error
	}{
		{name: "empty falls back to default", input: "", wantModelID: "gemini-2.5-flash-preview-05-20"},
		{name: "by tier name", input: "Fast", wantModelID: "gemma-3-27b-it"},
		{name: "by model id", input: "gemini-2.5-pro-preview-05-06", wantModelID: "gemini-2.5-pro-preview-05-06"},
		{name: "unknown", input: "Turbo", wantErr: domain.ErrUnknownModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := cfg.ResolveModel(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if model.ModelID != tt.wantModelID {
				t.Errorf("got %s, want %s", model.ModelID, tt.wantModelID)
			}
		})
	}

	empty := domain.Config{Models: domain.DefaultModels()}
	model, err := empty.ResolveModel("")
	if err != nil || model.Name != "Fast" {
		t.Errorf("without default: got %q, %v; want first model", model.Name, err)
	}
}

// TestConfig_AddModel tests adding a new model
func TestConfig_AddModel(t *testing.T) {
	cfg := tierConfig()

	if err := cfg.AddModel(domain.ModelDefinition{Name: "Local", Provider: domain.ProviderKindOllama, ModelID: "llama3"}); err != nil {
		t.Fatalf("AddModel: %v", err)
	}
	if !cfg.HasModel("Local") {
		t.Error("added model not found")
	}
	if err := cfg.AddModel(domain.ModelDefinition{Name: "Fast"}); err == nil {
		t.Error("expected duplicate model error")
	}
}

// TestConfig_RemoveModel tests removal and default reassignment
func TestConfig_RemoveModel(t *testing.T) {
	cfg := tierConfig()

	if err := cfg.RemoveModel("Balanced"); err != nil {
		t.Fatalf("RemoveModel: %v", err)
	}
	if cfg.Preferences.DefaultModel != "Fast" {
		t.Errorf("default moved to %q, want Fast", cfg.Preferences.DefaultModel)
	}
	if err := cfg.RemoveModel("Balanced"); err == nil {
		t.Error("expected error removing a missing model")
	}
}

// TestConfig_SetDefaultModel tests switching the default tier
func TestConfig_SetDefaultModel(t *testing.T) {
	cfg := tierConfig()

	if err := cfg.SetDefaultModel("gemma-3-27b-it"); err != nil {
		t.Fatalf("SetDefaultModel: %v", err)
	}
	if cfg.Preferences.DefaultModel != "Fast" {
		t.Errorf("default = %q, want tier name Fast", cfg.Preferences.DefaultModel)
	}
	if err := cfg.SetDefaultModel("missing"); err == nil {
		t.Error("expected error for unknown model")
	}
}

// TestConfig_Defaults tests zero-valued settings fall back to built-in defaults
func TestConfig_Defaults(t *testing.T) {
	var cfg domain.Config

	if cfg.GetHistoryCapacity() != domain.DefaultHistoryCapacity {
		t.Errorf("GetHistoryCapacity() = %d", cfg.GetHistoryCapacity())
	}
	if cfg.GetMaxFields() != domain.DefaultMaxFields {
		t.Errorf("GetMaxFields() = %d", cfg.GetMaxFields())
	}
	if cfg.GetTimeout() != domain.DefaultProviderTimeout {
		t.Errorf("GetTimeout() = %s", cfg.GetTimeout())
	}
	if cfg.GetOutputStyle() != domain.StyleParagraph {
		t.Errorf("GetOutputStyle() = %q", cfg.GetOutputStyle())
	}
	if cfg.GetMaxDocumentBytes() != domain.DefaultMaxDocumentBytes {
		t.Errorf("GetMaxDocumentBytes() = %d", cfg.GetMaxDocumentBytes())
	}

	cfg.Server.SessionTTL = "bogus"
	if cfg.GetSessionTTL() != domain.DefaultSessionTTL {
		t.Errorf("GetSessionTTL() with bad value = %s", cfg.GetSessionTTL())
	}
	cfg.Server.SessionTTL = "5m"
	if cfg.GetSessionTTL() != 5*time.Minute {
		t.Errorf("GetSessionTTL() = %s, want 5m", cfg.GetSessionTTL())
	}
}

// TestConfig_ValidateConsistency tests default model validation
func TestConfig_ValidateConsistency(t *testing.T) {
	cfg := tierConfig()
	if err := cfg.ValidateConsistency(); err != nil {
		t.Errorf("valid config: %v", err)
	}

	cfg.Preferences.DefaultModel = "Ghost"
	if err := cfg.ValidateConsistency(); err == nil {
		t.Error("expected error for missing default model")
	}

	cfg = domain.Config{Preferences: domain.Preferences{DefaultModel: "Fast"}}
	if err := cfg.ValidateConsistency(); err == nil {
		t.Error("expected error when no models configured")
	}
}

// TestModelDefinition_Kind tests provider inference
func TestModelDefinition_Kind(t *testing.T) {
	tests := []struct {
		model domain.ModelDefinition
		want  domain.ProviderKind
	}{
		{model: domain.ModelDefinition{}, want: domain.ProviderKindGemini},
		{model: domain.ModelDefinition{Provider: "Anthropic"}, want: domain.ProviderKindAnthropic},
		{model: domain.ModelDefinition{Endpoint: "https://api.anthropic.com/v1/messages"}, want: domain.ProviderKindAnthropic},
		{model: domain.ModelDefinition{Endpoint: "http://localhost:11434/api/chat"}, want: domain.ProviderKindOllama},
		{model: domain.ModelDefinition{Endpoint: "https://example.test/v1/chat/completions"}, want: domain.ProviderKindOpenAI},
	}

	for _, tt := range tests {
		if got := tt.model.Kind(); got != tt.want {
			t.Errorf("Kind(%+v) = %q, want %q", tt.model, got, tt.want)
		}
	}

	fast := domain.DefaultModels()[0]
	if !fast.ExceedsPageLimit(33) || fast.ExceedsPageLimit(32) {
		t.Error("Fast tier page cap should be 32")
	}
}
