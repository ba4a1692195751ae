package config

import (
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/doeshing/fieldx/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if len(cfg.Models) == 0 {
		return errors.New("at least one model must be configured")
	}
	if err := validateModels(cfg.Models); err != nil {
		return err
	}
	if cfg.Preferences.DefaultModel != "" {
		if _, ok := cfg.FindModelByName(cfg.Preferences.DefaultModel); !ok {
			return fmt.Errorf("default model %s not found in models list", cfg.Preferences.DefaultModel)
		}
	}
	if err := validatePreferences(cfg.Preferences); err != nil {
		return err
	}
	if err := validatePrompt(cfg.Prompt); err != nil {
		return err
	}
	if err := validateServer(cfg.Server); err != nil {
		return err
	}
	if cfg.Archive.Enabled && cfg.Archive.Path == "" {
		return errors.New("archive.path must be set when the archive is enabled")
	}
	return nil
}

func validateModels(models []domain.ModelDefinition) error {
	seen := make(map[string]bool, len(models))
	for i, model := range models {
		if model.Name == "" {
			return fmt.Errorf("models[%d].name must be set", i)
		}
		if seen[model.Name] {
			return fmt.Errorf("duplicate model name %s", model.Name)
		}
		seen[model.Name] = true

		switch model.Kind() {
		case domain.ProviderKindGemini, domain.ProviderKindOpenAI, domain.ProviderKindAnthropic,
			domain.ProviderKindOllama:
			if model.ModelID == "" {
				return fmt.Errorf("model %s: model_id must be set", model.Name)
			}
		case domain.ProviderKindOffline:
		default:
			return fmt.Errorf("model %s: unknown provider %q", model.Name, model.Provider)
		}
		if model.MaxPages < 0 {
			return fmt.Errorf("model %s: max_pages must be >= 0", model.Name)
		}
	}
	return nil
}

func validatePreferences(prefs domain.Preferences) error {
	if prefs.OutputStyle != "" {
		if _, err := domain.ParseOutputStyle(string(prefs.OutputStyle)); err != nil {
			return fmt.Errorf("preferences.output_style: %w", err)
		}
	}
	if prefs.WordLimit < 0 {
		return fmt.Errorf("preferences.word_limit: %w", domain.ErrWordLimit)
	}
	if prefs.HistoryCapacity < 0 {
		return errors.New("preferences.history_capacity must be >= 0")
	}
	if prefs.MaxFields < 0 {
		return errors.New("preferences.max_fields must be >= 0")
	}
	if prefs.TimeoutSeconds < 0 {
		return errors.New("preferences.timeout must be >= 0")
	}
	return nil
}

func validatePrompt(prompt domain.PromptSettings) error {
	if prompt.Template == "" {
		return nil
	}
	if _, err := template.New("prompt").Parse(prompt.Template); err != nil {
		return fmt.Errorf("prompt.template invalid: %w", err)
	}
	return nil
}

func validateServer(server domain.ServerSettings) error {
	if server.Port < 0 || server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", server.Port)
	}
	if server.SessionTTL != "" {
		ttl, err := time.ParseDuration(server.SessionTTL)
		if err != nil {
			return fmt.Errorf("server.session_ttl invalid: %w", err)
		}
		if ttl <= 0 {
			return errors.New("server.session_ttl must be positive")
		}
	}
	if server.MaxSessions < 0 || server.MaxConcurrentExtractions < 0 ||
		server.RateLimitPerMinute < 0 || server.RateLimitBurst < 0 {
		return errors.New("server limits must be >= 0")
	}
	return nil
}
