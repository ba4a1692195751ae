package doctor

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	appconfig "github.com/doeshing/fieldx/internal/application/config"
	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Archive        ports.ArchiveRepository
	Prompts        ports.PromptBuilder
	Getenv         func(string) string
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded format %s", cfg.ConfigFormatVersion)))

	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config values", err.Error()))
	} else {
		checks = append(checks, ok("Config values", fmt.Sprintf("%d models configured", len(cfg.Models))))
	}

	if model, err := cfg.GetDefaultModel(); err != nil {
		checks = append(checks, fail("Default model", err.Error()))
	} else {
		checks = append(checks, ok("Default model", fmt.Sprintf("%s (%s)", model.Name, model.ModelID)))
	}

	checks = append(checks, s.apiCheck(cfg.Models))
	checks = append(checks, s.promptCheck())
	checks = append(checks, s.archiveCheck(ctx, cfg.Archive))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) apiCheck(models []domain.ModelDefinition) domain.HealthCheck {
	missing := map[string]bool{}
	for _, model := range models {
		switch model.Kind() {
		case domain.ProviderKindGemini:
			if s.envMissing(model.AuthEnvVar, "GOOGLE_GENAI_API_KEY", "GEMINI_API_KEY") {
				missing[defaultEnv(model.AuthEnvVar, "GOOGLE_GENAI_API_KEY")] = true
			}
		case domain.ProviderKindAnthropic:
			if s.envMissing(model.AuthEnvVar, "ANTHROPIC_API_KEY") {
				missing[defaultEnv(model.AuthEnvVar, "ANTHROPIC_API_KEY")] = true
			}
		case domain.ProviderKindOpenAI:
			if s.envMissing(model.AuthEnvVar, "OPENAI_API_KEY") {
				missing[defaultEnv(model.AuthEnvVar, "OPENAI_API_KEY")] = true
			}
		}
	}
	if len(missing) == 0 {
		return ok("API keys", "detected for configured providers")
	}
	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return warn("API keys", strings.Join(names, ", ")+" missing")
}

func (s *Service) promptCheck() domain.HealthCheck {
	if s.Prompts == nil {
		return warn("Prompt template", "prompt builder not initialized")
	}
	_, err := s.Prompts.Build(ports.PromptData{
		Fields:      []string{"Invoice Date"},
		OutputStyle: domain.StyleParagraph,
	})
	if err != nil {
		return fail("Prompt template", err.Error())
	}
	return ok("Prompt template", "renders")
}

func (s *Service) archiveCheck(ctx context.Context, settings domain.ArchiveSettings) domain.HealthCheck {
	if !settings.Enabled {
		return ok("Archive", "disabled")
	}
	if s.Archive == nil {
		return warn("Archive", "enabled but not initialized")
	}
	if _, err := s.Archive.Records(ctx, 1, ""); err != nil {
		return fail("Archive", fmt.Sprintf("%s: %v", s.Archive.Path(), err))
	}
	return ok("Archive", s.Archive.Path())
}

func (s *Service) envMissing(names ...string) bool {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, name := range names {
		if name != "" && getenv(name) != "" {
			return false
		}
	}
	return true
}

func defaultEnv(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
