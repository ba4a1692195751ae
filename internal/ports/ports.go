// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). Following the Ports and Adapters (Hexagonal) pattern,
// these interfaces allow the application to remain independent of specific
// implementations like model SDKs, document parsers, databases, or transports.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., Provider, ConfigProvider)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"

	"github.com/doeshing/fieldx/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.fieldx/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ConfigStore is a ConfigProvider that can also persist changes.
type ConfigStore interface {
	ConfigProvider
	Save(context.Context, domain.Config) error
	Path() string
}

// ProviderFactory builds AI provider instances based on model definitions.
type ProviderFactory interface {
	ForModel(domain.ModelDefinition) (Provider, error)
}

// Provider wraps one model backend (Gemini, OpenAI-compatible, Anthropic, Ollama, offline).
type Provider interface {
	Name() string
	Model() domain.ModelDefinition
	Generate(context.Context, ProviderRequest) (ProviderResponse, error)
}

// ProviderRequest carries the rendered prompt and the document it refers to.
// Providers that accept binary parts send Document.Data; the rest rely on the
// document text already embedded in Prompt.
type ProviderRequest struct {
	Prompt   string
	Document domain.Document
	Model    domain.ModelDefinition
}

// ProviderResponse is the model output.
type ProviderResponse struct {
	Text         string
	FinishReason string
}

// DocumentReader turns uploaded bytes into a Document.
type DocumentReader interface {
	Read(ctx context.Context, name string, data []byte) (domain.Document, error)
}

// ArchiveRepository persists extraction records beyond the session ledger.
type ArchiveRepository interface {
	Save(ctx context.Context, record domain.ArchivedRecord) error
	Records(ctx context.Context, limit int, search string) ([]domain.ArchivedRecord, error)
	Clear(ctx context.Context) error
	Path() string
}

// SessionStore keeps per-user sessions for multi-user surfaces.
// Update runs fn while holding the session's lock.
type SessionStore interface {
	Create(domain.SessionOptions) (*domain.Session, error)
	Update(id string, fn func(*domain.Session) error) error
	Delete(id string) bool
	Len() int
	OnEvict(fn func(id string))
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}

// PromptBuilder renders the extraction prompt.
type PromptBuilder interface {
	Build(PromptData) (string, error)
}

// PromptData is exposed to prompt templates.
// DocumentText is set only for providers that cannot read binary document parts.
type PromptData struct {
	Fields       []string
	OutputStyle  domain.OutputStyle
	WordLimit    int
	DocumentText string
}
