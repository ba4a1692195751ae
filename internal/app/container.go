package app

import (
	"context"

	"github.com/doeshing/fieldx/internal/application/doctor"
	"github.com/doeshing/fieldx/internal/application/extraction"
	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/infrastructure/ai"
	"github.com/doeshing/fieldx/internal/infrastructure/config"
	"github.com/doeshing/fieldx/internal/infrastructure/document"
	"github.com/doeshing/fieldx/internal/infrastructure/history"
	"github.com/doeshing/fieldx/internal/pkg/logger"
	"github.com/doeshing/fieldx/internal/ports"
)

// Options controls how the container is built.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Options           Options
	Config            domain.Config
	ConfigProvider    ports.ConfigProvider
	ConfigLoader      *config.FileLoader
	Logger            *logger.SlogLogger
	Documents         *document.Reader
	Prompts           *ai.PromptRenderer
	ExtractionService *extraction.Service
	DoctorService     *doctor.Service

	archive *history.SQLiteStore
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(opts.Verbose)
	prompts := ai.NewPromptRenderer(cfg.Prompt.Template)

	c := &Container{
		Options:        opts,
		Config:         cfg,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		Logger:         log,
		Documents:      document.NewReader(cfg.GetMaxDocumentBytes(), log),
		Prompts:        prompts,
	}

	c.ExtractionService = &extraction.Service{
		ConfigProvider:  cfgLoader,
		ProviderFactory: ai.NewFactory(),
		Prompts:         prompts,
		Logger:          log,
	}
	c.DoctorService = &doctor.Service{
		ConfigProvider: cfgLoader,
		Prompts:        prompts,
	}
	if cfg.Archive.Enabled {
		archive := c.Archive()
		c.ExtractionService.Archive = archive
		c.DoctorService.Archive = archive
	}

	return c, nil
}

// Archive opens the record archive on first use.
func (c *Container) Archive() ports.ArchiveRepository {
	if c.archive == nil {
		c.archive = history.NewSQLiteStore(c.Config.Archive.Path)
	}
	return c.archive
}

// NewSession starts a session seeded from the configured preferences.
func (c *Container) NewSession(id string) *domain.Session {
	return domain.NewSession(id, c.Config.SessionOptions())
}

// Close releases the archive database.
func (c *Container) Close() error {
	if c.archive == nil {
		return nil
	}
	return c.archive.Close()
}
