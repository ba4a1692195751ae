package extraction

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// Service runs one extraction for a session: document and fields in, ledger record out.
type Service struct {
	ConfigProvider  ports.ConfigProvider
	ProviderFactory ports.ProviderFactory
	Prompts         ports.PromptBuilder
	Archive         ports.ArchiveRepository
	Logger          ports.Logger
	Now             func() time.Time
}

// Plan is everything Run would send to a provider.
type Plan struct {
	Model    domain.ModelDefinition
	Prompt   string
	Document domain.Document
	Fields   []string
	Timeout  time.Duration
}

// Preview renders the plan for the session without calling a provider.
// It does not require a pending extraction.
func (s *Service) Preview(ctx context.Context, session *domain.Session) (Plan, error) {
	if err := s.validate(); err != nil {
		return Plan{}, err
	}
	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return Plan{}, fmt.Errorf("load config: %w", err)
	}
	return s.plan(cfg, session)
}

// Run executes the pending extraction. On success the record is pushed to the
// session ledger and returned; on failure the ledger is left untouched.
// The pending flag is cleared either way.
func (s *Service) Run(ctx context.Context, session *domain.Session) (domain.ExtractionRecord, error) {
	if err := s.validate(); err != nil {
		return domain.ExtractionRecord{}, err
	}
	if !session.Pending() {
		return domain.ExtractionRecord{}, domain.ErrNotRequested
	}
	defer session.CompleteExtraction()

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.ExtractionRecord{}, fmt.Errorf("load config: %w", err)
	}

	plan, err := s.plan(cfg, session)
	if err != nil {
		return domain.ExtractionRecord{}, err
	}

	provider, err := s.ProviderFactory.ForModel(plan.Model)
	if err != nil {
		if errors.Is(err, domain.ErrMissingAPIKey) {
			return domain.ExtractionRecord{}, domain.NewAppError(domain.CodeConfig, "provider credentials missing", err)
		}
		return domain.ExtractionRecord{}, fmt.Errorf("provider init: %w", err)
	}

	s.Logger.Info("calling provider", map[string]interface{}{
		"provider": provider.Name(),
		"model":    plan.Model.ModelID,
		"document": plan.Document.Name,
		"fields":   len(plan.Fields),
	})

	callCtx, cancel := context.WithTimeout(ctx, plan.Timeout)
	defer cancel()

	started := s.now()
	resp, err := provider.Generate(callCtx, ports.ProviderRequest{
		Prompt:   plan.Prompt,
		Document: plan.Document,
		Model:    plan.Model,
	})
	elapsed := s.now().Sub(started)
	if err != nil {
		classified := classifyProviderError(err)
		fields := map[string]interface{}{
			"model":   plan.Model.ModelID,
			"elapsed": elapsed.String(),
		}
		if errors.Is(classified, context.Canceled) {
			s.Logger.Warn("extraction canceled", fields)
		} else {
			s.Logger.Error("provider call failed", classified, fields)
		}
		return domain.ExtractionRecord{}, classified
	}
	if strings.TrimSpace(resp.Text) == "" {
		return domain.ExtractionRecord{}, domain.NewAppError(domain.CodeAI, "provider returned no text", domain.ErrProviderResponse)
	}

	record := domain.NewExtractionRecord(domain.RecordInput{
		Model:          plan.Model.ModelID,
		Tier:           plan.Model.Name,
		Fields:         plan.Fields,
		OutputStyle:    session.OutputStyle(),
		WordCountLimit: session.WordLimit(),
		DocumentName:   plan.Document.Name,
		Duration:       elapsed,
		ResultText:     resp.Text,
	}, s.now())
	session.Ledger().Push(record)

	s.Logger.Info("extraction recorded", map[string]interface{}{
		"model":   record.Model,
		"history": session.Ledger().Len(),
		"elapsed": elapsed.String(),
	})

	if cfg.Archive.Enabled && s.Archive != nil {
		archived := domain.ArchivedRecord{
			ID:               uuid.NewString(),
			SessionID:        session.ID,
			ExtractionRecord: record.Clone(),
		}
		if err := s.Archive.Save(ctx, archived); err != nil {
			s.Logger.Warn("archive save failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return record, nil
}

func (s *Service) plan(cfg domain.Config, session *domain.Session) (Plan, error) {
	doc, ok := session.Document()
	if !ok {
		return Plan{}, domain.ErrNoDocument
	}
	fields := session.Fields()
	if len(fields) == 0 {
		return Plan{}, domain.ErrNoFields
	}

	model, err := cfg.ResolveModel(session.ModelName())
	if err != nil {
		return Plan{}, err
	}
	if doc.Kind == domain.DocumentPDF && model.ExceedsPageLimit(doc.Pages) {
		return Plan{}, fmt.Errorf("%w: %d pages, %s allows %d", domain.ErrPageLimit, doc.Pages, model.Name, model.MaxPages)
	}

	data := ports.PromptData{
		Fields:      fields,
		OutputStyle: session.OutputStyle(),
		WordLimit:   session.WordLimit(),
	}
	if !model.AcceptsBinaryDocuments() {
		if strings.TrimSpace(doc.Text) == "" {
			return Plan{}, domain.NewAppError(domain.CodeDocument, "document has no extractable text for "+model.Name, domain.ErrUnsupportedDocument)
		}
		data.DocumentText = doc.Text
	}

	prompt, err := s.Prompts.Build(data)
	if err != nil {
		return Plan{}, fmt.Errorf("render prompt: %w", err)
	}

	return Plan{
		Model:    model,
		Prompt:   prompt,
		Document: doc,
		Fields:   fields,
		Timeout:  cfg.GetTimeout(),
	}, nil
}

func (s *Service) validate() error {
	if s.ConfigProvider == nil || s.ProviderFactory == nil || s.Prompts == nil || s.Logger == nil {
		return errors.New("extraction.Service dependencies not satisfied")
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func classifyProviderError(err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		// the caller went away; not a provider fault
		return fmt.Errorf("extraction canceled: %w", err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, domain.ErrProviderUnavailable),
		errors.As(err, &netErr):
		return domain.NewAppError(domain.CodeNetwork, "provider unreachable", err)
	case errors.Is(err, domain.ErrMissingAPIKey):
		return domain.NewAppError(domain.CodeConfig, "provider credentials missing", err)
	default:
		return domain.NewAppError(domain.CodeAI, "provider call failed", err)
	}
}
