package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// pdfParser keeps the raw bytes for providers that read PDFs natively,
// counts pages with pdfcpu and extracts plain text with ledongthuc/pdf.
type pdfParser struct {
	logger ports.Logger
}

func newPDFParser(logger ports.Logger) *pdfParser {
	return &pdfParser{logger: logger}
}

func (p *pdfParser) Kind() domain.DocumentKind     { return domain.DocumentPDF }
func (p *pdfParser) SupportedTypes() []string      { return []string{domain.MIMETypePDF} }
func (p *pdfParser) SupportedExtensions() []string { return []string{".pdf"} }

func (p *pdfParser) Parse(ctx context.Context, data []byte) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}

	pages, err := pageCount(data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrUnsupportedDocument, err)
	}

	text, err := plainText(data)
	if err != nil && p.logger != nil {
		p.logger.Warn("pdf text extraction failed", map[string]interface{}{"error": err.Error()})
	}

	return domain.Document{
		Kind:     domain.DocumentPDF,
		MIMEType: domain.MIMETypePDF,
		Data:     data,
		Text:     text,
		Pages:    pages,
	}, nil
}

func pageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return ctx.PageCount, nil
}

// plainText joins page texts with blank lines. Pages that fail are skipped.
func plainText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf text: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(content)
	}
	return sb.String(), nil
}
