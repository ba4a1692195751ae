// Package document turns uploaded bytes into domain documents. Content is
// sniffed with mimetype and dispatched to the PDF or DOCX parser.
package document

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// Parser handles one document format.
type Parser interface {
	Kind() domain.DocumentKind
	SupportedTypes() []string
	SupportedExtensions() []string
	Parse(ctx context.Context, data []byte) (domain.Document, error)
}

// Reader resolves a parser for each upload.
type Reader struct {
	maxBytes    int64
	byMIME      map[string]Parser
	byExtension map[string]Parser
	logger      ports.Logger
}

// NewReader creates a reader accepting PDF and DOCX up to maxBytes (0 means the default cap).
func NewReader(maxBytes int64, logger ports.Logger) *Reader {
	if maxBytes <= 0 {
		maxBytes = domain.DefaultMaxDocumentBytes
	}
	r := &Reader{
		maxBytes:    maxBytes,
		byMIME:      make(map[string]Parser),
		byExtension: make(map[string]Parser),
		logger:      logger,
	}
	r.Register(newPDFParser(logger))
	r.Register(newDOCXParser())
	return r
}

// Register adds p under its MIME types and extensions.
func (r *Reader) Register(p Parser) {
	for _, mt := range p.SupportedTypes() {
		if key := strings.ToLower(strings.TrimSpace(mt)); key != "" {
			r.byMIME[key] = p
		}
	}
	for _, ext := range p.SupportedExtensions() {
		if key := strings.ToLower(strings.TrimSpace(ext)); key != "" {
			r.byExtension[key] = p
		}
	}
}

// Read parses data named name.
func (r *Reader) Read(ctx context.Context, name string, data []byte) (domain.Document, error) {
	if int64(len(data)) > r.maxBytes {
		return domain.Document{}, fmt.Errorf("%w: %d bytes, limit %d", domain.ErrDocumentTooLarge, len(data), r.maxBytes)
	}
	if len(data) == 0 {
		return domain.Document{}, fmt.Errorf("%w: empty file", domain.ErrUnsupportedDocument)
	}

	detected := mimetype.Detect(data)
	parser, err := r.resolve(detected, filepath.Ext(name))
	if err != nil {
		return domain.Document{}, err
	}

	doc, err := parser.Parse(ctx, data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("parse %s: %w", name, err)
	}
	doc.Name = filepath.Base(name)

	if r.logger != nil {
		r.logger.Debug("document loaded", map[string]interface{}{
			"name":  doc.Name,
			"kind":  doc.Kind,
			"bytes": doc.Size(),
			"pages": doc.Pages,
		})
	}
	return doc, nil
}

// resolve prefers the sniffed type; generic containers fall back to the extension.
func (r *Reader) resolve(detected *mimetype.MIME, extension string) (Parser, error) {
	for mt := detected; mt != nil; mt = mt.Parent() {
		if p, ok := r.byMIME[strings.ToLower(mt.String())]; ok {
			return p, nil
		}
	}
	if detected.Is("application/zip") || detected.Is("application/octet-stream") {
		if p, ok := r.byExtension[strings.ToLower(extension)]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: detected %s", domain.ErrUnsupportedDocument, detected.String())
}

var _ ports.DocumentReader = (*Reader)(nil)
