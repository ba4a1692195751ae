package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/doeshing/fieldx/internal/domain"
)

const maxDocumentXMLBytes = 64 << 20

// docxParser reads the body paragraphs of word/document.xml, one per line.
// Table contents are not body paragraphs and are skipped.
type docxParser struct{}

func newDOCXParser() *docxParser {
	return &docxParser{}
}

func (p *docxParser) Kind() domain.DocumentKind     { return domain.DocumentDOCX }
func (p *docxParser) SupportedTypes() []string      { return []string{domain.MIMETypeDOCX} }
func (p *docxParser) SupportedExtensions() []string { return []string{".docx"} }

func (p *docxParser) Parse(ctx context.Context, data []byte) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrUnsupportedDocument, err)
	}

	body, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrUnsupportedDocument, err)
	}

	paras, err := paragraphs(body)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: word/document.xml: %v", domain.ErrUnsupportedDocument, err)
	}

	return domain.Document{
		Kind:     domain.DocumentDOCX,
		MIMEType: domain.MIMETypeDOCX,
		Data:     data,
		Text:     strings.Join(paras, "\n"),
	}, nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, maxDocumentXMLBytes))
	}
	return nil, fmt.Errorf("%s not found", name)
}

// paragraphs returns the text of each top-level <w:p> under <w:body>, empty ones included.
func paragraphs(b []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(b))

	var out []string
	inBody := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch {
		case se.Name.Local == "body":
			inBody = true
		case !inBody:
		case se.Name.Local == "p":
			text, err := paragraphText(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, text)
		default:
			if err := dec.Skip(); err != nil {
				return nil, err
			}
		}
	}
}

func paragraphText(dec *xml.Decoder) (string, error) {
	var runs []string
	depth := 1
	inText := false

	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				runs = append(runs, "\t")
			case "br", "cr":
				runs = append(runs, "\n")
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				runs = append(runs, string(t))
			}
		}
	}
	return strings.Join(runs, ""), nil
}
