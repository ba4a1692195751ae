package domain

// DocumentKind identifies the supported upload formats.
type DocumentKind string

const (
	DocumentPDF  DocumentKind = "pdf"
	DocumentDOCX DocumentKind = "docx"
)

// MIME types of the supported formats.
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Document is an uploaded file prepared for extraction.
// PDFs keep their raw bytes so providers that accept binary parts receive them unchanged;
// Text holds the extracted plain text used by text-only providers.
type Document struct {
	Name     string
	Kind     DocumentKind
	MIMEType string
	Data     []byte
	Text     string
	Pages    int
}

// Size returns the raw document size in bytes.
func (d Document) Size() int {
	return len(d.Data)
}

// HasBinaryPart reports whether the document should be sent as raw bytes.
func (d Document) HasBinaryPart() bool {
	return d.Kind == DocumentPDF && len(d.Data) > 0
}
