package ai

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/ports"
)

// DefaultPromptTemplate asks for one "#### Field" section per field, "NA" when absent.
const DefaultPromptTemplate = `Role: You are a professional document content extraction assistant tasked with extracting specified fields from the uploaded document.

Please check the uploaded document for the presence of the following fields:

{{range .Fields}}**{{.}}**
{{end}}
If present, summarize the corresponding content under each field. If not, write 'NA' under that field.
{{.StyleLine}}
{{- if .LimitLine}}
{{.LimitLine}}{{end}}

<Example Output>

#### Field Name
Field Name Content

</Example Output>
{{if .DocumentText}}
<Document>
{{.DocumentText}}
</Document>
{{end}}`

// PromptRenderer expands the extraction prompt template.
type PromptRenderer struct {
	template string
}

// NewPromptRenderer uses custom when set, otherwise DefaultPromptTemplate.
func NewPromptRenderer(custom string) *PromptRenderer {
	if strings.TrimSpace(custom) == "" {
		custom = DefaultPromptTemplate
	}
	return &PromptRenderer{template: custom}
}

type templateData struct {
	ports.PromptData
	StyleLine string
	LimitLine string
}

// Build renders the prompt for data.
func (r *PromptRenderer) Build(data ports.PromptData) (string, error) {
	rendered, err := executeTemplate(r.template, templateData{
		PromptData: data,
		StyleLine:  styleLine(data.OutputStyle),
		LimitLine:  limitLine(data.WordLimit),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(rendered) + "\n", nil
}

func styleLine(style domain.OutputStyle) string {
	if style == domain.StyleBulletPoints {
		return "Write each summary as bullet points."
	}
	return "Write each summary as a short paragraph."
}

func limitLine(limit int) string {
	if limit <= 0 {
		return ""
	}
	return "Keep each summary within " + itoa(limit) + " words."
}

func executeTemplate(raw string, data templateData) (string, error) {
	tmpl, err := template.New("prompt").Parse(raw)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var _ ports.PromptBuilder = (*PromptRenderer)(nil)
