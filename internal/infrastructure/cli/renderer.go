package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/doeshing/fieldx/internal/application/extraction"
	"github.com/doeshing/fieldx/internal/domain"
)

// RenderRecord prints one extraction record under a title.
func RenderRecord(out io.Writer, title string, rec domain.ExtractionRecord) {
	model := rec.Model
	if rec.Tier != "" {
		model = fmt.Sprintf("%s / %s", rec.Tier, rec.Model)
	}
	fmt.Fprintf(out, "=== %s extraction ===\n", title)
	fmt.Fprintf(out, "Model: %s\n", model)
	fmt.Fprintf(out, "Time: %s", rec.Timestamp.Local().Format("2006-01-02 15:04:05"))
	if rec.Duration > 0 {
		fmt.Fprintf(out, " (%s)", rec.Duration.Round(100*time.Millisecond))
	}
	fmt.Fprintln(out)
	if rec.DocumentName != "" {
		fmt.Fprintf(out, "Document: %s\n", rec.DocumentName)
	}
	fmt.Fprintf(out, "Fields: %s\n", strings.Join(rec.Fields, ", "))
	limit := "none"
	if rec.WordCountLimit > 0 {
		limit = fmt.Sprintf("%d words", rec.WordCountLimit)
	}
	fmt.Fprintf(out, "Style: %s, limit: %s\n\n", rec.OutputStyle, limit)
	fmt.Fprintln(out, strings.TrimSpace(rec.ResultText))
}

// RenderHistory prints the latest result and, when present, the previous one.
func RenderHistory(out io.Writer, ledger *domain.Ledger) {
	latest, ok := ledger.Latest()
	if !ok {
		fmt.Fprintln(out, "No extractions yet.")
		return
	}
	RenderRecord(out, "Latest", latest)
	if previous, ok := ledger.Previous(); ok {
		fmt.Fprintln(out)
		RenderRecord(out, "Previous", previous)
	}
}

// RenderPlan prints what a dry run would send.
func RenderPlan(out io.Writer, plan extraction.Plan) {
	fmt.Fprintf(out, "Model: %s (%s, %s)\n", plan.Model.Name, plan.Model.ModelID, plan.Model.Kind())
	fmt.Fprintf(out, "Document: %s (%s, %d bytes", plan.Document.Name, plan.Document.Kind, plan.Document.Size())
	if plan.Document.Pages > 0 {
		fmt.Fprintf(out, ", %d pages", plan.Document.Pages)
	}
	fmt.Fprintln(out, ")")
	if plan.Model.AcceptsBinaryDocuments() && plan.Document.HasBinaryPart() {
		fmt.Fprintln(out, "Document is sent as a binary part.")
	}
	fmt.Fprintf(out, "Timeout: %s\n\n", plan.Timeout)
	fmt.Fprintln(out, "Prompt:")
	fmt.Fprintln(out, plan.Prompt)
}

// RenderFields prints the numbered field list.
func RenderFields(out io.Writer, session *domain.Session) {
	fields := session.Fields()
	if len(fields) == 0 {
		fmt.Fprintln(out, "No fields added yet.")
		return
	}
	fmt.Fprintf(out, "Fields (%d/%d):\n", len(fields), session.MaxFields())
	for i, field := range fields {
		fmt.Fprintf(out, "  %d. %s\n", i+1, field)
	}
}

// RenderError prints a failed extraction with its category.
func RenderError(out io.Writer, err error) {
	switch domain.ErrorCode(err) {
	case domain.CodeNetwork:
		fmt.Fprintf(out, "Network error: %v\n", err)
	case domain.CodeAI:
		fmt.Fprintf(out, "AI service error: %v\n", err)
	case domain.CodeConfig:
		fmt.Fprintf(out, "Configuration error: %v\n", err)
	case domain.CodeDocument:
		fmt.Fprintf(out, "Document error: %v\n", err)
	default:
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}
