package domain

import (
	"fmt"
	"strings"
	"time"
)

// OutputStyle controls how each field summary is written.
type OutputStyle string

const (
	StyleParagraph    OutputStyle = "Paragraph"
	StyleBulletPoints OutputStyle = "Bullet Points"
)

// OutputStyles lists the accepted styles in display order.
func OutputStyles() []OutputStyle {
	return []OutputStyle{StyleParagraph, StyleBulletPoints}
}

// ParseOutputStyle accepts the display name or a loose spelling ("bullets", "bullet_points").
func ParseOutputStyle(raw string) (OutputStyle, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	switch normalized {
	case "", "paragraph", "paragraphs":
		return StyleParagraph, nil
	case "bullet points", "bullets", "bullet", "bulletpoints":
		return StyleBulletPoints, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStyle, raw)
	}
}

// ExtractionRecord is one snapshot of an extraction's inputs and output.
type ExtractionRecord struct {
	Model          string        `json:"model" yaml:"model"`
	Tier           string        `json:"tier,omitempty" yaml:"tier,omitempty"`
	Fields         []string      `json:"fields" yaml:"fields"`
	OutputStyle    OutputStyle   `json:"output_style" yaml:"output_style"`
	WordCountLimit int           `json:"word_count_limit" yaml:"word_count_limit"`
	DocumentName   string        `json:"document_name,omitempty" yaml:"document_name,omitempty"`
	Timestamp      time.Time     `json:"timestamp" yaml:"timestamp"`
	Duration       time.Duration `json:"duration_ns,omitempty" yaml:"duration,omitempty"`
	ResultText     string        `json:"result_text" yaml:"result_text"`
}

// RecordInput carries the values snapshotted into a new record.
type RecordInput struct {
	Model          string
	Tier           string
	Fields         []string
	OutputStyle    OutputStyle
	WordCountLimit int
	DocumentName   string
	Duration       time.Duration
	ResultText     string
}

// NewExtractionRecord snapshots in. The field list is copied so later edits to the
// caller's slice never reach the record.
func NewExtractionRecord(in RecordInput, now time.Time) ExtractionRecord {
	limit := in.WordCountLimit
	if limit < 0 {
		limit = 0
	}
	style := in.OutputStyle
	if style == "" {
		style = StyleParagraph
	}
	return ExtractionRecord{
		Model:          in.Model,
		Tier:           in.Tier,
		Fields:         copyStrings(in.Fields),
		OutputStyle:    style,
		WordCountLimit: limit,
		DocumentName:   in.DocumentName,
		Timestamp:      now,
		Duration:       in.Duration,
		ResultText:     in.ResultText,
	}
}

// Clone returns a deep copy of the record.
func (r ExtractionRecord) Clone() ExtractionRecord {
	r.Fields = copyStrings(r.Fields)
	return r
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
