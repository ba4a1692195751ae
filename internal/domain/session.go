package domain

import (
	"fmt"
	"time"
)

// SessionOptions seeds a new session from configuration.
type SessionOptions struct {
	ModelName       string
	OutputStyle     OutputStyle
	WordLimit       int
	MaxFields       int
	HistoryCapacity int
}

// Session is the state one user accumulates between interactions: the field list,
// the uploaded document, the selected options and the history ledger.
// Option changes reset the pending extraction flag but never touch the ledger.
type Session struct {
	ID        string
	CreatedAt time.Time

	fields    *FieldSet
	document  *Document
	modelName string
	style     OutputStyle
	wordLimit int
	pending   bool
	ledger    *Ledger
}

// NewSession creates an empty session.
func NewSession(id string, opts SessionOptions) *Session {
	style := opts.OutputStyle
	if style == "" {
		style = StyleParagraph
	}
	limit := opts.WordLimit
	if limit < 0 {
		limit = 0
	}
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		fields:    NewFieldSet(opts.MaxFields),
		modelName: opts.ModelName,
		style:     style,
		wordLimit: limit,
		ledger:    NewLedger(opts.HistoryCapacity),
	}
}

// AddField appends a field to the session.
func (s *Session) AddField(name string) (string, error) {
	added, err := s.fields.Add(name)
	if err != nil {
		return "", err
	}
	s.pending = false
	return added, nil
}

// RemoveField deletes the field at the zero-based index.
func (s *Session) RemoveField(index int) (string, error) {
	removed, err := s.fields.Remove(index)
	if err != nil {
		return "", err
	}
	s.pending = false
	return removed, nil
}

// Fields returns a copy of the current field names.
func (s *Session) Fields() []string {
	return s.fields.Names()
}

// MaxFields returns the session's field limit.
func (s *Session) MaxFields() int {
	return s.fields.Max()
}

// SetDocument replaces the uploaded document.
func (s *Session) SetDocument(doc Document) {
	s.document = &doc
	s.pending = false
}

// ClearDocument drops the uploaded document.
func (s *Session) ClearDocument() {
	s.document = nil
	s.pending = false
}

// Document returns the uploaded document, if any.
func (s *Session) Document() (Document, bool) {
	if s.document == nil {
		return Document{}, false
	}
	return *s.document, true
}

// SetModel selects the model (tier) used for the next extraction.
func (s *Session) SetModel(name string) {
	s.modelName = name
	s.pending = false
}

// ModelName returns the selected model name; empty means the configured default.
func (s *Session) ModelName() string {
	return s.modelName
}

// SetOutputStyle changes the summary style.
func (s *Session) SetOutputStyle(style OutputStyle) {
	s.style = style
	s.pending = false
}

// OutputStyle returns the selected summary style.
func (s *Session) OutputStyle() OutputStyle {
	return s.style
}

// SetWordLimit changes the per-field word limit; 0 disables the limit.
func (s *Session) SetWordLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: %d", ErrWordLimit, limit)
	}
	s.wordLimit = limit
	s.pending = false
	return nil
}

// WordLimit returns the per-field word limit.
func (s *Session) WordLimit() int {
	return s.wordLimit
}

// RequestExtraction marks the session ready for the next extraction run.
func (s *Session) RequestExtraction() error {
	if s.document == nil {
		return ErrNoDocument
	}
	if s.fields.Len() == 0 {
		return ErrNoFields
	}
	s.pending = true
	return nil
}

// Pending reports whether an extraction was requested and not yet run.
func (s *Session) Pending() bool {
	return s.pending
}

// CompleteExtraction clears the pending flag after a run, successful or not.
func (s *Session) CompleteExtraction() {
	s.pending = false
}

// Ledger exposes the session's history ledger.
func (s *Session) Ledger() *Ledger {
	return s.ledger
}
