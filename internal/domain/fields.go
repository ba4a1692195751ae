package domain

import (
	"fmt"
	"strings"
)

// DefaultMaxFields caps how many fields a session may define.
const DefaultMaxFields = 20

// FieldSet is the ordered list of unique field names a user wants extracted.
type FieldSet struct {
	names []string
	max   int
}

// NewFieldSet creates an empty set. max < 1 falls back to DefaultMaxFields.
func NewFieldSet(max int) *FieldSet {
	if max < 1 {
		max = DefaultMaxFields
	}
	return &FieldSet{max: max}
}

// Add appends a trimmed field name.
func (f *FieldSet) Add(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrFieldEmpty
	}
	if f.Contains(name) {
		return "", fmt.Errorf("%w: %s", ErrFieldExists, name)
	}
	if len(f.names) >= f.max {
		return "", fmt.Errorf("%w: %d", ErrFieldLimit, f.max)
	}
	f.names = append(f.names, name)
	return name, nil
}

// Remove deletes the field at the zero-based index and returns its name.
func (f *FieldSet) Remove(index int) (string, error) {
	if index < 0 || index >= len(f.names) {
		return "", fmt.Errorf("%w: %d", ErrFieldIndex, index)
	}
	removed := f.names[index]
	f.names = append(f.names[:index], f.names[index+1:]...)
	return removed, nil
}

// Contains reports whether name is already present (exact match after trimming).
func (f *FieldSet) Contains(name string) bool {
	name = strings.TrimSpace(name)
	for _, existing := range f.names {
		if existing == name {
			return true
		}
	}
	return false
}

// Names returns a copy of the field names in insertion order.
func (f *FieldSet) Names() []string {
	return copyStrings(f.names)
}

// Len returns the number of fields.
func (f *FieldSet) Len() int {
	return len(f.names)
}

// Max returns the configured field limit.
func (f *FieldSet) Max() int {
	return f.max
}
