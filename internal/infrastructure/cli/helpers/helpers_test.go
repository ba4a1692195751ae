package helpers

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/doeshing/fieldx/internal/domain"
)

func TestConfigMapRoundTripWithSet(t *testing.T) {
	cfg := domain.Config{
		Preferences: domain.Preferences{DefaultModel: "Balanced", WordLimit: 10},
		Models:      domain.DefaultModels(),
	}

	data, err := ConfigToMap(cfg)
	if err != nil {
		t.Fatalf("ConfigToMap() error = %v", err)
	}

	value, ok := TraverseNestedMap(data, SplitKeyPath("preferences.default_model"))
	if !ok || value != "Balanced" {
		t.Fatalf("TraverseNestedMap() = %v, %v", value, ok)
	}

	parsed, _ := ParseYAMLValue("75")
	if !SetNestedMapValue(data, SplitKeyPath("preferences.word_limit"), parsed) {
		t.Fatal("SetNestedMapValue() failed")
	}
	if !SetNestedMapValue(data, SplitKeyPath("archive.enabled"), true) {
		t.Fatal("SetNestedMapValue() on a new section failed")
	}
	if SetNestedMapValue(data, SplitKeyPath("preferences.word_limit.inner"), 1) {
		t.Error("descending into a scalar should fail")
	}

	updated, err := MapToConfig(data)
	if err != nil {
		t.Fatalf("MapToConfig() error = %v", err)
	}
	if updated.Preferences.WordLimit != 75 {
		t.Errorf("WordLimit = %d, want 75", updated.Preferences.WordLimit)
	}
	if !updated.Archive.Enabled {
		t.Error("archive.enabled not applied")
	}
	if len(updated.Models) != 3 {
		t.Errorf("models lost in round trip: %d", len(updated.Models))
	}
}

func TestMapToConfigRejectsWrongTypes(t *testing.T) {
	data := map[string]interface{}{
		"preferences": map[string]interface{}{"word_limit": "lots"},
	}
	if _, err := MapToConfig(data); err == nil {
		t.Error("expected error for non-numeric word_limit")
	}
}

func TestConfirmAndAsk(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("\nyes\nnope\n  Vendor  \n"))

	if !Confirm(&out, reader, "Archive?", true) {
		t.Error("empty answer should take the default")
	}
	if !Confirm(&out, reader, "Overwrite?", false) {
		t.Error("yes should confirm")
	}
	if Confirm(&out, reader, "Overwrite?", true) {
		t.Error("anything but yes is no")
	}
	if got := Ask(&out, reader, "Field", "Date"); got != "Vendor" {
		t.Errorf("Ask() = %q, want trimmed answer", got)
	}
	if got := Ask(&out, reader, "Field", "Date"); got != "Date" {
		t.Errorf("Ask() at EOF = %q, want default", got)
	}
	if !strings.Contains(out.String(), "[Y/n]") || !strings.Contains(out.String(), "[y/N]") {
		t.Errorf("yes/no labels missing: %q", out.String())
	}
}

func TestAskModel(t *testing.T) {
	cfg := domain.Config{Models: domain.DefaultModels()}
	tests := []struct {
		input string
		want  string
	}{
		{input: "\n", want: "Balanced"},
		{input: "1\n", want: "Fast"},
		{input: "gemini-2.5-pro-preview-05-06\n", want: "Best Performance"},
		{input: "9\nTurbo\nFast\n", want: "Fast"},
		{input: "x\ny\nz\n", want: "Balanced"},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := AskModel(&out, bufio.NewReader(strings.NewReader(tt.input)), cfg, "Balanced")
		if got != tt.want {
			t.Errorf("AskModel(%q) = %q, want %q\n%s", tt.input, got, tt.want, out.String())
		}
	}
}

func TestAskStyleAndWordLimit(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("haiku\nbullets\n-4\nten\n25\n"))

	if got := AskOutputStyle(&out, reader, domain.StyleParagraph); got != domain.StyleBulletPoints {
		t.Errorf("AskOutputStyle() = %q", got)
	}
	if got := AskWordLimit(&out, reader, 0); got != 25 {
		t.Errorf("AskWordLimit() = %d, want 25", got)
	}
	for _, want := range []string{"invalid output style", "word limit must be >= 0"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %q", want, out.String())
		}
	}
}
