package helpers

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/doeshing/fieldx/internal/domain"
)

// maxAttempts bounds how often an invalid answer is asked again before the default wins.
const maxAttempts = 3

// Ask prints question with its default and returns the trimmed answer, or def on
// an empty line or end of input.
func Ask(out io.Writer, reader *bufio.Reader, question, def string) string {
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}
	line, _ := reader.ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		return def
	}
	return line
}

// Confirm asks a yes/no question. Anything but y/yes counts as no.
func Confirm(out io.Writer, reader *bufio.Reader, question string, def bool) bool {
	label := "y/N"
	if def {
		label = "Y/n"
	}
	fmt.Fprintf(out, "%s [%s]: ", question, label)
	line, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return def
	case "y", "yes":
		return true
	default:
		return false
	}
}

// AskModel lists the configured tiers and accepts a number, tier name or model id.
// It returns the tier name.
func AskModel(out io.Writer, reader *bufio.Reader, cfg domain.Config, def string) string {
	for i, model := range cfg.Models {
		fmt.Fprintf(out, "  %d. %s (%s)", i+1, model.Name, model.ModelID)
		if model.Description != "" {
			fmt.Fprintf(out, " - %s", model.Description)
		}
		fmt.Fprintln(out)
	}
	return askUntilValid(out, reader, "Default model", def, func(answer string) (string, error) {
		if n, err := strconv.Atoi(answer); err == nil {
			if n < 1 || n > len(cfg.Models) {
				return "", fmt.Errorf("pick 1-%d", len(cfg.Models))
			}
			return cfg.Models[n-1].Name, nil
		}
		model, ok := cfg.FindModelByName(answer)
		if !ok {
			return "", fmt.Errorf("%w: %s", domain.ErrUnknownModel, answer)
		}
		return model.Name, nil
	})
}

// AskOutputStyle asks for Paragraph or Bullet Points.
func AskOutputStyle(out io.Writer, reader *bufio.Reader, def domain.OutputStyle) domain.OutputStyle {
	answer := askUntilValid(out, reader, "Output style (Paragraph/Bullet Points)", string(def), func(answer string) (string, error) {
		style, err := domain.ParseOutputStyle(answer)
		return string(style), err
	})
	return domain.OutputStyle(answer)
}

// AskWordLimit asks for the per-field word limit; 0 means no limit.
func AskWordLimit(out io.Writer, reader *bufio.Reader, def int) int {
	answer := askUntilValid(out, reader, "Word limit per field, 0 for none", strconv.Itoa(def), func(answer string) (string, error) {
		n, err := strconv.Atoi(answer)
		if err != nil || n < 0 {
			return "", fmt.Errorf("%w: %q", domain.ErrWordLimit, answer)
		}
		return strconv.Itoa(n), nil
	})
	n, _ := strconv.Atoi(answer)
	return n
}

// askUntilValid re-asks while normalize rejects the answer; def is returned as is.
func askUntilValid(out io.Writer, reader *bufio.Reader, question, def string, normalize func(string) (string, error)) string {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		answer := Ask(out, reader, question, def)
		if answer == def {
			return def
		}
		value, err := normalize(answer)
		if err == nil {
			return value
		}
		fmt.Fprintf(out, "  %v\n", err)
	}
	fmt.Fprintf(out, "  keeping %s\n", def)
	return def
}
