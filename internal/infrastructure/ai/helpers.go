package ai

import (
	"os"
	"strconv"
)

// getEnv returns the first non-empty variable among primary and fallbacks.
func getEnv(primary string, fallbacks ...string) string {
	for _, name := range append([]string{primary}, fallbacks...) {
		if name == "" {
			continue
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
