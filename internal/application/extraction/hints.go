package extraction

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/doeshing/fieldx/internal/domain"
)

// SimilarField returns the existing field closest to name when it is within
// domain.SimilarFieldDistance edits, ignoring case. Exact duplicates are not hints.
func SimilarField(existing []string, name string) (string, bool) {
	candidate := strings.ToLower(strings.TrimSpace(name))
	if candidate == "" {
		return "", false
	}
	best, bestDistance := "", domain.SimilarFieldDistance+1
	for _, field := range existing {
		if field == strings.TrimSpace(name) {
			continue
		}
		distance := levenshtein.Distance(strings.ToLower(field), candidate, nil)
		if distance < bestDistance {
			best, bestDistance = field, distance
		}
	}
	return best, best != ""
}

// AddField adds name to the session and reports a near-duplicate hint.
func AddField(session *domain.Session, name string) (added string, hint string, err error) {
	existing := session.Fields()
	added, err = session.AddField(name)
	if err != nil {
		return "", "", err
	}
	if similar, ok := SimilarField(existing, added); ok {
		hint = "similar to existing field \"" + similar + "\""
	}
	return added, hint, nil
}
