// Package matcher maps fuzzy recognition output onto catalog identifiers and
// normalizes dates, amounts and confidence scores. All functions are pure and
// never mutate the catalogs they search.
package matcher

import (
	"strconv"
	"strings"

	"expenso/internal/domain"
)

// MatchCategory resolves the service's raw "expense type" value against the
// category catalog. Precedence: numeric external id, then case-insensitive
// exact name, then case-insensitive substring in either direction. First
// match in catalog order wins. A nil return is not an error; the user picks
// the category manually.
func MatchCategory(raw string, categories []domain.ExpenseCategory) *domain.ExpenseCategory {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if externalID, err := strconv.Atoi(raw); err == nil {
		for i := range categories {
			if categories[i].ExternalID == externalID {
				return &categories[i]
			}
		}
	}

	lower := strings.ToLower(raw)
	for i := range categories {
		if strings.ToLower(categories[i].Name) == lower {
			return &categories[i]
		}
	}

	for i := range categories {
		name := strings.ToLower(categories[i].Name)
		if strings.Contains(name, lower) || strings.Contains(lower, name) {
			return &categories[i]
		}
	}

	return nil
}
