package matcher

import (
	"strings"

	"expenso/internal/domain"
)

// Tax code name markers searched in priority order. The standard-rate label
// is preferred; a percent marker beats a generic tax label.
var taxNameMarkers = []string{"standard", "%", "tax", "vat"}

// MatchTaxCode picks a tax code for a recognized tax amount. Matching is only
// attempted for a positive amount; the codes slice is expected to be already
// filtered to the report's country. First match in catalog order wins within
// each marker tier.
func MatchTaxCode(taxAmount float64, codes []domain.TaxCode) *domain.TaxCode {
	if taxAmount <= 0 {
		return nil
	}

	for _, marker := range taxNameMarkers {
		for i := range codes {
			if strings.Contains(strings.ToLower(codes[i].Name), marker) {
				return &codes[i]
			}
		}
	}

	return nil
}

// MatchCurrency resolves a recognized currency symbol or name against the
// currency catalog, case-insensitively. Nil when nothing matches.
func MatchCurrency(raw string, currencies []domain.Currency) *domain.Currency {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	lower := strings.ToLower(raw)
	for i := range currencies {
		if strings.ToLower(currencies[i].Symbol) == lower || strings.ToLower(currencies[i].Name) == lower {
			return &currencies[i]
		}
	}

	return nil
}
