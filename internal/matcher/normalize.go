package matcher

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted from the recognition service.
var dateLayouts = []string{"2006-01-02", "2006/1/2"}

// NormalizeDate parses a recognized invoice date, preferring it over the
// submission date. Any parse failure or invalid calendar date falls back to
// the submission date silently; this never errors.
func NormalizeDate(raw string, submissionDate time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return submissionDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return submissionDate
}

// ParseAmount parses a numeric field that the service delivers as a string.
// Empty or non-numeric input yields 0; NaN and infinities are never returned.
func ParseAmount(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// NormalizeConfidence maps a confidence score to the [0,1] range. Sources
// expressing confidence as a percentage (values above 1) are divided by 100.
func NormalizeConfidence(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		v = v / 100
	}
	if v > 1 {
		return 1
	}
	return v
}
