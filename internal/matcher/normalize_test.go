package matcher_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"expenso/internal/matcher"
)

func TestNormalizeDate(t *testing.T) {
	submission := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"iso date", "2024-02-14", time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)},
		{"slash date single digits", "2024/2/5", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)},
		{"garbage falls back", "not-a-date", submission},
		{"invalid calendar date falls back", "2024-02-31", submission},
		{"empty falls back", "", submission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matcher.NormalizeDate(tt.raw, submission))
		})
	}
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 42.5, matcher.ParseAmount("42.5"))
	assert.Equal(t, 42.5, matcher.ParseAmount("  42.5  "))
	assert.Equal(t, 0.0, matcher.ParseAmount(""))
	assert.Equal(t, 0.0, matcher.ParseAmount("abc"))
	assert.Equal(t, 0.0, matcher.ParseAmount("NaN"))
	assert.Equal(t, 0.0, matcher.ParseAmount("+Inf"))
	assert.Equal(t, -3.0, matcher.ParseAmount("-3"))
}

func TestNormalizeConfidence(t *testing.T) {
	assert.Equal(t, 0.87, matcher.NormalizeConfidence(0.87))
	assert.Equal(t, 0.87, matcher.NormalizeConfidence(87))
	assert.Equal(t, 1.0, matcher.NormalizeConfidence(1))
	assert.Equal(t, 1.0, matcher.NormalizeConfidence(250))
	assert.Equal(t, 0.0, matcher.NormalizeConfidence(-5))
}
