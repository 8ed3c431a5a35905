package matcher_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenso/internal/domain"
	"expenso/internal/matcher"
)

func categories() []domain.ExpenseCategory {
	return []domain.ExpenseCategory{
		{ID: uuid.New(), ExternalID: 10, Name: "Travel"},
		{ID: uuid.New(), ExternalID: 11, Name: "11"},
		{ID: uuid.New(), ExternalID: 12, Name: "Office Supplies"},
		{ID: uuid.New(), ExternalID: 13, Name: "Meals and Entertainment"},
	}
}

func TestMatchCategory_NumericIDWinsOverLiteralName(t *testing.T) {
	cats := categories()

	// "11" is both a valid external id and literally the name of a category.
	// The numeric-id tier is checked first, so the external-id 11 entry wins
	// even though it is the same entry here; make them distinct to prove it.
	cats[1].ExternalID = 99
	cats = append(cats, domain.ExpenseCategory{ID: uuid.New(), ExternalID: 11, Name: "Lodging"})

	got := matcher.MatchCategory("11", cats)
	require.NotNil(t, got)
	assert.Equal(t, "Lodging", got.Name)
}

func TestMatchCategory_ExactNameCaseInsensitive(t *testing.T) {
	got := matcher.MatchCategory("tRaVeL", categories())
	require.NotNil(t, got)
	assert.Equal(t, 10, got.ExternalID)
}

func TestMatchCategory_SubstringEitherDirection(t *testing.T) {
	cats := categories()

	// Raw value contained in catalog name.
	got := matcher.MatchCategory("office", cats)
	require.NotNil(t, got)
	assert.Equal(t, "Office Supplies", got.Name)

	// Catalog name contained in raw value.
	got = matcher.MatchCategory("Business Travel Expenses", cats)
	require.NotNil(t, got)
	assert.Equal(t, "Travel", got.Name)
}

func TestMatchCategory_FirstMatchWinsOnTie(t *testing.T) {
	cats := []domain.ExpenseCategory{
		{ID: uuid.New(), ExternalID: 1, Name: "Car"},
		{ID: uuid.New(), ExternalID: 2, Name: "Care"},
	}
	// Both names are substrings of the raw value; catalog iteration order
	// decides.
	got := matcher.MatchCategory("Car and Care costs", cats)
	require.NotNil(t, got)
	assert.Equal(t, "Car", got.Name)
}

func TestMatchCategory_NoMatchIsNil(t *testing.T) {
	assert.Nil(t, matcher.MatchCategory("cryogenics", categories()))
	assert.Nil(t, matcher.MatchCategory("", categories()))
	assert.Nil(t, matcher.MatchCategory("   ", categories()))
}
