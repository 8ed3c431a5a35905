package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"expenso/internal/domain"
	"expenso/internal/service"
	"expenso/mocks"
)

type materializerFixture struct {
	lineRepo     *mocks.MockExpenseLineRepo
	categoryRepo *mocks.MockCategoryRepo
	taxCodeRepo  *mocks.MockTaxCodeRepo
	currencyRepo *mocks.MockCurrencyRepo
	materializer *service.LineMaterializer
}

func newMaterializerFixture() *materializerFixture {
	f := &materializerFixture{
		lineRepo:     new(mocks.MockExpenseLineRepo),
		categoryRepo: new(mocks.MockCategoryRepo),
		taxCodeRepo:  new(mocks.MockTaxCodeRepo),
		currencyRepo: new(mocks.MockCurrencyRepo),
	}
	f.materializer = service.NewLineMaterializer(f.lineRepo, f.categoryRepo, f.taxCodeRepo, f.currencyRepo)
	return f
}

func testResult(output map[string]string) *domain.RecognitionResult {
	return &domain.RecognitionResult{
		Success:      true,
		Confidence:   0.92,
		QualityGrade: "A",
		Output:       output,
	}
}

func TestMaterialize_ReplacesDraftInPlace(t *testing.T) {
	f := newMaterializerFixture()

	reportID := uuid.New()
	docID := uuid.New()
	catID := uuid.New()
	curID := uuid.New()
	draft := &domain.ExpenseLine{
		ID:       uuid.New(),
		ReportID: reportID,
		Seq:      7,
		Status:   domain.LineStatusDraft,
	}

	f.lineRepo.On("GetDraft", mock.Anything, reportID, docID).Return(draft, nil)
	f.categoryRepo.On("List", mock.Anything).
		Return([]domain.ExpenseCategory{{ID: catID, ExternalID: 11, Name: "Travel"}}, nil)
	f.currencyRepo.On("List", mock.Anything).
		Return([]domain.Currency{{ID: curID, Name: "EUR", Symbol: "€"}}, nil)

	rate := 19.0
	taxID := uuid.New()
	f.taxCodeRepo.On("ListByCountry", mock.Anything, "DE").
		Return([]domain.TaxCode{{ID: taxID, Name: "Standard rate 19%", Rate: &rate, Country: "DE"}}, nil)

	var replaced *domain.ExpenseLine
	f.lineRepo.On("ReplaceDraft", mock.Anything, mock.AnythingOfType("*domain.ExpenseLine")).
		Run(func(args mock.Arguments) {
			replaced = args.Get(1).(*domain.ExpenseLine)
		}).Return(nil)

	err := f.materializer.Materialize(context.Background(), service.MaterializeInput{
		ReportID:   reportID,
		DocumentID: docID,
		Result: testResult(map[string]string{
			domain.FieldSellerName:    "ACME GmbH",
			domain.FieldInvoiceNumber: "RE-42",
			domain.FieldInvoiceDate:   "2026-03-12",
			domain.FieldExpenseType:   "Travel",
			domain.FieldNetAmount:     "100.00",
			domain.FieldTaxAmount:     "19.00",
			domain.FieldGrossAmount:   "119.00",
			domain.FieldCurrency:      "EUR",
		}),
		SubmissionDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Country:        "DE",
	})
	require.NoError(t, err)
	require.NotNil(t, replaced)

	// Identity and ordering survive the replacement.
	assert.Equal(t, draft.ID, replaced.ID)
	assert.Equal(t, 7, replaced.Seq)
	assert.Equal(t, domain.LineStatusMaterialized, replaced.Status)

	assert.Equal(t, "ACME GmbH", replaced.SellerName)
	assert.Equal(t, "RE-42", replaced.InvoiceNumber)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), replaced.ExpenseDate)
	assert.Equal(t, 100.0, replaced.NetAmount)
	assert.Equal(t, 19.0, replaced.TaxAmount)
	assert.Equal(t, 119.0, replaced.GrossAmount)

	require.NotNil(t, replaced.CategoryID)
	assert.Equal(t, catID, *replaced.CategoryID)
	require.NotNil(t, replaced.TaxCodeID)
	assert.Equal(t, taxID, *replaced.TaxCodeID)
	require.NotNil(t, replaced.TaxRate)
	assert.Equal(t, 19.0, *replaced.TaxRate)
	require.NotNil(t, replaced.CurrencyID)
	assert.Equal(t, curID, *replaced.CurrencyID)

	assert.NotEmpty(t, replaced.RawResult)
}

func TestMaterialize_DraftGoneIsSilentDiscard(t *testing.T) {
	f := newMaterializerFixture()

	reportID := uuid.New()
	docID := uuid.New()
	f.lineRepo.On("GetDraft", mock.Anything, reportID, docID).Return(nil, domain.ErrLineNotFound)

	err := f.materializer.Materialize(context.Background(), service.MaterializeInput{
		ReportID:       reportID,
		DocumentID:     docID,
		Result:         testResult(nil),
		SubmissionDate: time.Now(),
		Country:        "DE",
	})

	assert.NoError(t, err)
	f.lineRepo.AssertNotCalled(t, "ReplaceDraft", mock.Anything, mock.Anything)
}

func TestMaterialize_NoTaxLookupForZeroTax(t *testing.T) {
	f := newMaterializerFixture()

	reportID := uuid.New()
	docID := uuid.New()
	draft := &domain.ExpenseLine{ID: uuid.New(), ReportID: reportID, Seq: 1, Status: domain.LineStatusDraft}

	f.lineRepo.On("GetDraft", mock.Anything, reportID, docID).Return(draft, nil)
	f.categoryRepo.On("List", mock.Anything).Return([]domain.ExpenseCategory{}, nil)
	f.currencyRepo.On("List", mock.Anything).Return([]domain.Currency{}, nil)
	f.lineRepo.On("ReplaceDraft", mock.Anything, mock.Anything).Return(nil)

	err := f.materializer.Materialize(context.Background(), service.MaterializeInput{
		ReportID:   reportID,
		DocumentID: docID,
		Result: testResult(map[string]string{
			domain.FieldNetAmount:   "50",
			domain.FieldTaxAmount:   "0",
			domain.FieldGrossAmount: "50",
		}),
		SubmissionDate: time.Now(),
		Country:        "DE",
	})

	assert.NoError(t, err)
	f.taxCodeRepo.AssertNotCalled(t, "ListByCountry", mock.Anything, mock.Anything)
}

func TestMaterialize_MalformedFieldsStillMaterialize(t *testing.T) {
	f := newMaterializerFixture()

	reportID := uuid.New()
	docID := uuid.New()
	draft := &domain.ExpenseLine{ID: uuid.New(), ReportID: reportID, Seq: 2, Status: domain.LineStatusDraft}
	submission := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	f.lineRepo.On("GetDraft", mock.Anything, reportID, docID).Return(draft, nil)
	f.categoryRepo.On("List", mock.Anything).Return([]domain.ExpenseCategory{}, nil)
	f.currencyRepo.On("List", mock.Anything).Return([]domain.Currency{}, nil)

	var replaced *domain.ExpenseLine
	f.lineRepo.On("ReplaceDraft", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			replaced = args.Get(1).(*domain.ExpenseLine)
		}).Return(nil)

	err := f.materializer.Materialize(context.Background(), service.MaterializeInput{
		ReportID:   reportID,
		DocumentID: docID,
		Result: testResult(map[string]string{
			domain.FieldInvoiceDate: "not-a-date",
			domain.FieldNetAmount:   "garbage",
			domain.FieldCurrency:    "galactic credits",
		}),
		SubmissionDate: submission,
		Country:        "DE",
	})

	require.NoError(t, err)
	require.NotNil(t, replaced)
	assert.Equal(t, submission, replaced.ExpenseDate)
	assert.Zero(t, replaced.NetAmount)
	assert.Nil(t, replaced.CurrencyID)
	assert.Equal(t, domain.LineStatusMaterialized, replaced.Status)
}
