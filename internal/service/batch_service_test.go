package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"expenso/internal/config"
	"expenso/internal/domain"
	"expenso/internal/port"
	"expenso/internal/service"
	"expenso/mocks"
)

type batchFixture struct {
	fileRepo   *mocks.MockFileMetaRepo
	lineRepo   *mocks.MockExpenseLineRepo
	storage    *mocks.MockObjectStorage
	recognizer *mocks.MockRecognizer
	store      *mocks.MockResultStore
	email      *mocks.MockEmailSender
	svc        service.BatchService

	mu        sync.Mutex
	submitted []string // file names in submission order
}

func newBatchFixture(t *testing.T, deadline time.Duration) *batchFixture {
	t.Helper()

	f := &batchFixture{
		fileRepo:   new(mocks.MockFileMetaRepo),
		lineRepo:   new(mocks.MockExpenseLineRepo),
		storage:    new(mocks.MockObjectStorage),
		recognizer: new(mocks.MockRecognizer),
		store:      new(mocks.MockResultStore),
		email:      new(mocks.MockEmailSender),
	}

	categoryRepo := new(mocks.MockCategoryRepo)
	taxCodeRepo := new(mocks.MockTaxCodeRepo)
	currencyRepo := new(mocks.MockCurrencyRepo)
	categoryRepo.On("List", mock.Anything).Return([]domain.ExpenseCategory{}, nil).Maybe()
	taxCodeRepo.On("ListByCountry", mock.Anything, mock.Anything).Return([]domain.TaxCode{}, nil).Maybe()
	currencyRepo.On("List", mock.Anything).Return([]domain.Currency{}, nil).Maybe()

	poller := service.NewResultPoller(f.store, testPollInterval, deadline)
	materializer := service.NewLineMaterializer(f.lineRepo, categoryRepo, taxCodeRepo, currencyRepo)

	recCfg := &config.RecognitionConfig{CallbackBaseURL: "http://localhost:8080"}

	f.svc = service.NewBatchService(
		f.fileRepo, f.lineRepo, f.storage, f.recognizer,
		poller, materializer, f.email, recCfg,
	)
	return f
}

// addFile registers a file in the repo and storage mocks.
func (f *batchFixture) addFile(name string) uuid.UUID {
	fileID := uuid.New()
	meta := &domain.FileMeta{
		ID:           fileID,
		OriginalName: name,
		FileType:     domain.FileTypePDF,
		ContentType:  "application/pdf",
		S3Bucket:     "test-bucket",
		S3Key:        "documents/" + fileID.String() + "/" + name,
		Status:       domain.FileStatusUploaded,
	}
	f.fileRepo.On("GetByID", mock.Anything, fileID).Return(meta, nil)
	f.storage.On("Download", mock.Anything, "test-bucket", meta.S3Key).Return([]byte("%PDF-1.4"), nil)
	return fileID
}

func (f *batchFixture) expectDrafts() {
	f.lineRepo.On("MaxSeq", mock.Anything, mock.Anything).Return(0, nil)
	f.lineRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.ExpenseLine")).Return(nil)
}

func (f *batchFixture) expectMaterialization() {
	f.lineRepo.On("GetDraft", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.ExpenseLine{ID: uuid.New(), Seq: 1, Status: domain.LineStatusDraft}, nil).Maybe()
	f.lineRepo.On("ReplaceDraft", mock.Anything, mock.AnythingOfType("*domain.ExpenseLine")).Return(nil).Maybe()
}

// onSubmit stubs one Submit call for the named file, recording the
// submission order.
func (f *batchFixture) onSubmit(fileName string, outcome *port.SubmitOutcome, err error) {
	f.recognizer.On("Submit", mock.Anything, mock.MatchedBy(func(in port.SubmitInput) bool {
		return in.FileName == fileName
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(port.SubmitInput)
		f.mu.Lock()
		f.submitted = append(f.submitted, in.FileName)
		f.mu.Unlock()
	}).Return(outcome, err).Once()
}

func (f *batchFixture) submissionOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submitted...)
}

func waitFinished(t *testing.T, svc service.BatchService, batchID uuid.UUID) *service.BatchProgress {
	t.Helper()
	require.Eventually(t, func() bool {
		progress, err := svc.Status(batchID)
		return err == nil && !progress.Running
	}, 5*time.Second, testPollInterval)

	progress, err := svc.Status(batchID)
	require.NoError(t, err)
	return progress
}

func docByPosition(t *testing.T, progress *service.BatchProgress, pos int) service.DocumentProgress {
	t.Helper()
	for _, doc := range progress.Documents {
		if doc.Position == pos {
			return doc
		}
	}
	t.Fatalf("no document at position %d", pos)
	return service.DocumentProgress{}
}

func successResult() *domain.RecognitionResult {
	return &domain.RecognitionResult{
		Success:    true,
		Confidence: 0.9,
		Output:     map[string]string{domain.FieldSellerName: "ACME GmbH"},
	}
}

func TestBatchService_EmptyBatchRejected(t *testing.T) {
	f := newBatchFixture(t, testPollDeadline)

	_, err := f.svc.Start(context.Background(), &service.StartBatchInput{ReportID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
}

func TestBatchService_SynchronousResults(t *testing.T) {
	f := newBatchFixture(t, testPollDeadline)
	f.expectDrafts()
	f.expectMaterialization()

	fileA := f.addFile("a.pdf")
	fileB := f.addFile("b.pdf")
	f.onSubmit("a.pdf", &port.SubmitOutcome{Result: successResult()}, nil)
	f.onSubmit("b.pdf", &port.SubmitOutcome{Result: successResult()}, nil)

	batchID, err := f.svc.Start(context.Background(), &service.StartBatchInput{
		ReportID:       uuid.New(),
		FileIDs:        []uuid.UUID{fileA, fileB},
		SubmissionDate: time.Now(),
		Country:        "DE",
	})
	require.NoError(t, err)

	progress := waitFinished(t, f.svc, batchID)

	assert.Equal(t, []string{"a.pdf", "b.pdf"}, f.submissionOrder())
	assert.Equal(t, domain.JobStateCompleted, docByPosition(t, progress, 0).State)
	assert.Equal(t, domain.JobStateCompleted, docByPosition(t, progress, 1).State)
	f.lineRepo.AssertNumberOfCalls(t, "ReplaceDraft", 2)
}

func TestBatchService_CallbackPathViaStore(t *testing.T) {
	f := newBatchFixture(t, testPollDeadline)
	f.expectDrafts()
	f.expectMaterialization()

	fileA := f.addFile("a.pdf")
	// Acknowledged only; the result arrives through the correlation store.
	f.onSubmit("a.pdf", &port.SubmitOutcome{}, nil)
	f.store.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(nil, false, nil).Twice()
	f.store.On("Get", mock.Anything, mock.AnythingOfType("string")).
		Return(&domain.StoredResult{Status: domain.StoredResultCompleted, Data: successResult()}, true, nil)

	batchID, err := f.svc.Start(context.Background(), &service.StartBatchInput{
		ReportID:       uuid.New(),
		FileIDs:        []uuid.UUID{fileA},
		SubmissionDate: time.Now(),
		Country:        "DE",
	})
	require.NoError(t, err)

	progress := waitFinished(t, f.svc, batchID)

	assert.Equal(t, domain.JobStateCompleted, docByPosition(t, progress, 0).State)
	f.lineRepo.AssertNumberOfCalls(t, "ReplaceDraft", 1)
}

func TestBatchService_TimeoutDoesNotBlockNextDocument(t *testing.T) {
	f := newBatchFixture(t, 30*time.Millisecond)
	f.expectDrafts()
	f.expectMaterialization()

	fileA := f.addFile("a.pdf")
	fileB := f.addFile("b.pdf")
	// First document never resolves; second succeeds synchronously.
	f.onSubmit("a.pdf", &port.SubmitOutcome{}, nil)
	f.onSubmit("b.pdf", &port.SubmitOutcome{Result: successResult()}, nil)
	f.store.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(nil, false, nil)

	batchID, err := f.svc.Start(context.Background(), &service.StartBatchInput{
		ReportID:       uuid.New(),
		FileIDs:        []uuid.UUID{fileA, fileB},
		SubmissionDate: time.Now(),
		Country:        "DE",
	})
	require.NoError(t, err)

	progress := waitFinished(t, f.svc, batchID)

	assert.Equal(t, []string{"a.pdf", "b.pdf"}, f.submissionOrder())
	assert.Equal(t, domain.JobStateTimedOut, docByPosition(t, progress, 0).State)
	assert.Equal(t, domain.JobStateCompleted, docByPosition(t, progress, 1).State)
	f.lineRepo.AssertNumberOfCalls(t, "ReplaceDraft", 1)
}

func TestBatchService_ServiceReportedFailure(t *testing.T) {
	f := newBatchFixture(t, testPollDeadline)
	f.expectDrafts()
	f.expectMaterialization()

	fileA := f.addFile("a.pdf")
	f.onSubmit("a.pdf", &port.SubmitOutcome{Result: &domain.RecognitionResult{
		Success: false,
		Errors:  []string{"document unreadable"},
	}}, nil)

	batchID, err := f.svc.Start(context.Background(), &service.StartBatchInput{
		ReportID:       uuid.New(),
		FileIDs:        []uuid.UUID{fileA},
		SubmissionDate: time.Now(),
		Country:        "DE",
	})
	require.NoError(t, err)

	progress := waitFinished(t, f.svc, batchID)

	doc := docByPosition(t, progress, 0)
	assert.Equal(t, domain.JobStateFailed, doc.State)
	assert.Contains(t, doc.Error, "document unreadable")
	f.lineRepo.AssertNotCalled(t, "ReplaceDraft", mock.Anything, mock.Anything)
}

func TestBatchService_CancelStopsPolling(t *testing.T) {
	f := newBatchFixture(t, 10*time.Second)
	f.expectDrafts()
	f.expectMaterialization()

	fileA := f.addFile("a.pdf")
	fileB := f.addFile("b.pdf")
	f.onSubmit("a.pdf", &port.SubmitOutcome{}, nil)
	// b.pdf must never be submitted after cancellation.
	f.store.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(nil, false, nil)

	batchID, err := f.svc.Start(context.Background(), &service.StartBatchInput{
		ReportID:       uuid.New(),
		FileIDs:        []uuid.UUID{fileA, fileB},
		SubmissionDate: time.Now(),
		Country:        "DE",
	})
	require.NoError(t, err)

	// Wait until the first document is in flight, then cancel.
	require.Eventually(t, func() bool {
		return len(f.submissionOrder()) == 1
	}, 5*time.Second, testPollInterval)

	require.NoError(t, f.svc.Cancel(batchID))
	progress := waitFinished(t, f.svc, batchID)

	assert.True(t, progress.Cancelled)
	assert.Equal(t, []string{"a.pdf"}, f.submissionOrder())
	f.lineRepo.AssertNotCalled(t, "ReplaceDraft", mock.Anything, mock.Anything)

	// Idempotent: a second cancel and a cancel for an unknown id are no-ops.
	assert.NoError(t, f.svc.Cancel(batchID))
	assert.NoError(t, f.svc.Cancel(uuid.New()))
}

func TestBatchService_SecondStartForActiveReportRejected(t *testing.T) {
	f := newBatchFixture(t, 10*time.Second)
	f.expectDrafts()
	f.expectMaterialization()

	fileA := f.addFile("a.pdf")
	f.onSubmit("a.pdf", &port.SubmitOutcome{}, nil)
	f.store.On("Get", mock.Anything, mock.AnythingOfType("string")).Return(nil, false, nil)

	reportID := uuid.New()
	batchID, err := f.svc.Start(context.Background(), &service.StartBatchInput{
		ReportID:       reportID,
		FileIDs:        []uuid.UUID{fileA},
		SubmissionDate: time.Now(),
		Country:        "DE",
	})
	require.NoError(t, err)

	_, err = f.svc.Start(context.Background(), &service.StartBatchInput{
		ReportID:       reportID,
		FileIDs:        []uuid.UUID{fileA},
		SubmissionDate: time.Now(),
		Country:        "DE",
	})
	assert.ErrorIs(t, err, domain.ErrBatchActive)

	require.NoError(t, f.svc.Cancel(batchID))
	waitFinished(t, f.svc, batchID)
}

func TestBatchService_SummaryEmailOnCompletion(t *testing.T) {
	f := newBatchFixture(t, testPollDeadline)
	f.expectDrafts()
	f.expectMaterialization()

	fileA := f.addFile("a.pdf")
	f.onSubmit("a.pdf", &port.SubmitOutcome{Result: successResult()}, nil)

	var summary *domain.BatchSummary
	f.email.On("SendBatchSummary", mock.Anything, "finance@example.com", mock.AnythingOfType("*domain.BatchSummary")).
		Run(func(args mock.Arguments) {
			f.mu.Lock()
			summary = args.Get(2).(*domain.BatchSummary)
			f.mu.Unlock()
		}).Return(nil)

	batchID, err := f.svc.Start(context.Background(), &service.StartBatchInput{
		ReportID:       uuid.New(),
		FileIDs:        []uuid.UUID{fileA},
		SubmissionDate: time.Now(),
		Country:        "DE",
		NotifyEmail:    "finance@example.com",
	})
	require.NoError(t, err)

	waitFinished(t, f.svc, batchID)

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return summary != nil
	}, 5*time.Second, testPollInterval)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Completed)
}

func TestBatchService_ConcurrentStartSingleWinner(t *testing.T) {
	f := newBatchFixture(t, testPollDeadline)
	f.expectDrafts()
	f.expectMaterialization()

	reportID := uuid.New()
	fileID := uuid.New()
	meta := &domain.FileMeta{
		ID:           fileID,
		OriginalName: "a.pdf",
		FileType:     domain.FileTypePDF,
		ContentType:  "application/pdf",
		S3Bucket:     "test-bucket",
		S3Key:        "documents/a.pdf",
		Status:       domain.FileStatusUploaded,
	}
	// A slow file lookup widens the window between the active-batch check
	// and the registry insert.
	f.fileRepo.On("GetByID", mock.Anything, fileID).
		Run(func(mock.Arguments) { time.Sleep(50 * time.Millisecond) }).
		Return(meta, nil)
	f.storage.On("Download", mock.Anything, "test-bucket", "documents/a.pdf").
		Return([]byte("%PDF-1.4"), nil)
	f.recognizer.On("Submit", mock.Anything, mock.Anything).
		Return(&port.SubmitOutcome{Result: successResult()}, nil)

	start := func() (uuid.UUID, error) {
		return f.svc.Start(context.Background(), &service.StartBatchInput{
			ReportID:       reportID,
			FileIDs:        []uuid.UUID{fileID},
			SubmissionDate: time.Now(),
			Country:        "DE",
		})
	}

	type outcome struct {
		batchID uuid.UUID
		err     error
	}
	results := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			id, err := start()
			results <- outcome{batchID: id, err: err}
		}()
	}

	var winner uuid.UUID
	var rejected int
	for i := 0; i < 2; i++ {
		res := <-results
		if res.err == nil {
			winner = res.batchID
		} else {
			require.ErrorIs(t, res.err, domain.ErrBatchActive)
			rejected++
		}
	}
	require.NotEqual(t, uuid.Nil, winner, "exactly one Start must win")
	assert.Equal(t, 1, rejected)

	waitFinished(t, f.svc, winner)

	// The reservation is released once the run finishes.
	second, err := start()
	require.NoError(t, err)
	waitFinished(t, f.svc, second)
}

func TestBatchService_ShutdownEvictsFinishedRuns(t *testing.T) {
	f := newBatchFixture(t, testPollDeadline)
	f.expectDrafts()
	f.expectMaterialization()

	fileA := f.addFile("a.pdf")
	f.onSubmit("a.pdf", &port.SubmitOutcome{Result: successResult()}, nil)

	batchID, err := f.svc.Start(context.Background(), &service.StartBatchInput{
		ReportID:       uuid.New(),
		FileIDs:        []uuid.UUID{fileA},
		SubmissionDate: time.Now(),
		Country:        "DE",
	})
	require.NoError(t, err)

	waitFinished(t, f.svc, batchID)

	// Still queryable after completion, gone after Shutdown.
	_, err = f.svc.Status(batchID)
	require.NoError(t, err)

	f.svc.Shutdown()

	_, err = f.svc.Status(batchID)
	assert.ErrorIs(t, err, domain.ErrBatchNotFound)
}

func TestBatchService_StatusUnknownBatch(t *testing.T) {
	f := newBatchFixture(t, testPollDeadline)

	_, err := f.svc.Status(uuid.New())
	assert.ErrorIs(t, err, domain.ErrBatchNotFound)
}
