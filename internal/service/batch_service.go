package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"expenso/internal/config"
	"expenso/internal/domain"
	"expenso/internal/port"
)

// StartBatchInput is the DTO for starting an ingestion batch over a set of
// uploaded documents.
type StartBatchInput struct {
	ReportID       uuid.UUID
	FileIDs        []uuid.UUID
	SubmissionDate time.Time
	Country        string
	NotifyEmail    string
}

// DocumentProgress is the per-document view exposed for the progress UI.
type DocumentProgress struct {
	DocumentID uuid.UUID             `json:"document_id"`
	FileID     uuid.UUID             `json:"file_id"`
	Position   int                   `json:"position"`
	Status     domain.DocumentStatus `json:"status,omitempty"`
	State      domain.JobState       `json:"state,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// BatchProgress aggregates a batch run's state for progress reporting.
type BatchProgress struct {
	BatchID   uuid.UUID          `json:"batch_id"`
	ReportID  uuid.UUID          `json:"report_id"`
	Running   bool               `json:"running"`
	Cancelled bool               `json:"cancelled"`
	Documents []DocumentProgress `json:"documents"`
}

// runRetention is how long a finished run stays queryable through Status
// before its registry entry is evicted.
const runRetention = 10 * time.Minute

// BatchService drives one-at-a-time submission of a document set, owns
// cancellation, and aggregates per-document status.
type BatchService interface {
	Start(ctx context.Context, input *StartBatchInput) (uuid.UUID, error)
	// Status reports per-document progress. Finished batches stay
	// queryable for a grace period, then report not-found.
	Status(batchID uuid.UUID) (*BatchProgress, error)
	// Cancel stops an in-flight batch. It is idempotent and safe to call
	// with no active batch; already-materialized lines are never rolled
	// back.
	Cancel(batchID uuid.UUID) error
	// Shutdown cancels every active batch and waits for their loops to
	// drain.
	Shutdown()
}

type batchService struct {
	fileRepo     port.FileMetaRepository
	lineRepo     port.ExpenseLineRepository
	storage      port.ObjectStorage
	recognizer   port.Recognizer
	poller       *ResultPoller
	materializer *LineMaterializer
	email        port.EmailSender
	recCfg       *config.RecognitionConfig

	mu     sync.Mutex
	runs   map[uuid.UUID]*batchRun
	active map[uuid.UUID]uuid.UUID // report id -> running batch id
}

// NewBatchService creates a BatchService implementation.
func NewBatchService(
	fileRepo port.FileMetaRepository,
	lineRepo port.ExpenseLineRepository,
	storage port.ObjectStorage,
	recognizer port.Recognizer,
	poller *ResultPoller,
	materializer *LineMaterializer,
	email port.EmailSender,
	recCfg *config.RecognitionConfig,
) BatchService {
	return &batchService{
		fileRepo:     fileRepo,
		lineRepo:     lineRepo,
		storage:      storage,
		recognizer:   recognizer,
		poller:       poller,
		materializer: materializer,
		email:        email,
		recCfg:       recCfg,
		runs:         make(map[uuid.UUID]*batchRun),
		active:       make(map[uuid.UUID]uuid.UUID),
	}
}

// batchRun is the mutable state of one batch. The status map, the job
// registry and the guard are the only batch-scoped shared state; everything
// else is touched exclusively by the sequential processing loop.
type batchRun struct {
	id       uuid.UUID
	input    StartBatchInput
	docs     []domain.BatchDocument
	files    map[uuid.UUID]*domain.FileMeta
	guard    *DedupGuard
	cancel   context.CancelFunc
	cancelMu sync.Once
	done     chan struct{}
	evict    *time.Timer

	mu        sync.Mutex
	pending   map[uuid.UUID]struct{}
	status    map[uuid.UUID]domain.DocumentStatus
	states    map[uuid.UUID]domain.JobState
	errors    map[uuid.UUID]string
	jobs      map[string]*domain.Job
	finished  bool
	cancelled bool
}

func (s *batchService) Start(ctx context.Context, input *StartBatchInput) (uuid.UUID, error) {
	if len(input.FileIDs) == 0 {
		return uuid.Nil, domain.ErrEmptyBatch
	}

	run := &batchRun{
		id:      uuid.New(),
		input:   *input,
		files:   make(map[uuid.UUID]*domain.FileMeta, len(input.FileIDs)),
		guard:   NewDedupGuard(),
		done:    make(chan struct{}),
		pending: make(map[uuid.UUID]struct{}, len(input.FileIDs)),
		status:  make(map[uuid.UUID]domain.DocumentStatus),
		states:  make(map[uuid.UUID]domain.JobState),
		errors:  make(map[uuid.UUID]string),
		jobs:    make(map[string]*domain.Job),
	}

	// Reserve the report in the same critical section as the check, so two
	// racing Start calls for one report cannot both pass it. The
	// reservation is released when the run finishes or when a later setup
	// step fails.
	s.mu.Lock()
	if _, busy := s.active[input.ReportID]; busy {
		s.mu.Unlock()
		return uuid.Nil, domain.ErrBatchActive
	}
	s.active[input.ReportID] = run.id
	s.mu.Unlock()

	// Resolve every file up front so a bad file id fails the whole request
	// instead of surfacing mid-batch.
	for i, fileID := range input.FileIDs {
		meta, err := s.fileRepo.GetByID(ctx, fileID)
		if err != nil {
			s.releaseReport(run)
			return uuid.Nil, fmt.Errorf("looking up file %s: %w", fileID, err)
		}
		doc := domain.BatchDocument{ID: uuid.New(), FileID: fileID, Position: i}
		run.docs = append(run.docs, doc)
		run.files[fileID] = meta
		run.pending[doc.ID] = struct{}{}
	}

	// Any prior guard state scoped to this batch is gone by construction;
	// Reset also covers reuse of a run value.
	run.guard.Reset()

	if err := s.createDrafts(ctx, run); err != nil {
		s.releaseReport(run)
		return uuid.Nil, err
	}

	// The processing loop outlives the HTTP request that started it.
	runCtx, cancel := context.WithCancel(context.Background())
	run.cancel = cancel

	s.mu.Lock()
	s.runs[run.id] = run
	s.mu.Unlock()

	log.Printf("batchService.Start: batch %s started for report %s (%d documents)",
		run.id, input.ReportID, len(run.docs))

	go s.process(runCtx, run)

	return run.id, nil
}

// createDrafts allocates one placeholder line per document with contiguous
// sequence numbers continuing from the report's current maximum.
func (s *batchService) createDrafts(ctx context.Context, run *batchRun) error {
	maxSeq, err := s.lineRepo.MaxSeq(ctx, run.input.ReportID)
	if err != nil {
		return fmt.Errorf("reading max sequence: %w", err)
	}

	lines := make([]domain.ExpenseLine, 0, len(run.docs))
	for i := range run.docs {
		doc := run.docs[i]
		docID := doc.ID
		lines = append(lines, domain.ExpenseLine{
			ID:          uuid.New(),
			ReportID:    run.input.ReportID,
			DocumentID:  &docID,
			Seq:         maxSeq + 1 + i,
			Status:      domain.LineStatusDraft,
			Description: run.files[doc.FileID].OriginalName,
			ExpenseDate: run.input.SubmissionDate,
		})
	}

	if err := s.lineRepo.CreateBatch(ctx, lines); err != nil {
		return fmt.Errorf("creating draft lines: %w", err)
	}
	return nil
}

// process is the sequential batch loop: document i+1 is not submitted until
// document i's job has reached a terminal state. Per-document failures are
// local; only cancellation stops the loop early.
func (s *batchService) process(ctx context.Context, run *batchRun) {
	defer close(run.done)

	for i := range run.docs {
		if ctx.Err() != nil {
			break
		}
		s.processDocument(ctx, run, &run.docs[i])
	}

	run.mu.Lock()
	run.finished = true
	cancelled := run.cancelled
	if !cancelled {
		// Normal completion evicts submitted documents from the pending
		// set; after cancellation unresolved documents stay pending.
		for docID, state := range run.states {
			if state.Terminal() {
				delete(run.pending, docID)
			}
		}
	}
	run.mu.Unlock()

	if !cancelled {
		s.sendSummary(run)
	}

	s.releaseReport(run)
	s.scheduleEviction(run)

	log.Printf("batchService.process: batch %s finished (cancelled=%v)", run.id, cancelled)
}

// releaseReport frees the report's single-active-batch reservation if it is
// still held by this run.
func (s *batchService) releaseReport(run *batchRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[run.input.ReportID] == run.id {
		delete(s.active, run.input.ReportID)
	}
}

// scheduleEviction keeps a finished run queryable for a grace period, then
// drops it so the registry cannot grow without bound across repeated batches.
func (s *batchService) scheduleEviction(run *batchRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.evict = time.AfterFunc(runRetention, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.runs, run.id)
	})
}

func (s *batchService) processDocument(ctx context.Context, run *batchRun, doc *domain.BatchDocument) {
	run.setStatus(doc.ID, domain.DocumentStatusProcessing)

	meta := run.files[doc.FileID]
	payload, err := s.storage.Download(ctx, meta.S3Bucket, meta.S3Key)
	if err != nil {
		s.failDocument(run, doc, nil, domain.JobStateFailed, fmt.Sprintf("downloading payload: %v", err))
		return
	}

	// A fresh correlation key per submission attempt, never reused.
	job := &domain.Job{
		CorrelationKey: uuid.New().String(),
		DocumentID:     doc.ID,
		FileID:         doc.FileID,
		State:          domain.JobStateDispatched,
		StartedAt:      time.Now().UTC(),
	}
	run.registerJob(job)
	defer run.unregisterJob(job)

	outcome, err := s.recognizer.Submit(ctx, port.SubmitInput{
		Payload:        payload,
		ContentType:    meta.ContentType,
		FileName:       meta.OriginalName,
		CorrelationKey: job.CorrelationKey,
		CallbackURL:    s.recCfg.CallbackURL(job.CorrelationKey),
	})
	if err != nil {
		s.failDocument(run, doc, job, domain.JobStateFailed, err.Error())
		return
	}

	// Path (a): the submission call itself carried a terminal result.
	if outcome.Result != nil {
		s.resolve(ctx, run, doc, job, outcome.Result)
		return
	}

	// Path (b): acknowledged only; poll the correlation store until the
	// callback lands or the deadline elapses.
	job.Transition(domain.JobStatePolling)
	run.setState(doc.ID, domain.JobStatePolling)

	poll := s.poller.Poll(ctx, job.CorrelationKey, run.guard)
	switch {
	case poll.Superseded:
		// Another path already consumed this key; nothing left to do.
	case poll.State == domain.JobStateCompleted:
		s.resolve(ctx, run, doc, job, poll.Result)
	case poll.State == domain.JobStateFailed:
		s.failDocument(run, doc, job, domain.JobStateFailed, poll.Err.Error())
	case poll.State == domain.JobStateTimedOut:
		// Hard boundary: surfaced as a distinct failure, never resubmitted.
		s.failDocument(run, doc, job, domain.JobStateTimedOut, "no result within deadline")
	case poll.State == domain.JobStateCancelled:
		job.Transition(domain.JobStateCancelled)
		run.setState(doc.ID, domain.JobStateCancelled)
	}
}

// resolve funnels a would-be-terminal result through the dedup guard and,
// if this delivery path wins, materializes the line. Losing the race is
// silent and deliberate.
func (s *batchService) resolve(ctx context.Context, run *batchRun, doc *domain.BatchDocument, job *domain.Job, result *domain.RecognitionResult) {
	if !result.Success {
		s.failDocument(run, doc, job, domain.JobStateFailed, serviceError(result))
		return
	}

	if !run.guard.TryConsume(job.CorrelationKey, doc.ID) {
		log.Printf("batchService.resolve: duplicate delivery for key %s discarded", job.CorrelationKey)
		return
	}

	err := s.materializer.Materialize(ctx, MaterializeInput{
		ReportID:       run.input.ReportID,
		DocumentID:     doc.ID,
		Result:         result,
		SubmissionDate: run.input.SubmissionDate,
		Country:        run.input.Country,
	})
	if err != nil {
		s.failDocument(run, doc, job, domain.JobStateFailed, fmt.Sprintf("materializing line: %v", err))
		return
	}

	job.Result = result
	job.Transition(domain.JobStateCompleted)
	run.setState(doc.ID, domain.JobStateCompleted)
	run.setStatus(doc.ID, domain.DocumentStatusCompleted)
}

func (s *batchService) failDocument(run *batchRun, doc *domain.BatchDocument, job *domain.Job, state domain.JobState, msg string) {
	if job != nil {
		job.Error = msg
		job.Transition(state)
	}
	run.mu.Lock()
	run.states[doc.ID] = state
	run.errors[doc.ID] = msg
	run.status[doc.ID] = domain.DocumentStatusError
	run.mu.Unlock()

	log.Printf("batchService: document %s (file %s) %s: %s", doc.ID, doc.FileID, state, msg)
}

func (s *batchService) sendSummary(run *batchRun) {
	if s.email == nil || run.input.NotifyEmail == "" {
		return
	}

	summary := &domain.BatchSummary{
		BatchID:  run.id,
		ReportID: run.input.ReportID,
		Total:    len(run.docs),
	}
	run.mu.Lock()
	for _, state := range run.states {
		switch state {
		case domain.JobStateCompleted:
			summary.Completed++
		case domain.JobStateFailed:
			summary.Failed++
		case domain.JobStateTimedOut:
			summary.TimedOut++
		}
	}
	run.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.email.SendBatchSummary(ctx, run.input.NotifyEmail, summary); err != nil {
		log.Printf("batchService.sendSummary: batch %s summary email failed: %v", run.id, err)
	}
}

func (s *batchService) Status(batchID uuid.UUID) (*BatchProgress, error) {
	s.mu.Lock()
	run, ok := s.runs[batchID]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrBatchNotFound
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	progress := &BatchProgress{
		BatchID:   run.id,
		ReportID:  run.input.ReportID,
		Running:   !run.finished,
		Cancelled: run.cancelled,
	}
	for _, doc := range run.docs {
		progress.Documents = append(progress.Documents, DocumentProgress{
			DocumentID: doc.ID,
			FileID:     doc.FileID,
			Position:   doc.Position,
			Status:     run.status[doc.ID],
			State:      run.states[doc.ID],
			Error:      run.errors[doc.ID],
		})
	}
	return progress, nil
}

func (s *batchService) Cancel(batchID uuid.UUID) error {
	s.mu.Lock()
	run, ok := s.runs[batchID]
	s.mu.Unlock()
	if !ok {
		// Cancelling with no active batch is a no-op, not an error.
		return nil
	}

	run.cancelMu.Do(func() {
		run.mu.Lock()
		run.cancelled = true
		// Not-yet-submitted documents stay pending; the status map is
		// cleared for the UI.
		run.status = make(map[uuid.UUID]domain.DocumentStatus)
		run.mu.Unlock()

		// Stops the in-flight poll's tick and deadline timers via context.
		run.cancel()
		log.Printf("batchService.Cancel: batch %s cancelled", batchID)
	})
	return nil
}

func (s *batchService) Shutdown() {
	s.mu.Lock()
	runs := make([]*batchRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.mu.Unlock()

	for _, run := range runs {
		_ = s.Cancel(run.id)
	}
	for _, run := range runs {
		<-run.done
	}

	s.mu.Lock()
	for _, run := range runs {
		if run.evict != nil {
			run.evict.Stop()
		}
		delete(s.runs, run.id)
	}
	s.mu.Unlock()
}

func serviceError(r *domain.RecognitionResult) string {
	if len(r.Errors) > 0 {
		return r.Errors[0]
	}
	return "recognition service reported failure"
}

func (r *batchRun) setStatus(docID uuid.UUID, status domain.DocumentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[docID] = status
}

func (r *batchRun) setState(docID uuid.UUID, state domain.JobState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[docID] = state
}

func (r *batchRun) registerJob(job *domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.CorrelationKey] = job
	r.states[job.DocumentID] = job.State
}

// unregisterJob removes a job from the registry once it reaches a terminal
// state, so the registry never grows across repeated batches.
func (r *batchRun) unregisterJob(job *domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, job.CorrelationKey)
}
