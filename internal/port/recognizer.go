package port

import (
	"context"

	"expenso/internal/domain"
)

// SubmitInput carries one document payload to the recognition service.
type SubmitInput struct {
	Payload        []byte
	ContentType    string
	FileName       string
	CorrelationKey string
	CallbackURL    string
}

// SubmitOutcome is the result of a submission call. Result is non-nil only
// when the service answered synchronously with a terminal result; a nil
// Result means the call was acknowledged and the caller must poll.
type SubmitOutcome struct {
	Result *domain.RecognitionResult
}

// Recognizer abstracts the external asynchronous recognition service.
type Recognizer interface {
	Submit(ctx context.Context, input SubmitInput) (*SubmitOutcome, error)
}
