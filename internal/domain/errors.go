package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrFileNotFound        = errors.New("file not found")
	ErrLineNotFound        = errors.New("expense line not found")
	ErrBatchNotFound       = errors.New("batch not found")
	ErrBatchActive         = errors.New("a batch is already running for this report")
	ErrEmptyBatch          = errors.New("batch contains no documents")
	ErrSubmissionFailed    = errors.New("document submission to recognition service failed")
	ErrInvalidCallback     = errors.New("callback payload is not a one-element result array")
)
