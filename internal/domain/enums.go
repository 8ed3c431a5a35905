package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// FileStatus represents the lifecycle of an uploaded file.
type FileStatus string

const (
	FileStatusPending  FileStatus = "pending"
	FileStatusUploaded FileStatus = "uploaded"
	FileStatusFailed   FileStatus = "failed"
	FileStatusDeleted  FileStatus = "deleted"
)

// JobState is the per-submission state machine. Completed, Failed, TimedOut
// and Cancelled are terminal.
type JobState string

const (
	JobStateDispatched JobState = "dispatched"
	JobStatePolling    JobState = "polling"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
	JobStateTimedOut   JobState = "timed_out"
	JobStateCancelled  JobState = "cancelled"
)

// Terminal reports whether no further transition is allowed out of s.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateCompleted, JobStateFailed, JobStateTimedOut, JobStateCancelled:
		return true
	}
	return false
}

// DocumentStatus is the coarse per-document progress exposed to the UI.
type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusError      DocumentStatus = "error"
)

// LineStatus distinguishes an in-flight placeholder from a finalized line.
type LineStatus string

const (
	LineStatusDraft        LineStatus = "draft"
	LineStatusMaterialized LineStatus = "materialized"
)

// StoredResultStatus is the terminal status carried by a correlation store
// entry.
type StoredResultStatus string

const (
	StoredResultCompleted StoredResultStatus = "completed"
	StoredResultError     StoredResultStatus = "error"
)
