package recognition

import (
	"encoding/json"

	"expenso/internal/domain"
	"expenso/internal/matcher"
)

// resultEnvelope models one element of the service's array-of-one response
// shape. The same shape arrives on the synchronous submission response and on
// the out-of-band callback.
type resultEnvelope struct {
	Success      bool              `json:"success"`
	Confidence   float64           `json:"confidence"`
	DocumentType string            `json:"documentType"`
	Errors       []string          `json:"errors"`
	Warnings     []string          `json:"warnings"`
	ErrorCount   int               `json:"errorCount"`
	WarningCount int               `json:"warningCount"`
	QualityGrade string            `json:"qualityGrade"`
	FileName     string            `json:"fileName"`
	FileID       string            `json:"fileId"`
	WebViewLink  string            `json:"webViewLink"`
	ProcessedAt  string            `json:"processedAt"`
	Output       map[string]string `json:"output"`
}

func (e *resultEnvelope) toDomain() *domain.RecognitionResult {
	return &domain.RecognitionResult{
		Success:      e.Success,
		Confidence:   matcher.NormalizeConfidence(e.Confidence),
		DocumentType: e.DocumentType,
		Errors:       e.Errors,
		Warnings:     e.Warnings,
		ErrorCount:   e.ErrorCount,
		WarningCount: e.WarningCount,
		QualityGrade: e.QualityGrade,
		FileName:     e.FileName,
		FileID:       e.FileID,
		WebViewLink:  e.WebViewLink,
		ProcessedAt:  e.ProcessedAt,
		Output:       e.Output,
	}
}

// DecodeResultArray parses the service's array-of-one result shape. It
// returns domain.ErrInvalidCallback when the body is not a one-element array
// carrying an output field map.
func DecodeResultArray(body []byte) (*domain.RecognitionResult, error) {
	var envelopes []resultEnvelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, domain.ErrInvalidCallback
	}
	if len(envelopes) != 1 || envelopes[0].Output == nil {
		return nil, domain.ErrInvalidCallback
	}
	return envelopes[0].toDomain(), nil
}
