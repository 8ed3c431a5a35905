// Package recognition implements the HTTP client for the external
// asynchronous document recognition service.
package recognition

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"expenso/internal/config"
	"expenso/internal/domain"
	"expenso/internal/port"
)

// Client implements port.Recognizer against the recognition service's
// submission endpoint. A freshly generated correlation key and a callback
// address travel with every submission; the service may answer synchronously
// with a one-element result array or with a bare acknowledgement.
type Client struct {
	endpoint  string
	apiKey    string
	store     port.ResultStore
	resultTTL time.Duration
	client    *http.Client
}

// NewClient creates a recognition client from config. The store receives a
// best-effort copy of any synchronously resolved result so that both
// delivery paths converge on the same correlation store.
func NewClient(cfg *config.RecognitionConfig, store port.ResultStore) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		store:     store,
		resultTTL: time.Duration(cfg.ResultTTLSecs) * time.Second,
		client:    &http.Client{Timeout: timeout},
	}
}

// NewClientWithEndpoint creates a client pointing at a custom endpoint (for
// testing).
func NewClientWithEndpoint(endpoint string, store port.ResultStore) *Client {
	return &Client{
		endpoint:  endpoint,
		store:     store,
		resultTTL: 24 * time.Hour,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Submit(ctx context.Context, input port.SubmitInput) (*port.SubmitOutcome, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("correlationKey", input.CorrelationKey); err != nil {
		return nil, fmt.Errorf("writing correlation key field: %w", err)
	}
	if err := mw.WriteField("callbackUrl", input.CallbackURL); err != nil {
		return nil, fmt.Errorf("writing callback url field: %w", err)
	}
	part, err := mw.CreateFormFile("document", input.FileName)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(input.Payload); err != nil {
		return nil, fmt.Errorf("writing payload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Correlation-Key", input.CorrelationKey)
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrSubmissionFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: recognition service returned status %d", domain.ErrSubmissionFailed, resp.StatusCode)
	}

	// A synchronous body carrying a one-element result array is immediately
	// terminal. Anything else, including a bare acknowledgement or a
	// malformed body, means the result arrives later via callback.
	result, err := DecodeResultArray(body)
	if err != nil {
		return &port.SubmitOutcome{}, nil
	}

	c.copyToStore(ctx, input.CorrelationKey, result)

	return &port.SubmitOutcome{Result: result}, nil
}

// copyToStore writes a synchronously resolved result into the correlation
// store. This is best-effort and idempotent: a late duplicate write never
// corrupts an already-consumed result, so failures are only logged.
func (c *Client) copyToStore(ctx context.Context, key string, result *domain.RecognitionResult) {
	if c.store == nil {
		return
	}
	stored := &domain.StoredResult{Status: domain.StoredResultCompleted, Data: result}
	if !result.Success {
		stored.Status = domain.StoredResultError
		stored.Error = firstError(result)
	}
	if err := c.store.Put(ctx, key, stored, c.resultTTL); err != nil {
		log.Printf("recognition.Client: best-effort store write for key %s failed: %v", key, err)
	}
}

func firstError(r *domain.RecognitionResult) string {
	if len(r.Errors) > 0 {
		return r.Errors[0]
	}
	return "recognition failed"
}
