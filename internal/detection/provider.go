package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"milguard_backend/internal/model"
)

// Content is one submission handed to the providers.
type Content struct {
	Type     model.ContentType
	Text     string
	Data     []byte
	FileName string
	MimeType string
}

// Provider is an external AI-content detection service.
type Provider interface {
	Name() string
	Supports(model.ContentType) bool
	Detect(ctx context.Context, content Content) (model.ProviderResult, error)
}

// ProviderError is a failed call to one provider: transport failure,
// non-2xx status or an unreadable payload.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

const maxErrorBody = 2048

func newHTTPClient() *http.Client {
	// the dispatcher's context deadline is authoritative; this only guards
	// against a provider used on its own
	return &http.Client{Timeout: 60 * time.Second}
}

func jsonBody(v interface{}) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// doJSON sends req and decodes a 2xx JSON response into out.
func doJSON(client *http.Client, provider string, req *http.Request, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return &ProviderError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", bytes.TrimSpace(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
