package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zizouhuweidi/quizflow/internal/domain"
)

// maxDocumentSize caps how much of a response body is read
const maxDocumentSize = 4 << 20

// HTTPSource fetches the quiz document from a fixed URL
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for url. The timeout bounds the whole request.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch issues a single GET and checks the document's shape
func (s *HTTPSource) Fetch(ctx context.Context) (*domain.QuizDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &domain.LoadError{Stage: domain.LoadStageFetch, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.LoadError{Stage: domain.LoadStageFetch, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.LoadError{
			Stage: domain.LoadStageStatus,
			Err:   fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, &domain.LoadError{Stage: domain.LoadStageFetch, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if len(body) > maxDocumentSize {
		return nil, &domain.LoadError{
			Stage: domain.LoadStageShape,
			Err:   fmt.Errorf("document exceeds %d bytes", maxDocumentSize),
		}
	}

	return DecodeDocument(body)
}

// DecodeDocument parses a quiz document. The top-level questions field must
// be present and must be a list.
func DecodeDocument(body []byte) (*domain.QuizDocument, error) {
	var envelope struct {
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &domain.LoadError{Stage: domain.LoadStageDecode, Err: err}
	}

	raw := bytes.TrimSpace(envelope.Questions)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &domain.LoadError{Stage: domain.LoadStageShape, Err: errors.New("missing questions field")}
	}
	if raw[0] != '[' {
		return nil, &domain.LoadError{Stage: domain.LoadStageShape, Err: errors.New("questions is not a list")}
	}

	var doc domain.QuizDocument
	if err := json.Unmarshal(raw, &doc.Questions); err != nil {
		return nil, &domain.LoadError{Stage: domain.LoadStageShape, Err: err}
	}
	return &doc, nil
}
