// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"medialog/internal/models"
	"medialog/internal/shared"
)

// MockDocumentStore is an in-memory test double for services.DocumentStore.
//
// Failure flags force the corresponding operation to return a wrapped
// [shared.ErrRemote]. Call counters and LastMerge expose interaction details
// for assertions.
type MockDocumentStore struct {
	mu     sync.Mutex
	nextID int

	Docs map[string]models.MediaRecord

	FailCreate bool
	FailQuery  bool
	FailMerge  bool
	FailDelete bool

	CreateCalls int
	QueryCalls  int
	MergeCalls  int
	DeleteCalls int

	LastMergeID     string
	LastMergeFields map[string]any
}

func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{Docs: map[string]models.MediaRecord{}}
}

func (m *MockDocumentStore) Create(ctx context.Context, collection string, record models.MediaRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.FailCreate {
		return "", fmt.Errorf("%w: simulated create failure", shared.ErrRemote)
	}

	m.nextID++
	id := fmt.Sprintf("doc-%d", m.nextID)
	record.ID = id
	m.Docs[id] = record
	return id, nil
}

func (m *MockDocumentStore) QueryByOwner(ctx context.Context, collection, ownerID string) ([]models.MediaRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCalls++
	if m.FailQuery {
		return nil, fmt.Errorf("%w: simulated query failure", shared.ErrRemote)
	}

	// Map iteration order is intentionally unspecified; callers must not
	// rely on backend ordering.
	var records []models.MediaRecord
	for _, record := range m.Docs {
		if record.OwnerID == ownerID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (m *MockDocumentStore) MergeUpdate(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MergeCalls++
	m.LastMergeID = id
	m.LastMergeFields = fields
	if m.FailMerge {
		return fmt.Errorf("%w: simulated merge failure", shared.ErrRemote)
	}

	record, ok := m.Docs[id]
	if !ok {
		return fmt.Errorf("%w: no document %s", shared.ErrRemote, id)
	}

	if title, ok := fields["title"].(string); ok {
		record.Title = title
	}
	if mediaType, ok := fields["mediaType"].(models.MediaType); ok {
		record.Type = mediaType
	} else if mediaType, ok := fields["mediaType"].(string); ok {
		record.Type = models.MediaType(mediaType)
	}
	if rating, ok := fields["rating"].(int); ok {
		record.Rating = rating
	}

	m.Docs[id] = record
	return nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls++
	if m.FailDelete {
		return fmt.Errorf("%w: simulated delete failure", shared.ErrRemote)
	}

	delete(m.Docs, id)
	return nil
}

// Len returns the number of stored documents.
func (m *MockDocumentStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Docs)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

var _ io.Writer = (*FWriter)(nil)
