// HTTP client for the remote document store API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"medialog/internal/models"
	"medialog/internal/shared"
)

// document is the wire shape of a persisted media record. Timestamps travel
// as epoch milliseconds.
type document struct {
	ID        string           `json:"id,omitempty"`
	OwnerID   string           `json:"ownerId"`
	Title     string           `json:"title"`
	MediaType models.MediaType `json:"mediaType"`
	Rating    int              `json:"rating"`
	CreatedAt int64            `json:"createdAt"`
}

func toDocument(r models.MediaRecord) document {
	return document{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Title:     r.Title,
		MediaType: r.Type,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt.UnixMilli(),
	}
}

func (d document) toRecord() models.MediaRecord {
	return models.MediaRecord{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Title:     d.Title,
		Type:      d.MediaType,
		Rating:    d.Rating,
		CreatedAt: time.UnixMilli(d.CreatedAt),
	}
}

// HTTPDocumentStore implements [DocumentStore] against a REST document API.
//
// Routes:
//
//	POST   /collections/{collection}        create, returns {"id": ...}
//	GET    /collections/{collection}?ownerId= query
//	PATCH  /collections/{collection}/{id}   merge update
//	DELETE /collections/{collection}/{id}   delete
type HTTPDocumentStore struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
}

// NewHTTPDocumentStore creates a document store client. The token source may
// be nil for unauthenticated stores (tests, local proxies).
func NewHTTPDocumentStore(baseURL string, client *http.Client, tokens oauth2.TokenSource) *HTTPDocumentStore {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPDocumentStore{
		baseURL:    baseURL,
		httpClient: client,
		tokens:     tokens,
	}
}

// Create persists a record and returns the id assigned by the API.
func (s *HTTPDocumentStore) Create(ctx context.Context, collection string, record models.MediaRecord) (string, error) {
	body, err := json.Marshal(toDocument(record))
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	data, err := s.do(ctx, http.MethodPost, "/collections/"+url.PathEscape(collection), body)
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("%w: malformed create response: %v", shared.ErrRemote, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: create response missing id", shared.ErrRemote)
	}

	return created.ID, nil
}

// QueryByOwner retrieves all records owned by ownerID.
func (s *HTTPDocumentStore) QueryByOwner(ctx context.Context, collection, ownerID string) ([]models.MediaRecord, error) {
	path := fmt.Sprintf("/collections/%s?ownerId=%s", url.PathEscape(collection), url.QueryEscape(ownerID))

	data, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Documents []document `json:"documents"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: malformed query response: %v", shared.ErrRemote, err)
	}

	records := make([]models.MediaRecord, 0, len(result.Documents))
	for _, doc := range result.Documents {
		records = append(records, doc.toRecord())
	}

	return records, nil
}

// MergeUpdate applies a partial update to the record with the given id.
func (s *HTTPDocumentStore) MergeUpdate(ctx context.Context, collection, id string, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	path := fmt.Sprintf("/collections/%s/%s", url.PathEscape(collection), url.PathEscape(id))
	_, err = s.do(ctx, http.MethodPatch, path, body)
	return err
}

// Delete removes the record with the given id.
func (s *HTTPDocumentStore) Delete(ctx context.Context, collection, id string) error {
	path := fmt.Sprintf("/collections/%s/%s", url.PathEscape(collection), url.PathEscape(id))
	_, err := s.do(ctx, http.MethodDelete, path, nil)
	return err
}

// do performs an HTTP request against the document API and returns the
// response body for 2xx statuses. Any transport or status failure wraps
// [shared.ErrRemote].
func (s *HTTPDocumentStore) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if s.tokens != nil {
		token, err := s.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
		}
		token.SetAuthHeader(req)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRemote, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrRemote, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrRemote, resp.StatusCode)
	}

	return data, nil
}
