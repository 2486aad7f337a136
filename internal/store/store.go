// package store implements the media collection view model
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"medialog/internal/models"
	"medialog/internal/services"
	"medialog/internal/shared"
)

// RemoteErrorEvent reports a non-fatal persistence failure after an
// optimistic in-memory mutation. Memory and remote state diverge until the
// record is resynced or reloaded.
type RemoteErrorEvent struct {
	Op  string // "rate", "edit", "delete", "resync"
	ID  string
	Err error
}

// EditFields carries the mutable fields of an edit operation. Nil fields are
// left unchanged; an EditFields with no fields set is a no-op.
type EditFields struct {
	Title *string
	Type  *models.MediaType
}

func (f EditFields) empty() bool {
	return f.Title == nil && f.Type == nil
}

// MediaStore holds the in-memory media collection for the current session
// and persists mutations through a [services.DocumentStore].
//
// The collection is owned exclusively by the store; callers only observe it
// through [MediaStore.Project] and the copies returned by accessors.
type MediaStore struct {
	docs       services.DocumentStore
	collection string
	logger     *log.Logger
	now        func() time.Time

	mu            sync.Mutex
	session       models.Session
	generation    uint64
	records       []models.MediaRecord
	loaded        bool
	onRemoteError func(RemoteErrorEvent)
}

// New creates a MediaStore persisting to the named collection of docs.
func New(docs services.DocumentStore, collection string, logger *log.Logger) *MediaStore {
	if collection == "" {
		collection = "media"
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &MediaStore{
		docs:       docs,
		collection: collection,
		logger:     logger,
		now:        time.Now,
	}
}

// OnRemoteError registers the handler for non-fatal persistence failures.
// Without a handler, events are logged at warn level.
func (s *MediaStore) OnRemoteError(fn func(RemoteErrorEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRemoteError = fn
}

// Session returns the session the collection is currently bound to.
func (s *MediaStore) Session() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Len returns the current collection size.
func (s *MediaStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Get returns a copy of the record with the given id.
func (s *MediaStore) Get(id string) (models.MediaRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.records[idx], true
	}
	return models.MediaRecord{}, false
}

// Load fetches all records owned by the session's user and replaces the
// in-memory collection wholesale. Backend result order carries no contract;
// display ordering always comes from [MediaStore.Project].
//
// A load failure leaves the store empty rather than stale.
func (s *MediaStore) Load(ctx context.Context, session models.Session) ([]models.MediaRecord, error) {
	if !session.Authenticated() {
		return nil, shared.ErrNotAuthenticated
	}

	s.mu.Lock()
	s.session = session
	s.generation++
	gen := s.generation
	s.records = nil
	s.loaded = false
	s.mu.Unlock()

	records, err := s.docs.QueryByOwner(ctx, s.collection, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return nil, shared.ErrSessionChanged
	}

	kept := make([]models.MediaRecord, 0, len(records))
	for _, record := range records {
		if record.OwnerID != session.UserID {
			s.logger.Warnf("dropping foreign record %s (owner %s)", record.ID, record.OwnerID)
			continue
		}
		kept = append(kept, record)
	}

	s.records = kept
	s.loaded = true
	s.logger.Infof("loaded %d records for %s", len(kept), session.Email)

	out := make([]models.MediaRecord, len(kept))
	copy(out, kept)
	return out, nil
}

// Reset discards the collection and session binding. In-flight operation
// completions from before the reset are discarded, not applied.
func (s *MediaStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = models.Session{}
	s.generation++
	s.records = nil
	s.loaded = false
}

// Add validates input, persists a new record, and appends it to memory once
// the store has assigned an id. On persistence failure memory is unchanged.
func (s *MediaStore) Add(ctx context.Context, title string, mediaType models.MediaType) (models.MediaRecord, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.MediaRecord{}, fmt.Errorf("%w: title must not be empty", shared.ErrValidation)
	}
	if !mediaType.Valid() {
		return models.MediaRecord{}, fmt.Errorf("%w: unknown media type %q", shared.ErrValidation, mediaType)
	}

	s.mu.Lock()
	if !s.session.Authenticated() {
		s.mu.Unlock()
		return models.MediaRecord{}, shared.ErrNotAuthenticated
	}
	record := models.MediaRecord{
		OwnerID:   s.session.UserID,
		Title:     title,
		Type:      mediaType,
		Rating:    models.MinRating,
		CreatedAt: s.now(),
	}
	gen := s.generation
	s.mu.Unlock()

	id, err := s.docs.Create(ctx, s.collection, record)
	if err != nil {
		return models.MediaRecord{}, fmt.Errorf("failed to create record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return models.MediaRecord{}, shared.ErrSessionChanged
	}

	record.ID = id
	s.records = append(s.records, record)
	return record, nil
}

// SetRating updates a record's rating in memory immediately, then issues a
// merge persist of the rating field only. A persist failure leaves the
// optimistic update in place, marks the record dirty, and emits a
// [RemoteErrorEvent]; the call itself still succeeds.
func (s *MediaStore) SetRating(ctx context.Context, id string, rating int) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", shared.ErrValidation, models.MinRating, models.MaxRating)
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}
	s.records[idx].Rating = rating
	s.records[idx].Dirty = true
	gen := s.generation
	s.mu.Unlock()

	err := s.docs.MergeUpdate(ctx, s.collection, id, map[string]any{"rating": rating})
	s.complete(gen, "rate", id, err)
	return nil
}

// Edit updates title and/or type with the same optimistic discipline as
// [MediaStore.SetRating]. An edit with no fields set is a no-op success.
func (s *MediaStore) Edit(ctx context.Context, id string, fields EditFields) error {
	partial := map[string]any{}
	if fields.Title != nil {
		title := strings.TrimSpace(*fields.Title)
		if title == "" {
			return fmt.Errorf("%w: title must not be empty", shared.ErrValidation)
		}
		partial["title"] = title
	}
	if fields.Type != nil {
		if !fields.Type.Valid() {
			return fmt.Errorf("%w: unknown media type %q", shared.ErrValidation, *fields.Type)
		}
		partial["mediaType"] = *fields.Type
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}
	if fields.empty() {
		s.mu.Unlock()
		return nil
	}
	if title, ok := partial["title"].(string); ok {
		s.records[idx].Title = title
	}
	if mediaType, ok := partial["mediaType"].(models.MediaType); ok {
		s.records[idx].Type = mediaType
	}
	s.records[idx].Dirty = true
	gen := s.generation
	s.mu.Unlock()

	err := s.docs.MergeUpdate(ctx, s.collection, id, partial)
	s.complete(gen, "edit", id, err)
	return nil
}

// Remove drops the record from memory immediately and issues a remote
// delete. A failed remote delete does NOT restore the record; the
// divergence is surfaced through [RemoteErrorEvent].
func (s *MediaStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	gen := s.generation
	s.mu.Unlock()

	if err := s.docs.Delete(ctx, s.collection, id); err != nil {
		s.mu.Lock()
		stale := s.generation != gen
		s.mu.Unlock()
		if !stale {
			s.reportRemoteError(RemoteErrorEvent{Op: "delete", ID: id, Err: err})
		}
	}
	return nil
}

// Resync re-persists all mutable fields of a dirty record and clears the
// flag on success. Unlike the optimistic mutations, a resync failure is
// returned to the caller.
func (s *MediaStore) Resync(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}
	if !s.records[idx].Dirty {
		s.mu.Unlock()
		return nil
	}
	record := s.records[idx]
	gen := s.generation
	s.mu.Unlock()

	partial := map[string]any{
		"title":     record.Title,
		"mediaType": record.Type,
		"rating":    record.Rating,
	}
	if err := s.docs.MergeUpdate(ctx, s.collection, id, partial); err != nil {
		return fmt.Errorf("failed to resync record %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return shared.ErrSessionChanged
	}
	if idx := s.indexOf(id); idx >= 0 {
		s.records[idx].Dirty = false
	}
	return nil
}

// Dirty returns copies of all records with unsynced local changes.
func (s *MediaStore) Dirty() []models.MediaRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dirty []models.MediaRecord
	for _, record := range s.records {
		if record.Dirty {
			dirty = append(dirty, record)
		}
	}
	return dirty
}

// Project derives the display view for the query: filter, stable sort, and
// per-type totals. It is pure with respect to store state and reflects
// optimistic updates immediately. Counts cover the FULL collection, not the
// filtered subset.
func (s *MediaStore) Project(query models.ViewQuery) models.Projection {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[models.MediaType]int, len(models.MediaTypes()))
	for _, t := range models.MediaTypes() {
		counts[t] = 0
	}

	items := make([]models.MediaRecord, 0, len(s.records))
	for _, record := range s.records {
		counts[record.Type]++
		if query.Matches(&record) {
			items = append(items, record)
		}
	}

	// Stable sort keeps relative memory order on ties; display order is
	// reproducible by contract.
	switch query.Sort {
	case models.SortNewest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	case models.SortOldest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		})
	case models.SortHighestRated:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Rating > items[j].Rating
		})
	}

	return models.Projection{Items: items, Counts: counts}
}

// complete finishes an optimistic mutation: stale completions (session
// changed while the persist was in flight) are discarded, failures emit an
// event and keep the dirty flag, successes clear it.
func (s *MediaStore) complete(gen uint64, op, id string, err error) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	if err == nil {
		if idx := s.indexOf(id); idx >= 0 {
			s.records[idx].Dirty = false
		}
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.reportRemoteError(RemoteErrorEvent{Op: op, ID: id, Err: err})
}

func (s *MediaStore) reportRemoteError(event RemoteErrorEvent) {
	s.mu.Lock()
	fn := s.onRemoteError
	s.mu.Unlock()

	if fn != nil {
		fn(event)
		return
	}
	s.logger.Warnf("%s failed for record %s: %v", event.Op, event.ID, event.Err)
}

// indexOf returns the position of id in the collection, or -1. Callers must
// hold the lock.
func (s *MediaStore) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}
