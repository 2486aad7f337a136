package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"medialog/internal/models"
	"medialog/internal/shared"
	tu "medialog/internal/testing"
)

var testSession = models.Session{UserID: "user-1", Email: "user@example.com"}

// newTestStore returns a loaded store with a deterministic clock and the
// backing mock document store.
func newTestStore(t *testing.T) (*MediaStore, *tu.MockDocumentStore) {
	t.Helper()

	docs := tu.NewMockDocumentStore()
	s := New(docs, "media", shared.NewLogger(io.Discard))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	if _, err := s.Load(context.Background(), testSession); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}

	return s, docs
}

func mustAdd(t *testing.T, s *MediaStore, title string, mediaType models.MediaType) models.MediaRecord {
	t.Helper()
	record, err := s.Add(context.Background(), title, mediaType)
	if err != nil {
		t.Fatalf("failed to add %q: %v", title, err)
	}
	return record
}

func TestMediaStore_Load(t *testing.T) {
	t.Run("Replaces Collection", func(t *testing.T) {
		s, docs := newTestStore(t)
		mustAdd(t, s, "Dune", models.TypeBook)

		other := models.Session{UserID: "user-2", Email: "other@example.com"}
		docs.Docs["foreign-1"] = models.MediaRecord{ID: "foreign-1", OwnerID: other.UserID, Title: "Heat", Type: models.TypeMovie}

		records, err := s.Load(context.Background(), other)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}

		if len(records) != 1 || records[0].Title != "Heat" {
			t.Errorf("expected only the new user's records, got %v", records)
		}

		if s.Session().UserID != other.UserID {
			t.Errorf("expected session rebound to user-2, got %s", s.Session().UserID)
		}
	})

	t.Run("Drops Foreign Records", func(t *testing.T) {
		s, docs := newTestStore(t)
		docs.Docs["stray"] = models.MediaRecord{ID: "stray", OwnerID: "someone-else", Title: "Stray", Type: models.TypeMovie}

		records, err := s.Load(context.Background(), testSession)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}

		for _, record := range records {
			if record.OwnerID != testSession.UserID {
				t.Errorf("record %s has foreign owner %s", record.ID, record.OwnerID)
			}
		}
	})

	t.Run("Requires Authentication", func(t *testing.T) {
		docs := tu.NewMockDocumentStore()
		s := New(docs, "media", shared.NewLogger(io.Discard))

		if _, err := s.Load(context.Background(), models.Session{}); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Failure Leaves Store Empty", func(t *testing.T) {
		s, docs := newTestStore(t)
		mustAdd(t, s, "Dune", models.TypeBook)

		docs.FailQuery = true
		if _, err := s.Load(context.Background(), testSession); !errors.Is(err, shared.ErrRemote) {
			t.Errorf("expected ErrRemote, got %v", err)
		}

		if s.Len() != 0 {
			t.Errorf("expected empty store after failed load, got %d records", s.Len())
		}
	})
}

func TestMediaStore_Add(t *testing.T) {
	t.Run("Empty Title", func(t *testing.T) {
		s, _ := newTestStore(t)

		_, err := s.Add(context.Background(), "", models.TypeMovie)
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}

		if s.Len() != 0 {
			t.Errorf("collection size should be unchanged, got %d", s.Len())
		}
	})

	t.Run("Unknown Type", func(t *testing.T) {
		s, docs := newTestStore(t)

		_, err := s.Add(context.Background(), "Dune", models.MediaType("Podcast"))
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}

		if docs.CreateCalls != 0 {
			t.Error("validation must happen before any remote call")
		}
	})

	t.Run("Remote Failure Leaves Memory Unchanged", func(t *testing.T) {
		s, docs := newTestStore(t)
		docs.FailCreate = true

		_, err := s.Add(context.Background(), "Dune", models.TypeBook)
		if !errors.Is(err, shared.ErrRemote) {
			t.Errorf("expected ErrRemote, got %v", err)
		}

		if s.Len() != 0 {
			t.Errorf("expected no partial insert, got %d records", s.Len())
		}
	})

	t.Run("Success Appends Stored Record", func(t *testing.T) {
		s, _ := newTestStore(t)

		record := mustAdd(t, s, "Dune", models.TypeBook)
		if record.ID == "" {
			t.Error("expected id assigned by the document store")
		}
		if record.Rating != 0 {
			t.Errorf("new records start unrated, got %d", record.Rating)
		}
		if record.OwnerID != testSession.UserID {
			t.Errorf("expected owner %s, got %s", testSession.UserID, record.OwnerID)
		}

		projection := s.Project(models.ViewQuery{TypeFilter: models.TypeAll})
		if len(projection.Items) != 1 || projection.Items[0].Title != "Dune" {
			t.Errorf("expected Dune visible immediately, got %v", projection.Items)
		}
	})

	t.Run("CreatedAt Non-Decreasing", func(t *testing.T) {
		s, _ := newTestStore(t)

		first := mustAdd(t, s, "Dune", models.TypeBook)
		second := mustAdd(t, s, "Heat", models.TypeMovie)

		if second.CreatedAt.Before(first.CreatedAt) {
			t.Error("createdAt must be non-decreasing with insertion order")
		}
	})
}

func TestMediaStore_SetRating(t *testing.T) {
	t.Run("Out Of Range", func(t *testing.T) {
		s, _ := newTestStore(t)
		record := mustAdd(t, s, "Dune", models.TypeBook)

		if err := s.SetRating(context.Background(), record.ID, 6); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}

		got, _ := s.Get(record.ID)
		if got.Rating != 0 {
			t.Errorf("rating should be unchanged, got %d", got.Rating)
		}
	})

	t.Run("Unknown ID", func(t *testing.T) {
		s, _ := newTestStore(t)

		if err := s.SetRating(context.Background(), "nope", 3); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Persists Rating Field Only", func(t *testing.T) {
		s, docs := newTestStore(t)
		record := mustAdd(t, s, "Dune", models.TypeBook)

		if err := s.SetRating(context.Background(), record.ID, 4); err != nil {
			t.Fatalf("failed to set rating: %v", err)
		}

		if len(docs.LastMergeFields) != 1 {
			t.Errorf("expected a single merged field, got %v", docs.LastMergeFields)
		}
		if rating, ok := docs.LastMergeFields["rating"].(int); !ok || rating != 4 {
			t.Errorf("expected rating 4 merged, got %v", docs.LastMergeFields)
		}

		got, _ := s.Get(record.ID)
		if got.Rating != 4 || got.Dirty {
			t.Errorf("expected clean record with rating 4, got rating=%d dirty=%v", got.Rating, got.Dirty)
		}
	})

	t.Run("Persist Failure Keeps Optimistic Update", func(t *testing.T) {
		s, docs := newTestStore(t)
		record := mustAdd(t, s, "Dune", models.TypeBook)
		docs.FailMerge = true

		var event RemoteErrorEvent
		s.OnRemoteError(func(e RemoteErrorEvent) { event = e })

		if err := s.SetRating(context.Background(), record.ID, 5); err != nil {
			t.Fatalf("optimistic rating must report success, got %v", err)
		}

		got, _ := s.Get(record.ID)
		if got.Rating != 5 {
			t.Errorf("expected optimistic rating 5, got %d", got.Rating)
		}
		if !got.Dirty {
			t.Error("expected record marked dirty after failed persist")
		}
		if event.Op != "rate" || event.ID != record.ID {
			t.Errorf("expected rate event for %s, got %+v", record.ID, event)
		}
	})
}

func TestMediaStore_Edit(t *testing.T) {
	t.Run("No-op Edit Succeeds", func(t *testing.T) {
		s, docs := newTestStore(t)
		record := mustAdd(t, s, "Dune", models.TypeBook)

		before := docs.MergeCalls
		if err := s.Edit(context.Background(), record.ID, EditFields{}); err != nil {
			t.Fatalf("no-op edit should succeed, got %v", err)
		}
		if docs.MergeCalls != before {
			t.Error("no-op edit must not issue a remote call")
		}
	})

	t.Run("Unknown ID", func(t *testing.T) {
		s, _ := newTestStore(t)

		title := "Updated"
		if err := s.Edit(context.Background(), "nope", EditFields{Title: &title}); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Empty Title Rejected", func(t *testing.T) {
		s, _ := newTestStore(t)
		record := mustAdd(t, s, "Dune", models.TypeBook)

		title := "   "
		if err := s.Edit(context.Background(), record.ID, EditFields{Title: &title}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}

		got, _ := s.Get(record.ID)
		if got.Title != "Dune" {
			t.Errorf("title should be unchanged, got %q", got.Title)
		}
	})

	t.Run("Updates Title And Type", func(t *testing.T) {
		s, docs := newTestStore(t)
		record := mustAdd(t, s, "Dune", models.TypeBook)

		title := "Dune Messiah"
		mediaType := models.TypeMovie
		if err := s.Edit(context.Background(), record.ID, EditFields{Title: &title, Type: &mediaType}); err != nil {
			t.Fatalf("failed to edit: %v", err)
		}

		got, _ := s.Get(record.ID)
		if got.Title != "Dune Messiah" || got.Type != models.TypeMovie {
			t.Errorf("unexpected record after edit: %+v", got)
		}

		if docs.LastMergeFields["title"] != "Dune Messiah" {
			t.Errorf("expected merged title, got %v", docs.LastMergeFields)
		}
	})

	t.Run("Persist Failure Marks Dirty", func(t *testing.T) {
		s, docs := newTestStore(t)
		record := mustAdd(t, s, "Dune", models.TypeBook)
		docs.FailMerge = true

		title := "Dune Messiah"
		if err := s.Edit(context.Background(), record.ID, EditFields{Title: &title}); err != nil {
			t.Fatalf("optimistic edit must report success, got %v", err)
		}

		got, _ := s.Get(record.ID)
		if got.Title != "Dune Messiah" || !got.Dirty {
			t.Errorf("expected dirty optimistic update, got %+v", got)
		}
	})
}

func TestMediaStore_Remove(t *testing.T) {
	t.Run("Unknown ID", func(t *testing.T) {
		s, _ := newTestStore(t)
		mustAdd(t, s, "Dune", models.TypeBook)

		if err := s.Remove(context.Background(), "nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		if s.Len() != 1 {
			t.Errorf("collection should be unchanged, got %d records", s.Len())
		}
	})

	t.Run("Removes From Memory And Remote", func(t *testing.T) {
		s, docs := newTestStore(t)
		record := mustAdd(t, s, "Dune", models.TypeBook)

		if err := s.Remove(context.Background(), record.ID); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}

		if s.Len() != 0 {
			t.Errorf("expected empty collection, got %d", s.Len())
		}
		if docs.Len() != 0 {
			t.Errorf("expected remote delete, %d documents remain", docs.Len())
		}
	})

	t.Run("Failed Remote Delete Does Not Restore", func(t *testing.T) {
		s, docs := newTestStore(t)
		record := mustAdd(t, s, "Dune", models.TypeBook)
		docs.FailDelete = true

		var event RemoteErrorEvent
		s.OnRemoteError(func(e RemoteErrorEvent) { event = e })

		if err := s.Remove(context.Background(), record.ID); err != nil {
			t.Fatalf("remove reports success despite remote failure, got %v", err)
		}

		if s.Len() != 0 {
			t.Error("record must stay removed from memory")
		}
		if event.Op != "delete" {
			t.Errorf("expected delete event, got %+v", event)
		}
	})
}

func TestMediaStore_Resync(t *testing.T) {
	t.Run("Clean Record Is No-op", func(t *testing.T) {
		s, docs := newTestStore(t)
		record := mustAdd(t, s, "Dune", models.TypeBook)

		before := docs.MergeCalls
		if err := s.Resync(context.Background(), record.ID); err != nil {
			t.Fatalf("resync of clean record should succeed, got %v", err)
		}
		if docs.MergeCalls != before {
			t.Error("clean record must not be re-persisted")
		}
	})

	t.Run("Re-persists All Mutable Fields", func(t *testing.T) {
		s, docs := newTestStore(t)
		record := mustAdd(t, s, "Dune", models.TypeBook)

		docs.FailMerge = true
		s.OnRemoteError(func(RemoteErrorEvent) {})
		if err := s.SetRating(context.Background(), record.ID, 3); err != nil {
			t.Fatalf("failed to set rating: %v", err)
		}

		docs.FailMerge = false
		if err := s.Resync(context.Background(), record.ID); err != nil {
			t.Fatalf("failed to resync: %v", err)
		}

		if len(docs.LastMergeFields) != 3 {
			t.Errorf("expected title, mediaType and rating merged, got %v", docs.LastMergeFields)
		}

		got, _ := s.Get(record.ID)
		if got.Dirty {
			t.Error("expected dirty flag cleared after resync")
		}
		if len(s.Dirty()) != 0 {
			t.Errorf("expected no dirty records, got %d", len(s.Dirty()))
		}
	})

	t.Run("Failure Is Returned", func(t *testing.T) {
		s, docs := newTestStore(t)
		record := mustAdd(t, s, "Dune", models.TypeBook)

		docs.FailMerge = true
		s.OnRemoteError(func(RemoteErrorEvent) {})
		if err := s.SetRating(context.Background(), record.ID, 3); err != nil {
			t.Fatalf("failed to set rating: %v", err)
		}

		if err := s.Resync(context.Background(), record.ID); !errors.Is(err, shared.ErrRemote) {
			t.Errorf("expected ErrRemote from resync, got %v", err)
		}
	})
}

func TestMediaStore_Project(t *testing.T) {
	t.Run("All Filter Returns Full Collection", func(t *testing.T) {
		s, _ := newTestStore(t)
		mustAdd(t, s, "Dune", models.TypeBook)
		mustAdd(t, s, "Heat", models.TypeMovie)
		mustAdd(t, s, "OK Computer", models.TypeMusic)

		projection := s.Project(models.ViewQuery{TypeFilter: models.TypeAll})
		if len(projection.Items) != s.Len() {
			t.Errorf("expected %d items, got %d", s.Len(), len(projection.Items))
		}
	})

	t.Run("Counts Independent Of Filter", func(t *testing.T) {
		s, _ := newTestStore(t)
		mustAdd(t, s, "Dune", models.TypeBook)
		mustAdd(t, s, "Heat", models.TypeMovie)
		mustAdd(t, s, "Alien", models.TypeMovie)

		projection := s.Project(models.ViewQuery{TypeFilter: models.TypeBook})
		if len(projection.Items) != 1 {
			t.Errorf("expected 1 filtered item, got %d", len(projection.Items))
		}

		if projection.Counts[models.TypeMovie] != 2 || projection.Counts[models.TypeBook] != 1 {
			t.Errorf("counts must cover the full collection, got %v", projection.Counts)
		}
		if projection.Total() != s.Len() {
			t.Errorf("counts must sum to collection size, got %d vs %d", projection.Total(), s.Len())
		}
	})

	t.Run("Case-Insensitive Search", func(t *testing.T) {
		s, _ := newTestStore(t)
		mustAdd(t, s, "The Godfather", models.TypeMovie)
		mustAdd(t, s, "Goodfellas", models.TypeMovie)

		projection := s.Project(models.ViewQuery{TypeFilter: models.TypeAll, SearchText: "gODFA"})
		if len(projection.Items) != 1 || projection.Items[0].Title != "The Godfather" {
			t.Errorf("expected case-insensitive substring match, got %v", projection.Items)
		}
	})

	t.Run("Newest And Oldest Reverse Each Other", func(t *testing.T) {
		s, _ := newTestStore(t)
		mustAdd(t, s, "First", models.TypeBook)
		mustAdd(t, s, "Second", models.TypeBook)
		mustAdd(t, s, "Third", models.TypeBook)

		newest := s.Project(models.ViewQuery{TypeFilter: models.TypeAll, Sort: models.SortNewest})
		oldest := s.Project(models.ViewQuery{TypeFilter: models.TypeAll, Sort: models.SortOldest})

		for i := range newest.Items {
			mirrored := oldest.Items[len(oldest.Items)-1-i]
			if newest.Items[i].ID != mirrored.ID {
				t.Errorf("position %d: expected %s, got %s", i, mirrored.ID, newest.Items[i].ID)
			}
		}
		if newest.Items[0].Title != "Third" {
			t.Errorf("expected newest first, got %s", newest.Items[0].Title)
		}
	})

	t.Run("Stable Sort Preserves Tie Order", func(t *testing.T) {
		s, _ := newTestStore(t)
		fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return fixed }

		a := mustAdd(t, s, "Alpha", models.TypeBook)
		b := mustAdd(t, s, "Beta", models.TypeBook)

		for _, sortKey := range []models.SortKey{models.SortNewest, models.SortOldest} {
			projection := s.Project(models.ViewQuery{TypeFilter: models.TypeAll, Sort: sortKey})
			if projection.Items[0].ID != a.ID || projection.Items[1].ID != b.ID {
				t.Errorf("sort %v: ties must keep memory order, got %s then %s",
					sortKey, projection.Items[0].Title, projection.Items[1].Title)
			}
		}
	})

	t.Run("Highest Rated Descending", func(t *testing.T) {
		s, _ := newTestStore(t)
		low := mustAdd(t, s, "Low", models.TypeMovie)
		high := mustAdd(t, s, "High", models.TypeMovie)

		if err := s.SetRating(context.Background(), low.ID, 2); err != nil {
			t.Fatal(err)
		}
		if err := s.SetRating(context.Background(), high.ID, 5); err != nil {
			t.Fatal(err)
		}

		projection := s.Project(models.ViewQuery{TypeFilter: models.TypeAll, Sort: models.SortHighestRated})
		if projection.Items[0].ID != high.ID {
			t.Errorf("expected highest rating first, got %s", projection.Items[0].Title)
		}
	})

	t.Run("End To End Counts And Filtered Order", func(t *testing.T) {
		s, _ := newTestStore(t)
		first := mustAdd(t, s, "Heat", models.TypeMovie)
		mustAdd(t, s, "Dune", models.TypeBook)
		second := mustAdd(t, s, "Alien", models.TypeMovie)

		projection := s.Project(models.ViewQuery{TypeFilter: models.TypeAll})
		want := map[models.MediaType]int{
			models.TypeMovie:  2,
			models.TypeBook:   1,
			models.TypeTVShow: 0,
			models.TypeMusic:  0,
		}
		for mediaType, count := range want {
			if projection.Counts[mediaType] != count {
				t.Errorf("count for %s: expected %d, got %d", mediaType, count, projection.Counts[mediaType])
			}
		}

		movies := s.Project(models.ViewQuery{TypeFilter: models.TypeMovie})
		if len(movies.Items) != 2 {
			t.Fatalf("expected 2 movies, got %d", len(movies.Items))
		}
		if movies.Items[0].ID != first.ID || movies.Items[1].ID != second.ID {
			t.Errorf("expected insertion order (Heat, Alien), got (%s, %s)",
				movies.Items[0].Title, movies.Items[1].Title)
		}
	})
}

// hookedStore wraps the mock and runs a callback before MergeUpdate /
// Create, to exercise session changes racing in-flight persistence.
type hookedStore struct {
	*tu.MockDocumentStore
	beforeMerge  func()
	beforeCreate func()
}

func (h *hookedStore) MergeUpdate(ctx context.Context, collection, id string, fields map[string]any) error {
	if h.beforeMerge != nil {
		h.beforeMerge()
	}
	return h.MockDocumentStore.MergeUpdate(ctx, collection, id, fields)
}

func (h *hookedStore) Create(ctx context.Context, collection string, record models.MediaRecord) (string, error) {
	if h.beforeCreate != nil {
		h.beforeCreate()
	}
	return h.MockDocumentStore.Create(ctx, collection, record)
}

func TestMediaStore_SessionGuards(t *testing.T) {
	t.Run("Add Completion After Reset Is Discarded", func(t *testing.T) {
		hooked := &hookedStore{MockDocumentStore: tu.NewMockDocumentStore()}
		s := New(hooked, "media", shared.NewLogger(io.Discard))
		if _, err := s.Load(context.Background(), testSession); err != nil {
			t.Fatalf("failed to load: %v", err)
		}

		hooked.beforeCreate = func() { s.Reset() }

		if _, err := s.Add(context.Background(), "Dune", models.TypeBook); !errors.Is(err, shared.ErrSessionChanged) {
			t.Errorf("expected ErrSessionChanged, got %v", err)
		}

		if s.Len() != 0 {
			t.Errorf("stale create must not populate the new session, got %d records", s.Len())
		}
	})

	t.Run("Rating Completion After Reset Emits No Event", func(t *testing.T) {
		hooked := &hookedStore{MockDocumentStore: tu.NewMockDocumentStore()}
		s := New(hooked, "media", shared.NewLogger(io.Discard))
		if _, err := s.Load(context.Background(), testSession); err != nil {
			t.Fatalf("failed to load: %v", err)
		}

		record, err := s.Add(context.Background(), "Dune", models.TypeBook)
		if err != nil {
			t.Fatalf("failed to add: %v", err)
		}

		events := 0
		s.OnRemoteError(func(RemoteErrorEvent) { events++ })

		hooked.FailMerge = true
		hooked.beforeMerge = func() { s.Reset() }

		if err := s.SetRating(context.Background(), record.ID, 4); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if events != 0 {
			t.Errorf("stale completion must be discarded silently, got %d events", events)
		}
	})
}
