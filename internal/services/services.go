// package services defines collaborator interfaces for persistence and auth
package services

import (
	"context"

	"medialog/internal/models"
)

// DocumentStore defines the persistence contract for media records.
//
// All operations are scoped to a named collection and may fail; failure
// reasons are opaque beyond the wrapped [shared.ErrRemote] sentinel. The
// media store treats every implementation identically.
type DocumentStore interface {
	// Create persists a new record and returns the identifier assigned by
	// the store. The record's ID field is ignored.
	Create(ctx context.Context, collection string, record models.MediaRecord) (string, error)

	// QueryByOwner retrieves all records whose ownerId matches ownerID.
	// Result order is backend-defined and carries no contract.
	QueryByOwner(ctx context.Context, collection, ownerID string) ([]models.MediaRecord, error)

	// MergeUpdate applies a partial field update to an existing record,
	// leaving unnamed fields untouched. Recognized keys are "title",
	// "mediaType", and "rating".
	MergeUpdate(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a record by id.
	Delete(ctx context.Context, collection, id string) error
}

// SessionListener receives session state transitions from the auth service.
type SessionListener func(models.Session)

// Authenticator is the auth collaborator consumed by the session gate.
type Authenticator interface {
	// OnSessionChange registers a listener and immediately invokes it with
	// the current state, mirroring auth-state observer semantics.
	OnSessionChange(fn SessionListener)

	// Current returns the session as of the last transition.
	Current() models.Session

	// SignOut discards stored credentials and emits the unauthenticated state.
	SignOut() error
}
