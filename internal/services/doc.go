// Package services defines the external collaborators consumed by the media
// store: the document store holding persisted records and the OIDC-backed
// authentication service supplying the current session.
//
// # Document Store
//
// The [DocumentStore] interface is the persistence contract: create, query
// by owner, merge-update, and delete, all scoped to a named collection.
// Two implementations exist:
//
//   - [HTTPDocumentStore] : client for a remote REST document API, with
//     bearer-token auth supplied by an [golang.org/x/oauth2.TokenSource]
//   - repositories.SQLiteDocumentStore : local backend for offline use
//
// All document store failures are opaque to callers beyond success/failure;
// they wrap [shared.ErrRemote].
//
// # Authentication
//
// [AuthService] runs the OAuth2 authorization-code flow against an OIDC
// provider, verifies the resulting ID token, and publishes [models.Session]
// transitions to registered listeners. The session gate (internal/store)
// subscribes to those transitions to drive collection loads and teardown.
package services
