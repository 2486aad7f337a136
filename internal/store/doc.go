// Package store implements the in-memory media collection view model and
// the session gate that drives it.
//
// # Media Store
//
// [MediaStore] owns the authoritative in-memory list of the signed-in
// user's records for the lifetime of a session. Mutations follow an
// optimistic discipline:
//
//   - Add validates locally, persists first, and only appends to memory
//     once the document store has assigned an id (no partial insert).
//   - SetRating and Edit update memory immediately, then merge-persist the
//     changed fields. A persist failure does not roll the change back; the
//     record is marked dirty and a non-fatal [RemoteErrorEvent] is emitted.
//   - Remove drops the record from memory immediately; a failed remote
//     delete does not restore it. This is a deliberate carry-over from the
//     behavior this store models, reported via [RemoteErrorEvent] so the
//     divergence is visible rather than silent.
//
// [MediaStore.Project] is a pure derivation: filter, stable sort, and
// per-type totals computed over the full unfiltered collection.
//
// Every operation that completes after a session transition discards its
// result instead of applying it to the wrong collection; completions are
// guarded by a session generation counter.
//
// # Session Gate
//
// [Gate] subscribes to the auth service. On sign-in it loads the user's
// collection; on sign-out it discards all store state and signals the UI
// to return to the unauthenticated entry point.
package store
