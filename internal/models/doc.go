// Package models defines domain entities for the medialog tracking service.
//
// The package contains three categories of types:
//
// 1. Records: persisted media entries
//   - [MediaRecord] : A single tracked media item owned by a user
//   - [MediaType] : Fixed enumeration of trackable media kinds
//
// 2. Session state: the authenticated identity driving record ownership
//   - [Session] : Current user identity; the zero value is unauthenticated
//
// 3. View state: ephemeral query parameters for deriving display projections
//   - [ViewQuery] : Filter, search, and sort parameters
//   - [SortKey] : Supported sort orders
//   - [Projection] : Filtered, sorted items plus per-type totals
//
// Records are validated locally via [MediaRecord.Validate] before any
// persistence call is issued.
package models
