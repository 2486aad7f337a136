// package models defines the data model for the media tracking service
package models

import (
	"fmt"
	"strings"
	"time"
)

// MediaType identifies the kind of media a record tracks.
//
// The string values match the persisted document shape, so they double as
// wire values for the document store.
type MediaType string

const (
	TypeMovie  MediaType = "Movie"
	TypeTVShow MediaType = "TV Show"
	TypeBook   MediaType = "Book"
	TypeMusic  MediaType = "Music"

	// TypeAll is a filter-only pseudo-type accepted by [ViewQuery];
	// it is never valid on a record.
	TypeAll MediaType = "All"
)

// MediaTypes returns the fixed enumeration of record types in display order.
func MediaTypes() []MediaType {
	return []MediaType{TypeMovie, TypeTVShow, TypeBook, TypeMusic}
}

// Valid reports whether t is a member of the fixed record type enumeration.
func (t MediaType) Valid() bool {
	switch t {
	case TypeMovie, TypeTVShow, TypeBook, TypeMusic:
		return true
	}
	return false
}

// ParseMediaType converts user input to a [MediaType], accepting
// case-insensitive and space-insensitive spellings ("tvshow", "tv show").
func ParseMediaType(s string) (MediaType, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(s), ""))
	for _, t := range MediaTypes() {
		candidate := strings.ToLower(strings.ReplaceAll(string(t), " ", ""))
		if normalized == candidate {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown media type: %q", s)
}

// Rating bounds. Zero means unrated.
const (
	MinRating = 0
	MaxRating = 5
)

// MediaRecord is a single tracked media item.
//
// ID is assigned by the document store on creation and is empty while the
// create call is pending. OwnerID and CreatedAt never change after creation.
// Dirty marks a local mutation that has not been confirmed persisted; it is
// never written to the store.
type MediaRecord struct {
	ID        string    `json:"id,omitempty"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	Type      MediaType `json:"mediaType"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"-"`

	Dirty bool `json:"-"`
}

// Validate checks record fields against the domain constraints.
func (r *MediaRecord) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("invalid media type: %q", r.Type)
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d, got %d", MinRating, MaxRating, r.Rating)
	}
	if r.OwnerID == "" {
		return fmt.Errorf("owner id must not be empty")
	}
	return nil
}

// Session is the authenticated identity. The zero value is the
// unauthenticated state; transitions are driven by the auth service only.
type Session struct {
	UserID string
	Email  string
}

// Authenticated reports whether the session carries a signed-in user.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// SortKey selects the display ordering produced by a projection.
type SortKey int

const (
	SortNone SortKey = iota
	SortNewest
	SortOldest
	SortHighestRated
)

func (k SortKey) String() string {
	switch k {
	case SortNone:
		return "none"
	case SortNewest:
		return "newest"
	case SortOldest:
		return "oldest"
	case SortHighestRated:
		return "highest"
	default:
		return ""
	}
}

// ParseSortKey converts user input to a [SortKey]. Empty input means no sort.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "newest":
		return SortNewest, nil
	case "oldest":
		return SortOldest, nil
	case "highest", "highest-rated", "rating":
		return SortHighestRated, nil
	}
	return SortNone, fmt.Errorf("unknown sort key: %q", s)
}

// ViewQuery holds the ephemeral filter, search, and sort state for a
// projection. It is never persisted.
type ViewQuery struct {
	TypeFilter MediaType // a record type or TypeAll
	SearchText string    // case-insensitive substring match on title
	Sort       SortKey
}

// Matches reports whether a record passes the query's type filter and
// title search.
func (q ViewQuery) Matches(r *MediaRecord) bool {
	if q.TypeFilter != "" && q.TypeFilter != TypeAll && r.Type != q.TypeFilter {
		return false
	}
	if q.SearchText == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Title), strings.ToLower(q.SearchText))
}

// Projection is the display-ready derivation of the in-memory collection.
//
// Items hold the filtered and sorted records. Counts are totals per type
// over the FULL collection, independent of the active filter.
type Projection struct {
	Items  []MediaRecord
	Counts map[MediaType]int
}

// Total returns the sum of all per-type counts.
func (p Projection) Total() int {
	total := 0
	for _, n := range p.Counts {
		total += n
	}
	return total
}
