// Package store defines the listings table contract shared by every backend.
package store

import (
	"context"
	"errors"
	"time"
)

const (
	// UniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
	UniqueViolation = "23505"
)

var (
	ErrNotFound  = errors.New("store: listing not found")
	ErrDuplicate = errors.New("store: listing link already exists")
)

// Status is the small lifecycle flag stored on a listing.
type Status int

const (
	StatusPending  Status = 0
	StatusActive   Status = 1
	StatusInactive Status = 2
)

// String returns the display label. Values outside the known set are storable
// but render as "Unknown".
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusActive:
		return "Active"
	case StatusInactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

// Listing is one row of the listings table.
type Listing struct {
	ID        string    `json:"id"`
	Link      string    `json:"link"`
	Product   *string   `json:"product"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewListing holds the columns a caller may set on insert. The store assigns
// id and timestamps.
type NewListing struct {
	Link    string  `json:"link"`
	Product *string `json:"product,omitempty"`
	Status  Status  `json:"status"`
}

// ListingPatch is a partial update. Nil fields are left untouched; UpdatedAt
// is always written.
type ListingPatch struct {
	Link      *string
	Status    *Status
	UpdatedAt time.Time
}

// Store is the listings table. Implementations return ErrNotFound when a
// keyed row is absent and ErrDuplicate when a write collides on link.
type Store interface {
	// List returns every listing ordered by created_at, newest first.
	List(ctx context.Context) ([]Listing, error)

	// ListByStatus returns listings with the given status, newest first.
	ListByStatus(ctx context.Context, status Status) ([]Listing, error)

	Get(ctx context.Context, id string) (Listing, error)
	Create(ctx context.Context, l NewListing) (Listing, error)

	// Update applies the patch and returns the post-update row.
	Update(ctx context.Context, id string, patch ListingPatch) (Listing, error)

	// Delete removes the row. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// CountCreatedBetween counts rows with from <= created_at < to.
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)

	Close() error
}
