package listing

import (
	"context"

	"github.com/google/uuid"
)

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	FindByHostID(ctx context.Context, hostID uuid.UUID, page, limit int) ([]*Listing, int64, error)
	ListActive(ctx context.Context, page, limit int) ([]*Listing, int64, error)
	Save(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	// SaveAvailability overwrites the projection column without touching the version.
	SaveAvailability(ctx context.Context, id uuid.UUID, availability Availability) error
}
