package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/staybook/service-booking/internal/domain/listing"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	AvailabilityIndex

	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByGuestID retrieves bookings held by a guest with pagination.
	FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByListingID retrieves bookings on a listing with pagination.
	FindByListingID(ctx context.Context, listingID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin). A nil status lists every status.
	ListAll(ctx context.Context, status *BookingStatus, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// WithListingLock runs fn in a transaction holding a row lock on the listing
	// and passes the listing as read under that lock. A missing listing is
	// ErrUnknownListing. Every booking write that depends on an overlap check,
	// the listing state or its rate goes through here.
	WithListingLock(ctx context.Context, listingID uuid.UUID, fn func(tx BookingRepository, l *listing.Listing) error) error
}
