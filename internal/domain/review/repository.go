package review

import (
	"context"

	"github.com/google/uuid"
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	Save(ctx context.Context, review *Review) error
	Update(ctx context.Context, review *Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Review, error)
	FindByListingID(ctx context.Context, listingID uuid.UUID, approvedOnly bool, page, limit int) ([]*Review, int64, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Review, int64, error)
}
