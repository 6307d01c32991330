package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Payment, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Payment, int64, error)
	ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
	// Save inserts a payment; a second payment for the same booking yields ErrDuplicatePayment.
	Save(ctx context.Context, payment *Payment) error
	Update(ctx context.Context, payment *Payment) error
}
