package payment

import (
	"github.com/staybook/service-booking/internal/domain/booking"
	"github.com/staybook/service-booking/internal/domain/listing"
	"github.com/staybook/service-booking/pkg/domain"
)

// Reconciler links a payment to a booking.
type Reconciler struct {
	pricing booking.PricingCalculator
}

// NewReconciler creates a Reconciler that prices bookings with pricing.
func NewReconciler(pricing booking.PricingCalculator) *Reconciler {
	return &Reconciler{pricing: pricing}
}

// Attach checks the amount against the current price of b on l and that b has
// no payment yet, then returns a new PENDING payment owned by the booking's guest.
// Booking status is deliberately not consulted.
func (r *Reconciler) Attach(b *booking.Booking, l *listing.Listing, amount domain.Money, method Method, alreadyPaid bool) (*Payment, error) {
	expected, err := r.pricing.Price(l, b.Dates())
	if err != nil {
		return nil, err
	}
	if !amount.Equal(expected) {
		return nil, ErrAmountMismatch.WithMessage("payment amount %s does not match booking price %s", amount, expected)
	}
	if alreadyPaid {
		return nil, ErrDuplicatePayment.WithMessage("booking %s already has a payment", b.ID())
	}
	return NewPayment(b.ID(), b.GuestID(), amount, method)
}
