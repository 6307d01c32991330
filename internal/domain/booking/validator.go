package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/staybook/service-booking/internal/domain/listing"
	"github.com/staybook/service-booking/internal/domain/user"
)

// Validator runs the ordered pre-write checks for any booking write that sets
// dates or a listing.
type Validator struct {
	index AvailabilityIndex
}

// NewValidator creates a Validator backed by index.
func NewValidator(index AvailabilityIndex) *Validator {
	return &Validator{index: index}
}

// Validate checks, in order: date order, guest role, listing state, overlap.
// exclude is the booking being edited, if any. A nil listing or guest means it
// was not found.
func (v *Validator) Validate(
	ctx context.Context,
	l *listing.Listing,
	guest *user.User,
	dates DateRange,
	exclude *uuid.UUID,
) error {
	if !dates.End.After(dates.Start) {
		return ErrInvalidDateRange
	}

	if guest == nil {
		return ErrInvalidActor.WithMessage("guest not found")
	}
	switch guest.Role() {
	case user.RoleGuest:
	case user.RoleHost, user.RoleAdmin:
		return ErrInvalidActor.WithMessage("%s accounts cannot hold bookings", guest.Role())
	default:
		return ErrInvalidActor.WithMessage("unknown role %q", guest.Role())
	}

	if l == nil || !l.IsActive() {
		return ErrUnknownListing
	}

	overlaps, err := v.index.Overlaps(ctx, l.ID(), dates, exclude)
	if err != nil {
		return fmt.Errorf("failed to check availability: %w", err)
	}
	if overlaps {
		return ErrDateConflict.WithMessage("listing %s is already booked for %s", l.ID(), dates)
	}
	return nil
}
