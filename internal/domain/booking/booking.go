package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/staybook/service-booking/internal/domain/user"
	"github.com/staybook/service-booking/pkg/domain"
)

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id        uuid.UUID
	listingID uuid.UUID
	guestID   uuid.UUID
	dates     DateRange
	status    BookingStatus

	totalPrice domain.Money

	cancelledAt  *time.Time
	cancelReason string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=PENDING.
// Callers run the Validator first; this only guards against obviously broken input.
func NewBooking(listingID, guestID uuid.UUID, dates DateRange, totalPrice domain.Money) (*Booking, error) {
	if listingID == uuid.Nil {
		return nil, ErrUnknownListing
	}
	if guestID == uuid.Nil {
		return nil, ErrInvalidActor
	}
	if !dates.End.After(dates.Start) {
		return nil, ErrInvalidDateRange
	}
	if !totalPrice.IsPositive() {
		return nil, domain.NewValidationError("total price must be positive")
	}

	now := time.Now().UTC()
	return &Booking{
		id:         uuid.New(),
		listingID:  listingID,
		guestID:    guestID,
		dates:      dates,
		status:     StatusPending,
		totalPrice: totalPrice,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id, listingID, guestID uuid.UUID,
	dates DateRange,
	status BookingStatus,
	totalPrice domain.Money,
	cancelledAt *time.Time,
	cancelReason string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:           id,
		listingID:    listingID,
		guestID:      guestID,
		dates:        dates,
		status:       status,
		totalPrice:   totalPrice,
		cancelledAt:  cancelledAt,
		cancelReason: cancelReason,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// ListingID returns the booked listing.
func (b *Booking) ListingID() uuid.UUID { return b.listingID }

// GuestID returns the guest holding the booking.
func (b *Booking) GuestID() uuid.UUID { return b.guestID }

// Dates returns the booked half-open date range.
func (b *Booking) Dates() DateRange { return b.dates }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// TotalPrice returns the price snapshot taken at the last date or listing change.
func (b *Booking) TotalPrice() domain.Money { return b.totalPrice }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CancelReason returns the cancellation reason.
func (b *Booking) CancelReason() string { return b.cancelReason }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsActive returns true if the booking still holds its dates.
func (b *Booking) IsActive() bool { return b.status.IsActive() }

// --- Behavior ---

// Approve confirms a pending booking. Only admins may approve.
func (b *Booking) Approve(actor Actor) error {
	switch actor.Role {
	case user.RoleAdmin:
	case user.RoleGuest, user.RoleHost:
		return ErrForbidden.WithMessage("only admins can approve bookings")
	default:
		return ErrForbidden.WithMessage("unknown role %q", actor.Role)
	}

	if !b.status.CanTransitionTo(StatusConfirmed) {
		return ErrInvalidTransition.WithMessage("cannot approve a %s booking", b.status)
	}
	b.status = StatusConfirmed
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel cancels the booking. Admins may cancel any booking; guests only their own.
// The row is kept so that payments and history still resolve.
func (b *Booking) Cancel(actor Actor, reason string) error {
	if err := b.authorizeGuestOrAdmin(actor, "cancel"); err != nil {
		return err
	}
	if b.status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if !b.status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidTransition.WithMessage("cannot cancel a %s booking", b.status)
	}

	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelReason = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// Reschedule moves an active booking to new dates and/or another listing.
// The caller must re-run the Validator against the target before persisting.
func (b *Booking) Reschedule(actor Actor, listingID uuid.UUID, dates DateRange, totalPrice domain.Money) error {
	if err := b.CheckReschedule(actor); err != nil {
		return err
	}
	if listingID == uuid.Nil {
		return ErrUnknownListing
	}
	if !dates.End.After(dates.Start) {
		return ErrInvalidDateRange
	}
	if !totalPrice.IsPositive() {
		return domain.NewValidationError("total price must be positive")
	}

	b.listingID = listingID
	b.dates = dates
	b.totalPrice = totalPrice
	b.updatedAt = time.Now().UTC()
	return nil
}

// CheckReschedule reports whether actor may move this booking at all, before
// any target listing or dates are looked at.
func (b *Booking) CheckReschedule(actor Actor) error {
	if err := b.authorizeGuestOrAdmin(actor, "reschedule"); err != nil {
		return err
	}
	if b.status == StatusCancelled {
		return ErrAlreadyCancelled.WithMessage("cannot reschedule a cancelled booking")
	}
	return nil
}

// CanView reports whether actor may read this booking. listingHostID is the
// owner of the booked listing; hosts only see bookings on their own listings.
func (b *Booking) CanView(actor Actor, listingHostID uuid.UUID) bool {
	switch actor.Role {
	case user.RoleAdmin:
		return true
	case user.RoleHost:
		return actor.ID == listingHostID
	case user.RoleGuest:
		return actor.ID == b.guestID
	default:
		return false
	}
}

func (b *Booking) authorizeGuestOrAdmin(actor Actor, action string) error {
	switch actor.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleGuest:
		if actor.ID == b.guestID {
			return nil
		}
		return ErrForbidden.WithMessage("guests can only %s their own bookings", action)
	case user.RoleHost:
		return ErrForbidden.WithMessage("hosts cannot %s bookings", action)
	default:
		return ErrForbidden.WithMessage("unknown role %q", actor.Role)
	}
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
