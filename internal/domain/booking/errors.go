package booking

import "github.com/staybook/service-booking/pkg/domain"

// Rejections raised by the booking core. Compare with errors.Is.
var (
	ErrInvalidDateRange  = domain.New(domain.KindValidation, "INVALID_DATE_RANGE", "end date must be after start date")
	ErrInvalidActor      = domain.New(domain.KindValidation, "INVALID_ACTOR", "only guest accounts can hold bookings")
	ErrUnknownListing    = domain.New(domain.KindValidation, "UNKNOWN_LISTING", "listing does not exist or is not active")
	ErrDateConflict      = domain.New(domain.KindConflict, "DATE_CONFLICT", "listing is already booked for the requested dates")
	ErrForbidden         = domain.New(domain.KindForbidden, "FORBIDDEN", "not allowed to perform this action on the booking")
	ErrInvalidTransition = domain.New(domain.KindInvalidState, "INVALID_TRANSITION", "booking status does not allow this transition")
	ErrAlreadyCancelled  = domain.New(domain.KindInvalidState, "ALREADY_CANCELLED", "booking is already cancelled")
)
