package payment

import "github.com/staybook/service-booking/pkg/domain"

var (
	ErrAmountMismatch    = domain.New(domain.KindValidation, "AMOUNT_MISMATCH", "payment amount does not match the booking price")
	ErrDuplicatePayment  = domain.New(domain.KindConflict, "DUPLICATE_PAYMENT", "booking already has a payment")
	ErrInvalidTransition = domain.New(domain.KindInvalidState, "INVALID_TRANSITION", "payment status does not allow this transition")
)
