package payment

import "github.com/staybook/service-booking/pkg/domain"

// Status is the payment lifecycle state. It moves independently of the booking status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

var validTransitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusFailed},
	StatusCompleted: {StatusRefunded},
	StatusFailed:    {},
	StatusRefunded:  {},
}

// IsValid returns true if the status is recognized.
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo returns true if moving to target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ParseStatus converts a string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", domain.NewValidationError("invalid payment status: " + s)
	}
	return st, nil
}

// Method is how the guest paid.
type Method string

const (
	MethodCreditCard  Method = "CREDIT_CARD"
	MethodPayPal      Method = "PAYPAL"
	MethodMobileMoney Method = "MOBILE_MONEY"
	MethodStripe      Method = "STRIPE"
)

// IsValid returns true if the method is recognized.
func (m Method) IsValid() bool {
	switch m {
	case MethodCreditCard, MethodPayPal, MethodMobileMoney, MethodStripe:
		return true
	}
	return false
}

// ParseMethod converts a string to a Method.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.IsValid() {
		return "", domain.NewValidationError("invalid payment method: " + s)
	}
	return m, nil
}
