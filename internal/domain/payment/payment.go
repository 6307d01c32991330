package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/staybook/service-booking/pkg/domain"
)

// Payment records money received for exactly one booking.
type Payment struct {
	id            uuid.UUID
	bookingID     uuid.UUID
	userID        uuid.UUID
	amount        domain.Money
	method        Method
	status        Status
	transactionID *string
	paidAt        *time.Time
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewPayment creates a PENDING payment. Use Reconciler.Attach to enforce the booking rules.
func NewPayment(bookingID, userID uuid.UUID, amount domain.Money, method Method) (*Payment, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("payer ID is required")
	}
	if !amount.IsPositive() {
		return nil, domain.NewValidationError("payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, domain.NewValidationError("invalid payment method: " + string(method))
	}

	now := time.Now().UTC()
	return &Payment{
		id:        uuid.New(),
		bookingID: bookingID,
		userID:    userID,
		amount:    amount,
		method:    method,
		status:    StatusPending,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Payment from persistence data (no validation).
func Reconstruct(
	id, bookingID, userID uuid.UUID,
	amount domain.Money,
	method Method,
	status Status,
	transactionID *string,
	paidAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:            id,
		bookingID:     bookingID,
		userID:        userID,
		amount:        amount,
		method:        method,
		status:        status,
		transactionID: transactionID,
		paidAt:        paidAt,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (p *Payment) ID() uuid.UUID          { return p.id }
func (p *Payment) BookingID() uuid.UUID   { return p.bookingID }
func (p *Payment) UserID() uuid.UUID      { return p.userID }
func (p *Payment) Amount() domain.Money   { return p.amount }
func (p *Payment) Method() Method         { return p.method }
func (p *Payment) Status() Status         { return p.status }
func (p *Payment) TransactionID() *string { return p.transactionID }
func (p *Payment) PaidAt() *time.Time     { return p.paidAt }
func (p *Payment) Version() int64         { return p.version }
func (p *Payment) CreatedAt() time.Time   { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time   { return p.updatedAt }

// TransitionTo moves the payment to target, recording the gateway transaction ID if given.
func (p *Payment) TransitionTo(target Status, transactionID string) error {
	if !p.status.CanTransitionTo(target) {
		return ErrInvalidTransition.WithMessage("cannot move payment from %s to %s", p.status, target)
	}
	now := time.Now().UTC()
	if target == StatusCompleted {
		p.paidAt = &now
	}
	if transactionID != "" {
		p.transactionID = &transactionID
	}
	p.status = target
	p.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (p *Payment) IncrementVersion() {
	p.version++
	p.updatedAt = time.Now().UTC()
}
