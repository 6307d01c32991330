package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/staybook/service-booking/internal/domain/booking"
	listingDomain "github.com/staybook/service-booking/internal/domain/listing"
	paymentDomain "github.com/staybook/service-booking/internal/domain/payment"
	"github.com/staybook/service-booking/pkg/domain"
	"github.com/staybook/service-booking/pkg/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RecordPaymentRequest is the request DTO for attaching a payment to a booking.
// An empty currency takes the listing's currency.
type RecordPaymentRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Currency    string `json:"currency"`
	Method      string `json:"method" binding:"required"`
}

// UpdatePaymentStatusRequest moves a payment through its lifecycle.
type UpdatePaymentStatusRequest struct {
	Status        string `json:"status" binding:"required"`
	TransactionID string `json:"transaction_id"`
}

// PaymentDTO is the API response representation of a payment.
type PaymentDTO struct {
	ID            uuid.UUID    `json:"id"`
	BookingID     uuid.UUID    `json:"booking_id"`
	UserID        uuid.UUID    `json:"user_id"`
	Amount        domain.Money `json:"amount"`
	Method        string       `json:"method"`
	Status        string       `json:"status"`
	TransactionID *string      `json:"transaction_id,omitempty"`
	PaidAt        *time.Time   `json:"paid_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// PaymentService records payments against bookings and tracks their status.
type PaymentService struct {
	repo       paymentDomain.PaymentRepository
	bookings   bookingDomain.BookingRepository
	reconciler *paymentDomain.Reconciler
	publisher  EventPublisher
	logger     *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	repo paymentDomain.PaymentRepository,
	bookings bookingDomain.BookingRepository,
	pricing bookingDomain.PricingCalculator,
	publisher EventPublisher,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		repo:       repo,
		bookings:   bookings,
		reconciler: paymentDomain.NewReconciler(pricing),
		publisher:  publisher,
		logger:     logger,
	}
}

// RecordPayment attaches a PENDING payment to a booking. The amount must equal
// the current price of the booking's stay and the booking must not already
// have a payment. Booking status is not consulted.
func (s *PaymentService) RecordPayment(ctx context.Context, bookingID uuid.UUID, req RecordPaymentRequest) (_ *PaymentDTO, err error) {
	ctx, span := tracer.Start(ctx, "PaymentService.RecordPayment",
		trace.WithAttributes(attribute.String("booking_id", bookingID.String())))
	defer func() { endSpan(span, err) }()

	method, err := paymentDomain.ParseMethod(strings.ToUpper(req.Method))
	if err != nil {
		return nil, err
	}
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// The price is checked against the listing row read under its lock, never
	// a cached copy, so a concurrent rate change cannot slip in between.
	var p *paymentDomain.Payment
	err = s.bookings.WithListingLock(ctx, bk.ListingID(), func(_ bookingDomain.BookingRepository, l *listingDomain.Listing) error {
		currency := req.Currency
		if currency == "" {
			currency = l.PricePerNight().Currency
		}
		amount := domain.NewMoney(req.AmountCents, strings.ToUpper(currency))

		exists, err := s.repo.ExistsForBooking(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("failed to check existing payment: %w", err)
		}
		p, err = s.reconciler.Attach(bk, l, amount, method, exists)
		if err != nil {
			return err
		}
		// A concurrent payment that slipped past ExistsForBooking hits the unique index.
		return s.repo.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("payment_id", p.ID().String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("amount", p.Amount().String()),
		zap.String("method", string(p.Method())),
	)

	evt := events.PaymentRecordedEvent{
		PaymentID:   p.ID(),
		BookingID:   p.BookingID(),
		UserID:      p.UserID(),
		AmountCents: p.Amount().AmountCents,
		Currency:    p.Amount().Currency,
		Method:      string(p.Method()),
		OccurredAt:  time.Now().UTC(),
	}
	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, events.BookingPaymentRecorded, bookingID.String(), evt)

	result := toPaymentDTO(p)
	return &result, nil
}

// UpdatePaymentStatus moves a payment to a new status (admin).
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, req UpdatePaymentStatusRequest) (*PaymentDTO, error) {
	target, err := paymentDomain.ParseStatus(strings.ToUpper(req.Status))
	if err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, p, target, req.TransactionID)
}

// ApplyGatewayStatus applies a payment gateway status event. The payment is
// found by ID, or by booking when the event carries no payment ID. Redelivery
// of an already applied status is a no-op.
func (s *PaymentService) ApplyGatewayStatus(ctx context.Context, evt events.PaymentStatusEvent, target paymentDomain.Status) (_ *PaymentDTO, err error) {
	ctx, span := tracer.Start(ctx, "PaymentService.ApplyGatewayStatus",
		trace.WithAttributes(attribute.String("status", string(target))))
	defer func() { endSpan(span, err) }()

	var p *paymentDomain.Payment
	switch {
	case evt.PaymentID != uuid.Nil:
		p, err = s.repo.FindByID(ctx, evt.PaymentID)
	case evt.BookingID != uuid.Nil:
		p, err = s.repo.FindByBookingID(ctx, evt.BookingID)
	default:
		return nil, domain.NewValidationError("payment event carries neither payment_id nor booking_id")
	}
	if err != nil {
		return nil, err
	}

	if p.Status() == target {
		result := toPaymentDTO(p)
		return &result, nil
	}
	return s.transition(ctx, p, target, evt.TransactionID)
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentDTO, error) {
	p, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	result := toPaymentDTO(p)
	return &result, nil
}

// GetBookingPayment retrieves the payment attached to a booking.
func (s *PaymentService) GetBookingPayment(ctx context.Context, bookingID uuid.UUID) (*PaymentDTO, error) {
	p, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toPaymentDTO(p)
	return &result, nil
}

// ListUserPayments retrieves paginated payments made by a user.
func (s *PaymentService) ListUserPayments(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[PaymentDTO], error) {
	payments, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func (s *PaymentService) transition(ctx context.Context, p *paymentDomain.Payment, target paymentDomain.Status, transactionID string) (*PaymentDTO, error) {
	previous := p.Status()
	if err := p.TransitionTo(target, transactionID); err != nil {
		return nil, err
	}

	p.IncrementVersion()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("payment status updated",
		zap.String("payment_id", p.ID().String()),
		zap.String("booking_id", p.BookingID().String()),
		zap.String("from", string(previous)),
		zap.String("to", string(target)),
	)

	result := toPaymentDTO(p)
	return &result, nil
}

func toPaymentDTO(p *paymentDomain.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID(),
		BookingID:     p.BookingID(),
		UserID:        p.UserID(),
		Amount:        p.Amount(),
		Method:        string(p.Method()),
		Status:        string(p.Status()),
		TransactionID: p.TransactionID(),
		PaidAt:        p.PaidAt(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
}
