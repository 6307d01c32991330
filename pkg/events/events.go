// Package events holds the topic names, event types and payloads shared with
// the other services on the bus.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Booking event types.
const (
	BookingRequested       = "booking.requested"
	BookingConfirmed       = "booking.confirmed"
	BookingCancelled       = "booking.cancelled"
	BookingRescheduled     = "booking.rescheduled"
	BookingPaymentRecorded = "booking.payment_recorded"
)

// Payment gateway event types.
const (
	PaymentCompleted = "payment.completed"
	PaymentFailed    = "payment.failed"
	PaymentRefunded  = "payment.refunded"
)

// BookingRequestedEvent is published when a PENDING booking is created.
type BookingRequestedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	ListingID       uuid.UUID `json:"listing_id"`
	GuestID         uuid.UUID `json:"guest_id"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Currency        string    `json:"currency"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingConfirmedEvent is published when an admin approves a booking.
type BookingConfirmedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ListingID  uuid.UUID `json:"listing_id"`
	GuestID    uuid.UUID `json:"guest_id"`
	ApprovedBy uuid.UUID `json:"approved_by"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a booking is cancelled.
type BookingCancelledEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	ListingID   uuid.UUID `json:"listing_id"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingRescheduledEvent is published when a booking moves dates or listing.
type BookingRescheduledEvent struct {
	BookingID         uuid.UUID `json:"booking_id"`
	PreviousListingID uuid.UUID `json:"previous_listing_id"`
	ListingID         uuid.UUID `json:"listing_id"`
	PreviousStartDate string    `json:"previous_start_date"`
	PreviousEndDate   string    `json:"previous_end_date"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	TotalPriceCents   int64     `json:"total_price_cents"`
	Currency          string    `json:"currency"`
	RescheduledBy     uuid.UUID `json:"rescheduled_by"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// PaymentRecordedEvent is published when a payment is attached to a booking.
type PaymentRecordedEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	UserID      uuid.UUID `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Method      string    `json:"method"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PaymentStatusEvent is what the payment gateway publishes on payment.events.
// PaymentID wins over BookingID when both are set.
type PaymentStatusEvent struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	BookingID     uuid.UUID `json:"booking_id"`
	TransactionID string    `json:"transaction_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}
