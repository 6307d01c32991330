package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	bookingDomain "github.com/staybook/service-booking/internal/domain/booking"
	paymentDomain "github.com/staybook/service-booking/internal/domain/payment"
	"github.com/staybook/service-booking/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type paymentFixture struct {
	*bookingFixture
	payments *memPaymentRepo
	paySvc   *PaymentService
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := &paymentFixture{bookingFixture: newBookingFixture(t), payments: newMemPaymentRepo()}
	f.paySvc = NewPaymentService(
		f.payments,
		f.bookings,
		bookingDomain.NewNightlyPricingCalculator(),
		f.publisher,
		zap.NewNop(),
	)
	return f
}

func TestPaymentService_RecordPayment(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	bk := f.book(t, f.guest.ID(), "2025-01-10", "2025-01-13")

	p, err := f.paySvc.RecordPayment(ctx, bk.ID, RecordPaymentRequest{AmountCents: 30000, Method: "credit_card"})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", p.Status)
	assert.Equal(t, "CREDIT_CARD", p.Method)
	assert.Equal(t, "USD", p.Amount.Currency)
	assert.Equal(t, f.guest.ID(), p.UserID)
	assert.Contains(t, f.publisher.types(), events.BookingPaymentRecorded)

	_, err = f.paySvc.RecordPayment(ctx, bk.ID, RecordPaymentRequest{AmountCents: 30000, Method: "PAYPAL"})
	assert.ErrorIs(t, err, paymentDomain.ErrDuplicatePayment)
}

func TestPaymentService_RecordPayment_Rejections(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	bk := f.book(t, f.guest.ID(), "2025-01-10", "2025-01-13")

	tests := []struct {
		name string
		req  RecordPaymentRequest
		want error
	}{
		{"short by one cent", RecordPaymentRequest{AmountCents: 29999, Method: "STRIPE"}, paymentDomain.ErrAmountMismatch},
		{"over by one night", RecordPaymentRequest{AmountCents: 40000, Method: "STRIPE"}, paymentDomain.ErrAmountMismatch},
		{"wrong currency", RecordPaymentRequest{AmountCents: 30000, Currency: "EUR", Method: "STRIPE"}, paymentDomain.ErrAmountMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.paySvc.RecordPayment(ctx, bk.ID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.paySvc.RecordPayment(ctx, bk.ID, RecordPaymentRequest{AmountCents: 30000, Method: "CASH"})
	assert.Error(t, err)

	exists, err := f.payments.ExistsForBooking(ctx, bk.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPaymentService_RecordPayment_IgnoresBookingStatus(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	bk := f.book(t, f.guest.ID(), "2025-01-10", "2025-01-12")
	_, err := f.svc.CancelBooking(ctx, bk.ID, f.guest.ID(), "")
	require.NoError(t, err)

	_, err = f.paySvc.RecordPayment(ctx, bk.ID, RecordPaymentRequest{AmountCents: 20000, Method: "MOBILE_MONEY"})
	assert.NoError(t, err)
}

func TestPaymentService_StatusLifecycle(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	bk := f.book(t, f.guest.ID(), "2025-01-10", "2025-01-12")
	p, err := f.paySvc.RecordPayment(ctx, bk.ID, RecordPaymentRequest{AmountCents: 20000, Method: "STRIPE"})
	require.NoError(t, err)

	completed, err := f.paySvc.UpdatePaymentStatus(ctx, p.ID, UpdatePaymentStatusRequest{Status: "completed", TransactionID: "txn_1"})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", completed.Status)
	require.NotNil(t, completed.PaidAt)
	require.NotNil(t, completed.TransactionID)
	assert.Equal(t, "txn_1", *completed.TransactionID)

	refunded, err := f.paySvc.UpdatePaymentStatus(ctx, p.ID, UpdatePaymentStatusRequest{Status: "REFUNDED"})
	require.NoError(t, err)
	assert.Equal(t, "REFUNDED", refunded.Status)

	_, err = f.paySvc.UpdatePaymentStatus(ctx, p.ID, UpdatePaymentStatusRequest{Status: "COMPLETED"})
	assert.ErrorIs(t, err, paymentDomain.ErrInvalidTransition)

	other := f.book(t, f.other.ID(), "2025-02-10", "2025-02-11")
	failed, err := f.paySvc.RecordPayment(ctx, other.ID, RecordPaymentRequest{AmountCents: 10000, Method: "STRIPE"})
	require.NoError(t, err)
	_, err = f.paySvc.UpdatePaymentStatus(ctx, failed.ID, UpdatePaymentStatusRequest{Status: "FAILED"})
	require.NoError(t, err)
	_, err = f.paySvc.UpdatePaymentStatus(ctx, failed.ID, UpdatePaymentStatusRequest{Status: "COMPLETED"})
	assert.ErrorIs(t, err, paymentDomain.ErrInvalidTransition)
}

func TestPaymentService_ApplyGatewayStatus(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	bk := f.book(t, f.guest.ID(), "2025-01-10", "2025-01-12")
	p, err := f.paySvc.RecordPayment(ctx, bk.ID, RecordPaymentRequest{AmountCents: 20000, Method: "STRIPE"})
	require.NoError(t, err)

	evt := events.PaymentStatusEvent{BookingID: bk.ID, TransactionID: "gw_42"}
	dto, err := f.paySvc.ApplyGatewayStatus(ctx, evt, paymentDomain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, p.ID, dto.ID)
	assert.Equal(t, "COMPLETED", dto.Status)

	// Redelivery is a no-op.
	again, err := f.paySvc.ApplyGatewayStatus(ctx, evt, paymentDomain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", again.Status)
	stored, err := f.payments.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version())

	_, err = f.paySvc.ApplyGatewayStatus(ctx, events.PaymentStatusEvent{PaymentID: uuid.New()}, paymentDomain.StatusFailed)
	assert.Error(t, err)

	_, err = f.paySvc.ApplyGatewayStatus(ctx, events.PaymentStatusEvent{}, paymentDomain.StatusFailed)
	assert.Error(t, err)
}
