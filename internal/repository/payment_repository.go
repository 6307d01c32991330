package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	paymentDomain "github.com/staybook/service-booking/internal/domain/payment"
	"github.com/staybook/service-booking/pkg/domain"
	"gorm.io/gorm"
)

// PaymentModel is the GORM model for the payments table.
type PaymentModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_payments_booking_id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	AmountCents   int64      `gorm:"not null"`
	Currency      string     `gorm:"type:varchar(3);not null;default:'USD'"`
	Method        string     `gorm:"type:varchar(20);not null"`
	Status        string     `gorm:"type:varchar(10);not null"`
	TransactionID *string    `gorm:"type:varchar(100)"`
	PaidAt        *time.Time `gorm:"type:timestamptz"`
	Version       int64      `gorm:"not null;default:1"`
	CreatedAt     time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt     time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (PaymentModel) TableName() string { return "payments" }

// GormPaymentRepository implements PaymentRepository using GORM.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID returns a payment by ID.
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", id.String())
		}
		return nil, translateError(err, "find payment by ID")
	}
	return toPaymentDomain(&model)
}

// FindByBookingID returns the payment attached to a booking.
func (r *GormPaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment for booking", bookingID.String())
		}
		return nil, translateError(err, "find payment by booking")
	}
	return toPaymentDomain(&model)
}

// FindByUserID lists a payer's payments, newest first.
func (r *GormPaymentRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*paymentDomain.Payment, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&PaymentModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count user payments")
	}

	var models []PaymentModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, translateError(err, "list user payments")
	}

	payments := make([]*paymentDomain.Payment, 0, len(models))
	for i := range models {
		p, err := toPaymentDomain(&models[i])
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, p)
	}
	return payments, total, nil
}

// ExistsForBooking reports whether the booking already has a payment.
func (r *GormPaymentRepository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&PaymentModel{}).Where("booking_id = ?", bookingID).Count(&count).Error; err != nil {
		return false, translateError(err, "check existing payment")
	}
	return count > 0, nil
}

// Save inserts a payment. The unique index on booking_id backs ErrDuplicatePayment
// when two requests race past ExistsForBooking.
func (r *GormPaymentRepository) Save(ctx context.Context, p *paymentDomain.Payment) error {
	if err := r.db.WithContext(ctx).Create(toPaymentModel(p)).Error; err != nil {
		return translateError(err, "save payment")
	}
	return nil
}

// Update persists a status change with optimistic locking.
func (r *GormPaymentRepository) Update(ctx context.Context, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)
	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ? AND version = ?", model.ID, p.Version()-1).
		Updates(map[string]interface{}{
			"status":         model.Status,
			"transaction_id": model.TransactionID,
			"paid_at":        model.PaidAt,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "update payment")
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("payment was modified by another transaction")
	}
	return nil
}

func toPaymentModel(p *paymentDomain.Payment) *PaymentModel {
	amount := p.Amount()
	return &PaymentModel{
		ID:            p.ID(),
		BookingID:     p.BookingID(),
		UserID:        p.UserID(),
		AmountCents:   amount.AmountCents,
		Currency:      amount.Currency,
		Method:        string(p.Method()),
		Status:        string(p.Status()),
		TransactionID: p.TransactionID(),
		PaidAt:        p.PaidAt(),
		Version:       p.Version(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
}

func toPaymentDomain(m *PaymentModel) (*paymentDomain.Payment, error) {
	status, err := paymentDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	method, err := paymentDomain.ParseMethod(m.Method)
	if err != nil {
		return nil, err
	}
	return paymentDomain.Reconstruct(
		m.ID,
		m.BookingID,
		m.UserID,
		domain.NewMoney(m.AmountCents, m.Currency),
		method,
		status,
		m.TransactionID,
		m.PaidAt,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
