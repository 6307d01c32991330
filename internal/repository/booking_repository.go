package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/staybook/service-booking/internal/domain/booking"
	listingDomain "github.com/staybook/service-booking/internal/domain/listing"
	"github.com/staybook/service-booking/pkg/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ListingID       uuid.UUID  `gorm:"type:uuid;index;not null"`
	GuestID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	StartDate       time.Time  `gorm:"type:date;not null"`
	EndDate         time.Time  `gorm:"type:date;not null"`
	Status          string     `gorm:"not null;size:10;index"`
	TotalPriceCents int64      `gorm:"not null"`
	Currency        string     `gorm:"not null;size:3;default:'USD'"`
	CancelledAt     *time.Time `gorm:""`
	CancelReason    string     `gorm:"size:500"`
	Version         int64      `gorm:"not null;default:1"`
	CreatedAt       time.Time  `gorm:"not null"`
	UpdatedAt       time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

var activeStatuses = []string{
	string(bookingDomain.StatusPending),
	string(bookingDomain.StatusConfirmed),
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// WithListingLock opens a transaction, takes SELECT ... FOR UPDATE on the listing
// row and runs fn against a repository bound to that transaction together with
// the listing as locked. Concurrent writers for the same listing queue on the
// row lock; the exclusion constraint on bookings catches anything that bypasses
// this path.
func (r *GormBookingRepository) WithListingLock(
	ctx context.Context,
	listingID uuid.UUID,
	fn func(tx bookingDomain.BookingRepository, l *listingDomain.Listing) error,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked ListingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", listingID).
			Take(&locked).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bookingDomain.ErrUnknownListing
			}
			return err
		}
		return fn(&GormBookingRepository{db: tx}, toListingDomain(&locked))
	})
	return translateError(err, "run locked booking write")
}

// Overlaps reports whether dates intersect an active booking on the listing.
// Intervals are half-open so a stay ending on day D does not clash with one starting on D.
func (r *GormBookingRepository) Overlaps(
	ctx context.Context,
	listingID uuid.UUID,
	dates bookingDomain.DateRange,
	exclude *uuid.UUID,
) (bool, error) {
	q := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("listing_id = ?", listingID).
		Where("status IN ?", activeStatuses).
		Where("start_date < ? AND end_date > ?", dates.End, dates.Start)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, translateError(err, "check booking overlap")
	}
	return count > 0, nil
}

// ActiveRanges returns the date ranges held by active bookings on the listing.
func (r *GormBookingRepository) ActiveRanges(ctx context.Context, listingID uuid.UUID) ([]bookingDomain.DateRange, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Select("start_date", "end_date").
		Where("listing_id = ? AND status IN ?", listingID, activeStatuses).
		Order("start_date ASC").
		Find(&models).Error; err != nil {
		return nil, translateError(err, "load active booking ranges")
	}

	ranges := make([]bookingDomain.DateRange, len(models))
	for i, m := range models {
		ranges[i] = bookingDomain.DateRange{
			Start: bookingDomain.TruncateToDay(m.StartDate),
			End:   bookingDomain.TruncateToDay(m.EndDate),
		}
	}
	return ranges, nil
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, translateError(err, "find booking by ID")
	}
	return toDomainBooking(&model)
}

// FindByGuestID retrieves bookings for a guest with pagination.
func (r *GormBookingRepository) FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.Where("guest_id = ?", guestID), page, limit)
}

// FindByListingID retrieves bookings on a listing with pagination.
func (r *GormBookingRepository) FindByListingID(ctx context.Context, listingID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.Where("listing_id = ?", listingID), page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, status *bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	scope := r.db
	if status != nil {
		scope = scope.Where("status = ?", string(*status))
	}
	return r.findPage(ctx, scope, page, limit)
}

func (r *GormBookingRepository) findPage(ctx context.Context, scope *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := scope.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count bookings")
	}

	var models []BookingModel
	if err := scope.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, translateError(err, "list bookings")
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, translateError(err, "count bookings by status")
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking. An overlapping active booking surfaces as ErrDateConflict.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "save booking")
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion was called by the service, so the stored row is one behind.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"listing_id":        model.ListingID,
			"start_date":        model.StartDate,
			"end_date":          model.EndDate,
			"status":            model.Status,
			"total_price_cents": model.TotalPriceCents,
			"currency":          model.Currency,
			"cancelled_at":      model.CancelledAt,
			"cancel_reason":     model.CancelReason,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})

	if result.Error != nil {
		return translateError(result.Error, "update booking")
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	dates := bk.Dates()
	price := bk.TotalPrice()
	return &BookingModel{
		ID:              bk.ID(),
		ListingID:       bk.ListingID(),
		GuestID:         bk.GuestID(),
		StartDate:       dates.Start,
		EndDate:         dates.End,
		Status:          string(bk.Status()),
		TotalPriceCents: price.AmountCents,
		Currency:        price.Currency,
		CancelledAt:     bk.CancelledAt(),
		CancelReason:    bk.CancelReason(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.ListingID,
		m.GuestID,
		bookingDomain.DateRange{
			Start: bookingDomain.TruncateToDay(m.StartDate),
			End:   bookingDomain.TruncateToDay(m.EndDate),
		},
		status,
		domain.NewMoney(m.TotalPriceCents, m.Currency),
		m.CancelledAt,
		m.CancelReason,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
