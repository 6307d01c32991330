package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	reviewDomain "github.com/staybook/service-booking/internal/domain/review"
	"github.com/staybook/service-booking/pkg/domain"
	"gorm.io/gorm"
)

// ReviewModel is the GORM model for the reviews table.
type ReviewModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ListingID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	BookingID  *uuid.UUID `gorm:"type:uuid"`
	Rating     int        `gorm:"type:smallint;not null"`
	Comment    string     `gorm:"type:varchar(250)"`
	IsApproved bool       `gorm:"not null;default:false"`
	ReviewDate time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (ReviewModel) TableName() string { return "reviews" }

// GormReviewRepository implements ReviewRepository using GORM.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository.
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Save persists a new review.
func (r *GormReviewRepository) Save(ctx context.Context, review *reviewDomain.Review) error {
	model := toReviewModel(review)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return translateError(err, "save review")
	}
	return nil
}

// Update persists the approval flag.
func (r *GormReviewRepository) Update(ctx context.Context, review *reviewDomain.Review) error {
	result := r.db.WithContext(ctx).
		Model(&ReviewModel{}).
		Where("id = ?", review.ID()).
		Update("is_approved", review.IsApproved())
	if result.Error != nil {
		return translateError(result.Error, "update review")
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Review", review.ID().String())
	}
	return nil
}

// FindByID returns a single review by ID.
func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Review", id.String())
		}
		return nil, translateError(err, "find review by ID")
	}
	return toReviewDomain(&model), nil
}

// FindByBookingID returns the review left for a booking.
func (r *GormReviewRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Review for booking", bookingID.String())
		}
		return nil, translateError(err, "find review by booking")
	}
	return toReviewDomain(&model), nil
}

// FindByListingID returns reviews of a listing, newest first.
func (r *GormReviewRepository) FindByListingID(ctx context.Context, listingID uuid.UUID, approvedOnly bool, page, limit int) ([]*reviewDomain.Review, int64, error) {
	scope := r.db.Where("listing_id = ?", listingID)
	if approvedOnly {
		scope = scope.Where("is_approved = ?", true)
	}
	return r.findPage(ctx, scope, page, limit)
}

// FindByUserID returns reviews written by a user.
func (r *GormReviewRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*reviewDomain.Review, int64, error) {
	return r.findPage(ctx, r.db.Where("user_id = ?", userID), page, limit)
}

func (r *GormReviewRepository) findPage(ctx context.Context, scope *gorm.DB, page, limit int) ([]*reviewDomain.Review, int64, error) {
	var total int64
	if err := scope.WithContext(ctx).Model(&ReviewModel{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count reviews")
	}

	var models []ReviewModel
	if err := scope.WithContext(ctx).
		Order("review_date DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, translateError(err, "list reviews")
	}

	reviews := make([]*reviewDomain.Review, len(models))
	for i := range models {
		reviews[i] = toReviewDomain(&models[i])
	}
	return reviews, total, nil
}

func toReviewModel(r *reviewDomain.Review) ReviewModel {
	return ReviewModel{
		ID:         r.ID(),
		UserID:     r.UserID(),
		ListingID:  r.ListingID(),
		BookingID:  r.BookingID(),
		Rating:     r.Rating(),
		Comment:    r.Comment(),
		IsApproved: r.IsApproved(),
		ReviewDate: r.ReviewDate(),
	}
}

func toReviewDomain(m *ReviewModel) *reviewDomain.Review {
	return reviewDomain.Reconstruct(
		m.ID,
		m.UserID,
		m.ListingID,
		m.BookingID,
		m.Rating,
		m.Comment,
		m.IsApproved,
		m.ReviewDate,
	)
}
