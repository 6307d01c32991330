package review

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/staybook/service-booking/pkg/domain"
)

const (
	MinRating        = 1
	MaxRating        = 5
	maxCommentLength = 250
)

var (
	ErrInvalidRating   = domain.New(domain.KindValidation, "INVALID_RATING", "rating must be between 1 and 5")
	ErrDuplicateReview = domain.New(domain.KindConflict, "DUPLICATE_REVIEW", "booking already has a review")
)

// Review is a guest's rating of a listing, optionally tied to one stay.
type Review struct {
	id         uuid.UUID
	userID     uuid.UUID
	listingID  uuid.UUID
	bookingID  *uuid.UUID
	rating     int
	comment    string
	isApproved bool
	reviewDate time.Time
}

// NewReview creates an unapproved review.
func NewReview(userID, listingID uuid.UUID, bookingID *uuid.UUID, rating int, comment string) (*Review, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if listingID == uuid.Nil {
		return nil, domain.NewValidationError("listing ID is required")
	}
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, domain.NewValidationError("comment must be at most 250 characters")
	}

	return &Review{
		id:         uuid.New(),
		userID:     userID,
		listingID:  listingID,
		bookingID:  bookingID,
		rating:     rating,
		comment:    comment,
		reviewDate: time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a Review from persistence.
func Reconstruct(id, userID, listingID uuid.UUID, bookingID *uuid.UUID, rating int, comment string, isApproved bool, reviewDate time.Time) *Review {
	return &Review{
		id:         id,
		userID:     userID,
		listingID:  listingID,
		bookingID:  bookingID,
		rating:     rating,
		comment:    comment,
		isApproved: isApproved,
		reviewDate: reviewDate,
	}
}

// Getters.
func (r *Review) ID() uuid.UUID         { return r.id }
func (r *Review) UserID() uuid.UUID     { return r.userID }
func (r *Review) ListingID() uuid.UUID  { return r.listingID }
func (r *Review) BookingID() *uuid.UUID { return r.bookingID }
func (r *Review) Rating() int           { return r.rating }
func (r *Review) Comment() string       { return r.comment }
func (r *Review) IsApproved() bool      { return r.isApproved }
func (r *Review) ReviewDate() time.Time { return r.reviewDate }

// Approve makes the review publicly visible.
func (r *Review) Approve() {
	r.isApproved = true
}
