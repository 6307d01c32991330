package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/staybook/service-booking/internal/domain/booking"
	listingDomain "github.com/staybook/service-booking/internal/domain/listing"
	reviewDomain "github.com/staybook/service-booking/internal/domain/review"
	userDomain "github.com/staybook/service-booking/internal/domain/user"
	"github.com/staybook/service-booking/pkg/domain"
	"go.uber.org/zap"
)

// CreateReviewRequest is the request DTO for reviewing a listing.
type CreateReviewRequest struct {
	ListingID uuid.UUID  `json:"listing_id" binding:"required"`
	BookingID *uuid.UUID `json:"booking_id"`
	Rating    int        `json:"rating" binding:"required"`
	Comment   string     `json:"comment"`
}

// ReviewDTO is the API response representation of a review.
type ReviewDTO struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	ListingID  uuid.UUID  `json:"listing_id"`
	BookingID  *uuid.UUID `json:"booking_id,omitempty"`
	Rating     int        `json:"rating"`
	Comment    string     `json:"comment,omitempty"`
	IsApproved bool       `json:"is_approved"`
	ReviewDate time.Time  `json:"review_date"`
}

// ReviewService manages guest reviews of listings.
type ReviewService struct {
	repo     reviewDomain.ReviewRepository
	bookings bookingDomain.BookingRepository
	listings listingDomain.ListingRepository
	users    userDomain.UserRepository
	logger   *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	repo reviewDomain.ReviewRepository,
	bookings bookingDomain.BookingRepository,
	listings listingDomain.ListingRepository,
	users userDomain.UserRepository,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		repo:     repo,
		bookings: bookings,
		listings: listings,
		users:    users,
		logger:   logger,
	}
}

// CreateReview records an unapproved review by a guest. A review tied to a
// booking must reference the guest's own booking on the same listing, and a
// booking can be reviewed once.
func (s *ReviewService) CreateReview(ctx context.Context, userID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role() != userDomain.RoleGuest {
		return nil, domain.NewForbiddenError("only guests can write reviews")
	}
	if _, err := s.listings.FindByID(ctx, req.ListingID); err != nil {
		if domain.IsNotFound(err) {
			return nil, bookingDomain.ErrUnknownListing
		}
		return nil, err
	}

	if req.BookingID != nil {
		bk, err := s.bookings.FindByID(ctx, *req.BookingID)
		if err != nil {
			return nil, err
		}
		if bk.GuestID() != userID {
			return nil, domain.NewForbiddenError("you can only review your own bookings")
		}
		if bk.ListingID() != req.ListingID {
			return nil, domain.NewValidationError("booking does not belong to this listing")
		}
		existing, err := s.repo.FindByBookingID(ctx, *req.BookingID)
		if err != nil && !domain.IsNotFound(err) {
			return nil, fmt.Errorf("failed to check existing review: %w", err)
		}
		if existing != nil {
			return nil, reviewDomain.ErrDuplicateReview
		}
	}

	r, err := reviewDomain.NewReview(userID, req.ListingID, req.BookingID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("review created",
		zap.String("review_id", r.ID().String()),
		zap.String("listing_id", req.ListingID.String()),
	)

	result := toReviewDTO(r)
	return &result, nil
}

// ApproveReview publishes a review (admin).
func (s *ReviewService) ApproveReview(ctx context.Context, reviewID uuid.UUID) (*ReviewDTO, error) {
	r, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	r.Approve()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("review approved", zap.String("review_id", reviewID.String()))

	result := toReviewDTO(r)
	return &result, nil
}

// ListListingReviews returns approved reviews of a listing.
func (s *ReviewService) ListListingReviews(ctx context.Context, listingID uuid.UUID, page, limit int) (*domain.PaginatedResult[ReviewDTO], error) {
	reviews, total, err := s.repo.FindByListingID(ctx, listingID, true, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list listing reviews: %w", err)
	}
	result := domain.NewPaginatedResult(toReviewDTOs(reviews), total, page, limit)
	return &result, nil
}

// ListUserReviews returns reviews written by a user, approved or not.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[ReviewDTO], error) {
	reviews, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user reviews: %w", err)
	}
	result := domain.NewPaginatedResult(toReviewDTOs(reviews), total, page, limit)
	return &result, nil
}

// GetBookingReview returns the review attached to a booking.
func (s *ReviewService) GetBookingReview(ctx context.Context, bookingID uuid.UUID) (*ReviewDTO, error) {
	r, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toReviewDTO(r)
	return &result, nil
}

func toReviewDTO(r *reviewDomain.Review) ReviewDTO {
	return ReviewDTO{
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

func toReviewDTOs(reviews []*reviewDomain.Review) []ReviewDTO {
	dtos := make([]ReviewDTO, len(reviews))
	for i, r := range reviews {
		dtos[i] = toReviewDTO(r)
	}
	return dtos
}
