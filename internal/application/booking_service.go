package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/staybook/service-booking/internal/domain/booking"
	listingDomain "github.com/staybook/service-booking/internal/domain/listing"
	userDomain "github.com/staybook/service-booking/internal/domain/user"
	"github.com/staybook/service-booking/pkg/domain"
	"github.com/staybook/service-booking/pkg/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CreateBookingRequest is the request DTO for creating a booking.
type CreateBookingRequest struct {
	ListingID uuid.UUID `json:"listing_id" binding:"required"`
	StartDate string    `json:"start_date" binding:"required"`
	EndDate   string    `json:"end_date" binding:"required"`
}

// RescheduleBookingRequest moves a booking. A nil ListingID keeps the current listing.
type RescheduleBookingRequest struct {
	ListingID *uuid.UUID `json:"listing_id"`
	StartDate string     `json:"start_date" binding:"required"`
	EndDate   string     `json:"end_date" binding:"required"`
}

// CancelBookingRequest is the request DTO for cancelling a booking.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// QuoteRequest asks for the price of a stay.
type QuoteRequest struct {
	StartDate string `form:"start_date" json:"start_date" binding:"required"`
	EndDate   string `form:"end_date" json:"end_date" binding:"required"`
}

// BookingDTO is the API response representation of a booking.
type BookingDTO struct {
	ID           uuid.UUID    `json:"id"`
	ListingID    uuid.UUID    `json:"listing_id"`
	GuestID      uuid.UUID    `json:"guest_id"`
	StartDate    string       `json:"start_date"`
	EndDate      string       `json:"end_date"`
	Nights       int64        `json:"nights"`
	Status       string       `json:"status"`
	TotalPrice   domain.Money `json:"total_price"`
	CancelledAt  *time.Time   `json:"cancelled_at,omitempty"`
	CancelReason string       `json:"cancel_reason,omitempty"`
	Version      int64        `json:"version"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// QuoteDTO is the derived price of a stay.
type QuoteDTO struct {
	ListingID     uuid.UUID    `json:"listing_id"`
	StartDate     string       `json:"start_date"`
	EndDate       string       `json:"end_date"`
	Nights        int64        `json:"nights"`
	PricePerNight domain.Money `json:"price_per_night"`
	Total         domain.Money `json:"total"`
}

// BookingStatsDTO holds aggregate booking statistics.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService drives the booking lifecycle.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	listings  listingDomain.ListingRepository
	users     userDomain.UserRepository
	pricing   bookingDomain.PricingCalculator
	validator *bookingDomain.Validator
	publisher EventPublisher
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	listings listingDomain.ListingRepository,
	users userDomain.UserRepository,
	pricing bookingDomain.PricingCalculator,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		listings:  listings,
		users:     users,
		pricing:   pricing,
		validator: bookingDomain.NewValidator(repo),
		publisher: publisher,
		logger:    logger,
	}
}

// CreateBooking validates and persists a PENDING booking for guestID.
// Validation and insert run under the listing row lock.
func (s *BookingService) CreateBooking(ctx context.Context, guestID uuid.UUID, req CreateBookingRequest) (_ *BookingDTO, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.CreateBooking", trace.WithAttributes(
		attribute.String("listing_id", req.ListingID.String()),
		attribute.String("guest_id", guestID.String()),
	))
	defer func() { endSpan(span, err) }()

	dates, err := bookingDomain.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	guest, err := s.findUser(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if !canHoldBooking(guest) {
		// The actor check precedes the listing check.
		return nil, s.validator.Validate(ctx, nil, guest, dates, nil)
	}

	var bk *bookingDomain.Booking
	err = s.repo.WithListingLock(ctx, req.ListingID, func(tx bookingDomain.BookingRepository, target *listingDomain.Listing) error {
		if err := bookingDomain.NewValidator(tx).Validate(ctx, target, guest, dates, nil); err != nil {
			return err
		}
		total, err := s.pricing.Price(target, dates)
		if err != nil {
			return err
		}
		bk, err = bookingDomain.NewBooking(target.ID(), guest.ID(), dates, total)
		if err != nil {
			return err
		}
		return tx.Save(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("listing_id", bk.ListingID().String()),
		zap.String("guest_id", bk.GuestID().String()),
		zap.String("dates", bk.Dates().String()),
	)

	s.rebuildProjection(ctx, bk.ListingID())
	s.publishBookingRequested(ctx, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// ApproveBooking confirms a PENDING booking. Only admins may approve.
func (s *BookingService) ApproveBooking(ctx context.Context, bookingID, actorID uuid.UUID) (_ *BookingDTO, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.ApproveBooking",
		trace.WithAttributes(attribute.String("booking_id", bookingID.String())))
	defer func() { endSpan(span, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.Approve(actor); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking approved",
		zap.String("booking_id", bk.ID().String()),
		zap.String("approved_by", actorID.String()),
	)

	s.rebuildProjection(ctx, bk.ListingID())

	evt := events.BookingConfirmedEvent{
		BookingID:  bk.ID(),
		ListingID:  bk.ListingID(),
		GuestID:    bk.GuestID(),
		ApprovedBy: actorID,
		OccurredAt: time.Now().UTC(),
	}
	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, events.BookingConfirmed, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking. The row is kept and its dates are freed.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID, reason string) (_ *BookingDTO, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.CancelBooking",
		trace.WithAttributes(attribute.String("booking_id", bookingID.String())))
	defer func() { endSpan(span, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.Cancel(actor, reason); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bk.ID().String()),
		zap.String("cancelled_by", actorID.String()),
	)

	s.rebuildProjection(ctx, bk.ListingID())

	evt := events.BookingCancelledEvent{
		BookingID:   bk.ID(),
		ListingID:   bk.ListingID(),
		CancelledBy: actorID,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	}
	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, events.BookingCancelled, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// RescheduleBooking moves an active booking to new dates and optionally another
// listing. The booking keeps its status; the price is recomputed.
func (s *BookingService) RescheduleBooking(ctx context.Context, bookingID, actorID uuid.UUID, req RescheduleBookingRequest) (_ *BookingDTO, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.RescheduleBooking",
		trace.WithAttributes(attribute.String("booking_id", bookingID.String())))
	defer func() { endSpan(span, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := bk.CheckReschedule(actor); err != nil {
		return nil, err
	}

	dates, err := bookingDomain.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	targetID := bk.ListingID()
	if req.ListingID != nil {
		targetID = *req.ListingID
	}
	guest, err := s.findUser(ctx, bk.GuestID())
	if err != nil {
		return nil, err
	}
	if !canHoldBooking(guest) {
		return nil, s.validator.Validate(ctx, nil, guest, dates, nil)
	}

	previousListing := bk.ListingID()
	previousDates := bk.Dates()

	err = s.repo.WithListingLock(ctx, targetID, func(tx bookingDomain.BookingRepository, target *listingDomain.Listing) error {
		// Re-read inside the lock so the version check sees concurrent edits.
		current, err := tx.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		self := current.ID()
		if err := bookingDomain.NewValidator(tx).Validate(ctx, target, guest, dates, &self); err != nil {
			return err
		}
		total, err := s.pricing.Price(target, dates)
		if err != nil {
			return err
		}
		if err := current.Reschedule(actor, target.ID(), dates, total); err != nil {
			return err
		}
		current.IncrementVersion()
		if err := tx.Update(ctx, current); err != nil {
			return err
		}
		bk = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking rescheduled",
		zap.String("booking_id", bk.ID().String()),
		zap.String("listing_id", bk.ListingID().String()),
		zap.String("dates", bk.Dates().String()),
	)

	s.rebuildProjection(ctx, bk.ListingID())
	if previousListing != bk.ListingID() {
		s.rebuildProjection(ctx, previousListing)
	}

	price := bk.TotalPrice()
	evt := events.BookingRescheduledEvent{
		BookingID:         bk.ID(),
		PreviousListingID: previousListing,
		ListingID:         bk.ListingID(),
		PreviousStartDate: previousDates.Start.Format(bookingDomain.DateLayout),
		PreviousEndDate:   previousDates.End.Format(bookingDomain.DateLayout),
		StartDate:         bk.Dates().Start.Format(bookingDomain.DateLayout),
		EndDate:           bk.Dates().End.Format(bookingDomain.DateLayout),
		TotalPriceCents:   price.AmountCents,
		Currency:          price.Currency,
		RescheduledBy:     actorID,
		OccurredAt:        time.Now().UTC(),
	}
	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, events.BookingRescheduled, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// ComputePrice quotes a stay on an active listing without booking it.
func (s *BookingService) ComputePrice(ctx context.Context, listingID uuid.UUID, req QuoteRequest) (_ *QuoteDTO, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.ComputePrice",
		trace.WithAttributes(attribute.String("listing_id", listingID.String())))
	defer func() { endSpan(span, err) }()

	dates, err := bookingDomain.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	target, err := s.findListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if target == nil || !target.IsActive() {
		return nil, bookingDomain.ErrUnknownListing
	}

	total, err := s.pricing.Price(target, dates)
	if err != nil {
		return nil, err
	}
	return &QuoteDTO{
		ListingID:     target.ID(),
		StartDate:     dates.Start.Format(bookingDomain.DateLayout),
		EndDate:       dates.End.Format(bookingDomain.DateLayout),
		Nights:        dates.Nights(),
		PricePerNight: target.PricePerNight(),
		Total:         total,
	}, nil
}

// GetBooking retrieves a single booking visible to actorID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*BookingDTO, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	var hostID uuid.UUID
	if actor.Role == userDomain.RoleHost {
		l, err := s.findListing(ctx, bk.ListingID())
		if err != nil {
			return nil, err
		}
		if l != nil {
			hostID = l.HostID()
		}
	}
	if !bk.CanView(actor, hostID) {
		return nil, bookingDomain.ErrForbidden.WithMessage("booking %s is not visible to user %s", bookingID, actorID)
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListGuestBookings retrieves paginated bookings held by a guest.
func (s *BookingService) ListGuestBookings(ctx context.Context, guestID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByGuestID(ctx, guestID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list guest bookings: %w", err)
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// ListListingBookings retrieves paginated bookings on a listing. Admins see
// any listing; hosts only the listings they own.
func (s *BookingService) ListListingBookings(ctx context.Context, listingID, actorID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != userDomain.RoleAdmin {
		l, err := s.listings.FindByID(ctx, listingID)
		if err != nil {
			return nil, err
		}
		if actor.Role != userDomain.RoleHost || !l.IsOwnedBy(actor.ID) {
			return nil, bookingDomain.ErrForbidden.WithMessage("listing %s belongs to another host", listingID)
		}
	}
	bookings, total, err := s.repo.FindByListingID(ctx, listingID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list listing bookings: %w", err)
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// ListAllBookings returns a paginated list of all bookings (admin). An empty
// status lists every status.
func (s *BookingService) ListAllBookings(ctx context.Context, status string, page, limit int) ([]BookingDTO, int64, error) {
	var filter *bookingDomain.BookingStatus
	if status != "" {
		parsed, err := bookingDomain.ParseBookingStatus(strings.ToUpper(status))
		if err != nil {
			return nil, 0, err
		}
		filter = &parsed
	}

	bookings, total, err := s.repo.ListAll(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// rebuildProjection recomputes the listing calendar from active bookings. The
// booking write has already committed, so a failure here is logged and the
// next transition on the listing repairs it.
func (s *BookingService) rebuildProjection(ctx context.Context, listingID uuid.UUID) {
	ranges, err := s.repo.ActiveRanges(ctx, listingID)
	if err != nil {
		s.logger.Warn("failed to load active ranges for availability projection",
			zap.String("listing_id", listingID.String()),
			zap.Error(err),
		)
		return
	}
	if err := s.listings.SaveAvailability(ctx, listingID, bookingDomain.ProjectAvailability(ranges)); err != nil {
		s.logger.Warn("failed to save availability projection",
			zap.String("listing_id", listingID.String()),
			zap.Error(err),
		)
	}
}

// actor loads the acting user. An unknown user cannot act on bookings.
func (s *BookingService) actor(ctx context.Context, userID uuid.UUID) (bookingDomain.Actor, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return bookingDomain.Actor{}, err
	}
	if u == nil {
		return bookingDomain.Actor{}, bookingDomain.ErrForbidden.WithMessage("unknown user %s", userID)
	}
	return bookingDomain.ActorFromUser(u), nil
}

// canHoldBooking reports whether u passes the validator's actor check, which
// runs before the listing is locked.
func canHoldBooking(u *userDomain.User) bool {
	return u != nil && u.Role() == userDomain.RoleGuest
}

// findUser returns nil without error when the user does not exist.
func (s *BookingService) findUser(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// findListing returns nil without error when the listing does not exist.
func (s *BookingService) findListing(ctx context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

func (s *BookingService) publishBookingRequested(ctx context.Context, bk *bookingDomain.Booking) {
	price := bk.TotalPrice()
	evt := events.BookingRequestedEvent{
		BookingID:       bk.ID(),
		ListingID:       bk.ListingID(),
		GuestID:         bk.GuestID(),
		StartDate:       bk.Dates().Start.Format(bookingDomain.DateLayout),
		EndDate:         bk.Dates().End.Format(bookingDomain.DateLayout),
		TotalPriceCents: price.AmountCents,
		Currency:        price.Currency,
		OccurredAt:      time.Now().UTC(),
	}
	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, events.BookingRequested, bk.ID().String(), evt)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	dates := bk.Dates()
	return BookingDTO{
		ID:           bk.ID(),
		ListingID:    bk.ListingID(),
		GuestID:      bk.GuestID(),
		StartDate:    dates.Start.Format(bookingDomain.DateLayout),
		EndDate:      dates.End.Format(bookingDomain.DateLayout),
		Nights:       dates.Nights(),
		Status:       string(bk.Status()),
		TotalPrice:   bk.TotalPrice(),
		CancelledAt:  bk.CancelledAt(),
		CancelReason: bk.CancelReason(),
		Version:      bk.Version(),
		CreatedAt:    bk.CreatedAt(),
		UpdatedAt:    bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}
