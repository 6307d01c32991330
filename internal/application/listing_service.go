package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	listingDomain "github.com/staybook/service-booking/internal/domain/listing"
	userDomain "github.com/staybook/service-booking/internal/domain/user"
	"github.com/staybook/service-booking/pkg/domain"
	"go.uber.org/zap"
)

// CreateListingRequest is the request DTO for creating a listing.
type CreateListingRequest struct {
	Name               string                 `json:"name" binding:"required"`
	Description        string                 `json:"description"`
	Location           string                 `json:"location" binding:"required"`
	PricePerNightCents int64                  `json:"price_per_night_cents" binding:"required"`
	Currency           string                 `json:"currency"`
	Capacity           int                    `json:"capacity" binding:"required"`
	Amenities          map[string]interface{} `json:"amenities"`
}

// UpdateListingRequest carries optional listing fields.
type UpdateListingRequest struct {
	Name               *string                `json:"name"`
	Description        *string                `json:"description"`
	Location           *string                `json:"location"`
	PricePerNightCents *int64                 `json:"price_per_night_cents"`
	Capacity           *int                   `json:"capacity"`
	Amenities          map[string]interface{} `json:"amenities"`
}

// ListingDTO is the API response representation of a listing.
type ListingDTO struct {
	ID            uuid.UUID              `json:"id"`
	HostID        uuid.UUID              `json:"host_id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	Location      string                 `json:"location"`
	PricePerNight domain.Money           `json:"price_per_night"`
	Capacity      int                    `json:"capacity"`
	Amenities     map[string]interface{} `json:"amenities,omitempty"`
	Status        string                 `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// AvailabilityDTO is the booked-date projection of a listing.
type AvailabilityDTO struct {
	ListingID   uuid.UUID `json:"listing_id"`
	BookedDates []string  `json:"booked_dates"`
}

// ListingService manages listings owned by hosts.
type ListingService struct {
	repo   listingDomain.ListingRepository
	users  userDomain.UserRepository
	logger *zap.Logger
}

// NewListingService creates a new ListingService. repo is usually the cached
// repository so that GetListing reads through the cache.
func NewListingService(repo listingDomain.ListingRepository, users userDomain.UserRepository, logger *zap.Logger) *ListingService {
	return &ListingService{
		repo:   repo,
		users:  users,
		logger: logger,
	}
}

// CreateListing creates a listing owned by hostID. Only hosts own listings.
func (s *ListingService) CreateListing(ctx context.Context, hostID uuid.UUID, req CreateListingRequest) (*ListingDTO, error) {
	host, err := s.users.FindByID(ctx, hostID)
	if err != nil {
		return nil, err
	}
	if host.Role() != userDomain.RoleHost {
		return nil, domain.NewForbiddenError("only hosts can create listings")
	}

	l, err := listingDomain.NewListing(
		hostID,
		req.Name,
		req.Description,
		req.Location,
		domain.NewMoney(req.PricePerNightCents, strings.ToUpper(req.Currency)),
		req.Capacity,
		req.Amenities,
	)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("listing created",
		zap.String("listing_id", l.ID().String()),
		zap.String("host_id", hostID.String()),
	)

	result := toListingDTO(l)
	return &result, nil
}

// UpdateListing applies a partial update. Owner host or admin only.
func (s *ListingService) UpdateListing(ctx context.Context, listingID, actorID uuid.UUID, actorRole string, req UpdateListingRequest) (*ListingDTO, error) {
	l, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeListingOwner(l, actorID, actorRole); err != nil {
		return nil, err
	}

	if err := l.Update(listingDomain.UpdateFields{
		Name:          req.Name,
		Description:   req.Description,
		Location:      req.Location,
		PricePerNight: req.PricePerNightCents,
		Capacity:      req.Capacity,
		Amenities:     req.Amenities,
	}); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("listing updated", zap.String("listing_id", listingID.String()))

	result := toListingDTO(l)
	return &result, nil
}

// ArchiveListing archives a listing. Existing bookings stay; new ones are rejected.
func (s *ListingService) ArchiveListing(ctx context.Context, listingID, actorID uuid.UUID, actorRole string) error {
	l, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if err := authorizeListingOwner(l, actorID, actorRole); err != nil {
		return err
	}

	if err := l.Archive(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, l); err != nil {
		return err
	}

	s.logger.Info("listing archived", zap.String("listing_id", listingID.String()))
	return nil
}

// GetListing retrieves a listing by ID.
func (s *ListingService) GetListing(ctx context.Context, listingID uuid.UUID) (*ListingDTO, error) {
	l, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	result := toListingDTO(l)
	return &result, nil
}

// ListListings returns a page of active listings.
func (s *ListingService) ListListings(ctx context.Context, page, limit int) (*domain.PaginatedResult[ListingDTO], error) {
	listings, total, err := s.repo.ListActive(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	result := domain.NewPaginatedResult(toListingDTOs(listings), total, page, limit)
	return &result, nil
}

// ListHostListings returns a page of a host's listings, archived included.
func (s *ListingService) ListHostListings(ctx context.Context, hostID uuid.UUID, page, limit int) (*domain.PaginatedResult[ListingDTO], error) {
	listings, total, err := s.repo.FindByHostID(ctx, hostID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list host listings: %w", err)
	}
	result := domain.NewPaginatedResult(toListingDTOs(listings), total, page, limit)
	return &result, nil
}

// GetAvailability returns the booked dates of a listing from its projection.
func (s *ListingService) GetAvailability(ctx context.Context, listingID uuid.UUID) (*AvailabilityDTO, error) {
	l, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return &AvailabilityDTO{
		ListingID:   l.ID(),
		BookedDates: l.Availability().BookedDates(),
	}, nil
}

func authorizeListingOwner(l *listingDomain.Listing, actorID uuid.UUID, actorRole string) error {
	switch userDomain.Role(actorRole) {
	case userDomain.RoleAdmin:
		return nil
	case userDomain.RoleHost:
		if l.IsOwnedBy(actorID) {
			return nil
		}
		return domain.NewForbiddenError("you can only manage your own listings")
	case userDomain.RoleGuest:
		return domain.NewForbiddenError("guests cannot manage listings")
	default:
		return domain.NewForbiddenError("unknown role " + actorRole)
	}
}

func toListingDTO(l *listingDomain.Listing) ListingDTO {
	return ListingDTO{
		ID:            l.ID(),
		HostID:        l.HostID(),
		Name:          l.Name(),
		Description:   l.Description(),
		Location:      l.Location(),
		PricePerNight: l.PricePerNight(),
		Capacity:      l.Capacity(),
		Amenities:     l.Amenities(),
		Status:        string(l.Status()),
		CreatedAt:     l.CreatedAt(),
		UpdatedAt:     l.UpdatedAt(),
	}
}

func toListingDTOs(listings []*listingDomain.Listing) []ListingDTO {
	dtos := make([]ListingDTO, len(listings))
	for i, l := range listings {
		dtos[i] = toListingDTO(l)
	}
	return dtos
}
