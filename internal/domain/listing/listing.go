package listing

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/staybook/service-booking/pkg/domain"
)

// ListingStatus represents the lifecycle state of a listing.
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusArchived ListingStatus = "archived"
)

const maxFieldLength = 100

// Listing is the aggregate root for a rentable property.
type Listing struct {
	id            uuid.UUID
	hostID        uuid.UUID
	name          string
	description   string
	location      string
	pricePerNight domain.Money
	capacity      int
	amenities     map[string]interface{}
	availability  Availability
	status        ListingStatus
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewListing creates a new active listing with validated fields.
func NewListing(
	hostID uuid.UUID,
	name, description, location string,
	pricePerNight domain.Money,
	capacity int,
	amenities map[string]interface{},
) (*Listing, error) {
	if hostID == uuid.Nil {
		return nil, domain.NewValidationError("host ID is required")
	}
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)
	if name == "" || utf8.RuneCountInString(name) > maxFieldLength {
		return nil, domain.NewValidationError("name is required and must be at most 100 characters")
	}
	if location == "" || utf8.RuneCountInString(location) > maxFieldLength {
		return nil, domain.NewValidationError("location is required and must be at most 100 characters")
	}
	if !pricePerNight.IsPositive() {
		return nil, domain.NewValidationError("price per night must be positive")
	}
	if capacity < 1 {
		return nil, domain.NewValidationError("capacity must be at least 1")
	}
	if amenities == nil {
		amenities = map[string]interface{}{}
	}

	now := time.Now().UTC()
	return &Listing{
		id:            uuid.New(),
		hostID:        hostID,
		name:          name,
		description:   description,
		location:      location,
		pricePerNight: pricePerNight,
		capacity:      capacity,
		amenities:     amenities,
		availability:  Availability{},
		status:        ListingStatusActive,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Reconstruct rebuilds a Listing from persistence data (no validation).
func Reconstruct(
	id, hostID uuid.UUID,
	name, description, location string,
	pricePerNight domain.Money,
	capacity int,
	amenities map[string]interface{},
	availability Availability,
	status ListingStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Listing {
	if amenities == nil {
		amenities = map[string]interface{}{}
	}
	if availability == nil {
		availability = Availability{}
	}
	return &Listing{
		id:            id,
		hostID:        hostID,
		name:          name,
		description:   description,
		location:      location,
		pricePerNight: pricePerNight,
		capacity:      capacity,
		amenities:     amenities,
		availability:  availability,
		status:        status,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

func (l *Listing) ID() uuid.UUID                     { return l.id }
func (l *Listing) HostID() uuid.UUID                 { return l.hostID }
func (l *Listing) Name() string                      { return l.name }
func (l *Listing) Description() string               { return l.description }
func (l *Listing) Location() string                  { return l.location }
func (l *Listing) PricePerNight() domain.Money       { return l.pricePerNight }
func (l *Listing) Capacity() int                     { return l.capacity }
func (l *Listing) Amenities() map[string]interface{} { return l.amenities }
func (l *Listing) Availability() Availability        { return l.availability }
func (l *Listing) Status() ListingStatus             { return l.status }
func (l *Listing) Version() int64                    { return l.version }
func (l *Listing) CreatedAt() time.Time              { return l.createdAt }
func (l *Listing) UpdatedAt() time.Time              { return l.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the listing belongs to the given host.
func (l *Listing) IsOwnedBy(hostID uuid.UUID) bool {
	return l.hostID == hostID
}

// IsActive returns true if the listing accepts new bookings.
func (l *Listing) IsActive() bool {
	return l.status == ListingStatusActive
}

// UpdateFields holds optional listing changes; nil means unchanged.
type UpdateFields struct {
	Name          *string
	Description   *string
	Location      *string
	PricePerNight *int64
	Capacity      *int
	Amenities     map[string]interface{}
}

// Update applies partial updates to the listing.
func (l *Listing) Update(f UpdateFields) error {
	if !l.IsActive() {
		return domain.NewInvalidStateError(string(l.status), "updated")
	}
	if f.Name != nil {
		v := strings.TrimSpace(*f.Name)
		if v == "" || utf8.RuneCountInString(v) > maxFieldLength {
			return domain.NewValidationError("name is required and must be at most 100 characters")
		}
		l.name = v
	}
	if f.Location != nil {
		v := strings.TrimSpace(*f.Location)
		if v == "" || utf8.RuneCountInString(v) > maxFieldLength {
			return domain.NewValidationError("location is required and must be at most 100 characters")
		}
		l.location = v
	}
	if f.Description != nil {
		l.description = *f.Description
	}
	if f.PricePerNight != nil {
		if *f.PricePerNight <= 0 {
			return domain.NewValidationError("price per night must be positive")
		}
		l.pricePerNight = domain.NewMoney(*f.PricePerNight, l.pricePerNight.Currency)
	}
	if f.Capacity != nil {
		if *f.Capacity < 1 {
			return domain.NewValidationError("capacity must be at least 1")
		}
		l.capacity = *f.Capacity
	}
	if f.Amenities != nil {
		l.amenities = f.Amenities
	}
	l.version++
	l.updatedAt = time.Now().UTC()
	return nil
}

// Archive marks the listing as archived. Archived listings reject new bookings.
func (l *Listing) Archive() error {
	if l.status == ListingStatusArchived {
		return domain.NewInvalidStateError(string(l.status), string(ListingStatusArchived))
	}
	l.status = ListingStatusArchived
	l.version++
	l.updatedAt = time.Now().UTC()
	return nil
}

// ReplaceAvailability swaps in a freshly rebuilt projection.
func (l *Listing) ReplaceAvailability(a Availability) {
	l.availability = a
	l.updatedAt = time.Now().UTC()
}
