package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	listingDomain "github.com/staybook/service-booking/internal/domain/listing"
	"github.com/staybook/service-booking/pkg/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListingModel is the GORM model for the listings table.
type ListingModel struct {
	ID                 uuid.UUID                           `gorm:"type:uuid;primaryKey"`
	HostID             uuid.UUID                           `gorm:"type:uuid;not null;index"`
	Name               string                              `gorm:"type:varchar(100);not null"`
	Description        string                              `gorm:"type:text"`
	Location           string                              `gorm:"type:varchar(100);not null"`
	PricePerNightCents int64                               `gorm:"not null"`
	Currency           string                              `gorm:"type:varchar(3);not null;default:'USD'"`
	Capacity           int                                 `gorm:"not null"`
	Amenities          datatypes.JSONMap                   `gorm:"type:jsonb;not null"`
	Availability       datatypes.JSONType[map[string]bool] `gorm:"type:jsonb;not null"`
	Status             string                              `gorm:"type:varchar(10);not null;default:'active'"`
	Version            int64                               `gorm:"not null;default:1"`
	CreatedAt          time.Time                           `gorm:"type:timestamptz;not null"`
	UpdatedAt          time.Time                           `gorm:"type:timestamptz;not null"`
}

func (ListingModel) TableName() string { return "listings" }

// GormListingRepository implements ListingRepository using GORM.
type GormListingRepository struct {
	db *gorm.DB
}

func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	var model ListingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Listing", id.String())
		}
		return nil, translateError(err, "find listing by ID")
	}
	return toListingDomain(&model), nil
}

func (r *GormListingRepository) FindByHostID(ctx context.Context, hostID uuid.UUID, page, limit int) ([]*listingDomain.Listing, int64, error) {
	return r.findPage(ctx, r.db.Where("host_id = ?", hostID), page, limit)
}

// ListActive lists bookable listings, newest first.
func (r *GormListingRepository) ListActive(ctx context.Context, page, limit int) ([]*listingDomain.Listing, int64, error) {
	return r.findPage(ctx, r.db.Where("status = ?", string(listingDomain.ListingStatusActive)), page, limit)
}

func (r *GormListingRepository) findPage(ctx context.Context, scope *gorm.DB, page, limit int) ([]*listingDomain.Listing, int64, error) {
	var total int64
	if err := scope.WithContext(ctx).Model(&ListingModel{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "count listings")
	}

	var models []ListingModel
	if err := scope.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, translateError(err, "list listings")
	}

	listings := make([]*listingDomain.Listing, len(models))
	for i := range models {
		listings[i] = toListingDomain(&models[i])
	}
	return listings, total, nil
}

func (r *GormListingRepository) Save(ctx context.Context, l *listingDomain.Listing) error {
	if err := r.db.WithContext(ctx).Create(toListingModel(l)).Error; err != nil {
		return translateError(err, "save listing")
	}
	return nil
}

func (r *GormListingRepository) Update(ctx context.Context, l *listingDomain.Listing) error {
	model := toListingModel(l)
	previousVersion := l.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&ListingModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"name":                  model.Name,
			"description":           model.Description,
			"location":              model.Location,
			"price_per_night_cents": model.PricePerNightCents,
			"currency":              model.Currency,
			"capacity":              model.Capacity,
			"amenities":             model.Amenities,
			"status":                model.Status,
			"version":               model.Version,
			"updated_at":            model.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "update listing")
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("listing was modified by another transaction")
	}
	return nil
}

// SaveAvailability overwrites the projection. It skips the version so that a
// rebuild never races a host's edit.
func (r *GormListingRepository) SaveAvailability(ctx context.Context, id uuid.UUID, availability listingDomain.Availability) error {
	result := r.db.WithContext(ctx).
		Model(&ListingModel{}).
		Where("id = ?", id).
		UpdateColumn("availability", datatypes.NewJSONType(map[string]bool(availability)))
	if result.Error != nil {
		return translateError(result.Error, "save listing availability")
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Listing", id.String())
	}
	return nil
}

func toListingModel(l *listingDomain.Listing) *ListingModel {
	price := l.PricePerNight()
	return &ListingModel{
		ID:                 l.ID(),
		HostID:             l.HostID(),
		Name:               l.Name(),
		Description:        l.Description(),
		Location:           l.Location(),
		PricePerNightCents: price.AmountCents,
		Currency:           price.Currency,
		Capacity:           l.Capacity(),
		Amenities:          datatypes.JSONMap(l.Amenities()),
		Availability:       datatypes.NewJSONType(map[string]bool(l.Availability())),
		Status:             string(l.Status()),
		Version:            l.Version(),
		CreatedAt:          l.CreatedAt(),
		UpdatedAt:          l.UpdatedAt(),
	}
}

func toListingDomain(m *ListingModel) *listingDomain.Listing {
	return listingDomain.Reconstruct(
		m.ID,
		m.HostID,
		m.Name,
		m.Description,
		m.Location,
		domain.NewMoney(m.PricePerNightCents, m.Currency),
		m.Capacity,
		map[string]interface{}(m.Amenities),
		listingDomain.Availability(m.Availability.Data()),
		listingDomain.ListingStatus(m.Status),
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
