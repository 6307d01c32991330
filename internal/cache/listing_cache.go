package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/karlseguin/ccache/v3"
	"github.com/redis/go-redis/v9"
	listingDomain "github.com/staybook/service-booking/internal/domain/listing"
	"github.com/staybook/service-booking/pkg/domain"
	"go.uber.org/zap"
)

const keyPrefix = "listing:"

// Config controls the two cache tiers.
type Config struct {
	LocalMaxSize int64
	LocalTTL     time.Duration
	RemoteTTL    time.Duration
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{LocalMaxSize: 1000, LocalTTL: time.Minute, RemoteTTL: 10 * time.Minute}
}

// listingSnapshot is the serialized form shared by both tiers.
type listingSnapshot struct {
	ID            uuid.UUID              `json:"id"`
	HostID        uuid.UUID              `json:"host_id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Location      string                 `json:"location"`
	PricePerNight domain.Money           `json:"price_per_night"`
	Capacity      int                    `json:"capacity"`
	Amenities     map[string]interface{} `json:"amenities"`
	Availability  map[string]bool        `json:"availability"`
	Status        string                 `json:"status"`
	Version       int64                  `json:"version"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// ListingRepository decorates a ListingRepository with a read-through cache:
// an in-process ccache in front of Redis. Any write invalidates both tiers.
// Redis is optional; a nil client leaves only the local tier.
type ListingRepository struct {
	next   listingDomain.ListingRepository
	local  *ccache.Cache[*listingSnapshot]
	remote *redis.Client
	cfg    Config
	logger *zap.Logger
}

// NewListingRepository wraps next with the cache tiers.
func NewListingRepository(next listingDomain.ListingRepository, remote *redis.Client, cfg Config, logger *zap.Logger) *ListingRepository {
	return &ListingRepository{
		next:   next,
		local:  ccache.New(ccache.Configure[*listingSnapshot]().MaxSize(cfg.LocalMaxSize)),
		remote: remote,
		cfg:    cfg,
		logger: logger,
	}
}

// FindByID serves from the local tier, then Redis, then the database.
func (c *ListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	key := keyPrefix + id.String()

	if item := c.local.Get(key); item != nil && !item.Expired() {
		return fromSnapshot(item.Value()), nil
	}

	if c.remote != nil {
		data, err := c.remote.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var snap listingSnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				c.local.Set(key, &snap, c.cfg.LocalTTL)
				return fromSnapshot(&snap), nil
			}
			c.logger.Warn("discarding corrupt cached listing", zap.String("listing_id", id.String()))
		case errors.Is(err, redis.Nil):
		default:
			c.logger.Warn("redis get failed, falling back to database", zap.Error(err))
		}
	}

	l, err := c.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, toSnapshot(l))
	return l, nil
}

func (c *ListingRepository) FindByHostID(ctx context.Context, hostID uuid.UUID, page, limit int) ([]*listingDomain.Listing, int64, error) {
	return c.next.FindByHostID(ctx, hostID, page, limit)
}

func (c *ListingRepository) ListActive(ctx context.Context, page, limit int) ([]*listingDomain.Listing, int64, error) {
	return c.next.ListActive(ctx, page, limit)
}

func (c *ListingRepository) Save(ctx context.Context, l *listingDomain.Listing) error {
	return c.next.Save(ctx, l)
}

// Update drops the cached copy before and after the write so a reader that
// raced the write does not keep the old row until the TTL expires.
func (c *ListingRepository) Update(ctx context.Context, l *listingDomain.Listing) error {
	c.Invalidate(ctx, l.ID())
	defer c.Invalidate(ctx, l.ID())
	return c.next.Update(ctx, l)
}

func (c *ListingRepository) SaveAvailability(ctx context.Context, id uuid.UUID, availability listingDomain.Availability) error {
	defer c.Invalidate(ctx, id)
	return c.next.SaveAvailability(ctx, id, availability)
}

// Invalidate drops the listing from both tiers.
func (c *ListingRepository) Invalidate(ctx context.Context, id uuid.UUID) {
	key := keyPrefix + id.String()
	c.local.Delete(key)
	if c.remote == nil {
		return
	}
	if err := c.remote.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("redis delete failed", zap.String("listing_id", id.String()), zap.Error(err))
	}
}

func (c *ListingRepository) store(ctx context.Context, key string, snap *listingSnapshot) {
	c.local.Set(key, snap, c.cfg.LocalTTL)
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		c.logger.Warn("failed to marshal listing for cache", zap.Error(err))
		return
	}
	if err := c.remote.Set(ctx, key, data, c.cfg.RemoteTTL).Err(); err != nil {
		c.logger.Warn("redis set failed", zap.Error(err))
	}
}

func toSnapshot(l *listingDomain.Listing) *listingSnapshot {
	return &listingSnapshot{
		ID:            l.ID(),
		HostID:        l.HostID(),
		Name:          l.Name(),
		Description:   l.Description(),
		Location:      l.Location(),
		PricePerNight: l.PricePerNight(),
		Capacity:      l.Capacity(),
		Amenities:     copyAmenities(l.Amenities()),
		Availability:  copyAvailability(l.Availability()),
		Status:        string(l.Status()),
		Version:       l.Version(),
		CreatedAt:     l.CreatedAt(),
		UpdatedAt:     l.UpdatedAt(),
	}
}

// fromSnapshot returns a fresh aggregate so callers can mutate it without
// touching the cached copy.
func fromSnapshot(s *listingSnapshot) *listingDomain.Listing {
	return listingDomain.Reconstruct(
		s.ID,
		s.HostID,
		s.Name,
		s.Description,
		s.Location,
		s.PricePerNight,
		s.Capacity,
		copyAmenities(s.Amenities),
		copyAvailability(s.Availability),
		listingDomain.ListingStatus(s.Status),
		s.Version,
		s.CreatedAt,
		s.UpdatedAt,
	)
}

func copyAmenities(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyAvailability(src map[string]bool) listingDomain.Availability {
	dst := make(listingDomain.Availability, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
