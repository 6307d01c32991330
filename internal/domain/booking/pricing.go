package booking

import (
	"github.com/staybook/service-booking/internal/domain/listing"
	"github.com/staybook/service-booking/pkg/domain"
)

// PricingCalculator derives the total price of a stay.
type PricingCalculator interface {
	// Price returns the total for dates on l.
	Price(l *listing.Listing, dates DateRange) (domain.Money, error)
}

// NightlyPricingCalculator charges the listing's nightly rate for every night.
type NightlyPricingCalculator struct{}

// NewNightlyPricingCalculator creates a new NightlyPricingCalculator.
func NewNightlyPricingCalculator() *NightlyPricingCalculator {
	return &NightlyPricingCalculator{}
}

// Price computes nights * price_per_night. It rejects empty or inverted ranges
// even when called without the Validator.
func (c *NightlyPricingCalculator) Price(l *listing.Listing, dates DateRange) (domain.Money, error) {
	if l == nil {
		return domain.Money{}, ErrUnknownListing
	}
	nights := dates.Nights()
	if nights <= 0 {
		return domain.Money{}, ErrInvalidDateRange.WithMessage("stay %s has no nights", dates)
	}
	rate := l.PricePerNight()
	if !rate.IsPositive() {
		return domain.Money{}, domain.NewValidationError("listing nightly rate must be positive")
	}
	return rate.Times(nights)
}
