package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/staybook/service-booking/internal/domain/listing"
)

// AvailabilityIndex answers overlap queries against active bookings of a listing.
type AvailabilityIndex interface {
	// Overlaps reports whether dates intersect any PENDING or CONFIRMED booking on
	// listingID other than exclude.
	Overlaps(ctx context.Context, listingID uuid.UUID, dates DateRange, exclude *uuid.UUID) (bool, error)

	// ActiveRanges returns the date ranges held by active bookings on listingID.
	ActiveRanges(ctx context.Context, listingID uuid.UUID) ([]DateRange, error)
}

// ProjectAvailability rebuilds a listing's calendar from its active ranges.
func ProjectAvailability(ranges []DateRange) listing.Availability {
	intervals := make([]listing.Interval, len(ranges))
	for i, r := range ranges {
		intervals[i] = listing.Interval{Start: r.Start, End: r.End}
	}
	return listing.RebuildAvailability(intervals)
}
