package listing

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Availability is the per-date calendar projection: date -> available.
// It is derived from active booking intervals and never read as a source of truth.
type Availability map[string]bool

// Interval is a half-open [Start, End) range of calendar days.
type Interval struct {
	Start time.Time
	End   time.Time
}

// RebuildAvailability marks every night covered by an active interval as unavailable.
// Nights not present in the map are available.
func RebuildAvailability(active []Interval) Availability {
	a := Availability{}
	for _, iv := range active {
		for d := iv.Start.UTC(); d.Before(iv.End.UTC()); d = d.AddDate(0, 0, 1) {
			a[d.Format(dateLayout)] = false
		}
	}
	return a
}

// IsAvailable reports whether the night starting on day is free in the projection.
func (a Availability) IsAvailable(day time.Time) bool {
	v, ok := a[day.UTC().Format(dateLayout)]
	return !ok || v
}

// BookedDates returns the unavailable dates in ascending order.
func (a Availability) BookedDates() []string {
	dates := make([]string, 0, len(a))
	for d, free := range a {
		if !free {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	return dates
}
