package booking

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DateRange is a half-open [Start, End) interval of calendar days at UTC midnight.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to their calendar day and requires End > Start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: TruncateToDay(start), End: TruncateToDay(end)}
	if !r.End.After(r.Start) {
		return DateRange{}, ErrInvalidDateRange.WithMessage(
			"end date %s must be after start date %s", r.End.Format(DateLayout), r.Start.Format(DateLayout))
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD dates.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, ErrInvalidDateRange.WithMessage("invalid start date %q, expected YYYY-MM-DD", start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, ErrInvalidDateRange.WithMessage("invalid end date %q, expected YYYY-MM-DD", end)
	}
	return NewDateRange(s, e)
}

// TruncateToDay keeps the calendar date of t as written and drops the time of day.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const secondsPerDay = 24 * 60 * 60

// Nights returns the number of whole days between Start and End. It can be
// zero or negative for a range that was not built through NewDateRange.
// Unix seconds keep ranges longer than a time.Duration exact.
func (r DateRange) Nights() int64 {
	return (TruncateToDay(r.End).Unix() - TruncateToDay(r.Start).Unix()) / secondsPerDay
}

// Overlaps reports whether two half-open ranges share at least one night.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Equal reports whether both bounds match.
func (r DateRange) Equal(other DateRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}
