package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/staybook/service-booking/internal/cache"
	bookingDomain "github.com/staybook/service-booking/internal/domain/booking"
	listingDomain "github.com/staybook/service-booking/internal/domain/listing"
	userDomain "github.com/staybook/service-booking/internal/domain/user"
	"github.com/staybook/service-booking/pkg/auth"
	"github.com/staybook/service-booking/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type bookingFixture struct {
	svc       *BookingService
	bookings  *memBookingRepo
	listings  *memListingRepo
	users     *memUserRepo
	publisher *recordingPublisher
	guest     *userDomain.User
	other     *userDomain.User
	host      *userDomain.User
	admin     *userDomain.User
	listing   *listingDomain.Listing
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		listings:  newMemListingRepo(),
		users:     newMemUserRepo(),
		publisher: &recordingPublisher{},
	}
	f.bookings = newMemBookingRepo(f.listings)
	f.guest = addUser(t, f.users, userDomain.RoleGuest)
	f.other = addUser(t, f.users, userDomain.RoleGuest)
	f.host = addUser(t, f.users, userDomain.RoleHost)
	f.admin = addUser(t, f.users, userDomain.RoleAdmin)
	f.listing = addListing(t, f.listings, f.host.ID(), 10000)
	f.svc = NewBookingService(
		f.bookings,
		f.listings,
		f.users,
		bookingDomain.NewNightlyPricingCalculator(),
		f.publisher,
		zap.NewNop(),
	)
	return f
}

func (f *bookingFixture) book(t *testing.T, guestID uuid.UUID, start, end string) *BookingDTO {
	t.Helper()
	dto, err := f.svc.CreateBooking(context.Background(), guestID, CreateBookingRequest{
		ListingID: f.listing.ID(),
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	return dto
}

func (f *bookingFixture) bookedDates(t *testing.T, listingID uuid.UUID) []string {
	t.Helper()
	l, err := f.listings.FindByID(context.Background(), listingID)
	require.NoError(t, err)
	return l.Availability().BookedDates()
}

func TestBookingService_CreateBooking(t *testing.T) {
	f := newBookingFixture(t)

	dto := f.book(t, f.guest.ID(), "2025-01-10", "2025-01-13")

	assert.Equal(t, "PENDING", dto.Status)
	assert.Equal(t, int64(3), dto.Nights)
	assert.Equal(t, int64(30000), dto.TotalPrice.AmountCents)
	assert.Equal(t, "USD", dto.TotalPrice.Currency)
	assert.Equal(t, []string{"2025-01-10", "2025-01-11", "2025-01-12"}, f.bookedDates(t, f.listing.ID()))
	assert.Equal(t, []string{events.BookingRequested}, f.publisher.types())
}

func TestBookingService_CreateBooking_Rejections(t *testing.T) {
	f := newBookingFixture(t)
	f.book(t, f.guest.ID(), "2025-01-10", "2025-01-15")

	archivedHost := addUser(t, f.users, userDomain.RoleHost)
	archived := addListing(t, f.listings, archivedHost.ID(), 5000)
	require.NoError(t, archived.Archive())
	require.NoError(t, f.listings.Update(context.Background(), archived))

	tests := []struct {
		name      string
		guestID   uuid.UUID
		listingID uuid.UUID
		start     string
		end       string
		want      error
	}{
		{"end equals start", f.other.ID(), f.listing.ID(), "2025-02-01", "2025-02-01", bookingDomain.ErrInvalidDateRange},
		{"end before start", f.other.ID(), f.listing.ID(), "2025-02-05", "2025-02-01", bookingDomain.ErrInvalidDateRange},
		{"malformed date", f.other.ID(), f.listing.ID(), "02/01/2025", "2025-02-05", bookingDomain.ErrInvalidDateRange},
		{"date check wins over actor", f.host.ID(), uuid.New(), "2025-02-05", "2025-02-01", bookingDomain.ErrInvalidDateRange},
		{"host cannot book", f.host.ID(), f.listing.ID(), "2025-02-01", "2025-02-03", bookingDomain.ErrInvalidActor},
		{"admin cannot book", f.admin.ID(), f.listing.ID(), "2025-02-01", "2025-02-03", bookingDomain.ErrInvalidActor},
		{"missing guest", uuid.New(), f.listing.ID(), "2025-02-01", "2025-02-03", bookingDomain.ErrInvalidActor},
		{"actor check wins over listing", f.host.ID(), uuid.New(), "2025-02-01", "2025-02-03", bookingDomain.ErrInvalidActor},
		{"unknown listing", f.other.ID(), uuid.New(), "2025-02-01", "2025-02-03", bookingDomain.ErrUnknownListing},
		{"archived listing", f.other.ID(), archived.ID(), "2025-02-01", "2025-02-03", bookingDomain.ErrUnknownListing},
		{"overlapping dates", f.other.ID(), f.listing.ID(), "2025-01-14", "2025-01-16", bookingDomain.ErrDateConflict},
		{"enclosing dates", f.other.ID(), f.listing.ID(), "2025-01-01", "2025-01-31", bookingDomain.ErrDateConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateBooking(context.Background(), tt.guestID, CreateBookingRequest{
				ListingID: tt.listingID,
				StartDate: tt.start,
				EndDate:   tt.end,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	all, _, err := f.bookings.ListAll(context.Background(), nil, 1, 100)
	require.NoError(t, err)
	assert.Len(t, all, 1, "rejected requests must not leave rows behind")
}

func TestBookingService_CreateBooking_BackToBack(t *testing.T) {
	f := newBookingFixture(t)
	f.book(t, f.guest.ID(), "2025-01-10", "2025-01-15")

	_, err := f.svc.CreateBooking(context.Background(), f.other.ID(), CreateBookingRequest{
		ListingID: f.listing.ID(),
		StartDate: "2025-01-15",
		EndDate:   "2025-01-18",
	})
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(context.Background(), f.other.ID(), CreateBookingRequest{
		ListingID: f.listing.ID(),
		StartDate: "2025-01-05",
		EndDate:   "2025-01-10",
	})
	require.NoError(t, err)
}

func TestBookingService_CreateBooking_ConcurrentOverlapsOneWins(t *testing.T) {
	f := newBookingFixture(t)

	const n = 16
	guests := make([]*userDomain.User, n)
	for i := range guests {
		guests[i] = addUser(t, f.users, userDomain.RoleGuest)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(g *userDomain.User) {
			defer wg.Done()
			<-start
			_, err := f.svc.CreateBooking(context.Background(), g.ID(), CreateBookingRequest{
				ListingID: f.listing.ID(),
				StartDate: "2025-03-01",
				EndDate:   "2025-03-05",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, bookingDomain.ErrDateConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(guests[i])
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, conflicts)
}

func TestBookingService_ApproveBooking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.book(t, f.guest.ID(), "2025-01-10", "2025-01-12")

	_, err := f.svc.ApproveBooking(ctx, dto.ID, f.guest.ID())
	assert.ErrorIs(t, err, bookingDomain.ErrForbidden)

	_, err = f.svc.ApproveBooking(ctx, dto.ID, f.host.ID())
	assert.ErrorIs(t, err, bookingDomain.ErrForbidden)

	approved, err := f.svc.ApproveBooking(ctx, dto.ID, f.admin.ID())
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", approved.Status)
	assert.Equal(t, int64(2), approved.Version)

	_, err = f.svc.ApproveBooking(ctx, dto.ID, f.admin.ID())
	assert.ErrorIs(t, err, bookingDomain.ErrInvalidTransition)

	assert.Equal(t, []string{events.BookingRequested, events.BookingConfirmed}, f.publisher.types())
	assert.Equal(t, []string{"2025-01-10", "2025-01-11"}, f.bookedDates(t, f.listing.ID()))
}

func TestBookingService_CancelBooking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.book(t, f.guest.ID(), "2025-01-10", "2025-01-12")

	_, err := f.svc.CancelBooking(ctx, dto.ID, f.other.ID(), "not mine")
	assert.ErrorIs(t, err, bookingDomain.ErrForbidden)

	_, err = f.svc.CancelBooking(ctx, dto.ID, f.host.ID(), "host says no")
	assert.ErrorIs(t, err, bookingDomain.ErrForbidden)

	cancelled, err := f.svc.CancelBooking(ctx, dto.ID, f.guest.ID(), "change of plans")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "change of plans", cancelled.CancelReason)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Empty(t, f.bookedDates(t, f.listing.ID()))

	_, err = f.svc.CancelBooking(ctx, dto.ID, f.admin.ID(), "again")
	assert.ErrorIs(t, err, bookingDomain.ErrAlreadyCancelled)

	// Freed dates can be booked again and the cancelled row is kept.
	f.book(t, f.other.ID(), "2025-01-10", "2025-01-12")
	kept, err := f.svc.GetBooking(ctx, dto.ID, f.admin.ID())
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", kept.Status)
}

func TestBookingService_CancelConfirmedByAdmin(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.book(t, f.guest.ID(), "2025-01-10", "2025-01-12")

	_, err := f.svc.ApproveBooking(ctx, dto.ID, f.admin.ID())
	require.NoError(t, err)

	cancelled, err := f.svc.CancelBooking(ctx, dto.ID, f.admin.ID(), "")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
}

func TestBookingService_RescheduleBooking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	mine := f.book(t, f.guest.ID(), "2025-01-10", "2025-01-13")
	f.book(t, f.other.ID(), "2025-01-20", "2025-01-25")

	t.Run("onto its own dates", func(t *testing.T) {
		dto, err := f.svc.RescheduleBooking(ctx, mine.ID, f.guest.ID(), RescheduleBookingRequest{
			StartDate: "2025-01-11",
			EndDate:   "2025-01-13",
		})
		require.NoError(t, err)
		assert.Equal(t, "2025-01-11", dto.StartDate)
		assert.Equal(t, int64(20000), dto.TotalPrice.AmountCents)
		assert.Equal(t, "PENDING", dto.Status)
	})

	t.Run("onto another booking", func(t *testing.T) {
		_, err := f.svc.RescheduleBooking(ctx, mine.ID, f.guest.ID(), RescheduleBookingRequest{
			StartDate: "2025-01-22",
			EndDate:   "2025-01-27",
		})
		assert.ErrorIs(t, err, bookingDomain.ErrDateConflict)
	})

	t.Run("by another guest", func(t *testing.T) {
		_, err := f.svc.RescheduleBooking(ctx, mine.ID, f.other.ID(), RescheduleBookingRequest{
			StartDate: "2025-02-01",
			EndDate:   "2025-02-03",
		})
		assert.ErrorIs(t, err, bookingDomain.ErrForbidden)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := f.svc.RescheduleBooking(ctx, mine.ID, f.guest.ID(), RescheduleBookingRequest{
			StartDate: "2025-02-03",
			EndDate:   "2025-02-01",
		})
		assert.ErrorIs(t, err, bookingDomain.ErrInvalidDateRange)
	})

	t.Run("to another listing", func(t *testing.T) {
		second := addListing(t, f.listings, f.host.ID(), 7500)
		dto, err := f.svc.RescheduleBooking(ctx, mine.ID, f.admin.ID(), RescheduleBookingRequest{
			ListingID: ptr(second.ID()),
			StartDate: "2025-01-20",
			EndDate:   "2025-01-22",
		})
		require.NoError(t, err)
		assert.Equal(t, second.ID(), dto.ListingID)
		assert.Equal(t, int64(15000), dto.TotalPrice.AmountCents)
		assert.Equal(t, []string{"2025-01-20", "2025-01-21"}, f.bookedDates(t, second.ID()))
		assert.NotContains(t, f.bookedDates(t, f.listing.ID()), "2025-01-11")
	})

	t.Run("cancelled booking", func(t *testing.T) {
		_, err := f.svc.CancelBooking(ctx, mine.ID, f.guest.ID(), "")
		require.NoError(t, err)
		_, err = f.svc.RescheduleBooking(ctx, mine.ID, f.guest.ID(), RescheduleBookingRequest{
			StartDate: "2025-03-01",
			EndDate:   "2025-03-02",
		})
		assert.ErrorIs(t, err, bookingDomain.ErrAlreadyCancelled)
	})
}

func TestBookingService_ComputePrice(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	quote, err := f.svc.ComputePrice(ctx, f.listing.ID(), QuoteRequest{StartDate: "2025-01-01", EndDate: "2025-01-08"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), quote.Nights)
	assert.Equal(t, int64(70000), quote.Total.AmountCents)

	_, err = f.svc.ComputePrice(ctx, f.listing.ID(), QuoteRequest{StartDate: "2025-01-08", EndDate: "2025-01-08"})
	assert.ErrorIs(t, err, bookingDomain.ErrInvalidDateRange)

	_, err = f.svc.ComputePrice(ctx, uuid.New(), QuoteRequest{StartDate: "2025-01-01", EndDate: "2025-01-08"})
	assert.ErrorIs(t, err, bookingDomain.ErrUnknownListing)
}

func TestBookingService_GetBooking_Visibility(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	dto := f.book(t, f.guest.ID(), "2025-01-10", "2025-01-12")

	_, err := f.svc.GetBooking(ctx, dto.ID, f.guest.ID())
	assert.NoError(t, err)
	_, err = f.svc.GetBooking(ctx, dto.ID, f.admin.ID())
	assert.NoError(t, err)
	_, err = f.svc.GetBooking(ctx, dto.ID, f.other.ID())
	assert.ErrorIs(t, err, bookingDomain.ErrForbidden)
	_, err = f.svc.GetBooking(ctx, dto.ID, f.host.ID())
	assert.NoError(t, err)

	strangerHost := addUser(t, f.users, userDomain.RoleHost)
	_, err = f.svc.GetBooking(ctx, dto.ID, strangerHost.ID())
	assert.ErrorIs(t, err, bookingDomain.ErrForbidden)
}

func TestBookingService_ListListingBookings_ScopedToOwner(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	f.book(t, f.guest.ID(), "2025-01-10", "2025-01-12")

	page, err := f.svc.ListListingBookings(ctx, f.listing.ID(), f.host.ID(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = f.svc.ListListingBookings(ctx, f.listing.ID(), f.admin.ID(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	strangerHost := addUser(t, f.users, userDomain.RoleHost)
	_, err = f.svc.ListListingBookings(ctx, f.listing.ID(), strangerHost.ID(), 1, 20)
	assert.ErrorIs(t, err, bookingDomain.ErrForbidden)

	_, err = f.svc.ListListingBookings(ctx, f.listing.ID(), f.guest.ID(), 1, 20)
	assert.ErrorIs(t, err, bookingDomain.ErrForbidden)
}

// Two service instances each front the same store with their own listing
// cache. Writes through one must not be masked by the other's cached copy.
func TestBookingService_CreateBooking_IgnoresStaleListingCache(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	cacheA := cache.NewListingRepository(f.listings, nil, cache.DefaultConfig(), zap.NewNop())
	cacheB := cache.NewListingRepository(f.listings, nil, cache.DefaultConfig(), zap.NewNop())
	listingsA := NewListingService(cacheA, f.users, zap.NewNop())
	svcB := NewBookingService(f.bookings, cacheB, f.users, bookingDomain.NewNightlyPricingCalculator(), f.publisher, zap.NewNop())

	quote, err := svcB.ComputePrice(ctx, f.listing.ID(), QuoteRequest{StartDate: "2025-03-01", EndDate: "2025-03-03"})
	require.NoError(t, err)
	require.Equal(t, int64(20000), quote.Total.AmountCents)

	rate := int64(25000)
	_, err = listingsA.UpdateListing(ctx, f.listing.ID(), f.host.ID(), auth.RoleHost, UpdateListingRequest{PricePerNightCents: &rate})
	require.NoError(t, err)

	dto, err := svcB.CreateBooking(ctx, f.guest.ID(), CreateBookingRequest{
		ListingID: f.listing.ID(), StartDate: "2025-03-01", EndDate: "2025-03-03",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50000), dto.TotalPrice.AmountCents)

	require.NoError(t, listingsA.ArchiveListing(ctx, f.listing.ID(), f.host.ID(), auth.RoleHost))

	_, err = svcB.CreateBooking(ctx, f.other.ID(), CreateBookingRequest{
		ListingID: f.listing.ID(), StartDate: "2025-04-01", EndDate: "2025-04-03",
	})
	assert.ErrorIs(t, err, bookingDomain.ErrUnknownListing)
}

func TestBookingService_Stats(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	first := f.book(t, f.guest.ID(), "2025-01-10", "2025-01-12")
	f.book(t, f.guest.ID(), "2025-01-12", "2025-01-14")
	_, err := f.svc.CancelBooking(ctx, first.ID, f.guest.ID(), "")
	require.NoError(t, err)

	stats, err := f.svc.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus["CANCELLED"])
	assert.Equal(t, int64(1), stats.ByStatus["PENDING"])

	pending, total, err := f.svc.ListAllBookings(ctx, "pending", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, pending, 1)

	_, _, err = f.svc.ListAllBookings(ctx, "ARCHIVED", 1, 20)
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
