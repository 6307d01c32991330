package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/staybook/service-booking/internal/domain/booking"
	listingDomain "github.com/staybook/service-booking/internal/domain/listing"
	messageDomain "github.com/staybook/service-booking/internal/domain/message"
	paymentDomain "github.com/staybook/service-booking/internal/domain/payment"
	reviewDomain "github.com/staybook/service-booking/internal/domain/review"
	userDomain "github.com/staybook/service-booking/internal/domain/user"
	"github.com/staybook/service-booking/pkg/domain"
	"github.com/staybook/service-booking/pkg/kafka"
	"github.com/stretchr/testify/require"
)

// In-memory repositories. Each stores copies so that a mutation that is never
// persisted does not leak into later reads, like a real database.

type memBookingRepo struct {
	mu       sync.Mutex
	listing  sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	listings *memListingRepo
}

// newMemBookingRepo reads locked listings straight from listings, the way the
// GORM repository reads the row it locks.
func newMemBookingRepo(listings *memListingRepo) *memBookingRepo {
	return &memBookingRepo{bookings: map[uuid.UUID]*bookingDomain.Booking{}, listings: listings}
}

func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		b.ID(), b.ListingID(), b.GuestID(), b.Dates(), b.Status(), b.TotalPrice(),
		b.CancelledAt(), b.CancelReason(), b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
}

func (r *memBookingRepo) Overlaps(_ context.Context, listingID uuid.UUID, dates bookingDomain.DateRange, exclude *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.ListingID() != listingID || !b.IsActive() {
			continue
		}
		if exclude != nil && b.ID() == *exclude {
			continue
		}
		if b.Dates().Overlaps(dates) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memBookingRepo) ActiveRanges(_ context.Context, listingID uuid.UUID) ([]bookingDomain.DateRange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ranges []bookingDomain.DateRange
	for _, b := range r.bookings {
		if b.ListingID() == listingID && b.IsActive() {
			ranges = append(ranges, b.Dates())
		}
	}
	return ranges, nil
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return cloneBooking(b), nil
}

func (r *memBookingRepo) filter(keep func(*bookingDomain.Booking) bool) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memBookingRepo) FindByGuestID(_ context.Context, guestID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	return r.filter(func(b *bookingDomain.Booking) bool { return b.GuestID() == guestID })
}

func (r *memBookingRepo) FindByListingID(_ context.Context, listingID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	return r.filter(func(b *bookingDomain.Booking) bool { return b.ListingID() == listingID })
}

func (r *memBookingRepo) ListAll(_ context.Context, status *bookingDomain.BookingStatus, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	return r.filter(func(b *bookingDomain.Booking) bool { return status == nil || b.Status() == *status })
}

func (r *memBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, b := range r.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

func (r *memBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = cloneBooking(b)
	return nil
}

func (r *memBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID()]
	if !ok || stored.Version() != b.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[b.ID()] = cloneBooking(b)
	return nil
}

// WithListingLock serialises every locked write, which is stricter than a
// per-listing row lock and enough for tests.
func (r *memBookingRepo) WithListingLock(ctx context.Context, listingID uuid.UUID, fn func(tx bookingDomain.BookingRepository, l *listingDomain.Listing) error) error {
	r.listing.Lock()
	defer r.listing.Unlock()
	l, err := r.listings.FindByID(ctx, listingID)
	if err != nil {
		if domain.IsNotFound(err) {
			return bookingDomain.ErrUnknownListing
		}
		return err
	}
	return fn(r, l)
}

type memListingRepo struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*listingDomain.Listing
}

func newMemListingRepo() *memListingRepo {
	return &memListingRepo{listings: map[uuid.UUID]*listingDomain.Listing{}}
}

func cloneListing(l *listingDomain.Listing) *listingDomain.Listing {
	availability := listingDomain.Availability{}
	for k, v := range l.Availability() {
		availability[k] = v
	}
	return listingDomain.Reconstruct(
		l.ID(), l.HostID(), l.Name(), l.Description(), l.Location(), l.PricePerNight(),
		l.Capacity(), l.Amenities(), availability, l.Status(), l.Version(), l.CreatedAt(), l.UpdatedAt(),
	)
}

func (r *memListingRepo) FindByID(_ context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Listing", id.String())
	}
	return cloneListing(l), nil
}

func (r *memListingRepo) FindByHostID(_ context.Context, hostID uuid.UUID, _, _ int) ([]*listingDomain.Listing, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*listingDomain.Listing
	for _, l := range r.listings {
		if l.HostID() == hostID {
			out = append(out, cloneListing(l))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memListingRepo) ListActive(_ context.Context, _, _ int) ([]*listingDomain.Listing, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*listingDomain.Listing
	for _, l := range r.listings {
		if l.IsActive() {
			out = append(out, cloneListing(l))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memListingRepo) Save(_ context.Context, l *listingDomain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[l.ID()] = cloneListing(l)
	return nil
}

func (r *memListingRepo) Update(_ context.Context, l *listingDomain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.listings[l.ID()]
	if !ok || stored.Version() != l.Version()-1 {
		return domain.NewConflictError("listing was modified by another transaction")
	}
	r.listings[l.ID()] = cloneListing(l)
	return nil
}

func (r *memListingRepo) SaveAvailability(_ context.Context, id uuid.UUID, a listingDomain.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return domain.NewNotFoundError("Listing", id.String())
	}
	l.ReplaceAvailability(a)
	return nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*userDomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uuid.UUID]*userDomain.User{}}
}

func cloneUser(u *userDomain.User) *userDomain.User {
	return userDomain.Reconstruct(
		u.ID(), u.FirstName(), u.LastName(), u.Email(), u.PhoneNumber(), u.Role(),
		u.Bio(), u.PasswordHash(), u.CreatedAt(), u.UpdatedAt(),
	)
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id.String())
	}
	return cloneUser(u), nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email(), email) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.NewNotFoundError("User", email)
}

func (r *memUserRepo) List(_ context.Context, role *userDomain.Role, _, _ int) ([]*userDomain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*userDomain.User
	for _, u := range r.users {
		if role == nil || u.Role() == *role {
			out = append(out, cloneUser(u))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepo) Save(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email(), u.Email()) {
			return userDomain.ErrEmailTaken
		}
	}
	r.users[u.ID()] = cloneUser(u)
	return nil
}

func (r *memUserRepo) Update(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID()] = cloneUser(u)
	return nil
}

type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*paymentDomain.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: map[uuid.UUID]*paymentDomain.Payment{}}
}

func clonePayment(p *paymentDomain.Payment) *paymentDomain.Payment {
	return paymentDomain.Reconstruct(
		p.ID(), p.BookingID(), p.UserID(), p.Amount(), p.Method(), p.Status(),
		p.TransactionID(), p.PaidAt(), p.Version(), p.CreatedAt(), p.UpdatedAt(),
	)
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, domain.NewNotFoundError("Payment", id.String())
	}
	return clonePayment(p), nil
}

func (r *memPaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.BookingID() == bookingID {
			return clonePayment(p), nil
		}
	}
	return nil, domain.NewNotFoundError("Payment", bookingID.String())
}

func (r *memPaymentRepo) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]*paymentDomain.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*paymentDomain.Payment
	for _, p := range r.payments {
		if p.UserID() == userID {
			out = append(out, clonePayment(p))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memPaymentRepo) ExistsForBooking(_ context.Context, bookingID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.BookingID() == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPaymentRepo) Save(_ context.Context, p *paymentDomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payments {
		if existing.BookingID() == p.BookingID() {
			return paymentDomain.ErrDuplicatePayment
		}
	}
	r.payments[p.ID()] = clonePayment(p)
	return nil
}

func (r *memPaymentRepo) Update(_ context.Context, p *paymentDomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.payments[p.ID()]
	if !ok || stored.Version() != p.Version()-1 {
		return domain.NewConflictError("payment was modified by another transaction")
	}
	r.payments[p.ID()] = clonePayment(p)
	return nil
}

type memReviewRepo struct {
	mu      sync.Mutex
	reviews map[uuid.UUID]*reviewDomain.Review
}

func newMemReviewRepo() *memReviewRepo {
	return &memReviewRepo{reviews: map[uuid.UUID]*reviewDomain.Review{}}
}

func cloneReview(r *reviewDomain.Review) *reviewDomain.Review {
	return reviewDomain.Reconstruct(r.ID(), r.UserID(), r.ListingID(), r.BookingID(), r.Rating(), r.Comment(), r.IsApproved(), r.ReviewDate())
}

func (m *memReviewRepo) Save(_ context.Context, r *reviewDomain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[r.ID()] = cloneReview(r)
	return nil
}

func (m *memReviewRepo) Update(_ context.Context, r *reviewDomain.Review) error {
	return m.Save(context.Background(), r)
}

func (m *memReviewRepo) FindByID(_ context.Context, id uuid.UUID) (*reviewDomain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, domain.NewNotFoundError("Review", id.String())
	}
	return cloneReview(r), nil
}

func (m *memReviewRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*reviewDomain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.BookingID() != nil && *r.BookingID() == bookingID {
			return cloneReview(r), nil
		}
	}
	return nil, domain.NewNotFoundError("Review", bookingID.String())
}

func (m *memReviewRepo) FindByListingID(_ context.Context, listingID uuid.UUID, approvedOnly bool, _, _ int) ([]*reviewDomain.Review, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*reviewDomain.Review
	for _, r := range m.reviews {
		if r.ListingID() == listingID && (!approvedOnly || r.IsApproved()) {
			out = append(out, cloneReview(r))
		}
	}
	return out, int64(len(out)), nil
}

func (m *memReviewRepo) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]*reviewDomain.Review, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*reviewDomain.Review
	for _, r := range m.reviews {
		if r.UserID() == userID {
			out = append(out, cloneReview(r))
		}
	}
	return out, int64(len(out)), nil
}

type memMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*messageDomain.Message
	updates  int
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{messages: map[uuid.UUID]*messageDomain.Message{}}
}

func cloneMessage(m *messageDomain.Message) *messageDomain.Message {
	return messageDomain.Reconstruct(m.ID(), m.SenderID(), m.RecipientID(), m.Title(), m.Body(), m.IsRead(), m.SentAt(), m.ReadAt())
}

func (r *memMessageRepo) Save(_ context.Context, m *messageDomain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.ID()] = cloneMessage(m)
	return nil
}

func (r *memMessageRepo) Update(_ context.Context, m *messageDomain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.messages[m.ID()] = cloneMessage(m)
	return nil
}

func (r *memMessageRepo) FindByID(_ context.Context, id uuid.UUID) (*messageDomain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, domain.NewNotFoundError("Message", id.String())
	}
	return cloneMessage(m), nil
}

func (r *memMessageRepo) FindByRecipientID(_ context.Context, recipientID uuid.UUID, unreadOnly bool, _, _ int) ([]*messageDomain.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*messageDomain.Message
	for _, m := range r.messages {
		if m.RecipientID() == recipientID && (!unreadOnly || !m.IsRead()) {
			out = append(out, cloneMessage(m))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memMessageRepo) FindBySenderID(_ context.Context, senderID uuid.UUID, _, _ int) ([]*messageDomain.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*messageDomain.Message
	for _, m := range r.messages {
		if m.SenderID() == senderID {
			out = append(out, cloneMessage(m))
		}
	}
	return out, int64(len(out)), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// --- Fixtures ---

func addUser(t *testing.T, repo *memUserRepo, role userDomain.Role) *userDomain.User {
	t.Helper()
	u, err := userDomain.NewUser("Test", string(role), uuid.NewString()[:8]+"@example.com", "+14155550100", role, "", "hash")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), u))
	return u
}

func addListing(t *testing.T, repo *memListingRepo, hostID uuid.UUID, rateCents int64) *listingDomain.Listing {
	t.Helper()
	l, err := listingDomain.NewListing(hostID, "Sea View Flat", "two rooms", "Mombasa", domain.NewMoney(rateCents, domain.CurrencyUSD), 4, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), l))
	return l
}

func day(s string) time.Time {
	d, err := time.Parse(bookingDomain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}
