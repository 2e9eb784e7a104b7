package bookings

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"easybus/internal/events"
	"easybus/internal/seats"
	"easybus/internal/seats/seatstest"
	"easybus/internal/shared/apperrors"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 10, 31, 9, 0, 0, 0, time.UTC)

// fakeRepo keeps bookings next to a seatstest.Store and commits both together
type fakeRepo struct {
	store *seatstest.Store

	mu        sync.Mutex
	bookings  []Booking
	shortBook bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{store: seatstest.NewStore()}
}

func (r *fakeRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	var pending []Booking
	err := r.store.Transaction(ctx, func(inv seats.Repository) error {
		if r.shortBook {
			inv = shortBooker{inv}
		}
		return fn(&fakeTx{inv: inv, pending: &pending})
	})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.bookings = append(r.bookings, pending...)
	r.mu.Unlock()
	return nil
}

func (r *fakeRepo) Inventory() seats.Repository { return r.store }

func (r *fakeRepo) CreateBooking(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, *b)
	return nil
}

func (r *fakeRepo) GetUserBookings(ctx context.Context, userID uuid.UUID, query ListQuery) ([]Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, b := range r.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) GetAllBookings(ctx context.Context, query ListQuery) ([]Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Booking(nil), r.bookings...), int64(len(r.bookings)), nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

type fakeTx struct {
	inv     seats.Repository
	pending *[]Booking
}

func (t *fakeTx) Transaction(ctx context.Context, fn func(Repository) error) error { return fn(t) }

func (t *fakeTx) Inventory() seats.Repository { return t.inv }

func (t *fakeTx) CreateBooking(ctx context.Context, b *Booking) error {
	*t.pending = append(*t.pending, *b)
	return nil
}

func (t *fakeTx) GetUserBookings(context.Context, uuid.UUID, ListQuery) ([]Booking, int64, error) {
	return nil, 0, nil
}

func (t *fakeTx) GetAllBookings(context.Context, ListQuery) ([]Booking, int64, error) {
	return nil, 0, nil
}

// shortBooker reports one seat fewer than it booked
type shortBooker struct {
	seats.Repository
}

func (s shortBooker) BookSeats(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID, userID, bookingID uuid.UUID, now time.Time) (int64, error) {
	n, err := s.Repository.BookSeats(ctx, scheduleID, seatIDs, userID, bookingID, now)
	return n - 1, err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	repo *fakeRepo
	pub  *recordingPublisher
	svc  *service
}

func newFixture() *fixture {
	f := &fixture{repo: newFakeRepo(), pub: &recordingPublisher{}}
	provider := &DummyProvider{now: func() time.Time { return testNow }}
	f.svc = newService(f.repo, provider, nil, f.pub, nil, func() time.Time { return testNow })
	return f
}

// block marks labels BLOCKED by owner until the given time
func (f *fixture) block(t *testing.T, scheduleID, owner uuid.UUID, until time.Time, labels ...string) {
	t.Helper()
	for _, label := range labels {
		ok := f.repo.store.UpdateRow(scheduleID, label, func(row *seats.SeatAvailability) {
			o, u := owner, until
			row.Status = seats.StatusBlocked
			row.BlockedByID = &o
			row.BlockedUntil = &u
		})
		if !ok {
			t.Fatalf("no row for %s", label)
		}
	}
}

func (f *fixture) row(t *testing.T, scheduleID uuid.UUID, label string) seats.SeatAvailability {
	t.Helper()
	row, ok := f.repo.store.Row(scheduleID, label)
	if !ok {
		t.Fatalf("no row for %s", label)
	}
	return row
}

func confirmRequest(scheduleID uuid.UUID, labels ...string) ConfirmRequest {
	req := ConfirmRequest{ScheduleID: scheduleID.String()}
	for _, label := range labels {
		req.Passengers = append(req.Passengers, PassengerInput{Name: "Asha", Age: 30, Gender: "F", SeatLabel: label})
	}
	return req
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) *apperrors.Error {
	t.Helper()
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind != kind {
		t.Fatalf("error = %v, want kind %s", err, kind)
	}
	return appErr
}

func TestConfirmBooksHeldSeats(t *testing.T) {
	f := newFixture()
	user := f.repo.store.AddUser()
	schedule := f.repo.store.AddSchedule(500, 6)
	f.block(t, schedule.ID, user, testNow.Add(10*time.Minute), "A1", "A2", "A3")

	resp, err := f.svc.Confirm(context.Background(), user, confirmRequest(schedule.ID, "a1", "A2"))
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	if resp.Booking.TotalAmount != 1000 {
		t.Errorf("total = %v, want 1000", resp.Booking.TotalAmount)
	}
	if resp.Booking.Status != StatusConfirmed {
		t.Errorf("status = %s", resp.Booking.Status)
	}
	if resp.Payment.Status != PaymentSuccess || resp.Payment.Amount != 1000 || resp.Payment.Provider != ProviderDummy {
		t.Errorf("payment = %+v", resp.Payment)
	}
	if len(resp.Passengers) != 2 || resp.Passengers[0].SeatLabel != "A1" || resp.Passengers[0].BookingID != resp.Booking.ID {
		t.Errorf("passengers = %+v", resp.Passengers)
	}
	if f.repo.count() != 1 {
		t.Fatalf("bookings stored = %d, want 1", f.repo.count())
	}

	for _, label := range []string{"A1", "A2"} {
		row := f.row(t, schedule.ID, label)
		if row.Status != seats.StatusBooked || row.BookingID == nil || *row.BookingID != resp.Booking.ID {
			t.Errorf("%s = %+v, want BOOKED by booking", label, row)
		}
		if row.BlockedByID != nil || row.BlockedUntil != nil {
			t.Errorf("%s keeps hold fields", label)
		}
	}
	if row := f.row(t, schedule.ID, "A3"); row.Status != seats.StatusAvailable || row.BlockedByID != nil {
		t.Errorf("A3 = %+v, want released", row)
	}

	if len(f.pub.events) != 1 || f.pub.events[0].Type != events.TypeBookingConfirmed {
		t.Errorf("events = %+v", f.pub.events)
	}
}

func TestConfirmRejectsUnheldSeats(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, f *fixture, scheduleID, user uuid.UUID)
		message string
		seats   []string
	}{
		{
			name: "not blocked",
			setup: func(t *testing.T, f *fixture, scheduleID, user uuid.UUID) {
				f.block(t, scheduleID, user, testNow.Add(time.Minute), "A1")
			},
			message: "Some seats are not blocked and cannot be booked",
			seats:   []string{"A2"},
		},
		{
			name: "blocked by another user",
			setup: func(t *testing.T, f *fixture, scheduleID, user uuid.UUID) {
				f.block(t, scheduleID, user, testNow.Add(time.Minute), "A1")
				f.block(t, scheduleID, uuid.New(), testNow.Add(time.Minute), "A2")
			},
			message: "Some seats are blocked by another user and cannot be booked",
			seats:   []string{"A2"},
		},
		{
			name: "expired hold",
			setup: func(t *testing.T, f *fixture, scheduleID, user uuid.UUID) {
				f.block(t, scheduleID, user, testNow, "A1", "A2")
			},
			message: "Some seats have expired blocks. Please block seats again.",
			seats:   []string{"A1", "A2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			user := f.repo.store.AddUser()
			schedule := f.repo.store.AddSchedule(500, 4)
			tt.setup(t, f, schedule.ID, user)

			_, err := f.svc.Confirm(context.Background(), user, confirmRequest(schedule.ID, "A1", "A2"))
			appErr := assertKind(t, err, apperrors.KindConflict)
			if appErr.Message != tt.message {
				t.Errorf("message = %q, want %q", appErr.Message, tt.message)
			}
			if strings.Join(appErr.Labels, ",") != strings.Join(tt.seats, ",") {
				t.Errorf("labels = %v, want %v", appErr.Labels, tt.seats)
			}
			if f.repo.count() != 0 {
				t.Errorf("booking written on conflict")
			}
			if f.row(t, schedule.ID, "A1").Status == seats.StatusBooked {
				t.Errorf("A1 booked on conflict")
			}
			if len(f.pub.events) != 0 {
				t.Errorf("events published on conflict: %+v", f.pub.events)
			}
		})
	}
}

func TestConfirmReportsEveryFailedRule(t *testing.T) {
	f := newFixture()
	user := f.repo.store.AddUser()
	schedule := f.repo.store.AddSchedule(500, 4)
	f.block(t, schedule.ID, uuid.New(), testNow.Add(time.Minute), "A2")
	f.block(t, schedule.ID, user, testNow.Add(-time.Minute), "A3")

	_, err := f.svc.Confirm(context.Background(), user, confirmRequest(schedule.ID, "A1", "A2", "A3"))
	appErr := assertKind(t, err, apperrors.KindConflict)
	if appErr.Message != "Some seats are not blocked and cannot be booked" {
		t.Errorf("message = %q", appErr.Message)
	}
	for _, key := range []string{"not_blocked", "blocked_by_another", "expired"} {
		if _, ok := appErr.Details[key]; !ok {
			t.Errorf("details missing %s: %+v", key, appErr.Details)
		}
	}
}

func TestConfirmAbortsOnShortBookingUpdate(t *testing.T) {
	f := newFixture()
	f.repo.shortBook = true
	user := f.repo.store.AddUser()
	schedule := f.repo.store.AddSchedule(500, 4)
	f.block(t, schedule.ID, user, testNow.Add(time.Minute), "A1", "A2")

	_, err := f.svc.Confirm(context.Background(), user, confirmRequest(schedule.ID, "A1", "A2"))
	assertKind(t, err, apperrors.KindConflict)

	if f.repo.count() != 0 {
		t.Errorf("booking written after short update")
	}
	for _, label := range []string{"A1", "A2"} {
		if row := f.row(t, schedule.ID, label); row.Status != seats.StatusBlocked {
			t.Errorf("%s = %s, want still BLOCKED", label, row.Status)
		}
	}
}

func TestConfirmTwiceConflicts(t *testing.T) {
	f := newFixture()
	user := f.repo.store.AddUser()
	schedule := f.repo.store.AddSchedule(500, 4)
	f.block(t, schedule.ID, user, testNow.Add(time.Minute), "A1")

	if _, err := f.svc.Confirm(context.Background(), user, confirmRequest(schedule.ID, "A1")); err != nil {
		t.Fatalf("first Confirm() error = %v", err)
	}
	_, err := f.svc.Confirm(context.Background(), user, confirmRequest(schedule.ID, "A1"))
	assertKind(t, err, apperrors.KindConflict)
	if f.repo.count() != 1 {
		t.Errorf("bookings = %d, want 1", f.repo.count())
	}
}

func TestConfirmLookupFailures(t *testing.T) {
	f := newFixture()
	user := f.repo.store.AddUser()
	schedule := f.repo.store.AddSchedule(500, 4)

	_, err := f.svc.Confirm(context.Background(), user, confirmRequest(uuid.New(), "A1"))
	assertKind(t, err, apperrors.KindNotFound)

	_, err = f.svc.Confirm(context.Background(), user, confirmRequest(schedule.ID, "A1", "Z9"))
	appErr := assertKind(t, err, apperrors.KindValidation)
	if len(appErr.Labels) != 1 || appErr.Labels[0] != "Z9" {
		t.Errorf("labels = %v", appErr.Labels)
	}

	f.repo.store.DeleteRow(schedule.ID, "A2")
	_, err = f.svc.Confirm(context.Background(), user, confirmRequest(schedule.ID, "A2"))
	assertKind(t, err, apperrors.KindInternal)
}

func TestConfirmValidatesBeforeStoreAccess(t *testing.T) {
	// any repository call panics
	svc := newService(struct{ Repository }{}, nil, nil, &recordingPublisher{}, nil, time.Now)
	scheduleID := uuid.New()

	tests := []struct {
		name string
		req  ConfirmRequest
	}{
		{"bad schedule id", ConfirmRequest{ScheduleID: "nope", Passengers: confirmRequest(scheduleID, "A1").Passengers}},
		{"no passengers", ConfirmRequest{ScheduleID: scheduleID.String()}},
		{"blank name", ConfirmRequest{ScheduleID: scheduleID.String(), Passengers: []PassengerInput{{Name: " ", Age: 20, Gender: "M", SeatLabel: "A1"}}}},
		{"zero age", ConfirmRequest{ScheduleID: scheduleID.String(), Passengers: []PassengerInput{{Name: "Ravi", Age: 0, Gender: "M", SeatLabel: "A1"}}}},
		{"blank gender", ConfirmRequest{ScheduleID: scheduleID.String(), Passengers: []PassengerInput{{Name: "Ravi", Age: 20, SeatLabel: "A1"}}}},
		{"blank seat", ConfirmRequest{ScheduleID: scheduleID.String(), Passengers: []PassengerInput{{Name: "Ravi", Age: 20, Gender: "M"}}}},
		{"duplicate seat", confirmRequest(scheduleID, "A1", "a1")},
		{"too many seats", confirmRequest(scheduleID, "A1", "A2", "A3", "A4", "A5", "A6", "A7")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Confirm(context.Background(), uuid.New(), tt.req)
			assertKind(t, err, apperrors.KindValidation)
		})
	}
}

func TestGetUserBookingsBuildsResponses(t *testing.T) {
	f := newFixture()
	user := f.repo.store.AddUser()
	schedule := f.repo.store.AddSchedule(250, 4)
	f.block(t, schedule.ID, user, testNow.Add(time.Minute), "A2", "A1")

	if _, err := f.svc.Confirm(context.Background(), user, confirmRequest(schedule.ID, "A2", "A1")); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	list, err := f.svc.GetUserBookings(context.Background(), user, ListQuery{})
	if err != nil {
		t.Fatalf("GetUserBookings() error = %v", err)
	}
	if list.TotalCount != 1 || list.Page != 1 || list.Limit != 10 || list.TotalPages != 1 {
		t.Errorf("paging = %+v", list)
	}
	if len(list.Bookings) != 1 || list.Bookings[0].TotalAmount != 500 {
		t.Fatalf("bookings = %+v", list.Bookings)
	}
	if list.Bookings[0].Payment == nil || list.Bookings[0].User != nil {
		t.Errorf("booking = %+v", list.Bookings[0])
	}

	other, err := f.svc.GetUserBookings(context.Background(), uuid.New(), ListQuery{})
	if err != nil || other.TotalCount != 0 || len(other.Bookings) != 0 {
		t.Errorf("other user bookings = %+v, %v", other, err)
	}
}

func TestCalculateTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{10, 10, 1},
		{11, 10, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := CalculateTotalPages(tt.total, tt.limit); got != tt.want {
			t.Errorf("CalculateTotalPages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}
