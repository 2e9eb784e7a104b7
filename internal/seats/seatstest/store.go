// Package seatstest provides an in-memory seats.Repository for tests.
package seatstest

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"easybus/internal/fleet"
	"easybus/internal/seats"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type rowKey struct {
	scheduleID uuid.UUID
	seatID     uuid.UUID
}

type state struct {
	users     map[uuid.UUID]bool
	schedules map[uuid.UUID]fleet.Schedule
	seats     map[uuid.UUID]fleet.Seat
	rows      map[rowKey]seats.SeatAvailability
}

func (st *state) clone() *state {
	out := &state{
		users:     make(map[uuid.UUID]bool, len(st.users)),
		schedules: make(map[uuid.UUID]fleet.Schedule, len(st.schedules)),
		seats:     make(map[uuid.UUID]fleet.Seat, len(st.seats)),
		rows:      make(map[rowKey]seats.SeatAvailability, len(st.rows)),
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.schedules {
		out.schedules[k] = v
	}
	for k, v := range st.seats {
		out.seats[k] = v
	}
	for k, v := range st.rows {
		out.rows[k] = v
	}
	return out
}

// Store serialises transactions with one mutex and applies a transaction's
// writes only when it returns nil.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: &state{
		users:     map[uuid.UUID]bool{},
		schedules: map[uuid.UUID]fleet.Schedule{},
		seats:     map[uuid.UUID]fleet.Seat{},
		rows:      map[rowKey]seats.SeatAvailability{},
	}}
}

// AddUser registers a user id that LockUser accepts
func (s *Store) AddUser() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.state.users[id] = true
	return id
}

// AddSchedule creates a bus with seats A1..An and one AVAILABLE row per seat
func (s *Store) AddSchedule(price float64, seatCount int) fleet.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	bus := fleet.Bus{ID: uuid.New(), Name: "Test Bus", Number: uuid.NewString()[:8], Type: "AC", TotalSeats: seatCount}
	departure := time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC)
	schedule := fleet.Schedule{
		ID:            uuid.New(),
		BusID:         bus.ID,
		RouteID:       uuid.New(),
		TravelDate:    time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		DepartureTime: departure,
		ArrivalTime:   departure.Add(4 * time.Hour),
		Price:         price,
		Bus:           &bus,
	}
	s.state.schedules[schedule.ID] = schedule

	for _, label := range fleet.GenerateSeatLabels(seatCount) {
		seat := fleet.Seat{ID: uuid.New(), BusID: bus.ID, Label: label}
		s.state.seats[seat.ID] = seat
		s.state.rows[rowKey{schedule.ID, seat.ID}] = seats.SeatAvailability{
			ID:         uuid.New(),
			ScheduleID: schedule.ID,
			SeatID:     seat.ID,
			Status:     seats.StatusAvailable,
		}
	}
	return schedule
}

// Row returns the row of a seat label on a schedule
func (s *Store) Row(scheduleID uuid.UUID, label string) (seats.SeatAvailability, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.state.keyFor(scheduleID, label)
	if !ok {
		return seats.SeatAvailability{}, false
	}
	return s.state.rows[key], true
}

// UpdateRow edits a row in place, bypassing the repository predicates
func (s *Store) UpdateRow(scheduleID uuid.UUID, label string, fn func(*seats.SeatAvailability)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.state.keyFor(scheduleID, label)
	if !ok {
		return false
	}
	row := s.state.rows[key]
	fn(&row)
	s.state.rows[key] = row
	return true
}

// DeleteRow removes a row, leaving the schedule with a missing seat
func (s *Store) DeleteRow(scheduleID uuid.UUID, label string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.state.keyFor(scheduleID, label)
	if ok {
		delete(s.state.rows, key)
	}
	return ok
}

// RowCount returns the number of rows for a schedule
func (s *Store) RowCount(scheduleID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.state.rows {
		if k.scheduleID == scheduleID {
			n++
		}
	}
	return n
}

func (st *state) keyFor(scheduleID uuid.UUID, label string) (rowKey, bool) {
	schedule, ok := st.schedules[scheduleID]
	if !ok {
		return rowKey{}, false
	}
	for _, seat := range st.seats {
		if seat.BusID == schedule.BusID && seat.Label == label {
			return rowKey{scheduleID, seat.ID}, true
		}
	}
	return rowKey{}, false
}

func (s *Store) Transaction(ctx context.Context, fn func(seats.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.clone()
	if err := fn(&txView{st: draft}); err != nil {
		return err
	}
	s.state = draft
	return nil
}

func (s *Store) do(fn func(v *txView)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&txView{st: s.state})
}

func (s *Store) GetSchedule(ctx context.Context, id uuid.UUID) (sc *fleet.Schedule, err error) {
	s.do(func(v *txView) { sc, err = v.GetSchedule(ctx, id) })
	return
}

func (s *Store) FindSeatsByLabels(ctx context.Context, busID uuid.UUID, labels []string) (out []fleet.Seat, err error) {
	s.do(func(v *txView) { out, err = v.FindSeatsByLabels(ctx, busID, labels) })
	return
}

func (s *Store) ListAvailabilities(ctx context.Context, scheduleID uuid.UUID) (out []seats.SeatAvailability, err error) {
	s.do(func(v *txView) { out, err = v.ListAvailabilities(ctx, scheduleID) })
	return
}

func (s *Store) CountAvailable(ctx context.Context, ids []uuid.UUID, now time.Time) (out map[uuid.UUID]int64, err error) {
	s.do(func(v *txView) { out, err = v.CountAvailable(ctx, ids, now) })
	return
}

func (s *Store) LockUser(ctx context.Context, userID uuid.UUID) (err error) {
	s.do(func(v *txView) { err = v.LockUser(ctx, userID) })
	return
}

func (s *Store) LockAvailabilities(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID) (out []seats.SeatAvailability, err error) {
	s.do(func(v *txView) { out, err = v.LockAvailabilities(ctx, scheduleID, seatIDs) })
	return
}

func (s *Store) HasActiveHoldElsewhere(ctx context.Context, userID, scheduleID uuid.UUID, now time.Time) (ok bool, err error) {
	s.do(func(v *txView) { ok, err = v.HasActiveHoldElsewhere(ctx, userID, scheduleID, now) })
	return
}

func (s *Store) BlockSeats(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID, userID uuid.UUID, until, now time.Time) (n int64, err error) {
	s.do(func(v *txView) { n, err = v.BlockSeats(ctx, scheduleID, seatIDs, userID, until, now) })
	return
}

func (s *Store) BookSeats(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID, userID, bookingID uuid.UUID, now time.Time) (n int64, err error) {
	s.do(func(v *txView) { n, err = v.BookSeats(ctx, scheduleID, seatIDs, userID, bookingID, now) })
	return
}

func (s *Store) ReleaseUserHolds(ctx context.Context, scheduleID, userID uuid.UUID, keep []uuid.UUID, now time.Time) (n int64, err error) {
	s.do(func(v *txView) { n, err = v.ReleaseUserHolds(ctx, scheduleID, userID, keep, now) })
	return
}

func (s *Store) ReleaseExpiredForSchedule(ctx context.Context, scheduleID uuid.UUID, now time.Time) (n int64, err error) {
	s.do(func(v *txView) { n, err = v.ReleaseExpiredForSchedule(ctx, scheduleID, now) })
	return
}

func (s *Store) ReleaseExpired(ctx context.Context, now time.Time) (n int64, err error) {
	s.do(func(v *txView) { n, err = v.ReleaseExpired(ctx, now) })
	return
}

func (s *Store) ReleaseInvalid(ctx context.Context, now time.Time) (n int64, err error) {
	s.do(func(v *txView) { n, err = v.ReleaseInvalid(ctx, now) })
	return
}

// txView runs repository operations on one state without locking
type txView struct {
	st *state
}

func (v *txView) Transaction(ctx context.Context, fn func(seats.Repository) error) error {
	return fn(v)
}

func (v *txView) GetSchedule(ctx context.Context, id uuid.UUID) (*fleet.Schedule, error) {
	sc, ok := v.st.schedules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &sc, nil
}

func (v *txView) FindSeatsByLabels(ctx context.Context, busID uuid.UUID, labels []string) ([]fleet.Seat, error) {
	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		want[l] = true
	}
	var out []fleet.Seat
	for _, seat := range v.st.seats {
		if seat.BusID == busID && want[seat.Label] {
			out = append(out, seat)
		}
	}
	return out, nil
}

func (v *txView) ListAvailabilities(ctx context.Context, scheduleID uuid.UUID) ([]seats.SeatAvailability, error) {
	var out []seats.SeatAvailability
	for k, row := range v.st.rows {
		if k.scheduleID != scheduleID {
			continue
		}
		seat := v.st.seats[k.seatID]
		row.Seat = &seat
		out = append(out, row)
	}
	return out, nil
}

func (v *txView) CountAvailable(ctx context.Context, ids []uuid.UUID, now time.Time) (map[uuid.UUID]int64, error) {
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	counts := map[uuid.UUID]int64{}
	for k, row := range v.st.rows {
		if wanted[k.scheduleID] && row.EffectiveStatus(now) == seats.StatusAvailable {
			counts[k.scheduleID]++
		}
	}
	return counts, nil
}

func (v *txView) LockUser(ctx context.Context, userID uuid.UUID) error {
	if !v.st.users[userID] {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (v *txView) LockAvailabilities(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID) ([]seats.SeatAvailability, error) {
	var out []seats.SeatAvailability
	for _, id := range seatIDs {
		if row, ok := v.st.rows[rowKey{scheduleID, id}]; ok {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].SeatID[:], out[j].SeatID[:]) < 0 })
	return out, nil
}

func (v *txView) HasActiveHoldElsewhere(ctx context.Context, userID, scheduleID uuid.UUID, now time.Time) (bool, error) {
	for k, row := range v.st.rows {
		if k.scheduleID == scheduleID || row.Status != seats.StatusBlocked {
			continue
		}
		if row.BlockedByID != nil && *row.BlockedByID == userID && row.BlockedUntil != nil && row.BlockedUntil.After(now) {
			return true, nil
		}
	}
	return false, nil
}

// update applies fn to the rows of the schedule (or every schedule when
// scheduleID is uuid.Nil) that match.
func (v *txView) update(scheduleID uuid.UUID, match func(seats.SeatAvailability) bool, fn func(*seats.SeatAvailability)) int64 {
	var n int64
	for k, row := range v.st.rows {
		if scheduleID != uuid.Nil && k.scheduleID != scheduleID {
			continue
		}
		if !match(row) {
			continue
		}
		fn(&row)
		v.st.rows[k] = row
		n++
	}
	return n
}

func inSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func release(now time.Time) func(*seats.SeatAvailability) {
	return func(row *seats.SeatAvailability) {
		row.Status = seats.StatusAvailable
		row.BlockedByID = nil
		row.BlockedUntil = nil
		row.UpdatedAt = now
	}
}

func (v *txView) BlockSeats(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID, userID uuid.UUID, until, now time.Time) (int64, error) {
	targets := inSet(seatIDs)
	return v.update(scheduleID, func(row seats.SeatAvailability) bool {
		if !targets[row.SeatID] {
			return false
		}
		if row.Status == seats.StatusAvailable {
			return true
		}
		if row.Status != seats.StatusBlocked {
			return false
		}
		ownHold := row.BlockedByID != nil && *row.BlockedByID == userID
		expired := row.BlockedUntil != nil && !row.BlockedUntil.After(now)
		return ownHold || expired
	}, func(row *seats.SeatAvailability) {
		owner, expiry := userID, until
		row.Status = seats.StatusBlocked
		row.BlockedByID = &owner
		row.BlockedUntil = &expiry
		row.BookingID = nil
	}), nil
}

func (v *txView) BookSeats(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID, userID, bookingID uuid.UUID, now time.Time) (int64, error) {
	targets := inSet(seatIDs)
	return v.update(scheduleID, func(row seats.SeatAvailability) bool {
		return targets[row.SeatID] &&
			row.Status == seats.StatusBlocked &&
			row.BlockedByID != nil && *row.BlockedByID == userID &&
			row.BlockedUntil != nil && row.BlockedUntil.After(now)
	}, func(row *seats.SeatAvailability) {
		booking := bookingID
		row.Status = seats.StatusBooked
		row.BookingID = &booking
		row.BlockedByID = nil
		row.BlockedUntil = nil
	}), nil
}

func (v *txView) ReleaseUserHolds(ctx context.Context, scheduleID, userID uuid.UUID, keep []uuid.UUID, now time.Time) (int64, error) {
	kept := inSet(keep)
	return v.update(scheduleID, func(row seats.SeatAvailability) bool {
		return !kept[row.SeatID] &&
			row.Status == seats.StatusBlocked &&
			row.BlockedByID != nil && *row.BlockedByID == userID
	}, release(now)), nil
}

func (v *txView) ReleaseExpiredForSchedule(ctx context.Context, scheduleID uuid.UUID, now time.Time) (int64, error) {
	return v.update(scheduleID, func(row seats.SeatAvailability) bool {
		return row.HoldExpired(now)
	}, release(now)), nil
}

func (v *txView) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	return v.update(uuid.Nil, func(row seats.SeatAvailability) bool {
		return row.HoldExpired(now)
	}, release(now)), nil
}

func (v *txView) ReleaseInvalid(ctx context.Context, now time.Time) (int64, error) {
	return v.update(uuid.Nil, func(row seats.SeatAvailability) bool {
		return row.Status == seats.StatusBlocked && (row.BlockedByID == nil || row.BlockedUntil == nil)
	}, release(now)), nil
}

var (
	_ seats.Repository = (*Store)(nil)
	_ seats.Repository = (*txView)(nil)
)
