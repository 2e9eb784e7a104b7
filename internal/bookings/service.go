package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"easybus/internal/events"
	"easybus/internal/seats"
	"easybus/internal/shared/apperrors"
	"easybus/internal/shared/config"
	"easybus/pkg/cache"
	"easybus/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	// Confirm turns the user's live holds into a booking with passengers and a payment
	Confirm(ctx context.Context, userID uuid.UUID, req ConfirmRequest) (*ConfirmResponse, error)

	GetUserBookings(ctx context.Context, userID uuid.UUID, query ListQuery) (*BookingListResponse, error)
	GetAllBookings(ctx context.Context, query ListQuery) (*BookingListResponse, error)
}

type service struct {
	repo      Repository
	payments  PaymentProvider
	cache     cache.Service
	publisher events.Publisher
	maxSeats  int
	log       *logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, payments PaymentProvider, cacheSvc cache.Service, publisher events.Publisher, cfg *config.Config) Service {
	return newService(repo, payments, cacheSvc, publisher, cfg, time.Now)
}

func newService(repo Repository, payments PaymentProvider, cacheSvc cache.Service, publisher events.Publisher, cfg *config.Config, now func() time.Time) *service {
	if payments == nil {
		payments = NewDummyProvider()
	}
	if cacheSvc == nil {
		cacheSvc = cache.NewNoop()
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(nil)
	}
	inventory := config.DefaultInventory()
	if cfg != nil {
		inventory = cfg.Inventory.WithDefaults()
	}

	return &service{
		repo:      repo,
		payments:  payments,
		cache:     cacheSvc,
		publisher: publisher,
		maxSeats:  inventory.MaxSeatsPerBooking,
		log:       logger.GetDefault().WithComponent("bookings"),
		now:       now,
	}
}

// hold checks in the order they are reported
var holdRules = []struct {
	key     string
	message string
}{
	{"not_blocked", "Some seats are not blocked and cannot be booked"},
	{"blocked_by_another", "Some seats are blocked by another user and cannot be booked"},
	{"expired", "Some seats have expired blocks. Please block seats again."},
}

//  CONFIRM

func (s *service) Confirm(ctx context.Context, userID uuid.UUID, req ConfirmRequest) (*ConfirmResponse, error) {
	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		return nil, apperrors.Validation("Invalid schedule ID")
	}
	passengers, labels, err := s.validatePassengers(req.Passengers)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var booking *Booking

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		inv := tx.Inventory()

		schedule, err := inv.GetSchedule(ctx, scheduleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Schedule")
			}
			return apperrors.Internal("Failed to fetch schedule", err)
		}

		seatIDs, labelByID, err := seats.ResolveSeats(ctx, inv, schedule.BusID, labels)
		if err != nil {
			return err
		}

		rows, err := inv.LockAvailabilities(ctx, scheduleID, seatIDs)
		if err != nil {
			return apperrors.Internal("Failed to lock seat availability", err)
		}
		if len(rows) != len(seatIDs) {
			return apperrors.Internal("Seat availability not initialized correctly for this schedule", nil)
		}

		if err := checkHolds(rows, userID, now, labelByID); err != nil {
			return err
		}

		bookingID := uuid.New()
		total := schedule.Price * float64(len(passengers))

		payment, err := s.payments.Charge(ctx, bookingID, total)
		if err != nil {
			return apperrors.Internal("Payment failed", err)
		}
		if payment.Status != PaymentSuccess {
			return apperrors.Conflict("Payment was not successful")
		}

		for i := range passengers {
			passengers[i].BookingID = bookingID
		}
		booking = &Booking{
			ID:          bookingID,
			UserID:      userID,
			ScheduleID:  scheduleID,
			TotalAmount: total,
			Status:      StatusConfirmed,
			Passengers:  passengers,
			Payment:     payment,
		}
		if err := tx.CreateBooking(ctx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}

		booked, err := inv.BookSeats(ctx, scheduleID, seatIDs, userID, bookingID, now)
		if err != nil {
			return apperrors.Internal("Failed to book seats", err)
		}
		if booked != int64(len(seatIDs)) {
			return apperrors.Conflict("Some seats could not be booked. Please block seats again.", labels...)
		}

		if _, err := inv.ReleaseUserHolds(ctx, scheduleID, userID, seatIDs, now); err != nil {
			return apperrors.Internal("Failed to release remaining seat blocks", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := seats.BumpSeatMap(ctx, s.cache, scheduleID); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate seat map cache", slog.Any("error", err))
	}
	s.log.LogBookingCreated(ctx, booking.ID.String(), scheduleID.String(), userID.String(), booking.TotalAmount)
	if err := s.publisher.Publish(ctx, events.NewBookingConfirmed(booking.ID, scheduleID, userID, labels, booking.TotalAmount)); err != nil {
		s.log.WarnContext(ctx, "failed to publish booking event", slog.Any("error", err))
	}

	return &ConfirmResponse{
		Booking:    bookingInfo(booking, labels),
		Payment:    paymentInfo(booking.Payment),
		Passengers: booking.Passengers,
	}, nil
}

func (s *service) validatePassengers(inputs []PassengerInput) ([]Passenger, []string, error) {
	if len(inputs) == 0 {
		return nil, nil, apperrors.Validation("At least one passenger is required")
	}
	if len(inputs) > s.maxSeats {
		return nil, nil, apperrors.Validation(fmt.Sprintf("You can book at most %d seats at a time", s.maxSeats))
	}

	passengers := make([]Passenger, 0, len(inputs))
	raw := make([]string, 0, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		gender := strings.TrimSpace(in.Gender)
		switch {
		case name == "":
			return nil, nil, apperrors.Validation(fmt.Sprintf("Passenger %d: name is required", i+1))
		case in.Age <= 0:
			return nil, nil, apperrors.Validation(fmt.Sprintf("Passenger %d: age must be greater than 0", i+1))
		case gender == "":
			return nil, nil, apperrors.Validation(fmt.Sprintf("Passenger %d: gender is required", i+1))
		case strings.TrimSpace(in.SeatLabel) == "":
			return nil, nil, apperrors.Validation(fmt.Sprintf("Passenger %d: seat label is required", i+1))
		}
		raw = append(raw, in.SeatLabel)
		passengers = append(passengers, Passenger{Name: name, Age: in.Age, Gender: gender})
	}

	labels, err := seats.NormalizeLabels(raw, s.maxSeats)
	if err != nil {
		return nil, nil, err
	}
	for i := range passengers {
		passengers[i].SeatLabel = labels[i]
	}
	return passengers, labels, nil
}

// checkHolds requires every row to be BLOCKED by userID and unexpired at now
func checkHolds(rows []seats.SeatAvailability, userID uuid.UUID, now time.Time, labelByID map[uuid.UUID]string) error {
	failed := map[string][]string{}
	for i := range rows {
		row := &rows[i]
		label := labelByID[row.SeatID]
		switch {
		case row.Status != seats.StatusBlocked:
			failed["not_blocked"] = append(failed["not_blocked"], label)
		case row.BlockedByID == nil || *row.BlockedByID != userID:
			failed["blocked_by_another"] = append(failed["blocked_by_another"], label)
		case row.BlockedUntil == nil || !row.BlockedUntil.After(now):
			failed["expired"] = append(failed["expired"], label)
		}
	}
	if len(failed) == 0 {
		return nil
	}

	details := map[string]any{"kind": string(apperrors.KindConflict)}
	var first *apperrors.Error
	for _, rule := range holdRules {
		labels, ok := failed[rule.key]
		if !ok {
			continue
		}
		seats.SortLabels(labels)
		details[rule.key] = labels
		if first == nil {
			first = apperrors.Conflict(rule.message, labels...)
			details["seats"] = labels
		}
	}
	return first.WithDetails(details)
}

//  LISTS

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID, query ListQuery) (*BookingListResponse, error) {
	bookings, total, err := s.repo.GetUserBookings(ctx, userID, query)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch bookings", err)
	}
	return listResponse(bookings, total, query, false), nil
}

func (s *service) GetAllBookings(ctx context.Context, query ListQuery) (*BookingListResponse, error) {
	bookings, total, err := s.repo.GetAllBookings(ctx, query)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch bookings", err)
	}
	return listResponse(bookings, total, query, true), nil
}

func listResponse(bookings []Booking, total int64, query ListQuery, withUser bool) *BookingListResponse {
	page, limit := query.normalize()
	resp := &BookingListResponse{
		Bookings:   make([]BookingResponse, 0, len(bookings)),
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: CalculateTotalPages(total, limit),
	}

	for i := range bookings {
		b := &bookings[i]

		labels := make([]string, 0, len(b.Seats))
		for j := range b.Seats {
			labels = append(labels, b.Seats[j].Label())
		}
		seats.SortLabels(labels)

		item := BookingResponse{
			BookingInfo: bookingInfo(b, labels),
			Passengers:  b.Passengers,
		}
		if b.Schedule != nil {
			header := seats.HeaderFor(b.Schedule)
			item.Schedule = &header
		}
		if b.Payment != nil {
			info := paymentInfo(b.Payment)
			item.Payment = &info
		}
		if withUser && b.User != nil {
			summary := b.User.Summary()
			item.User = &summary
		}
		resp.Bookings = append(resp.Bookings, item)
	}
	return resp
}

func bookingInfo(b *Booking, labels []string) BookingInfo {
	return BookingInfo{
		ID:          b.ID,
		UserID:      b.UserID,
		ScheduleID:  b.ScheduleID,
		TotalAmount: b.TotalAmount,
		Status:      b.Status,
		SeatLabels:  labels,
		CreatedAt:   b.CreatedAt,
	}
}

func paymentInfo(p *Payment) PaymentInfo {
	if p == nil {
		return PaymentInfo{}
	}
	return PaymentInfo{
		ID:          p.ID,
		Amount:      p.Amount,
		Provider:    p.Provider,
		ReferenceID: p.ReferenceID,
		Status:      p.Status,
	}
}
