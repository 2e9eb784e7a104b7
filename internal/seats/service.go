package seats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"easybus/internal/events"
	"easybus/internal/fleet"
	"easybus/internal/shared/apperrors"
	"easybus/internal/shared/config"
	"easybus/internal/shared/constants"
	"easybus/pkg/cache"
	"easybus/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgActiveHoldElsewhere = "You already have an active seat block on another schedule. Complete or wait for it to expire."
	msgRowsNotInitialized  = "Seat availability not initialized correctly for this schedule"
)

type Service interface {
	// Hold blocks seats for the user. Re-holding own seats refreshes the expiry.
	Hold(ctx context.Context, userID uuid.UUID, req HoldRequest) (*HoldResponse, error)

	// SeatMap reports every seat of the schedule with expired holds shown as AVAILABLE
	SeatMap(ctx context.Context, scheduleID string) (*SeatMapResponse, error)

	AvailableCounts(ctx context.Context, scheduleIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	// InvalidateSeatMap drops the cached seat map of a schedule
	InvalidateSeatMap(ctx context.Context, scheduleID uuid.UUID)
}

type service struct {
	repo      Repository
	cache     cache.Service
	publisher events.Publisher
	inventory config.InventoryConfig
	mapTTL    time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, cacheSvc cache.Service, publisher events.Publisher, cfg *config.Config) Service {
	return newService(repo, cacheSvc, publisher, cfg, time.Now)
}

func newService(repo Repository, cacheSvc cache.Service, publisher events.Publisher, cfg *config.Config, now func() time.Time) *service {
	if cacheSvc == nil {
		cacheSvc = cache.NewNoop()
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(nil)
	}

	inventory := config.DefaultInventory()
	mapTTL := constants.TTL_REALTIME_SHORT
	if cfg != nil {
		inventory = cfg.Inventory.WithDefaults()
		if cfg.Redis.SeatMapTTL > 0 {
			mapTTL = cfg.Redis.SeatMapTTL
		}
	}

	return &service{
		repo:      repo,
		cache:     cacheSvc,
		publisher: publisher,
		inventory: inventory,
		mapTTL:    mapTTL,
		log:       logger.GetDefault().WithComponent("seats"),
		now:       now,
	}
}

//  HOLD

func (s *service) Hold(ctx context.Context, userID uuid.UUID, req HoldRequest) (*HoldResponse, error) {
	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		return nil, apperrors.Validation("Invalid schedule ID")
	}
	labels, err := NormalizeLabels(req.SeatLabels, s.inventory.MaxSeatsPerHold)
	if err != nil {
		return nil, err
	}

	now := s.now()
	until := now.Add(s.inventory.HoldTTL)
	var held []HeldSeat

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.LockUser(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("User")
			}
			return apperrors.Internal("Failed to lock user", err)
		}

		schedule, err := tx.GetSchedule(ctx, scheduleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Schedule")
			}
			return apperrors.Internal("Failed to fetch schedule", err)
		}

		if _, err := tx.ReleaseExpiredForSchedule(ctx, scheduleID, now); err != nil {
			return apperrors.Internal("Failed to release expired seat blocks", err)
		}

		elsewhere, err := tx.HasActiveHoldElsewhere(ctx, userID, scheduleID, now)
		if err != nil {
			return apperrors.Internal("Failed to check active seat blocks", err)
		}
		if elsewhere {
			return apperrors.Conflict(msgActiveHoldElsewhere)
		}

		seatIDs, labelByID, err := ResolveSeats(ctx, tx, schedule.BusID, labels)
		if err != nil {
			return err
		}

		rows, err := tx.LockAvailabilities(ctx, scheduleID, seatIDs)
		if err != nil {
			return apperrors.Internal("Failed to lock seat availability", err)
		}
		if len(rows) != len(seatIDs) {
			return apperrors.Internal(msgRowsNotInitialized, nil)
		}

		var conflicts []string
		for i := range rows {
			row := &rows[i]
			if row.Status == StatusBooked || row.HeldByOther(userID, now) {
				conflicts = append(conflicts, labelByID[row.SeatID])
			}
		}
		if len(conflicts) > 0 {
			SortLabels(conflicts)
			return apperrors.Conflict("Some seats are not available: "+strings.Join(conflicts, ", "), conflicts...)
		}

		blocked, err := tx.BlockSeats(ctx, scheduleID, seatIDs, userID, until, now)
		if err != nil {
			return apperrors.Internal("Failed to block seats", err)
		}
		if blocked != int64(len(seatIDs)) {
			return apperrors.Conflict("Some seats are not available", labels...)
		}

		for _, id := range seatIDs {
			held = append(held, HeldSeat{SeatID: id, Label: labelByID[id]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(held, func(i, j int) bool { return fleet.LessLabel(held[i].Label, held[j].Label) })

	s.InvalidateSeatMap(ctx, scheduleID)
	s.log.LogSeatsHeld(ctx, scheduleID.String(), userID.String(), labels, until)
	s.publish(ctx, events.NewSeatsHeld(scheduleID, userID, labels, until))

	return &HoldResponse{ScheduleID: scheduleID, BlockedUntil: until, Seats: held}, nil
}

// NormalizeLabels trims and upper-cases labels, rejecting blanks, duplicates
// and requests over max. A non-positive max means the stock limit.
func NormalizeLabels(raw []string, max int) ([]string, error) {
	if len(raw) == 0 {
		return nil, apperrors.Validation("At least one seat label is required")
	}
	if max <= 0 {
		max = config.DefaultInventory().MaxSeatsPerHold
	}
	if len(raw) > max {
		return nil, apperrors.Validation(fmt.Sprintf("You can select at most %d seats at a time", max))
	}

	seen := make(map[string]bool, len(raw))
	labels := make([]string, 0, len(raw))
	var dupes []string
	for _, l := range raw {
		label := strings.ToUpper(strings.TrimSpace(l))
		if label == "" {
			return nil, apperrors.Validation("Seat labels must not be blank")
		}
		if seen[label] {
			dupes = append(dupes, label)
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	if len(dupes) > 0 {
		return nil, apperrors.Validation("Duplicate seat labels: "+strings.Join(dupes, ", "), dupes...)
	}
	return labels, nil
}

// ResolveSeats maps labels to seat ids of the bus. Labels the bus does not
// have are a validation error naming them.
func ResolveSeats(ctx context.Context, repo Repository, busID uuid.UUID, labels []string) ([]uuid.UUID, map[uuid.UUID]string, error) {
	seats, err := repo.FindSeatsByLabels(ctx, busID, labels)
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to resolve seats", err)
	}

	byLabel := make(map[string]uuid.UUID, len(seats))
	for _, seat := range seats {
		byLabel[seat.Label] = seat.ID
	}

	var missing []string
	ids := make([]uuid.UUID, 0, len(labels))
	labelByID := make(map[uuid.UUID]string, len(labels))
	for _, label := range labels {
		id, ok := byLabel[label]
		if !ok {
			missing = append(missing, label)
			continue
		}
		ids = append(ids, id)
		labelByID[id] = label
	}
	if len(missing) > 0 {
		return nil, nil, apperrors.Validation("Invalid seat labels for this bus: "+strings.Join(missing, ", "), missing...)
	}
	return ids, labelByID, nil
}

func SortLabels(labels []string) {
	sort.Slice(labels, func(i, j int) bool { return fleet.LessLabel(labels[i], labels[j]) })
}

//  AVAILABILITY

type seatMapSnapshot struct {
	Schedule fleet.Schedule     `json:"schedule"`
	Rows     []SeatAvailability `json:"rows"`
}

func (s *service) SeatMap(ctx context.Context, scheduleID string) (*SeatMapResponse, error) {
	id, err := uuid.Parse(scheduleID)
	if err != nil {
		return nil, apperrors.Validation("Invalid schedule ID")
	}

	store := s.cache
	key, err := seatMapKey(ctx, s.cache, id)
	if err != nil {
		s.log.WarnContext(ctx, "seat map cache unavailable, reading store",
			slog.String("schedule_id", id.String()),
			slog.Any("error", err),
		)
		store = cache.NewNoop()
	}

	// cached rows are raw; the expiry correction runs on every read
	var snap seatMapSnapshot
	err = store.GetOrSet(ctx, key, s.mapTTL, func() (interface{}, error) {
		schedule, err := s.repo.GetSchedule(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("Schedule")
			}
			return nil, err
		}
		rows, err := s.repo.ListAvailabilities(ctx, id)
		if err != nil {
			return nil, err
		}
		return seatMapSnapshot{Schedule: *schedule, Rows: rows}, nil
	}, &snap)
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to fetch seat map", err)
	}

	return buildSeatMap(snap, s.now()), nil
}

func buildSeatMap(snap seatMapSnapshot, now time.Time) *SeatMapResponse {
	resp := &SeatMapResponse{
		Schedule:   HeaderFor(&snap.Schedule),
		TotalSeats: len(snap.Rows),
		Seats:      make([]SeatView, 0, len(snap.Rows)),
	}

	for i := range snap.Rows {
		row := &snap.Rows[i]
		view := SeatView{
			SeatID: row.SeatID,
			Label:  row.Label(),
			Status: row.EffectiveStatus(now),
		}
		if view.Status == row.Status {
			view.BlockedByID = row.BlockedByID
			view.BlockedUntil = row.BlockedUntil
			view.BookingID = row.BookingID
		}
		if view.Status == StatusAvailable {
			resp.AvailableCount++
		}
		resp.Seats = append(resp.Seats, view)
	}

	sort.Slice(resp.Seats, func(i, j int) bool {
		return fleet.LessLabel(resp.Seats[i].Label, resp.Seats[j].Label)
	})
	return resp
}

// HeaderFor summarises a schedule with its bus and cities
func HeaderFor(schedule *fleet.Schedule) ScheduleHeader {
	header := ScheduleHeader{
		ScheduleID:    schedule.ID,
		BusID:         schedule.BusID,
		TravelDate:    schedule.TravelDate.Format("2006-01-02"),
		DepartureTime: schedule.DepartureTime,
		ArrivalTime:   schedule.ArrivalTime,
		Price:         schedule.Price,
	}
	if schedule.Bus != nil {
		header.BusName = schedule.Bus.Name
		header.BusNumber = schedule.Bus.Number
		header.BusType = schedule.Bus.Type
	}
	if schedule.Route != nil {
		if schedule.Route.SourceCity != nil {
			header.SourceCity = schedule.Route.SourceCity.Name
		}
		if schedule.Route.DestinationCity != nil {
			header.DestinationCity = schedule.Route.DestinationCity.Name
		}
	}
	return header
}

func (s *service) AvailableCounts(ctx context.Context, scheduleIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts, err := s.repo.CountAvailable(ctx, scheduleIDs, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to count available seats: %w", err)
	}
	for _, id := range scheduleIDs {
		if _, ok := counts[id]; !ok {
			counts[id] = 0
		}
	}
	return counts, nil
}

// seatMapKey must be built before the rows are read
func seatMapKey(ctx context.Context, c cache.Service, scheduleID uuid.UUID) (string, error) {
	id := scheduleID.String()
	return cache.VersionedKey(ctx, c, constants.BuildSeatMapKey(id),
		constants.CACHE_KEY_SEAT_MAP_EPOCH, constants.BuildSeatMapGenKey(id))
}

// BumpSeatMap retires every seat map of the schedule cached so far
func BumpSeatMap(ctx context.Context, c cache.Service, scheduleID uuid.UUID) error {
	_, err := c.Incr(ctx, constants.BuildSeatMapGenKey(scheduleID.String()))
	return err
}

func (s *service) InvalidateSeatMap(ctx context.Context, scheduleID uuid.UUID) {
	if err := BumpSeatMap(ctx, s.cache, scheduleID); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate seat map cache",
			slog.String("schedule_id", scheduleID.String()),
			slog.Any("error", err),
		)
	}
}

func (s *service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WarnContext(ctx, "failed to publish inventory event",
			slog.String("event_type", string(event.Type)),
			slog.Any("error", err),
		)
	}
}
