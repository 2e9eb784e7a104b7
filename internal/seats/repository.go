package seats

import (
	"context"
	"errors"
	"time"

	"easybus/internal/fleet"
	"easybus/internal/shared/apperrors"
	"easybus/internal/users"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the seat inventory store. Methods that lock rows must run
// inside Transaction.
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	// Lookups
	GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*fleet.Schedule, error)
	FindSeatsByLabels(ctx context.Context, busID uuid.UUID, labels []string) ([]fleet.Seat, error)
	ListAvailabilities(ctx context.Context, scheduleID uuid.UUID) ([]SeatAvailability, error)
	CountAvailable(ctx context.Context, scheduleIDs []uuid.UUID, now time.Time) (map[uuid.UUID]int64, error)

	// Row locks
	LockUser(ctx context.Context, userID uuid.UUID) error
	LockAvailabilities(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID) ([]SeatAvailability, error)

	// Conditional transitions, each returning the rows it changed
	HasActiveHoldElsewhere(ctx context.Context, userID, scheduleID uuid.UUID, now time.Time) (bool, error)
	BlockSeats(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID, userID uuid.UUID, until, now time.Time) (int64, error)
	BookSeats(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID, userID, bookingID uuid.UUID, now time.Time) (int64, error)
	ReleaseUserHolds(ctx context.Context, scheduleID, userID uuid.UUID, keepSeatIDs []uuid.UUID, now time.Time) (int64, error)
	ReleaseExpiredForSchedule(ctx context.Context, scheduleID uuid.UUID, now time.Time) (int64, error)
	ReleaseExpired(ctx context.Context, now time.Time) (int64, error)
	ReleaseInvalid(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
	return TranslateLockConflict(err)
}

// Postgres aborts one side of a lock cycle or a serialization clash
const (
	sqlStateDeadlock      = "40P01"
	sqlStateSerialization = "40001"
)

// TranslateLockConflict reports a transaction Postgres aborted to break a
// lock cycle as a Conflict. Other errors pass through unchanged.
func TranslateLockConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == sqlStateDeadlock || pgErr.Code == sqlStateSerialization) {
		return &apperrors.Error{
			Kind:    apperrors.KindConflict,
			Message: "Seats changed while your request was in progress. Please try again.",
			Err:     err,
		}
	}
	return err
}

// released clears a hold back to AVAILABLE
func released(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"status":        StatusAvailable,
		"blocked_by_id": nil,
		"blocked_until": nil,
		"updated_at":    now,
	}
}

func (r *repository) GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*fleet.Schedule, error) {
	var schedule fleet.Schedule
	err := r.db.WithContext(ctx).
		Preload("Bus").
		Preload("Route.SourceCity").
		Preload("Route.DestinationCity").
		First(&schedule, "id = ?", scheduleID).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *repository) FindSeatsByLabels(ctx context.Context, busID uuid.UUID, labels []string) ([]fleet.Seat, error) {
	var seats []fleet.Seat
	err := r.db.WithContext(ctx).
		Where("bus_id = ? AND label IN ?", busID, labels).
		Find(&seats).Error
	return seats, err
}

func (r *repository) ListAvailabilities(ctx context.Context, scheduleID uuid.UUID) ([]SeatAvailability, error) {
	var rows []SeatAvailability
	err := r.db.WithContext(ctx).
		Preload("Seat").
		Where("schedule_id = ?", scheduleID).
		Find(&rows).Error
	return rows, err
}

// CountAvailable counts AVAILABLE rows plus holds that are over at now
func (r *repository) CountAvailable(ctx context.Context, scheduleIDs []uuid.UUID, now time.Time) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(scheduleIDs))
	if len(scheduleIDs) == 0 {
		return counts, nil
	}

	var results []struct {
		ScheduleID uuid.UUID
		Available  int64
	}
	err := r.db.WithContext(ctx).
		Model(&SeatAvailability{}).
		Select("schedule_id, COUNT(*) AS available").
		Where("schedule_id IN ?", scheduleIDs).
		Where("(status = ? OR (status = ? AND blocked_until <= ?))", StatusAvailable, StatusBlocked, now).
		Group("schedule_id").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		counts[res.ScheduleID] = res.Available
	}
	return counts, nil
}

// LockUser takes a row lock on the user so one user's holds run one at a time
func (r *repository) LockUser(ctx context.Context, userID uuid.UUID) error {
	var user users.User
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&user, "id = ?", userID).Error
}

// LockAvailabilities reads the rows FOR UPDATE in seat_id order
func (r *repository) LockAvailabilities(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID) ([]SeatAvailability, error) {
	var rows []SeatAvailability
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("schedule_id = ? AND seat_id IN ?", scheduleID, seatIDs).
		Order("seat_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) HasActiveHoldElsewhere(ctx context.Context, userID, scheduleID uuid.UUID, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&SeatAvailability{}).
		Where("blocked_by_id = ? AND status = ? AND blocked_until > ? AND schedule_id <> ?", userID, StatusBlocked, now, scheduleID).
		Count(&count).Error
	return count > 0, err
}

// BlockSeats holds the seats for userID until the given time. Only rows that
// are free, already held by userID, or held past expiry are changed.
func (r *repository) BlockSeats(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID, userID uuid.UUID, until, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&SeatAvailability{}).
		Where("schedule_id = ? AND seat_id IN ?", scheduleID, seatIDs).
		Where("(status = ? OR (status = ? AND (blocked_by_id = ? OR blocked_until <= ?)))", StatusAvailable, StatusBlocked, userID, now).
		Updates(map[string]interface{}{
			"status":        StatusBlocked,
			"blocked_by_id": userID,
			"blocked_until": until,
			"booking_id":    nil,
			"updated_at":    now,
		})
	return result.RowsAffected, result.Error
}

// BookSeats converts the user's live holds to BOOKED
func (r *repository) BookSeats(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID, userID, bookingID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&SeatAvailability{}).
		Where("schedule_id = ? AND seat_id IN ?", scheduleID, seatIDs).
		Where("status = ? AND blocked_by_id = ? AND blocked_until > ?", StatusBlocked, userID, now).
		Updates(map[string]interface{}{
			"status":        StatusBooked,
			"booking_id":    bookingID,
			"blocked_by_id": nil,
			"blocked_until": nil,
			"updated_at":    now,
		})
	return result.RowsAffected, result.Error
}

// ReleaseUserHolds frees the user's holds on the schedule except keepSeatIDs
func (r *repository) ReleaseUserHolds(ctx context.Context, scheduleID, userID uuid.UUID, keepSeatIDs []uuid.UUID, now time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&SeatAvailability{}).
		Where("schedule_id = ? AND status = ? AND blocked_by_id = ?", scheduleID, StatusBlocked, userID)
	if len(keepSeatIDs) > 0 {
		query = query.Where("seat_id NOT IN ?", keepSeatIDs)
	}
	result := query.Updates(released(now))
	return result.RowsAffected, result.Error
}

func (r *repository) ReleaseExpiredForSchedule(ctx context.Context, scheduleID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&SeatAvailability{}).
		Where("schedule_id = ? AND status = ? AND blocked_until <= ?", scheduleID, StatusBlocked, now).
		Updates(released(now))
	return result.RowsAffected, result.Error
}

func (r *repository) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&SeatAvailability{}).
		Where("status = ? AND blocked_until <= ?", StatusBlocked, now).
		Updates(released(now))
	return result.RowsAffected, result.Error
}

// ReleaseInvalid frees BLOCKED rows that lost their owner or expiry
func (r *repository) ReleaseInvalid(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&SeatAvailability{}).
		Where("status = ? AND (blocked_by_id IS NULL OR blocked_until IS NULL)", StatusBlocked).
		Updates(released(now))
	return result.RowsAffected, result.Error
}
