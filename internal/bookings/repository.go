package bookings

import (
	"context"
	"math"

	"easybus/internal/seats"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	// Inventory returns the seat store bound to the same connection or transaction
	Inventory() seats.Repository

	CreateBooking(ctx context.Context, booking *Booking) error
	GetUserBookings(ctx context.Context, userID uuid.UUID, query ListQuery) ([]Booking, int64, error)
	GetAllBookings(ctx context.Context, query ListQuery) ([]Booking, int64, error)
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
	return seats.TranslateLockConflict(err)
}

func (r *repository) Inventory() seats.Repository {
	return seats.NewRepository(r.db)
}

// CreateBooking inserts the booking with its Passengers and Payment
func (r *repository) CreateBooking(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Omit("User", "Schedule", "Seats").Create(booking).Error
}

func (r *repository) GetUserBookings(ctx context.Context, userID uuid.UUID, query ListQuery) ([]Booking, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID)
	}
	return r.list(base, query, false)
}

func (r *repository) GetAllBookings(ctx context.Context, query ListQuery) ([]Booking, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&Booking{})
	}
	return r.list(base, query, true)
}

func (r *repository) list(base func() *gorm.DB, query ListQuery, withUser bool) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	page, limit := query.normalize()

	if err := base().Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	q := base().
		Preload("Schedule.Bus").
		Preload("Schedule.Route.SourceCity").
		Preload("Schedule.Route.DestinationCity").
		Preload("Passengers").
		Preload("Payment").
		Preload("Seats.Seat")
	if withUser {
		q = q.Preload("User")
	}

	err := q.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

// CalculateTotalPages returns the page count for a total and page size
func CalculateTotalPages(totalCount int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalCount) / float64(limit)))
}
