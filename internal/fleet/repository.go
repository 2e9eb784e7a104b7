package fleet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository interface for fleet operations
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	// Cities
	CreateCity(ctx context.Context, city *City) error
	GetCityByID(ctx context.Context, id uuid.UUID) (*City, error)
	ListCities(ctx context.Context) ([]City, error)

	// Buses and seats
	CreateBus(ctx context.Context, bus *Bus) error
	GetBusWithSeats(ctx context.Context, id uuid.UUID) (*Bus, error)

	// Routes
	CreateRoute(ctx context.Context, route *Route) error
	GetRouteByID(ctx context.Context, id uuid.UUID) (*Route, error)
	FindRoute(ctx context.Context, sourceID, destinationID uuid.UUID) (*Route, error)

	// Schedules
	CreateSchedule(ctx context.Context, schedule *Schedule) error
	CreateAvailabilityRows(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID) error
	ListSchedules(ctx context.Context, routeID uuid.UUID, travelDate time.Time, offset, limit int) ([]Schedule, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) CreateCity(ctx context.Context, city *City) error {
	return r.db.WithContext(ctx).Create(city).Error
}

func (r *repository) GetCityByID(ctx context.Context, id uuid.UUID) (*City, error) {
	var city City
	if err := r.db.WithContext(ctx).First(&city, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *repository) ListCities(ctx context.Context) ([]City, error) {
	var cities []City
	err := r.db.WithContext(ctx).Order("name ASC").Find(&cities).Error
	return cities, err
}

// CreateBus inserts the bus together with its Seats
func (r *repository) CreateBus(ctx context.Context, bus *Bus) error {
	return r.db.WithContext(ctx).Create(bus).Error
}

func (r *repository) GetBusWithSeats(ctx context.Context, id uuid.UUID) (*Bus, error) {
	var bus Bus
	err := r.db.WithContext(ctx).Preload("Seats").First(&bus, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &bus, nil
}

func (r *repository) CreateRoute(ctx context.Context, route *Route) error {
	return r.db.WithContext(ctx).Create(route).Error
}

func (r *repository) GetRouteByID(ctx context.Context, id uuid.UUID) (*Route, error) {
	var route Route
	err := r.db.WithContext(ctx).
		Preload("SourceCity").
		Preload("DestinationCity").
		First(&route, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *repository) FindRoute(ctx context.Context, sourceID, destinationID uuid.UUID) (*Route, error) {
	var route Route
	err := r.db.WithContext(ctx).
		Where("source_city_id = ? AND destination_city_id = ?", sourceID, destinationID).
		First(&route).Error
	if err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *repository) CreateSchedule(ctx context.Context, schedule *Schedule) error {
	return r.db.WithContext(ctx).Omit("Bus", "Route").Create(schedule).Error
}

// CreateAvailabilityRows seeds one AVAILABLE row per seat for a new schedule
func (r *repository) CreateAvailabilityRows(ctx context.Context, scheduleID uuid.UUID, seatIDs []uuid.UUID) error {
	if len(seatIDs) == 0 {
		return nil
	}
	rows := make([]availabilityRow, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		rows = append(rows, availabilityRow{ScheduleID: scheduleID, SeatID: seatID, Status: "AVAILABLE"})
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 100).Error
}

func (r *repository) ListSchedules(ctx context.Context, routeID uuid.UUID, travelDate time.Time, offset, limit int) ([]Schedule, int64, error) {
	var schedules []Schedule
	var total int64

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&Schedule{}).
			Where("route_id = ? AND travel_date = ?", routeID, travelDate.Format(dateLayout))
	}

	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := base().
		Preload("Bus").
		Order("departure_time ASC").
		Offset(offset).
		Limit(limit).
		Find(&schedules).Error
	if err != nil {
		return nil, 0, err
	}
	return schedules, total, nil
}
