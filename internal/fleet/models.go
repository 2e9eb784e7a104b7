package fleet

import (
	"time"

	"github.com/google/uuid"
)

type City struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Bus struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Number     string    `gorm:"uniqueIndex;not null" json:"number"`
	Type       string    `gorm:"not null" json:"type"`
	TotalSeats int       `gorm:"not null;check:total_seats > 0" json:"total_seats"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Seats []Seat `json:"seats,omitempty" gorm:"foreignKey:BusID;constraint:OnDelete:CASCADE;"`
}

// Seat is immutable once its bus is registered. Labels are unique per bus.
type Seat struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BusID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bus_seat_label" json:"bus_id"`
	Label     string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_bus_seat_label" json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

type Route struct {
	ID                uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SourceCityID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_route_cities" json:"source_city_id"`
	DestinationCityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_route_cities" json:"destination_city_id"`
	CreatedAt         time.Time `json:"created_at"`

	SourceCity      *City `json:"source_city,omitempty" gorm:"foreignKey:SourceCityID"`
	DestinationCity *City `json:"destination_city,omitempty" gorm:"foreignKey:DestinationCityID"`
}

// Schedule is one bus running one route on one date
type Schedule struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BusID         uuid.UUID `gorm:"type:uuid;index;not null" json:"bus_id"`
	RouteID       uuid.UUID `gorm:"type:uuid;not null;index:idx_schedule_route_date" json:"route_id"`
	TravelDate    time.Time `gorm:"type:date;not null;index:idx_schedule_route_date" json:"travel_date"`
	DepartureTime time.Time `gorm:"not null" json:"departure_time"`
	ArrivalTime   time.Time `gorm:"not null" json:"arrival_time"`
	Price         float64   `gorm:"not null;check:price > 0" json:"price"`
	CreatedAt     time.Time `json:"created_at"`

	Bus   *Bus   `json:"bus,omitempty" gorm:"foreignKey:BusID"`
	Route *Route `json:"route,omitempty" gorm:"foreignKey:RouteID"`
}

// Forward declaration of the inventory rows owned by the seats module.
// Only the columns written at schedule creation are mapped.
type availabilityRow struct {
	ScheduleID uuid.UUID
	SeatID     uuid.UUID
	Status     string
}

func (City) TableName() string            { return "cities" }
func (Bus) TableName() string             { return "buses" }
func (Seat) TableName() string            { return "seats" }
func (Route) TableName() string           { return "routes" }
func (Schedule) TableName() string        { return "schedules" }
func (availabilityRow) TableName() string { return "seat_availabilities" }
