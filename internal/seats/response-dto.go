package seats

import (
	"time"

	"github.com/google/uuid"
)

type HeldSeat struct {
	SeatID uuid.UUID `json:"seat_id"`
	Label  string    `json:"label"`
}

type HoldResponse struct {
	ScheduleID   uuid.UUID  `json:"schedule_id"`
	BlockedUntil time.Time  `json:"blocked_until"`
	Seats        []HeldSeat `json:"seats"`
}

type SeatView struct {
	SeatID       uuid.UUID  `json:"seat_id"`
	Label        string     `json:"label"`
	Status       Status     `json:"status"`
	BlockedByID  *uuid.UUID `json:"blocked_by_id,omitempty"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
	BookingID    *uuid.UUID `json:"booking_id,omitempty"`
}

type ScheduleHeader struct {
	ScheduleID      uuid.UUID `json:"schedule_id"`
	BusID           uuid.UUID `json:"bus_id"`
	BusName         string    `json:"bus_name"`
	BusNumber       string    `json:"bus_number"`
	BusType         string    `json:"bus_type"`
	SourceCity      string    `json:"source_city"`
	DestinationCity string    `json:"destination_city"`
	TravelDate      string    `json:"travel_date"`
	DepartureTime   time.Time `json:"departure_time"`
	ArrivalTime     time.Time `json:"arrival_time"`
	Price           float64   `json:"price"`
}

type SeatMapResponse struct {
	Schedule       ScheduleHeader `json:"schedule"`
	TotalSeats     int            `json:"total_seats"`
	AvailableCount int            `json:"available_count"`
	Seats          []SeatView     `json:"seats"`
}
