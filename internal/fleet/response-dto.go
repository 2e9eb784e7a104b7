package fleet

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleSummary struct {
	ScheduleID     uuid.UUID `json:"schedule_id"`
	BusID          uuid.UUID `json:"bus_id"`
	BusName        string    `json:"bus_name"`
	BusNumber      string    `json:"bus_number"`
	BusType        string    `json:"bus_type"`
	TravelDate     string    `json:"travel_date"`
	DepartureTime  time.Time `json:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time"`
	Price          float64   `json:"price"`
	AvailableSeats int64     `json:"available_seats"`
}

type SearchResponse struct {
	RouteID uuid.UUID         `json:"route_id"`
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
	Total   int64             `json:"total"`
	Results []ScheduleSummary `json:"results"`
}

type ScheduleResponse struct {
	Schedule   *Schedule `json:"schedule"`
	SeatsAdded int       `json:"seats_added"`
}
