package bookings

import (
	"time"

	"easybus/internal/seats"
	"easybus/internal/users"

	"github.com/google/uuid"
)

type ConfirmResponse struct {
	Booking    BookingInfo `json:"booking"`
	Payment    PaymentInfo `json:"payment"`
	Passengers []Passenger `json:"passengers"`
}

type BookingInfo struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	ScheduleID  uuid.UUID `json:"schedule_id"`
	TotalAmount float64   `json:"total_amount"`
	Status      Status    `json:"status"`
	SeatLabels  []string  `json:"seat_labels"`
	CreatedAt   time.Time `json:"created_at"`
}

type PaymentInfo struct {
	ID          uuid.UUID     `json:"id"`
	Amount      float64       `json:"amount"`
	Provider    string        `json:"provider"`
	ReferenceID string        `json:"reference_id"`
	Status      PaymentStatus `json:"status"`
}

type BookingResponse struct {
	BookingInfo
	Schedule   *seats.ScheduleHeader `json:"schedule,omitempty"`
	Passengers []Passenger           `json:"passengers"`
	Payment    *PaymentInfo          `json:"payment,omitempty"`
	User       *users.Summary        `json:"user,omitempty"`
}

type BookingListResponse struct {
	Bookings   []BookingResponse `json:"bookings"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalCount int64             `json:"total_count"`
	TotalPages int               `json:"total_pages"`
}
