package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSeatsHeld        Type = "SEATS_HELD"
	TypeBookingConfirmed Type = "BOOKING_CONFIRMED"
	TypeSeatsReleased    Type = "SEATS_RELEASED"
)

// Event is a committed change to seat inventory
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Type       Type       `json:"type"`
	ScheduleID *uuid.UUID `json:"schedule_id,omitempty"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	BookingID  *uuid.UUID `json:"booking_id,omitempty"`
	SeatLabels []string   `json:"seat_labels,omitempty"`
	HeldUntil  *time.Time `json:"held_until,omitempty"`
	Amount     float64    `json:"amount,omitempty"`
	Expired    int64      `json:"expired,omitempty"`
	Invalid    int64      `json:"invalid,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func NewSeatsHeld(scheduleID, userID uuid.UUID, labels []string, until time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       TypeSeatsHeld,
		ScheduleID: &scheduleID,
		UserID:     &userID,
		SeatLabels: labels,
		HeldUntil:  &until,
		OccurredAt: time.Now().UTC(),
	}
}

func NewBookingConfirmed(bookingID, scheduleID, userID uuid.UUID, labels []string, amount float64) Event {
	return Event{
		ID:         uuid.New(),
		Type:       TypeBookingConfirmed,
		ScheduleID: &scheduleID,
		UserID:     &userID,
		BookingID:  &bookingID,
		SeatLabels: labels,
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	}
}

func NewSeatsReleased(expired, invalid int64) Event {
	return Event{
		ID:         uuid.New(),
		Type:       TypeSeatsReleased,
		Expired:    expired,
		Invalid:    invalid,
		OccurredAt: time.Now().UTC(),
	}
}

// PartitionKey keeps every event of a schedule on one partition
func (e Event) PartitionKey() string {
	if e.ScheduleID != nil {
		return e.ScheduleID.String()
	}
	return "inventory"
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
