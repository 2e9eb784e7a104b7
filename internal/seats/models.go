package seats

import (
	"time"

	"easybus/internal/fleet"

	"github.com/google/uuid"
)

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusBlocked   Status = "BLOCKED"
	StatusBooked    Status = "BOOKED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusBlocked, StatusBooked:
		return true
	default:
		return false
	}
}

// SeatAvailability is the inventory row of one seat on one schedule.
// AVAILABLE rows carry no owner, expiry or booking. BLOCKED rows carry an
// owner and an expiry. BOOKED rows carry only a booking.
type SeatAvailability struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ScheduleID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_seat" json:"schedule_id"`
	SeatID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_seat" json:"seat_id"`
	Status       Status     `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"`
	BlockedByID  *uuid.UUID `gorm:"type:uuid" json:"blocked_by_id,omitempty"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
	BookingID    *uuid.UUID `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Seat     *fleet.Seat     `json:"seat,omitempty" gorm:"foreignKey:SeatID;constraint:OnDelete:RESTRICT;"`
	Schedule *fleet.Schedule `json:"-" gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE;"`
}

func (SeatAvailability) TableName() string {
	return "seat_availabilities"
}

// HoldExpired reports a BLOCKED row whose hold is over at now
func (a *SeatAvailability) HoldExpired(now time.Time) bool {
	return a.Status == StatusBlocked && a.BlockedUntil != nil && !a.BlockedUntil.After(now)
}

// EffectiveStatus treats an expired hold as AVAILABLE
func (a *SeatAvailability) EffectiveStatus(now time.Time) Status {
	if a.HoldExpired(now) {
		return StatusAvailable
	}
	return a.Status
}

// HeldByOther reports a live hold owned by someone other than userID
func (a *SeatAvailability) HeldByOther(userID uuid.UUID, now time.Time) bool {
	if a.Status != StatusBlocked || a.HoldExpired(now) {
		return false
	}
	return a.BlockedByID == nil || *a.BlockedByID != userID
}

func (a *SeatAvailability) Label() string {
	if a.Seat == nil {
		return ""
	}
	return a.Seat.Label
}
