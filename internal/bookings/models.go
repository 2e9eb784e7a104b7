package bookings

import (
	"time"

	"easybus/internal/fleet"
	"easybus/internal/seats"
	"easybus/internal/users"

	"github.com/google/uuid"
)

// Booking is written once, together with its passengers and payment
type Booking struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ScheduleID  uuid.UUID `gorm:"type:uuid;index;not null" json:"schedule_id"`
	TotalAmount float64   `gorm:"not null;check:total_amount > 0" json:"total_amount"`
	Status      Status    `gorm:"type:varchar(20);not null;default:'CONFIRMED'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	User       *users.User              `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT;"`
	Schedule   *fleet.Schedule          `json:"schedule,omitempty" gorm:"foreignKey:ScheduleID;constraint:OnDelete:RESTRICT;"`
	Passengers []Passenger              `json:"passengers,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
	Payment    *Payment                 `json:"payment,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
	Seats      []seats.SeatAvailability `json:"-" gorm:"foreignKey:BookingID"`
}

type Passenger struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	Name      string    `gorm:"not null" json:"name"`
	Age       int       `gorm:"not null;check:age > 0" json:"age"`
	Gender    string    `gorm:"type:varchar(20);not null" json:"gender"`
	SeatLabel string    `gorm:"type:varchar(10);not null" json:"seat_label"`
	CreatedAt time.Time `json:"created_at"`
}

type Payment struct {
	ID          uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID   uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"booking_id"`
	Amount      float64       `gorm:"not null" json:"amount"`
	Provider    string        `gorm:"type:varchar(20);not null;default:'DUMMY'" json:"provider"`
	ReferenceID string        `gorm:"uniqueIndex;not null" json:"reference_id"`
	Status      PaymentStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (Passenger) TableName() string {
	return "passengers"
}

func (Payment) TableName() string {
	return "payments"
}
