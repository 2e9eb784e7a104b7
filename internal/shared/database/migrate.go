package database

import (
	"easybus/internal/bookings"
	"easybus/internal/fleet"
	"easybus/internal/seats"
	"easybus/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&fleet.City{},
		&fleet.Bus{},
		&fleet.Seat{},
		&fleet.Route{},
		&fleet.Schedule{},
		&seats.SeatAvailability{},
		&bookings.Booking{},
		&bookings.Passenger{},
		&bookings.Payment{},
	)
}
