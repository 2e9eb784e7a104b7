package bookings

import (
	"easybus/internal/shared/config"
	"easybus/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	booking := rg.Group("/booking")
	booking.Use(middleware.JWTAuthWithConfig(cfg))
	{
		booking.POST("/confirm", controller.ConfirmBooking) // POST /api/v1/booking/confirm
		booking.GET("/my", controller.GetMyBookings)         // GET /api/v1/booking/my
	}

	admin := rg.Group("/admin")
	admin.Use(middleware.JWTAuthWithConfig(cfg), middleware.RequireAdmin())
	{
		admin.GET("/bookings", controller.GetAllBookings) // GET /api/v1/admin/bookings
	}
}
