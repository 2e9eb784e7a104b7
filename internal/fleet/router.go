package fleet

import (
	"easybus/internal/shared/config"
	"easybus/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupFleetRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	// Public reads
	rg.GET("/users/cities", controller.ListCities)      // GET /api/v1/users/cities
	rg.GET("/buses/search", controller.SearchSchedules) // GET /api/v1/buses/search

	admin := rg.Group("/admin")
	admin.Use(middleware.JWTAuthWithConfig(cfg), middleware.RequireAdmin())
	{
		admin.POST("/cities", controller.AddCity)           // POST /api/v1/admin/cities
		admin.POST("/buses", controller.AddBus)             // POST /api/v1/admin/buses
		admin.POST("/routes", controller.AddRoute)          // POST /api/v1/admin/routes
		admin.POST("/schedules", controller.CreateSchedule) // POST /api/v1/admin/schedules
	}
}
