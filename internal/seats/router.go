package seats

import (
	"easybus/internal/shared/config"
	"easybus/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	seats := rg.Group("/seats")
	{
		seats.POST("/block", middleware.JWTAuthWithConfig(cfg), controller.BlockSeats) // POST /api/v1/seats/block
		seats.GET("/:scheduleId", controller.GetSeatMap)                               // GET /api/v1/seats/:scheduleId
	}
}
