package seats

import (
	"net/http"

	"easybus/internal/shared/middleware"
	"easybus/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetSeatMap handles GET /seats/:scheduleId
func (c *Controller) GetSeatMap(ctx *gin.Context) {
	seatMap, err := c.service.SeatMap(ctx.Request.Context(), ctx.Param("scheduleId"))
	if err != nil {
		response.RespondError(ctx, err, "Failed to fetch seats")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats retrieved successfully", seatMap, nil)
}

// BlockSeats handles POST /seats/block
func (c *Controller) BlockSeats(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req HoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	result, err := c.service.Hold(ctx.Request.Context(), userID, req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to block seats")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats blocked successfully", result, nil)
}
