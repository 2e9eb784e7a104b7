package fleet

import (
	"net/http"

	"easybus/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) AddCity(ctx *gin.Context) {
	var req AddCityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	city, err := c.service.AddCity(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to add city")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "City added successfully", city, nil)
}

func (c *Controller) ListCities(ctx *gin.Context) {
	cities, err := c.service.ListCities(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, err, "Failed to fetch cities")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Cities retrieved successfully", cities, nil)
}

func (c *Controller) AddBus(ctx *gin.Context) {
	var req AddBusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	bus, err := c.service.AddBus(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to add bus")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Bus added successfully", bus, nil)
}

func (c *Controller) AddRoute(ctx *gin.Context) {
	var req AddRouteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	route, err := c.service.AddRoute(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to add route")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Route added successfully", route, nil)
}

func (c *Controller) CreateSchedule(ctx *gin.Context) {
	var req CreateScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	result, err := c.service.CreateSchedule(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err, "Failed to create schedule")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Schedule created successfully", result, nil)
}

func (c *Controller) SearchSchedules(ctx *gin.Context) {
	var q SearchQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RespondBindError(ctx, err)
		return
	}

	result, err := c.service.SearchSchedules(ctx.Request.Context(), q)
	if err != nil {
		response.RespondError(ctx, err, "Failed to search buses")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Buses retrieved successfully", result, nil)
}
