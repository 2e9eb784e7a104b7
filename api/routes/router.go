// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"easybus/internal/auth"
	"easybus/internal/bookings"
	"easybus/internal/events"
	"easybus/internal/fleet"
	"easybus/internal/seats"
	"easybus/internal/shared/config"
	"easybus/internal/shared/database"
	"easybus/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	cache     cache.Service
	publisher events.Publisher

	seatService seats.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, cacheSvc cache.Service, publisher events.Publisher) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		cache:     cacheSvc,
		publisher: publisher,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)

		// seats first: fleet search counts availability through it
		r.setupSeatRoutes(api)
		r.setupFleetRoutes(api)
		r.setupBookingRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "easybus-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "easybus-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"redis_cache": r.db.Redis != nil,
			"timestamp":   time.Now(),
		})
	})
}

func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)

	auth.SetupAuthRoutes(rg, authController, r.config)
}

func (r *Router) setupSeatRoutes(rg *gin.RouterGroup) {
	seatRepo := seats.NewRepository(r.db.GetPostgreSQL())
	r.seatService = seats.NewService(seatRepo, r.cache, r.publisher, r.config)
	seatController := seats.NewController(r.seatService)

	seats.SetupSeatRoutes(rg, seatController, r.config)
}

func (r *Router) setupFleetRoutes(rg *gin.RouterGroup) {
	fleetRepo := fleet.NewRepository(r.db.GetPostgreSQL())
	fleetService := fleet.NewService(fleetRepo, r.seatService, r.cache, r.config)
	fleetController := fleet.NewController(fleetService)

	fleet.SetupFleetRoutes(rg, fleetController, r.config)
}

func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	bookingService := bookings.NewService(bookingRepo, bookings.NewDummyProvider(), r.cache, r.publisher, r.config)
	bookingController := bookings.NewController(bookingService)

	bookings.SetupBookingRoutes(rg, bookingController, r.config)
}
