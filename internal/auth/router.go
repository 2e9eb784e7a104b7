package auth

import (
	"easybus/internal/shared/config"
	"easybus/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAuthRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", controller.Register) // POST /api/v1/auth/register
		auth.POST("/login", controller.Login)       // POST /api/v1/auth/login

		auth.GET("/me", middleware.JWTAuthWithConfig(cfg), controller.GetMe) // GET /api/v1/auth/me
	}
}
