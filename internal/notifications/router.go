package notifications

import (
	"tabour/internal/shared/config"
	"tabour/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	notificationRoutes := rg.Group("/notifications")
	notificationRoutes.Use(middleware.JWTAuth(cfg), middleware.RequireRole(middleware.RoleAdmin))
	{
		notificationRoutes.GET("", controller.ListRecent)
	}
}
