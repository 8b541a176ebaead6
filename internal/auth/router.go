package auth

import (
	"tabour/internal/shared/config"
	"tabour/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	authRoutes := rg.Group("/auth")
	{
		authRoutes.POST("/login", controller.Login)

		staff := authRoutes.Group("/staff")
		staff.Use(middleware.JWTAuth(cfg), middleware.RequireRole(middleware.RoleAdmin))
		{
			staff.POST("", controller.CreateStaff)
			staff.GET("", controller.ListStaff)
		}
	}
}
