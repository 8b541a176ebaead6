package bookings

import (
	"tabour/internal/shared/config"
	"tabour/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	bookingRoutes := rg.Group("/bookings")
	{
		// Public booking form
		bookingRoutes.POST("", controller.CreateBooking)

		staff := bookingRoutes.Group("")
		staff.Use(middleware.JWTAuth(cfg))
		{
			staff.GET("/branches/:branch_id", controller.ListBookings)
			staff.PATCH("/:booking_id/status", controller.UpdateStatus)
		}
	}
}
