package queue

import (
	"tabour/internal/shared/config"
	"tabour/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	queueRoutes := rg.Group("/queue")
	{
		// Public customer-facing endpoints
		queueRoutes.POST("/join", controller.RequestJoin)
		queueRoutes.POST("/verify", controller.VerifyAndJoin)
		queueRoutes.GET("/status/:branch_id", controller.BranchStatus)

		// Staff endpoints
		staff := queueRoutes.Group("")
		staff.Use(middleware.JWTAuth(cfg))
		{
			branchScoped := staff.Group("/branches/:branch_id")
			branchScoped.Use(middleware.RequireBranchAccess("branch_id"))
			{
				branchScoped.GET("/today", controller.ListToday)
				branchScoped.GET("/archive", controller.ListArchive)
				branchScoped.GET("/rooms/available", controller.AvailableRooms)
				branchScoped.GET("/summary", controller.Summary)
			}

			entries := staff.Group("/entries/:entry_id")
			{
				entries.POST("/transition", controller.Transition)
				entries.POST("/rooms/hold", controller.HoldRoom)
				entries.POST("/rooms/release", controller.ReleaseRoom)
			}
		}
	}
}
