package branches

import (
	"tabour/internal/shared/config"
	"tabour/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	branchRoutes := rg.Group("/branches")
	branchRoutes.Use(middleware.JWTAuth(cfg))
	{
		branchRoutes.GET("", controller.ListBranches)
		branchRoutes.GET("/:branch_id", controller.GetBranch)

		branchRoutes.POST("", middleware.RequireRole(middleware.RoleAdmin), controller.CreateBranch)

		managed := branchRoutes.Group("/:branch_id")
		managed.Use(middleware.RequireBranchAccess("branch_id"))
		{
			managed.PATCH("/settings", controller.UpdateSettings)
			managed.POST("/rooms/adjust", controller.AdjustRooms)
			managed.POST("/wait/adjust", controller.AdjustExpectedWait)
			managed.POST("/password", controller.ChangePassword)
		}
	}
}
