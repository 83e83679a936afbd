package routes

import (
	"shule_transport/internal/controllers"
	"shule_transport/internal/middleware"

	"github.com/gin-gonic/gin"
)

func ParentRoutes(r *gin.Engine) {
	parent := r.Group("/parent")
	parent.Use(middleware.RequireAuthWithRole("parent"))
	{
		parent.POST("/trips", controllers.ParentTrips)
		parent.POST("/notifications", controllers.UpdateNotificationPrefs)
	}
}
