package routes

import (
	"shule_transport/internal/controllers"
	"shule_transport/internal/middleware"

	"github.com/gin-gonic/gin"
)

func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuthWithRole("admin"))
	{
		admin.GET("/rides", controllers.ListRides)
		admin.POST("/rides/assign", controllers.AssignRide)
		admin.POST("/rides/status", controllers.UpdateRideStatus)
		admin.POST("/rides/reassign", controllers.ReassignSingleRide)
		admin.POST("/rides/reassign-all", controllers.ReassignAllDriverRides)
		admin.GET("/vehicles", controllers.ListVehicles)
	}
}
