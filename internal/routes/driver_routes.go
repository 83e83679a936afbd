package routes

import (
	"shule_transport/internal/controllers"
	"shule_transport/internal/middleware"

	"github.com/gin-gonic/gin"
)

func DriverRoutes(r *gin.Engine) {
	driver := r.Group("/driver")
	driver.Use(middleware.RequireAuthWithRole("driver"))
	{
		driver.POST("/trips", controllers.DriverTrips)
		driver.POST("/trips/manager", controllers.TripManager)
		driver.POST("/vehicle", controllers.CreateVehicle)
		driver.GET("/vehicle", controllers.GetMyVehicle)
		driver.PUT("/vehicle/:id/status", controllers.SetVehicleStatus)
	}
}
