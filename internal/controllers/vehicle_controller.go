package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shule_transport/internal/config"
	"shule_transport/internal/inventory"
	"shule_transport/internal/models"
)

// CreateVehicle registers a vehicle for the authenticated driver. The
// seat counters start full; assignments drain them through inventory.
func CreateVehicle(c *gin.Context) {
	var input struct {
		VehicleRegistration string `json:"vehicle_registration" binding:"required"`
		VehicleModel        string `json:"vehicle_model"`
		SeatCount           int    `json:"seat_count" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid vehicle input: "+err.Error())
		return
	}
	if input.SeatCount <= 0 {
		respondError(c, http.StatusBadRequest, "seat_count must be positive")
		return
	}

	driverID := authedUserID(c)

	vehicle := models.Vehicle{
		DriverID:            driverID,
		VehicleRegistration: input.VehicleRegistration,
		VehicleModel:        input.VehicleModel,
		SeatCount:           input.SeatCount,
		AvailableSeats:      input.SeatCount,
		Status:              models.VehicleActive,
	}

	if err := config.DB.Create(&vehicle).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create vehicle: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "vehicle": vehicle})
}

// GetMyVehicle returns the authenticated driver's active vehicle.
func GetMyVehicle(c *gin.Context) {
	driverID := authedUserID(c)

	vehicle, err := inventory.ActiveVehicleFor(config.DB, driverID)
	if err != nil {
		if errors.Is(err, inventory.ErrVehicleNotFound) {
			respondError(c, http.StatusNotFound, "No active vehicle for this driver")
			return
		}
		respondError(c, http.StatusInternalServerError, "Error fetching vehicle: "+err.Error())
		return
	}

	respondOK(c, gin.H{"vehicle": vehicle})
}

// ListVehicles returns every vehicle. Administrative use.
func ListVehicles(c *gin.Context) {
	var vehicles []models.Vehicle
	if err := config.DB.Find(&vehicles).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Error listing vehicles: "+err.Error())
		return
	}

	respondOK(c, gin.H{"data": vehicles})
}

// SetVehicleStatus activates or deactivates the driver's vehicle.
// Vehicles are never deleted: deactivation takes them out of the
// assignable pool while keeping their history.
func SetVehicleStatus(c *gin.Context) {
	driverID := authedUserID(c)
	id := c.Param("id")

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if input.Status != models.VehicleActive && input.Status != models.VehicleInactive {
		respondError(c, http.StatusBadRequest, "status must be active or inactive")
		return
	}

	var vehicle models.Vehicle
	if err := config.DB.Where("id = ? AND driver_id = ?", id, driverID).First(&vehicle).Error; err != nil {
		respondError(c, http.StatusNotFound, "Vehicle not found")
		return
	}

	if err := config.DB.Model(&vehicle).Update("status", input.Status).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update status: "+err.Error())
		return
	}

	respondOK(c, gin.H{"vehicle": vehicle})
}
