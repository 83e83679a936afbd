package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shule_transport/internal/config"
	"shule_transport/internal/inventory"
	"shule_transport/internal/models"
)

// ListRides returns every ride with its student and parent, optionally
// filtered by status. Administrative use.
func ListRides(c *gin.Context) {
	q := config.DB.Preload("Student").Preload("Parent")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var rides []models.Ride
	if err := q.Order("id DESC").Find(&rides).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "Error listing rides: "+err.Error())
		return
	}

	respondOK(c, gin.H{"data": rides})
}

// AssignRide gives a requested or pending ride its first driver. Seat
// reservation happens before the ride mutation and is compensated if
// the commit fails, same order as reassignment.
func AssignRide(c *gin.Context) {
	var input struct {
		RideID   uint `json:"ride_id" binding:"required"`
		DriverID uint `json:"driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var driver models.User
	err := config.DB.Where("id = ? AND role = ?", input.DriverID, "driver").First(&driver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "driver not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	vehicle, err := inventory.ActiveVehicleFor(config.DB, driver.ID)
	if err != nil {
		if errors.Is(err, inventory.ErrVehicleNotFound) {
			c.JSON(http.StatusOK, gin.H{"status": "error", "message": "driver has no active vehicle"})
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err := inventory.ReserveSeat(config.DB, vehicle.ID); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}

	var parentID uint
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var ride models.Ride
		err := tx.Where("id = ? AND driver_id IS NULL", input.RideID).First(&ride).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("ride not found or already assigned")
			}
			return err
		}
		if ride.Status != models.RideRequested && ride.Status != models.RidePending {
			return fmt.Errorf("ride is not assignable: status is %q", ride.Status)
		}
		parentID = ride.ParentID
		return tx.Model(&ride).Updates(map[string]interface{}{
			"driver_id":  driver.ID,
			"vehicle_id": vehicle.ID,
			"status":     models.RideOngoing,
		}).Error
	})
	if err != nil {
		if relErr := inventory.ReleaseSeat(config.DB, vehicle.ID); relErr != nil {
			logrus.WithError(relErr).WithField("vehicle_id", vehicle.ID).
				Error("assign: compensating seat release failed")
		}
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}

	Notifier.Enqueue(parentID, "Ride approved",
		fmt.Sprintf("Your ride request was approved. Driver: %s.", driver.Name))
	respondOK(c, gin.H{"message": "ride assigned to " + driver.Name})
}

// UpdateRideStatus completes or cancels a ride. Leaving a non-terminal
// state with a vehicle attached gives the seat back. Rides are never
// deleted; cancelled rides just stop generating daily trips.
func UpdateRideStatus(c *gin.Context) {
	var input struct {
		RideID uint   `json:"ride_id" binding:"required"`
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if input.Status != models.RideCompleted && input.Status != models.RideCancelled &&
		input.Status != models.RidePending && input.Status != models.RideOngoing {
		respondError(c, http.StatusBadRequest, "invalid target status")
		return
	}

	var ride models.Ride
	if err := config.DB.First(&ride, input.RideID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "ride not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if ride.Status == models.RideCompleted || ride.Status == models.RideCancelled {
		c.JSON(http.StatusOK, gin.H{"status": "error",
			"message": fmt.Sprintf("ride is terminal: status is %q", ride.Status)})
		return
	}
	if !models.ValidRideTransition(ride.Status, input.Status) {
		c.JSON(http.StatusOK, gin.H{"status": "error",
			"message": fmt.Sprintf("cannot move ride from %q to %q", ride.Status, input.Status)})
		return
	}

	if err := config.DB.Model(&ride).Update("status", input.Status).Error; err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	// Terminal transitions free the seat held on the vehicle.
	terminal := input.Status == models.RideCompleted || input.Status == models.RideCancelled
	if terminal && ride.VehicleID != nil {
		if err := inventory.ReleaseSeat(config.DB, *ride.VehicleID); err != nil &&
			!errors.Is(err, inventory.ErrVehicleNotFound) {
			logrus.WithError(err).WithField("vehicle_id", *ride.VehicleID).
				Warn("ride status: seat release failed")
		}
	}

	respondOK(c, gin.H{"message": "ride status updated to " + input.Status})
}
