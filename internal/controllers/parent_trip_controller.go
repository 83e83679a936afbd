package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shule_transport/internal/config"
	"shule_transport/internal/geo"
	"shule_transport/internal/models"
)

type parentTripsInput struct {
	Action    string               `json:"action" binding:"required"`
	StudentID uint                 `json:"student_id"`
	RideID    uint                 `json:"ride_id"`
	TripID    uint                 `json:"trip_id"`
	Schedule  *models.RideSchedule `json:"schedule"`
}

// ParentTrips is the parent app's ride endpoint. Creation inserts a
// Requested ride; an operator assigns the driver later.
func ParentTrips(c *gin.Context) {
	var input parentTripsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	parentID := authedUserID(c)

	switch input.Action {
	case "create":
		createRide(c, parentID, input)

	case "all":
		var rides []models.Ride
		err := config.DB.Preload("Student").
			Where("parent_id = ?", parentID).
			Order("id DESC").
			Find(&rides).Error
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{"rides": rides})

	case "history":
		var trips []models.DailyRide
		err := config.DB.Preload("Ride").Preload("Ride.Student").
			Joins("JOIN rides ON rides.id = daily_rides.ride_id").
			Where("rides.parent_id = ? AND daily_rides.status = ?", parentID, models.TripFinished).
			Order("daily_rides.date DESC, daily_rides.id DESC").
			Limit(100).
			Find(&trips).Error
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{"trips": trips})

	case "today":
		var trips []models.DailyRide
		err := config.DB.Preload("Ride").Preload("Ride.Student").
			Joins("JOIN rides ON rides.id = daily_rides.ride_id").
			Where("rides.parent_id = ? AND daily_rides.date = ?", parentID, models.DateOnly(time.Now())).
			Order("daily_rides.kind, daily_rides.id").
			Find(&trips).Error
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{"trips": trips})

	case "view":
		if input.RideID == 0 {
			respondError(c, http.StatusBadRequest, "ride_id is required")
			return
		}
		var ride models.Ride
		err := config.DB.Preload("Student").
			Where("id = ? AND parent_id = ?", input.RideID, parentID).
			First(&ride).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(c, http.StatusNotFound, "ride not found")
				return
			}
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{"ride": ride})

	case "view_trip":
		if input.TripID == 0 {
			respondError(c, http.StatusBadRequest, "trip_id is required")
			return
		}
		var trip models.DailyRide
		err := config.DB.Preload("Ride").Preload("Ride.Student").
			Joins("JOIN rides ON rides.id = daily_rides.ride_id").
			Where("daily_rides.id = ? AND rides.parent_id = ?", input.TripID, parentID).
			First(&trip).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(c, http.StatusNotFound, "trip not found")
				return
			}
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{"trip_details": trip})

	default:
		respondError(c, http.StatusBadRequest, "unknown action: "+input.Action)
	}
}

// createRide validates ownership and the schedule stops, then inserts a
// Requested ride awaiting operator assignment.
func createRide(c *gin.Context, parentID uint, input parentTripsInput) {
	if input.StudentID == 0 || input.Schedule == nil {
		respondError(c, http.StatusBadRequest, "student_id and schedule are required")
		return
	}

	var student models.Student
	err := config.DB.Where("id = ? AND parent_id = ?", input.StudentID, parentID).
		First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "student not found for this parent")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	pickupGeom, err := geo.PointGeoJSON(input.Schedule.Pickup.Lat, input.Schedule.Pickup.Lng)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid pickup location: "+err.Error())
		return
	}
	dropoffGeom, err := geo.PointGeoJSON(input.Schedule.Dropoff.Lat, input.Schedule.Dropoff.Lng)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid dropoff location: "+err.Error())
		return
	}

	ride := models.Ride{
		StudentID:   student.ID,
		ParentID:    parentID,
		Schedule:    *input.Schedule,
		Status:      models.RideRequested,
		PickupGeom:  pickupGeom,
		DropoffGeom: dropoffGeom,
	}
	if err := config.DB.Create(&ride).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "could not create ride: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "ride": ride})
}
