package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"shule_transport/internal/config"
	"shule_transport/internal/reassign"
)

// ReassignSingleRide moves one ride to another driver. Business-rule
// rejections (no capacity, wrong state) come back as HTTP 200 with
// success=false; callers must check the flag, not the HTTP code.
func ReassignSingleRide(c *gin.Context) {
	var input struct {
		RideID      uint `json:"ride_id" binding:"required"`
		OldDriverID uint `json:"old_driver_id" binding:"required"`
		NewDriverID uint `json:"new_driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	msg, err := reassign.Ride(config.DB, Notifier, input.RideID, input.OldDriverID, input.NewDriverID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// ReassignAllDriverRides moves a whole driver's book of active rides to
// another driver, best-effort with a per-ride report.
func ReassignAllDriverRides(c *gin.Context) {
	var input struct {
		OldDriverID uint `json:"old_driver_id" binding:"required"`
		NewDriverID uint `json:"new_driver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	report, err := reassign.AllRides(config.DB, Notifier, input.OldDriverID, input.NewDriverID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  len(report.Failures) == 0,
		"message":  fmt.Sprintf("Moved %d ride(s), %d failure(s)", report.Moved, len(report.Failures)),
		"moved":    report.Moved,
		"failures": report.Failures,
	})
}
