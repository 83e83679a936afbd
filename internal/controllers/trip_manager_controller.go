package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shule_transport/internal/config"
	"shule_transport/internal/models"
	"shule_transport/internal/tripday"
)

type tripManagerInput struct {
	Action    string `json:"action" binding:"required"`
	Kind      string `json:"kind"`
	StudentID uint   `json:"student_id"`
	Date      string `json:"date"`
}

// TripManager drives the day-of workflow: the trip board, bulk
// start/end of a leg, per-student completion, and the checklist.
func TripManager(c *gin.Context) {
	var input tripManagerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	driverID := authedUserID(c)
	date, err := parseDate(input.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	switch input.Action {
	case "today":
		summary, err := tripday.Today(config.DB, driverID, date)
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{
			"trips":            summary.Trips,
			"pickup_list":      summary.PickupList,
			"dropoff_list":     summary.DropoffList,
			"total_trip_count": summary.TotalTripCount,
			"upcoming_count":   summary.UpcomingCount,
		})

	case "start_all":
		if !validKind(input.Kind) {
			respondError(c, http.StatusBadRequest, "kind must be pickup or dropoff")
			return
		}
		n, err := tripday.StartAll(config.DB, Notifier, driverID, input.Kind, date)
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{"started": n})

	case "end_all":
		if !validKind(input.Kind) {
			respondError(c, http.StatusBadRequest, "kind must be pickup or dropoff")
			return
		}
		n, err := tripday.EndAll(config.DB, Notifier, driverID, input.Kind, date)
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{"ended": n})

	case "update":
		if input.StudentID == 0 {
			respondError(c, http.StatusBadRequest, "student_id is required")
			return
		}
		if !validKind(input.Kind) {
			respondError(c, http.StatusBadRequest, "kind must be pickup or dropoff")
			return
		}
		changed, err := tripday.MarkStudent(config.DB, Notifier, driverID, input.StudentID, input.Kind, date)
		if err != nil {
			if errors.Is(err, tripday.ErrStudentNotFound) {
				respondError(c, http.StatusNotFound, "no trip for that student today")
				return
			}
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		msg := "trip marked as finished"
		if !changed {
			msg = "trip was already finished"
		}
		respondOK(c, gin.H{"message": msg, "changed": changed})

	case "students":
		if !validKind(input.Kind) {
			respondError(c, http.StatusBadRequest, "kind must be pickup or dropoff")
			return
		}
		students, err := tripday.StudentsForKind(config.DB, driverID, input.Kind, date)
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{"students": students})

	default:
		respondError(c, http.StatusBadRequest, "unknown action: "+input.Action)
	}
}

func validKind(kind string) bool {
	return kind == models.KindPickup || kind == models.KindDropoff
}
