package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shule_transport/internal/config"
	"shule_transport/internal/models"
	"shule_transport/internal/tripday"
)

type driverTripsInput struct {
	Action string `json:"action" binding:"required"`
	TripID uint   `json:"trip_id"`
	Trips  []uint `json:"trips"`
	Date   string `json:"date"`
}

// DriverTrips is the driver app's trip endpoint: one POST body carries
// the action, matching the mobile client's RPC style.
func DriverTrips(c *gin.Context) {
	var input driverTripsInput
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

	case "history":
		trips, err := tripday.History(config.DB, driverID)
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{"rides": trips})

	case "view":
		if input.TripID == 0 {
			respondError(c, http.StatusBadRequest, "trip_id is required")
			return
		}
		trip, err := tripday.TripDetails(config.DB, driverID, input.TripID)
		if err != nil {
			if errors.Is(err, tripday.ErrTripNotFound) {
				respondError(c, http.StatusNotFound, "trip not found")
				return
			}
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{"trip_details": trip})

	case "pickup":
		startTrips(c, driverID, models.KindPickup, input, date)

	case "dropoff":
		startTrips(c, driverID, models.KindDropoff, input, date)

	case "pickup-all":
		n, err := tripday.StartAll(config.DB, Notifier, driverID, models.KindPickup, date)
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{"started": n})

	case "dropoff-all":
		n, err := tripday.StartAll(config.DB, Notifier, driverID, models.KindDropoff, date)
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		respondOK(c, gin.H{"started": n})

	default:
		respondError(c, http.StatusBadRequest, "unknown action: "+input.Action)
	}
}

// startTrips activates the named trips (trip_id or trips[]) of a kind.
func startTrips(c *gin.Context, driverID uint, kind string, input driverTripsInput, date time.Time) {
	ids := input.Trips
	if input.TripID != 0 {
		ids = append(ids, input.TripID)
	}
	if len(ids) == 0 {
		respondError(c, http.StatusBadRequest, "trip_id or trips is required")
		return
	}

	started := 0
	for _, id := range ids {
		err := tripday.StartTrip(config.DB, Notifier, driverID, id, kind, date)
		if err != nil {
			if errors.Is(err, tripday.ErrTripNotFound) {
				respondError(c, http.StatusNotFound, "trip not found")
				return
			}
			if errors.Is(err, tripday.ErrWrongKind) {
				respondError(c, http.StatusBadRequest, err.Error())
				return
			}
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		started++
	}
	respondOK(c, gin.H{"started": started})
}
