package models

import (
	"time"

	"gorm.io/gorm"
)

// DailyRide statuses. One pass per trip day: Inactive -> Active ->
// Finished, never backwards. Finished rows are immutable history.
const (
	TripInactive = "inactive"
	TripActive   = "active"
	TripFinished = "finished"
)

// Trip kinds (leg direction).
const (
	KindPickup  = "pickup"
	KindDropoff = "dropoff"
)

// DailyRide is one concrete trip instance: one ride, one calendar date,
// one leg. DriverID/VehicleID snapshot the parent ride's assignment and
// are re-pointed by reassignment for non-Finished rows only.
type DailyRide struct {
	gorm.Model
	RideID    uint       `json:"ride_id" gorm:"index"`
	DriverID  uint       `json:"driver_id" gorm:"index"`
	VehicleID uint       `json:"vehicle_id" gorm:"index"`
	Kind      string     `json:"kind" gorm:"index"`
	Date      time.Time  `json:"date" gorm:"index"`
	Status    string     `json:"status" gorm:"index;default:inactive"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`

	Ride Ride `gorm:"foreignKey:RideID" json:"ride,omitempty"`
}

// DateOnly truncates t to midnight UTC. All DailyRide.Date values go
// through this so date equality in queries is exact.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
