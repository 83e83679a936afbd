package models

import "gorm.io/gorm"

// Ride statuses. Requested rides come from parents and wait for an
// operator to assign a driver; Completed and Cancelled are terminal.
const (
	RideRequested = "requested"
	RidePending   = "pending"
	RideOngoing   = "ongoing"
	RideCompleted = "completed"
	RideCancelled = "cancelled"
)

// Reassignable reports whether a ride in the given status may be moved
// to another driver.
func Reassignable(status string) bool {
	switch status {
	case RideRequested, RidePending, RideOngoing:
		return true
	}
	return false
}

// ValidRideTransition enforces the forward-only ride lifecycle
// (requested, pending, ongoing, completed). Cancellation is allowed
// from any non-terminal state; nothing leaves a terminal state.
func ValidRideTransition(from, to string) bool {
	if to == RideCancelled {
		return from != RideCompleted && from != RideCancelled
	}
	switch from {
	case RideRequested:
		return to == RidePending
	case RidePending:
		return to == RideOngoing
	case RideOngoing:
		return to == RideCompleted
	}
	return false
}

// ScheduleStop is one leg endpoint of a ride schedule.
type ScheduleStop struct {
	Time     string  `json:"time"` // "06:45" wall-clock
	Location string  `json:"location"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// RideSchedule is the recurring pickup/dropoff contract stored as a
// JSON column on the ride.
type RideSchedule struct {
	Pickup  ScheduleStop `json:"pickup"`
	Dropoff ScheduleStop `json:"dropoff"`
	// Dates the ride runs on, "2006-01-02". Empty means every weekday.
	Dates []string `json:"dates,omitempty"`
	Kind  string   `json:"kind,omitempty"` // "pickup", "dropoff" or "pickup & dropoff"
}

// Ride is the parent-level transport contract for one student.
// DriverID/VehicleID stay nil until an operator assigns them.
type Ride struct {
	gorm.Model
	StudentID uint         `json:"student_id" gorm:"index"`
	ParentID  uint         `json:"parent_id" gorm:"index"`
	DriverID  *uint        `json:"driver_id" gorm:"index"`
	VehicleID *uint        `json:"vehicle_id" gorm:"index"`
	Schedule  RideSchedule `json:"schedule" gorm:"serializer:json"`
	Status    string       `json:"status" gorm:"index;default:requested"`

	// GeoJSON points for the schedule stops (SRID 4326), same storage
	// convention as route geometry elsewhere in the fleet tooling.
	PickupGeom  []byte `gorm:"type:bytea" json:"-"`
	DropoffGeom []byte `gorm:"type:bytea" json:"-"`

	AdminNotes string `json:"admin_notes"`

	Student Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Parent  User    `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
}
