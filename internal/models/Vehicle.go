// internal/models/vehicle.go
package models

import "gorm.io/gorm"

// Vehicle statuses.
const (
	VehicleActive   = "active"
	VehicleInactive = "inactive"
)

// Vehicle is a driver-owned bus or van. AvailableSeats is the single
// source of truth for capacity: it is only ever moved through the
// guarded updates in internal/inventory, never by read-then-write.
type Vehicle struct {
	gorm.Model
	DriverID            uint   `json:"driver_id" gorm:"index"` // owning driver user
	VehicleRegistration string `json:"vehicle_registration"`
	VehicleModel        string `json:"vehicle_model"`
	SeatCount           int    `json:"seat_count"`
	AvailableSeats      int    `json:"available_seats"`
	Status              string `json:"status" gorm:"default:active"`
}
