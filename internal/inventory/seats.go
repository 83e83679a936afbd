// Package inventory owns the vehicle seat counters. Every mutation is a
// single guarded UPDATE checked by affected-row count, so two callers
// racing for the last seat can never both win.
package inventory

import (
	"errors"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shule_transport/internal/models"
)

var (
	ErrVehicleNotFound = errors.New("inventory: vehicle not found")
	ErrVehicleInactive = errors.New("inventory: vehicle is not active")
	ErrNoCapacity      = errors.New("inventory: no available seats")
)

// ReserveSeat atomically takes one seat on an active vehicle. The
// decrement and its capacity check are one statement; RowsAffected==0
// is resolved into the precise failure by a follow-up read.
func ReserveSeat(db *gorm.DB, vehicleID uint) error {
	res := db.Model(&models.Vehicle{}).
		Where("id = ? AND status = ? AND available_seats > 0", vehicleID, models.VehicleActive).
		UpdateColumn("available_seats", gorm.Expr("available_seats - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var v models.Vehicle
	if err := db.First(&v, vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVehicleNotFound
		}
		return err
	}
	if v.Status != models.VehicleActive {
		return ErrVehicleInactive
	}
	return ErrNoCapacity
}

// ReleaseSeat atomically returns one seat. The guard keeps
// available_seats from ever exceeding seat_count; a release that would
// overflow means an earlier reservation went missing, which is logged
// as a consistency violation and otherwise tolerated.
func ReleaseSeat(db *gorm.DB, vehicleID uint) error {
	res := db.Model(&models.Vehicle{}).
		Where("id = ? AND available_seats < seat_count", vehicleID).
		UpdateColumn("available_seats", gorm.Expr("available_seats + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var v models.Vehicle
	if err := db.First(&v, vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVehicleNotFound
		}
		return err
	}
	logrus.WithFields(logrus.Fields{
		"vehicle_id":      vehicleID,
		"seat_count":      v.SeatCount,
		"available_seats": v.AvailableSeats,
	}).Warn("inventory: seat release without a matching reservation")
	return nil
}

// ActiveVehicleFor returns the driver's active vehicle, or
// ErrVehicleNotFound if they have none.
func ActiveVehicleFor(db *gorm.DB, driverID uint) (*models.Vehicle, error) {
	var v models.Vehicle
	err := db.Where("driver_id = ? AND status = ?", driverID, models.VehicleActive).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &v, nil
}

// AssignedCount counts the non-terminal rides currently holding a seat
// on the vehicle. seat_count - available_seats must equal this.
func AssignedCount(db *gorm.DB, vehicleID uint) (int64, error) {
	var n int64
	err := db.Model(&models.Ride{}).
		Where("vehicle_id = ? AND status IN ?", vehicleID,
			[]string{models.RideRequested, models.RidePending, models.RideOngoing}).
		Count(&n).Error
	return n, err
}
