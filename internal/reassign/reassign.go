// Package reassign moves rides between drivers. The protocol is
// reserve-before-commit, release-after-commit: the new vehicle's seat
// is taken first and given back if anything later fails, so the system
// is never over-capacity mid-operation.
package reassign

import (
	"errors"
	"fmt"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shule_transport/internal/inventory"
	"shule_transport/internal/models"
)

var (
	ErrDriverNotFound  = errors.New("reassign: driver not found")
	ErrNoActiveVehicle = errors.New("reassign: driver has no active vehicle")
	ErrRideNotFound    = errors.New("reassign: ride not found for that driver")
	ErrInvalidStatus   = errors.New("reassign: ride is not in a reassignable status")
)

// Notifier is the slice of the notification dispatcher this package
// needs. Fire-and-forget; implementations must not block.
type Notifier interface {
	Enqueue(recipientID uint, title, message string)
}

// Report is the outcome of a bulk reassignment. The batch is
// best-effort: one ride's failure never blocks or corrupts another's.
type Report struct {
	Moved    int
	Failures []RideFailure
}

type RideFailure struct {
	RideID uint
	Reason string
}

// Ride moves a single ride from oldDriverID to newDriverID's active
// vehicle and returns a confirmation naming the new driver.
func Ride(db *gorm.DB, n Notifier, rideID, oldDriverID, newDriverID uint) (string, error) {
	driver, vehicle, err := resolveTarget(db, newDriverID)
	if err != nil {
		return "", err
	}
	if err := moveOne(db, n, rideID, oldDriverID, driver, vehicle); err != nil {
		return "", err
	}
	return fmt.Sprintf("Ride reassigned to %s", driver.Name), nil
}

// AllRides moves every reassignable ride currently owned by oldDriverID
// onto newDriverID's active vehicle, one ride at a time. Upfront
// validation failures abort the batch; per-ride failures are reported.
func AllRides(db *gorm.DB, n Notifier, oldDriverID, newDriverID uint) (*Report, error) {
	driver, vehicle, err := resolveTarget(db, newDriverID)
	if err != nil {
		return nil, err
	}

	var rides []models.Ride
	if err := db.Where("driver_id = ? AND status IN ?", oldDriverID,
		[]string{models.RideRequested, models.RidePending, models.RideOngoing}).
		Find(&rides).Error; err != nil {
		return nil, err
	}

	report := &Report{}
	for _, ride := range rides {
		if err := moveOne(db, n, ride.ID, oldDriverID, driver, vehicle); err != nil {
			report.Failures = append(report.Failures, RideFailure{RideID: ride.ID, Reason: err.Error()})
			continue
		}
		report.Moved++
	}
	return report, nil
}

// resolveTarget validates the destination driver and finds the vehicle
// that will be absorbing the rides.
func resolveTarget(db *gorm.DB, newDriverID uint) (*models.User, *models.Vehicle, error) {
	var driver models.User
	err := db.Where("id = ? AND role = ?", newDriverID, "driver").First(&driver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDriverNotFound
		}
		return nil, nil, err
	}

	vehicle, err := inventory.ActiveVehicleFor(db, driver.ID)
	if err != nil {
		if errors.Is(err, inventory.ErrVehicleNotFound) {
			return nil, nil, ErrNoActiveVehicle
		}
		return nil, nil, err
	}
	return &driver, vehicle, nil
}

// moveOne runs the per-ride protocol: reserve a seat on the new
// vehicle, commit the ride and daily-ride re-pointing in one
// transaction, then release the old vehicle's seat. A failed commit
// triggers a compensating release on the new vehicle.
func moveOne(db *gorm.DB, n Notifier, rideID, oldDriverID uint, newDriver *models.User, newVehicle *models.Vehicle) error {
	if err := inventory.ReserveSeat(db, newVehicle.ID); err != nil {
		return err
	}

	var oldVehicleID *uint
	var parentID uint
	err := db.Transaction(func(tx *gorm.DB) error {
		var ride models.Ride
		err := tx.Where("id = ? AND driver_id = ?", rideID, oldDriverID).First(&ride).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRideNotFound
			}
			return err
		}
		if !models.Reassignable(ride.Status) {
			return fmt.Errorf("%w: status is %q", ErrInvalidStatus, ride.Status)
		}

		oldVehicleID = ride.VehicleID
		parentID = ride.ParentID

		newDriverID := newDriver.ID
		newVehicleID := newVehicle.ID
		if err := tx.Model(&ride).Updates(map[string]interface{}{
			"driver_id":  newDriverID,
			"vehicle_id": newVehicleID,
		}).Error; err != nil {
			return err
		}

		// Finished trip rows are history and keep their original
		// driver/vehicle attribution.
		return tx.Model(&models.DailyRide{}).
			Where("ride_id = ? AND status <> ?", ride.ID, models.TripFinished).
			Updates(map[string]interface{}{
				"driver_id":  newDriverID,
				"vehicle_id": newVehicleID,
			}).Error
	})
	if err != nil {
		if relErr := inventory.ReleaseSeat(db, newVehicle.ID); relErr != nil {
			logrus.WithError(relErr).WithField("vehicle_id", newVehicle.ID).
				Error("reassign: compensating seat release failed")
		}
		return err
	}

	// Release after commit. A missing old vehicle is tolerated: the
	// ride may never have had one.
	if oldVehicleID != nil {
		if err := inventory.ReleaseSeat(db, *oldVehicleID); err != nil &&
			!errors.Is(err, inventory.ErrVehicleNotFound) {
			logrus.WithError(err).WithField("vehicle_id", *oldVehicleID).
				Warn("reassign: old vehicle seat release failed")
		}
	}

	if n != nil && parentID != 0 {
		n.Enqueue(parentID, "Driver changed",
			fmt.Sprintf("Your child's ride is now handled by %s.", newDriver.Name))
	}
	return nil
}
