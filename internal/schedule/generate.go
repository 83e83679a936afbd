// Package schedule expands ongoing rides into the day's trip instances.
// The expansion is idempotent per (ride, date, kind) so the nightly job
// can be re-run safely.
package schedule

import (
	"time"

	"github.com/robfig/cron/v3"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shule_transport/internal/models"
)

// GenerateDaily creates the missing DailyRide rows for every ongoing,
// fully-assigned ride that runs on the date. Returns how many rows were
// created.
func GenerateDaily(db *gorm.DB, date time.Time) (int, error) {
	day := models.DateOnly(date)

	var rides []models.Ride
	err := db.Where("status = ? AND driver_id IS NOT NULL AND vehicle_id IS NOT NULL",
		models.RideOngoing).
		Find(&rides).Error
	if err != nil {
		return 0, err
	}

	created := 0
	for _, ride := range rides {
		if !runsOn(ride.Schedule, day) {
			continue
		}
		for _, kind := range kindsFor(ride.Schedule) {
			var n int64
			err := db.Model(&models.DailyRide{}).
				Where("ride_id = ? AND date = ? AND kind = ?", ride.ID, day, kind).
				Count(&n).Error
			if err != nil {
				return created, err
			}
			if n > 0 {
				continue
			}
			trip := models.DailyRide{
				RideID:    ride.ID,
				DriverID:  *ride.DriverID,
				VehicleID: *ride.VehicleID,
				Kind:      kind,
				Date:      day,
				Status:    models.TripInactive,
			}
			if err := db.Create(&trip).Error; err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// StartCron schedules the nightly expansion shortly after midnight and
// returns the running scheduler.
func StartCron(db *gorm.DB) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("5 0 * * *", func() {
		n, err := GenerateDaily(db, time.Now())
		if err != nil {
			logrus.WithError(err).Error("schedule: daily trip generation failed")
			return
		}
		logrus.WithField("created", n).Info("schedule: daily trips generated")
	})
	if err != nil {
		logrus.WithError(err).Fatal("schedule: could not register cron job")
	}
	c.Start()
	return c
}

// runsOn reports whether the schedule covers the date. An explicit date
// list wins; otherwise the ride runs on every weekday.
func runsOn(s models.RideSchedule, day time.Time) bool {
	if len(s.Dates) > 0 {
		want := day.Format("2006-01-02")
		for _, d := range s.Dates {
			if d == want {
				return true
			}
		}
		return false
	}
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// kindsFor returns which legs the schedule generates.
func kindsFor(s models.RideSchedule) []string {
	switch s.Kind {
	case models.KindPickup:
		return []string{models.KindPickup}
	case models.KindDropoff:
		return []string{models.KindDropoff}
	default:
		return []string{models.KindPickup, models.KindDropoff}
	}
}
