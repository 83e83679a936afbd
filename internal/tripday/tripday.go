// Package tripday is the driver-facing daily operation: today's trip
// board, bulk start/end of a leg, and per-student completion. Status
// changes are guarded UPDATEs; notification fanout is best-effort and
// never blocks or fails the mutation.
package tripday

import (
	"errors"
	"fmt"
	"time"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shule_transport/internal/models"
)

var (
	ErrTripNotFound    = errors.New("tripday: trip not found")
	ErrStudentNotFound = errors.New("tripday: no trip for that student today")
	ErrWrongKind       = errors.New("tripday: trip is not of that kind")
)

// Notifier is the slice of the notification dispatcher this package
// needs. Fire-and-forget; implementations must not block.
type Notifier interface {
	Enqueue(recipientID uint, title, message string)
}

// Summary is the driver's trip board for one date.
type Summary struct {
	Trips          []models.DailyRide `json:"trips"`
	PickupList     []models.DailyRide `json:"pickup_list"`
	DropoffList    []models.DailyRide `json:"dropoff_list"`
	TotalTripCount int                `json:"total_trip_count"`
	UpcomingCount  int                `json:"upcoming_count"`
}

// StudentStatus is one row of the driver's per-student checklist.
type StudentStatus struct {
	StudentID   uint       `json:"student_id"`
	StudentName string     `json:"student_name"`
	TripID      uint       `json:"trip_id"`
	Status      string     `json:"status"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

// Today aggregates the driver's trips for the date.
func Today(db *gorm.DB, driverID uint, date time.Time) (*Summary, error) {
	var trips []models.DailyRide
	err := db.Preload("Ride").Preload("Ride.Student").
		Where("driver_id = ? AND date = ?", driverID, models.DateOnly(date)).
		Order("kind, id").
		Find(&trips).Error
	if err != nil {
		return nil, err
	}

	s := &Summary{Trips: trips, TotalTripCount: len(trips)}
	for _, t := range trips {
		switch t.Kind {
		case models.KindPickup:
			s.PickupList = append(s.PickupList, t)
		case models.KindDropoff:
			s.DropoffList = append(s.DropoffList, t)
		}
		if t.Status == models.TripInactive {
			s.UpcomingCount++
		}
	}
	return s, nil
}

// StartAll activates every inactive trip of the kind for the driver's
// date, then tells each affected parent the bus is on its way. Trips
// already started (or finished) are left alone and their parents are
// not re-notified.
func StartAll(db *gorm.DB, n Notifier, driverID uint, kind string, date time.Time) (int, error) {
	trips, err := tripsMatching(db, driverID, kind, date, "status = ?", models.TripInactive)
	if err != nil {
		return 0, err
	}
	if len(trips) == 0 {
		return 0, nil
	}

	res := db.Model(&models.DailyRide{}).
		Where("id IN ? AND status = ?", tripIDs(trips), models.TripInactive).
		Updates(map[string]interface{}{
			"status":     models.TripActive,
			"start_time": time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	fanOut(db, n, trips, kind, startTitle(kind), startMessage(kind))
	return int(res.RowsAffected), nil
}

// EndAll finishes every unfinished trip of the kind for the driver's
// date and notifies the parents of those trips. Parents of trips
// already marked through the per-student flow get nothing here; their
// notification went out when the student was marked.
func EndAll(db *gorm.DB, n Notifier, driverID uint, kind string, date time.Time) (int, error) {
	trips, err := tripsMatching(db, driverID, kind, date, "status <> ?", models.TripFinished)
	if err != nil {
		return 0, err
	}
	if len(trips) == 0 {
		return 0, nil
	}

	res := db.Model(&models.DailyRide{}).
		Where("id IN ? AND status <> ?", tripIDs(trips), models.TripFinished).
		Updates(map[string]interface{}{
			"status":   models.TripFinished,
			"end_time": time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	fanOut(db, n, trips, kind, endTitle(kind), endMessage(kind))
	return int(res.RowsAffected), nil
}

// StartTrip activates a single trip of the expected kind. Used by the
// driver app when starting one leg for one student.
func StartTrip(db *gorm.DB, n Notifier, driverID, tripID uint, kind string, date time.Time) error {
	var trip models.DailyRide
	err := db.Preload("Ride").
		Where("id = ? AND driver_id = ?", tripID, driverID).
		First(&trip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTripNotFound
		}
		return err
	}
	if trip.Kind != kind {
		return fmt.Errorf("%w: got %q, want %q", ErrWrongKind, trip.Kind, kind)
	}

	now := time.Now()
	res := db.Model(&models.DailyRide{}).
		Where("id = ? AND status = ?", trip.ID, models.TripInactive).
		Updates(map[string]interface{}{
			"status":     models.TripActive,
			"start_time": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		notifyParent(db, n, trip.Ride.ParentID, kind, startTitle(kind), startMessage(kind))
	}
	return nil
}

// MarkStudent finishes today's trip of the kind for one student on the
// driver's run. Returns false when the trip was already finished; the
// second call never rewrites the recorded end time.
func MarkStudent(db *gorm.DB, n Notifier, driverID, studentID uint, kind string, date time.Time) (bool, error) {
	var trip models.DailyRide
	err := db.Preload("Ride").
		Joins("JOIN rides ON rides.id = daily_rides.ride_id").
		Where("rides.student_id = ? AND daily_rides.driver_id = ? AND daily_rides.kind = ? AND daily_rides.date = ?",
			studentID, driverID, kind, models.DateOnly(date)).
		First(&trip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrStudentNotFound
		}
		return false, err
	}

	now := time.Now()
	res := db.Model(&models.DailyRide{}).
		Where("id = ? AND status <> ?", trip.ID, models.TripFinished).
		Updates(map[string]interface{}{
			"status":   models.TripFinished,
			"end_time": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	notifyParent(db, n, trip.Ride.ParentID, kind, endTitle(kind), endMessage(kind))
	return true, nil
}

// StudentsForKind joins today's trips of a kind to student identity and
// per-trip status for the driver's checklist.
func StudentsForKind(db *gorm.DB, driverID uint, kind string, date time.Time) ([]StudentStatus, error) {
	var trips []models.DailyRide
	err := db.Preload("Ride").Preload("Ride.Student").
		Where("driver_id = ? AND kind = ? AND date = ?", driverID, kind, models.DateOnly(date)).
		Order("id").
		Find(&trips).Error
	if err != nil {
		return nil, err
	}

	out := make([]StudentStatus, 0, len(trips))
	for _, t := range trips {
		out = append(out, StudentStatus{
			StudentID:   t.Ride.StudentID,
			StudentName: t.Ride.Student.Name,
			TripID:      t.ID,
			Status:      t.Status,
			EndTime:     t.EndTime,
		})
	}
	return out, nil
}

// History lists the driver's past trips, newest first.
func History(db *gorm.DB, driverID uint) ([]models.DailyRide, error) {
	var trips []models.DailyRide
	err := db.Preload("Ride").Preload("Ride.Student").
		Where("driver_id = ? AND date < ?", driverID, models.DateOnly(time.Now())).
		Order("date DESC, id DESC").
		Limit(100).
		Find(&trips).Error
	return trips, err
}

// TripDetails loads one trip with its ride, student and parent,
// enforcing that it belongs to the driver.
func TripDetails(db *gorm.DB, driverID, tripID uint) (*models.DailyRide, error) {
	var trip models.DailyRide
	err := db.Preload("Ride").Preload("Ride.Student").Preload("Ride.Parent").
		Where("id = ? AND driver_id = ?", tripID, driverID).
		First(&trip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &trip, nil
}

// tripsMatching loads the driver's trips of a kind on the date that
// match a status condition, with their rides for parent lookup. Bulk
// operations select their candidates through this before mutating, so
// the fanout covers exactly the rows the update touched.
func tripsMatching(db *gorm.DB, driverID uint, kind string, date time.Time, cond string, status string) ([]models.DailyRide, error) {
	var trips []models.DailyRide
	err := db.Preload("Ride").
		Where("driver_id = ? AND date = ? AND kind = ? AND "+cond,
			driverID, models.DateOnly(date), kind, status).
		Find(&trips).Error
	return trips, err
}

func tripIDs(trips []models.DailyRide) []uint {
	ids := make([]uint, 0, len(trips))
	for _, t := range trips {
		ids = append(ids, t.ID)
	}
	return ids
}

// fanOut notifies the parent of each given trip. Lookup failures are
// logged and swallowed; notifications never affect the caller's
// outcome.
func fanOut(db *gorm.DB, n Notifier, trips []models.DailyRide, kind, title, message string) {
	if n == nil {
		return
	}
	for _, t := range trips {
		notifyParent(db, n, t.Ride.ParentID, kind, title, message)
	}
}

// notifyParent enqueues one notification gated by the parent's
// per-event preference.
func notifyParent(db *gorm.DB, n Notifier, parentID uint, kind, title, message string) {
	if n == nil || parentID == 0 {
		return
	}
	var parent models.User
	if err := db.First(&parent, parentID).Error; err != nil {
		logrus.WithError(err).WithField("parent_id", parentID).
			Warn("tripday: parent lookup for notification failed")
		return
	}
	if kind == models.KindPickup && !parent.WantsPickupNotification() {
		return
	}
	if kind == models.KindDropoff && !parent.WantsDropoffNotification() {
		return
	}
	n.Enqueue(parent.ID, title, message)
}

func startTitle(kind string) string {
	if kind == models.KindDropoff {
		return "Dropoff started"
	}
	return "Pickup started"
}

func startMessage(kind string) string {
	if kind == models.KindDropoff {
		return "The bus has left school and is heading home."
	}
	return "The bus is on its way to pick up your child."
}

func endTitle(kind string) string {
	if kind == models.KindDropoff {
		return "Dropped off"
	}
	return "Picked up"
}

func endMessage(kind string) string {
	if kind == models.KindDropoff {
		return "Your child has been dropped off at home."
	}
	return "Your child has been picked up by the bus."
}
