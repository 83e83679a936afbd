package reassign

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shule_transport/internal/inventory"
	"shule_transport/internal/models"
)

// testDB creates an in-memory SQLite database with all required tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.Vehicle{},
		&models.Ride{},
		&models.DailyRide{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

type fakeNotifier struct {
	recipients []uint
	titles     []string
}

func (f *fakeNotifier) Enqueue(recipientID uint, title, message string) {
	f.recipients = append(f.recipients, recipientID)
	f.titles = append(f.titles, title)
}

type fixture struct {
	parent  models.User
	driver1 models.User
	driver2 models.User
	v1      models.Vehicle
	v2      models.Vehicle
	ride    models.Ride
}

// seed builds the worked example: D1 owns V1 (4 seats, 3 free since the
// ride holds one), D2 owns V2 (4 seats, 2 free).
func seed(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{}

	f.parent = models.User{Name: "Wanjiru", Email: "wanjiru@example.com", Role: "parent"}
	f.driver1 = models.User{Name: "Otieno", Email: "otieno@example.com", Role: "driver"}
	f.driver2 = models.User{Name: "Kamau", Email: "kamau@example.com", Role: "driver"}
	for _, u := range []*models.User{&f.parent, &f.driver1, &f.driver2} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	student := models.Student{Name: "Amani", ParentID: f.parent.ID}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}

	f.v1 = models.Vehicle{DriverID: f.driver1.ID, SeatCount: 4, AvailableSeats: 3, Status: models.VehicleActive}
	f.v2 = models.Vehicle{DriverID: f.driver2.ID, SeatCount: 4, AvailableSeats: 2, Status: models.VehicleActive}
	for _, v := range []*models.Vehicle{&f.v1, &f.v2} {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("seed vehicle: %v", err)
		}
	}

	f.ride = models.Ride{
		StudentID: student.ID,
		ParentID:  f.parent.ID,
		DriverID:  &f.driver1.ID,
		VehicleID: &f.v1.ID,
		Status:    models.RideOngoing,
	}
	if err := db.Create(&f.ride).Error; err != nil {
		t.Fatalf("seed ride: %v", err)
	}
	return f
}

func seedTrip(t *testing.T, db *gorm.DB, f *fixture, status string, daysFromNow int) models.DailyRide {
	t.Helper()
	trip := models.DailyRide{
		RideID:    f.ride.ID,
		DriverID:  f.driver1.ID,
		VehicleID: f.v1.ID,
		Kind:      models.KindPickup,
		Date:      models.DateOnly(time.Now().AddDate(0, 0, daysFromNow)),
		Status:    status,
	}
	if err := db.Create(&trip).Error; err != nil {
		t.Fatalf("seed trip: %v", err)
	}
	return trip
}

func seats(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var v models.Vehicle
	if err := db.First(&v, id).Error; err != nil {
		t.Fatalf("reload vehicle: %v", err)
	}
	return v.AvailableSeats
}

func TestRide_Success(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	future := seedTrip(t, db, f, models.TripInactive, 1)
	n := &fakeNotifier{}

	msg, err := Ride(db, n, f.ride.ID, f.driver1.ID, f.driver2.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg, "Kamau") {
		t.Errorf("confirmation = %q, want it to name the new driver", msg)
	}

	var ride models.Ride
	db.First(&ride, f.ride.ID)
	if ride.DriverID == nil || *ride.DriverID != f.driver2.ID {
		t.Errorf("ride driver = %v, want %d", ride.DriverID, f.driver2.ID)
	}
	if ride.VehicleID == nil || *ride.VehicleID != f.v2.ID {
		t.Errorf("ride vehicle = %v, want %d", ride.VehicleID, f.v2.ID)
	}

	var trip models.DailyRide
	db.First(&trip, future.ID)
	if trip.DriverID != f.driver2.ID || trip.VehicleID != f.v2.ID {
		t.Errorf("future trip points at driver=%d vehicle=%d, want %d/%d",
			trip.DriverID, trip.VehicleID, f.driver2.ID, f.v2.ID)
	}

	if got := seats(t, db, f.v1.ID); got != 4 {
		t.Errorf("old vehicle seats = %d, want 4", got)
	}
	if got := seats(t, db, f.v2.ID); got != 1 {
		t.Errorf("new vehicle seats = %d, want 1", got)
	}

	if len(n.recipients) != 1 || n.recipients[0] != f.parent.ID {
		t.Errorf("notified %v, want exactly the parent %d", n.recipients, f.parent.ID)
	}
}

func TestRide_FinishedTripsKeepHistory(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	finished := seedTrip(t, db, f, models.TripFinished, -1)
	pending := seedTrip(t, db, f, models.TripInactive, 1)

	if _, err := Ride(db, nil, f.ride.ID, f.driver1.ID, f.driver2.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var trip models.DailyRide
	db.First(&trip, finished.ID)
	if trip.DriverID != f.driver1.ID || trip.VehicleID != f.v1.ID {
		t.Errorf("finished trip was rewritten to driver=%d vehicle=%d", trip.DriverID, trip.VehicleID)
	}

	db.First(&trip, pending.ID)
	if trip.DriverID != f.driver2.ID {
		t.Errorf("pending trip driver = %d, want %d", trip.DriverID, f.driver2.ID)
	}
}

func TestRide_NoCapacity(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	db.Model(&models.Vehicle{}).Where("id = ?", f.v2.ID).Update("available_seats", 0)

	_, err := Ride(db, nil, f.ride.ID, f.driver1.ID, f.driver2.ID)
	if !errors.Is(err, inventory.ErrNoCapacity) {
		t.Fatalf("error = %v, want ErrNoCapacity", err)
	}

	// Nothing may have changed.
	var ride models.Ride
	db.First(&ride, f.ride.ID)
	if *ride.DriverID != f.driver1.ID {
		t.Errorf("ride driver changed to %d", *ride.DriverID)
	}
	if got := seats(t, db, f.v1.ID); got != 3 {
		t.Errorf("old vehicle seats = %d, want 3", got)
	}
	if got := seats(t, db, f.v2.ID); got != 0 {
		t.Errorf("new vehicle seats = %d, want 0", got)
	}
}

func TestRide_TerminalStatusRejected(t *testing.T) {
	db := testDB(t)

	for _, status := range []string{models.RideCompleted, models.RideCancelled} {
		f := seed(t, db)
		db.Model(&models.Ride{}).Where("id = ?", f.ride.ID).Update("status", status)

		_, err := Ride(db, nil, f.ride.ID, f.driver1.ID, f.driver2.ID)
		if !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("status %s: error = %v, want ErrInvalidStatus", status, err)
		}
		if !strings.Contains(err.Error(), status) {
			t.Errorf("status %s: error %q does not name the current status", status, err)
		}

		// The reserved seat must have been compensated away.
		if got := seats(t, db, f.v2.ID); got != 2 {
			t.Errorf("status %s: new vehicle seats = %d, want 2", status, got)
		}
		if got := seats(t, db, f.v1.ID); got != 3 {
			t.Errorf("status %s: old vehicle seats = %d, want 3", status, got)
		}

		// Fresh fixture rows per status; drop the old ones.
		db.Exec("DELETE FROM rides")
		db.Exec("DELETE FROM vehicles")
		db.Exec("DELETE FROM users")
		db.Exec("DELETE FROM students")
	}
}

func TestRide_StaleOldDriver(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)

	_, err := Ride(db, nil, f.ride.ID, f.driver2.ID, f.driver2.ID)
	if !errors.Is(err, ErrRideNotFound) {
		t.Fatalf("error = %v, want ErrRideNotFound for stale old driver", err)
	}
	if got := seats(t, db, f.v2.ID); got != 2 {
		t.Errorf("new vehicle seats = %d, want 2 after compensation", got)
	}
}

func TestRide_DriverNotFound(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)

	if _, err := Ride(db, nil, f.ride.ID, f.driver1.ID, 999); !errors.Is(err, ErrDriverNotFound) {
		t.Fatalf("error = %v, want ErrDriverNotFound", err)
	}

	// Parents are not drivers, whatever their id.
	if _, err := Ride(db, nil, f.ride.ID, f.driver1.ID, f.parent.ID); !errors.Is(err, ErrDriverNotFound) {
		t.Fatalf("error = %v, want ErrDriverNotFound for non-driver user", err)
	}
}

func TestRide_NoActiveVehicle(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)
	db.Model(&models.Vehicle{}).Where("id = ?", f.v2.ID).Update("status", models.VehicleInactive)

	if _, err := Ride(db, nil, f.ride.ID, f.driver1.ID, f.driver2.ID); !errors.Is(err, ErrNoActiveVehicle) {
		t.Fatalf("error = %v, want ErrNoActiveVehicle", err)
	}
}

func TestAllRides_MovesWholeBook(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)

	// A second active ride and a completed one on D1.
	second := models.Ride{
		StudentID: f.ride.StudentID, ParentID: f.parent.ID,
		DriverID: &f.driver1.ID, VehicleID: &f.v1.ID, Status: models.RidePending,
	}
	done := models.Ride{
		StudentID: f.ride.StudentID, ParentID: f.parent.ID,
		DriverID: &f.driver1.ID, VehicleID: &f.v1.ID, Status: models.RideCompleted,
	}
	if err := db.Create(&second).Error; err != nil {
		t.Fatalf("seed second ride: %v", err)
	}
	if err := db.Create(&done).Error; err != nil {
		t.Fatalf("seed completed ride: %v", err)
	}
	db.Model(&models.Vehicle{}).Where("id = ?", f.v1.ID).Update("available_seats", 2)

	report, err := AllRides(db, nil, f.driver1.ID, f.driver2.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Moved != 2 || len(report.Failures) != 0 {
		t.Fatalf("report = %+v, want 2 moved and no failures", report)
	}

	var ride models.Ride
	db.First(&ride, done.ID)
	if *ride.DriverID != f.driver1.ID {
		t.Errorf("completed ride was moved")
	}

	if got := seats(t, db, f.v1.ID); got != 4 {
		t.Errorf("old vehicle seats = %d, want 4", got)
	}
	if got := seats(t, db, f.v2.ID); got != 0 {
		t.Errorf("new vehicle seats = %d, want 0", got)
	}
}

func TestAllRides_BestEffortOnCapacity(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)

	second := models.Ride{
		StudentID: f.ride.StudentID, ParentID: f.parent.ID,
		DriverID: &f.driver1.ID, VehicleID: &f.v1.ID, Status: models.RideOngoing,
	}
	if err := db.Create(&second).Error; err != nil {
		t.Fatalf("seed second ride: %v", err)
	}

	// Only one seat left on the target.
	db.Model(&models.Vehicle{}).Where("id = ?", f.v2.ID).Update("available_seats", 1)

	report, err := AllRides(db, nil, f.driver1.ID, f.driver2.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Moved != 1 {
		t.Errorf("moved = %d, want 1", report.Moved)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures = %+v, want exactly 1", report.Failures)
	}
	if !strings.Contains(report.Failures[0].Reason, "no available seats") {
		t.Errorf("failure reason = %q, want a capacity message", report.Failures[0].Reason)
	}
	if got := seats(t, db, f.v2.ID); got != 0 {
		t.Errorf("new vehicle seats = %d, want 0", got)
	}
}

func TestAllRides_UpfrontValidation(t *testing.T) {
	db := testDB(t)
	f := seed(t, db)

	if _, err := AllRides(db, nil, f.driver1.ID, 999); !errors.Is(err, ErrDriverNotFound) {
		t.Fatalf("error = %v, want ErrDriverNotFound", err)
	}
}
