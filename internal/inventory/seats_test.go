package inventory

import (
	"errors"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

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

func seedVehicle(t *testing.T, db *gorm.DB, seats, available int, status string) *models.Vehicle {
	t.Helper()
	v := &models.Vehicle{
		DriverID:            1,
		VehicleRegistration: "KDA 123A",
		SeatCount:           seats,
		AvailableSeats:      available,
		Status:              status,
	}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	return v
}

func availableSeats(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var v models.Vehicle
	if err := db.First(&v, id).Error; err != nil {
		t.Fatalf("reload vehicle: %v", err)
	}
	return v.AvailableSeats
}

func TestReserveSeat_Decrements(t *testing.T) {
	db := testDB(t)
	v := seedVehicle(t, db, 4, 3, models.VehicleActive)

	if err := ReserveSeat(db, v.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := availableSeats(t, db, v.ID); got != 2 {
		t.Errorf("available_seats = %d, want 2", got)
	}
}

func TestReserveSeat_NoCapacity(t *testing.T) {
	db := testDB(t)
	v := seedVehicle(t, db, 4, 0, models.VehicleActive)

	err := ReserveSeat(db, v.ID)
	if !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("error = %v, want ErrNoCapacity", err)
	}
	if got := availableSeats(t, db, v.ID); got != 0 {
		t.Errorf("available_seats = %d, want 0", got)
	}
}

func TestReserveSeat_Inactive(t *testing.T) {
	db := testDB(t)
	v := seedVehicle(t, db, 4, 4, models.VehicleInactive)

	err := ReserveSeat(db, v.ID)
	if !errors.Is(err, ErrVehicleInactive) {
		t.Fatalf("error = %v, want ErrVehicleInactive", err)
	}
	if got := availableSeats(t, db, v.ID); got != 4 {
		t.Errorf("available_seats = %d, want 4", got)
	}
}

func TestReserveSeat_NotFound(t *testing.T) {
	db := testDB(t)

	if err := ReserveSeat(db, 99); !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("error = %v, want ErrVehicleNotFound", err)
	}
}

func TestReserveSeat_LastSeatOnlyOnce(t *testing.T) {
	db := testDB(t)
	v := seedVehicle(t, db, 4, 1, models.VehicleActive)

	first := ReserveSeat(db, v.ID)
	second := ReserveSeat(db, v.ID)

	if first != nil {
		t.Fatalf("first reserve: %v", first)
	}
	if !errors.Is(second, ErrNoCapacity) {
		t.Fatalf("second reserve = %v, want ErrNoCapacity", second)
	}
	if got := availableSeats(t, db, v.ID); got != 0 {
		t.Errorf("available_seats = %d, want 0", got)
	}
}

func TestReserveSeat_ConcurrentLastSeat(t *testing.T) {
	db := testDB(t)
	// A second pooled connection would open its own in-memory database,
	// so the race runs on a single connection; the callers still race.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	v := seedVehicle(t, db, 1, 1, models.VehicleActive)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ReserveSeat(db, v.ID)
		}()
	}
	wg.Wait()
	close(errs)

	var ok, noCapacity int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrNoCapacity):
			noCapacity++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || noCapacity != 1 {
		t.Errorf("got %d successes and %d capacity errors, want exactly one of each", ok, noCapacity)
	}
	if got := availableSeats(t, db, v.ID); got != 0 {
		t.Errorf("available_seats = %d, want 0", got)
	}
}

func TestReleaseSeat_Increments(t *testing.T) {
	db := testDB(t)
	v := seedVehicle(t, db, 4, 2, models.VehicleActive)

	if err := ReleaseSeat(db, v.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := availableSeats(t, db, v.ID); got != 3 {
		t.Errorf("available_seats = %d, want 3", got)
	}
}

func TestReleaseSeat_ClampsAtSeatCount(t *testing.T) {
	db := testDB(t)
	v := seedVehicle(t, db, 4, 4, models.VehicleActive)

	// A release with no matching reservation is logged and tolerated,
	// but the counter must not overflow.
	if err := ReleaseSeat(db, v.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := availableSeats(t, db, v.ID); got != 4 {
		t.Errorf("available_seats = %d, want 4", got)
	}
}

func TestReleaseSeat_NotFound(t *testing.T) {
	db := testDB(t)

	if err := ReleaseSeat(db, 42); !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("error = %v, want ErrVehicleNotFound", err)
	}
}

func TestSeatConservation(t *testing.T) {
	db := testDB(t)
	v := seedVehicle(t, db, 3, 3, models.VehicleActive)

	// Any sequence of reserve/release keeps the counter in [0, seat_count].
	ops := []func(*gorm.DB, uint) error{
		ReserveSeat, ReserveSeat, ReleaseSeat, ReserveSeat, ReserveSeat,
		ReserveSeat, ReleaseSeat, ReleaseSeat, ReleaseSeat, ReleaseSeat,
	}
	for i, op := range ops {
		op(db, v.ID)
		got := availableSeats(t, db, v.ID)
		if got < 0 || got > 3 {
			t.Fatalf("after op %d: available_seats = %d, out of [0,3]", i, got)
		}
	}
	if got := availableSeats(t, db, v.ID); got != 3 {
		t.Errorf("final available_seats = %d, want 3", got)
	}
}

func TestAssignedCount(t *testing.T) {
	db := testDB(t)
	v := seedVehicle(t, db, 4, 4, models.VehicleActive)

	driverID := uint(7)
	for _, status := range []string{models.RideOngoing, models.RidePending, models.RideCompleted} {
		ride := models.Ride{
			StudentID: 1,
			ParentID:  2,
			DriverID:  &driverID,
			VehicleID: &v.ID,
			Status:    status,
		}
		if err := db.Create(&ride).Error; err != nil {
			t.Fatalf("seed ride: %v", err)
		}
	}

	n, err := AssignedCount(db, v.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Completed rides no longer hold a seat.
	if n != 2 {
		t.Errorf("assigned count = %d, want 2", n)
	}
}

func TestActiveVehicleFor(t *testing.T) {
	db := testDB(t)
	inactive := seedVehicle(t, db, 4, 4, models.VehicleInactive)
	inactive.DriverID = 5
	db.Save(inactive)

	if _, err := ActiveVehicleFor(db, 5); !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("error = %v, want ErrVehicleNotFound for driver with only inactive vehicle", err)
	}

	active := seedVehicle(t, db, 4, 4, models.VehicleActive)
	active.DriverID = 5
	db.Save(active)

	v, err := ActiveVehicleFor(db, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ID != active.ID {
		t.Errorf("vehicle id = %d, want %d", v.ID, active.ID)
	}
}
