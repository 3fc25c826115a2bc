package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"ms-busline/internal/models"
	"ms-busline/internal/reservation/db"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	if err := bunDB.ResetModel(context.Background(), (*models.Reservation)(nil)); err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })

	return &db.DB{Bun: bunDB}
}

func sampleReservation(id string, seat int) models.Reservation {
	return models.Reservation{
		ID:         id,
		TripID:     "trip1",
		SeatNumber: seat,
		FirstName:  "Ayse",
		LastName:   "Yilmaz",
		Phone:      "+90-533-111-2233",
		Status:     models.ReservationStatusActive,
		CreatedAt:  time.Now().Round(time.Second),
	}
}

func TestCreateAndGetReservation(t *testing.T) {
	store := setupTestDB(t)

	r := sampleReservation("r1", 5)
	if err := store.CreateReservation(r); err != nil {
		t.Fatalf("Failed to create reservation: %v", err)
	}

	got, err := store.GetReservationByID("r1")
	if err != nil {
		t.Fatalf("Failed to get reservation: %v", err)
	}
	if got.SeatNumber != 5 || got.TripID != "trip1" || got.Status != models.ReservationStatusActive {
		t.Errorf("Retrieved reservation does not match: %+v", got)
	}
}

func TestGetActiveBySeat(t *testing.T) {
	store := setupTestDB(t)

	if err := store.CreateReservation(sampleReservation("r1", 5)); err != nil {
		t.Fatalf("Failed to create reservation: %v", err)
	}

	got, err := store.GetActiveBySeat("trip1", 5)
	if err != nil {
		t.Fatalf("Expected active reservation on seat 5: %v", err)
	}
	if got.ID != "r1" {
		t.Errorf("Expected r1, got %s", got.ID)
	}

	// A free seat surfaces as sql.ErrNoRows.
	if _, err := store.GetActiveBySeat("trip1", 6); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows for a free seat, got %v", err)
	}

	// A cancelled reservation does not hold the seat.
	cancelled := sampleReservation("r2", 7)
	cancelled.Status = models.ReservationStatusCancelled
	if err := store.CreateReservation(cancelled); err != nil {
		t.Fatalf("Failed to create reservation: %v", err)
	}
	if _, err := store.GetActiveBySeat("trip1", 7); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows for a cancelled seat, got %v", err)
	}
}

func TestOccupiedSeats(t *testing.T) {
	store := setupTestDB(t)

	for i, id := range []string{"r1", "r2", "r3"} {
		r := sampleReservation(id, 10-i*2) // seats 10, 8, 6
		if err := store.CreateReservation(r); err != nil {
			t.Fatalf("Failed to create reservation: %v", err)
		}
	}
	cancelled := sampleReservation("r4", 4)
	cancelled.Status = models.ReservationStatusCancelled
	if err := store.CreateReservation(cancelled); err != nil {
		t.Fatalf("Failed to create reservation: %v", err)
	}

	seats, err := store.OccupiedSeats("trip1")
	if err != nil {
		t.Fatalf("Failed to list occupied seats: %v", err)
	}
	want := []int{6, 8, 10}
	if len(seats) != len(want) {
		t.Fatalf("Expected %v, got %v", want, seats)
	}
	for i := range want {
		if seats[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, seats)
			break
		}
	}
}

func TestCascadeCancelByTrip(t *testing.T) {
	store := setupTestDB(t)

	for i, id := range []string{"r1", "r2"} {
		if err := store.CreateReservation(sampleReservation(id, i+1)); err != nil {
			t.Fatalf("Failed to create reservation: %v", err)
		}
	}
	other := sampleReservation("r3", 1)
	other.TripID = "trip2"
	if err := store.CreateReservation(other); err != nil {
		t.Fatalf("Failed to create reservation: %v", err)
	}

	cancelled, err := store.CascadeCancelByTrip("trip1")
	if err != nil {
		t.Fatalf("Failed to cascade cancel: %v", err)
	}
	if cancelled != 2 {
		t.Errorf("Expected 2 cancelled, got %d", cancelled)
	}

	count, err := store.ActiveCountByTrip("trip1")
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 active on trip1, got %d", count)
	}

	count, err = store.ActiveCountByTrip("trip2")
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected trip2 untouched, got %d active", count)
	}

	// Second cascade finds nothing left to flip.
	cancelled, err = store.CascadeCancelByTrip("trip1")
	if err != nil {
		t.Fatalf("Failed to cascade cancel: %v", err)
	}
	if cancelled != 0 {
		t.Errorf("Expected 0 on repeat, got %d", cancelled)
	}
}

func TestUpdateReservation(t *testing.T) {
	store := setupTestDB(t)

	r := sampleReservation("r1", 5)
	if err := store.CreateReservation(r); err != nil {
		t.Fatalf("Failed to create reservation: %v", err)
	}

	r.SeatNumber = 9
	r.FirstName = "Fatma"
	if err := store.UpdateReservation(r); err != nil {
		t.Fatalf("Failed to update reservation: %v", err)
	}

	got, err := store.GetReservationByID("r1")
	if err != nil {
		t.Fatalf("Failed to get reservation: %v", err)
	}
	if got.SeatNumber != 9 || got.FirstName != "Fatma" {
		t.Errorf("Update not applied: %+v", got)
	}
}
