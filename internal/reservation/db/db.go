package db

import (
	"context"

	"ms-busline/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// GetReservationByID → fetch one reservation by its ID
func (d *DB) GetReservationByID(id string) (*models.Reservation, error) {
	var r models.Reservation
	err := d.Bun.NewSelect().
		Model(&r).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReservation → insert new reservation
func (d *DB) CreateReservation(r models.Reservation) error {
	_, err := d.Bun.NewInsert().Model(&r).Exec(context.Background())
	return err
}

// UpdateReservation → update allowed fields
func (d *DB) UpdateReservation(r models.Reservation) error {
	_, err := d.Bun.NewUpdate().
		Model(&r).
		Column("seat_number", "first_name", "last_name", "phone", "status").
		Where("id = ?", r.ID).
		Exec(context.Background())
	return err
}

// ListByTrip → every reservation for a trip, newest first
func (d *DB) ListByTrip(tripID string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := d.Bun.NewSelect().
		Model(&reservations).
		Where("trip_id = ?", tripID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// ListAll → every reservation in the ledger
func (d *DB) ListAll() ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := d.Bun.NewSelect().
		Model(&reservations).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// GetActiveBySeat → the active reservation holding (trip, seat), if any.
// sql.ErrNoRows from the driver means the seat is free.
func (d *DB) GetActiveBySeat(tripID string, seatNumber int) (*models.Reservation, error) {
	var r models.Reservation
	err := d.Bun.NewSelect().
		Model(&r).
		Where("trip_id = ?", tripID).
		Where("seat_number = ?", seatNumber).
		Where("status = ?", models.ReservationStatusActive).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// OccupiedSeats → seat numbers with an active reservation on the trip
func (d *DB) OccupiedSeats(tripID string) ([]int, error) {
	var seats []int
	err := d.Bun.NewSelect().
		Column("seat_number").
		Table("reservations").
		Where("trip_id = ?", tripID).
		Where("status = ?", models.ReservationStatusActive).
		Order("seat_number ASC").
		Scan(context.Background(), &seats)
	if err != nil {
		return nil, err
	}
	return seats, nil
}

// ActiveCountByTrip → how many seats are actively held on the trip
func (d *DB) ActiveCountByTrip(tripID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Reservation)(nil)).
		Where("trip_id = ?", tripID).
		Where("status = ?", models.ReservationStatusActive).
		Count(context.Background())
}

// CascadeCancelByTrip → flip every active reservation on the trip to
// cancelled, returning how many were flipped. Rows are never deleted.
func (d *DB) CascadeCancelByTrip(tripID string) (int, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Reservation)(nil)).
		Set("status = ?", models.ReservationStatusCancelled).
		Where("trip_id = ?", tripID).
		Where("status = ?", models.ReservationStatusActive).
		Exec(context.Background())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
