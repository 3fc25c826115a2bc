package db

import (
	"context"
	"time"

	"ms-busline/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// GetTripByID → fetch one trip by its ID
func (d *DB) GetTripByID(id string) (*models.Trip, error) {
	var trip models.Trip
	err := d.Bun.NewSelect().
		Model(&trip).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// ListTrips → all trips that are not cancelled
func (d *DB) ListTrips() ([]models.Trip, error) {
	var trips []models.Trip
	err := d.Bun.NewSelect().
		Model(&trips).
		Where("status != ?", models.TripStatusCancelled).
		Order("date ASC", "departure_time ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return trips, nil
}

// ListByBusAndDay → the bus's trips whose date falls inside the
// calendar day starting at dayStart
func (d *DB) ListByBusAndDay(busID string, dayStart time.Time) ([]models.Trip, error) {
	var trips []models.Trip
	err := d.Bun.NewSelect().
		Model(&trips).
		Where("bus_id = ?", busID).
		Where("date >= ?", dayStart).
		Where("date < ?", dayStart.AddDate(0, 0, 1)).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return trips, nil
}

// CreateTrip → insert new trip
func (d *DB) CreateTrip(trip models.Trip) error {
	_, err := d.Bun.NewInsert().Model(&trip).Exec(context.Background())
	return err
}

// UpdateTrip → update allowed fields
func (d *DB) UpdateTrip(trip models.Trip) error {
	_, err := d.Bun.NewUpdate().
		Model(&trip).
		Column("bus_id", "origin", "destination", "date", "departure_time", "arrival_time", "price", "status").
		Where("id = ?", trip.ID).
		Exec(context.Background())
	return err
}

// UpdateDrivers → replace the driver snapshot on a trip
func (d *DB) UpdateDrivers(tripID string, driverIDs []string) error {
	trip := models.Trip{ID: tripID, DriverIDs: driverIDs}
	_, err := d.Bun.NewUpdate().
		Model(&trip).
		Column("driver_ids").
		Where("id = ?", tripID).
		Exec(context.Background())
	return err
}

// DeleteTrip → remove the trip row
func (d *DB) DeleteTrip(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Trip)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

// ActiveTripCountByBus → how many active trips still reference a bus
func (d *DB) ActiveTripCountByBus(busID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Trip)(nil)).
		Where("bus_id = ?", busID).
		Where("status = ?", models.TripStatusActive).
		Count(context.Background())
}

// SelectForPricing → non-cancelled trips matching the filter
func (d *DB) SelectForPricing(f models.PriceFilter) ([]models.Trip, error) {
	var trips []models.Trip
	q := d.Bun.NewSelect().
		Model(&trips).
		Where("status != ?", models.TripStatusCancelled)
	if !f.Start.IsZero() {
		q = q.Where("date >= ?", f.Start)
	}
	if !f.End.IsZero() {
		q = q.Where("date < ?", f.End.AddDate(0, 0, 1))
	}
	if f.Origin != "" {
		q = q.Where("origin = ?", f.Origin)
	}
	if f.Destination != "" {
		q = q.Where("destination = ?", f.Destination)
	}
	if f.BusID != "" {
		q = q.Where("bus_id = ?", f.BusID)
	}
	err := q.Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return trips, nil
}

// UpdatePrice → set one trip's price, reporting whether the row still
// existed. Each bulk-update trip is written independently so a
// concurrent delete only drops that one trip from the count.
func (d *DB) UpdatePrice(tripID string, price float64) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Trip)(nil)).
		Set("price = ?", price).
		Where("id = ?", tripID).
		Exec(context.Background())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
