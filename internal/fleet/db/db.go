package db

import (
	"context"

	"ms-busline/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- BUSES ----------------

// GetBusByID → fetch one bus by its ID
func (d *DB) GetBusByID(id string) (*models.Bus, error) {
	var bus models.Bus
	err := d.Bun.NewSelect().
		Model(&bus).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &bus, nil
}

// GetBusByPlate → fetch one bus by its license plate
func (d *DB) GetBusByPlate(plate string) (*models.Bus, error) {
	var bus models.Bus
	err := d.Bun.NewSelect().
		Model(&bus).
		Where("plate = ?", plate).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &bus, nil
}

// ListBuses → every registered bus
func (d *DB) ListBuses() ([]models.Bus, error) {
	var buses []models.Bus
	err := d.Bun.NewSelect().
		Model(&buses).
		Order("plate ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return buses, nil
}

// CreateBus → insert new bus
func (d *DB) CreateBus(bus models.Bus) error {
	_, err := d.Bun.NewInsert().Model(&bus).Exec(context.Background())
	return err
}

// UpdateBus → update allowed fields
func (d *DB) UpdateBus(bus models.Bus) error {
	_, err := d.Bun.NewUpdate().
		Model(&bus).
		Column("plate", "seat_count", "layout_rows", "layout_seats_per_row", "aisle_after", "unusable_seats").
		Where("id = ?", bus.ID).
		Exec(context.Background())
	return err
}

// DeleteBus → remove the bus row
func (d *DB) DeleteBus(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Bus)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

// ---------------- DRIVERS ----------------

// GetDriverByID → fetch one driver by ID
func (d *DB) GetDriverByID(id string) (*models.Driver, error) {
	var driver models.Driver
	err := d.Bun.NewSelect().
		Model(&driver).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

// ListDrivers → every registered driver
func (d *DB) ListDrivers() ([]models.Driver, error) {
	var drivers []models.Driver
	err := d.Bun.NewSelect().
		Model(&drivers).
		Order("name ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return drivers, nil
}

// ListAvailableDrivers → drivers with no bus assignment
func (d *DB) ListAvailableDrivers() ([]models.Driver, error) {
	var drivers []models.Driver
	err := d.Bun.NewSelect().
		Model(&drivers).
		Where("bus_id IS NULL OR bus_id = ''").
		Order("name ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return drivers, nil
}

// ListDriversByBus → drivers currently assigned to a bus
func (d *DB) ListDriversByBus(busID string) ([]models.Driver, error) {
	var drivers []models.Driver
	err := d.Bun.NewSelect().
		Model(&drivers).
		Where("bus_id = ?", busID).
		Order("name ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return drivers, nil
}

// CreateDriver → insert new driver
func (d *DB) CreateDriver(driver models.Driver) error {
	_, err := d.Bun.NewInsert().Model(&driver).Exec(context.Background())
	return err
}

// UpdateDriver → update allowed fields, including the bus assignment
func (d *DB) UpdateDriver(driver models.Driver) error {
	_, err := d.Bun.NewUpdate().
		Model(&driver).
		Column("name", "phone", "bus_id").
		Where("id = ?", driver.ID).
		Exec(context.Background())
	return err
}

// DeleteDriver → remove the driver row
func (d *DB) DeleteDriver(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Driver)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}
