package fleet

import (
	"database/sql"
	"errors"
	"fmt"

	"ms-busline/internal/fault"
	"ms-busline/internal/logger"
	"ms-busline/internal/models"

	"github.com/google/uuid"
)

type DBLayer interface {
	GetBusByID(id string) (*models.Bus, error)
	GetBusByPlate(plate string) (*models.Bus, error)
	ListBuses() ([]models.Bus, error)
	CreateBus(bus models.Bus) error
	UpdateBus(bus models.Bus) error
	DeleteBus(id string) error

	GetDriverByID(id string) (*models.Driver, error)
	ListDrivers() ([]models.Driver, error)
	ListAvailableDrivers() ([]models.Driver, error)
	ListDriversByBus(busID string) ([]models.Driver, error)
	CreateDriver(driver models.Driver) error
	UpdateDriver(driver models.Driver) error
	DeleteDriver(id string) error
}

// TripCounter reports whether trips still reference a bus; RemoveBus
// refuses to orphan an active schedule.
type TripCounter interface {
	ActiveTripCountByBus(busID string) (int, error)
}

type Service struct {
	DB     DBLayer
	Trips  TripCounter
	Logger *logger.Logger
}

func NewService(db DBLayer, trips TripCounter, log *logger.Logger) *Service {
	return &Service{DB: db, Trips: trips, Logger: log}
}

// ---------------- BUSES ----------------

// RegisterBus adds a bus to the fleet. Plates are globally unique.
func (s *Service) RegisterBus(plate string, seatCount int, layout models.SeatLayout) (*models.Bus, error) {
	if plate == "" || seatCount <= 0 {
		return nil, fault.Validation(fault.CodeMissingRequiredFields, "plate and a positive seat count are required")
	}

	existing, err := s.DB.GetBusByPlate(plate)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fault.Infra(err, "checking plate %s", plate)
	}
	if existing != nil {
		return nil, fault.Conflict(fault.CodeDuplicatePlate, "bus with plate %s already exists", plate)
	}

	bus := models.Bus{
		ID:            uuid.NewString(),
		Plate:         plate,
		SeatCount:     seatCount,
		LayoutRows:    layout.Rows,
		LayoutPerRow:  layout.SeatsPerRow,
		AisleAfter:    layout.AisleAfter,
		UnusableSeats: layout.UnusableSeats,
	}
	if err := s.DB.CreateBus(bus); err != nil {
		return nil, fault.Infra(err, "registering bus %s", plate)
	}

	s.Logger.Info("FLEET", fmt.Sprintf("registered bus %s (%s, %d seats)", bus.ID, plate, seatCount))
	return &bus, nil
}

func (s *Service) GetBus(id string) (*models.Bus, error) {
	bus, err := s.DB.GetBusByID(id)
	if err != nil {
		return nil, fault.NotFound("bus %s not found", id)
	}
	return bus, nil
}

func (s *Service) ListBuses() ([]models.Bus, error) {
	buses, err := s.DB.ListBuses()
	if err != nil {
		return nil, fault.Infra(err, "listing buses")
	}
	return buses, nil
}

// UpdateBus applies a partial update. A plate change re-checks
// uniqueness; capacity changes are not re-validated against existing
// trips.
func (s *Service) UpdateBus(id string, patch models.BusPatch) (*models.Bus, error) {
	bus, err := s.DB.GetBusByID(id)
	if err != nil {
		return nil, fault.NotFound("bus %s not found", id)
	}

	if patch.Plate != nil && *patch.Plate != bus.Plate {
		other, err := s.DB.GetBusByPlate(*patch.Plate)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fault.Infra(err, "checking plate %s", *patch.Plate)
		}
		if other != nil {
			return nil, fault.Conflict(fault.CodeDuplicatePlate, "bus with plate %s already exists", *patch.Plate)
		}
		bus.Plate = *patch.Plate
	}
	if patch.SeatCount != nil {
		if *patch.SeatCount <= 0 {
			return nil, fault.Validation(fault.CodeMissingRequiredFields, "seat count must be positive")
		}
		bus.SeatCount = *patch.SeatCount
	}
	if patch.LayoutRows != nil {
		bus.LayoutRows = *patch.LayoutRows
	}
	if patch.LayoutPerRow != nil {
		bus.LayoutPerRow = *patch.LayoutPerRow
	}
	if patch.AisleAfter != nil {
		bus.AisleAfter = patch.AisleAfter
	}
	if patch.UnusableSeats != nil {
		bus.UnusableSeats = patch.UnusableSeats
	}

	if err := s.DB.UpdateBus(*bus); err != nil {
		return nil, fault.Infra(err, "updating bus %s", id)
	}
	s.Logger.Info("FLEET", fmt.Sprintf("updated bus %s", id))
	return bus, nil
}

// RemoveBus deletes a bus unless an active trip still references it.
func (s *Service) RemoveBus(id string) error {
	if _, err := s.DB.GetBusByID(id); err != nil {
		return fault.NotFound("bus %s not found", id)
	}

	active, err := s.Trips.ActiveTripCountByBus(id)
	if err != nil {
		return fault.Infra(err, "counting trips for bus %s", id)
	}
	if active > 0 {
		return fault.State(fault.CodeBusInUse, "bus %s has %d active trips", id, active)
	}

	if err := s.DB.DeleteBus(id); err != nil {
		return fault.Infra(err, "removing bus %s", id)
	}
	s.Logger.Info("FLEET", fmt.Sprintf("removed bus %s", id))
	return nil
}

// ---------------- DRIVERS ----------------

func (s *Service) CreateDriver(name, phone, busID string) (*models.Driver, error) {
	if name == "" {
		return nil, fault.Validation(fault.CodeMissingRequiredFields, "driver name is required")
	}
	if busID != "" {
		if _, err := s.DB.GetBusByID(busID); err != nil {
			return nil, fault.NotFound("bus %s not found", busID)
		}
	}

	driver := models.Driver{
		ID:    uuid.NewString(),
		Name:  name,
		Phone: phone,
		BusID: busID,
	}
	if err := s.DB.CreateDriver(driver); err != nil {
		return nil, fault.Infra(err, "creating driver")
	}
	s.Logger.Info("FLEET", fmt.Sprintf("created driver %s (%s)", driver.ID, name))
	return &driver, nil
}

func (s *Service) GetDriver(id string) (*models.Driver, error) {
	driver, err := s.DB.GetDriverByID(id)
	if err != nil {
		return nil, fault.NotFound("driver %s not found", id)
	}
	return driver, nil
}

func (s *Service) ListDrivers() ([]models.Driver, error) {
	drivers, err := s.DB.ListDrivers()
	if err != nil {
		return nil, fault.Infra(err, "listing drivers")
	}
	return drivers, nil
}

// ListAvailableDrivers returns drivers with no bus assignment.
func (s *Service) ListAvailableDrivers() ([]models.Driver, error) {
	drivers, err := s.DB.ListAvailableDrivers()
	if err != nil {
		return nil, fault.Infra(err, "listing available drivers")
	}
	return drivers, nil
}

// ListDriversByBus returns the drivers currently assigned to a bus.
func (s *Service) ListDriversByBus(busID string) ([]models.Driver, error) {
	drivers, err := s.DB.ListDriversByBus(busID)
	if err != nil {
		return nil, fault.Infra(err, "listing drivers for bus %s", busID)
	}
	return drivers, nil
}

func (s *Service) UpdateDriver(id, name, phone string) (*models.Driver, error) {
	driver, err := s.DB.GetDriverByID(id)
	if err != nil {
		return nil, fault.NotFound("driver %s not found", id)
	}
	if name != "" {
		driver.Name = name
	}
	if phone != "" {
		driver.Phone = phone
	}
	if err := s.DB.UpdateDriver(*driver); err != nil {
		return nil, fault.Infra(err, "updating driver %s", id)
	}
	return driver, nil
}

// AssignDriver sets or clears a driver's bus. A driver already
// assigned to a different bus must be cleared first; a driver drives
// at most one bus at a time.
func (s *Service) AssignDriver(driverID, busID string) (*models.Driver, error) {
	driver, err := s.DB.GetDriverByID(driverID)
	if err != nil {
		return nil, fault.NotFound("driver %s not found", driverID)
	}

	if busID == "" {
		driver.BusID = ""
	} else {
		if _, err := s.DB.GetBusByID(busID); err != nil {
			return nil, fault.NotFound("bus %s not found", busID)
		}
		if driver.BusID != "" && driver.BusID != busID {
			return nil, fault.Conflict(fault.CodeDriverAssigned,
				"driver %s is already assigned to bus %s", driverID, driver.BusID)
		}
		driver.BusID = busID
	}

	if err := s.DB.UpdateDriver(*driver); err != nil {
		return nil, fault.Infra(err, "assigning driver %s", driverID)
	}
	s.Logger.Info("FLEET", fmt.Sprintf("driver %s assigned to bus %q", driverID, driver.BusID))
	return driver, nil
}

func (s *Service) RemoveDriver(id string) error {
	if _, err := s.DB.GetDriverByID(id); err != nil {
		return fault.NotFound("driver %s not found", id)
	}
	if err := s.DB.DeleteDriver(id); err != nil {
		return fault.Infra(err, "removing driver %s", id)
	}
	s.Logger.Info("FLEET", fmt.Sprintf("removed driver %s", id))
	return nil
}
