package fleet_test

import (
	"database/sql"
	"testing"

	"ms-busline/internal/fault"
	"ms-busline/internal/fleet"
	"ms-busline/internal/logger"
	"ms-busline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetBusByID(id string) (*models.Bus, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bus), args.Error(1)
}

func (m *MockDBLayer) GetBusByPlate(plate string) (*models.Bus, error) {
	args := m.Called(plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bus), args.Error(1)
}

func (m *MockDBLayer) ListBuses() ([]models.Bus, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Bus), args.Error(1)
}

func (m *MockDBLayer) CreateBus(bus models.Bus) error {
	args := m.Called(bus)
	return args.Error(0)
}

func (m *MockDBLayer) UpdateBus(bus models.Bus) error {
	args := m.Called(bus)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteBus(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockDBLayer) GetDriverByID(id string) (*models.Driver, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Driver), args.Error(1)
}

func (m *MockDBLayer) ListDrivers() ([]models.Driver, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Driver), args.Error(1)
}

func (m *MockDBLayer) ListAvailableDrivers() ([]models.Driver, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Driver), args.Error(1)
}

func (m *MockDBLayer) ListDriversByBus(busID string) ([]models.Driver, error) {
	args := m.Called(busID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Driver), args.Error(1)
}

func (m *MockDBLayer) CreateDriver(driver models.Driver) error {
	args := m.Called(driver)
	return args.Error(0)
}

func (m *MockDBLayer) UpdateDriver(driver models.Driver) error {
	args := m.Called(driver)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteDriver(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

type MockTripCounter struct {
	mock.Mock
}

func (m *MockTripCounter) ActiveTripCountByBus(busID string) (int, error) {
	args := m.Called(busID)
	return args.Int(0), args.Error(1)
}

func newFleetService() (*fleet.Service, *MockDBLayer, *MockTripCounter) {
	db := new(MockDBLayer)
	trips := new(MockTripCounter)
	return fleet.NewService(db, trips, new(logger.Logger)), db, trips
}

func TestRegisterBus(t *testing.T) {
	svc, db, _ := newFleetService()

	db.On("GetBusByPlate", "34ABC123").Return(nil, sql.ErrNoRows)
	db.On("CreateBus", mock.MatchedBy(func(b models.Bus) bool {
		return b.Plate == "34ABC123" && b.SeatCount == 40 && b.LayoutRows == 10
	})).Return(nil)

	bus, err := svc.RegisterBus("34ABC123", 40, models.SeatLayout{Rows: 10, SeatsPerRow: 4, AisleAfter: []int{2}})

	assert.NoError(t, err)
	assert.NotEmpty(t, bus.ID)
	db.AssertExpectations(t)
}

func TestRegisterBusDuplicatePlate(t *testing.T) {
	svc, db, _ := newFleetService()

	db.On("GetBusByPlate", "34ABC123").Return(&models.Bus{ID: "bus1", Plate: "34ABC123"}, nil)

	_, err := svc.RegisterBus("34ABC123", 40, models.SeatLayout{})

	assert.Equal(t, fault.CodeDuplicatePlate, fault.CodeOf(err))
	db.AssertNotCalled(t, "CreateBus", mock.Anything)
}

func TestRegisterBusValidation(t *testing.T) {
	svc, _, _ := newFleetService()

	_, err := svc.RegisterBus("", 40, models.SeatLayout{})
	assert.Equal(t, fault.CodeMissingRequiredFields, fault.CodeOf(err))

	_, err = svc.RegisterBus("34ABC123", 0, models.SeatLayout{})
	assert.Equal(t, fault.CodeMissingRequiredFields, fault.CodeOf(err))
}

func TestUpdateBusPlateChange(t *testing.T) {
	svc, db, _ := newFleetService()

	existing := &models.Bus{ID: "bus1", Plate: "34ABC123", SeatCount: 40}
	db.On("GetBusByID", "bus1").Return(existing, nil)
	db.On("GetBusByPlate", "06XYZ789").Return(nil, sql.ErrNoRows)
	db.On("UpdateBus", mock.MatchedBy(func(b models.Bus) bool {
		return b.ID == "bus1" && b.Plate == "06XYZ789"
	})).Return(nil)

	plate := "06XYZ789"
	updated, err := svc.UpdateBus("bus1", models.BusPatch{Plate: &plate})

	assert.NoError(t, err)
	assert.Equal(t, "06XYZ789", updated.Plate)
}

func TestUpdateBusPlateConflict(t *testing.T) {
	svc, db, _ := newFleetService()

	existing := &models.Bus{ID: "bus1", Plate: "34ABC123", SeatCount: 40}
	db.On("GetBusByID", "bus1").Return(existing, nil)
	db.On("GetBusByPlate", "06XYZ789").Return(&models.Bus{ID: "bus2", Plate: "06XYZ789"}, nil)

	plate := "06XYZ789"
	_, err := svc.UpdateBus("bus1", models.BusPatch{Plate: &plate})

	assert.Equal(t, fault.CodeDuplicatePlate, fault.CodeOf(err))
}

func TestRemoveBusInUse(t *testing.T) {
	svc, db, trips := newFleetService()

	db.On("GetBusByID", "bus1").Return(&models.Bus{ID: "bus1"}, nil)
	trips.On("ActiveTripCountByBus", "bus1").Return(2, nil)

	err := svc.RemoveBus("bus1")

	assert.Equal(t, fault.CodeBusInUse, fault.CodeOf(err))
	db.AssertNotCalled(t, "DeleteBus", mock.Anything)
}

func TestRemoveBusIdle(t *testing.T) {
	svc, db, trips := newFleetService()

	db.On("GetBusByID", "bus1").Return(&models.Bus{ID: "bus1"}, nil)
	trips.On("ActiveTripCountByBus", "bus1").Return(0, nil)
	db.On("DeleteBus", "bus1").Return(nil)

	err := svc.RemoveBus("bus1")

	assert.NoError(t, err)
	db.AssertExpectations(t)
}

func TestCreateDriverUnknownBus(t *testing.T) {
	svc, db, _ := newFleetService()

	db.On("GetBusByID", "ghost").Return(nil, sql.ErrNoRows)

	_, err := svc.CreateDriver("Kemal Aydin", "+90", "ghost")

	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestAssignDriver(t *testing.T) {
	t.Run("assigns an unassigned driver", func(t *testing.T) {
		svc, db, _ := newFleetService()

		db.On("GetDriverByID", "d1").Return(&models.Driver{ID: "d1", Name: "Kemal"}, nil)
		db.On("GetBusByID", "bus1").Return(&models.Bus{ID: "bus1"}, nil)
		db.On("UpdateDriver", mock.MatchedBy(func(d models.Driver) bool {
			return d.ID == "d1" && d.BusID == "bus1"
		})).Return(nil)

		driver, err := svc.AssignDriver("d1", "bus1")

		assert.NoError(t, err)
		assert.Equal(t, "bus1", driver.BusID)
	})

	t.Run("rejects a driver already on another bus", func(t *testing.T) {
		svc, db, _ := newFleetService()

		db.On("GetDriverByID", "d1").Return(&models.Driver{ID: "d1", BusID: "bus2"}, nil)
		db.On("GetBusByID", "bus1").Return(&models.Bus{ID: "bus1"}, nil)

		_, err := svc.AssignDriver("d1", "bus1")

		assert.Equal(t, fault.CodeDriverAssigned, fault.CodeOf(err))
	})

	t.Run("clears the assignment with an empty bus id", func(t *testing.T) {
		svc, db, _ := newFleetService()

		db.On("GetDriverByID", "d1").Return(&models.Driver{ID: "d1", BusID: "bus2"}, nil)
		db.On("UpdateDriver", mock.MatchedBy(func(d models.Driver) bool {
			return d.ID == "d1" && d.BusID == ""
		})).Return(nil)

		driver, err := svc.AssignDriver("d1", "")

		assert.NoError(t, err)
		assert.Empty(t, driver.BusID)
	})

	t.Run("re-assigning the same bus is a no-op", func(t *testing.T) {
		svc, db, _ := newFleetService()

		db.On("GetDriverByID", "d1").Return(&models.Driver{ID: "d1", BusID: "bus1"}, nil)
		db.On("GetBusByID", "bus1").Return(&models.Bus{ID: "bus1"}, nil)
		db.On("UpdateDriver", mock.Anything).Return(nil)

		driver, err := svc.AssignDriver("d1", "bus1")

		assert.NoError(t, err)
		assert.Equal(t, "bus1", driver.BusID)
	})
}
