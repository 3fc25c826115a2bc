package trip

import (
	"encoding/json"
	"fmt"
	"time"

	"ms-busline/internal/fault"
	"ms-busline/internal/kafka"
	"ms-busline/internal/logger"
	"ms-busline/internal/models"
	"ms-busline/internal/utils"

	"github.com/google/uuid"
)

type DBLayer interface {
	GetTripByID(id string) (*models.Trip, error)
	ListTrips() ([]models.Trip, error)
	ListByBusAndDay(busID string, dayStart time.Time) ([]models.Trip, error)
	CreateTrip(trip models.Trip) error
	UpdateTrip(trip models.Trip) error
	UpdateDrivers(tripID string, driverIDs []string) error
	DeleteTrip(id string) error
	SelectForPricing(f models.PriceFilter) ([]models.Trip, error)
	UpdatePrice(tripID string, price float64) (bool, error)
}

// FleetReader is the slice of the fleet registry trip scheduling needs:
// bus existence/capacity and the drivers to snapshot onto a new trip.
type FleetReader interface {
	GetBus(id string) (*models.Bus, error)
	ListDriversByBus(busID string) ([]models.Driver, error)
}

// DayLock serializes scheduling per (bus, calendar day).
type DayLock interface {
	LockBusDay(busID string, day time.Time, token string) (bool, error)
	UnlockBusDay(busID string, day time.Time, token string) error
}

// Ledger is the slice of the seat allocation ledger trip deletion needs.
type Ledger interface {
	ActiveCountByTrip(tripID string) (int, error)
	CascadeCancelByTrip(tripID string) (int, error)
}

type Publisher interface {
	Publish(topic string, key string, value []byte) error
}

type Service struct {
	DB     DBLayer
	Fleet  FleetReader
	Lock   DayLock
	Ledger Ledger
	Kafka  Publisher
	Logger *logger.Logger

	now func() time.Time
}

func NewService(db DBLayer, fleet FleetReader, lock DayLock, ledger Ledger, publisher Publisher, log *logger.Logger) *Service {
	return &Service{
		DB:     db,
		Fleet:  fleet,
		Lock:   lock,
		Ledger: ledger,
		Kafka:  publisher,
		Logger: log,
		now:    time.Now,
	}
}

func (s *Service) GetTrip(id string) (*models.Trip, error) {
	trip, err := s.DB.GetTripByID(id)
	if err != nil {
		return nil, fault.NotFound("trip %s not found", id)
	}
	return trip, nil
}

func (s *Service) ListTrips() ([]models.Trip, error) {
	trips, err := s.DB.ListTrips()
	if err != nil {
		return nil, fault.Infra(err, "listing trips")
	}
	return trips, nil
}

// CreateTrip validates and persists a new trip. The whole
// validate-then-insert sequence runs under the bus-day lock so two
// concurrent creates for the same bus and day cannot both pass the
// conflict check.
func (s *Service) CreateTrip(req models.TripRequest) (*models.Trip, error) {
	if req.BusID == "" || req.Origin == "" || req.Destination == "" || req.Date == "" || req.Price == 0 {
		return nil, fault.Validation(fault.CodeMissingRequiredFields,
			"bus, origin, destination, date and price are required")
	}
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, fault.Validation(fault.CodeMissingRequiredFields, "invalid date %q", req.Date)
	}

	bus, err := s.Fleet.GetBus(req.BusID)
	if err != nil {
		return nil, fault.NotFound("bus %s not found", req.BusID)
	}

	cand := Candidate{
		BusID:         bus.ID,
		Origin:        req.Origin,
		Destination:   req.Destination,
		Date:          utils.StartOfDay(date),
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
	}

	token := uuid.NewString()
	unlock, err := s.lockBusDay(cand.BusID, cand.Date, token)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sameDay, err := s.DB.ListByBusAndDay(cand.BusID, cand.Date)
	if err != nil {
		return nil, fault.Infra(err, "loading schedule for bus %s", cand.BusID)
	}
	if err := ValidateCreate(cand, sameDay, s.now()); err != nil {
		return nil, err
	}

	drivers, err := s.Fleet.ListDriversByBus(bus.ID)
	if err != nil {
		return nil, fault.Infra(err, "loading drivers for bus %s", bus.ID)
	}
	driverIDs := make([]string, 0, len(drivers))
	for _, d := range drivers {
		driverIDs = append(driverIDs, d.ID)
	}

	trip := models.Trip{
		ID:            uuid.NewString(),
		Code:          utils.GenerateTripCode(),
		BusID:         bus.ID,
		Origin:        req.Origin,
		Destination:   req.Destination,
		Date:          cand.Date,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		Price:         req.Price,
		Status:        models.TripStatusActive,
		DriverIDs:     driverIDs,
		CreatedAt:     s.now(),
	}
	if err := s.DB.CreateTrip(trip); err != nil {
		return nil, fault.Infra(err, "creating trip")
	}

	s.Logger.LogTrip("CREATE", trip.ID, fmt.Sprintf("code=%s bus=%s %s->%s", trip.Code, trip.BusID, trip.Origin, trip.Destination))
	s.publishTrip(kafka.TopicTripCreated, trip)
	return &trip, nil
}

// UpdateTrip re-validates an edited trip. Unlike creation, the bus may
// run several trips that day as long as they chain.
func (s *Service) UpdateTrip(id string, req models.TripRequest) (*models.Trip, error) {
	existing, err := s.DB.GetTripByID(id)
	if err != nil {
		return nil, fault.NotFound("trip %s not found", id)
	}

	merged := *existing
	if req.BusID != "" {
		if _, err := s.Fleet.GetBus(req.BusID); err != nil {
			return nil, fault.NotFound("bus %s not found", req.BusID)
		}
		merged.BusID = req.BusID
	}
	if req.Origin != "" {
		merged.Origin = req.Origin
	}
	if req.Destination != "" {
		merged.Destination = req.Destination
	}
	if req.Date != "" {
		date, err := utils.ParseDate(req.Date)
		if err != nil {
			return nil, fault.Validation(fault.CodeMissingRequiredFields, "invalid date %q", req.Date)
		}
		merged.Date = utils.StartOfDay(date)
	}
	if req.DepartureTime != "" {
		merged.DepartureTime = req.DepartureTime
	}
	if req.ArrivalTime != "" {
		merged.ArrivalTime = req.ArrivalTime
	}
	if req.Price != 0 {
		merged.Price = req.Price
	}

	cand := Candidate{
		ID:            merged.ID,
		BusID:         merged.BusID,
		Origin:        merged.Origin,
		Destination:   merged.Destination,
		Date:          utils.StartOfDay(merged.Date),
		DepartureTime: merged.DepartureTime,
		ArrivalTime:   merged.ArrivalTime,
	}

	token := uuid.NewString()
	unlock, err := s.lockBusDay(cand.BusID, cand.Date, token)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sameDay, err := s.DB.ListByBusAndDay(cand.BusID, cand.Date)
	if err != nil {
		return nil, fault.Infra(err, "loading schedule for bus %s", cand.BusID)
	}
	if err := ValidateUpdate(cand, sameDay, s.now()); err != nil {
		return nil, err
	}

	if err := s.DB.UpdateTrip(merged); err != nil {
		return nil, fault.Infra(err, "updating trip %s", id)
	}

	s.Logger.LogTrip("UPDATE", id, fmt.Sprintf("bus=%s date=%s dep=%s", merged.BusID, merged.Date.Format("2006-01-02"), merged.DepartureTime))
	s.publishTrip(kafka.TopicTripUpdated, merged)
	return &merged, nil
}

// DeleteTrip removes a trip that has no active reservations.
func (s *Service) DeleteTrip(id string) error {
	return s.deleteTrip(id, false)
}

// ForceDeleteTrip cancels every active reservation on the trip first,
// then removes it. No orphaned active reservation survives either path.
func (s *Service) ForceDeleteTrip(id string) error {
	return s.deleteTrip(id, true)
}

func (s *Service) deleteTrip(id string, force bool) error {
	trip, err := s.DB.GetTripByID(id)
	if err != nil {
		return fault.NotFound("trip %s not found", id)
	}

	active, err := s.Ledger.ActiveCountByTrip(id)
	if err != nil {
		return fault.Infra(err, "counting reservations for trip %s", id)
	}
	if active > 0 {
		if !force {
			return fault.State(fault.CodeTripHasReservations,
				"trip %s has %d active reservations", id, active)
		}
		cancelled, err := s.Ledger.CascadeCancelByTrip(id)
		if err != nil {
			return fault.Infra(err, "cancelling reservations for trip %s", id)
		}
		s.Logger.LogTrip("FORCE_DELETE", id, fmt.Sprintf("cancelled %d reservations", cancelled))
	}

	if err := s.DB.DeleteTrip(id); err != nil {
		return fault.Infra(err, "deleting trip %s", id)
	}

	s.Logger.LogTrip("DELETE", id, "trip removed")
	trip.Status = models.TripStatusCancelled
	s.publishTrip(kafka.TopicTripDeleted, *trip)
	return nil
}

// UpdateTripDrivers replaces the driver snapshot on one trip. Drivers
// can diverge from the bus assignment after creation.
func (s *Service) UpdateTripDrivers(id string, driverIDs []string) error {
	if _, err := s.DB.GetTripByID(id); err != nil {
		return fault.NotFound("trip %s not found", id)
	}
	if err := s.DB.UpdateDrivers(id, driverIDs); err != nil {
		return fault.Infra(err, "updating drivers for trip %s", id)
	}
	s.Logger.LogTrip("DRIVERS", id, fmt.Sprintf("%d drivers assigned", len(driverIDs)))
	return nil
}

// ImportResult reports a bulk import: rows that passed the full
// scheduling validation and rows that were rejected, with reasons.
type ImportResult struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportTrips routes already-parsed rows through the same validation as
// interactive creation. Rows are independent; one rejection does not
// stop the rest.
func (s *Service) ImportTrips(rows []models.TripRequest) ImportResult {
	var res ImportResult
	for i, row := range rows {
		if _, err := s.CreateTrip(row); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		res.Created++
	}
	return res
}

func (s *Service) lockBusDay(busID string, day time.Time, token string) (func(), error) {
	ok, err := s.Lock.LockBusDay(busID, day, token)
	if err != nil {
		return nil, fault.Infra(err, "locking schedule for bus %s", busID)
	}
	if !ok {
		return nil, fault.Conflict(fault.CodeScheduleLocked,
			"schedule for bus %s on %s is being modified, retry", busID, day.Format("2006-01-02"))
	}
	s.Logger.Debug("TRIP", fmt.Sprintf("bus day lock acquired for %s/%s", busID, day.Format("2006-01-02")))
	return func() {
		if err := s.Lock.UnlockBusDay(busID, day, token); err != nil {
			s.Logger.Error("TRIP", fmt.Sprintf("failed to unlock bus day %s/%s: %v", busID, day.Format("2006-01-02"), err))
		}
	}, nil
}

func (s *Service) publishTrip(topic string, trip models.Trip) {
	if s.Kafka == nil {
		return
	}
	event := models.TripEvent{
		TripID:      trip.ID,
		Code:        trip.Code,
		BusID:       trip.BusID,
		Origin:      trip.Origin,
		Destination: trip.Destination,
		Date:        trip.Date,
		Status:      trip.Status,
		OccurredAt:  s.now(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("failed to marshal trip event: %v", err))
		return
	}
	if err := s.Kafka.Publish(topic, trip.ID, value); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("failed to publish %s for trip %s: %v", topic, trip.ID, err))
		return
	}
	s.Logger.LogKafka("PUBLISH", topic, fmt.Sprintf("trip %s %s-%s", trip.ID, trip.Origin, trip.Destination))
}
