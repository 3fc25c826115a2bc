package reservation

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-busline/internal/fault"
	"ms-busline/internal/kafka"
	"ms-busline/internal/logger"
	"ms-busline/internal/models"

	"github.com/google/uuid"
)

type DBLayer interface {
	GetReservationByID(id string) (*models.Reservation, error)
	CreateReservation(r models.Reservation) error
	UpdateReservation(r models.Reservation) error
	ListByTrip(tripID string) ([]models.Reservation, error)
	ListAll() ([]models.Reservation, error)
	GetActiveBySeat(tripID string, seatNumber int) (*models.Reservation, error)
	OccupiedSeats(tripID string) ([]int, error)
	ActiveCountByTrip(tripID string) (int, error)
	CascadeCancelByTrip(tripID string) (int, error)
}

// SeatLock serializes booking per (trip, seat).
type SeatLock interface {
	LockSeat(tripID string, seatNumber int, token string) (bool, error)
	UnlockSeat(tripID string, seatNumber int, token string) error
}

// TripReader resolves the trip a booking references.
type TripReader interface {
	GetTripByID(id string) (*models.Trip, error)
}

// BusReader resolves the bus behind a trip for capacity checks.
type BusReader interface {
	GetBus(id string) (*models.Bus, error)
}

type Publisher interface {
	Publish(topic string, key string, value []byte) error
}

type Service struct {
	DB     DBLayer
	Lock   SeatLock
	Trips  TripReader
	Buses  BusReader
	Kafka  Publisher
	Logger *logger.Logger

	now func() time.Time
}

func NewService(db DBLayer, lock SeatLock, trips TripReader, buses BusReader, publisher Publisher, log *logger.Logger) *Service {
	return &Service{
		DB:     db,
		Lock:   lock,
		Trips:  trips,
		Buses:  buses,
		Kafka:  publisher,
		Logger: log,
		now:    time.Now,
	}
}

// Reserve books one seat. The existence check and the insert run under
// the per-(trip, seat) lock, so two concurrent bookings for the same
// seat cannot both pass the check.
func (s *Service) Reserve(req models.ReservationRequest) (*models.Reservation, error) {
	if req.TripID == "" {
		return nil, fault.Validation(fault.CodeInvalidTrip, "trip id is required")
	}
	if req.SeatNumber <= 0 {
		return nil, fault.Validation(fault.CodeSeatNumberRequired, "seat number is required")
	}
	if req.FirstName == "" || req.LastName == "" || req.Phone == "" {
		return nil, fault.Validation(fault.CodePassengerRequired, "first name, last name and phone are required")
	}

	trip, err := s.Trips.GetTripByID(req.TripID)
	if err != nil {
		return nil, fault.Validation(fault.CodeInvalidTrip, "trip %s does not exist", req.TripID)
	}
	if trip.Status != models.TripStatusActive {
		return nil, fault.Validation(fault.CodeInvalidTrip, "trip %s is cancelled", req.TripID)
	}

	bus, err := s.Buses.GetBus(trip.BusID)
	if err != nil {
		return nil, fault.Infra(err, "loading bus %s for trip %s", trip.BusID, trip.ID)
	}
	if req.SeatNumber > bus.SeatCount {
		return nil, fault.Validation(fault.CodeSeatOutOfRange,
			"seat %d exceeds bus capacity %d", req.SeatNumber, bus.SeatCount)
	}
	for _, unusable := range bus.UnusableSeats {
		if req.SeatNumber == unusable {
			return nil, fault.Validation(fault.CodeSeatOutOfRange,
				"seat %d is not sellable on this bus", req.SeatNumber)
		}
	}

	token := uuid.NewString()
	ok, err := s.Lock.LockSeat(req.TripID, req.SeatNumber, token)
	if err != nil {
		return nil, fault.Infra(err, "locking seat %d on trip %s", req.SeatNumber, req.TripID)
	}
	if !ok {
		return nil, fault.Conflict(fault.CodeSeatTaken,
			"seat %d on trip %s is being booked", req.SeatNumber, req.TripID)
	}
	defer func() {
		if err := s.Lock.UnlockSeat(req.TripID, req.SeatNumber, token); err != nil {
			s.Logger.Error("RESERVATION", fmt.Sprintf("failed to unlock seat %d on trip %s: %v", req.SeatNumber, req.TripID, err))
		}
	}()

	if err := s.checkSeatFree(req.TripID, req.SeatNumber, ""); err != nil {
		return nil, err
	}

	r := models.Reservation{
		ID:         uuid.NewString(),
		TripID:     req.TripID,
		SeatNumber: req.SeatNumber,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Status:     models.ReservationStatusActive,
		CreatedAt:  s.now(),
	}
	if err := s.DB.CreateReservation(r); err != nil {
		return nil, fault.Infra(err, "creating reservation")
	}

	s.Logger.LogReservation("RESERVE", r.ID, fmt.Sprintf("trip=%s seat=%d", r.TripID, r.SeatNumber))
	s.publish(kafka.TopicReservationCreated, r)
	return &r, nil
}

// Update patches a reservation. Moving an active reservation to a new
// seat, or flipping a cancelled one back to active, re-runs the seat
// conflict check under the seat lock; passenger edits do not touch
// seat exclusivity.
func (s *Service) Update(id string, patch models.ReservationPatch) (*models.Reservation, error) {
	existing, err := s.DB.GetReservationByID(id)
	if err != nil {
		return nil, fault.NotFound("reservation %s not found", id)
	}

	merged := *existing
	if patch.FirstName != nil {
		merged.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		merged.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		merged.Phone = *patch.Phone
	}
	if patch.Status != nil {
		if *patch.Status != models.ReservationStatusActive && *patch.Status != models.ReservationStatusCancelled {
			return nil, fault.Validation(fault.CodeMissingRequiredFields, "unknown status %q", *patch.Status)
		}
		merged.Status = *patch.Status
	}

	seatChanged := patch.SeatNumber != nil && *patch.SeatNumber != existing.SeatNumber
	if seatChanged {
		if *patch.SeatNumber <= 0 {
			return nil, fault.Validation(fault.CodeSeatNumberRequired, "seat number is required")
		}
		merged.SeatNumber = *patch.SeatNumber
	}

	reactivated := existing.Status != models.ReservationStatusActive &&
		merged.Status == models.ReservationStatusActive

	if (seatChanged || reactivated) && merged.Status == models.ReservationStatusActive {
		token := uuid.NewString()
		ok, err := s.Lock.LockSeat(merged.TripID, merged.SeatNumber, token)
		if err != nil {
			return nil, fault.Infra(err, "locking seat %d on trip %s", merged.SeatNumber, merged.TripID)
		}
		if !ok {
			return nil, fault.Conflict(fault.CodeSeatTaken,
				"seat %d on trip %s is being booked", merged.SeatNumber, merged.TripID)
		}
		defer func() {
			if err := s.Lock.UnlockSeat(merged.TripID, merged.SeatNumber, token); err != nil {
				s.Logger.Error("RESERVATION", fmt.Sprintf("failed to unlock seat %d on trip %s: %v", merged.SeatNumber, merged.TripID, err))
			}
		}()
		if err := s.checkSeatFree(merged.TripID, merged.SeatNumber, merged.ID); err != nil {
			return nil, err
		}
	}

	if err := s.DB.UpdateReservation(merged); err != nil {
		return nil, fault.Infra(err, "updating reservation %s", id)
	}

	s.Logger.LogReservation("UPDATE", id, fmt.Sprintf("seat=%d status=%s", merged.SeatNumber, merged.Status))
	s.publish(kafka.TopicReservationUpdated, merged)
	return &merged, nil
}

// Cancel flips the reservation to cancelled and frees its seat. Rows
// stay in the ledger; cancelling an already-cancelled reservation is a
// no-op.
func (s *Service) Cancel(id string) (*models.Reservation, error) {
	existing, err := s.DB.GetReservationByID(id)
	if err != nil {
		return nil, fault.NotFound("reservation %s not found", id)
	}
	if existing.Status == models.ReservationStatusCancelled {
		return existing, nil
	}

	existing.Status = models.ReservationStatusCancelled
	if err := s.DB.UpdateReservation(*existing); err != nil {
		return nil, fault.Infra(err, "cancelling reservation %s", id)
	}

	s.Logger.LogReservation("CANCEL", id, fmt.Sprintf("trip=%s seat=%d", existing.TripID, existing.SeatNumber))
	s.publish(kafka.TopicReservationCancelled, *existing)
	return existing, nil
}

func (s *Service) Get(id string) (*models.Reservation, error) {
	r, err := s.DB.GetReservationByID(id)
	if err != nil {
		return nil, fault.NotFound("reservation %s not found", id)
	}
	return r, nil
}

func (s *Service) ListByTrip(tripID string) ([]models.Reservation, error) {
	reservations, err := s.DB.ListByTrip(tripID)
	if err != nil {
		return nil, fault.Infra(err, "listing reservations for trip %s", tripID)
	}
	return reservations, nil
}

func (s *Service) ListAll() ([]models.Reservation, error) {
	reservations, err := s.DB.ListAll()
	if err != nil {
		return nil, fault.Infra(err, "listing reservations")
	}
	return reservations, nil
}

// OccupiedSeats returns the seat numbers actively held on a trip.
func (s *Service) OccupiedSeats(tripID string) ([]int, error) {
	seats, err := s.DB.OccupiedSeats(tripID)
	if err != nil {
		return nil, fault.Infra(err, "listing occupied seats for trip %s", tripID)
	}
	return seats, nil
}

// ActiveCountByTrip reports how many seats are actively held.
func (s *Service) ActiveCountByTrip(tripID string) (int, error) {
	count, err := s.DB.ActiveCountByTrip(tripID)
	if err != nil {
		return 0, fault.Infra(err, "counting reservations for trip %s", tripID)
	}
	return count, nil
}

// CascadeCancelByTrip cancels every active reservation on a trip. Trip
// deletion calls this so no active reservation can outlive its trip.
func (s *Service) CascadeCancelByTrip(tripID string) (int, error) {
	cancelled, err := s.DB.CascadeCancelByTrip(tripID)
	if err != nil {
		return 0, fault.Infra(err, "cancelling reservations for trip %s", tripID)
	}
	if cancelled > 0 {
		s.Logger.LogReservation("CASCADE_CANCEL", tripID, fmt.Sprintf("%d reservations cancelled", cancelled))
	}
	return cancelled, nil
}

// checkSeatFree rejects when another active reservation holds the seat.
// excludeID ignores the caller's own reservation on seat moves.
func (s *Service) checkSeatFree(tripID string, seatNumber int, excludeID string) error {
	existing, err := s.DB.GetActiveBySeat(tripID, seatNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fault.Infra(err, "checking seat %d on trip %s", seatNumber, tripID)
	}
	if existing != nil && existing.ID != excludeID {
		return fault.Conflict(fault.CodeSeatTaken, "seat %d on trip %s is taken", seatNumber, tripID)
	}
	return nil
}

func (s *Service) publish(topic string, r models.Reservation) {
	if s.Kafka == nil {
		return
	}
	event := models.ReservationEvent{
		ReservationID: r.ID,
		TripID:        r.TripID,
		SeatNumber:    r.SeatNumber,
		Status:        r.Status,
		OccurredAt:    s.now(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("failed to marshal reservation event: %v", err))
		return
	}
	if err := s.Kafka.Publish(topic, r.ID, value); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("failed to publish %s for reservation %s: %v", topic, r.ID, err))
		return
	}
	s.Logger.LogKafka("PUBLISH", topic, fmt.Sprintf("reservation %s seat=%d", r.ID, r.SeatNumber))
}
