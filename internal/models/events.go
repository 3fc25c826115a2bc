package models

import "time"

// Kafka event payloads. Key is the entity ID, value is the JSON below.

type TripEvent struct {
	TripID      string    `json:"trip_id"`
	Code        string    `json:"code"`
	BusID       string    `json:"bus_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	TripID        string    `json:"trip_id"`
	SeatNumber    int       `json:"seat_number"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type BulkPriceEvent struct {
	Type       string    `json:"type"`
	Value      float64   `json:"value"`
	Updated    int       `json:"updated"`
	OccurredAt time.Time `json:"occurred_at"`
}
