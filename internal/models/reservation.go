package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ReservationStatusActive    = "active"
	ReservationStatusCancelled = "cancelled"
)

// Reservation holds one seat on one trip for one passenger. Rows are
// never deleted; cancellation flips Status so the audit trail survives.
type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID         string    `bun:"id,pk" json:"id"`
	TripID     string    `bun:"trip_id,notnull" json:"trip_id"`
	SeatNumber int       `bun:"seat_number,notnull" json:"seat_number"`
	FirstName  string    `bun:"first_name,notnull" json:"first_name"`
	LastName   string    `bun:"last_name,notnull" json:"last_name"`
	Phone      string    `bun:"phone,notnull" json:"phone"`
	Status     string    `bun:"status,notnull" json:"status"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
}

// ReservationRequest is the boundary shape for booking a seat.
type ReservationRequest struct {
	TripID     string `json:"trip_id"`
	SeatNumber int    `json:"seat_number"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
}

// ReservationPatch is a partial update. Nil fields are left untouched.
type ReservationPatch struct {
	SeatNumber *int    `json:"seat_number,omitempty"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Status     *string `json:"status,omitempty"`
}
