package models

import (
	"github.com/uptrace/bun"
)

// SeatLayout describes the physical seat arrangement of a bus. Seat
// numbers run row by row starting at 1; UnusableSeats lists numbers
// that exist in the grid but cannot be sold.
type SeatLayout struct {
	Rows          int   `json:"rows"`
	SeatsPerRow   int   `json:"seats_per_row"`
	AisleAfter    []int `json:"aisle_after"`
	UnusableSeats []int `json:"unusable_seats"`
}

type Bus struct {
	bun.BaseModel `bun:"table:buses"`

	ID            string `bun:"id,pk" json:"id"`
	Plate         string `bun:"plate,unique,notnull" json:"plate"`
	SeatCount     int    `bun:"seat_count,notnull" json:"seat_count"`
	LayoutRows    int    `bun:"layout_rows" json:"layout_rows"`
	LayoutPerRow  int    `bun:"layout_seats_per_row" json:"layout_seats_per_row"`
	AisleAfter    []int  `bun:"aisle_after,array" json:"aisle_after"`
	UnusableSeats []int  `bun:"unusable_seats,array" json:"unusable_seats"`
}

// Layout returns the structured seat layout of the bus.
func (b *Bus) Layout() SeatLayout {
	return SeatLayout{
		Rows:          b.LayoutRows,
		SeatsPerRow:   b.LayoutPerRow,
		AisleAfter:    b.AisleAfter,
		UnusableSeats: b.UnusableSeats,
	}
}

// BusPatch is a partial update for a bus. Nil fields are left untouched.
type BusPatch struct {
	Plate         *string `json:"plate,omitempty"`
	SeatCount     *int    `json:"seat_count,omitempty"`
	LayoutRows    *int    `json:"layout_rows,omitempty"`
	LayoutPerRow  *int    `json:"layout_seats_per_row,omitempty"`
	AisleAfter    []int   `json:"aisle_after,omitempty"`
	UnusableSeats []int   `json:"unusable_seats,omitempty"`
}
