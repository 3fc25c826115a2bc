package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TripStatusActive    = "active"
	TripStatusCancelled = "cancelled"
)

// Trip is a single scheduled journey of one bus. Date is the calendar
// day at midnight UTC; departure and arrival are "HH:MM" times of day.
// An arrival at or before the departure means the trip runs overnight
// and arrives the next day.
type Trip struct {
	bun.BaseModel `bun:"table:trips"`

	ID            string    `bun:"id,pk" json:"id"`
	Code          string    `bun:"code,unique,notnull" json:"code"`
	BusID         string    `bun:"bus_id,notnull" json:"bus_id"`
	Origin        string    `bun:"origin,notnull" json:"origin"`
	Destination   string    `bun:"destination,notnull" json:"destination"`
	Date          time.Time `bun:"date,notnull" json:"date"`
	DepartureTime string    `bun:"departure_time,notnull" json:"departure_time"`
	ArrivalTime   string    `bun:"arrival_time,notnull" json:"arrival_time"`
	Price         float64   `bun:"price,notnull" json:"price"`
	Status        string    `bun:"status,notnull" json:"status"`
	DriverIDs     []string  `bun:"driver_ids,array" json:"driver_ids"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// TripRequest is the boundary shape for creating or updating a trip.
type TripRequest struct {
	BusID         string  `json:"bus_id"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	Date          string  `json:"date"` // "2006-01-02"
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   string  `json:"arrival_time"`
	Price         float64 `json:"price"`
}

// BulkPriceRequest selects trips and the transform to apply to their
// prices. Type is "percent", "add" or "set". When All is false at least
// one filter field must narrow the selection.
type BulkPriceRequest struct {
	Type        string   `json:"type"`
	Value       *float64 `json:"value"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	Origin      string   `json:"origin,omitempty"`
	Destination string   `json:"destination,omitempty"`
	BusID       string   `json:"bus_id,omitempty"`
	All         bool     `json:"all,omitempty"`
}

const (
	PriceTypePercent = "percent"
	PriceTypeAdd     = "add"
	PriceTypeSet     = "set"
)

// PriceFilter is the storage-level selection a BulkPriceRequest resolves
// to. Zero values mean "no constraint"; Start and End are inclusive
// calendar-day bounds.
type PriceFilter struct {
	Start       time.Time
	End         time.Time
	Origin      string
	Destination string
	BusID       string
}
