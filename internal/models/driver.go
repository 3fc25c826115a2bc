package models

import (
	"github.com/uptrace/bun"
)

// Driver is registered fleet staff. BusID is a weak reference to the
// bus the driver is currently assigned to; empty means unassigned.
type Driver struct {
	bun.BaseModel `bun:"table:drivers"`

	ID    string `bun:"id,pk" json:"id"`
	Name  string `bun:"name,notnull" json:"name"`
	Phone string `bun:"phone" json:"phone"`
	BusID string `bun:"bus_id,nullzero" json:"bus_id,omitempty"`
}
