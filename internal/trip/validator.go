package trip

import (
	"sort"
	"time"

	"ms-busline/internal/fault"
	"ms-busline/internal/models"
	"ms-busline/internal/utils"
)

// TurnaroundMinutes is the minimum gap between a bus arriving and its
// next same-day departure.
const TurnaroundMinutes = 360

// Candidate is a trip as proposed by the caller, before persistence.
type Candidate struct {
	ID            string // empty on create, set on update
	BusID         string
	Origin        string
	Destination   string
	Date          time.Time
	DepartureTime string
	ArrivalTime   string
}

// ValidateCreate checks a new trip against the clock and the bus's
// existing schedule. sameDay must hold the bus's active trips whose date
// falls inside the candidate's calendar day.
//
// Creation rejects any same-day trip for the bus outright: one trip per
// bus per calendar day. Chaining is only enforced on update; the
// asymmetry is deliberate.
func ValidateCreate(c Candidate, sameDay []models.Trip, now time.Time) error {
	if err := validateTimes(c, now); err != nil {
		return err
	}
	for _, t := range sameDay {
		if t.ID != c.ID && t.Status == models.TripStatusActive {
			return fault.Conflict(fault.CodeBusDoubleBooked,
				"bus %s already has trip %s on %s", c.BusID, t.Code, c.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// ValidateUpdate checks an edited trip. The bus may run several trips
// that day, but they must chain: the edited trip has to depart from
// where the bus last arrived, no earlier than the turnaround buffer
// after that arrival.
func ValidateUpdate(c Candidate, sameDay []models.Trip, now time.Time) error {
	if err := validateTimes(c, now); err != nil {
		return err
	}
	return validateChain(c, sameDay)
}

func validateTimes(c Candidate, now time.Time) error {
	if utils.StartOfDay(c.Date).Before(utils.StartOfDay(now)) {
		return fault.Validation(fault.CodeDateInPast,
			"trip date %s is in the past", c.Date.Format("2006-01-02"))
	}
	dep, arr, err := utils.NormalizeSpan(c.DepartureTime, c.ArrivalTime)
	if err != nil {
		return fault.Validation(fault.CodeArrivalNotAfterDep, "%v", err)
	}
	// Unreachable after the overnight wraparound, but guarded anyway.
	if arr-dep <= 0 {
		return fault.Validation(fault.CodeArrivalNotAfterDep,
			"arrival %s is not after departure %s", c.ArrivalTime, c.DepartureTime)
	}
	return nil
}

type chainEntry struct {
	origin      string
	destination string
	depMin      int
	arrMin      int
	candidate   bool
}

func validateChain(c Candidate, sameDay []models.Trip) error {
	candDep, _, err := utils.NormalizeSpan(c.DepartureTime, c.ArrivalTime)
	if err != nil {
		return fault.Validation(fault.CodeArrivalNotAfterDep, "%v", err)
	}

	entries := []chainEntry{{
		origin:      c.Origin,
		destination: c.Destination,
		depMin:      candDep,
		candidate:   true,
	}}
	for _, t := range sameDay {
		if t.ID == c.ID || t.Status != models.TripStatusActive {
			continue
		}
		dep, arr, err := utils.NormalizeSpan(t.DepartureTime, t.ArrivalTime)
		if err != nil {
			// A stored trip with a broken time cannot anchor the chain.
			continue
		}
		entries = append(entries, chainEntry{
			origin:      t.Origin,
			destination: t.Destination,
			depMin:      dep,
			arrMin:      arr,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].depMin < entries[j].depMin
	})

	var prev *chainEntry
	for i := range entries {
		if entries[i].candidate {
			if i > 0 {
				prev = &entries[i-1]
			}
			break
		}
	}
	if prev == nil {
		return nil // first departure of the day, nothing to chain from
	}

	if prev.destination != c.Origin {
		return fault.Conflict(fault.CodeChainOriginMismatch,
			"trip must depart from %s, where the bus last arrived, not %s", prev.destination, c.Origin)
	}

	gap := candDep - prev.arrMin
	if gap < 0 {
		// Departure time-of-day is before the previous arrival: the
		// same next-day wraparound as for trip spans applies.
		gap += 24 * 60
	}
	if gap < TurnaroundMinutes {
		return fault.Conflict(fault.CodeChainTurnaround,
			"only %d minutes after the bus arrives, need %d", gap, TurnaroundMinutes)
	}
	return nil
}
