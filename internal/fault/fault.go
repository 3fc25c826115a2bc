// Package fault defines the typed failures the core surfaces to its
// callers: a kind for status mapping plus a stable code and a human
// readable reason.
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota
	KindConflict
	KindNotFound
	KindState
	KindInfrastructure
)

// Stable machine codes, one per distinct rejection reason.
const (
	CodeDateInPast            = "date_in_past"
	CodeArrivalNotAfterDep    = "arrival_not_after_departure"
	CodeBusDoubleBooked       = "bus_double_booked_same_day"
	CodeScheduleLocked        = "schedule_locked"
	CodeChainOriginMismatch   = "chain_origin_mismatch"
	CodeChainTurnaround       = "chain_insufficient_turnaround"
	CodeDuplicatePlate        = "duplicate_plate"
	CodeBusInUse              = "bus_in_use"
	CodeDriverAssigned        = "driver_already_assigned"
	CodeInvalidTrip           = "invalid_trip"
	CodeSeatNumberRequired    = "seat_number_required"
	CodeSeatOutOfRange        = "seat_out_of_range"
	CodePassengerRequired     = "passenger_fields_required"
	CodeSeatTaken             = "seat_taken"
	CodeMissingTypeOrValue    = "missing_type_or_value"
	CodeInvalidDateRange      = "invalid_date_range"
	CodeNoMatchingTrips       = "no_matching_trips"
	CodeTripHasReservations   = "trip_has_active_reservations"
	CodeMissingRequiredFields = "missing_required_fields"
	CodeNotFound              = "not_found"
	CodeStorage               = "storage_failure"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code so sentinel comparisons work across instances
// carrying different formatted messages.
func (e *Error) Is(target error) bool {
	var fe *Error
	if errors.As(target, &fe) {
		return fe.Code == e.Code
	}
	return false
}

func New(kind Kind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(code, format string, args ...interface{}) *Error {
	return New(KindValidation, code, format, args...)
}

func Conflict(code, format string, args ...interface{}) *Error {
	return New(KindConflict, code, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, CodeNotFound, format, args...)
}

func State(code, format string, args ...interface{}) *Error {
	return New(KindState, code, format, args...)
}

// Infra wraps a storage or broker failure. The caller decides whether
// to retry; the core never does.
func Infra(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInfrastructure, Code: CodeStorage, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from any error, defaulting to infrastructure
// for untyped failures.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInfrastructure
}

// CodeOf extracts the stable code, or CodeStorage for untyped failures.
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeStorage
}
