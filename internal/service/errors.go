package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/geo"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/seating"
)

// ErrNotFound matches every NotFoundError
var ErrNotFound = errors.New("not found")

// Field names used as keys of field errors
const (
	FieldNonField     = "non_field_errors"
	FieldOrderTickets = "order_tickets"
)

// FieldErrorer is implemented by errors that render as a map of field
// names to messages
type FieldErrorer interface {
	FieldErrors() map[string][]string
}

// NotFoundError reports a missing resource, or one the caller may not
// see
type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.Err}
}

func notFound(resource string, id fmt.Stringer, err error) error {
	return &NotFoundError{Resource: resource, ID: id.String(), Err: err}
}

// ValidationError is a rejected input keyed by field
type ValidationError struct {
	Field    string
	Messages []string
	Err      error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) FieldErrors() map[string][]string {
	return map[string][]string{e.Field: e.Messages}
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Messages: []string{message}}
}

// invalidErr builds a ValidationError whose message is err's own
func invalidErr(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Messages: []string{err.Error()}, Err: err}
}

// UnknownCityError reports a city missing from the city data
type UnknownCityError struct {
	City string
}

func (e *UnknownCityError) Error() string { return "The entered city does not exist." }

func (e *UnknownCityError) Unwrap() error { return geo.ErrUnknownCity }

// DuplicateAirportError reports an existing (name, closest big city)
type DuplicateAirportError struct {
	Name           string
	ClosestBigCity string
}

func (e *DuplicateAirportError) Error() string {
	return "Airport with this name and closest big city already exists."
}

func (e *DuplicateAirportError) Unwrap() error { return database.ErrDuplicate }

// SameAirportError reports a route from an airport to itself
type SameAirportError struct{}

func (e *SameAirportError) Error() string {
	return "Departure and arrival points cannot be the same."
}

// TimeOrderError reports a flight arriving before it departs
type TimeOrderError struct{}

func (e *TimeOrderError) Error() string {
	return "Arrival time cannot be earlier than departure time."
}

// ConflictError reports a seat that is already sold
type ConflictError struct {
	Err *seating.SeatTakenError
}

func (e *ConflictError) Error() string { return e.Err.Error() }

func (e *ConflictError) Unwrap() error { return e.Err }

func (e *ConflictError) FieldErrors() map[string][]string {
	return map[string][]string{FieldOrderTickets: {e.Err.Error()}}
}

// EmptyOrderError reports an order without tickets
type EmptyOrderError struct{}

func (e *EmptyOrderError) Error() string { return "An order must contain at least one ticket." }

func (e *EmptyOrderError) FieldErrors() map[string][]string {
	return map[string][]string{FieldOrderTickets: {e.Error()}}
}

// UpstreamDataError reports that the city data could not be read
type UpstreamDataError struct {
	Err error
}

func (e *UpstreamDataError) Error() string {
	return "City data is temporarily unavailable."
}

func (e *UpstreamDataError) Unwrap() error { return e.Err }
