package database

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format accepted by date filters
const DateLayout = "2006-01-02"

// Filters hold optional criteria. Empty strings and nil dates match
// everything; text criteria are case-insensitive substring matches.

type AirportFilter struct {
	// Name matches the airport name or its closest big city
	Name string
}

type RouteFilter struct {
	SourceCity      string
	DestinationCity string
	DistanceRange   DistanceRange
}

type AirplaneFilter struct {
	Name string
	Type AirplaneType
}

type CrewFilter struct {
	Role string
}

type FlightFilter struct {
	AirplaneName     string
	DepartureAirport string
	ArrivalAirport   string
	DepartureDate    *time.Time
	ArrivalDate      *time.Time
}

type TicketFilter struct {
	// UserID restricts tickets to orders of one identity; empty means all
	UserID     string
	FlightFrom string
	FlightTo   string
}

type OrderFilter struct {
	UserID    string
	CreatedOn *time.Time
}

// DistanceRange buckets route distances
type DistanceRange string

const (
	DistanceShort  DistanceRange = "short"
	DistanceMedium DistanceRange = "medium"
	DistanceLong   DistanceRange = "long"
)

// ParseDistanceRange validates a distance_range query value
func ParseDistanceRange(s string) (DistanceRange, error) {
	switch r := DistanceRange(s); r {
	case "", DistanceShort, DistanceMedium, DistanceLong:
		return r, nil
	}
	return "", fmt.Errorf("unknown distance range %q", s)
}

// Bounds returns the inclusive kilometre range; max < 0 means unbounded
func (r DistanceRange) Bounds() (min, max int) {
	switch r {
	case DistanceShort:
		return 0, 2000
	case DistanceMedium:
		return 2001, 5000
	case DistanceLong:
		return 5001, -1
	}
	return 0, -1
}

// ParseDate parses a YYYY-MM-DD filter value as a UTC day
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return &t, nil
}

// DayRange returns [start, end) of the UTC day containing t
func DayRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
