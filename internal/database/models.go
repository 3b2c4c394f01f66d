package database

import (
	"time"

	"github.com/google/uuid"
)

// AirplaneName is the fleet model code of an airplane
type AirplaneName string

const (
	AirplaneBoeing737  AirplaneName = "B737"
	AirplaneBoeing747  AirplaneName = "B747"
	AirplaneBoeing777  AirplaneName = "B777"
	AirplaneBoeing787  AirplaneName = "B787"
	AirplaneAirbus310  AirplaneName = "A310"
	AirplaneAirbus320  AirplaneName = "A320"
	AirplaneAirbus340  AirplaneName = "A340"
	AirplaneAirbus360  AirplaneName = "A360"
	AirplaneEmbraer170 AirplaneName = "E170"
	AirplaneEmbraer175 AirplaneName = "E175"
	AirplaneEmbraer190 AirplaneName = "E190"
	AirplaneEmbraer195 AirplaneName = "E195"
)

var airplaneDisplayNames = map[AirplaneName]string{
	AirplaneBoeing737:  "Boeing-737",
	AirplaneBoeing747:  "Boeing-747",
	AirplaneBoeing777:  "Boeing-777",
	AirplaneBoeing787:  "Boeing-787",
	AirplaneAirbus310:  "Airbus-A310",
	AirplaneAirbus320:  "Airbus-A320",
	AirplaneAirbus340:  "Airbus-A340",
	AirplaneAirbus360:  "Airbus-A360",
	AirplaneEmbraer170: "E-Jet-170",
	AirplaneEmbraer175: "E-Jet-175",
	AirplaneEmbraer190: "E-Jet-190",
	AirplaneEmbraer195: "E-Jet-195",
}

// Valid reports whether n is a known fleet model code
func (n AirplaneName) Valid() bool {
	_, ok := airplaneDisplayNames[n]
	return ok
}

// DisplayName returns the human readable model name
func (n AirplaneName) DisplayName() string {
	if name, ok := airplaneDisplayNames[n]; ok {
		return name
	}
	return string(n)
}

// AirplaneType is the size bucket derived from capacity
type AirplaneType string

const (
	AirplaneTypeSmall  AirplaneType = "SM"
	AirplaneTypeMedium AirplaneType = "MD"
	AirplaneTypeLarge  AirplaneType = "LR"
)

// DisplayName returns the human readable type name
func (t AirplaneType) DisplayName() string {
	switch t {
	case AirplaneTypeSmall:
		return "Small plane"
	case AirplaneTypeMedium:
		return "Medium plane"
	case AirplaneTypeLarge:
		return "Large plane"
	}
	return string(t)
}

// AirplaneTypeFor buckets a seat capacity. A capacity of exactly 100
// is a small plane.
func AirplaneTypeFor(capacity int) AirplaneType {
	switch {
	case capacity <= 100:
		return AirplaneTypeSmall
	case capacity < 200:
		return AirplaneTypeMedium
	default:
		return AirplaneTypeLarge
	}
}

// CrewRole is the position a crew member holds
type CrewRole string

const (
	CrewRolePilot           CrewRole = "P"
	CrewRoleCoPilot         CrewRole = "CP"
	CrewRoleFlightAttendant CrewRole = "FA"
)

// Valid reports whether r is a known crew role
func (r CrewRole) Valid() bool {
	switch r {
	case CrewRolePilot, CrewRoleCoPilot, CrewRoleFlightAttendant:
		return true
	}
	return false
}

// Airport represents an airport in the database
type Airport struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	ClosestBigCity string    `json:"closest_big_city"`
	CreatedAt      time.Time `json:"created_at"`
}

// Route represents a directed connection between two airports.
// Source and Destination are populated on reads.
type Route struct {
	ID            uuid.UUID `json:"id"`
	SourceID      uuid.UUID `json:"source_id"`
	DestinationID uuid.UUID `json:"destination_id"`
	Distance      int       `json:"distance"`
	CreatedAt     time.Time `json:"created_at"`
	Source        *Airport  `json:"source,omitempty"`
	Destination   *Airport  `json:"destination,omitempty"`
}

// Airplane represents an airplane in the database
type Airplane struct {
	ID         uuid.UUID    `json:"id"`
	Name       AirplaneName `json:"name"`
	Rows       int          `json:"rows"`
	SeatsInRow int          `json:"seats_in_row"`
	Type       AirplaneType `json:"airplane_type"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Capacity is the total number of seats on the airplane
func (a Airplane) Capacity() int {
	return a.Rows * a.SeatsInRow
}

// Crew represents a crew member
type Crew struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      CrewRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName joins first and last name
func (c Crew) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Seat is a (row, seat) position inside an airplane
type Seat struct {
	Row  int `json:"row"`
	Seat int `json:"seat"`
}

// Flight represents a flight in the database. Route, Airplane, Crew,
// TakenSeats and TicketsAvailable are populated on reads.
type Flight struct {
	ID               uuid.UUID   `json:"id"`
	RouteID          uuid.UUID   `json:"route_id"`
	AirplaneID       uuid.UUID   `json:"airplane_id"`
	DepartureTime    time.Time   `json:"departure_time"`
	ArrivalTime      time.Time   `json:"arrival_time"`
	CrewIDs          []uuid.UUID `json:"crew_ids"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	Route            *Route      `json:"route,omitempty"`
	Airplane         *Airplane   `json:"airplane,omitempty"`
	Crew             []Crew      `json:"crew,omitempty"`
	TakenSeats       []Seat      `json:"taken_seats,omitempty"`
	TicketsAvailable int         `json:"tickets_available"`
}

// Ticket represents one occupied seat on a flight. Every ticket
// belongs to an order.
type Ticket struct {
	ID        uuid.UUID `json:"id"`
	FlightID  uuid.UUID `json:"flight_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Row       int       `json:"row"`
	Seat      int       `json:"seat"`
	CreatedAt time.Time `json:"created_at"`
	Flight    *Flight   `json:"flight,omitempty"`
}

// Order represents an order in the database
type Order struct {
	ID               uuid.UUID `json:"id"`
	UserID           string    `json:"user_id"`
	ConfirmationCode *string   `json:"confirmation_code,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	Tickets          []Ticket  `json:"tickets,omitempty"`
}
