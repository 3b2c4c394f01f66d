package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique catalog key already exists
	ErrDuplicate = errors.New("duplicate entry")
	// ErrSeatConflict is returned when a ticket insert violates the
	// (flight, row, seat) uniqueness constraint
	ErrSeatConflict = errors.New("seat already taken")
	// ErrInvalidReference is returned when a foreign key points nowhere
	ErrInvalidReference = errors.New("referenced entity does not exist")
	// ErrAirplaneInService is returned when changing the seat layout of
	// an airplane that flies a flight with sold tickets
	ErrAirplaneInService = errors.New("airplane has sold tickets")
)

// CatalogStore persists reference data
type CatalogStore interface {
	CreateAirport(ctx context.Context, airport *Airport) error
	UpdateAirport(ctx context.Context, airport *Airport) error
	GetAirport(ctx context.Context, id uuid.UUID) (*Airport, error)
	ListAirports(ctx context.Context, filter AirportFilter) ([]Airport, error)
	DeleteAirport(ctx context.Context, id uuid.UUID) error

	CreateRoute(ctx context.Context, route *Route) error
	GetRoute(ctx context.Context, id uuid.UUID) (*Route, error)
	ListRoutes(ctx context.Context, filter RouteFilter) ([]Route, error)
	DeleteRoute(ctx context.Context, id uuid.UUID) error

	CreateAirplane(ctx context.Context, airplane *Airplane) error
	UpdateAirplane(ctx context.Context, airplane *Airplane) error
	GetAirplane(ctx context.Context, id uuid.UUID) (*Airplane, error)
	ListAirplanes(ctx context.Context, filter AirplaneFilter) ([]Airplane, error)
	DeleteAirplane(ctx context.Context, id uuid.UUID) error

	CreateCrew(ctx context.Context, crew *Crew) error
	GetCrew(ctx context.Context, id uuid.UUID) (*Crew, error)
	ListCrew(ctx context.Context, filter CrewFilter) ([]Crew, error)
	DeleteCrew(ctx context.Context, id uuid.UUID) error
}

// FlightStore persists flights. Reads populate TicketsAvailable from
// committed tickets in the same statement that loads the flight.
type FlightStore interface {
	CreateFlight(ctx context.Context, flight *Flight) error
	UpdateFlight(ctx context.Context, flight *Flight) error
	// GetFlight returns the flight with route, airports, airplane,
	// crew and taken seats
	GetFlight(ctx context.Context, id uuid.UUID) (*Flight, error)
	ListFlights(ctx context.Context, filter FlightFilter) ([]Flight, error)
	// DeleteFlight removes the flight and every ticket sold on it
	DeleteFlight(ctx context.Context, id uuid.UUID) error
}

// OrderTx is the view of one open order transaction. Every method
// runs inside the transaction; nothing is visible to other readers
// until the transaction function returns nil.
type OrderTx interface {
	// FlightBounds returns the seat layout of the flight's airplane
	FlightBounds(ctx context.Context, flightID uuid.UUID) (rows, seatsInRow int, err error)
	SeatTaken(ctx context.Context, flightID uuid.UUID, row, seat int) (bool, error)
	InsertOrder(ctx context.Context, order *Order) error
	// InsertTicket returns ErrSeatConflict when the seat triple exists
	InsertTicket(ctx context.Context, ticket *Ticket) error
}

// OrderStore persists orders and tickets
type OrderStore interface {
	// WithinOrderTx runs fn in one transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithinOrderTx(ctx context.Context, fn func(tx OrderTx) error) error
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	SetOrderConfirmation(ctx context.Context, id uuid.UUID, code string) error
	GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error)
	ListTickets(ctx context.Context, filter TicketFilter) ([]Ticket, error)
}

// Store is the full persistence contract implemented by the postgres
// and sqlite packages
type Store interface {
	CatalogStore
	FlightStore
	OrderStore
	Close()
}
