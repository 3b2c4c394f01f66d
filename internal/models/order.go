package models

import (
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
)

// TicketPick is one requested seat
type TicketPick struct {
	Flight uuid.UUID `json:"flight"`
	Row    int       `json:"row"`
	Seat   int       `json:"seat"`
}

// OrderCreate is the body of POST /api/orders. Either key may carry
// the picks.
type OrderCreate struct {
	Tickets      []TicketPick `json:"tickets"`
	OrderTickets []TicketPick `json:"order_tickets"`
}

// Picks returns the requested seats from whichever key was sent
func (o OrderCreate) Picks() []TicketPick {
	if len(o.Tickets) > 0 {
		return o.Tickets
	}
	return o.OrderTickets
}

// FlightSummary describes the flight a ticket is for
type FlightSummary struct {
	ID               uuid.UUID `json:"id"`
	Route            string    `json:"route"`
	DepartureAirport string    `json:"departure_airport"`
	ArrivalAirport   string    `json:"arrival_airport"`
	AirplaneName     string    `json:"airplane_name"`
	DepartureTime    time.Time `json:"departure_time"`
	ArrivalTime      time.Time `json:"arrival_time"`
}

// Ticket is the view of one ticket inside an order or ticket listing
type Ticket struct {
	ID      uuid.UUID      `json:"id"`
	OrderID uuid.UUID      `json:"order_id"`
	Row     int            `json:"row"`
	Seat    int            `json:"seat"`
	Flight  *FlightSummary `json:"flight,omitempty"`
}

// OrderList is an order with its tickets
type OrderList struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Tickets   []Ticket  `json:"tickets"`
}

// OrderDetail adds ownership and the confirmation code
type OrderDetail struct {
	ID               uuid.UUID `json:"id"`
	UserID           string    `json:"user_id"`
	ConfirmationCode *string   `json:"confirmation_code"`
	CreatedAt        time.Time `json:"created_at"`
	Tickets          []Ticket  `json:"tickets"`
}

func newFlightSummary(f *database.Flight) *FlightSummary {
	if f == nil {
		return nil
	}
	s := &FlightSummary{ID: f.ID, DepartureTime: f.DepartureTime, ArrivalTime: f.ArrivalTime}
	if f.Route != nil && f.Route.Source != nil && f.Route.Destination != nil {
		s.DepartureAirport = f.Route.Source.Name
		s.ArrivalAirport = f.Route.Destination.Name
		s.Route = f.Route.Source.ClosestBigCity + " → " + f.Route.Destination.ClosestBigCity
	}
	if f.Airplane != nil {
		s.AirplaneName = string(f.Airplane.Name)
	}
	return s
}

func NewTicket(t database.Ticket) Ticket {
	return Ticket{ID: t.ID, OrderID: t.OrderID, Row: t.Row, Seat: t.Seat, Flight: newFlightSummary(t.Flight)}
}

func NewTickets(tickets []database.Ticket) []Ticket {
	out := make([]Ticket, len(tickets))
	for i, t := range tickets {
		out[i] = NewTicket(t)
	}
	return out
}

func NewOrderList(orders []database.Order) []OrderList {
	out := make([]OrderList, len(orders))
	for i, o := range orders {
		out[i] = OrderList{ID: o.ID, CreatedAt: o.CreatedAt, Tickets: NewTickets(o.Tickets)}
	}
	return out
}

func NewOrderDetail(o database.Order) OrderDetail {
	return OrderDetail{
		ID:               o.ID,
		UserID:           o.UserID,
		ConfirmationCode: o.ConfirmationCode,
		CreatedAt:        o.CreatedAt,
		Tickets:          NewTickets(o.Tickets),
	}
}
