package models

import (
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
)

// FlightCreate is the body of POST/PUT /api/flights
type FlightCreate struct {
	Route         uuid.UUID   `json:"route"`
	Airplane      uuid.UUID   `json:"airplane"`
	DepartureTime time.Time   `json:"departure_time"`
	ArrivalTime   time.Time   `json:"arrival_time"`
	Crew          []uuid.UUID `json:"crew"`
}

// FlightList is one row of the flight search
type FlightList struct {
	ID               uuid.UUID `json:"id"`
	DepartureAirport string    `json:"departure_airport"`
	ArrivalAirport   string    `json:"arrival_airport"`
	AirplaneName     string    `json:"airplane_name"`
	AirplaneType     string    `json:"airplane_type"`
	DepartureTime    time.Time `json:"departure_time"`
	ArrivalTime      time.Time `json:"arrival_time"`
	Crew             []string  `json:"crew"`
	TicketsAvailable int       `json:"tickets_available"`
}

// FlightDetail nests route, airplane and crew and lists taken seats
type FlightDetail struct {
	ID               uuid.UUID       `json:"id"`
	Route            RouteDetail     `json:"route"`
	Airplane         AirplaneDetail  `json:"airplane"`
	DepartureTime    time.Time       `json:"departure_time"`
	ArrivalTime      time.Time       `json:"arrival_time"`
	Crew             []CrewList      `json:"crew"`
	TakenSeats       []database.Seat `json:"taken_places"`
	TicketsAvailable int             `json:"tickets_available"`
}

func NewFlightList(flights []database.Flight) []FlightList {
	out := make([]FlightList, len(flights))
	for i, f := range flights {
		item := FlightList{
			ID:               f.ID,
			DepartureTime:    f.DepartureTime,
			ArrivalTime:      f.ArrivalTime,
			Crew:             make([]string, len(f.Crew)),
			TicketsAvailable: f.TicketsAvailable,
		}
		if f.Route != nil && f.Route.Source != nil && f.Route.Destination != nil {
			item.DepartureAirport = f.Route.Source.Name
			item.ArrivalAirport = f.Route.Destination.Name
		}
		if f.Airplane != nil {
			item.AirplaneName = string(f.Airplane.Name)
			item.AirplaneType = f.Airplane.Type.DisplayName()
		}
		for j, c := range f.Crew {
			item.Crew[j] = c.FullName()
		}
		out[i] = item
	}
	return out
}

func NewFlightDetail(f database.Flight) FlightDetail {
	d := FlightDetail{
		ID:               f.ID,
		DepartureTime:    f.DepartureTime,
		ArrivalTime:      f.ArrivalTime,
		Crew:             NewCrewList(f.Crew),
		TakenSeats:       f.TakenSeats,
		TicketsAvailable: f.TicketsAvailable,
	}
	if d.TakenSeats == nil {
		d.TakenSeats = []database.Seat{}
	}
	if f.Route != nil {
		d.Route = NewRouteDetail(*f.Route)
	}
	if f.Airplane != nil {
		d.Airplane = NewAirplaneDetail(*f.Airplane)
	}
	return d
}
