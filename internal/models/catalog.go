package models

import (
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
)

// AirportCreate is the body of POST/PUT /api/airports
type AirportCreate struct {
	Name           string `json:"name"`
	ClosestBigCity string `json:"closest_big_city"`
}

// Airport is both the list and detail view of an airport
type Airport struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	ClosestBigCity string    `json:"closest_big_city"`
}

func NewAirport(a database.Airport) Airport {
	return Airport{ID: a.ID, Name: a.Name, ClosestBigCity: a.ClosestBigCity}
}

func NewAirports(airports []database.Airport) []Airport {
	out := make([]Airport, len(airports))
	for i, a := range airports {
		out[i] = NewAirport(a)
	}
	return out
}

// RouteCreate is the body of POST /api/routes. Distance is computed.
type RouteCreate struct {
	Source      uuid.UUID `json:"source"`
	Destination uuid.UUID `json:"destination"`
}

// RouteList shows a route by its cities
type RouteList struct {
	ID          uuid.UUID `json:"id"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Distance    int       `json:"distance"`
}

// RouteDetail nests both airports
type RouteDetail struct {
	ID          uuid.UUID `json:"id"`
	Source      Airport   `json:"source"`
	Destination Airport   `json:"destination"`
	Distance    int       `json:"distance"`
}

func NewRouteList(routes []database.Route) []RouteList {
	out := make([]RouteList, len(routes))
	for i, r := range routes {
		out[i] = RouteList{ID: r.ID, Distance: r.Distance}
		if r.Source != nil {
			out[i].Source = r.Source.ClosestBigCity
		}
		if r.Destination != nil {
			out[i].Destination = r.Destination.ClosestBigCity
		}
	}
	return out
}

func NewRouteDetail(r database.Route) RouteDetail {
	d := RouteDetail{ID: r.ID, Distance: r.Distance}
	if r.Source != nil {
		d.Source = NewAirport(*r.Source)
	}
	if r.Destination != nil {
		d.Destination = NewAirport(*r.Destination)
	}
	return d
}

// AirplaneCreate is the body of POST/PUT /api/airplanes
type AirplaneCreate struct {
	Name       database.AirplaneName `json:"name"`
	Rows       int                   `json:"rows"`
	SeatsInRow int                   `json:"seats_in_row"`
}

// AirplaneList is the compact airplane view
type AirplaneList struct {
	ID           uuid.UUID             `json:"id"`
	Name         database.AirplaneName `json:"name"`
	AirplaneType string                `json:"airplane_type"`
	Capacity     int                   `json:"capacity"`
}

// AirplaneDetail adds the seat layout
type AirplaneDetail struct {
	ID           uuid.UUID             `json:"id"`
	Name         database.AirplaneName `json:"name"`
	DisplayName  string                `json:"display_name"`
	Rows         int                   `json:"rows"`
	SeatsInRow   int                   `json:"seats_in_row"`
	Capacity     int                   `json:"capacity"`
	AirplaneType database.AirplaneType `json:"airplane_type"`
}

func NewAirplaneList(airplanes []database.Airplane) []AirplaneList {
	out := make([]AirplaneList, len(airplanes))
	for i, a := range airplanes {
		out[i] = AirplaneList{
			ID:           a.ID,
			Name:         a.Name,
			AirplaneType: a.Type.DisplayName(),
			Capacity:     a.Capacity(),
		}
	}
	return out
}

func NewAirplaneDetail(a database.Airplane) AirplaneDetail {
	return AirplaneDetail{
		ID:           a.ID,
		Name:         a.Name,
		DisplayName:  a.Name.DisplayName(),
		Rows:         a.Rows,
		SeatsInRow:   a.SeatsInRow,
		Capacity:     a.Capacity(),
		AirplaneType: a.Type,
	}
}

// CrewCreate is the body of POST /api/crews
type CrewCreate struct {
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Role      database.CrewRole `json:"role"`
}

// CrewList is the compact crew view
type CrewList struct {
	ID       uuid.UUID         `json:"id"`
	FullName string            `json:"full_name"`
	Role     database.CrewRole `json:"role"`
}

// CrewDetail is the full crew view
type CrewDetail struct {
	ID        uuid.UUID         `json:"id"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	FullName  string            `json:"full_name"`
	Role      database.CrewRole `json:"role"`
}

func NewCrewList(crew []database.Crew) []CrewList {
	out := make([]CrewList, len(crew))
	for i, c := range crew {
		out[i] = CrewList{ID: c.ID, FullName: c.FullName(), Role: c.Role}
	}
	return out
}

func NewCrewDetail(c database.Crew) CrewDetail {
	return CrewDetail{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		FullName:  c.FullName(),
		Role:      c.Role,
	}
}
