// Package storetest holds behaviour tests shared by every
// database.Store implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener returns an empty store that is closed when the test ends
type Opener func(t *testing.T) database.Store

// Run executes the shared store tests
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store database.Store)
	}{
		{"AirportDuplicate", testAirportDuplicate},
		{"AirportFilter", testAirportFilter},
		{"RouteFilters", testRouteFilters},
		{"AirplaneType", testAirplaneType},
		{"AirplaneInService", testAirplaneInService},
		{"FlightAvailability", testFlightAvailability},
		{"FlightFilters", testFlightFilters},
		{"SeatUniqueConstraint", testSeatUniqueConstraint},
		{"OrderRollback", testOrderRollback},
		{"OrderListing", testOrderListing},
		{"TicketFilters", testTicketFilters},
		{"DeleteCascades", testDeleteCascades},
		{"NotFound", testNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

// Fixture is a flight with its catalog dependencies
type Fixture struct {
	Source      *database.Airport
	Destination *database.Airport
	Route       *database.Route
	Airplane    *database.Airplane
	Crew        []*database.Crew
	Flight      *database.Flight
}

// Seed creates two airports, a route, an airplane with the given
// layout, two crew members and one flight departing at departure
func Seed(t *testing.T, store database.Store, rows, seatsInRow int, departure time.Time) *Fixture {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	fx := &Fixture{
		Source:      &database.Airport{Name: "Heathrow " + suffix, ClosestBigCity: "London"},
		Destination: &database.Airport{Name: "Charles de Gaulle " + suffix, ClosestBigCity: "Paris"},
	}
	require.NoError(t, store.CreateAirport(ctx, fx.Source))
	require.NoError(t, store.CreateAirport(ctx, fx.Destination))

	fx.Route = &database.Route{SourceID: fx.Source.ID, DestinationID: fx.Destination.ID, Distance: 344}
	require.NoError(t, store.CreateRoute(ctx, fx.Route))

	fx.Airplane = &database.Airplane{Name: database.AirplaneAirbus320, Rows: rows, SeatsInRow: seatsInRow}
	require.NoError(t, store.CreateAirplane(ctx, fx.Airplane))

	for _, c := range []*database.Crew{
		{FirstName: "Amelia", LastName: "Earhart", Role: database.CrewRolePilot},
		{FirstName: "Jean", LastName: "Batten", Role: database.CrewRoleFlightAttendant},
	} {
		require.NoError(t, store.CreateCrew(ctx, c))
		fx.Crew = append(fx.Crew, c)
	}

	fx.Flight = &database.Flight{
		RouteID:       fx.Route.ID,
		AirplaneID:    fx.Airplane.ID,
		DepartureTime: departure,
		ArrivalTime:   departure.Add(90 * time.Minute),
		CrewIDs:       []uuid.UUID{fx.Crew[0].ID, fx.Crew[1].ID},
	}
	require.NoError(t, store.CreateFlight(ctx, fx.Flight))
	return fx
}

// Buy commits one order for user holding the given seats
func Buy(t *testing.T, store database.Store, user string, flightID uuid.UUID, seats ...database.Seat) *database.Order {
	t.Helper()
	order := &database.Order{UserID: user}
	err := store.WithinOrderTx(context.Background(), func(tx database.OrderTx) error {
		if err := tx.InsertOrder(context.Background(), order); err != nil {
			return err
		}
		for _, s := range seats {
			ticket := &database.Ticket{FlightID: flightID, OrderID: order.ID, Row: s.Row, Seat: s.Seat}
			if err := tx.InsertTicket(context.Background(), ticket); err != nil {
				return err
			}
			order.Tickets = append(order.Tickets, *ticket)
		}
		return nil
	})
	require.NoError(t, err)
	return order
}

var departure = time.Date(2030, time.March, 14, 9, 30, 0, 0, time.UTC)

func testAirportDuplicate(t *testing.T, store database.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateAirport(ctx, &database.Airport{Name: "Ben Gurion", ClosestBigCity: "Tel Aviv"}))

	err := store.CreateAirport(ctx, &database.Airport{Name: "Ben Gurion", ClosestBigCity: "Tel Aviv"})
	assert.ErrorIs(t, err, database.ErrDuplicate)

	require.NoError(t, store.CreateAirport(ctx, &database.Airport{Name: "Ben Gurion", ClosestBigCity: "Jerusalem"}))
}

func testAirportFilter(t *testing.T, store database.Store) {
	ctx := context.Background()
	require.NoError(t, store.CreateAirport(ctx, &database.Airport{Name: "Schiphol", ClosestBigCity: "Amsterdam"}))
	require.NoError(t, store.CreateAirport(ctx, &database.Airport{Name: "Tegel", ClosestBigCity: "Berlin"}))

	byCity, err := store.ListAirports(ctx, database.AirportFilter{Name: "amster"})
	require.NoError(t, err)
	require.Len(t, byCity, 1)
	assert.Equal(t, "Schiphol", byCity[0].Name)

	byName, err := store.ListAirports(ctx, database.AirportFilter{Name: "TEG"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Berlin", byName[0].ClosestBigCity)

	literal, err := store.ListAirports(ctx, database.AirportFilter{Name: "%"})
	require.NoError(t, err)
	assert.Empty(t, literal)
}

func testRouteFilters(t *testing.T, store database.Store) {
	ctx := context.Background()
	london := &database.Airport{Name: "Gatwick", ClosestBigCity: "London"}
	tokyo := &database.Airport{Name: "Narita", ClosestBigCity: "Tokyo"}
	cairo := &database.Airport{Name: "Cairo International", ClosestBigCity: "Cairo"}
	for _, a := range []*database.Airport{london, tokyo, cairo} {
		require.NoError(t, store.CreateAirport(ctx, a))
	}

	long := &database.Route{SourceID: london.ID, DestinationID: tokyo.ID, Distance: 9559}
	medium := &database.Route{SourceID: london.ID, DestinationID: cairo.ID, Distance: 3510}
	require.NoError(t, store.CreateRoute(ctx, long))
	require.NoError(t, store.CreateRoute(ctx, medium))

	routes, err := store.ListRoutes(ctx, database.RouteFilter{DistanceRange: database.DistanceLong})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, long.ID, routes[0].ID)
	assert.Equal(t, "Tokyo", routes[0].Destination.ClosestBigCity)

	routes, err = store.ListRoutes(ctx, database.RouteFilter{SourceCity: "lon", DestinationCity: "cai"})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, medium.ID, routes[0].ID)

	routes, err = store.ListRoutes(ctx, database.RouteFilter{DistanceRange: database.DistanceShort})
	require.NoError(t, err)
	assert.Empty(t, routes)

	err = store.CreateRoute(ctx, &database.Route{SourceID: london.ID, DestinationID: uuid.New(), Distance: 1})
	assert.ErrorIs(t, err, database.ErrInvalidReference)
}

func testAirplaneType(t *testing.T, store database.Store) {
	ctx := context.Background()
	plane := &database.Airplane{Name: database.AirplaneEmbraer190, Rows: 10, SeatsInRow: 10}
	require.NoError(t, store.CreateAirplane(ctx, plane))
	assert.Equal(t, database.AirplaneTypeSmall, plane.Type)

	plane.Rows = 20
	require.NoError(t, store.UpdateAirplane(ctx, plane))

	got, err := store.GetAirplane(ctx, plane.ID)
	require.NoError(t, err)
	assert.Equal(t, database.AirplaneTypeLarge, got.Type)
	assert.Equal(t, 200, got.Capacity())

	planes, err := store.ListAirplanes(ctx, database.AirplaneFilter{Type: "lr"})
	require.NoError(t, err)
	require.Len(t, planes, 1)
	assert.Equal(t, plane.ID, planes[0].ID)
}

func testAirplaneInService(t *testing.T, store database.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 10, 6, departure)

	fx.Airplane.Name = database.AirplaneAirbus340
	require.NoError(t, store.UpdateAirplane(ctx, fx.Airplane), "renaming is allowed before sales")

	Buy(t, store, "alice", fx.Flight.ID, database.Seat{Row: 1, Seat: 1})

	fx.Airplane.Rows = 11
	assert.ErrorIs(t, store.UpdateAirplane(ctx, fx.Airplane), database.ErrAirplaneInService)

	other := &database.Airplane{Name: database.AirplaneBoeing737, Rows: 30, SeatsInRow: 6}
	require.NoError(t, store.CreateAirplane(ctx, other))
	fx.Flight.AirplaneID = other.ID
	assert.ErrorIs(t, store.UpdateFlight(ctx, fx.Flight), database.ErrAirplaneInService)
}

func testFlightAvailability(t *testing.T, store database.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 10, 12, departure)

	got, err := store.GetFlight(ctx, fx.Flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, got.TicketsAvailable)
	assert.Empty(t, got.TakenSeats)
	assert.Len(t, got.Crew, 2)

	Buy(t, store, "alice", fx.Flight.ID,
		database.Seat{Row: 1, Seat: 1}, database.Seat{Row: 1, Seat: 2}, database.Seat{Row: 1, Seat: 3},
		database.Seat{Row: 2, Seat: 1}, database.Seat{Row: 2, Seat: 2})

	got, err = store.GetFlight(ctx, fx.Flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 115, got.TicketsAvailable)

	Buy(t, store, "bob", fx.Flight.ID, database.Seat{Row: 10, Seat: 12}, database.Seat{Row: 9, Seat: 1})

	got, err = store.GetFlight(ctx, fx.Flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 113, got.TicketsAvailable)
	require.Len(t, got.TakenSeats, 7)
	assert.Equal(t, database.Seat{Row: 1, Seat: 1}, got.TakenSeats[0])
	assert.Equal(t, database.Seat{Row: 10, Seat: 12}, got.TakenSeats[6])

	flights, err := store.ListFlights(ctx, database.FlightFilter{})
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, 113, flights[0].TicketsAvailable)
	assert.Equal(t, "London", flights[0].Route.Source.ClosestBigCity)
	assert.Len(t, flights[0].Crew, 2)
}

func testFlightFilters(t *testing.T, store database.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 5, 4, departure)

	day := departure.Truncate(24 * time.Hour)
	nextDay := day.AddDate(0, 0, 1)

	cases := []struct {
		name   string
		filter database.FlightFilter
		want   int
	}{
		{"all", database.FlightFilter{}, 1},
		{"airplane name", database.FlightFilter{AirplaneName: "a32"}, 1},
		{"airplane mismatch", database.FlightFilter{AirplaneName: "B7"}, 0},
		{"departure city", database.FlightFilter{DepartureAirport: "LONDON"}, 1},
		{"departure airport name", database.FlightFilter{DepartureAirport: "heathrow"}, 1},
		{"arrival city", database.FlightFilter{ArrivalAirport: "par"}, 1},
		{"arrival swapped", database.FlightFilter{ArrivalAirport: "london"}, 0},
		{"departure date", database.FlightFilter{DepartureDate: &day}, 1},
		{"departure other date", database.FlightFilter{DepartureDate: &nextDay}, 0},
		{"arrival date", database.FlightFilter{ArrivalDate: &day}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flights, err := store.ListFlights(ctx, tc.filter)
			require.NoError(t, err)
			assert.Len(t, flights, tc.want)
			if tc.want > 0 {
				assert.Equal(t, fx.Flight.ID, flights[0].ID)
			}
		})
	}
}

func testSeatUniqueConstraint(t *testing.T, store database.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 3, 3, departure)
	Buy(t, store, "alice", fx.Flight.ID, database.Seat{Row: 2, Seat: 2})

	err := store.WithinOrderTx(ctx, func(tx database.OrderTx) error {
		order := &database.Order{UserID: "bob"}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		return tx.InsertTicket(ctx, &database.Ticket{FlightID: fx.Flight.ID, OrderID: order.ID, Row: 2, Seat: 2})
	})
	assert.ErrorIs(t, err, database.ErrSeatConflict)

	orders, err := store.ListOrders(ctx, database.OrderFilter{UserID: "bob"})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func testOrderRollback(t *testing.T, store database.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 3, 3, departure)

	err := store.WithinOrderTx(ctx, func(tx database.OrderTx) error {
		rows, seats, err := tx.FlightBounds(ctx, fx.Flight.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, rows)
		assert.Equal(t, 3, seats)

		order := &database.Order{UserID: "carol"}
		require.NoError(t, tx.InsertOrder(ctx, order))
		require.NoError(t, tx.InsertTicket(ctx, &database.Ticket{FlightID: fx.Flight.ID, OrderID: order.ID, Row: 1, Seat: 1}))

		taken, err := tx.SeatTaken(ctx, fx.Flight.ID, 1, 1)
		require.NoError(t, err)
		assert.True(t, taken, "insert is visible inside the transaction")

		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	got, err := store.GetFlight(ctx, fx.Flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.TicketsAvailable)

	err = store.WithinOrderTx(ctx, func(tx database.OrderTx) error {
		_, _, err := tx.FlightBounds(ctx, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func testOrderListing(t *testing.T, store database.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 4, 4, departure)

	first := Buy(t, store, "dave", fx.Flight.ID, database.Seat{Row: 1, Seat: 1}, database.Seat{Row: 1, Seat: 2})
	second := Buy(t, store, "dave", fx.Flight.ID, database.Seat{Row: 2, Seat: 1})
	Buy(t, store, "erin", fx.Flight.ID, database.Seat{Row: 3, Seat: 1})

	orders, err := store.ListOrders(ctx, database.OrderFilter{UserID: "dave"})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, first.ID, orders[0].ID)
	assert.Equal(t, second.ID, orders[1].ID)
	assert.Len(t, orders[0].Tickets, 2)
	assert.Len(t, orders[1].Tickets, 1)

	today := first.CreatedAt
	orders, err = store.ListOrders(ctx, database.OrderFilter{UserID: "dave", CreatedOn: &today})
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	yesterday := today.AddDate(0, 0, -1)
	orders, err = store.ListOrders(ctx, database.OrderFilter{UserID: "dave", CreatedOn: &yesterday})
	require.NoError(t, err)
	assert.Empty(t, orders)

	got, err := store.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "dave", got.UserID)
	assert.Nil(t, got.ConfirmationCode)
	require.Len(t, got.Tickets, 2)
	assert.Equal(t, "Paris", got.Tickets[0].Flight.Route.Destination.ClosestBigCity)

	require.NoError(t, store.SetOrderConfirmation(ctx, first.ID, "ARS-123456"))
	got, err = store.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ConfirmationCode)
	assert.Equal(t, "ARS-123456", *got.ConfirmationCode)

	assert.ErrorIs(t, store.SetOrderConfirmation(ctx, uuid.New(), "x"), database.ErrNotFound)
}

func testTicketFilters(t *testing.T, store database.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 4, 4, departure)
	order := Buy(t, store, "frank", fx.Flight.ID, database.Seat{Row: 4, Seat: 4})
	Buy(t, store, "grace", fx.Flight.ID, database.Seat{Row: 3, Seat: 3})

	tickets, err := store.ListTickets(ctx, database.TicketFilter{UserID: "frank"})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, order.ID, tickets[0].OrderID)

	tickets, err = store.ListTickets(ctx, database.TicketFilter{FlightFrom: "lond", FlightTo: "paris"})
	require.NoError(t, err)
	assert.Len(t, tickets, 2)

	tickets, err = store.ListTickets(ctx, database.TicketFilter{FlightFrom: "paris"})
	require.NoError(t, err)
	assert.Empty(t, tickets)

	ticket, err := store.GetTicket(ctx, order.Tickets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 4, ticket.Row)
	assert.Equal(t, database.AirplaneAirbus320, ticket.Flight.Airplane.Name)
}

func testDeleteCascades(t *testing.T, store database.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 4, 4, departure)
	order := Buy(t, store, "heidi", fx.Flight.ID, database.Seat{Row: 1, Seat: 1})

	require.NoError(t, store.DeleteFlight(ctx, fx.Flight.ID))

	_, err := store.GetTicket(ctx, order.Tickets[0].ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	flight := &database.Flight{
		RouteID: fx.Route.ID, AirplaneID: fx.Airplane.ID,
		DepartureTime: departure, ArrivalTime: departure.Add(time.Hour),
	}
	require.NoError(t, store.CreateFlight(ctx, flight))
	require.NoError(t, store.DeleteAirport(ctx, fx.Source.ID))

	_, err = store.GetRoute(ctx, fx.Route.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = store.GetFlight(ctx, flight.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	require.NoError(t, store.DeleteCrew(ctx, fx.Crew[0].ID))
	assert.ErrorIs(t, store.DeleteCrew(ctx, fx.Crew[0].ID), database.ErrNotFound)
}

func testNotFound(t *testing.T, store database.Store) {
	ctx := context.Background()
	id := uuid.New()

	_, err := store.GetAirport(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = store.GetAirplane(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = store.GetCrew(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = store.GetFlight(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = store.GetOrder(ctx, id)
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.ErrorIs(t, store.UpdateAirport(ctx, &database.Airport{ID: id, Name: "x", ClosestBigCity: "y"}), database.ErrNotFound)
	assert.ErrorIs(t, store.DeleteFlight(ctx, id), database.ErrNotFound)
}
