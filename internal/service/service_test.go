package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database/sqlite"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/geo"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/seating"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = auth.Identity{UserID: "alice"}
	bob   = auth.Identity{UserID: "bob"}
	admin = auth.Identity{UserID: "root", Admin: true}
)

func openStore(t *testing.T) database.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.Config{
		Path:     filepath.Join(t.TempDir(), "reservations.db"),
		PoolSize: 8,
	})
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func newService(t *testing.T, cities geo.Source) *Service {
	t.Helper()
	if cities == nil {
		cache := geo.NewCoordinateCache(time.Hour, 100)
		cities = geo.NewCachedSource(geo.NewCSVSource("../geo/testdata/cities.csv", nil), cache)
	}
	svc, err := New(Config{Store: openStore(t), Cities: cities})
	require.NoError(t, err)
	return svc
}

// seedFlight creates London -> Paris on an airplane with the given
// layout and returns the flight ID
func seedFlight(t *testing.T, svc *Service, rows, seatsInRow int) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	src, err := svc.CreateAirport(ctx, models.AirportCreate{Name: "Heathrow", ClosestBigCity: "London"})
	require.NoError(t, err)
	dst, err := svc.CreateAirport(ctx, models.AirportCreate{Name: "Charles de Gaulle", ClosestBigCity: "Paris"})
	require.NoError(t, err)
	route, err := svc.CreateRoute(ctx, models.RouteCreate{Source: src.ID, Destination: dst.ID})
	require.NoError(t, err)
	airplane, err := svc.CreateAirplane(ctx, models.AirplaneCreate{Name: database.AirplaneAirbus320, Rows: rows, SeatsInRow: seatsInRow})
	require.NoError(t, err)
	pilot, err := svc.CreateCrew(ctx, models.CrewCreate{FirstName: "Amelia", LastName: "Earhart", Role: database.CrewRolePilot})
	require.NoError(t, err)

	departure := time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC)
	flight, err := svc.CreateFlight(ctx, models.FlightCreate{
		Route:         route.ID,
		Airplane:      airplane.ID,
		DepartureTime: departure,
		ArrivalTime:   departure.Add(75 * time.Minute),
		Crew:          []uuid.UUID{pilot.ID},
	})
	require.NoError(t, err)
	return flight.ID
}

func order(picks ...models.TicketPick) models.OrderCreate {
	return models.OrderCreate{Tickets: picks}
}

func pick(flight uuid.UUID, row, seat int) models.TicketPick {
	return models.TicketPick{Flight: flight, Row: row, Seat: seat}
}

func available(t *testing.T, svc *Service, flightID uuid.UUID) int {
	t.Helper()
	flight, err := svc.GetFlight(context.Background(), flightID)
	require.NoError(t, err)
	return flight.TicketsAvailable
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Store: openStore(t)})
	assert.Error(t, err)
}

func TestCreateAirport(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	airport, err := svc.CreateAirport(ctx, models.AirportCreate{Name: " Heathrow ", ClosestBigCity: "london"})
	require.NoError(t, err)
	assert.Equal(t, "Heathrow", airport.Name)
	assert.NotEqual(t, uuid.Nil, airport.ID)

	t.Run("unknown city", func(t *testing.T) {
		_, err := svc.CreateAirport(ctx, models.AirportCreate{Name: "Nowhere Intl", ClosestBigCity: "Atlantis"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "closest_big_city", verr.Field)
		assert.Equal(t, []string{"The entered city does not exist."}, verr.Messages)
		var cityErr *UnknownCityError
		assert.ErrorAs(t, err, &cityErr)
		assert.ErrorIs(t, err, geo.ErrUnknownCity)
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := svc.CreateAirport(ctx, models.AirportCreate{Name: "Heathrow", ClosestBigCity: "london"})
		var dup *DuplicateAirportError
		require.ErrorAs(t, err, &dup)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, FieldNonField, verr.Field)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := svc.CreateAirport(ctx, models.AirportCreate{Name: "  ", ClosestBigCity: "London"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, map[string][]string{"name": {msgBlank}}, verr.FieldErrors())
	})
}

func TestCreateAirportSourceUnavailable(t *testing.T) {
	broken := geo.NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"), nil)
	svc := newService(t, broken)

	_, err := svc.CreateAirport(context.Background(), models.AirportCreate{Name: "Heathrow", ClosestBigCity: "London"})
	var upstream *UpstreamDataError
	require.ErrorAs(t, err, &upstream)
	assert.ErrorIs(t, err, geo.ErrSourceUnavailable)
}

func TestUpdateAirport(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	airport, err := svc.CreateAirport(ctx, models.AirportCreate{Name: "Heathrow", ClosestBigCity: "London"})
	require.NoError(t, err)

	updated, err := svc.UpdateAirport(ctx, airport.ID, models.AirportCreate{Name: "Gatwick", ClosestBigCity: "London"})
	require.NoError(t, err)
	assert.Equal(t, "Gatwick", updated.Name)

	_, err = svc.UpdateAirport(ctx, uuid.New(), models.AirportCreate{Name: "Gatwick", ClosestBigCity: "London"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRoute(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	london, err := svc.CreateAirport(ctx, models.AirportCreate{Name: "Heathrow", ClosestBigCity: "London"})
	require.NoError(t, err)
	paris, err := svc.CreateAirport(ctx, models.AirportCreate{Name: "Orly", ClosestBigCity: "Paris"})
	require.NoError(t, err)

	route, err := svc.CreateRoute(ctx, models.RouteCreate{Source: london.ID, Destination: paris.ID})
	require.NoError(t, err)
	assert.InDelta(t, 344, route.Distance, 1)
	assert.Equal(t, "London", route.Source.ClosestBigCity)
	assert.Equal(t, "Paris", route.Destination.ClosestBigCity)

	routes, err := svc.ListRoutes(ctx, database.RouteFilter{DistanceRange: database.DistanceShort})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "London", routes[0].Source)

	t.Run("same airport", func(t *testing.T) {
		_, err := svc.CreateRoute(ctx, models.RouteCreate{Source: london.ID, Destination: london.ID})
		var same *SameAirportError
		require.ErrorAs(t, err, &same)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"Departure and arrival points cannot be the same."}, verr.Messages)
	})

	t.Run("unknown airport", func(t *testing.T) {
		_, err := svc.CreateRoute(ctx, models.RouteCreate{Source: london.ID, Destination: uuid.New()})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "destination", verr.Field)
	})
}

func TestAirplaneType(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	airplane, err := svc.CreateAirplane(ctx, models.AirplaneCreate{Name: database.AirplaneEmbraer170, Rows: 10, SeatsInRow: 10})
	require.NoError(t, err)
	assert.Equal(t, 100, airplane.Capacity)
	assert.Equal(t, database.AirplaneTypeSmall, airplane.AirplaneType)

	airplane, err = svc.UpdateAirplane(ctx, airplane.ID, models.AirplaneCreate{Name: database.AirplaneBoeing777, Rows: 40, SeatsInRow: 6})
	require.NoError(t, err)
	assert.Equal(t, database.AirplaneTypeLarge, airplane.AirplaneType)

	stored, err := svc.GetAirplane(ctx, airplane.ID)
	require.NoError(t, err)
	assert.Equal(t, database.AirplaneTypeLarge, stored.AirplaneType)
	assert.Equal(t, "Boeing-777", stored.DisplayName)

	_, err = svc.CreateAirplane(ctx, models.AirplaneCreate{Name: "C919", Rows: 10, SeatsInRow: 6})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = svc.CreateAirplane(ctx, models.AirplaneCreate{Name: database.AirplaneAirbus320, Rows: 0, SeatsInRow: 6})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rows", verr.Field)
}

func TestAirplaneLayoutLockedAfterSale(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	flightID := seedFlight(t, svc, 20, 6)

	flight, err := svc.GetFlight(ctx, flightID)
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, alice, order(pick(flightID, 1, 1)))
	require.NoError(t, err)

	_, err = svc.UpdateAirplane(ctx, flight.Airplane.ID, models.AirplaneCreate{Name: database.AirplaneAirbus320, Rows: 10, SeatsInRow: 6})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, database.ErrAirplaneInService)
}

func TestCreateCrew(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	crew, err := svc.CreateCrew(ctx, models.CrewCreate{FirstName: "Chuck", LastName: "Yeager", Role: database.CrewRoleCoPilot})
	require.NoError(t, err)
	assert.Equal(t, "Chuck Yeager", crew.FullName)

	_, err = svc.CreateCrew(ctx, models.CrewCreate{FirstName: "Chuck", LastName: "Yeager", Role: "captain"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "role", verr.Field)

	require.NoError(t, svc.DeleteCrew(ctx, crew.ID))
	assert.ErrorIs(t, svc.DeleteCrew(ctx, crew.ID), ErrNotFound)
}

func TestCreateFlightValidation(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	flightID := seedFlight(t, svc, 20, 6)

	flight, err := svc.GetFlight(ctx, flightID)
	require.NoError(t, err)
	assert.Equal(t, 120, flight.TicketsAvailable)
	require.Len(t, flight.Crew, 1)
	assert.Equal(t, "Amelia Earhart", flight.Crew[0].FullName)
	assert.Empty(t, flight.TakenSeats)

	departure := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)
	req := models.FlightCreate{
		Route:         flight.Route.ID,
		Airplane:      flight.Airplane.ID,
		DepartureTime: departure,
		ArrivalTime:   departure.Add(-time.Minute),
	}
	_, err = svc.CreateFlight(ctx, req)
	var timeErr *TimeOrderError
	require.ErrorAs(t, err, &timeErr)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "arrival_time", verr.Field)

	req.ArrivalTime = departure
	req.Crew = []uuid.UUID{uuid.New()}
	_, err = svc.CreateFlight(ctx, req)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "crew", verr.Field)

	req.Crew = nil
	created, err := svc.CreateFlight(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, created.Crew)
}

func TestCreateOrder(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	flightID := seedFlight(t, svc, 20, 6)

	created, err := svc.CreateOrder(ctx, alice, order(pick(flightID, 1, 1), pick(flightID, 1, 2)))
	require.NoError(t, err)
	assert.Equal(t, "alice", created.UserID)
	require.Len(t, created.Tickets, 2)
	for _, ticket := range created.Tickets {
		assert.Equal(t, created.ID, ticket.OrderID)
		require.NotNil(t, ticket.Flight)
		assert.Equal(t, flightID, ticket.Flight.ID)
	}
	assert.Equal(t, 118, available(t, svc, flightID))

	_, err = svc.CreateOrder(ctx, bob, order(pick(flightID, 1, 2)))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, seating.SourcePreCheck, conflict.Err.Source)
	assert.Equal(t, map[string][]string{
		FieldOrderTickets: {"Seat 2 in row 1 is already taken on flight " + flightID.String()},
	}, conflict.FieldErrors())
	assert.Equal(t, 118, available(t, svc, flightID))
}

func TestOrderAliasKey(t *testing.T) {
	svc := newService(t, nil)
	flightID := seedFlight(t, svc, 20, 6)

	created, err := svc.CreateOrder(context.Background(), alice, models.OrderCreate{
		OrderTickets: []models.TicketPick{pick(flightID, 3, 3)},
	})
	require.NoError(t, err)
	assert.Len(t, created.Tickets, 1)
}

func TestOrderBounds(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	flightID := seedFlight(t, svc, 20, 6)

	tests := []struct {
		name      string
		row, seat int
		ok        bool
	}{
		{"row zero", 0, 1, false},
		{"last row", 20, 1, true},
		{"row past end", 21, 1, false},
		{"seat zero", 2, 0, false},
		{"last seat", 2, 6, true},
		{"seat past end", 2, 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, alice, order(pick(flightID, tt.row, tt.seat)))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, FieldOrderTickets, verr.Field)
			assert.Equal(t, []string{"Specify row value in range [1, 20], seat value in range [1, 6]"}, verr.Messages)
		})
	}
}

func TestOrderIsAtomic(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	flightID := seedFlight(t, svc, 20, 6)

	_, err := svc.CreateOrder(ctx, alice, order(pick(flightID, 5, 5)))
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, bob, order(pick(flightID, 4, 1), pick(flightID, 5, 5), pick(flightID, 4, 2)))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	orders, err := svc.ListOrders(ctx, bob, nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, 119, available(t, svc, flightID))
}

func TestOrderDuplicatePick(t *testing.T) {
	svc := newService(t, nil)
	flightID := seedFlight(t, svc, 20, 6)

	_, err := svc.CreateOrder(context.Background(), alice, order(pick(flightID, 2, 2), pick(flightID, 2, 2)))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, seating.SourceSameOrder, conflict.Err.Source)
	assert.Equal(t, 120, available(t, svc, flightID))
}

func TestOrderRejected(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, alice, models.OrderCreate{})
	var empty *EmptyOrderError
	require.ErrorAs(t, err, &empty)

	_, err = svc.CreateOrder(ctx, alice, order(pick(uuid.New(), 1, 1)))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldOrderTickets, verr.Field)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestConcurrentOrdersForOneSeat(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	flightID := seedFlight(t, svc, 20, 6)

	const buyers = 8
	errs := make([]error, buyers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			caller := auth.Identity{UserID: uuid.NewString()}
			_, errs[i] = svc.CreateOrder(ctx, caller, order(pick(flightID, 7, 3)))
		}()
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *ConflictError
		assert.ErrorAs(t, err, &conflict)
	}
	assert.Equal(t, 1, succeeded)

	flight, err := svc.GetFlight(ctx, flightID)
	require.NoError(t, err)
	assert.Equal(t, []database.Seat{{Row: 7, Seat: 3}}, flight.TakenSeats)
	assert.Equal(t, 119, flight.TicketsAvailable)
}

func TestOrderOwnership(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	flightID := seedFlight(t, svc, 20, 6)

	created, err := svc.CreateOrder(ctx, alice, order(pick(flightID, 1, 1)))
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, bob, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.GetOrder(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetOrder(ctx, admin, created.ID)
	assert.NoError(t, err)

	ticketID := created.Tickets[0].ID
	_, err = svc.GetTicket(ctx, bob, ticketID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetTicket(ctx, alice, ticketID)
	assert.NoError(t, err)

	orders, err := svc.ListOrders(ctx, bob, nil)
	require.NoError(t, err)
	assert.Empty(t, orders)

	tickets, err := svc.ListTickets(ctx, bob, database.TicketFilter{UserID: "alice"})
	require.NoError(t, err)
	assert.Empty(t, tickets)

	tickets, err = svc.ListTickets(ctx, admin, database.TicketFilter{FlightFrom: "lond"})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

type recordingObserver struct {
	mu     sync.Mutex
	orders []*database.Order
	err    error
}

func (r *recordingObserver) OrderCommitted(_ context.Context, order *database.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order)
	return r.err
}

func TestObserversNotifiedAfterCommit(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	flightID := seedFlight(t, svc, 20, 6)

	failing := &recordingObserver{err: errors.New("workflow service down")}
	recorder := &recordingObserver{}
	svc.AddObserver(failing)
	svc.AddObserver(recorder)

	created, err := svc.CreateOrder(ctx, alice, order(pick(flightID, 9, 1)))
	require.NoError(t, err)

	require.Len(t, recorder.orders, 1)
	assert.Equal(t, created.ID, recorder.orders[0].ID)
	assert.Len(t, recorder.orders[0].Tickets, 1)
	assert.Len(t, failing.orders, 1)

	_, err = svc.CreateOrder(ctx, bob, order(pick(flightID, 9, 1)))
	require.Error(t, err)
	assert.Len(t, recorder.orders, 1)
}

func TestDeleteFlightFreesSeats(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	flightID := seedFlight(t, svc, 20, 6)

	created, err := svc.CreateOrder(ctx, alice, order(pick(flightID, 1, 1)))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFlight(ctx, flightID))
	_, err = svc.GetFlight(ctx, flightID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetTicket(ctx, alice, created.Tickets[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailabilityTracksCommittedTickets(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	flightID := seedFlight(t, svc, 20, 6)
	require.Equal(t, 120, available(t, svc, flightID))

	for seat := 1; seat <= 5; seat++ {
		_, err := svc.CreateOrder(ctx, alice, order(pick(flightID, 2, seat)))
		require.NoError(t, err)
	}
	assert.Equal(t, 115, available(t, svc, flightID))

	_, err := svc.CreateOrder(ctx, bob, order(pick(flightID, 7, 1), pick(flightID, 7, 2)))
	require.NoError(t, err)
	assert.Equal(t, 113, available(t, svc, flightID))

	flights, err := svc.ListFlights(ctx, database.FlightFilter{})
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, 113, flights[0].TicketsAvailable)

	detail, err := svc.GetFlight(ctx, flightID)
	require.NoError(t, err)
	assert.Len(t, detail.TakenSeats, 7)
}
