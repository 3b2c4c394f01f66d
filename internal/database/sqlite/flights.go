package sqlite

import (
	"context"
	"fmt"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
)

const flightSelect = `
	SELECT f.id, f.route_id, f.airplane_id, f.departure_time, f.arrival_time,
	       f.created_at, f.updated_at,
	       r.source_id, r.destination_id, r.distance, r.created_at,
	       s.name, s.closest_big_city, s.created_at,
	       d.name, d.closest_big_city, d.created_at,
	       a.name, a.row_count, a.seats_in_row, a.airplane_type, a.created_at, a.updated_at,
	       a.row_count * a.seats_in_row
	           - (SELECT COUNT(*) FROM tickets t WHERE t.flight_id = f.id) AS tickets_available
	FROM flights f
	JOIN routes r ON r.id = f.route_id
	JOIN airports s ON s.id = r.source_id
	JOIN airports d ON d.id = r.destination_id
	JOIN airplanes a ON a.id = f.airplane_id`

func scanFlight(r *row) database.Flight {
	f := database.Flight{
		ID:            r.uuid(0),
		RouteID:       r.uuid(1),
		AirplaneID:    r.uuid(2),
		DepartureTime: r.time(3),
		ArrivalTime:   r.time(4),
		CreatedAt:     r.time(5),
		UpdatedAt:     r.time(6),
	}
	rt := &database.Route{
		ID:            f.RouteID,
		SourceID:      r.uuid(7),
		DestinationID: r.uuid(8),
		Distance:      r.int(9),
		CreatedAt:     r.time(10),
	}
	rt.Source = &database.Airport{ID: rt.SourceID, Name: r.text(11), ClosestBigCity: r.text(12), CreatedAt: r.time(13)}
	rt.Destination = &database.Airport{ID: rt.DestinationID, Name: r.text(14), ClosestBigCity: r.text(15), CreatedAt: r.time(16)}
	f.Route = rt
	f.Airplane = &database.Airplane{
		ID:         f.AirplaneID,
		Name:       database.AirplaneName(r.text(17)),
		Rows:       r.int(18),
		SeatsInRow: r.int(19),
		Type:       database.AirplaneType(r.text(20)),
		CreatedAt:  r.time(21),
		UpdatedAt:  r.time(22),
	}
	f.TicketsAvailable = r.int(23)
	return f
}

func (s *Store) CreateFlight(ctx context.Context, flight *database.Flight) error {
	if flight.ID == uuid.Nil {
		flight.ID = uuid.New()
	}
	created := s.timestamp()

	return s.withImmediateTx(ctx, func(conn *sqlite.Conn) error {
		err := exec(conn, `
			INSERT INTO flights (id, route_id, airplane_id, departure_time, arrival_time, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, []any{flight.ID.String(), flight.RouteID.String(), flight.AirplaneID.String(),
			formatTime(flight.DepartureTime), formatTime(flight.ArrivalTime), created, created}, nil)
		if err != nil {
			return fmt.Errorf("failed to create flight: %w", translateError(err))
		}
		flight.CreatedAt = storedTime(created)
		flight.UpdatedAt = flight.CreatedAt
		return insertFlightCrew(conn, flight.ID, flight.CrewIDs)
	})
}

// UpdateFlight rewrites a flight and replaces its crew. Moving a flight
// with sold tickets to another airplane returns
// database.ErrAirplaneInService.
func (s *Store) UpdateFlight(ctx context.Context, flight *database.Flight) error {
	updated := s.timestamp()

	return s.withImmediateTx(ctx, func(conn *sqlite.Conn) error {
		var airplaneID uuid.UUID
		err := execOne(conn, `SELECT airplane_id, created_at FROM flights WHERE id = ?`,
			[]any{flight.ID.String()}, func(r *row) error {
				airplaneID = r.uuid(0)
				flight.CreatedAt = r.time(1)
				return nil
			})
		if err != nil {
			return fmt.Errorf("failed to get flight: %w", err)
		}

		if airplaneID != flight.AirplaneID {
			sold := false
			err := exec(conn, `SELECT 1 FROM tickets WHERE flight_id = ? LIMIT 1`,
				[]any{flight.ID.String()}, func(*row) error {
					sold = true
					return nil
				})
			if err != nil {
				return fmt.Errorf("failed to check sold tickets: %w", err)
			}
			if sold {
				return database.ErrAirplaneInService
			}
		}

		err = exec(conn, `
			UPDATE flights
			SET route_id = ?, airplane_id = ?, departure_time = ?, arrival_time = ?, updated_at = ?
			WHERE id = ?
		`, []any{flight.RouteID.String(), flight.AirplaneID.String(), formatTime(flight.DepartureTime),
			formatTime(flight.ArrivalTime), updated, flight.ID.String()}, nil)
		if err != nil {
			return fmt.Errorf("failed to update flight: %w", translateError(err))
		}
		flight.UpdatedAt = storedTime(updated)

		if err := exec(conn, `DELETE FROM flight_crews WHERE flight_id = ?`, []any{flight.ID.String()}, nil); err != nil {
			return fmt.Errorf("failed to clear flight crew: %w", err)
		}
		return insertFlightCrew(conn, flight.ID, flight.CrewIDs)
	})
}

func insertFlightCrew(conn *sqlite.Conn, flightID uuid.UUID, crewIDs []uuid.UUID) error {
	for _, crewID := range crewIDs {
		err := exec(conn, `
			INSERT OR IGNORE INTO flight_crews (flight_id, crew_id) VALUES (?, ?)
		`, []any{flightID.String(), crewID.String()}, nil)
		if err != nil {
			return fmt.Errorf("failed to assign crew: %w", translateError(err))
		}
	}
	return nil
}

// GetFlight returns a flight with crew and taken seats read from one
// snapshot
func (s *Store) GetFlight(ctx context.Context, id uuid.UUID) (*database.Flight, error) {
	var flight database.Flight
	err := s.withReadTx(ctx, func(conn *sqlite.Conn) error {
		err := execOne(conn, flightSelect+` WHERE f.id = ?`, []any{id.String()}, func(r *row) error {
			flight = scanFlight(r)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to get flight: %w", err)
		}

		crew, err := flightCrew(conn, []uuid.UUID{id})
		if err != nil {
			return err
		}
		flight.Crew = crew[id]
		flight.CrewIDs = crewIDs(flight.Crew)

		flight.TakenSeats = []database.Seat{}
		err = exec(conn, `
			SELECT row_number, seat_number FROM tickets
			WHERE flight_id = ?
			ORDER BY row_number, seat_number
		`, []any{id.String()}, func(r *row) error {
			flight.TakenSeats = append(flight.TakenSeats, database.Seat{Row: r.int(0), Seat: r.int(1)})
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to query taken seats: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &flight, nil
}

func (s *Store) ListFlights(ctx context.Context, filter database.FlightFilter) ([]database.Flight, error) {
	var w where
	if filter.AirplaneName != "" {
		w.add(`a.name LIKE ? ESCAPE '\'`, contains(filter.AirplaneName))
	}
	if filter.DepartureAirport != "" {
		pattern := contains(filter.DepartureAirport)
		w.add(`(s.closest_big_city LIKE ? ESCAPE '\' OR s.name LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if filter.ArrivalAirport != "" {
		pattern := contains(filter.ArrivalAirport)
		w.add(`(d.closest_big_city LIKE ? ESCAPE '\' OR d.name LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if filter.DepartureDate != nil {
		start, end := database.DayRange(*filter.DepartureDate)
		w.add("f.departure_time >= ? AND f.departure_time < ?", formatTime(start), formatTime(end))
	}
	if filter.ArrivalDate != nil {
		start, end := database.DayRange(*filter.ArrivalDate)
		w.add("f.arrival_time >= ? AND f.arrival_time < ?", formatTime(start), formatTime(end))
	}

	flights := []database.Flight{}
	err := s.withReadTx(ctx, func(conn *sqlite.Conn) error {
		var ids []uuid.UUID
		err := exec(conn, flightSelect+w.String()+` ORDER BY f.departure_time, f.id`, w.args, func(r *row) error {
			f := scanFlight(r)
			flights = append(flights, f)
			ids = append(ids, f.ID)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to query flights: %w", err)
		}

		crew, err := flightCrew(conn, ids)
		if err != nil {
			return err
		}
		for i := range flights {
			flights[i].Crew = crew[flights[i].ID]
			flights[i].CrewIDs = crewIDs(flights[i].Crew)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flights, nil
}

// flightCrew loads crew members grouped by flight ID
func flightCrew(conn *sqlite.Conn, flightIDs []uuid.UUID) (map[uuid.UUID][]database.Crew, error) {
	crew := make(map[uuid.UUID][]database.Crew, len(flightIDs))
	if len(flightIDs) == 0 {
		return crew, nil
	}

	args := make([]any, len(flightIDs))
	for i, id := range flightIDs {
		args[i] = id.String()
	}

	err := exec(conn, `
		SELECT fc.flight_id, c.id, c.first_name, c.last_name, c.role, c.created_at
		FROM flight_crews fc
		JOIN crews c ON c.id = fc.crew_id
		WHERE fc.flight_id IN (`+placeholders(len(args))+`)
		ORDER BY c.role, c.last_name, c.id
	`, args, func(r *row) error {
		flightID := r.uuid(0)
		crew[flightID] = append(crew[flightID], database.Crew{
			ID:        r.uuid(1),
			FirstName: r.text(2),
			LastName:  r.text(3),
			Role:      database.CrewRole(r.text(4)),
			CreatedAt: r.time(5),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query flight crew: %w", err)
	}
	return crew, nil
}

func crewIDs(crew []database.Crew) []uuid.UUID {
	ids := make([]uuid.UUID, len(crew))
	for i, c := range crew {
		ids[i] = c.ID
	}
	return ids
}

func (s *Store) DeleteFlight(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "flights", id)
}
