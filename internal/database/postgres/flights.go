package postgres

import (
	"context"
	"fmt"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// flightSelect loads a flight with its route, airports and airplane.
// tickets_available is computed from committed tickets in the same
// statement so it never counts a seat as free after it was sold.
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

func scanFlight(row pgx.Row) (database.Flight, error) {
	var f database.Flight
	rt := &database.Route{Source: &database.Airport{}, Destination: &database.Airport{}}
	ap := &database.Airplane{}
	err := row.Scan(
		&f.ID, &f.RouteID, &f.AirplaneID, &f.DepartureTime, &f.ArrivalTime,
		&f.CreatedAt, &f.UpdatedAt,
		&rt.SourceID, &rt.DestinationID, &rt.Distance, &rt.CreatedAt,
		&rt.Source.Name, &rt.Source.ClosestBigCity, &rt.Source.CreatedAt,
		&rt.Destination.Name, &rt.Destination.ClosestBigCity, &rt.Destination.CreatedAt,
		&ap.Name, &ap.Rows, &ap.SeatsInRow, &ap.Type, &ap.CreatedAt, &ap.UpdatedAt,
		&f.TicketsAvailable,
	)
	if err != nil {
		return f, err
	}
	rt.ID = f.RouteID
	rt.Source.ID = rt.SourceID
	rt.Destination.ID = rt.DestinationID
	ap.ID = f.AirplaneID
	f.Route = rt
	f.Airplane = ap
	return f, nil
}

// CreateFlight inserts a flight and its crew assignments
func (r *Repository) CreateFlight(ctx context.Context, flight *database.Flight) error {
	if flight.ID == uuid.Nil {
		flight.ID = uuid.New()
	}

	return r.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO flights (id, route_id, airplane_id, departure_time, arrival_time)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at
		`, flight.ID, flight.RouteID, flight.AirplaneID, flight.DepartureTime, flight.ArrivalTime,
		).Scan(&flight.CreatedAt, &flight.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create flight: %w", translateError(err))
		}
		return insertFlightCrew(ctx, tx, flight.ID, flight.CrewIDs)
	})
}

// UpdateFlight rewrites a flight and replaces its crew. Moving a flight
// with sold tickets to another airplane returns
// database.ErrAirplaneInService.
func (r *Repository) UpdateFlight(ctx context.Context, flight *database.Flight) error {
	return r.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var airplaneID uuid.UUID
		err := tx.QueryRow(ctx, `
			SELECT airplane_id FROM flights WHERE id = $1 FOR UPDATE
		`, flight.ID).Scan(&airplaneID)
		if err != nil {
			return fmt.Errorf("failed to lock flight: %w", translateError(err))
		}

		if airplaneID != flight.AirplaneID {
			var sold bool
			err := tx.QueryRow(ctx, `
				SELECT EXISTS (SELECT 1 FROM tickets WHERE flight_id = $1)
			`, flight.ID).Scan(&sold)
			if err != nil {
				return fmt.Errorf("failed to check sold tickets: %w", err)
			}
			if sold {
				return database.ErrAirplaneInService
			}
		}

		err = tx.QueryRow(ctx, `
			UPDATE flights
			SET route_id = $2, airplane_id = $3, departure_time = $4, arrival_time = $5, updated_at = NOW()
			WHERE id = $1
			RETURNING created_at, updated_at
		`, flight.ID, flight.RouteID, flight.AirplaneID, flight.DepartureTime, flight.ArrivalTime,
		).Scan(&flight.CreatedAt, &flight.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update flight: %w", translateError(err))
		}

		if _, err := tx.Exec(ctx, `DELETE FROM flight_crews WHERE flight_id = $1`, flight.ID); err != nil {
			return fmt.Errorf("failed to clear flight crew: %w", err)
		}
		return insertFlightCrew(ctx, tx, flight.ID, flight.CrewIDs)
	})
}

func insertFlightCrew(ctx context.Context, tx pgx.Tx, flightID uuid.UUID, crewIDs []uuid.UUID) error {
	for _, crewID := range crewIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO flight_crews (flight_id, crew_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, flightID, crewID)
		if err != nil {
			return fmt.Errorf("failed to assign crew: %w", translateError(err))
		}
	}
	return nil
}

// GetFlight returns a flight with crew and taken seats. The reads run
// in one repeatable-read snapshot so the taken seats agree with
// tickets_available.
func (r *Repository) GetFlight(ctx context.Context, id uuid.UUID) (*database.Flight, error) {
	var flight database.Flight
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

	err := r.inTx(ctx, opts, func(tx pgx.Tx) error {
		f, err := scanFlight(tx.QueryRow(ctx, flightSelect+` WHERE f.id = $1`, id))
		if err != nil {
			return fmt.Errorf("failed to get flight: %w", translateError(err))
		}
		flight = f

		crew, err := flightCrew(ctx, tx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		flight.Crew = crew[id]
		flight.CrewIDs = crewIDs(flight.Crew)

		rows, err := tx.Query(ctx, `
			SELECT row_number, seat_number FROM tickets
			WHERE flight_id = $1
			ORDER BY row_number, seat_number
		`, id)
		if err != nil {
			return fmt.Errorf("failed to query taken seats: %w", err)
		}
		defer rows.Close()

		flight.TakenSeats = []database.Seat{}
		for rows.Next() {
			var s database.Seat
			if err := rows.Scan(&s.Row, &s.Seat); err != nil {
				return fmt.Errorf("failed to scan seat: %w", err)
			}
			flight.TakenSeats = append(flight.TakenSeats, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return &flight, nil
}

// ListFlights returns flights matching the filter with their crew and
// availability
func (r *Repository) ListFlights(ctx context.Context, filter database.FlightFilter) ([]database.Flight, error) {
	var w where
	if filter.AirplaneName != "" {
		w.add("a.name ILIKE ?", contains(filter.AirplaneName))
	}
	if filter.DepartureAirport != "" {
		pattern := contains(filter.DepartureAirport)
		w.add("(s.closest_big_city ILIKE ? OR s.name ILIKE ?)", pattern, pattern)
	}
	if filter.ArrivalAirport != "" {
		pattern := contains(filter.ArrivalAirport)
		w.add("(d.closest_big_city ILIKE ? OR d.name ILIKE ?)", pattern, pattern)
	}
	if filter.DepartureDate != nil {
		start, end := database.DayRange(*filter.DepartureDate)
		w.add("f.departure_time >= ? AND f.departure_time < ?", start, end)
	}
	if filter.ArrivalDate != nil {
		start, end := database.DayRange(*filter.ArrivalDate)
		w.add("f.arrival_time >= ? AND f.arrival_time < ?", start, end)
	}

	rows, err := r.pool.Query(ctx, flightSelect+w.String()+` ORDER BY f.departure_time, f.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	flights := []database.Flight{}
	var ids []uuid.UUID
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		flights = append(flights, f)
		ids = append(ids, f.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flights: %w", err)
	}
	rows.Close()

	crew, err := flightCrew(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range flights {
		flights[i].Crew = crew[flights[i].ID]
		flights[i].CrewIDs = crewIDs(flights[i].Crew)
	}
	return flights, nil
}

// flightCrew loads crew members grouped by flight ID
func flightCrew(ctx context.Context, q querier, flightIDs []uuid.UUID) (map[uuid.UUID][]database.Crew, error) {
	crew := make(map[uuid.UUID][]database.Crew, len(flightIDs))
	if len(flightIDs) == 0 {
		return crew, nil
	}

	ids := make([]string, len(flightIDs))
	for i, id := range flightIDs {
		ids[i] = id.String()
	}

	rows, err := q.Query(ctx, `
		SELECT fc.flight_id, c.id, c.first_name, c.last_name, c.role, c.created_at
		FROM flight_crews fc
		JOIN crews c ON c.id = fc.crew_id
		WHERE fc.flight_id = ANY($1::uuid[])
		ORDER BY c.role, c.last_name, c.id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query flight crew: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var flightID uuid.UUID
		var c database.Crew
		if err := rows.Scan(&flightID, &c.ID, &c.FirstName, &c.LastName, &c.Role, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flight crew: %w", err)
		}
		crew[flightID] = append(crew[flightID], c)
	}
	return crew, rows.Err()
}

func crewIDs(crew []database.Crew) []uuid.UUID {
	ids := make([]uuid.UUID, len(crew))
	for i, c := range crew {
		ids[i] = c.ID
	}
	return ids
}

// DeleteFlight removes a flight; its tickets go with it
func (r *Repository) DeleteFlight(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "flights", id)
}
