package postgres

import (
	"context"
	"fmt"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Airport Operations ---

// CreateAirport inserts an airport; a repeated (name, city) pair
// returns database.ErrDuplicate
func (r *Repository) CreateAirport(ctx context.Context, airport *database.Airport) error {
	if airport.ID == uuid.Nil {
		airport.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO airports (id, name, closest_big_city)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, airport.ID, airport.Name, airport.ClosestBigCity).Scan(&airport.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create airport: %w", translateError(err))
	}
	return nil
}

// UpdateAirport overwrites name and city of an existing airport
func (r *Repository) UpdateAirport(ctx context.Context, airport *database.Airport) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE airports SET name = $2, closest_big_city = $3
		WHERE id = $1
		RETURNING created_at
	`, airport.ID, airport.Name, airport.ClosestBigCity).Scan(&airport.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to update airport: %w", translateError(err))
	}
	return nil
}

// GetAirport returns an airport by ID
func (r *Repository) GetAirport(ctx context.Context, id uuid.UUID) (*database.Airport, error) {
	var a database.Airport
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, closest_big_city, created_at
		FROM airports
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.ClosestBigCity, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get airport: %w", translateError(err))
	}
	return &a, nil
}

// ListAirports returns airports ordered by name
func (r *Repository) ListAirports(ctx context.Context, filter database.AirportFilter) ([]database.Airport, error) {
	var w where
	if filter.Name != "" {
		pattern := contains(filter.Name)
		w.add("(name ILIKE ? OR closest_big_city ILIKE ?)", pattern, pattern)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, closest_big_city, created_at
		FROM airports`+w.String()+`
		ORDER BY name, id
	`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query airports: %w", err)
	}
	defer rows.Close()

	airports := []database.Airport{}
	for rows.Next() {
		var a database.Airport
		if err := rows.Scan(&a.ID, &a.Name, &a.ClosestBigCity, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan airport: %w", err)
		}
		airports = append(airports, a)
	}
	return airports, rows.Err()
}

// DeleteAirport removes an airport and, by cascade, its routes
func (r *Repository) DeleteAirport(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "airports", id)
}

// --- Route Operations ---

const routeSelect = `
	SELECT r.id, r.source_id, r.destination_id, r.distance, r.created_at,
	       s.name, s.closest_big_city, s.created_at,
	       d.name, d.closest_big_city, d.created_at
	FROM routes r
	JOIN airports s ON s.id = r.source_id
	JOIN airports d ON d.id = r.destination_id`

func scanRoute(row pgx.Row) (database.Route, error) {
	var rt database.Route
	src := &database.Airport{}
	dst := &database.Airport{}
	err := row.Scan(
		&rt.ID, &rt.SourceID, &rt.DestinationID, &rt.Distance, &rt.CreatedAt,
		&src.Name, &src.ClosestBigCity, &src.CreatedAt,
		&dst.Name, &dst.ClosestBigCity, &dst.CreatedAt,
	)
	if err != nil {
		return rt, err
	}
	src.ID = rt.SourceID
	dst.ID = rt.DestinationID
	rt.Source = src
	rt.Destination = dst
	return rt, nil
}

// CreateRoute inserts a route with a precomputed distance
func (r *Repository) CreateRoute(ctx context.Context, route *database.Route) error {
	if route.ID == uuid.Nil {
		route.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO routes (id, source_id, destination_id, distance)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, route.ID, route.SourceID, route.DestinationID, route.Distance).Scan(&route.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create route: %w", translateError(err))
	}
	return nil
}

// GetRoute returns a route with both airports
func (r *Repository) GetRoute(ctx context.Context, id uuid.UUID) (*database.Route, error) {
	rt, err := scanRoute(r.pool.QueryRow(ctx, routeSelect+` WHERE r.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get route: %w", translateError(err))
	}
	return &rt, nil
}

// ListRoutes returns routes filtered by city and distance range
func (r *Repository) ListRoutes(ctx context.Context, filter database.RouteFilter) ([]database.Route, error) {
	var w where
	if filter.SourceCity != "" {
		w.add("s.closest_big_city ILIKE ?", contains(filter.SourceCity))
	}
	if filter.DestinationCity != "" {
		w.add("d.closest_big_city ILIKE ?", contains(filter.DestinationCity))
	}
	if filter.DistanceRange != "" {
		min, max := filter.DistanceRange.Bounds()
		w.add("r.distance >= ?", min)
		if max >= 0 {
			w.add("r.distance <= ?", max)
		}
	}

	rows, err := r.pool.Query(ctx, routeSelect+w.String()+` ORDER BY r.created_at, r.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	routes := []database.Route{}
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		routes = append(routes, rt)
	}
	return routes, rows.Err()
}

// DeleteRoute removes a route and its flights
func (r *Repository) DeleteRoute(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "routes", id)
}

// --- Airplane Operations ---

// CreateAirplane inserts an airplane. The type bucket is derived from
// the layout in the same statement.
func (r *Repository) CreateAirplane(ctx context.Context, airplane *database.Airplane) error {
	if airplane.ID == uuid.Nil {
		airplane.ID = uuid.New()
	}
	airplane.Type = database.AirplaneTypeFor(airplane.Capacity())

	err := r.pool.QueryRow(ctx, `
		INSERT INTO airplanes (id, name, row_count, seats_in_row, airplane_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, airplane.ID, airplane.Name, airplane.Rows, airplane.SeatsInRow, airplane.Type,
	).Scan(&airplane.CreatedAt, &airplane.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create airplane: %w", translateError(err))
	}
	return nil
}

// UpdateAirplane rewrites an airplane. Changing the seat layout of an
// airplane with sold tickets returns database.ErrAirplaneInService.
func (r *Repository) UpdateAirplane(ctx context.Context, airplane *database.Airplane) error {
	airplane.Type = database.AirplaneTypeFor(airplane.Capacity())

	return r.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// Lock the airplane first so no order can read the old layout
		// between the sold-ticket check and the update.
		var rows, seatsInRow int
		err := tx.QueryRow(ctx, `
			SELECT row_count, seats_in_row FROM airplanes WHERE id = $1 FOR UPDATE
		`, airplane.ID).Scan(&rows, &seatsInRow)
		if err != nil {
			return fmt.Errorf("failed to lock airplane: %w", translateError(err))
		}

		if rows != airplane.Rows || seatsInRow != airplane.SeatsInRow {
			sold, err := airplaneHasTickets(ctx, tx, airplane.ID)
			if err != nil {
				return err
			}
			if sold {
				return database.ErrAirplaneInService
			}
		}

		err = tx.QueryRow(ctx, `
			UPDATE airplanes
			SET name = $2, row_count = $3, seats_in_row = $4, airplane_type = $5, updated_at = NOW()
			WHERE id = $1
			RETURNING created_at, updated_at
		`, airplane.ID, airplane.Name, airplane.Rows, airplane.SeatsInRow, airplane.Type,
		).Scan(&airplane.CreatedAt, &airplane.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update airplane: %w", translateError(err))
		}
		return nil
	})
}

func airplaneHasTickets(ctx context.Context, q querier, airplaneID uuid.UUID) (bool, error) {
	var sold bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tickets t
			JOIN flights f ON f.id = t.flight_id
			WHERE f.airplane_id = $1
		)
	`, airplaneID).Scan(&sold)
	if err != nil {
		return false, fmt.Errorf("failed to check sold tickets: %w", err)
	}
	return sold, nil
}

// GetAirplane returns an airplane by ID
func (r *Repository) GetAirplane(ctx context.Context, id uuid.UUID) (*database.Airplane, error) {
	var a database.Airplane
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, row_count, seats_in_row, airplane_type, created_at, updated_at
		FROM airplanes
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.Rows, &a.SeatsInRow, &a.Type, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get airplane: %w", translateError(err))
	}
	return &a, nil
}

// ListAirplanes returns airplanes filtered by model and type
func (r *Repository) ListAirplanes(ctx context.Context, filter database.AirplaneFilter) ([]database.Airplane, error) {
	var w where
	if filter.Name != "" {
		w.add("name ILIKE ?", contains(filter.Name))
	}
	if filter.Type != "" {
		w.add("airplane_type ILIKE ?", string(filter.Type))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, row_count, seats_in_row, airplane_type, created_at, updated_at
		FROM airplanes`+w.String()+`
		ORDER BY name, id
	`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query airplanes: %w", err)
	}
	defer rows.Close()

	airplanes := []database.Airplane{}
	for rows.Next() {
		var a database.Airplane
		if err := rows.Scan(&a.ID, &a.Name, &a.Rows, &a.SeatsInRow, &a.Type, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan airplane: %w", err)
		}
		airplanes = append(airplanes, a)
	}
	return airplanes, rows.Err()
}

// DeleteAirplane removes an airplane and its flights
func (r *Repository) DeleteAirplane(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "airplanes", id)
}

// --- Crew Operations ---

// CreateCrew inserts a crew member
func (r *Repository) CreateCrew(ctx context.Context, crew *database.Crew) error {
	if crew.ID == uuid.Nil {
		crew.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO crews (id, first_name, last_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, crew.ID, crew.FirstName, crew.LastName, crew.Role).Scan(&crew.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create crew: %w", translateError(err))
	}
	return nil
}

// GetCrew returns a crew member by ID
func (r *Repository) GetCrew(ctx context.Context, id uuid.UUID) (*database.Crew, error) {
	var c database.Crew
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, role, created_at
		FROM crews
		WHERE id = $1
	`, id).Scan(&c.ID, &c.FirstName, &c.LastName, &c.Role, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get crew: %w", translateError(err))
	}
	return &c, nil
}

// ListCrew returns crew ordered by role
func (r *Repository) ListCrew(ctx context.Context, filter database.CrewFilter) ([]database.Crew, error) {
	var w where
	if filter.Role != "" {
		w.add("role ILIKE ?", contains(filter.Role))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, first_name, last_name, role, created_at
		FROM crews`+w.String()+`
		ORDER BY role, last_name, id
	`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query crews: %w", err)
	}
	defer rows.Close()

	crews := []database.Crew{}
	for rows.Next() {
		var c database.Crew
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Role, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan crew: %w", err)
		}
		crews = append(crews, c)
	}
	return crews, rows.Err()
}

// DeleteCrew removes a crew member from the catalog and all flights
func (r *Repository) DeleteCrew(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "crews", id)
}

// deleteByID deletes one row from a fixed table name
func (r *Repository) deleteByID(ctx context.Context, table string, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, translateError(err))
	}
	if result.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}
