package sqlite

import (
	"context"
	"fmt"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
)

// --- Airports ---

func scanAirport(r *row) database.Airport {
	return database.Airport{
		ID:             r.uuid(0),
		Name:           r.text(1),
		ClosestBigCity: r.text(2),
		CreatedAt:      r.time(3),
	}
}

func (s *Store) CreateAirport(ctx context.Context, airport *database.Airport) error {
	if airport.ID == uuid.Nil {
		airport.ID = uuid.New()
	}
	created := s.timestamp()

	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := exec(conn, `
			INSERT INTO airports (id, name, closest_big_city, created_at)
			VALUES (?, ?, ?, ?)
		`, []any{airport.ID.String(), airport.Name, airport.ClosestBigCity, created}, nil)
		if err != nil {
			return fmt.Errorf("failed to create airport: %w", translateError(err))
		}
		airport.CreatedAt = storedTime(created)
		return nil
	})
}

func (s *Store) UpdateAirport(ctx context.Context, airport *database.Airport) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := execOne(conn, `
			UPDATE airports SET name = ?, closest_big_city = ?
			WHERE id = ?
			RETURNING created_at
		`, []any{airport.Name, airport.ClosestBigCity, airport.ID.String()}, func(r *row) error {
			airport.CreatedAt = r.time(0)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to update airport: %w", translateError(err))
		}
		return nil
	})
}

func (s *Store) GetAirport(ctx context.Context, id uuid.UUID) (*database.Airport, error) {
	var a database.Airport
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return execOne(conn, `
			SELECT id, name, closest_big_city, created_at FROM airports WHERE id = ?
		`, []any{id.String()}, func(r *row) error {
			a = scanAirport(r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get airport: %w", err)
	}
	return &a, nil
}

func (s *Store) ListAirports(ctx context.Context, filter database.AirportFilter) ([]database.Airport, error) {
	var w where
	if filter.Name != "" {
		pattern := contains(filter.Name)
		w.add(`(name LIKE ? ESCAPE '\' OR closest_big_city LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	airports := []database.Airport{}
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return exec(conn, `
			SELECT id, name, closest_big_city, created_at FROM airports`+w.String()+`
			ORDER BY name, id
		`, w.args, func(r *row) error {
			airports = append(airports, scanAirport(r))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query airports: %w", err)
	}
	return airports, nil
}

func (s *Store) DeleteAirport(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "airports", id)
}

// --- Routes ---

const routeSelect = `
	SELECT r.id, r.source_id, r.destination_id, r.distance, r.created_at,
	       s.name, s.closest_big_city, s.created_at,
	       d.name, d.closest_big_city, d.created_at
	FROM routes r
	JOIN airports s ON s.id = r.source_id
	JOIN airports d ON d.id = r.destination_id`

func scanRoute(r *row) database.Route {
	rt := database.Route{
		ID:            r.uuid(0),
		SourceID:      r.uuid(1),
		DestinationID: r.uuid(2),
		Distance:      r.int(3),
		CreatedAt:     r.time(4),
	}
	rt.Source = &database.Airport{ID: rt.SourceID, Name: r.text(5), ClosestBigCity: r.text(6), CreatedAt: r.time(7)}
	rt.Destination = &database.Airport{ID: rt.DestinationID, Name: r.text(8), ClosestBigCity: r.text(9), CreatedAt: r.time(10)}
	return rt
}

func (s *Store) CreateRoute(ctx context.Context, route *database.Route) error {
	if route.ID == uuid.Nil {
		route.ID = uuid.New()
	}
	created := s.timestamp()

	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := exec(conn, `
			INSERT INTO routes (id, source_id, destination_id, distance, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, []any{route.ID.String(), route.SourceID.String(), route.DestinationID.String(), route.Distance, created}, nil)
		if err != nil {
			return fmt.Errorf("failed to create route: %w", translateError(err))
		}
		route.CreatedAt = storedTime(created)
		return nil
	})
}

func (s *Store) GetRoute(ctx context.Context, id uuid.UUID) (*database.Route, error) {
	var rt database.Route
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return execOne(conn, routeSelect+` WHERE r.id = ?`, []any{id.String()}, func(r *row) error {
			rt = scanRoute(r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return &rt, nil
}

func (s *Store) ListRoutes(ctx context.Context, filter database.RouteFilter) ([]database.Route, error) {
	var w where
	if filter.SourceCity != "" {
		w.add(`s.closest_big_city LIKE ? ESCAPE '\'`, contains(filter.SourceCity))
	}
	if filter.DestinationCity != "" {
		w.add(`d.closest_big_city LIKE ? ESCAPE '\'`, contains(filter.DestinationCity))
	}
	if filter.DistanceRange != "" {
		min, max := filter.DistanceRange.Bounds()
		w.add("r.distance >= ?", min)
		if max >= 0 {
			w.add("r.distance <= ?", max)
		}
	}

	routes := []database.Route{}
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return exec(conn, routeSelect+w.String()+` ORDER BY r.created_at, r.id`, w.args, func(r *row) error {
			routes = append(routes, scanRoute(r))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	return routes, nil
}

func (s *Store) DeleteRoute(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "routes", id)
}

// --- Airplanes ---

const airplaneColumns = `id, name, row_count, seats_in_row, airplane_type, created_at, updated_at`

func scanAirplane(r *row) database.Airplane {
	return database.Airplane{
		ID:         r.uuid(0),
		Name:       database.AirplaneName(r.text(1)),
		Rows:       r.int(2),
		SeatsInRow: r.int(3),
		Type:       database.AirplaneType(r.text(4)),
		CreatedAt:  r.time(5),
		UpdatedAt:  r.time(6),
	}
}

// CreateAirplane stores the airplane with its type derived from the
// layout in the same statement
func (s *Store) CreateAirplane(ctx context.Context, airplane *database.Airplane) error {
	if airplane.ID == uuid.Nil {
		airplane.ID = uuid.New()
	}
	airplane.Type = database.AirplaneTypeFor(airplane.Capacity())
	created := s.timestamp()

	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := exec(conn, `
			INSERT INTO airplanes (`+airplaneColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, []any{airplane.ID.String(), string(airplane.Name), airplane.Rows, airplane.SeatsInRow,
			string(airplane.Type), created, created}, nil)
		if err != nil {
			return fmt.Errorf("failed to create airplane: %w", translateError(err))
		}
		airplane.CreatedAt = storedTime(created)
		airplane.UpdatedAt = airplane.CreatedAt
		return nil
	})
}

// UpdateAirplane rewrites an airplane. Changing the layout of an
// airplane with sold tickets returns database.ErrAirplaneInService.
func (s *Store) UpdateAirplane(ctx context.Context, airplane *database.Airplane) error {
	airplane.Type = database.AirplaneTypeFor(airplane.Capacity())
	updated := s.timestamp()

	return s.withImmediateTx(ctx, func(conn *sqlite.Conn) error {
		var current database.Airplane
		err := execOne(conn, `SELECT `+airplaneColumns+` FROM airplanes WHERE id = ?`,
			[]any{airplane.ID.String()}, func(r *row) error {
				current = scanAirplane(r)
				return nil
			})
		if err != nil {
			return fmt.Errorf("failed to get airplane: %w", err)
		}

		if current.Rows != airplane.Rows || current.SeatsInRow != airplane.SeatsInRow {
			sold := false
			err := exec(conn, `
				SELECT 1 FROM tickets t
				JOIN flights f ON f.id = t.flight_id
				WHERE f.airplane_id = ?
				LIMIT 1
			`, []any{airplane.ID.String()}, func(*row) error {
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
			UPDATE airplanes
			SET name = ?, row_count = ?, seats_in_row = ?, airplane_type = ?, updated_at = ?
			WHERE id = ?
		`, []any{string(airplane.Name), airplane.Rows, airplane.SeatsInRow, string(airplane.Type),
			updated, airplane.ID.String()}, nil)
		if err != nil {
			return fmt.Errorf("failed to update airplane: %w", translateError(err))
		}
		airplane.CreatedAt = current.CreatedAt
		airplane.UpdatedAt = storedTime(updated)
		return nil
	})
}

func (s *Store) GetAirplane(ctx context.Context, id uuid.UUID) (*database.Airplane, error) {
	var a database.Airplane
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return execOne(conn, `SELECT `+airplaneColumns+` FROM airplanes WHERE id = ?`,
			[]any{id.String()}, func(r *row) error {
				a = scanAirplane(r)
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get airplane: %w", err)
	}
	return &a, nil
}

func (s *Store) ListAirplanes(ctx context.Context, filter database.AirplaneFilter) ([]database.Airplane, error) {
	var w where
	if filter.Name != "" {
		w.add(`name LIKE ? ESCAPE '\'`, contains(filter.Name))
	}
	if filter.Type != "" {
		w.add("airplane_type = ? COLLATE NOCASE", string(filter.Type))
	}

	airplanes := []database.Airplane{}
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return exec(conn, `SELECT `+airplaneColumns+` FROM airplanes`+w.String()+` ORDER BY name, id`,
			w.args, func(r *row) error {
				airplanes = append(airplanes, scanAirplane(r))
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query airplanes: %w", err)
	}
	return airplanes, nil
}

func (s *Store) DeleteAirplane(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "airplanes", id)
}

// --- Crew ---

func scanCrew(r *row) database.Crew {
	return database.Crew{
		ID:        r.uuid(0),
		FirstName: r.text(1),
		LastName:  r.text(2),
		Role:      database.CrewRole(r.text(3)),
		CreatedAt: r.time(4),
	}
}

func (s *Store) CreateCrew(ctx context.Context, crew *database.Crew) error {
	if crew.ID == uuid.Nil {
		crew.ID = uuid.New()
	}
	created := s.timestamp()

	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := exec(conn, `
			INSERT INTO crews (id, first_name, last_name, role, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, []any{crew.ID.String(), crew.FirstName, crew.LastName, string(crew.Role), created}, nil)
		if err != nil {
			return fmt.Errorf("failed to create crew: %w", translateError(err))
		}
		crew.CreatedAt = storedTime(created)
		return nil
	})
}

func (s *Store) GetCrew(ctx context.Context, id uuid.UUID) (*database.Crew, error) {
	var c database.Crew
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return execOne(conn, `
			SELECT id, first_name, last_name, role, created_at FROM crews WHERE id = ?
		`, []any{id.String()}, func(r *row) error {
			c = scanCrew(r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get crew: %w", err)
	}
	return &c, nil
}

func (s *Store) ListCrew(ctx context.Context, filter database.CrewFilter) ([]database.Crew, error) {
	var w where
	if filter.Role != "" {
		w.add(`role LIKE ? ESCAPE '\'`, contains(filter.Role))
	}

	crews := []database.Crew{}
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return exec(conn, `
			SELECT id, first_name, last_name, role, created_at FROM crews`+w.String()+`
			ORDER BY role, last_name, id
		`, w.args, func(r *row) error {
			crews = append(crews, scanCrew(r))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query crews: %w", err)
	}
	return crews, nil
}

func (s *Store) DeleteCrew(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "crews", id)
}
