package sqlite

import (
	"context"
	"fmt"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
)

type orderTx struct {
	conn *sqlite.Conn
	now  string
}

// WithinOrderTx runs fn under BEGIN IMMEDIATE. Order writers serialize
// on the database lock and the unique index rejects any seat that
// slipped past the pre-check.
func (s *Store) WithinOrderTx(ctx context.Context, fn func(tx database.OrderTx) error) error {
	return s.withImmediateTx(ctx, func(conn *sqlite.Conn) error {
		return fn(&orderTx{conn: conn, now: s.timestamp()})
	})
}

func (o *orderTx) FlightBounds(_ context.Context, flightID uuid.UUID) (int, int, error) {
	var rows, seatsInRow int
	err := execOne(o.conn, `
		SELECT a.row_count, a.seats_in_row
		FROM flights f
		JOIN airplanes a ON a.id = f.airplane_id
		WHERE f.id = ?
	`, []any{flightID.String()}, func(r *row) error {
		rows, seatsInRow = r.int(0), r.int(1)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get flight bounds: %w", err)
	}
	return rows, seatsInRow, nil
}

func (o *orderTx) SeatTaken(_ context.Context, flightID uuid.UUID, rowNumber, seatNumber int) (bool, error) {
	taken := false
	err := exec(o.conn, `
		SELECT 1 FROM tickets
		WHERE flight_id = ? AND row_number = ? AND seat_number = ?
	`, []any{flightID.String(), rowNumber, seatNumber}, func(*row) error {
		taken = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check seat: %w", err)
	}
	return taken, nil
}

func (o *orderTx) InsertOrder(_ context.Context, order *database.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	err := exec(o.conn, `
		INSERT INTO orders (id, user_id, created_at) VALUES (?, ?, ?)
	`, []any{order.ID.String(), order.UserID, o.now}, nil)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", translateError(err))
	}
	order.CreatedAt = storedTime(o.now)
	return nil
}

func (o *orderTx) InsertTicket(_ context.Context, ticket *database.Ticket) error {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	err := exec(o.conn, `
		INSERT INTO tickets (id, flight_id, order_id, row_number, seat_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, []any{ticket.ID.String(), ticket.FlightID.String(), ticket.OrderID.String(),
		ticket.Row, ticket.Seat, o.now}, nil)
	if err != nil {
		if sqlite.ErrCode(err) == sqlite.ResultConstraintUnique {
			return fmt.Errorf("failed to create ticket: %w", database.ErrSeatConflict)
		}
		return fmt.Errorf("failed to create ticket: %w", translateError(err))
	}
	ticket.CreatedAt = storedTime(o.now)
	return nil
}

const ticketSelect = `
	SELECT t.id, t.flight_id, t.order_id, t.row_number, t.seat_number, t.created_at,
	       f.route_id, f.airplane_id, f.departure_time, f.arrival_time,
	       s.id, s.name, s.closest_big_city,
	       d.id, d.name, d.closest_big_city,
	       a.name, a.airplane_type
	FROM tickets t
	JOIN orders o ON o.id = t.order_id
	JOIN flights f ON f.id = t.flight_id
	JOIN routes r ON r.id = f.route_id
	JOIN airports s ON s.id = r.source_id
	JOIN airports d ON d.id = r.destination_id
	JOIN airplanes a ON a.id = f.airplane_id`

func scanTicket(r *row) database.Ticket {
	t := database.Ticket{
		ID:        r.uuid(0),
		FlightID:  r.uuid(1),
		OrderID:   r.uuid(2),
		Row:       r.int(3),
		Seat:      r.int(4),
		CreatedAt: r.time(5),
	}
	f := &database.Flight{
		ID:            t.FlightID,
		RouteID:       r.uuid(6),
		AirplaneID:    r.uuid(7),
		DepartureTime: r.time(8),
		ArrivalTime:   r.time(9),
	}
	src := &database.Airport{ID: r.uuid(10), Name: r.text(11), ClosestBigCity: r.text(12)}
	dst := &database.Airport{ID: r.uuid(13), Name: r.text(14), ClosestBigCity: r.text(15)}
	f.Route = &database.Route{
		ID:            f.RouteID,
		SourceID:      src.ID,
		DestinationID: dst.ID,
		Source:        src,
		Destination:   dst,
	}
	f.Airplane = &database.Airplane{
		ID:   f.AirplaneID,
		Name: database.AirplaneName(r.text(16)),
		Type: database.AirplaneType(r.text(17)),
	}
	t.Flight = f
	return t
}

func queryTickets(conn *sqlite.Conn, query string, args []any) ([]database.Ticket, error) {
	tickets := []database.Ticket{}
	err := exec(conn, query, args, func(r *row) error {
		tickets = append(tickets, scanTicket(r))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	return tickets, nil
}

func scanOrder(r *row) database.Order {
	return database.Order{
		ID:               r.uuid(0),
		UserID:           r.text(1),
		ConfirmationCode: r.nullText(2),
		CreatedAt:        r.time(3),
	}
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*database.Order, error) {
	var order database.Order
	err := s.withReadTx(ctx, func(conn *sqlite.Conn) error {
		err := execOne(conn, `
			SELECT id, user_id, confirmation_code, created_at FROM orders WHERE id = ?
		`, []any{id.String()}, func(r *row) error {
			order = scanOrder(r)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}

		order.Tickets, err = queryTickets(conn,
			ticketSelect+` WHERE t.order_id = ? ORDER BY t.flight_id, t.row_number, t.seat_number`,
			[]any{id.String()})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns orders ordered by creation time then id
func (s *Store) ListOrders(ctx context.Context, filter database.OrderFilter) ([]database.Order, error) {
	var w where
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.CreatedOn != nil {
		start, end := database.DayRange(*filter.CreatedOn)
		w.add("created_at >= ? AND created_at < ?", formatTime(start), formatTime(end))
	}

	orders := []database.Order{}
	err := s.withReadTx(ctx, func(conn *sqlite.Conn) error {
		index := make(map[uuid.UUID]int)
		var args []any
		err := exec(conn, `
			SELECT id, user_id, confirmation_code, created_at FROM orders`+w.String()+`
			ORDER BY created_at, id
		`, w.args, func(r *row) error {
			o := scanOrder(r)
			index[o.ID] = len(orders)
			orders = append(orders, o)
			args = append(args, o.ID.String())
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to query orders: %w", err)
		}
		if len(args) == 0 {
			return nil
		}

		tickets, err := queryTickets(conn, ticketSelect+
			` WHERE t.order_id IN (`+placeholders(len(args))+`) ORDER BY t.flight_id, t.row_number, t.seat_number`,
			args)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			i := index[t.OrderID]
			orders[i].Tickets = append(orders[i].Tickets, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) SetOrderConfirmation(ctx context.Context, id uuid.UUID, code string) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := exec(conn, `UPDATE orders SET confirmation_code = ? WHERE id = ?`, []any{code, id.String()}, nil)
		if err != nil {
			return fmt.Errorf("failed to set order confirmation: %w", err)
		}
		if conn.Changes() == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}

func (s *Store) GetTicket(ctx context.Context, id uuid.UUID) (*database.Ticket, error) {
	var t database.Ticket
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return execOne(conn, ticketSelect+` WHERE t.id = ?`, []any{id.String()}, func(r *row) error {
			t = scanTicket(r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &t, nil
}

func (s *Store) ListTickets(ctx context.Context, filter database.TicketFilter) ([]database.Ticket, error) {
	var w where
	if filter.UserID != "" {
		w.add("o.user_id = ?", filter.UserID)
	}
	if filter.FlightFrom != "" {
		w.add(`s.closest_big_city LIKE ? ESCAPE '\'`, contains(filter.FlightFrom))
	}
	if filter.FlightTo != "" {
		w.add(`d.closest_big_city LIKE ? ESCAPE '\'`, contains(filter.FlightTo))
	}

	var tickets []database.Ticket
	err := s.withConn(ctx, func(conn *sqlite.Conn) (err error) {
		tickets, err = queryTickets(conn,
			ticketSelect+w.String()+` ORDER BY f.departure_time, t.row_number, t.seat_number, t.id`, w.args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
