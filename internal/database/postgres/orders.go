package postgres

import (
	"context"
	"fmt"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// orderTx implements database.OrderTx on an open pgx transaction
type orderTx struct {
	tx pgx.Tx
}

// WithinOrderTx runs fn in a READ COMMITTED transaction. Concurrent
// inserts of the same seat block on the unique index and the loser
// gets database.ErrSeatConflict.
func (r *Repository) WithinOrderTx(ctx context.Context, fn func(tx database.OrderTx) error) error {
	return r.inTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&orderTx{tx: tx})
	})
}

// FlightBounds reads the airplane layout and holds a share lock on
// the airplane so its layout cannot change before commit
func (o *orderTx) FlightBounds(ctx context.Context, flightID uuid.UUID) (int, int, error) {
	var rows, seatsInRow int
	err := o.tx.QueryRow(ctx, `
		SELECT a.row_count, a.seats_in_row
		FROM flights f
		JOIN airplanes a ON a.id = f.airplane_id
		WHERE f.id = $1
		FOR SHARE OF a
	`, flightID).Scan(&rows, &seatsInRow)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get flight bounds: %w", translateError(err))
	}
	return rows, seatsInRow, nil
}

func (o *orderTx) SeatTaken(ctx context.Context, flightID uuid.UUID, row, seat int) (bool, error) {
	var taken bool
	err := o.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tickets
			WHERE flight_id = $1 AND row_number = $2 AND seat_number = $3
		)
	`, flightID, row, seat).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check seat: %w", err)
	}
	return taken, nil
}

func (o *orderTx) InsertOrder(ctx context.Context, order *database.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	err := o.tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id) VALUES ($1, $2)
		RETURNING created_at
	`, order.ID, order.UserID).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", translateError(err))
	}
	return nil
}

func (o *orderTx) InsertTicket(ctx context.Context, ticket *database.Ticket) error {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	err := o.tx.QueryRow(ctx, `
		INSERT INTO tickets (id, flight_id, order_id, row_number, seat_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, ticket.ID, ticket.FlightID, ticket.OrderID, ticket.Row, ticket.Seat).Scan(&ticket.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", translateError(err))
	}
	return nil
}

// ticketSelect loads tickets with a summary of their flight
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

func scanTicket(row pgx.Row) (database.Ticket, error) {
	var t database.Ticket
	f := &database.Flight{
		Route:    &database.Route{Source: &database.Airport{}, Destination: &database.Airport{}},
		Airplane: &database.Airplane{},
	}
	err := row.Scan(
		&t.ID, &t.FlightID, &t.OrderID, &t.Row, &t.Seat, &t.CreatedAt,
		&f.RouteID, &f.AirplaneID, &f.DepartureTime, &f.ArrivalTime,
		&f.Route.Source.ID, &f.Route.Source.Name, &f.Route.Source.ClosestBigCity,
		&f.Route.Destination.ID, &f.Route.Destination.Name, &f.Route.Destination.ClosestBigCity,
		&f.Airplane.Name, &f.Airplane.Type,
	)
	if err != nil {
		return t, err
	}
	f.ID = t.FlightID
	f.Route.ID = f.RouteID
	f.Route.SourceID = f.Route.Source.ID
	f.Route.DestinationID = f.Route.Destination.ID
	f.Airplane.ID = f.AirplaneID
	t.Flight = f
	return t, nil
}

func queryTickets(ctx context.Context, q querier, sql string, args ...any) ([]database.Ticket, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	tickets := []database.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// GetOrder returns an order with its tickets
func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*database.Order, error) {
	var order database.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, confirmation_code, created_at FROM orders WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.ConfirmationCode, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", translateError(err))
	}

	order.Tickets, err = queryTickets(ctx, r.pool,
		ticketSelect+` WHERE t.order_id = $1 ORDER BY t.flight_id, t.row_number, t.seat_number`, id)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns orders ordered by creation time then id
func (r *Repository) ListOrders(ctx context.Context, filter database.OrderFilter) ([]database.Order, error) {
	var w where
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.CreatedOn != nil {
		start, end := database.DayRange(*filter.CreatedOn)
		w.add("created_at >= ? AND created_at < ?", start, end)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, confirmation_code, created_at FROM orders
	`+w.String()+` ORDER BY created_at, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []database.Order{}
	index := make(map[uuid.UUID]int)
	var ids []string
	for rows.Next() {
		var o database.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.ConfirmationCode, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
		ids = append(ids, o.ID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return orders, nil
	}

	tickets, err := queryTickets(ctx, r.pool,
		ticketSelect+` WHERE t.order_id = ANY($1::uuid[]) ORDER BY t.flight_id, t.row_number, t.seat_number`, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		i := index[t.OrderID]
		orders[i].Tickets = append(orders[i].Tickets, t)
	}
	return orders, nil
}

// SetOrderConfirmation stores the confirmation code issued after commit
func (r *Repository) SetOrderConfirmation(ctx context.Context, id uuid.UUID, code string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET confirmation_code = $2 WHERE id = $1
	`, id, code)
	if err != nil {
		return fmt.Errorf("failed to set order confirmation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}

// GetTicket returns one ticket with its flight summary
func (r *Repository) GetTicket(ctx context.Context, id uuid.UUID) (*database.Ticket, error) {
	t, err := scanTicket(r.pool.QueryRow(ctx, ticketSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", translateError(err))
	}
	return &t, nil
}

// ListTickets returns tickets matching the filter
func (r *Repository) ListTickets(ctx context.Context, filter database.TicketFilter) ([]database.Ticket, error) {
	var w where
	if filter.UserID != "" {
		w.add("o.user_id = ?", filter.UserID)
	}
	if filter.FlightFrom != "" {
		w.add("s.closest_big_city ILIKE ?", contains(filter.FlightFrom))
	}
	if filter.FlightTo != "" {
		w.add("d.closest_big_city ILIKE ?", contains(filter.FlightTo))
	}
	return queryTickets(ctx, r.pool,
		ticketSelect+w.String()+` ORDER BY f.departure_time, t.row_number, t.seat_number, t.id`, w.args...)
}
