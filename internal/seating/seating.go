// Package seating validates seat picks and turns them into tickets
// inside an open order transaction.
package seating

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
)

// Pick is one requested seat on one flight
type Pick struct {
	FlightID uuid.UUID
	Row      int
	Seat     int
}

// Source tells how a taken seat was detected
type Source int

const (
	// SourcePreCheck means a committed ticket was found before insert
	SourcePreCheck Source = iota
	// SourceConstraint means the storage unique constraint rejected
	// the insert
	SourceConstraint
	// SourceSameOrder means the order itself picked the seat twice
	SourceSameOrder
)

func (s Source) String() string {
	switch s {
	case SourcePreCheck:
		return "pre-check"
	case SourceConstraint:
		return "constraint"
	case SourceSameOrder:
		return "same-order"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// SeatOutOfBoundsError reports a pick outside the airplane layout
type SeatOutOfBoundsError struct {
	Pick       Pick
	Rows       int
	SeatsInRow int
}

func (e *SeatOutOfBoundsError) Error() string {
	return fmt.Sprintf("Specify row value in range [1, %d], seat value in range [1, %d]", e.Rows, e.SeatsInRow)
}

// SeatTakenError reports a pick that already has a ticket. The message
// does not depend on Source.
type SeatTakenError struct {
	Pick   Pick
	Source Source
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("Seat %d in row %d is already taken on flight %s", e.Pick.Seat, e.Pick.Row, e.Pick.FlightID)
}

// CheckBounds validates 1 <= row <= rows and 1 <= seat <= seatsInRow
func CheckBounds(p Pick, rows, seatsInRow int) error {
	if p.Row < 1 || p.Row > rows || p.Seat < 1 || p.Seat > seatsInRow {
		return &SeatOutOfBoundsError{Pick: p, Rows: rows, SeatsInRow: seatsInRow}
	}
	return nil
}

// Ledger is the part of an order transaction the engine needs.
// database.OrderTx satisfies it.
type Ledger interface {
	FlightBounds(ctx context.Context, flightID uuid.UUID) (rows, seatsInRow int, err error)
	SeatTaken(ctx context.Context, flightID uuid.UUID, row, seat int) (bool, error)
	InsertTicket(ctx context.Context, ticket *database.Ticket) error
}

// Engine allocates seats. It never chooses seats on its own and holds
// no locks; correctness comes from the ledger's transaction and the
// storage unique constraint.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an engine
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{logger: logger}
}

type seatKey struct {
	flight    uuid.UUID
	row, seat int
}

type bounds struct {
	rows, seatsInRow int
}

// Allocate checks every pick in order and inserts one ticket per pick
// for orderID. It stops at the first failing pick; the caller rolls the
// transaction back.
func (e *Engine) Allocate(ctx context.Context, ledger Ledger, orderID uuid.UUID, picks []Pick) ([]database.Ticket, error) {
	layouts := make(map[uuid.UUID]bounds)
	seen := make(map[seatKey]struct{}, len(picks))
	tickets := make([]database.Ticket, 0, len(picks))

	for _, p := range picks {
		layout, ok := layouts[p.FlightID]
		if !ok {
			rows, seatsInRow, err := ledger.FlightBounds(ctx, p.FlightID)
			if err != nil {
				return nil, fmt.Errorf("flight %s: %w", p.FlightID, err)
			}
			layout = bounds{rows: rows, seatsInRow: seatsInRow}
			layouts[p.FlightID] = layout
		}

		if err := CheckBounds(p, layout.rows, layout.seatsInRow); err != nil {
			return nil, err
		}

		key := seatKey{flight: p.FlightID, row: p.Row, seat: p.Seat}
		if _, dup := seen[key]; dup {
			return nil, &SeatTakenError{Pick: p, Source: SourceSameOrder}
		}
		seen[key] = struct{}{}

		taken, err := ledger.SeatTaken(ctx, p.FlightID, p.Row, p.Seat)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, &SeatTakenError{Pick: p, Source: SourcePreCheck}
		}

		ticket := database.Ticket{FlightID: p.FlightID, OrderID: orderID, Row: p.Row, Seat: p.Seat}
		if err := ledger.InsertTicket(ctx, &ticket); err != nil {
			if errors.Is(err, database.ErrSeatConflict) {
				e.logger.Info("seat lost to concurrent order",
					"flight_id", p.FlightID, "row", p.Row, "seat", p.Seat)
				return nil, &SeatTakenError{Pick: p, Source: SourceConstraint}
			}
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}
