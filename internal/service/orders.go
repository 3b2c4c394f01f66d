package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/seating"
	"github.com/google/uuid"
)

// CreateOrder allocates every pick and stores the order with its
// tickets in one transaction. Nothing is stored unless every pick
// succeeds.
func (s *Service) CreateOrder(ctx context.Context, caller auth.Identity, req models.OrderCreate) (*models.OrderDetail, error) {
	requested := req.Picks()
	if len(requested) == 0 {
		return nil, &EmptyOrderError{}
	}
	picks := make([]seating.Pick, len(requested))
	for i, p := range requested {
		picks[i] = seating.Pick{FlightID: p.Flight, Row: p.Row, Seat: p.Seat}
	}

	order := &database.Order{UserID: caller.UserID}
	err := s.store.WithinOrderTx(ctx, func(tx database.OrderTx) error {
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		tickets, err := s.engine.Allocate(ctx, tx, order.ID, picks)
		if err != nil {
			return err
		}
		order.Tickets = tickets
		return nil
	})
	if err != nil {
		return nil, allocationError(err)
	}

	s.logger.Info("order committed",
		"order_id", order.ID, "user_id", order.UserID, "tickets", len(order.Tickets))

	stored, err := s.store.GetOrder(ctx, order.ID)
	if err != nil {
		s.logger.Warn("failed to reload committed order", "order_id", order.ID, "error", err)
		stored = order
	}
	s.notify(ctx, stored)

	view := models.NewOrderDetail(*stored)
	return &view, nil
}

func allocationError(err error) error {
	var taken *seating.SeatTakenError
	if errors.As(err, &taken) {
		return &ConflictError{Err: taken}
	}
	var bounds *seating.SeatOutOfBoundsError
	if errors.As(err, &bounds) {
		return invalidErr(FieldOrderTickets, bounds)
	}
	if errors.Is(err, database.ErrNotFound) {
		return &ValidationError{
			Field:    FieldOrderTickets,
			Messages: []string{"Flight does not exist."},
			Err:      err,
		}
	}
	return fmt.Errorf("failed to create order: %w", err)
}

// notify tells every observer about a committed order. Failures are
// logged; the order stays committed.
func (s *Service) notify(ctx context.Context, order *database.Order) {
	ctx = context.WithoutCancel(ctx)
	for _, o := range s.observers {
		if err := o.OrderCommitted(ctx, order); err != nil {
			s.logger.Error("order observer failed",
				"observer", fmt.Sprintf("%T", o), "order_id", order.ID, "error", err)
		}
	}
}

// visible reports whether caller may read an order owned by userID
func visible(caller auth.Identity, userID string) bool {
	return caller.Admin || caller.UserID == userID
}

// GetOrder returns an order to its owner or an admin. Anyone else gets
// a NotFoundError.
func (s *Service) GetOrder(ctx context.Context, caller auth.Identity, id uuid.UUID) (*models.OrderDetail, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, storeError("order", id, "get", err)
	}
	if !visible(caller, order.UserID) {
		return nil, notFound("order", id, nil)
	}
	view := models.NewOrderDetail(*order)
	return &view, nil
}

// ListOrders returns the caller's own orders, oldest first
func (s *Service) ListOrders(ctx context.Context, caller auth.Identity, createdOn *time.Time) ([]models.OrderList, error) {
	orders, err := s.store.ListOrders(ctx, database.OrderFilter{UserID: caller.UserID, CreatedOn: createdOn})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return models.NewOrderList(orders), nil
}

func (s *Service) GetTicket(ctx context.Context, caller auth.Identity, id uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return nil, storeError("ticket", id, "get", err)
	}
	if !caller.Admin {
		order, err := s.store.GetOrder(ctx, ticket.OrderID)
		if err != nil {
			return nil, storeError("ticket", id, "get", err)
		}
		if order.UserID != caller.UserID {
			return nil, notFound("ticket", id, nil)
		}
	}
	view := models.NewTicket(*ticket)
	return &view, nil
}

// ListTickets returns the caller's tickets; admins see all of them
func (s *Service) ListTickets(ctx context.Context, caller auth.Identity, filter database.TicketFilter) ([]models.Ticket, error) {
	filter.UserID = ""
	if !caller.Admin {
		filter.UserID = caller.UserID
	}
	tickets, err := s.store.ListTickets(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return models.NewTickets(tickets), nil
}
