// Package activities holds the Temporal activities of the order
// confirmation workflow.
package activities

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// Activity names as registered with the worker
const (
	LoadOrderSummaryName   = "LoadOrderSummary"
	IssueConfirmationName  = "IssueConfirmation"
	RecordConfirmationName = "RecordConfirmation"
)

// ErrorTypeOrderMissing marks a non-retryable failure for an order that
// no longer exists
const ErrorTypeOrderMissing = "OrderMissing"

// RecordConfirmationInput stores an issued code on its order
type RecordConfirmationInput struct {
	OrderID          uuid.UUID `json:"order_id"`
	ConfirmationCode string    `json:"confirmation_code"`
}

// Registry is implemented by worker.Worker and the Temporal test
// environments
type Registry interface {
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Activities holds activity dependencies
type Activities struct {
	orders database.OrderStore
}

// NewActivities creates a new Activities instance
func NewActivities(orders database.OrderStore) *Activities {
	return &Activities{orders: orders}
}

// Register adds every activity to r under its stable name
func (a *Activities) Register(r Registry) {
	r.RegisterActivityWithOptions(a.LoadOrderSummary, activity.RegisterOptions{Name: LoadOrderSummaryName})
	r.RegisterActivityWithOptions(a.IssueConfirmation, activity.RegisterOptions{Name: IssueConfirmationName})
	r.RegisterActivityWithOptions(a.RecordConfirmation, activity.RegisterOptions{Name: RecordConfirmationName})
}

// LoadOrderSummary reads the committed order
func (a *Activities) LoadOrderSummary(ctx context.Context, orderID uuid.UUID) (*models.OrderSummary, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Loading order", "orderID", orderID)

	order, err := a.orders.GetOrder(ctx, orderID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("order %s not found", orderID), ErrorTypeOrderMissing, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	summary := &models.OrderSummary{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TicketCount: len(order.Tickets),
		FlightIDs:   []uuid.UUID{},
	}
	seen := make(map[uuid.UUID]bool)
	for _, t := range order.Tickets {
		if !seen[t.FlightID] {
			seen[t.FlightID] = true
			summary.FlightIDs = append(summary.FlightIDs, t.FlightID)
		}
	}
	return summary, nil
}

// IssueConfirmation derives the confirmation code. The code depends
// only on the order ID so retries issue the same code.
func (a *Activities) IssueConfirmation(ctx context.Context, summary models.OrderSummary) (*models.ConfirmationResult, error) {
	logger := activity.GetLogger(ctx)

	code := ConfirmationCode(summary.OrderID)
	logger.Info("Confirmation issued", "orderID", summary.OrderID, "tickets", summary.TicketCount, "code", code)
	return &models.ConfirmationResult{ConfirmationCode: code}, nil
}

// RecordConfirmation writes the code to the order
func (a *Activities) RecordConfirmation(ctx context.Context, input RecordConfirmationInput) error {
	err := a.orders.SetOrderConfirmation(ctx, input.OrderID, input.ConfirmationCode)
	if errors.Is(err, database.ErrNotFound) {
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("order %s not found", input.OrderID), ErrorTypeOrderMissing, err)
	}
	if err != nil {
		return fmt.Errorf("failed to record confirmation: %w", err)
	}
	return nil
}

// ConfirmationCode formats the code for an order, e.g. "AR-1F3C9A2B"
func ConfirmationCode(orderID uuid.UUID) string {
	hex := strings.ReplaceAll(orderID.String(), "-", "")
	return "AR-" + strings.ToUpper(hex[:8])
}
