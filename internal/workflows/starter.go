package workflows

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
)

// Starter starts one confirmation workflow per committed order
type Starter struct {
	client    client.Client
	taskQueue string
	logger    *slog.Logger
}

// NewStarter creates a Starter on TaskQueue
func NewStarter(c client.Client, logger *slog.Logger) *Starter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Starter{client: c, taskQueue: TaskQueue, logger: logger}
}

// WorkflowID is the confirmation workflow ID of an order
func WorkflowID(order *database.Order) string {
	return "order-confirmation-" + order.ID.String()
}

// OrderCommitted starts the confirmation workflow for order. Starting
// it twice for one order is rejected by Temporal.
func (s *Starter) OrderCommitted(ctx context.Context, order *database.Order) error {
	opts := client.StartWorkflowOptions{
		ID:                    WorkflowID(order),
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	input := models.OrderConfirmationInput{OrderID: order.ID, UserID: order.UserID}

	run, err := s.client.ExecuteWorkflow(ctx, opts, OrderConfirmationWorkflow, input)
	if err != nil {
		return fmt.Errorf("failed to start confirmation workflow: %w", err)
	}
	s.logger.Info("confirmation workflow started",
		"order_id", order.ID, "workflow_id", run.GetID(), "run_id", run.GetRunID())
	return nil
}
