// Package workflows runs post-commit order processing on Temporal.
package workflows

import (
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/activities"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// TaskQueue is polled by the confirmation worker
	TaskQueue = "order-confirmation-queue"
	// ActivityTimeout bounds one activity attempt
	ActivityTimeout = 30 * time.Second
	// MaxActivityAttempts bounds retries of a failing activity
	MaxActivityAttempts = 3
)

// ActivityOptions are shared by every confirmation activity
func ActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: ActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    MaxActivityAttempts,
		},
	}
}

// OrderConfirmationWorkflow issues a confirmation code for a committed
// order and stores it on the order. The order itself is never changed
// otherwise; a failed confirmation leaves it valid and unconfirmed.
func OrderConfirmationWorkflow(ctx workflow.Context, input models.OrderConfirmationInput) (*models.ConfirmationState, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Order confirmation workflow started", "orderID", input.OrderID)

	state := &models.ConfirmationState{
		OrderID:     input.OrderID,
		Status:      models.ConfirmationPending,
		LastUpdated: workflow.Now(ctx),
	}
	err := workflow.SetQueryHandler(ctx, models.QueryGetState, func() (*models.ConfirmationState, error) {
		return state, nil
	})
	if err != nil {
		return nil, err
	}

	fail := func(reason string, err error) (*models.ConfirmationState, error) {
		logger.Error("Order confirmation failed", "orderID", input.OrderID, "reason", reason, "error", err)
		state.Status = models.ConfirmationFailed
		state.FailureReason = reason
		state.LastUpdated = workflow.Now(ctx)
		return state, nil
	}

	ctx = workflow.WithActivityOptions(ctx, ActivityOptions())

	var summary models.OrderSummary
	err = workflow.ExecuteActivity(ctx, activities.LoadOrderSummaryName, input.OrderID).Get(ctx, &summary)
	if err != nil {
		return fail("order_unavailable", err)
	}
	if summary.TicketCount == 0 {
		return fail("order_empty", nil)
	}
	state.TicketCount = summary.TicketCount

	var result models.ConfirmationResult
	err = workflow.ExecuteActivity(ctx, activities.IssueConfirmationName, summary).Get(ctx, &result)
	if err != nil {
		return fail("issue_failed", err)
	}

	err = workflow.ExecuteActivity(ctx, activities.RecordConfirmationName, activities.RecordConfirmationInput{
		OrderID:          input.OrderID,
		ConfirmationCode: result.ConfirmationCode,
	}).Get(ctx, nil)
	if err != nil {
		return fail("record_failed", err)
	}

	state.Status = models.ConfirmationConfirmed
	state.ConfirmationCode = result.ConfirmationCode
	state.LastUpdated = workflow.Now(ctx)
	logger.Info("Order confirmed", "orderID", input.OrderID, "code", result.ConfirmationCode)
	return state, nil
}
