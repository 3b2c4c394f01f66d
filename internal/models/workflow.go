package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderConfirmationInput starts the confirmation workflow for one
// committed order
type OrderConfirmationInput struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  string    `json:"user_id"`
}

// ConfirmationStatus is the workflow's progress
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
	ConfirmationFailed    ConfirmationStatus = "failed"
)

// ConfirmationState is returned by the state query
type ConfirmationState struct {
	OrderID          uuid.UUID          `json:"order_id"`
	Status           ConfirmationStatus `json:"status"`
	TicketCount      int                `json:"ticket_count"`
	ConfirmationCode string             `json:"confirmation_code,omitempty"`
	FailureReason    string             `json:"failure_reason,omitempty"`
	LastUpdated      time.Time          `json:"last_updated"`
}

// Queries for workflow state
const (
	QueryGetState = "get_state"
)

// OrderSummary is what the confirmation needs to know about an order
type OrderSummary struct {
	OrderID     uuid.UUID   `json:"order_id"`
	UserID      string      `json:"user_id"`
	TicketCount int         `json:"ticket_count"`
	FlightIDs   []uuid.UUID `json:"flight_ids"`
}

// ConfirmationResult carries the issued code
type ConfirmationResult struct {
	ConfirmationCode string `json:"confirmation_code"`
}
