package handlers

import (
	"net/http"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
)

// CreateOrder handles POST /api/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.OrderCreate
	if !decode(w, r, &req) {
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), identity, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// ListOrders handles GET /api/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	createdOn, ok := queryDate(w, r, "created_at")
	if !ok {
		return
	}

	orders, err := h.svc.ListOrders(r.Context(), identity, createdOn)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /api/orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	order, err := h.svc.GetOrder(r.Context(), identity, id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// ListTickets handles GET /api/tickets
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	tickets, err := h.svc.ListTickets(r.Context(), identity, database.TicketFilter{
		FlightFrom: q.Get("flight_from"),
		FlightTo:   q.Get("flight_to"),
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tickets)
}

// GetTicket handles GET /api/tickets/{id}
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ticket, err := h.svc.GetTicket(r.Context(), identity, id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}
