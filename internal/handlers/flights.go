package handlers

import (
	"net/http"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
)

// ListFlights handles GET /api/flights
func (h *Handler) ListFlights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	departure, ok := queryDate(w, r, "departure_time")
	if !ok {
		return
	}
	arrival, ok := queryDate(w, r, "arrival_time")
	if !ok {
		return
	}

	flights, err := h.svc.ListFlights(r.Context(), database.FlightFilter{
		AirplaneName:     q.Get("airplane_name"),
		DepartureAirport: q.Get("departure_airport"),
		ArrivalAirport:   q.Get("arrival_airport"),
		DepartureDate:    departure,
		ArrivalDate:      arrival,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, flights)
}

// CreateFlight handles POST /api/flights
func (h *Handler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req models.FlightCreate
	if !decode(w, r, &req) {
		return
	}
	flight, err := h.svc.CreateFlight(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, flight)
}

// GetFlight handles GET /api/flights/{id}
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	flight, err := h.svc.GetFlight(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

// UpdateFlight handles PUT /api/flights/{id}
func (h *Handler) UpdateFlight(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.FlightCreate
	if !decode(w, r, &req) {
		return
	}
	flight, err := h.svc.UpdateFlight(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, flight)
}

// DeleteFlight handles DELETE /api/flights/{id}
func (h *Handler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.svc.DeleteFlight)
}

// WatchFlight handles GET /api/flights/{id}/ws
func (h *Handler) WatchFlight(w http.ResponseWriter, r *http.Request) {
	if h.watcher == nil {
		respondError(w, http.StatusNotFound, "Not found.")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	flight, err := h.svc.GetFlight(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if err := h.watcher.Serve(w, r, flight.ID, flight.TakenSeats, flight.TicketsAvailable); err != nil {
		h.logger.Warn("websocket upgrade failed", "flight_id", id, "error", err)
	}
}
