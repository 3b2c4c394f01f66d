package handlers

import (
	"net/http"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
)

// ListAirports handles GET /api/airports
func (h *Handler) ListAirports(w http.ResponseWriter, r *http.Request) {
	airports, err := h.svc.ListAirports(r.Context(), database.AirportFilter{Name: r.URL.Query().Get("name")})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, airports)
}

// CreateAirport handles POST /api/airports
func (h *Handler) CreateAirport(w http.ResponseWriter, r *http.Request) {
	var req models.AirportCreate
	if !decode(w, r, &req) {
		return
	}
	airport, err := h.svc.CreateAirport(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, airport)
}

// GetAirport handles GET /api/airports/{id}
func (h *Handler) GetAirport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	airport, err := h.svc.GetAirport(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, airport)
}

// UpdateAirport handles PUT /api/airports/{id}
func (h *Handler) UpdateAirport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.AirportCreate
	if !decode(w, r, &req) {
		return
	}
	airport, err := h.svc.UpdateAirport(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, airport)
}

// DeleteAirport handles DELETE /api/airports/{id}
func (h *Handler) DeleteAirport(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.svc.DeleteAirport)
}

// ListRoutes handles GET /api/routes
func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	distanceRange, err := database.ParseDistanceRange(q.Get("distance_range"))
	if err != nil {
		respondFieldError(w, "distance_range", "Select one of short, medium, long.")
		return
	}
	routes, err := h.svc.ListRoutes(r.Context(), database.RouteFilter{
		SourceCity:      q.Get("source_city"),
		DestinationCity: q.Get("destination_city"),
		DistanceRange:   distanceRange,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, routes)
}

// CreateRoute handles POST /api/routes
func (h *Handler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var req models.RouteCreate
	if !decode(w, r, &req) {
		return
	}
	route, err := h.svc.CreateRoute(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, route)
}

// GetRoute handles GET /api/routes/{id}
func (h *Handler) GetRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	route, err := h.svc.GetRoute(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, route)
}

// DeleteRoute handles DELETE /api/routes/{id}
func (h *Handler) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.svc.DeleteRoute)
}

// ListAirplanes handles GET /api/airplanes
func (h *Handler) ListAirplanes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	airplanes, err := h.svc.ListAirplanes(r.Context(), database.AirplaneFilter{
		Name: q.Get("name"),
		Type: database.AirplaneType(q.Get("airplane_type")),
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, airplanes)
}

// CreateAirplane handles POST /api/airplanes
func (h *Handler) CreateAirplane(w http.ResponseWriter, r *http.Request) {
	var req models.AirplaneCreate
	if !decode(w, r, &req) {
		return
	}
	airplane, err := h.svc.CreateAirplane(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, airplane)
}

// GetAirplane handles GET /api/airplanes/{id}
func (h *Handler) GetAirplane(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	airplane, err := h.svc.GetAirplane(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, airplane)
}

// UpdateAirplane handles PUT /api/airplanes/{id}
func (h *Handler) UpdateAirplane(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.AirplaneCreate
	if !decode(w, r, &req) {
		return
	}
	airplane, err := h.svc.UpdateAirplane(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, airplane)
}

// DeleteAirplane handles DELETE /api/airplanes/{id}
func (h *Handler) DeleteAirplane(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.svc.DeleteAirplane)
}

// ListCrew handles GET /api/crews
func (h *Handler) ListCrew(w http.ResponseWriter, r *http.Request) {
	crew, err := h.svc.ListCrew(r.Context(), database.CrewFilter{Role: r.URL.Query().Get("role")})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, crew)
}

// CreateCrew handles POST /api/crews
func (h *Handler) CreateCrew(w http.ResponseWriter, r *http.Request) {
	var req models.CrewCreate
	if !decode(w, r, &req) {
		return
	}
	crew, err := h.svc.CreateCrew(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, crew)
}

// GetCrew handles GET /api/crews/{id}
func (h *Handler) GetCrew(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	crew, err := h.svc.GetCrew(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, crew)
}

// DeleteCrew handles DELETE /api/crews/{id}
func (h *Handler) DeleteCrew(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.svc.DeleteCrew)
}
