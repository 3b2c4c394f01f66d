// Package handlers exposes the reservation service over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// SeatWatcher streams live seat updates for a flight
type SeatWatcher interface {
	Serve(w http.ResponseWriter, r *http.Request, flightID uuid.UUID, taken []database.Seat, available int) error
}

// Handler contains HTTP handlers for the API
type Handler struct {
	svc     service.ReservationService
	watcher SeatWatcher
	logger  *slog.Logger
}

// NewHandler creates a new Handler instance. watcher may be nil, in
// which case the websocket route answers 404.
func NewHandler(svc service.ReservationService, watcher SeatWatcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{svc: svc, watcher: watcher, logger: logger}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondFieldError(w http.ResponseWriter, field, message string) {
	respondJSON(w, http.StatusBadRequest, map[string][]string{field: {message}})
}

// respondServiceError maps service errors onto status codes
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErr service.FieldErrorer
	var upstream *service.UpstreamDataError

	switch {
	case errors.As(err, &fieldErr):
		respondJSON(w, http.StatusBadRequest, fieldErr.FieldErrors())
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found.")
	case errors.As(err, &upstream):
		respondError(w, http.StatusServiceUnavailable, upstream.Error())
	case r.Context().Err() != nil && errors.Is(err, r.Context().Err()):
		h.logger.Info("request cancelled", "method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusServiceUnavailable, "Request cancelled.")
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decode reads a JSON body; on failure it answers 400 and returns false
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// pathID parses the {id} variable. Malformed IDs name no resource and
// answer 404.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Not found.")
		return uuid.Nil, false
	}
	return id, true
}

// queryDate parses an optional YYYY-MM-DD query parameter
func queryDate(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	date, err := database.ParseDate(r.URL.Query().Get(name))
	if err != nil {
		respondFieldError(w, name, "Enter a valid date in YYYY-MM-DD format.")
		return nil, false
	}
	return date, true
}

// delete runs a delete by path ID and answers 204
func (h *Handler) delete(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// caller returns the authenticated identity
func caller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, auth.ErrMissingToken.Error())
	}
	return id, ok
}
