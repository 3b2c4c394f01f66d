// Package router wires handlers and middleware into the HTTP API.
package router

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/handlers"
	"github.com/gorilla/mux"
)

// Config holds router dependencies
type Config struct {
	Handler  *handlers.Handler
	Verifier *auth.Verifier
	Logger   *slog.Logger
	// OrderLimiter throttles POST /api/orders per identity; nil disables it
	OrderLimiter *RateLimiter
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(cfg Config) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := cfg.Handler

	r := mux.NewRouter()

	r.Use(corsMiddleware)
	r.Use(loggingMiddleware(logger))

	// Health check
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(compressMiddleware)
	api.Use(cfg.Verifier.Middleware)

	read := []string{http.MethodGet, http.MethodOptions}
	create := []string{http.MethodPost, http.MethodOptions}
	update := []string{http.MethodPut, http.MethodOptions}
	remove := []string{http.MethodDelete, http.MethodOptions}
	admin := func(f http.HandlerFunc) http.Handler { return auth.RequireAdmin(f) }

	// Airports
	api.HandleFunc("/airports", h.ListAirports).Methods(read...)
	api.Handle("/airports", admin(h.CreateAirport)).Methods(create...)
	api.HandleFunc("/airports/{id}", h.GetAirport).Methods(read...)
	api.Handle("/airports/{id}", admin(h.UpdateAirport)).Methods(update...)
	api.Handle("/airports/{id}", admin(h.DeleteAirport)).Methods(remove...)

	// Routes
	api.HandleFunc("/routes", h.ListRoutes).Methods(read...)
	api.Handle("/routes", admin(h.CreateRoute)).Methods(create...)
	api.HandleFunc("/routes/{id}", h.GetRoute).Methods(read...)
	api.Handle("/routes/{id}", admin(h.DeleteRoute)).Methods(remove...)

	// Airplanes
	api.HandleFunc("/airplanes", h.ListAirplanes).Methods(read...)
	api.Handle("/airplanes", admin(h.CreateAirplane)).Methods(create...)
	api.HandleFunc("/airplanes/{id}", h.GetAirplane).Methods(read...)
	api.Handle("/airplanes/{id}", admin(h.UpdateAirplane)).Methods(update...)
	api.Handle("/airplanes/{id}", admin(h.DeleteAirplane)).Methods(remove...)

	// Crew
	api.HandleFunc("/crews", h.ListCrew).Methods(read...)
	api.Handle("/crews", admin(h.CreateCrew)).Methods(create...)
	api.HandleFunc("/crews/{id}", h.GetCrew).Methods(read...)
	api.Handle("/crews/{id}", admin(h.DeleteCrew)).Methods(remove...)

	// Flights
	api.HandleFunc("/flights", h.ListFlights).Methods(read...)
	api.Handle("/flights", admin(h.CreateFlight)).Methods(create...)
	api.HandleFunc("/flights/{id}", h.GetFlight).Methods(read...)
	api.Handle("/flights/{id}", admin(h.UpdateFlight)).Methods(update...)
	api.Handle("/flights/{id}", admin(h.DeleteFlight)).Methods(remove...)

	// WebSocket for live seat updates
	api.HandleFunc("/flights/{id}/ws", h.WatchFlight).Methods(http.MethodGet)

	// Orders and tickets
	var createOrder http.Handler = http.HandlerFunc(h.CreateOrder)
	if cfg.OrderLimiter != nil {
		createOrder = cfg.OrderLimiter.Middleware(createOrder)
	}
	api.HandleFunc("/orders", h.ListOrders).Methods(read...)
	api.Handle("/orders", createOrder).Methods(create...)
	api.HandleFunc("/orders/{id}", h.GetOrder).Methods(read...)
	api.HandleFunc("/tickets", h.ListTickets).Methods(read...)
	api.HandleFunc("/tickets/{id}", h.GetTicket).Methods(read...)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
