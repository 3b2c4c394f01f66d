package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
	"github.com/google/uuid"
)

// validateFlight checks the time window and that every reference
// exists
func (s *Service) validateFlight(ctx context.Context, req models.FlightCreate) error {
	if req.DepartureTime.IsZero() {
		return invalid("departure_time", msgBlank)
	}
	if req.ArrivalTime.IsZero() {
		return invalid("arrival_time", msgBlank)
	}
	if req.ArrivalTime.Before(req.DepartureTime) {
		return invalidErr("arrival_time", &TimeOrderError{})
	}

	if _, err := s.store.GetRoute(ctx, req.Route); err != nil {
		return referenceError("route", err)
	}
	if _, err := s.store.GetAirplane(ctx, req.Airplane); err != nil {
		return referenceError("airplane", err)
	}
	for _, id := range req.Crew {
		if _, err := s.store.GetCrew(ctx, id); err != nil {
			return referenceError("crew", err)
		}
	}
	return nil
}

func referenceError(field string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return invalid(field, msgMissingPK)
	}
	return fmt.Errorf("failed to get %s: %w", field, err)
}

func flightFromRequest(id uuid.UUID, req models.FlightCreate) *database.Flight {
	return &database.Flight{
		ID:            id,
		RouteID:       req.Route,
		AirplaneID:    req.Airplane,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		CrewIDs:       req.Crew,
	}
}

func (s *Service) CreateFlight(ctx context.Context, req models.FlightCreate) (*models.FlightDetail, error) {
	if err := s.validateFlight(ctx, req); err != nil {
		return nil, err
	}
	flight := flightFromRequest(uuid.Nil, req)
	if err := s.store.CreateFlight(ctx, flight); err != nil {
		if errors.Is(err, database.ErrInvalidReference) {
			return nil, invalid(FieldNonField, msgMissingPK)
		}
		return nil, fmt.Errorf("failed to create flight: %w", err)
	}
	return s.GetFlight(ctx, flight.ID)
}

// UpdateFlight rewrites a flight and its crew. A flight with sold
// tickets keeps its airplane.
func (s *Service) UpdateFlight(ctx context.Context, id uuid.UUID, req models.FlightCreate) (*models.FlightDetail, error) {
	if err := s.validateFlight(ctx, req); err != nil {
		return nil, err
	}
	err := s.store.UpdateFlight(ctx, flightFromRequest(id, req))
	switch {
	case errors.Is(err, database.ErrAirplaneInService):
		return nil, &ValidationError{Field: "airplane", Messages: []string{msgLayoutLocked}, Err: err}
	case errors.Is(err, database.ErrInvalidReference):
		return nil, invalid(FieldNonField, msgMissingPK)
	case err != nil:
		return nil, storeError("flight", id, "update", err)
	}
	return s.GetFlight(ctx, id)
}

// GetFlight returns the flight with its taken seats and availability
// read from one snapshot
func (s *Service) GetFlight(ctx context.Context, id uuid.UUID) (*models.FlightDetail, error) {
	flight, err := s.store.GetFlight(ctx, id)
	if err != nil {
		return nil, storeError("flight", id, "get", err)
	}
	view := models.NewFlightDetail(*flight)
	return &view, nil
}

func (s *Service) ListFlights(ctx context.Context, filter database.FlightFilter) ([]models.FlightList, error) {
	flights, err := s.store.ListFlights(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}
	return models.NewFlightList(flights), nil
}

// DeleteFlight removes the flight and frees every seat sold on it
func (s *Service) DeleteFlight(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteFlight(ctx, id); err != nil {
		return storeError("flight", id, "delete", err)
	}
	return nil
}
