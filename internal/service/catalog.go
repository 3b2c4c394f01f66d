package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/geo"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
	"github.com/google/uuid"
)

const (
	msgBlank        = "This field may not be blank."
	msgPositive     = "Ensure this value is greater than or equal to 1."
	msgMissingPK    = "Invalid pk - object does not exist."
	msgLayoutLocked = "Seat layout cannot change while the airplane has sold tickets."
)

// storeError converts a storage failure on one resource
func storeError(resource string, id uuid.UUID, op string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return notFound(resource, id, err)
	}
	return fmt.Errorf("failed to %s %s: %w", op, resource, err)
}

// cityError converts a geo lookup failure
func (s *Service) cityError(field, city string, err error) error {
	switch {
	case errors.Is(err, geo.ErrUnknownCity):
		return invalidErr(field, &UnknownCityError{City: city})
	case errors.Is(err, geo.ErrSourceUnavailable):
		s.logger.Error("city data unavailable", "city", city, "error", err)
		return &UpstreamDataError{Err: err}
	}
	return fmt.Errorf("failed to look up city: %w", err)
}

func (s *Service) validateAirport(ctx context.Context, req *models.AirportCreate) error {
	req.Name = strings.TrimSpace(req.Name)
	req.ClosestBigCity = strings.TrimSpace(req.ClosestBigCity)
	if req.Name == "" {
		return invalid("name", msgBlank)
	}
	if req.ClosestBigCity == "" {
		return invalid("closest_big_city", msgBlank)
	}
	if _, err := s.cities.Lookup(ctx, req.ClosestBigCity); err != nil {
		return s.cityError("closest_big_city", req.ClosestBigCity, err)
	}
	return nil
}

func airportWriteError(req models.AirportCreate, err error) error {
	if errors.Is(err, database.ErrDuplicate) {
		return invalidErr(FieldNonField, &DuplicateAirportError{Name: req.Name, ClosestBigCity: req.ClosestBigCity})
	}
	return err
}

func (s *Service) CreateAirport(ctx context.Context, req models.AirportCreate) (*models.Airport, error) {
	if err := s.validateAirport(ctx, &req); err != nil {
		return nil, err
	}
	airport := &database.Airport{Name: req.Name, ClosestBigCity: req.ClosestBigCity}
	if err := s.store.CreateAirport(ctx, airport); err != nil {
		return nil, fmt.Errorf("failed to create airport: %w", airportWriteError(req, err))
	}
	view := models.NewAirport(*airport)
	return &view, nil
}

func (s *Service) UpdateAirport(ctx context.Context, id uuid.UUID, req models.AirportCreate) (*models.Airport, error) {
	if err := s.validateAirport(ctx, &req); err != nil {
		return nil, err
	}
	airport := &database.Airport{ID: id, Name: req.Name, ClosestBigCity: req.ClosestBigCity}
	if err := s.store.UpdateAirport(ctx, airport); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("airport", id, err)
		}
		return nil, fmt.Errorf("failed to update airport: %w", airportWriteError(req, err))
	}
	view := models.NewAirport(*airport)
	return &view, nil
}

func (s *Service) GetAirport(ctx context.Context, id uuid.UUID) (*models.Airport, error) {
	airport, err := s.store.GetAirport(ctx, id)
	if err != nil {
		return nil, storeError("airport", id, "get", err)
	}
	view := models.NewAirport(*airport)
	return &view, nil
}

func (s *Service) ListAirports(ctx context.Context, filter database.AirportFilter) ([]models.Airport, error) {
	airports, err := s.store.ListAirports(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list airports: %w", err)
	}
	return models.NewAirports(airports), nil
}

// DeleteAirport removes the airport with its routes, their flights and
// every ticket sold on them
func (s *Service) DeleteAirport(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteAirport(ctx, id); err != nil {
		return storeError("airport", id, "delete", err)
	}
	return nil
}

// CreateRoute stores a route with its great-circle distance computed
// from the airports' closest big cities
func (s *Service) CreateRoute(ctx context.Context, req models.RouteCreate) (*models.RouteDetail, error) {
	if req.Source == req.Destination {
		return nil, invalidErr(FieldNonField, &SameAirportError{})
	}

	source, err := s.routeAirport(ctx, "source", req.Source)
	if err != nil {
		return nil, err
	}
	destination, err := s.routeAirport(ctx, "destination", req.Destination)
	if err != nil {
		return nil, err
	}

	distance, err := geo.DistanceKm(ctx, s.cities, source.ClosestBigCity, destination.ClosestBigCity)
	if err != nil {
		return nil, s.cityError(FieldNonField, source.ClosestBigCity+" / "+destination.ClosestBigCity, err)
	}

	route := &database.Route{SourceID: source.ID, DestinationID: destination.ID, Distance: distance}
	if err := s.store.CreateRoute(ctx, route); err != nil {
		if errors.Is(err, database.ErrInvalidReference) {
			return nil, invalid(FieldNonField, msgMissingPK)
		}
		return nil, fmt.Errorf("failed to create route: %w", err)
	}
	route.Source, route.Destination = source, destination

	view := models.NewRouteDetail(*route)
	return &view, nil
}

func (s *Service) routeAirport(ctx context.Context, field string, id uuid.UUID) (*database.Airport, error) {
	airport, err := s.store.GetAirport(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, invalid(field, msgMissingPK)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s airport: %w", field, err)
	}
	return airport, nil
}

func (s *Service) GetRoute(ctx context.Context, id uuid.UUID) (*models.RouteDetail, error) {
	route, err := s.store.GetRoute(ctx, id)
	if err != nil {
		return nil, storeError("route", id, "get", err)
	}
	view := models.NewRouteDetail(*route)
	return &view, nil
}

func (s *Service) ListRoutes(ctx context.Context, filter database.RouteFilter) ([]models.RouteList, error) {
	routes, err := s.store.ListRoutes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return models.NewRouteList(routes), nil
}

func (s *Service) DeleteRoute(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteRoute(ctx, id); err != nil {
		return storeError("route", id, "delete", err)
	}
	return nil
}

func validateAirplane(req models.AirplaneCreate) error {
	if !req.Name.Valid() {
		return invalid("name", fmt.Sprintf("%q is not a valid choice.", string(req.Name)))
	}
	if req.Rows < 1 {
		return invalid("rows", msgPositive)
	}
	if req.SeatsInRow < 1 {
		return invalid("seats_in_row", msgPositive)
	}
	return nil
}

func (s *Service) CreateAirplane(ctx context.Context, req models.AirplaneCreate) (*models.AirplaneDetail, error) {
	if err := validateAirplane(req); err != nil {
		return nil, err
	}
	airplane := &database.Airplane{Name: req.Name, Rows: req.Rows, SeatsInRow: req.SeatsInRow}
	if err := s.store.CreateAirplane(ctx, airplane); err != nil {
		return nil, fmt.Errorf("failed to create airplane: %w", err)
	}
	view := models.NewAirplaneDetail(*airplane)
	return &view, nil
}

// UpdateAirplane rewrites an airplane. The layout is locked once any of
// its flights has sold tickets.
func (s *Service) UpdateAirplane(ctx context.Context, id uuid.UUID, req models.AirplaneCreate) (*models.AirplaneDetail, error) {
	if err := validateAirplane(req); err != nil {
		return nil, err
	}
	airplane := &database.Airplane{ID: id, Name: req.Name, Rows: req.Rows, SeatsInRow: req.SeatsInRow}
	if err := s.store.UpdateAirplane(ctx, airplane); err != nil {
		if errors.Is(err, database.ErrAirplaneInService) {
			return nil, &ValidationError{Field: FieldNonField, Messages: []string{msgLayoutLocked}, Err: err}
		}
		return nil, storeError("airplane", id, "update", err)
	}
	view := models.NewAirplaneDetail(*airplane)
	return &view, nil
}

func (s *Service) GetAirplane(ctx context.Context, id uuid.UUID) (*models.AirplaneDetail, error) {
	airplane, err := s.store.GetAirplane(ctx, id)
	if err != nil {
		return nil, storeError("airplane", id, "get", err)
	}
	view := models.NewAirplaneDetail(*airplane)
	return &view, nil
}

func (s *Service) ListAirplanes(ctx context.Context, filter database.AirplaneFilter) ([]models.AirplaneList, error) {
	airplanes, err := s.store.ListAirplanes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list airplanes: %w", err)
	}
	return models.NewAirplaneList(airplanes), nil
}

func (s *Service) DeleteAirplane(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteAirplane(ctx, id); err != nil {
		return storeError("airplane", id, "delete", err)
	}
	return nil
}

func (s *Service) CreateCrew(ctx context.Context, req models.CrewCreate) (*models.CrewDetail, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	switch {
	case req.FirstName == "":
		return nil, invalid("first_name", msgBlank)
	case req.LastName == "":
		return nil, invalid("last_name", msgBlank)
	case !req.Role.Valid():
		return nil, invalid("role", fmt.Sprintf("%q is not a valid choice.", string(req.Role)))
	}

	crew := &database.Crew{FirstName: req.FirstName, LastName: req.LastName, Role: req.Role}
	if err := s.store.CreateCrew(ctx, crew); err != nil {
		return nil, fmt.Errorf("failed to create crew: %w", err)
	}
	view := models.NewCrewDetail(*crew)
	return &view, nil
}

func (s *Service) GetCrew(ctx context.Context, id uuid.UUID) (*models.CrewDetail, error) {
	crew, err := s.store.GetCrew(ctx, id)
	if err != nil {
		return nil, storeError("crew", id, "get", err)
	}
	view := models.NewCrewDetail(*crew)
	return &view, nil
}

func (s *Service) ListCrew(ctx context.Context, filter database.CrewFilter) ([]models.CrewList, error) {
	crew, err := s.store.ListCrew(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list crew: %w", err)
	}
	return models.NewCrewList(crew), nil
}

func (s *Service) DeleteCrew(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteCrew(ctx, id); err != nil {
		return storeError("crew", id, "delete", err)
	}
	return nil
}
