// Package service implements the reference catalog, the flight
// directory and the order transaction manager on top of a
// database.Store.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/geo"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/seating"
	"github.com/google/uuid"
)

// ReservationService is everything the HTTP layer can ask for
type ReservationService interface {
	CreateAirport(ctx context.Context, req models.AirportCreate) (*models.Airport, error)
	UpdateAirport(ctx context.Context, id uuid.UUID, req models.AirportCreate) (*models.Airport, error)
	GetAirport(ctx context.Context, id uuid.UUID) (*models.Airport, error)
	ListAirports(ctx context.Context, filter database.AirportFilter) ([]models.Airport, error)
	DeleteAirport(ctx context.Context, id uuid.UUID) error

	CreateRoute(ctx context.Context, req models.RouteCreate) (*models.RouteDetail, error)
	GetRoute(ctx context.Context, id uuid.UUID) (*models.RouteDetail, error)
	ListRoutes(ctx context.Context, filter database.RouteFilter) ([]models.RouteList, error)
	DeleteRoute(ctx context.Context, id uuid.UUID) error

	CreateAirplane(ctx context.Context, req models.AirplaneCreate) (*models.AirplaneDetail, error)
	UpdateAirplane(ctx context.Context, id uuid.UUID, req models.AirplaneCreate) (*models.AirplaneDetail, error)
	GetAirplane(ctx context.Context, id uuid.UUID) (*models.AirplaneDetail, error)
	ListAirplanes(ctx context.Context, filter database.AirplaneFilter) ([]models.AirplaneList, error)
	DeleteAirplane(ctx context.Context, id uuid.UUID) error

	CreateCrew(ctx context.Context, req models.CrewCreate) (*models.CrewDetail, error)
	GetCrew(ctx context.Context, id uuid.UUID) (*models.CrewDetail, error)
	ListCrew(ctx context.Context, filter database.CrewFilter) ([]models.CrewList, error)
	DeleteCrew(ctx context.Context, id uuid.UUID) error

	CreateFlight(ctx context.Context, req models.FlightCreate) (*models.FlightDetail, error)
	UpdateFlight(ctx context.Context, id uuid.UUID, req models.FlightCreate) (*models.FlightDetail, error)
	GetFlight(ctx context.Context, id uuid.UUID) (*models.FlightDetail, error)
	ListFlights(ctx context.Context, filter database.FlightFilter) ([]models.FlightList, error)
	DeleteFlight(ctx context.Context, id uuid.UUID) error

	CreateOrder(ctx context.Context, caller auth.Identity, req models.OrderCreate) (*models.OrderDetail, error)
	GetOrder(ctx context.Context, caller auth.Identity, id uuid.UUID) (*models.OrderDetail, error)
	ListOrders(ctx context.Context, caller auth.Identity, createdOn *time.Time) ([]models.OrderList, error)
	GetTicket(ctx context.Context, caller auth.Identity, id uuid.UUID) (*models.Ticket, error)
	ListTickets(ctx context.Context, caller auth.Identity, filter database.TicketFilter) ([]models.Ticket, error)
}

// OrderObserver is told about every committed order
type OrderObserver interface {
	OrderCommitted(ctx context.Context, order *database.Order) error
}

// Config wires a Service
type Config struct {
	Store  database.Store
	Cities geo.Source
	Logger *slog.Logger
}

// Service implements ReservationService
type Service struct {
	store     database.Store
	cities    geo.Source
	engine    *seating.Engine
	observers []OrderObserver
	logger    *slog.Logger
}

var _ ReservationService = (*Service)(nil)

// New creates a Service. Cities is usually a geo.CachedSource.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("service requires a store")
	}
	if cfg.Cities == nil {
		return nil, fmt.Errorf("service requires a city source")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:  cfg.Store,
		cities: cfg.Cities,
		engine: seating.NewEngine(logger),
		logger: logger,
	}, nil
}

// AddObserver registers o for post-commit notifications. Call before
// serving requests.
func (s *Service) AddObserver(o OrderObserver) {
	s.observers = append(s.observers, o)
}
