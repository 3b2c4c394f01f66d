package mocks

import (
	"context"
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockReservationService is a mock implementation of ReservationService
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) CreateAirport(ctx context.Context, req models.AirportCreate) (*models.Airport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Airport), args.Error(1)
}

func (m *MockReservationService) UpdateAirport(ctx context.Context, id uuid.UUID, req models.AirportCreate) (*models.Airport, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Airport), args.Error(1)
}

func (m *MockReservationService) GetAirport(ctx context.Context, id uuid.UUID) (*models.Airport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Airport), args.Error(1)
}

func (m *MockReservationService) ListAirports(ctx context.Context, filter database.AirportFilter) ([]models.Airport, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Airport), args.Error(1)
}

func (m *MockReservationService) DeleteAirport(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReservationService) CreateRoute(ctx context.Context, req models.RouteCreate) (*models.RouteDetail, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RouteDetail), args.Error(1)
}

func (m *MockReservationService) GetRoute(ctx context.Context, id uuid.UUID) (*models.RouteDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RouteDetail), args.Error(1)
}

func (m *MockReservationService) ListRoutes(ctx context.Context, filter database.RouteFilter) ([]models.RouteList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RouteList), args.Error(1)
}

func (m *MockReservationService) DeleteRoute(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReservationService) CreateAirplane(ctx context.Context, req models.AirplaneCreate) (*models.AirplaneDetail, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AirplaneDetail), args.Error(1)
}

func (m *MockReservationService) UpdateAirplane(ctx context.Context, id uuid.UUID, req models.AirplaneCreate) (*models.AirplaneDetail, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AirplaneDetail), args.Error(1)
}

func (m *MockReservationService) GetAirplane(ctx context.Context, id uuid.UUID) (*models.AirplaneDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AirplaneDetail), args.Error(1)
}

func (m *MockReservationService) ListAirplanes(ctx context.Context, filter database.AirplaneFilter) ([]models.AirplaneList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AirplaneList), args.Error(1)
}

func (m *MockReservationService) DeleteAirplane(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReservationService) CreateCrew(ctx context.Context, req models.CrewCreate) (*models.CrewDetail, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CrewDetail), args.Error(1)
}

func (m *MockReservationService) GetCrew(ctx context.Context, id uuid.UUID) (*models.CrewDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CrewDetail), args.Error(1)
}

func (m *MockReservationService) ListCrew(ctx context.Context, filter database.CrewFilter) ([]models.CrewList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CrewList), args.Error(1)
}

func (m *MockReservationService) DeleteCrew(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReservationService) CreateFlight(ctx context.Context, req models.FlightCreate) (*models.FlightDetail, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FlightDetail), args.Error(1)
}

func (m *MockReservationService) UpdateFlight(ctx context.Context, id uuid.UUID, req models.FlightCreate) (*models.FlightDetail, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FlightDetail), args.Error(1)
}

func (m *MockReservationService) GetFlight(ctx context.Context, id uuid.UUID) (*models.FlightDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FlightDetail), args.Error(1)
}

func (m *MockReservationService) ListFlights(ctx context.Context, filter database.FlightFilter) ([]models.FlightList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FlightList), args.Error(1)
}

func (m *MockReservationService) DeleteFlight(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReservationService) CreateOrder(ctx context.Context, caller auth.Identity, req models.OrderCreate) (*models.OrderDetail, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderDetail), args.Error(1)
}

func (m *MockReservationService) GetOrder(ctx context.Context, caller auth.Identity, id uuid.UUID) (*models.OrderDetail, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderDetail), args.Error(1)
}

func (m *MockReservationService) ListOrders(ctx context.Context, caller auth.Identity, createdOn *time.Time) ([]models.OrderList, error) {
	args := m.Called(ctx, caller, createdOn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderList), args.Error(1)
}

func (m *MockReservationService) GetTicket(ctx context.Context, caller auth.Identity, id uuid.UUID) (*models.Ticket, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockReservationService) ListTickets(ctx context.Context, caller auth.Identity, filter database.TicketFilter) ([]models.Ticket, error) {
	args := m.Called(ctx, caller, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}
