package seating

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryLedger keeps tickets in a map. raced seats are free at
// pre-check time but rejected on insert, as when another order commits
// between the two.
type memoryLedger struct {
	layouts map[uuid.UUID][2]int
	taken   map[seatKey]bool
	raced   map[seatKey]bool
	inserts int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		layouts: make(map[uuid.UUID][2]int),
		taken:   make(map[seatKey]bool),
		raced:   make(map[seatKey]bool),
	}
}

func (l *memoryLedger) FlightBounds(_ context.Context, id uuid.UUID) (int, int, error) {
	layout, ok := l.layouts[id]
	if !ok {
		return 0, 0, database.ErrNotFound
	}
	return layout[0], layout[1], nil
}

func (l *memoryLedger) SeatTaken(_ context.Context, id uuid.UUID, row, seat int) (bool, error) {
	return l.taken[seatKey{id, row, seat}], nil
}

func (l *memoryLedger) InsertTicket(_ context.Context, t *database.Ticket) error {
	key := seatKey{t.FlightID, t.Row, t.Seat}
	if l.taken[key] || l.raced[key] {
		return fmt.Errorf("failed to create ticket: %w", database.ErrSeatConflict)
	}
	l.taken[key] = true
	l.inserts++
	t.ID = uuid.New()
	return nil
}

func TestCheckBounds(t *testing.T) {
	const rows, seats = 20, 6
	tests := []struct {
		name    string
		row     int
		seat    int
		wantErr bool
	}{
		{"first seat", 1, 1, false},
		{"last seat", rows, seats, false},
		{"row zero", 0, 1, true},
		{"row past end", rows + 1, 1, true},
		{"seat zero", 1, 0, true},
		{"seat past end", 1, seats + 1, true},
		{"negative", -3, -3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBounds(Pick{Row: tt.row, Seat: tt.seat}, rows, seats)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var oob *SeatOutOfBoundsError
			require.ErrorAs(t, err, &oob)
			assert.Equal(t, "Specify row value in range [1, 20], seat value in range [1, 6]", err.Error())
		})
	}
}

func TestAllocate(t *testing.T) {
	ctx := context.Background()
	flight := uuid.New()
	orderID := uuid.New()

	ledger := newMemoryLedger()
	ledger.layouts[flight] = [2]int{10, 4}
	engine := NewEngine(nil)

	tickets, err := engine.Allocate(ctx, ledger, orderID, []Pick{
		{FlightID: flight, Row: 1, Seat: 1},
		{FlightID: flight, Row: 10, Seat: 4},
	})
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, orderID, tickets[0].OrderID)
	assert.Equal(t, 10, tickets[1].Row)
	assert.NotEqual(t, uuid.Nil, tickets[1].ID)

	_, err = engine.Allocate(ctx, ledger, uuid.New(), []Pick{{FlightID: flight, Row: 1, Seat: 1}})
	var taken *SeatTakenError
	require.ErrorAs(t, err, &taken)
	assert.Equal(t, SourcePreCheck, taken.Source)
	assert.Equal(t, 2, ledger.inserts)
}

func TestAllocateDuplicateInOrder(t *testing.T) {
	flight := uuid.New()
	ledger := newMemoryLedger()
	ledger.layouts[flight] = [2]int{5, 5}

	_, err := NewEngine(nil).Allocate(context.Background(), ledger, uuid.New(), []Pick{
		{FlightID: flight, Row: 2, Seat: 3},
		{FlightID: flight, Row: 2, Seat: 3},
	})
	var taken *SeatTakenError
	require.ErrorAs(t, err, &taken)
	assert.Equal(t, SourceSameOrder, taken.Source)
}

func TestAllocateConstraintRace(t *testing.T) {
	flight := uuid.New()
	ledger := newMemoryLedger()
	ledger.layouts[flight] = [2]int{5, 5}
	ledger.raced[seatKey{flight, 3, 3}] = true

	_, err := NewEngine(nil).Allocate(context.Background(), ledger, uuid.New(), []Pick{
		{FlightID: flight, Row: 1, Seat: 1},
		{FlightID: flight, Row: 3, Seat: 3},
	})
	var taken *SeatTakenError
	require.ErrorAs(t, err, &taken)
	assert.Equal(t, SourceConstraint, taken.Source)

	pre := &SeatTakenError{Pick: taken.Pick, Source: SourcePreCheck}
	assert.Equal(t, pre.Error(), taken.Error(), "both sources render the same")
}

func TestAllocateStopsAtFirstFailure(t *testing.T) {
	flight := uuid.New()
	ledger := newMemoryLedger()
	ledger.layouts[flight] = [2]int{5, 5}

	_, err := NewEngine(nil).Allocate(context.Background(), ledger, uuid.New(), []Pick{
		{FlightID: flight, Row: 1, Seat: 1},
		{FlightID: flight, Row: 6, Seat: 1},
		{FlightID: flight, Row: 2, Seat: 1},
	})
	var oob *SeatOutOfBoundsError
	require.ErrorAs(t, err, &oob)
	assert.Equal(t, 6, oob.Pick.Row)
	assert.Equal(t, 1, ledger.inserts, "third pick is never attempted")
}

func TestAllocateUnknownFlight(t *testing.T) {
	_, err := NewEngine(nil).Allocate(context.Background(), newMemoryLedger(), uuid.New(), []Pick{
		{FlightID: uuid.New(), Row: 1, Seat: 1},
	})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) FlightBounds(ctx context.Context, id uuid.UUID) (int, int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *mockLedger) SeatTaken(ctx context.Context, id uuid.UUID, row, seat int) (bool, error) {
	args := m.Called(ctx, id, row, seat)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) InsertTicket(ctx context.Context, t *database.Ticket) error {
	return m.Called(ctx, t).Error(0)
}

func TestAllocateLoadsBoundsOncePerFlight(t *testing.T) {
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	ledger := new(mockLedger)
	ledger.On("FlightBounds", ctx, a).Return(3, 3, nil).Once()
	ledger.On("FlightBounds", ctx, b).Return(2, 2, nil).Once()
	ledger.On("SeatTaken", ctx, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	ledger.On("InsertTicket", ctx, mock.AnythingOfType("*database.Ticket")).Return(nil)

	tickets, err := NewEngine(nil).Allocate(ctx, ledger, uuid.New(), []Pick{
		{FlightID: a, Row: 1, Seat: 1},
		{FlightID: b, Row: 1, Seat: 1},
		{FlightID: a, Row: 3, Seat: 3},
	})
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
	ledger.AssertExpectations(t)
}

func TestAllocateStorageFailure(t *testing.T) {
	ctx := context.Background()
	flight := uuid.New()
	boom := errors.New("connection reset")

	ledger := new(mockLedger)
	ledger.On("FlightBounds", ctx, flight).Return(3, 3, nil)
	ledger.On("SeatTaken", ctx, flight, 1, 1).Return(false, boom)

	_, err := NewEngine(nil).Allocate(ctx, ledger, uuid.New(), []Pick{{FlightID: flight, Row: 1, Seat: 1}})
	assert.ErrorIs(t, err, boom)
	ledger.AssertNotCalled(t, "InsertTicket", mock.Anything, mock.Anything)
}
