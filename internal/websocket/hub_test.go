package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(nil)
	go hub.Run(ctx)
	return hub
}

func dial(t *testing.T, hub *Hub, flight *database.Flight) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, hub.Serve(w, r, flight.ID, flight.TakenSeats, flight.TicketsAvailable))
	}))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubSendsSeatMapThenUpdates(t *testing.T) {
	hub := startHub(t)
	flight := &database.Flight{
		ID:               uuid.New(),
		TakenSeats:       []database.Seat{{Row: 1, Seat: 1}},
		TicketsAvailable: 119,
	}
	conn := dial(t, hub, flight)

	snapshot := readMessage(t, conn)
	assert.Equal(t, MessageTypeSeatMap, snapshot.Type)
	assert.Equal(t, flight.ID, snapshot.FlightID)
	assert.Equal(t, []database.Seat{{Row: 1, Seat: 1}}, snapshot.Seats)
	require.NotNil(t, snapshot.TicketsAvailable)
	assert.Equal(t, 119, *snapshot.TicketsAvailable)

	require.Eventually(t, func() bool { return hub.GetClientCount(flight.ID) == 1 },
		time.Second, 10*time.Millisecond)

	other := uuid.New()
	order := &database.Order{
		ID: uuid.New(),
		Tickets: []database.Ticket{
			{FlightID: flight.ID, Row: 2, Seat: 1},
			{FlightID: other, Row: 9, Seat: 9},
			{FlightID: flight.ID, Row: 2, Seat: 2},
		},
	}
	require.NoError(t, hub.OrderCommitted(context.Background(), order))

	update := readMessage(t, conn)
	assert.Equal(t, MessageTypeSeatsTaken, update.Type)
	assert.Equal(t, flight.ID, update.FlightID)
	require.NotNil(t, update.OrderID)
	assert.Equal(t, order.ID, *update.OrderID)
	assert.Equal(t, []database.Seat{{Row: 2, Seat: 1}, {Row: 2, Seat: 2}}, update.Seats)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := startHub(t)
	flight := &database.Flight{ID: uuid.New()}
	conn := dial(t, hub, flight)

	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.GetClientCount(flight.ID) == 1 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.GetClientCount(flight.ID) == 0 },
		5*time.Second, 10*time.Millisecond)
}

func TestOrderCommittedWithoutWatchers(t *testing.T) {
	hub := NewHub(nil)
	order := &database.Order{ID: uuid.New(), Tickets: []database.Ticket{{FlightID: uuid.New(), Row: 1, Seat: 1}}}
	assert.NoError(t, hub.OrderCommitted(context.Background(), order))
}
