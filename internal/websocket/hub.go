package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// MessageTypeSeatMap is sent once when a client connects
	MessageTypeSeatMap MessageType = "seat_map"
	// MessageTypeSeatsTaken is sent after an order commits seats
	MessageTypeSeatsTaken MessageType = "seats_taken"
)

// Message represents a WebSocket message
type Message struct {
	Type             MessageType     `json:"type"`
	FlightID         uuid.UUID       `json:"flight_id"`
	OrderID          *uuid.UUID      `json:"order_id,omitempty"`
	Seats            []database.Seat `json:"seats"`
	TicketsAvailable *int            `json:"tickets_available,omitempty"`
	Timestamp        int64           `json:"timestamp"`
}

// Hub manages WebSocket connections per flight
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	mu         sync.RWMutex
	logger     *slog.Logger
	now        func() time.Time
}

// NewHub creates a new Hub. Call Run to start delivering messages.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		logger:     logger,
		now:        time.Now,
	}
}

// Run delivers registrations and broadcasts until ctx is done, then
// closes every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for flightID, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, flightID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.flightID] == nil {
				h.clients[client.flightID] = make(map[*Client]bool)
			}
			h.clients[client.flightID][client] = true
			h.logger.Debug("websocket client registered",
				"flight_id", client.flightID, "clients", len(h.clients[client.flightID]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error("failed to marshal websocket message", "error", err)
				continue
			}

			h.mu.Lock()
			clients := h.clients[message.FlightID]
			h.logger.Debug("broadcasting websocket message",
				"type", message.Type, "flight_id", message.FlightID, "clients", len(clients))
			for client := range clients {
				select {
				case client.send <- data:
				default:
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client; callers hold h.mu
func (h *Hub) drop(client *Client) {
	clients, ok := h.clients[client.flightID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	h.logger.Debug("websocket client unregistered",
		"flight_id", client.flightID, "remaining", len(clients))
	if len(clients) == 0 {
		delete(h.clients, client.flightID)
	}
}

// OrderCommitted broadcasts the seats of a committed order to clients
// watching each affected flight. It never blocks; messages are dropped
// when the broadcast queue is full.
func (h *Hub) OrderCommitted(_ context.Context, order *database.Order) error {
	seats := make(map[uuid.UUID][]database.Seat)
	var flights []uuid.UUID
	for _, t := range order.Tickets {
		if _, ok := seats[t.FlightID]; !ok {
			flights = append(flights, t.FlightID)
		}
		seats[t.FlightID] = append(seats[t.FlightID], database.Seat{Row: t.Row, Seat: t.Seat})
	}

	orderID := order.ID
	for _, flightID := range flights {
		msg := &Message{
			Type:      MessageTypeSeatsTaken,
			FlightID:  flightID,
			OrderID:   &orderID,
			Seats:     seats[flightID],
			Timestamp: h.now().UnixMilli(),
		}
		select {
		case h.broadcast <- msg:
		default:
			h.logger.Warn("websocket broadcast queue full", "flight_id", flightID, "order_id", order.ID)
		}
	}
	return nil
}

// GetClientCount returns the number of clients watching a flight
func (h *Hub) GetClientCount(flightID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[flightID])
}
