package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client represents a WebSocket client connection
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	flightID uuid.UUID
}

// Serve upgrades the request and streams seat updates for one flight.
// The seat map given by taken and available is sent first.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, flightID uuid.UUID, taken []database.Seat, available int) error {
	snapshot, err := json.Marshal(h.seatMap(flightID, taken, available))
	if err != nil {
		return fmt.Errorf("failed to marshal seat map: %w", err)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 64), flightID: flightID}
	client.send <- snapshot
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return fmt.Errorf("hub stopped")
	}

	go client.writePump()
	go client.readPump()
	return nil
}

func (h *Hub) seatMap(flightID uuid.UUID, taken []database.Seat, available int) *Message {
	if taken == nil {
		taken = []database.Seat{}
	}
	return &Message{
		Type:             MessageTypeSeatMap,
		FlightID:         flightID,
		Seats:            taken,
		TicketsAvailable: &available,
		Timestamp:        h.now().UnixMilli(),
	}
}

// readPump discards client input and unregisters on disconnect
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read failed", "flight_id", c.flightID, "error", err)
			}
			return
		}
	}
}

// writePump sends queued messages and keeps the connection alive
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
