// Package websocket pushes pickup and payment events to connected dashboards.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bintobloom/internal/events"
	"bintobloom/internal/metrics"
	"bintobloom/internal/model"
	"bintobloom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one connected dashboard and the account behind it
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	actor service.Actor
}

type envelope struct {
	event   events.Event
	payload []byte
}

// Hub maintains the set of active clients and routes events to the ones allowed to see them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *slog.Logger
}

// NewHub initializes a new WS Hub instance
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run dispatches until ctx is cancelled, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			metrics.WebsocketClients.Inc()
			h.log.Debug("websocket client connected", "user_id", client.actor.ID, "role", client.actor.Role)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.log.Debug("websocket client disconnected", "user_id", client.actor.ID)
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				if !audience(client.actor, msg.event) {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	metrics.WebsocketClients.Dec()
}

// Publish implements events.Publisher.
func (h *Hub) Publish(ctx context.Context, e events.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	select {
	case h.broadcast <- envelope{event: e, payload: b}:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// audience reports whether actor may see e. Admins see everything, requesters and
// the assigned collector see their pickups, and collectors see new requests.
func audience(actor service.Actor, e events.Event) bool {
	if actor.IsAdmin() {
		return true
	}
	id := actor.ID.String()
	if e.UserID == id || e.CollectorID == id {
		return true
	}
	return actor.Role == model.RoleCollector && (e.Type == events.PickupCreated || e.Type == events.PickupRejected)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; clients never send commands.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read failed", "user_id", c.actor.ID, "error", err)
			}
			return
		}
	}
}

// ServeWs upgrades an authenticated request. The caller must run an Auth
// middleware first so actor is populated.
func ServeWs(hub *Hub, c *gin.Context, actor service.Actor) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), actor: actor}
	select {
	case hub.register <- client:
	case <-hub.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
