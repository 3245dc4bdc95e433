package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"wati-proxy/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client represents a connected WebSocket subscriber
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the subscriber set and fans activity events out to it. Only the Run
// goroutine touches clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	upgrader   websocket.Upgrader
}

// NewHub builds a hub accepting upgrades from the given origins. An empty list
// or "*" accepts any origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes every
// subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			log.Debug().Int("clients", len(h.clients)).Msg("WebSocket client registered")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			log.Debug().Int("clients", len(h.clients)).Msg("WebSocket client unregistered")
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow subscriber
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

type WSEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// BroadcastEvent queues an event for every subscriber. It never blocks: when
// the queue is full or the hub has stopped the event is dropped.
func (h *Hub) BroadcastEvent(eventType string, data interface{}) {
	payload, err := json.Marshal(WSEvent{Type: eventType, Data: data})
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Error marshaling WS event")
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		log.Warn().Str("type", eventType).Msg("WebSocket broadcast queue full, dropping event")
	}
}

func (h *Hub) NotifyActivity(entry models.ActivityLog) {
	h.BroadcastEvent("activity_log", entry)
}

// ServeWs upgrades the request and subscribes the connection to the feed.
func (h *Hub) ServeWs(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// subscribers only send control frames
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

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
