package ws

import (
	"encoding/json"
	"sync"
	"time"

	applogger "habridge/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// frame is the envelope every client receives.
type frame struct {
	Event   string `json:"event"`
	Payload any    `json:"data,omitempty"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	symbol string // "" means all symbols
}

func (c *client) subscribedTo(symbol string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.symbol == "" || symbol == "" || c.symbol == symbol
}

func (c *client) setSymbol(symbol string) {
	c.mu.Lock()
	c.symbol = symbol
	c.mu.Unlock()
}

// Hub fans broadcast events out to connected WebSocket clients. A
// client may narrow its stream to one symbol with a subscribe message;
// events without a symbol (trade updates, account snapshots) are
// delivered to everyone.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan envelope
	done       chan struct{}

	l *applogger.Logger
}

type envelope struct {
	symbol string
	data   []byte
}

// NewHub creates a Hub. Run must be called before clients connect.
func NewHub(l *applogger.Logger) *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan envelope, 256),
		done:       make(chan struct{}),
		l:          l,
	}
}

// Run owns the client set. All membership changes go through this
// loop, so no lock is needed around the map.
func (h *Hub) Run() {
	clients := make(map[*client]struct{})
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
			h.l.Debug("ws client connected", applogger.Int("clients", len(clients)))
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
		case env := <-h.broadcast:
			for c := range clients {
				if !c.subscribedTo(env.symbol) {
					continue
				}
				select {
				case c.send <- env.data:
				default:
					// slow consumer, drop it
					delete(clients, c)
					close(c.send)
				}
			}
		case <-h.done:
			for c := range clients {
				close(c.send)
			}
			return
		}
	}
}

// Stop disconnects all clients and terminates the run loop.
func (h *Hub) Stop() {
	close(h.done)
}

// Publish implements repository.Broadcaster. Marshal failures are
// logged and dropped; a broadcast never propagates an error back into
// the pipeline that produced the event.
func (h *Hub) Publish(event, symbol string, payload any) {
	b, err := json.Marshal(frame{Event: event, Payload: payload})
	if err != nil {
		h.l.Error("ws marshal", applogger.String("event", event), applogger.Error(err))
		return
	}
	select {
	case h.broadcast <- envelope{symbol: symbol, data: b}:
	case <-h.done:
	}
}

type subscribeMsg struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// HandleConn takes ownership of an upgraded connection.
func (h *Hub) HandleConn(conn *websocket.Conn) {
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	welcome, _ := json.Marshal(frame{Event: "connected", Payload: map[string]string{"message": "websocket connected"}})
	c.send <- welcome

	go c.writePump()
	c.readPump()
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg subscribeMsg
		if err := json.Unmarshal(b, &msg); err != nil {
			continue
		}
		if msg.Type != "subscribe" {
			continue
		}
		c.setSymbol(msg.Symbol)
		ack, _ := json.Marshal(frame{Event: "subscribed", Payload: map[string]string{"symbol": msg.Symbol}})
		select {
		case c.send <- ack:
		default:
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
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
