package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
)

// client is one connected map surface
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub distributes scene frames to connected map clients. Each committed state
// change pushes one frame; clients joining mid-session get the latest frame
// immediately so they never render an empty map.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	lastFrame  []byte
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until the context is canceled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			log.Printf("ws: client %s connected, total %d", c.id, len(h.clients))
			if h.lastFrame != nil {
				select {
				case c.send <- h.lastFrame:
				default:
				}
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				log.Printf("ws: client %s disconnected, total %d", c.id, len(h.clients))
			}

		case frame := <-h.broadcast:
			h.lastFrame = frame
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					// slow client: drop it rather than block the hub
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// BroadcastScene pushes one scene frame to every connected client
func (h *Hub) BroadcastScene(scene domain.Scene) {
	frame, err := json.Marshal(scene)
	if err != nil {
		log.Printf("ws: failed to marshal scene: %v", err)
		return
	}
	select {
	case h.broadcast <- frame:
	default:
		log.Printf("ws: broadcast buffer full, frame dropped")
	}
}

// add hands a client to the hub loop; it fails fast instead of blocking
// when the hub has already shut down
func (h *Hub) add(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Handler returns the fiber handler upgrading connections into the hub
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		c := &client{
			id:   uuid.NewString(),
			conn: conn,
			send: make(chan []byte, 16),
		}
		if !h.add(c) {
			_ = conn.Close()
			return
		}

		go c.writePump()

		// reads are only consumed to detect disconnects
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.remove(c)
	})
}

// Upgrade gates the route so plain HTTP requests get a 426
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (c *client) writePump() {
	for frame := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			break
		}
	}
	_ = c.conn.Close()
}
