package orderControllers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/junaidrashid-git/checkout-api/events"
	"go.uber.org/zap"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsSendBuffer   = 16
)

// hubClient is one dashboard socket with its own outgoing queue.
type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes committed order events to connected dashboard sockets.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:  logger,
		clients: make(map[*hubClient]struct{}),
	}
}

// GET /admin/orders/ws
func (h *Hub) OrderWebSocketHandler(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("⚠️ WebSocket upgrade failed", zap.Error(err))
		return
	}
	client := &hubClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.add(client)
	go h.writeLoop(client)
	defer h.remove(client)

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop drains the client's queue until remove closes it or a write fails.
func (h *Hub) writeLoop(client *hubClient) {
	defer client.conn.Close()
	for data := range client.send {
		_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("WebSocket write failed", zap.Error(err))
			return
		}
	}
}

func (h *Hub) add(client *hubClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(client *hubClient) {
	h.mu.Lock()
	h.drop(client)
	h.mu.Unlock()
}

// drop must be called with mu held.
func (h *Hub) drop(client *hubClient) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Clients reports the number of connected sockets.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish implements events.Publisher. It never waits on a socket: a client
// whose queue is full is dropped.
func (h *Hub) Publish(_ context.Context, event events.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("⚠️ Dropping slow order dashboard client")
			h.drop(client)
		}
	}
	return nil
}
