package stream

import (
	"encoding/json"
	"net/http"
	"sync"

	"tabour/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	EventEntryCreated = "entry_created"
	EventEntryUpdated = "entry_updated"
)

type Message struct {
	Event    string      `json:"event"`
	BranchID string      `json:"branch_id"`
	Data     interface{} `json:"data"`
}

// Hub fans queue changes out to connected viewers. Each connection
// subscribes to a single branch; staff dashboards and customer status
// screens both ride the same feed instead of polling.
type Hub struct {
	clients  map[*websocket.Conn]uuid.UUID
	mutex    sync.Mutex
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

func NewHub(log *logger.Logger, allowedOrigins []string) *Hub {
	allowAll := len(allowedOrigins) == 0
	origins := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		origins[origin] = true
	}

	return &Hub{
		clients: make(map[*websocket.Conn]uuid.UUID),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				return origins[r.Header.Get("Origin")]
			},
		},
		logger: log,
	}
}

// ServeWS upgrades the request and subscribes the connection to the
// branch named in the route.
func (h *Hub) ServeWS(c *gin.Context) {
	branchID, err := uuid.Parse(c.Param("branch_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.register(conn, branchID)
	go h.readPump(conn)
}

func (h *Hub) register(conn *websocket.Conn, branchID uuid.UUID) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = branchID
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// readPump drains inbound frames so close messages are noticed. The
// feed is one-way; client payloads are discarded.
func (h *Hub) readPump(conn *websocket.Conn) {
	defer h.unregister(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// EntryChanged broadcasts a queue entry change to every viewer of its
// branch.
func (h *Hub) EntryChanged(branchID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(Message{
		Event:    event,
		BranchID: branchID.String(),
		Data:     payload,
	})
	if err != nil {
		h.logger.WithError(err).Warn("failed to marshal stream message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, subscribed := range h.clients {
		if subscribed != branchID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// ClientCount reports the number of live connections, for health
// reporting.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func RegisterRoutes(rg *gin.RouterGroup, hub *Hub) {
	rg.GET("/ws/queue/:branch_id", hub.ServeWS)
}
