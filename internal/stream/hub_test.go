package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tabour/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func startHubServer(t *testing.T) (*Hub, *httptest.Server) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(logger.New(), nil)
	router := gin.New()
	RegisterRoutes(router.Group(""), hub)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return hub, server
}

func dialBranch(t *testing.T, server *httptest.Server, branchID uuid.UUID) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/queue/" + branchID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubBroadcastsToBranchSubscribers(t *testing.T) {
	hub, server := startHubServer(t)
	branchID := uuid.New()
	conn := dialBranch(t, server, branchID)
	waitForClients(t, hub, 1)

	hub.EntryChanged(branchID, EventEntryCreated, map[string]string{"status": "waiting"})

	assert.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	assert.NoError(t, err)

	var msg Message
	assert.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, EventEntryCreated, msg.Event)
	assert.Equal(t, branchID.String(), msg.BranchID)
}

func TestHubScopesBroadcastsToBranch(t *testing.T) {
	hub, server := startHubServer(t)
	branchA := uuid.New()
	branchB := uuid.New()
	conn := dialBranch(t, server, branchB)
	waitForClients(t, hub, 1)

	hub.EntryChanged(branchA, EventEntryUpdated, nil)

	// The branch B viewer hears nothing about branch A.
	assert.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHubRejectsInvalidBranchID(t *testing.T) {
	_, server := startHubServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/queue/not-a-uuid"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, 400, resp.StatusCode)
	}
}
