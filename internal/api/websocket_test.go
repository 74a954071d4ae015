package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/factory-dashboard/backend/internal/feed"
	"github.com/factory-dashboard/backend/internal/models"
)

func TestHub_BroadcastsLiveData(t *testing.T) {
	e := echo.New()
	hub := NewHub(nil)
	defer hub.Close()
	e.GET("/api/ws/live", hub.HandleWebSocket)

	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// First frame is the welcome message.
	var msg WSMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	assert.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgTypeConnected, msg.Type)

	// Wait until the hub sees the client before broadcasting.
	for i := 0; i < 100 && hub.ClientCount() == 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, hub.ClientCount())

	hub.Broadcast([]feed.Reading{
		{TagID: "1", Value: 42.5, Quality: models.QualityGood, Timestamp: time.Now()},
	})

	assert.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgTypeDataUpdate, msg.Type)

	var values []CurrentValue
	assert.NoError(t, json.Unmarshal(msg.Payload, &values))
	if assert.Len(t, values, 1) {
		assert.Equal(t, models.TagID("1"), values[0].TagID)
	}
}

func TestHub_PingPong(t *testing.T) {
	e := echo.New()
	hub := NewHub(nil)
	defer hub.Close()
	e.GET("/api/ws/live", hub.HandleWebSocket)

	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	var msg WSMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	assert.NoError(t, conn.ReadJSON(&msg)) // connected

	assert.NoError(t, conn.WriteJSON(WSMessage{Type: MsgTypePing, Timestamp: time.Now().UnixMilli()}))
	assert.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgTypePong, msg.Type)
}
