package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/med_image_server/internal/model/dto"
	"github.com/qs3c/med_image_server/internal/pkg/ws"
)

func TestWebSocketHandler_ReceivesRecordEvents(t *testing.T) {
	hub := ws.NewHub()

	router := gin.New()
	router.GET("/ws", NewWebSocketHandler(hub).Handle)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.ConnectionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), &dto.RecordEvent{
		Type:   "record_created",
		Record: dto.HistoryItem{ID: 3, AnalysisType: "脑部MRI"},
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string          `json:"type"`
		Data dto.HistoryItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "record_created", msg.Type)
	assert.Equal(t, int64(3), msg.Data.ID)
	assert.Equal(t, "脑部MRI", msg.Data.AnalysisType)

	conn.Close()
	require.Eventually(t, func() bool {
		return hub.ConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_RejectsPlainHTTP(t *testing.T) {
	router := gin.New()
	router.GET("/ws", NewWebSocketHandler(ws.NewHub()).Handle)

	req := httptest.NewRequest("GET", "/ws", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}
