package handlers

import (
	"log"
	"net/http"

	"slidehub/internal/services"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Clients are served from arbitrary origins during development
		return true
	},
}

// WebSocketHandler upgrades HTTP connections into the collaboration hub
type WebSocketHandler struct {
	wsService *services.WebSocketService
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(wsService *services.WebSocketService) *WebSocketHandler {
	return &WebSocketHandler{
		wsService: wsService,
	}
}

// HandleConnection upgrades the request and starts the client pumps
// GET /ws
func (wh *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := wh.wsService.NewClient(conn)
	wh.wsService.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
