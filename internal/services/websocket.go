package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"slidehub/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client represents one WebSocket connection
type Client struct {
	ID      string
	service *WebSocketService
	conn    *websocket.Conn
	send    chan []byte
}

// WebSocketService tracks live connections and fans messages out to a
// deck's session group. Group membership comes from the SessionDirectory,
// so a connection only receives broadcasts after it has joined a deck.
type WebSocketService struct {
	Register   chan *Client
	Unregister chan *Client

	mu        sync.RWMutex
	clients   map[string]*Client // connection id -> client
	directory *SessionDirectory
	collab    *CollabService
}

// NewWebSocketService creates a new websocket service
func NewWebSocketService(directory *SessionDirectory) *WebSocketService {
	return &WebSocketService{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[string]*Client),
		directory:  directory,
	}
}

// SetCollabService wires the collaboration hub that handles inbound
// messages and disconnects
func (ws *WebSocketService) SetCollabService(collab *CollabService) {
	ws.collab = collab
}

// NewClient wraps an upgraded connection
func (ws *WebSocketService) NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:      uuid.NewString(),
		service: ws,
		conn:    conn,
		send:    make(chan []byte, 256),
	}
}

// Run processes client registration and teardown
func (ws *WebSocketService) Run() {
	for {
		select {
		case client := <-ws.Register:
			ws.mu.Lock()
			ws.clients[client.ID] = client
			ws.mu.Unlock()

		case client := <-ws.Unregister:
			ws.mu.Lock()
			if _, ok := ws.clients[client.ID]; ok {
				delete(ws.clients, client.ID)
				close(client.send)
			}
			ws.mu.Unlock()

			if ws.collab != nil {
				ws.collab.Disconnect(client.ID)
			}
		}
	}
}

// Broadcast sends a message to every member of a deck's session, skipping
// exceptConnectionID when non-empty
func (ws *WebSocketService) Broadcast(deckID string, msg *models.ServerMessage, exceptConnectionID string) {
	data := mustMarshal(msg)

	for _, user := range ws.directory.UsersOf(deckID) {
		if user.ConnectionID == exceptConnectionID {
			continue
		}
		ws.SendRaw(user.ConnectionID, data)
	}
}

// SendTo sends a message to a single connection
func (ws *WebSocketService) SendTo(connectionID string, msg *models.ServerMessage) {
	ws.SendRaw(connectionID, mustMarshal(msg))
}

// SendRaw queues pre-marshaled bytes for a connection. A client whose send
// buffer is full is dropped rather than allowed to stall the sender. The
// read lock stays held across the channel send: Run closes send channels
// under the write lock, so a close can never interleave with a send.
func (ws *WebSocketService) SendRaw(connectionID string, data []byte) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	client, ok := ws.clients[connectionID]
	if !ok {
		return
	}

	select {
	case client.send <- data:
	default:
		log.Printf("Client %s send buffer full, dropping connection", connectionID)
		go func() { ws.Unregister <- client }()
	}
}

// ReadPump pumps messages from the WebSocket connection into the hub
func (c *Client) ReadPump() {
	defer func() {
		c.service.Unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg models.ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Invalid message format from %s: %v", c.ID, err)
			continue
		}

		c.service.collab.HandleMessage(c.ID, &msg)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
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

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal: %v", err)
		return []byte("{}")
	}
	return b
}
