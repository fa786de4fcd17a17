package ws

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Client is a connected websocket with the identity it authenticated as.
// Role and user id drive envelope targeting.
type Client struct {
	Conn   *websocket.Conn
	UserID uuid.UUID
	Role   string
}

// Envelope is one broadcast message. Empty targeting means "everyone";
// otherwise a connection receives it when its role matches TargetRole or its
// user id is listed in TargetUsers. Delivery is fire-and-forget.
type Envelope struct {
	TargetRole  string
	TargetUsers []uuid.UUID
	Payload     []byte
}

type Hub struct {
	Clients    map[*websocket.Conn]Client
	Register   chan Client
	Unregister chan *websocket.Conn
	Broadcast  chan Envelope
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]Client),
		Register:   make(chan Client),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan Envelope, 64),
	}
}

func (e Envelope) targets(c Client) bool {
	if e.TargetRole == "" && len(e.TargetUsers) == 0 {
		return true
	}
	if e.TargetRole != "" && e.TargetRole == c.Role {
		return true
	}
	for _, id := range e.TargetUsers {
		if id == c.UserID {
			return true
		}
	}
	return false
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.Clients[client.Conn] = client
			h.mutex.Unlock()
			log.Println("New WS Client Connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case envelope := <-h.Broadcast:
			h.mutex.Lock()
			for conn, client := range h.Clients {
				if !envelope.targets(client) {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, envelope.Payload); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
