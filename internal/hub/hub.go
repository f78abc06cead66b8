package hub

import (
	"encoding/json"
	"sync"

	"github.com/SebiosJade/Boluntik-sub004/internal/config"
	"github.com/SebiosJade/Boluntik-sub004/internal/domain"
	pkglog "github.com/SebiosJade/Boluntik-sub004/pkg/log"
)

// Hub owns the room membership table: room id -> client id -> client.
// Membership mutation and snapshot accessors are synchronous; broadcast
// fan-out runs on the hub's loop.
type Hub struct {
	clients    map[string]*Client
	rooms      map[string]map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *RoomMessage
	mu         sync.RWMutex
	config     config.WebSocketConfig
}

// RoomMessage is a message to be broadcast to a room.
type RoomMessage struct {
	RoomID  string
	Message []byte
	Exclude string // Client ID to exclude from broadcast
}

// NewHub creates a new Hub.
func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *RoomMessage, 256),
		config:     cfg,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	l := pkglog.L()
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l.Debug().Str(pkglog.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				// Remove from all rooms
				for roomID, roomClients := range h.rooms {
					delete(roomClients, client.ID)
					if len(roomClients) == 0 {
						delete(h.rooms, roomID)
					}
				}
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()
			l.Debug().Str(pkglog.FieldClientID, client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			if roomClients, ok := h.rooms[msg.RoomID]; ok {
				for clientID, client := range roomClients {
					if clientID == msg.Exclude {
						continue
					}
					select {
					case client.Send <- msg.Message:
					default:
						// Client's send buffer is full
						go h.removeClient(client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JoinRoom adds a client to a room. Re-joining is a no-op.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][client.ID] = client
	l := pkglog.L()
	l.Info().Str(pkglog.FieldClientID, client.ID).Str(pkglog.FieldRoomID, roomID).Msg("client joined room")
}

// LeaveRoom removes a client from a room. No-op if not joined.
func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if roomClients, ok := h.rooms[roomID]; ok {
		delete(roomClients, client.ID)
		if len(roomClients) == 0 {
			delete(h.rooms, roomID)
		}
	}
	l := pkglog.L()
	l.Info().Str(pkglog.FieldClientID, client.ID).Str(pkglog.FieldRoomID, roomID).Msg("client left room")
}

// IsMember reports whether the client is currently in the room.
func (h *Hub) IsMember(roomID, clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roomClients, ok := h.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = roomClients[clientID]
	return ok
}

// Occupants returns a snapshot of the clients currently in a room.
func (h *Hub) Occupants(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roomClients, ok := h.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]*Client, 0, len(roomClients))
	for _, c := range roomClients {
		out = append(out, c)
	}
	return out
}

// MemberRooms returns the ids of every room the client is currently in.
func (h *Hub) MemberRooms(clientID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []string
	for roomID, roomClients := range h.rooms {
		if _, ok := roomClients[clientID]; ok {
			out = append(out, roomID)
		}
	}
	return out
}

// BroadcastToRoom sends a message to all clients in a room.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}, exclude string) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.broadcast <- &RoomMessage{
		RoomID:  roomID,
		Message: data,
		Exclude: exclude,
	}
	return nil
}

// SendToUser sends a message to every session in the user's personal
// inbox room.
func (h *Hub) SendToUser(userID string, message interface{}) error {
	return h.BroadcastToRoom(domain.UserRoom(userID), message, "")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of non-empty rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
