package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub maps room ids to their subscribed connections and delivers named
// events. It satisfies the coordinator's broadcaster contract; delivery
// is fire and forget, a client with a full egress buffer is skipped.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

func (that *Hub) Register(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[client.id] = client
}

// Unregister - removes the client from the hub and from every room it was
// subscribed to, returning those room ids so the caller can notify them.
func (that *Hub) Unregister(client *Client) []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	var joined []string
	for roomID, members := range that.rooms {
		if _, ok := members[client.id]; ok {
			delete(members, client.id)
			joined = append(joined, roomID)
		}
	}

	delete(that.clients, client.id)

	return joined
}

func (that *Hub) Join(roomID, connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	client, ok := that.clients[connID]
	if !ok {
		return
	}

	members, ok := that.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		that.rooms[roomID] = members
	}

	members[connID] = client
}

func (that *Hub) Leave(roomID, connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if members, ok := that.rooms[roomID]; ok {
		delete(members, connID)
	}
}

func (that *Hub) ToConn(connID, event string, payload any) {
	that.mu.RLock()
	client, ok := that.clients[connID]
	that.mu.RUnlock()

	if !ok {
		return
	}

	that.send(client, event, payload)
}

func (that *Hub) ToRoom(roomID, event string, payload any) {
	that.mu.RLock()
	members := that.members(roomID, "")
	that.mu.RUnlock()

	for _, client := range members {
		that.send(client, event, payload)
	}
}

func (that *Hub) ToRoomExcept(roomID, exceptConnID, event string, payload any) {
	that.mu.RLock()
	members := that.members(roomID, exceptConnID)
	that.mu.RUnlock()

	for _, client := range members {
		that.send(client, event, payload)
	}
}

// members - snapshot of a room's subscribers; callers hold the read lock.
func (that *Hub) members(roomID, exceptConnID string) []*Client {
	room, ok := that.rooms[roomID]
	if !ok {
		return nil
	}

	members := make([]*Client, 0, len(room))
	for connID, client := range room {
		if connID == exceptConnID {
			continue
		}
		members = append(members, client)
	}

	return members
}

func (that *Hub) send(client *Client, event string, payload any) {
	log := that.logger.With("method", "send")

	message := Message{Action: event}

	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			log.Error("failed to marshal payload", "event", event, "error", err)
			return
		}
		message.Payload = body
	}

	select {
	case client.egress <- message:
	default:
		log.Warn("egress buffer full, dropping event", "connID", client.id, "event", event)
	}
}
