package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const egressBufferSize = 16

// Client is one connected party. The egress channel decouples broadcast
// fan-out from the socket write; only the write pump touches the conn.
type Client struct {
	id     string
	conn   *websocket.Conn
	egress chan Message

	mu    sync.Mutex
	names map[string]string // roomID -> display name last used by this connection
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		egress: make(chan Message, egressBufferSize),
		names:  make(map[string]string),
	}
}

func (that *Client) ID() string {
	return that.id
}

// rememberName - records which display name this connection used for a
// room, so an involuntary drop can still notify the opponent by name.
func (that *Client) rememberName(roomID, name string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.names[roomID] = name
}

func (that *Client) nameIn(roomID string) string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.names[roomID]
}
