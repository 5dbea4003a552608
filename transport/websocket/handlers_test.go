package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type managerCall struct {
	op     string
	roomID string
	name   string
	cell   int
}

// stubManager records intents instead of touching any store.
type stubManager struct {
	calls []managerCall
}

func (that *stubManager) CreateRoom(_ context.Context, _, roomID, name string) error {
	that.calls = append(that.calls, managerCall{op: "createRoom", roomID: roomID, name: name})
	return nil
}

func (that *stubManager) JoinRoom(_ context.Context, _, roomID, name string) error {
	that.calls = append(that.calls, managerCall{op: "joinRoom", roomID: roomID, name: name})
	return nil
}

func (that *stubManager) MakeMove(_ context.Context, _, roomID, name string, cell int) error {
	that.calls = append(that.calls, managerCall{op: "makeMove", roomID: roomID, name: name, cell: cell})
	return nil
}

func (that *stubManager) RequestRematch(_, roomID string) {
	that.calls = append(that.calls, managerCall{op: "handleRematch", roomID: roomID})
}

func (that *stubManager) AcceptRematch(_ context.Context, _, roomID, name string) error {
	that.calls = append(that.calls, managerCall{op: "acceptRematch", roomID: roomID, name: name})
	return nil
}

func (that *stubManager) Leave(_, roomID, name string) {
	that.calls = append(that.calls, managerCall{op: "userDisconnected", roomID: roomID, name: name})
}

func newTestServer() (*Server, *stubManager, *Client) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(logger)
	manager := &stubManager{}
	server := New(logger, manager, hub, "*")

	client := newClient(nil)
	hub.Register(client)

	return server, manager, client
}

func TestServer_HandleMakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid payload reaches the coordinator", func(t *testing.T) {
		// Given: a connected client
		server, manager, client := newTestServer()

		// When: a well-formed move arrives
		payload := json.RawMessage(`{"roomId":"ABC123","index":4,"currentPlayer":"Alice"}`)
		err := server.handleMakeMove(ctx, client, payload)

		// Then: the intent is forwarded as-is
		require.NoError(t, err)
		require.Len(t, manager.calls, 1)
		assert.Equal(t, managerCall{op: "makeMove", roomID: "ABC123", name: "Alice", cell: 4}, manager.calls[0])
	})

	t.Run("Index zero is a valid cell", func(t *testing.T) {
		// Given: a connected client
		server, manager, client := newTestServer()

		// When: a move targets the first cell
		payload := json.RawMessage(`{"roomId":"ABC123","index":0,"currentPlayer":"Alice"}`)
		err := server.handleMakeMove(ctx, client, payload)

		// Then: the intent is not mistaken for a missing field
		require.NoError(t, err)
		require.Len(t, manager.calls, 1)
		assert.Equal(t, 0, manager.calls[0].cell)
	})

	t.Run("Out-of-range index is rejected before the coordinator", func(t *testing.T) {
		// Given: a connected client
		server, manager, client := newTestServer()

		// When: the index is outside the board
		payload := json.RawMessage(`{"roomId":"ABC123","index":9,"currentPlayer":"Alice"}`)
		err := server.handleMakeMove(ctx, client, payload)

		// Then: the requester hears invalidMove and nothing is forwarded
		require.NoError(t, err)
		assert.Empty(t, manager.calls)

		messages := drain(client)
		require.Len(t, messages, 1)
		assert.Equal(t, "invalidMove", messages[0].Action)
	})

	t.Run("Missing index is rejected", func(t *testing.T) {
		// Given: a connected client
		server, manager, client := newTestServer()

		// When: the payload has no index at all
		payload := json.RawMessage(`{"roomId":"ABC123","currentPlayer":"Alice"}`)
		err := server.handleMakeMove(ctx, client, payload)

		// Then: the move is rejected, not crashed on
		require.NoError(t, err)
		assert.Empty(t, manager.calls)

		messages := drain(client)
		require.Len(t, messages, 1)
		assert.Equal(t, "invalidMove", messages[0].Action)
	})
}

func TestServer_HandleCreateRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing room id gets a generated code", func(t *testing.T) {
		// Given: a connected client
		server, manager, client := newTestServer()

		// When: the creator supplies only a name
		payload := json.RawMessage(`{"name":"Alice"}`)
		err := server.handleCreateRoom(ctx, client, payload)

		// Then: the coordinator receives a non-empty server-picked id
		require.NoError(t, err)
		require.Len(t, manager.calls, 1)
		assert.NotEmpty(t, manager.calls[0].roomID)
		assert.Equal(t, "Alice", manager.calls[0].name)
	})

	t.Run("Missing name is rejected", func(t *testing.T) {
		// Given: a connected client
		server, manager, client := newTestServer()

		// When: the payload has no name
		payload := json.RawMessage(`{"roomId":"ABC123"}`)
		err := server.handleCreateRoom(ctx, client, payload)

		// Then: an error event goes back, nothing is forwarded
		require.NoError(t, err)
		assert.Empty(t, manager.calls)

		messages := drain(client)
		require.Len(t, messages, 1)
		assert.Equal(t, "error", messages[0].Action)
	})
}

func TestServer_HandleRematchRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Bare string room id is accepted", func(t *testing.T) {
		// Given: a connected client
		server, manager, client := newTestServer()

		// When: the client sends the room id as a raw string
		err := server.handleRematchRequest(ctx, client, json.RawMessage(`"ABC123"`))

		// Then: the relay fires
		require.NoError(t, err)
		require.Len(t, manager.calls, 1)
		assert.Equal(t, "ABC123", manager.calls[0].roomID)
	})

	t.Run("Object payload is accepted too", func(t *testing.T) {
		// Given: a connected client
		server, manager, client := newTestServer()

		// When: the client wraps the id in an object
		err := server.handleRematchRequest(ctx, client, json.RawMessage(`{"roomId":"ABC123","name":"Bob"}`))

		// Then: the relay fires with the same room
		require.NoError(t, err)
		require.Len(t, manager.calls, 1)
		assert.Equal(t, "ABC123", manager.calls[0].roomID)
	})
}

func TestServer_HandleUserDisconnected(t *testing.T) {
	// Given: a connected client
	server, manager, client := newTestServer()

	// When: a voluntary leave arrives
	payload := json.RawMessage(`{"roomId":"ABC123","name":"Bob"}`)
	err := server.handleUserDisconnected(context.Background(), client, payload)

	// Then: the leave intent carries the leaver's name
	require.NoError(t, err)
	require.Len(t, manager.calls, 1)
	assert.Equal(t, managerCall{op: "userDisconnected", roomID: "ABC123", name: "Bob"}, manager.calls[0])
}
