package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sidworks/tictactoe-rooms/internal/pkg"
	"github.com/sidworks/tictactoe-rooms/internal/usecase"
)

func (that *Server) handleCreateRoom(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req createRoomPayload
	if err := that.decode(payload, &req); err != nil {
		that.hub.send(client, usecase.EventError, err.Error())
		return nil
	}

	// A missing room id means the server picks the shareable code.
	if req.RoomID == "" {
		req.RoomID = pkg.GenerateRoomID()
	}

	client.rememberName(req.RoomID, req.Name)

	if err := that.manager.CreateRoom(ctx, client.id, req.RoomID, req.Name); err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

func (that *Server) handleJoinRoom(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req joinRoomPayload
	if err := that.decode(payload, &req); err != nil {
		that.hub.send(client, usecase.EventError, err.Error())
		return nil
	}

	client.rememberName(req.RoomID, req.Name)

	if err := that.manager.JoinRoom(ctx, client.id, req.RoomID, req.Name); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req makeMovePayload
	if err := that.decode(payload, &req); err != nil {
		// A malformed or out-of-range move is a rejection, not a fault.
		that.hub.send(client, usecase.EventInvalidMove, nil)
		return nil
	}

	if err := that.manager.MakeMove(ctx, client.id, req.RoomID, req.CurrentPlayer, *req.Index); err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	return nil
}

// handleRematchRequest - the client sends either a bare room id string or
// an object; both shapes are accepted.
func (that *Server) handleRematchRequest(_ context.Context, client *Client, payload json.RawMessage) error {
	var roomID string
	if err := json.Unmarshal(payload, &roomID); err != nil {
		var req rematchPayload
		if err = json.Unmarshal(payload, &req); err != nil {
			that.hub.send(client, usecase.EventError, "malformed rematch request")
			return nil
		}
		roomID = req.RoomID
	}

	if roomID == "" {
		that.hub.send(client, usecase.EventError, "roomId is required")
		return nil
	}

	that.manager.RequestRematch(client.id, roomID)

	return nil
}

func (that *Server) handleAcceptRematch(ctx context.Context, client *Client, payload json.RawMessage) error {
	var req rematchPayload
	if err := that.decode(payload, &req); err != nil {
		that.hub.send(client, usecase.EventError, err.Error())
		return nil
	}

	if err := that.manager.AcceptRematch(ctx, client.id, req.RoomID, req.Name); err != nil {
		return fmt.Errorf("failed to accept rematch: %w", err)
	}

	return nil
}

func (that *Server) handleUserDisconnected(_ context.Context, client *Client, payload json.RawMessage) error {
	var req leavePayload
	if err := that.decode(payload, &req); err != nil {
		that.hub.send(client, usecase.EventError, err.Error())
		return nil
	}

	that.manager.Leave(client.id, req.RoomID, req.Name)

	return nil
}

// decode - unmarshals and validates an intent payload. Validation errors
// are reported back to the requester, never escalated.
func (that *Server) decode(payload json.RawMessage, target any) error {
	if len(payload) == 0 {
		return errors.New("payload is required")
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return errors.New("malformed payload")
	}

	if err := that.validate.Struct(target); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	return nil
}
