package websocket

import "encoding/json"

// Message represents a WebSocket message with an action type and a payload.
// Inbound actions are intents; outbound actions are event names.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type createRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name" validate:"required"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

type makeMovePayload struct {
	RoomID        string `json:"roomId" validate:"required"`
	Index         *int   `json:"index" validate:"required,min=0,max=8"`
	CurrentPlayer string `json:"currentPlayer" validate:"required"`
}

type rematchPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

type leavePayload struct {
	RoomID string `json:"roomId" validate:"required"`
	Name   string `json:"name" validate:"required"`
}
