package usecase

// Outbound event names. The client listens for these verbatim, so they
// are part of the wire contract and never renamed.
const (
	EventRoomCreated          = "roomCreated"
	EventRoomExists           = "roomExists"
	EventRoomFull             = "roomFull"
	EventInvalidRoom          = "invalidRoom"
	EventInvalidMove          = "invalidMove"
	EventRoomJoined           = "roomJoined"
	EventUserJoined           = "userJoined"
	EventGameStateUpdated     = "gameStateUpdated"
	EventGameWon              = "gameWon"
	EventGameDraw             = "gameDraw"
	EventRequestRematch       = "requestRematch"
	EventOpponentDisconnected = "opponentDisconnected"
	EventError                = "error"
)
