package apperror

import "errors"

var (
	ErrRoomExists     = errors.New("room already exists")
	ErrRoomFull       = errors.New("room already has two players")
	ErrRoomNotFound   = errors.New("room not found")
	ErrGameNotStarted = errors.New("game is not started")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrGameFinished   = errors.New("game is already finished")
	ErrStaleRoom      = errors.New("room was modified concurrently")
)
