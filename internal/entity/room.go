package entity

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/sidworks/tictactoe-rooms/internal/apperror"
)

const (
	MarkX = "X"
	MarkO = "O"

	EmptyCell = ""

	// MaxUsers - a room holds at most two players; a third joiner is rejected.
	MaxUsers = 2
)

var (
	ErrInvalidCell = errors.New("invalid cell index")

	// WinCombos - the 8 canonical winning triples: 3 rows, 3 columns, 2 diagonals.
	WinCombos = [][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// Room is the authoritative state of one game session. Users keep their
// join order: Users[0] always plays X, Users[1] always plays O, and the
// Score entries are aligned with that order across rematches.
type Room struct {
	RoomID        string    `json:"roomId"`
	Users         []string  `json:"users"`
	Board         [9]string `json:"board"`
	CurrentPlayer string    `json:"currentPlayer"`
	GameOver      bool      `json:"gameOver"`
	Winner        string    `json:"winner,omitempty"`
	Score         [2]int    `json:"score"`
	Version       int64     `json:"version"`
}

func NewRoom(id, name string) *Room {
	return &Room{
		RoomID:        id,
		Users:         []string{name},
		Board:         [9]string{},
		CurrentPlayer: name,
		Score:         [2]int{0, 0},
	}
}

func (that *Room) HasUser(name string) bool {
	return lo.Contains(that.Users, name)
}

func (that *Room) IsFull() bool {
	return len(that.Users) >= MaxUsers
}

// AddUser - appends a second player; the joiner always becomes Users[1] and plays O.
func (that *Room) AddUser(name string) error {
	if that.IsFull() {
		return fmt.Errorf("%w: %d players", apperror.ErrRoomFull, len(that.Users))
	}

	that.Users = append(that.Users, name)

	return nil
}

// MarkOf - returns the positional mark of a user; it is never renegotiated.
func (that *Room) MarkOf(name string) string {
	if name == that.Users[0] {
		return MarkX
	}
	return MarkO
}

// Opponent - returns the other user in the room.
func (that *Room) Opponent(name string) string {
	if name == that.Users[0] && len(that.Users) == MaxUsers {
		return that.Users[1]
	}
	return that.Users[0]
}

// ValidateMove - checks a move against the full set of rules before any
// state is touched. Turn ownership is re-checked server-side, the mover's
// claim in the payload is never trusted.
func (that *Room) ValidateMove(name string, cell int) error {
	if that.GameOver {
		return apperror.ErrGameFinished
	}

	if !that.IsFull() {
		return apperror.ErrGameNotStarted
	}

	if cell < 0 || cell >= len(that.Board) {
		return fmt.Errorf("%w: cell %d", ErrInvalidCell, cell)
	}

	if that.CurrentPlayer != name {
		return apperror.ErrNotYourTurn
	}

	if that.Board[cell] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// ApplyMove - places the mover's mark and flips the turn to the opponent.
func (that *Room) ApplyMove(name string, cell int) error {
	if err := that.ValidateMove(name, cell); err != nil {
		return err
	}

	that.Board[cell] = that.MarkOf(name)
	that.CurrentPlayer = that.Opponent(name)

	return nil
}

// WinningMark - scans the triples in fixed order and returns the mark
// occupying a full line, or the empty string when there is none. At most
// one mark can complete a line in a legal game.
func (that *Room) WinningMark() string {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

// IsDraw - true only when the board is full and no line is complete.
// A full board with a winning line is a win, not a draw.
func (that *Room) IsDraw() bool {
	for _, cell := range that.Board {
		if cell == EmptyCell {
			return false
		}
	}

	return that.WinningMark() == EmptyCell
}

// RecordWin - credits the win to the owner of the mark and closes the game.
func (that *Room) RecordWin(mark string) {
	idx := 0
	if mark == MarkO {
		idx = 1
	}

	that.Winner = that.Users[idx]
	that.Score[idx]++
	that.GameOver = true
}

func (that *Room) RecordDraw() {
	that.Winner = ""
	that.GameOver = true
}

// ResetForRematch - clears the board for a new game in the same room.
// The score survives; the user other than the accepter moves first.
func (that *Room) ResetForRematch(accepter string) {
	that.Board = [9]string{}
	that.Winner = ""
	that.CurrentPlayer = that.Opponent(accepter)
	that.GameOver = false
}
