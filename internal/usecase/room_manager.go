package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sidworks/tictactoe-rooms/internal/apperror"
	"github.com/sidworks/tictactoe-rooms/internal/entity"
	"github.com/sidworks/tictactoe-rooms/pkg/metrics"
)

type roomRepo interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	Update(ctx context.Context, room *entity.Room) error
}

// broadcaster is the transport contract the coordinator publishes through.
// Delivery failures on dropped connections are the transport's problem;
// within one room, events go out in the order they are issued here.
type broadcaster interface {
	Join(roomID, connID string)
	Leave(roomID, connID string)
	ToConn(connID, event string, payload any)
	ToRoom(roomID, event string, payload any)
	ToRoomExcept(roomID, exceptConnID, event string, payload any)
}

// RoomManager is the authoritative state machine per room. Every mutating
// intent for a room runs on that room's single worker goroutine, so the
// read-validate-mutate-save sequence is never interleaved with another
// writer of the same room. Two players clicking at once cannot both pass
// validation against a stale read.
type RoomManager struct {
	logger *slog.Logger
	rooms  roomRepo
	bus    broadcaster

	mu      sync.Mutex
	workers map[string]chan func()
}

func NewRoomManager(logger *slog.Logger, rooms roomRepo, bus broadcaster) *RoomManager {
	return &RoomManager{
		logger:  logger,
		rooms:   rooms,
		bus:     bus,
		workers: make(map[string]chan func()),
	}
}

const workerQueueSize = 16

// serialize - runs task on the room's worker goroutine and waits for it.
// Workers are keyed by room id only; intents for different rooms never
// block each other.
func (that *RoomManager) serialize(roomID string, task func()) {
	that.mu.Lock()
	tasks, ok := that.workers[roomID]
	if !ok {
		tasks = make(chan func(), workerQueueSize)
		that.workers[roomID] = tasks
		go func() {
			for t := range tasks {
				t()
			}
		}()
	}
	that.mu.Unlock()

	done := make(chan struct{})
	tasks <- func() {
		defer close(done)
		task()
	}
	<-done
}

// CreateRoom - creates a room with the requester as the first player and
// subscribes them to the room's broadcast group.
func (that *RoomManager) CreateRoom(ctx context.Context, connID, roomID, name string) error {
	metrics.IntentsProcessed.WithLabelValues("createRoom").Inc()

	var err error
	that.serialize(roomID, func() {
		err = that.createRoom(ctx, connID, roomID, name)
	})

	return err
}

func (that *RoomManager) createRoom(ctx context.Context, connID, roomID, name string) error {
	log := that.logger.With("method", "CreateRoom", "roomID", roomID)

	room := entity.NewRoom(roomID, name)

	err := that.rooms.Create(ctx, room)
	if errors.Is(err, apperror.ErrRoomExists) {
		that.bus.ToConn(connID, EventRoomExists, roomID)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	that.bus.Join(roomID, connID)
	that.bus.ToConn(connID, EventRoomCreated, room)

	log.Info("room created", "name", name)

	return nil
}

// JoinRoom - adds the requester as the second player, or re-subscribes a
// known name after a disconnect without mutating any state.
func (that *RoomManager) JoinRoom(ctx context.Context, connID, roomID, name string) error {
	metrics.IntentsProcessed.WithLabelValues("joinRoom").Inc()

	var err error
	that.serialize(roomID, func() {
		err = that.joinRoom(ctx, connID, roomID, name)
	})

	return err
}

func (that *RoomManager) joinRoom(ctx context.Context, connID, roomID, name string) error {
	log := that.logger.With("method", "JoinRoom", "roomID", roomID)

	room, err := that.rooms.GetByID(ctx, roomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		that.bus.ToConn(connID, EventInvalidRoom, roomID)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	// Reconnect: the name is already seated, so only the transport
	// subscription is restored and the full state re-broadcast.
	if room.HasUser(name) {
		that.bus.Join(roomID, connID)
		that.bus.ToRoom(roomID, EventGameStateUpdated, room)

		log.Info("player rejoined", "name", name)

		return nil
	}

	if room.IsFull() {
		that.bus.ToConn(connID, EventRoomFull, roomID)
		return nil
	}

	if err = room.AddUser(name); err != nil {
		return fmt.Errorf("failed to add user: %w", err)
	}

	if err = that.rooms.Update(ctx, room); err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	that.bus.Join(roomID, connID)
	that.bus.ToConn(connID, EventRoomJoined, room)
	that.bus.ToRoomExcept(roomID, connID, EventUserJoined, name)

	log.Info("player joined", "name", name)

	return nil
}

// MakeMove - validates and applies a move, then settles the terminal
// conditions. State is broadcast only after the store confirmed the write,
// so a persistence failure never diverges clients from the durable record.
func (that *RoomManager) MakeMove(ctx context.Context, connID, roomID, name string, cell int) error {
	metrics.IntentsProcessed.WithLabelValues("makeMove").Inc()

	var err error
	that.serialize(roomID, func() {
		err = that.makeMove(ctx, connID, roomID, name, cell)
	})

	return err
}

func (that *RoomManager) makeMove(ctx context.Context, connID, roomID, name string, cell int) error {
	log := that.logger.With("method", "MakeMove", "roomID", roomID)

	room, err := that.rooms.GetByID(ctx, roomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		that.bus.ToConn(connID, EventInvalidRoom, roomID)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	// Moves after the game ended are dropped without a rejection; the
	// client already saw the terminal event.
	if room.GameOver {
		return nil
	}

	if err = room.ApplyMove(name, cell); err != nil {
		log.Info("rejected move", "name", name, "cell", cell, "reason", err)
		that.bus.ToConn(connID, EventInvalidMove, nil)
		return nil
	}

	if err = that.rooms.Update(ctx, room); err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	that.bus.ToRoom(roomID, EventGameStateUpdated, room)

	// Terminal conditions are checked win-first: a full board with a
	// complete line is a win, not a draw.
	if mark := room.WinningMark(); mark != entity.EmptyCell {
		room.RecordWin(mark)

		if err = that.rooms.Update(ctx, room); err != nil {
			return fmt.Errorf("failed to update room: %w", err)
		}

		that.bus.ToRoom(roomID, EventGameWon, room)

		log.Info("game won", "winner", room.Winner)

		return nil
	}

	if room.IsDraw() {
		room.RecordDraw()

		if err = that.rooms.Update(ctx, room); err != nil {
			return fmt.Errorf("failed to update room: %w", err)
		}

		that.bus.ToRoom(roomID, EventGameDraw, nil)

		log.Info("game drawn")
	}

	return nil
}

// RequestRematch - stateless relay to the other party; nothing persists.
func (that *RoomManager) RequestRematch(connID, roomID string) {
	metrics.IntentsProcessed.WithLabelValues("handleRematch").Inc()

	that.bus.ToRoomExcept(roomID, connID, EventRequestRematch, nil)
}

// AcceptRematch - resets the board for a new game in the same room. The
// score survives and the non-accepter moves first.
func (that *RoomManager) AcceptRematch(ctx context.Context, connID, roomID, name string) error {
	metrics.IntentsProcessed.WithLabelValues("acceptRematch").Inc()

	var err error
	that.serialize(roomID, func() {
		err = that.acceptRematch(ctx, connID, roomID, name)
	})

	return err
}

func (that *RoomManager) acceptRematch(ctx context.Context, connID, roomID, name string) error {
	log := that.logger.With("method", "AcceptRematch", "roomID", roomID)

	room, err := that.rooms.GetByID(ctx, roomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		that.bus.ToConn(connID, EventInvalidRoom, roomID)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	room.ResetForRematch(name)

	if err = that.rooms.Update(ctx, room); err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	that.bus.ToRoom(roomID, EventGameStateUpdated, room)

	log.Info("rematch accepted", "name", name)

	return nil
}

// Leave - drops the requester's transport subscription and tells the other
// party. Room state and score are untouched; leaving is not a forfeit.
func (that *RoomManager) Leave(connID, roomID, name string) {
	metrics.IntentsProcessed.WithLabelValues("userDisconnected").Inc()

	that.bus.Leave(roomID, connID)
	that.bus.ToRoomExcept(roomID, connID, EventOpponentDisconnected, name)

	that.logger.Info("player left room", "method", "Leave", "roomID", roomID, "name", name)
}
