package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sidworks/tictactoe-rooms/internal/apperror"
	"github.com/sidworks/tictactoe-rooms/internal/entity"
)

const roomKeyPrefix = "room:"

type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	Update(ctx context.Context, room *entity.Room) error
}

type dbRoom struct {
	client *redis.Client
}

func NewRoomRepository(client *redis.Client) RoomRepository {
	return &dbRoom{
		client: client,
	}
}

// Create - stores a new room record. SetNX makes the existence check and
// the write one atomic step, so two racing creators cannot both claim an id.
func (that *dbRoom) Create(ctx context.Context, room *entity.Room) error {
	room.Version = 1

	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	created, err := that.client.SetNX(ctx, roomKeyPrefix+room.RoomID, roomJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: %s", apperror.ErrRoomExists, room.RoomID)
	}

	return nil
}

func (that *dbRoom) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	response, err := that.client.Get(ctx, roomKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}

	var existingRoom entity.Room
	if err = json.Unmarshal([]byte(response), &existingRoom); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &existingRoom, nil
}

// Update - persists the full record under an optimistic version check.
// The write only lands if the stored version still matches the one the
// caller read; a concurrent writer surfaces as ErrStaleRoom instead of a
// silent lost update.
func (that *dbRoom) Update(ctx context.Context, room *entity.Room) error {
	roomKey := roomKeyPrefix + room.RoomID

	err := that.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, roomKey).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, room.RoomID)
		}
		if err != nil {
			return fmt.Errorf("failed to get room by id: %w", err)
		}

		var stored entity.Room
		if err = json.Unmarshal([]byte(current), &stored); err != nil {
			return fmt.Errorf("failed to unmarshal room: %w", err)
		}

		if stored.Version != room.Version {
			return fmt.Errorf("%w: %s", apperror.ErrStaleRoom, room.RoomID)
		}

		next := *room
		next.Version++

		roomJSON, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("could not marshal room: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, roomKey, roomJSON, 0)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to set room: %w", err)
		}

		room.Version = next.Version

		return nil
	}, roomKey)

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %s", apperror.ErrStaleRoom, room.RoomID)
	}

	return err
}
