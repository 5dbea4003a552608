package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidworks/tictactoe-rooms/internal/apperror"
	"github.com/sidworks/tictactoe-rooms/internal/entity"
	"github.com/sidworks/tictactoe-rooms/testing/suite"
)

func TestRoomRepository_Create(t *testing.T) {
	t.Run("Create_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage)

		// Given: a fresh room
		room := entity.NewRoom("ABC123", "Alice")

		// When: Create is called
		err := roomRepo.Create(ctx, room)

		// Then: no error should be returned and the record is readable
		require.NoError(t, err)

		retrieved, err := roomRepo.GetByID(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice"}, retrieved.Users)
		assert.Equal(t, "Alice", retrieved.CurrentPlayer)
	})

	t.Run("Create_Duplicate", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage)

		// Given: a room id that is already taken
		require.NoError(t, roomRepo.Create(ctx, entity.NewRoom("ABC123", "Alice")))

		// When: Create is called again with the same id
		err := roomRepo.Create(ctx, entity.NewRoom("ABC123", "Carol"))

		// Then: an ErrRoomExists error should be returned and the record untouched
		require.ErrorIs(t, err, apperror.ErrRoomExists)

		retrieved, err := roomRepo.GetByID(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice"}, retrieved.Users)
	})
}

func TestRoomRepository_GetByID(t *testing.T) {
	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage)

		// When: GetByID is called with a non-existent id
		retrieved, err := roomRepo.GetByID(ctx, "NOPE")

		// Then: an ErrRoomNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Nil(t, retrieved)
	})
}

func TestRoomRepository_Update(t *testing.T) {
	t.Run("Update_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage)

		// Given: a stored room
		room := entity.NewRoom("ABC123", "Alice")
		require.NoError(t, roomRepo.Create(ctx, room))

		// When: the room is mutated and updated
		require.NoError(t, room.AddUser("Bob"))
		err := roomRepo.Update(ctx, room)

		// Then: the write lands and the version moved forward
		require.NoError(t, err)

		retrieved, err := roomRepo.GetByID(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Bob"}, retrieved.Users)
		assert.Equal(t, int64(2), retrieved.Version)
	})

	t.Run("Update_StaleVersion", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage)

		// Given: two writers holding the same snapshot
		require.NoError(t, roomRepo.Create(ctx, entity.NewRoom("ABC123", "Alice")))

		first, err := roomRepo.GetByID(ctx, "ABC123")
		require.NoError(t, err)
		second, err := roomRepo.GetByID(ctx, "ABC123")
		require.NoError(t, err)

		// When: the first writer lands and the second tries afterwards
		require.NoError(t, first.AddUser("Bob"))
		require.NoError(t, roomRepo.Update(ctx, first))

		require.NoError(t, second.AddUser("Carol"))
		err = roomRepo.Update(ctx, second)

		// Then: the stale writer is rejected instead of overwriting
		require.ErrorIs(t, err, apperror.ErrStaleRoom)

		retrieved, err := roomRepo.GetByID(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Bob"}, retrieved.Users)
	})

	t.Run("Update_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		roomRepo := NewRoomRepository(st.Storage)

		// Given: a room that was never created
		room := entity.NewRoom("NOPE", "Alice")
		room.Version = 1

		// When: Update is called
		err := roomRepo.Update(ctx, room)

		// Then: an ErrRoomNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}
