package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizokt/fibbr-backend/internal"
	"github.com/denizokt/fibbr-backend/internal/game"
)

func TestRegistry(t *testing.T) {
	registry := game.NewRegistry([]game.RoomDefinition{
		{Code: "ALPHA", DisplayName: "Alpha Lounge"},
		{Code: "BETA", DisplayName: "Beta Lounge"},
	})

	t.Run("GetRoom", func(t *testing.T) {
		room, ok := registry.GetRoom("ALPHA")
		require.True(t, ok)
		assert.Equal(t, "ALPHA", room.Code)

		_, ok = registry.GetRoom("GAMMA")
		assert.False(t, ok)
	})

	t.Run("ListKeepsCatalogOrder", func(t *testing.T) {
		infos := registry.ListRooms()
		require.Len(t, infos, 2)
		assert.Equal(t, "ALPHA", infos[0].Code)
		assert.Equal(t, "BETA", infos[1].Code)
	})

	t.Run("JoinabilityTracksOccupancy", func(t *testing.T) {
		room, _ := registry.GetRoom("BETA")
		for _, name := range []string{"A", "B", "C", "D"} {
			_, err := game.AddPlayer(room, &internal.Player{Id: "id-" + name, Name: name})
			require.NoError(t, err)
		}

		infos := registry.ListRooms()
		assert.False(t, infos[1].IsJoinable)
		assert.Equal(t, 4, infos[1].PlayerCount)
		assert.True(t, infos[0].IsJoinable)
	})
}

func TestDefaultRoomsCatalog(t *testing.T) {
	registry := game.NewRegistry(game.DefaultRooms)
	infos := registry.ListRooms()
	require.NotEmpty(t, infos)
	for _, info := range infos {
		assert.NotEmpty(t, info.Code)
		assert.Equal(t, internal.MaxPlayersPerRoom, info.MaxPlayers)
		assert.True(t, info.IsJoinable)
	}
}
