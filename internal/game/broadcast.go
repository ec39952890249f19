package game

import (
	"log"

	"github.com/denizokt/fibbr-backend/internal"
)

// SafeBroadcastToRoom sends a message to every connected player.
// The roster is snapshotted under the lock, then writes happen without
// it so a slow socket never blocks the state machine.
func SafeBroadcastToRoom[T any](room *internal.Room, msg internal.Message[T]) {
	room.Mu.RLock()
	players := make([]*internal.Player, 0, len(room.Players))
	for _, player := range room.Players {
		if player.IsConnected {
			players = append(players, player)
		}
	}
	room.Mu.RUnlock()

	for _, player := range players {
		if err := player.SafeWriteJSON(msg); err != nil {
			log.Printf("[Broadcast] room=%s failed for player %s (%s): %v",
				room.Code, player.Id, player.Name, err)
		}
	}
}

// SafeBroadcastToRoomExcept is SafeBroadcastToRoom minus one player,
// for events the actor already received a direct reply to.
func SafeBroadcastToRoomExcept[T any](room *internal.Room, msg internal.Message[T], excludeID string) {
	room.Mu.RLock()
	players := make([]*internal.Player, 0, len(room.Players))
	for _, player := range room.Players {
		if player.IsConnected && player.Id != excludeID {
			players = append(players, player)
		}
	}
	room.Mu.RUnlock()

	for _, player := range players {
		if err := player.SafeWriteJSON(msg); err != nil {
			log.Printf("[BroadcastExcept] room=%s failed for player %s (%s): %v",
				room.Code, player.Id, player.Name, err)
		}
	}
}
