package game

import (
	"sync"

	"github.com/denizokt/fibbr-backend/internal"
)

// RoomDefinition describes one entry of the static room catalog.
type RoomDefinition struct {
	Code        string
	DisplayName string
	Description string
}

// DefaultRooms is the fixed catalog the server boots with. Rooms are
// never created or destroyed at runtime, only reset in place.
var DefaultRooms = []RoomDefinition{
	{Code: "OZBILIG", DisplayName: "Özbilig", Description: "Klasik oda"},
	{Code: "KELEBEK", DisplayName: "Kelebek", Description: "Hızlı parmaklara"},
	{Code: "MARTI", DisplayName: "Martı", Description: "Yeni başlayanlara"},
	{Code: "YUNUS", DisplayName: "Yunus", Description: "Arkadaş odası"},
}

// Registry holds the fixed set of rooms and routes connections to them.
// It is constructed once and injected wherever rooms are needed, so
// tests can build isolated instances.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*internal.Room
	order []string
}

func NewRegistry(defs []RoomDefinition) *Registry {
	r := &Registry{
		rooms: make(map[string]*internal.Room, len(defs)),
		order: make([]string, 0, len(defs)),
	}
	for _, def := range defs {
		r.rooms[def.Code] = internal.NewRoom(def.Code, def.DisplayName, def.Description)
		r.order = append(r.order, def.Code)
	}
	return r
}

func (r *Registry) GetRoom(code string) (*internal.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[code]
	return room, ok
}

// ListRooms returns catalog-order listing entries for lobby browsers.
func (r *Registry) ListRooms() []internal.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]internal.RoomInfo, 0, len(r.order))
	for _, code := range r.order {
		room := r.rooms[code]
		room.Mu.RLock()
		infos = append(infos, room.Info())
		room.Mu.RUnlock()
	}
	return infos
}
