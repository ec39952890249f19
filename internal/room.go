package internal

import (
	"sync"
	"time"
)

type Room struct {
	Code        string `json:"room_code"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`

	MaxPlayers int                `json:"max_players"`
	Players    map[string]*Player `json:"players"`

	// JoinOrder preserves insertion order for host succession, color
	// cycling and leaderboard tie-breaking.
	JoinOrder []string `json:"-"`

	Phase        GamePhase  `json:"phase"`
	CurrentRound int        `json:"current_round"`
	MaxRounds    int        `json:"max_rounds"`
	Rounds       []*Round   `json:"rounds"`
	Questions    []Question `json:"-"`

	CreatedAt          time.Time     `json:"created_at"`
	FinalTestStartTime time.Time     `json:"-"`
	FinalTestDuration  time.Duration `json:"-"`

	// ColorCursor advances every join so colors cycle through the
	// palette; it survives roster-keeping resets so colors stay stable.
	ColorCursor int `json:"-"`

	// Mu guards all mutable room state. Every state-machine operation
	// runs start to finish under it, which in particular makes the
	// fake-answer duplicate check and its write a single critical
	// section.
	Mu sync.RWMutex `json:"-"`
}

func NewRoom(code, displayName, description string) *Room {
	return &Room{
		Code:              code,
		DisplayName:       displayName,
		Description:       description,
		MaxPlayers:        MaxPlayersPerRoom,
		MaxRounds:         MaxRounds,
		Players:           make(map[string]*Player),
		JoinOrder:         make([]string, 0, MaxPlayersPerRoom),
		Rounds:            make([]*Round, 0),
		Phase:             PhaseWaiting,
		CreatedAt:         time.Now(),
		FinalTestDuration: FinalTestDuration,
	}
}

// Callers of the helpers below must hold Mu (read or write).

func (r *Room) PlayerCount() int {
	return len(r.Players)
}

func (r *Room) IsHost(playerID string) bool {
	p, ok := r.Players[playerID]
	return ok && p.IsHost
}

// OrderedPlayers returns the roster in join order.
func (r *Room) OrderedPlayers() []*Player {
	players := make([]*Player, 0, len(r.JoinOrder))
	for _, id := range r.JoinOrder {
		if p, ok := r.Players[id]; ok {
			players = append(players, p)
		}
	}
	return players
}

func (r *Room) CurrentRoundState() *Round {
	if r.CurrentRound < 0 || r.CurrentRound >= len(r.Rounds) {
		return nil
	}
	return r.Rounds[r.CurrentRound]
}

func (r *Room) Snapshot() RoomState {
	players := make([]PlayerSnapshot, 0, len(r.Players))
	for _, p := range r.OrderedPlayers() {
		players = append(players, p.Snapshot())
	}
	return RoomState{
		Code:         r.Code,
		DisplayName:  r.DisplayName,
		Phase:        r.Phase,
		CurrentRound: r.CurrentRound,
		MaxRounds:    r.MaxRounds,
		PlayerCount:  len(r.Players),
		MaxPlayers:   r.MaxPlayers,
		Players:      players,
	}
}

func (r *Room) Info() RoomInfo {
	return RoomInfo{
		Code:        r.Code,
		DisplayName: r.DisplayName,
		Description: r.Description,
		PlayerCount: len(r.Players),
		MaxPlayers:  r.MaxPlayers,
		Phase:       r.Phase,
		IsJoinable:  r.Phase == PhaseWaiting && len(r.Players) < r.MaxPlayers,
	}
}
