package internal

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Player struct {
	Id   string          `json:"id"`
	Conn *websocket.Conn `json:"-"`
	Room *Room           `json:"-"` // Avoid circular reference in JSON

	Name        string    `json:"name"`
	Score       int       `json:"score"`
	IsHost      bool      `json:"is_host"`
	Color       string    `json:"color"`
	IsConnected bool      `json:"is_connected"`
	JoinedAt    time.Time `json:"joined_at"`

	// Optional external-account reference, used only to attribute
	// post-game statistics.
	AccountID string `json:"-"`

	// Per-round transient state
	SubmittedAnswer string    `json:"-"`
	HasSubmitted    bool      `json:"-"`
	SubmitTime      time.Time `json:"-"`
	VotedAnswer     string    `json:"-"`
	HasVoted        bool      `json:"-"`
	VoteTime        time.Time `json:"-"`

	// Final-test answers keyed by question index, stored raw.
	FinalAnswers map[int]string `json:"-"`

	writeMu sync.Mutex
}

type PlayerSnapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	IsHost      bool   `json:"is_host"`
	Color       string `json:"color"`
	IsConnected bool   `json:"is_connected"`
}

func (p *Player) ResetRoundState() {
	p.SubmittedAnswer = ""
	p.HasSubmitted = false
	p.SubmitTime = time.Time{}
	p.VotedAnswer = ""
	p.HasVoted = false
	p.VoteTime = time.Time{}
}

func (p *Player) Snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:          p.Id,
		Name:        p.Name,
		Score:       p.Score,
		IsHost:      p.IsHost,
		Color:       p.Color,
		IsConnected: p.IsConnected,
	}
}

// SafeWriteJSON serializes writes to the player's connection so the
// hub and timer goroutines never interleave frames.
func (p *Player) SafeWriteJSON(v any) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.Conn == nil {
		return websocket.ErrCloseSent
	}
	return p.Conn.WriteJSON(v)
}
