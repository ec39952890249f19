package game

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/denizokt/fibbr-backend/internal"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub is the session boundary: it owns the room registry and scheduler
// and translates websocket events into state-machine calls.
type Hub struct {
	Registry  *Registry
	Scheduler *Scheduler
	Questions QuestionSource
	Stats     StatsRecorder
	Accounts  AccountLinker
}

func NewHub(registry *Registry, scheduler *Scheduler, questions QuestionSource, stats StatsRecorder, accounts AccountLinker) *Hub {
	return &Hub{
		Registry:  registry,
		Scheduler: scheduler,
		Questions: questions,
		Stats:     stats,
		Accounts:  accounts,
	}
}

// HandleWebSocket upgrades the connection and runs its read loop. The
// player becomes part of the room only once a join_game event arrives;
// a returning client may instead pass ?player_id= to reattach to a
// handle that is still inside the disconnect grace window.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomCode := mux.Vars(r)["roomCode"]
	room, ok := h.Registry.GetRoom(roomCode)
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[HandleWebSocket] upgrade failed: %v", err)
		return
	}

	player := h.reattachOrCreate(room, conn, r.URL.Query().Get("player_id"))

	go h.readLoop(room, player)
}

// reattachOrCreate resumes a grace-period handle when player_id matches
// one, otherwise allocates a fresh unjoined player for this connection.
func (h *Hub) reattachOrCreate(room *internal.Room, conn *websocket.Conn, playerID string) *internal.Player {
	if playerID != "" {
		room.Mu.Lock()
		existing, ok := room.Players[playerID]
		if ok && !existing.IsConnected {
			existing.Conn = conn
			existing.IsConnected = true
			name := existing.Name
			room.Mu.Unlock()

			h.Scheduler.Cancel(room.Code, DisconnectTask(playerID))
			log.Printf("[reattachOrCreate] room=%s player=%s (%s) reconnected", room.Code, playerID, name)

			SafeBroadcastToRoom(room, internal.Message[any]{
				Type: "player_reconnected",
				Data: map[string]any{"player_id": playerID, "player_name": name},
			})
			return existing
		}
		room.Mu.Unlock()
	}

	return &internal.Player{
		Id:   uuid.NewString(),
		Conn: conn,
	}
}

func (h *Hub) readLoop(room *internal.Room, player *internal.Player) {
	defer func() {
		player.Conn.Close()
		h.handleDisconnect(room, player)
	}()

	for {
		_, raw, err := player.Conn.ReadMessage()
		if err != nil {
			log.Printf("[readLoop] room=%s player=%s read error: %v", room.Code, player.Id, err)
			return
		}

		var msg internal.Message[json.RawMessage]
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[readLoop] room=%s player=%s bad message: %v", room.Code, player.Id, err)
			continue
		}

		h.dispatch(room, player, msg)
	}
}

func (h *Hub) dispatch(room *internal.Room, player *internal.Player, msg internal.Message[json.RawMessage]) {
	switch msg.Type {
	case "join_game":
		var data struct {
			Name         string `json:"name"`
			AccountToken string `json:"account_token"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(player, "bad_payload", err.Error())
			return
		}
		h.handleJoin(room, player, data.Name, data.AccountToken)

	case "start_game":
		h.handleStartGame(room, player)

	case "submit_fake_answer":
		var data struct {
			Answer string `json:"answer"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(player, "bad_payload", err.Error())
			return
		}
		h.handleSubmitFake(room, player, data.Answer)

	case "submit_vote":
		var data struct {
			Answer string `json:"answer"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(player, "bad_payload", err.Error())
			return
		}
		h.handleSubmitVote(room, player, data.Answer)

	case "add_reaction":
		var data struct {
			Answer string `json:"answer"`
			Emoji  string `json:"emoji"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(player, "bad_payload", err.Error())
			return
		}
		h.handleReaction(room, player, data.Answer, data.Emoji)

	case "next_round":
		h.handleNextRound(room, player)

	case "submit_final_answer":
		var data struct {
			QuestionIndex int    `json:"question_index"`
			Answer        string `json:"answer"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(player, "bad_payload", err.Error())
			return
		}
		h.handleFinalAnswer(room, player, data.QuestionIndex, data.Answer)

	case "finish_game":
		h.handleFinishGame(room, player)

	default:
		log.Printf("[dispatch] room=%s player=%s unknown event %q", room.Code, player.Id, msg.Type)
	}
}
