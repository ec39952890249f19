package game_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizokt/fibbr-backend/internal"
	"github.com/denizokt/fibbr-backend/internal/game"
)

type staticQuestions []internal.Question

func (s staticQuestions) FetchActiveQuestions(ctx context.Context) ([]internal.Question, error) {
	return s, nil
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialClient(t *testing.T, serverURL, roomCode string) *wsClient {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws/" + roomCode
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(eventType string, data any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(internal.Message[any]{Type: eventType, Data: data}))
}

// awaitEvent reads frames until one of the wanted type arrives.
func (c *wsClient) awaitEvent(eventType string) json.RawMessage {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(c.t, c.conn.SetReadDeadline(deadline))
	for {
		var msg internal.Message[json.RawMessage]
		require.NoError(c.t, c.conn.ReadJSON(&msg), "waiting for %q", eventType)
		if msg.Type == eventType {
			return msg.Data
		}
	}
}

func TestJoinWithEmptyNameDefaults(t *testing.T) {
	registry := game.NewRegistry([]game.RoomDefinition{{Code: "LOBBY", DisplayName: "Lobby"}})
	hub := game.NewHub(registry, game.NewScheduler(), staticQuestions(nil), nil, nil)

	router := mux.NewRouter()
	router.HandleFunc("/ws/{roomCode}", hub.HandleWebSocket)
	srv := httptest.NewServer(router)
	defer srv.Close()

	first := dialClient(t, srv.URL, "LOBBY")
	first.send("join_game", map[string]any{"name": "   "})
	var joined struct {
		Player internal.PlayerSnapshot `json:"player"`
	}
	require.NoError(t, json.Unmarshal(first.awaitEvent("joined_room"), &joined))
	assert.Equal(t, "Anonymous", joined.Player.Name)

	// A second nameless client conflicts with the first fallback and
	// gets a suggestion instead of a blank collision.
	second := dialClient(t, srv.URL, "LOBBY")
	second.send("join_game", map[string]any{"name": ""})
	var taken struct {
		SuggestedName string `json:"suggested_name"`
	}
	require.NoError(t, json.Unmarshal(second.awaitEvent("name_taken"), &taken))
	assert.Equal(t, "Anonymous2", taken.SuggestedName)
}

func TestWebSocketGameFlow(t *testing.T) {
	pool := []internal.Question{{
		ID:            1,
		Text:          "Which planet is known as the red planet?",
		CorrectAnswer: "mars",
		IsActive:      true,
	}}

	registry := game.NewRegistry([]game.RoomDefinition{{Code: "FLOW", DisplayName: "Flow"}})
	hub := game.NewHub(registry, game.NewScheduler(), staticQuestions(pool), nil, nil)

	router := mux.NewRouter()
	router.HandleFunc("/ws/{roomCode}", hub.HandleWebSocket)
	srv := httptest.NewServer(router)
	defer srv.Close()

	host := dialClient(t, srv.URL, "FLOW")
	host.send("join_game", map[string]any{"name": "Ayşe"})
	var joined struct {
		Player internal.PlayerSnapshot `json:"player"`
	}
	require.NoError(t, json.Unmarshal(host.awaitEvent("joined_room"), &joined))
	assert.True(t, joined.Player.IsHost)

	guest := dialClient(t, srv.URL, "FLOW")
	guest.send("join_game", map[string]any{"name": "Mehmet"})
	guest.awaitEvent("joined_room")
	host.awaitEvent("player_joined")

	t.Run("DuplicateNameGetsSuggestion", func(t *testing.T) {
		dupe := dialClient(t, srv.URL, "FLOW")
		dupe.send("join_game", map[string]any{"name": "ayşe"})
		var taken struct {
			SuggestedName string `json:"suggested_name"`
		}
		require.NoError(t, json.Unmarshal(dupe.awaitEvent("name_taken"), &taken))
		assert.Equal(t, "ayşe3", taken.SuggestedName)
	})

	t.Run("GuestCannotStart", func(t *testing.T) {
		guest.send("start_game", nil)
		var errData struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(guest.awaitEvent("error"), &errData))
		assert.Equal(t, "not_authorized", errData.Code)
	})

	host.send("start_game", nil)
	var started struct {
		Question internal.QuestionPrompt `json:"question"`
	}
	require.NoError(t, json.Unmarshal(host.awaitEvent("game_started"), &started))
	assert.Equal(t, 1, started.Question.Round)
	guest.awaitEvent("game_started")

	host.send("submit_fake_answer", map[string]any{"answer": "venus"})
	host.awaitEvent("fake_answer_submitted")
	guest.send("submit_fake_answer", map[string]any{"answer": "jupiter"})

	var voting struct {
		Options []string `json:"options"`
	}
	require.NoError(t, json.Unmarshal(host.awaitEvent("voting_phase"), &voting))
	assert.ElementsMatch(t, []string{"venus", "jupiter", "mars"}, voting.Options)
	guest.awaitEvent("voting_phase")

	host.send("submit_vote", map[string]any{"answer": "mars"})
	host.awaitEvent("vote_submitted")
	guest.send("submit_vote", map[string]any{"answer": "venus"})

	var results internal.RoundResults
	require.NoError(t, json.Unmarshal(host.awaitEvent("round_results"), &results))
	assert.Equal(t, "mars", results.CorrectAnswer)
	require.Len(t, results.Leaderboard, 2)
	// Host voted the truth and deceived the guest.
	assert.Equal(t, internal.CorrectVotePoints+internal.DeceptionBonus, results.Leaderboard[0].Score)

	// Host skips ahead of the 10s results timer; the single question is
	// spent, so the final test begins.
	host.send("next_round", nil)
	var finalTest struct {
		Questions []internal.QuestionPrompt `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(host.awaitEvent("final_test_phase"), &finalTest))
	require.Len(t, finalTest.Questions, 1)
	guest.awaitEvent("final_test_phase")

	host.send("submit_final_answer", map[string]any{"question_index": 0, "answer": "Mars"})
	host.awaitEvent("final_answer_submitted")
	guest.send("submit_final_answer", map[string]any{"question_index": 0, "answer": "saturn"})

	var over struct {
		FinalScores []internal.FinalScore `json:"final_scores"`
	}
	require.NoError(t, json.Unmarshal(host.awaitEvent("game_over"), &over))
	require.Len(t, over.FinalScores, 2)
	assert.Equal(t, 1, over.FinalScores[0].CorrectCount)
	assert.Equal(t, 0, over.FinalScores[1].CorrectCount)
}
