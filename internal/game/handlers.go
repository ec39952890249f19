package game

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/denizokt/fibbr-backend/internal"
	"github.com/denizokt/fibbr-backend/internal/utils"
)

const questionFetchTimeout = 5 * time.Second

// sendError delivers a typed error event to one player.
func (h *Hub) sendError(player *internal.Player, code, detail string) {
	err := player.SafeWriteJSON(internal.Message[any]{
		Type: "error",
		Data: map[string]any{"code": code, "detail": detail},
	})
	if err != nil {
		log.Printf("[sendError] player=%s write failed: %v", player.Id, err)
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPhase):
		return "invalid_phase"
	case errors.Is(err, ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrCorrectAnswerSubmitted):
		return "correct_answer_submitted"
	case errors.Is(err, ErrDuplicateAnswer):
		return "duplicate_answer"
	case errors.Is(err, ErrOwnAnswerVoted):
		return "own_answer_voted"
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrInsufficientPlayers):
		return "insufficient_players"
	case errors.Is(err, ErrNoQuestions):
		return "no_questions"
	default:
		return "internal_error"
	}
}

func (h *Hub) handleJoin(room *internal.Room, player *internal.Player, name, accountToken string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Anonymous"
	}

	if accountToken != "" && h.Accounts != nil {
		if accountID, ok := h.Accounts.LinkedAccount(context.Background(), accountToken); ok {
			player.AccountID = accountID
		}
	}

	player.Name = name
	result, err := AddPlayer(room, player)
	if err != nil {
		if errors.Is(err, ErrNameConflict) {
			room.Mu.RLock()
			suggested := utils.SuggestName(name, len(room.Players))
			room.Mu.RUnlock()
			if werr := player.SafeWriteJSON(internal.Message[any]{
				Type: "name_taken",
				Data: map[string]any{"suggested_name": suggested},
			}); werr != nil {
				log.Printf("[handleJoin] player=%s write failed: %v", player.Id, werr)
			}
			return
		}
		h.sendError(player, errorCode(err), err.Error())
		return
	}

	if err := player.SafeWriteJSON(internal.Message[any]{
		Type: "joined_room",
		Data: map[string]any{"player": result.Player, "room": result.State},
	}); err != nil {
		log.Printf("[handleJoin] player=%s write failed: %v", player.Id, err)
	}

	SafeBroadcastToRoomExcept(room, internal.Message[any]{
		Type: "player_joined",
		Data: map[string]any{"player": result.Player, "room": result.State},
	}, player.Id)
}

func (h *Hub) handleStartGame(room *internal.Room, player *internal.Player) {
	room.Mu.RLock()
	isHost := room.IsHost(player.Id)
	playerCount := len(room.Players)
	room.Mu.RUnlock()
	if !isHost {
		h.sendError(player, errorCode(ErrNotAuthorized), "only the host can start the game")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), questionFetchTimeout)
	defer cancel()
	pool, err := h.Questions.FetchActiveQuestions(ctx)
	if err != nil {
		log.Printf("[handleStartGame] room=%s question fetch failed: %v", room.Code, err)
		h.sendError(player, "internal_error", "could not load questions")
		return
	}
	prompt, err := StartGame(room, pool)
	if err != nil {
		h.sendError(player, errorCode(err), err.Error())
		return
	}

	room.Mu.RLock()
	state := room.Snapshot()
	room.Mu.RUnlock()

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "game_started",
		Data: map[string]any{
			"room":               state,
			"question":           prompt,
			"time_limit_seconds": int(internal.FakeSubmitTimeLimit.Seconds()),
		},
	})

	if h.Stats != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), questionFetchTimeout)
			defer cancel()
			if err := h.Stats.RecordGameStarted(ctx, room.Code, playerCount); err != nil {
				log.Printf("[handleStartGame] room=%s stats record failed: %v", room.Code, err)
			}
		}()
	}
}

func (h *Hub) handleSubmitFake(room *internal.Room, player *internal.Player, answer string) {
	result, err := SubmitFakeAnswer(room, player.Id, answer)
	if err != nil {
		h.sendError(player, errorCode(err), err.Error())
		return
	}

	if err := player.SafeWriteJSON(internal.Message[any]{
		Type: "fake_answer_submitted",
		Data: map[string]any{"skipped": result.Skipped, "penalized": result.Penalized},
	}); err != nil {
		log.Printf("[handleSubmitFake] player=%s write failed: %v", player.Id, err)
	}

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "submission_progress",
		Data: map[string]any{"submitted": result.Submitted, "total": result.Total},
	})

	if result.AdvancedToVoting {
		h.broadcastVotingPhase(room, result.QuestionText, result.Options)
	}
}

func (h *Hub) broadcastVotingPhase(room *internal.Room, questionText string, options []string) {
	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "voting_phase",
		Data: map[string]any{
			"question_text":      questionText,
			"options":            options,
			"time_limit_seconds": int(internal.VoteTimeLimit.Seconds()),
		},
	})
}

func (h *Hub) handleSubmitVote(room *internal.Room, player *internal.Player, answer string) {
	result, err := SubmitVote(room, player.Id, answer)
	if err != nil {
		h.sendError(player, errorCode(err), err.Error())
		return
	}

	if err := player.SafeWriteJSON(internal.Message[any]{
		Type: "vote_submitted",
		Data: map[string]any{"skipped": result.Skipped, "penalized": result.Penalized},
	}); err != nil {
		log.Printf("[handleSubmitVote] player=%s write failed: %v", player.Id, err)
	}

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "voting_progress",
		Data: map[string]any{"voted": result.Voted, "total": result.Total},
	})

	if result.RoundFinished {
		h.broadcastRoundResults(room, result.Results)
	}
}

// broadcastRoundResults announces the reveal and arms the automatic
// advance to the next round.
func (h *Hub) broadcastRoundResults(room *internal.Room, results *internal.RoundResults) {
	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "round_results",
		Data: results,
	})

	h.Scheduler.Schedule(room.Code, TaskAdvanceRound, internal.ResultsAdvanceDelay, func() {
		h.advanceRound(room)
	})
}

// advanceRound moves past SHOWING_RESULTS. Called by the advance timer
// and by the host's next_round; a stale fire is rejected by the phase
// check inside NextRound.
func (h *Hub) advanceRound(room *internal.Room) {
	result, err := NextRound(room)
	if err != nil {
		log.Printf("[advanceRound] room=%s skipped: %v", room.Code, err)
		return
	}

	if result.EnteredFinalTest {
		h.enterFinalTest(room)
		return
	}

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "new_round",
		Data: map[string]any{
			"room":               result.State,
			"question":           result.Prompt,
			"time_limit_seconds": int(internal.FakeSubmitTimeLimit.Seconds()),
		},
	})
}

func (h *Hub) handleNextRound(room *internal.Room, player *internal.Player) {
	room.Mu.RLock()
	isHost := room.IsHost(player.Id)
	room.Mu.RUnlock()
	if !isHost {
		h.sendError(player, errorCode(ErrNotAuthorized), "only the host can advance the round")
		return
	}

	// Host advanced before the timer did.
	h.Scheduler.Cancel(room.Code, TaskAdvanceRound)
	h.advanceRound(room)
}

func (h *Hub) enterFinalTest(room *internal.Room) {
	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "final_test_phase",
		Data: map[string]any{
			"questions":        FinalTestQuestions(room),
			"duration_seconds": int(internal.FinalTestDuration.Seconds()),
		},
	})

	h.Scheduler.Schedule(room.Code, TaskFinalTest, internal.FinalTestDuration, func() {
		h.finalize(room)
	})
}

func (h *Hub) handleFinalAnswer(room *internal.Room, player *internal.Player, questionIndex int, answer string) {
	if err := SubmitFinalAnswer(room, player.Id, questionIndex, answer); err != nil {
		h.sendError(player, errorCode(err), err.Error())
		return
	}

	if err := player.SafeWriteJSON(internal.Message[any]{
		Type: "final_answer_submitted",
		Data: map[string]any{"question_index": questionIndex},
	}); err != nil {
		log.Printf("[handleFinalAnswer] player=%s write failed: %v", player.Id, err)
	}

	// Everyone finished before the window closed.
	if AllFinalAnswersIn(room) {
		h.Scheduler.Cancel(room.Code, TaskFinalTest)
		h.finalize(room)
	}
}

func (h *Hub) handleFinishGame(room *internal.Room, player *internal.Player) {
	room.Mu.RLock()
	isHost := room.IsHost(player.Id)
	room.Mu.RUnlock()
	if !isHost {
		h.sendError(player, errorCode(ErrNotAuthorized), "only the host can finish the game")
		return
	}

	h.Scheduler.Cancel(room.Code, TaskFinalTest)
	h.finalize(room)
}

// finalize grades the final test and ends the game. Safe to call from
// multiple triggers: FinalizeResults succeeds at most once per game.
func (h *Hub) finalize(room *internal.Room) {
	scores, summaries, err := FinalizeResults(room)
	if err != nil {
		log.Printf("[finalize] room=%s skipped: %v", room.Code, err)
		return
	}

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "game_over",
		Data: map[string]any{
			"final_scores": scores,
			"questions":    summaries,
			"leaderboard":  LeaderboardSnapshot(room),
		},
	})

	if h.Stats != nil {
		room.Mu.RLock()
		accountIDs := make(map[string]string)
		for id, p := range room.Players {
			if p.AccountID != "" {
				accountIDs[id] = p.AccountID
			}
		}
		room.Mu.RUnlock()

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), questionFetchTimeout)
			defer cancel()
			if err := h.Stats.RecordGameFinished(ctx, room.Code, scores, accountIDs); err != nil {
				log.Printf("[finalize] room=%s stats record failed: %v", room.Code, err)
			}
		}()
	}

	h.Scheduler.Schedule(room.Code, TaskResetLobby, internal.GameOverResetDelay, func() {
		state := ResetKeepingRoster(room)
		SafeBroadcastToRoom(room, internal.Message[any]{
			Type: "room_reset",
			Data: map[string]any{"room": state},
		})
	})
}

func (h *Hub) handleReaction(room *internal.Room, player *internal.Player, answer, emoji string) {
	normalized, reaction, err := AddReaction(room, player.Id, answer, emoji)
	if err != nil {
		h.sendError(player, errorCode(err), err.Error())
		return
	}

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "reaction_added",
		Data: map[string]any{
			"answer":      normalized,
			"emoji":       reaction.Emoji,
			"player_name": reaction.PlayerName,
		},
	})
}

// handleDisconnect runs when a read loop ends. In the lobby the player
// is removed immediately; mid-game they get a grace window to reattach
// before removal.
func (h *Hub) handleDisconnect(room *internal.Room, player *internal.Player) {
	room.Mu.RLock()
	_, joined := room.Players[player.Id]
	phase := room.Phase
	room.Mu.RUnlock()

	if !joined {
		return
	}

	if phase == internal.PhaseWaiting {
		h.removeAndNotify(room, player.Id)
		return
	}

	name, ok := MarkDisconnected(room, player.Id)
	if !ok {
		return
	}

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "player_disconnected",
		Data: map[string]any{
			"player_id":            player.Id,
			"player_name":          name,
			"grace_period_seconds": int(internal.DisconnectGrace.Seconds()),
		},
	})

	h.Scheduler.Schedule(room.Code, DisconnectTask(player.Id), internal.DisconnectGrace, func() {
		if IsDisconnected(room, player.Id) {
			h.removeAndNotify(room, player.Id)
		}
	})
}

// removeAndNotify removes a player and broadcasts everything the
// removal triggered.
func (h *Hub) removeAndNotify(room *internal.Room, playerID string) {
	result := RemovePlayer(room, playerID)
	if !result.Removed {
		return
	}

	if result.Emptied {
		h.Scheduler.CancelAll(room.Code)
		ResetInPlace(room)
		return
	}

	SafeBroadcastToRoom(room, internal.Message[any]{
		Type: "player_left",
		Data: map[string]any{
			"player_id":   playerID,
			"player_name": result.PlayerName,
			"new_host_id": result.NewHostID,
		},
	})

	if result.AdvancedToVoting {
		room.Mu.RLock()
		questionText := ""
		if round := room.CurrentRoundState(); round != nil {
			questionText = round.QuestionText
		}
		room.Mu.RUnlock()
		h.broadcastVotingPhase(room, questionText, result.Options)
	}
	if result.RoundFinished {
		h.broadcastRoundResults(room, result.Results)
	}
	if result.FinalTestComplete {
		// The departed player was the last one still owed answers.
		h.Scheduler.Cancel(room.Code, TaskFinalTest)
		h.finalize(room)
	}
}
