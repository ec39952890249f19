package game

import (
	"log"
	"slices"
	"time"

	"github.com/denizokt/fibbr-backend/internal"
	"github.com/denizokt/fibbr-backend/internal/utils"
)

// =============================================================================
// ROOM STATE MACHINE
// =============================================================================
//
// Phase flow:
//
//	WAITING -> SUBMITTING_FAKE -> VOTING -> SHOWING_RESULTS
//	        -> (SUBMITTING_FAKE | FINAL_TEST) -> GAME_OVER -> WAITING (reset)
//
// Every operation locks the room for its whole duration, so validation
// and mutation are always one atomic step.

// JoinResult carries what the adapter needs to announce a new player.
type JoinResult struct {
	Player internal.PlayerSnapshot
	State  internal.RoomState
}

// AddPlayer joins a player to the room. The first joiner becomes host;
// colors are assigned round-robin from the palette by join order.
func AddPlayer(room *internal.Room, player *internal.Player) (JoinResult, error) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != internal.PhaseWaiting {
		return JoinResult{}, ErrInvalidPhase
	}
	if len(room.Players) >= room.MaxPlayers {
		return JoinResult{}, ErrRoomFull
	}
	for _, p := range room.Players {
		if utils.Normalize(p.Name) == utils.Normalize(player.Name) {
			return JoinResult{}, ErrNameConflict
		}
	}

	player.Room = room
	player.IsHost = len(room.Players) == 0
	player.Color = internal.PlayerColors[room.ColorCursor%len(internal.PlayerColors)]
	player.IsConnected = true
	player.JoinedAt = time.Now()
	player.FinalAnswers = make(map[int]string)
	room.ColorCursor++

	room.Players[player.Id] = player
	room.JoinOrder = append(room.JoinOrder, player.Id)

	log.Printf("[AddPlayer] room=%s player=%s (%s) joined, host=%v color=%s total=%d/%d",
		room.Code, player.Id, player.Name, player.IsHost, player.Color, len(room.Players), room.MaxPlayers)

	return JoinResult{Player: player.Snapshot(), State: room.Snapshot()}, nil
}

// RemovalResult describes a player's departure, including any phase
// completion it triggered (a round can't stay stuck waiting on someone
// who left).
type RemovalResult struct {
	Removed    bool
	PlayerName string
	NewHostID  string
	Emptied    bool

	AdvancedToVoting  bool
	Options           []string
	RoundFinished     bool
	Results           *internal.RoundResults
	FinalTestComplete bool
}

// RemovePlayer deletes a player. If they were host, the earliest
// remaining joiner is promoted. Removal mid-round re-checks the pending
// completion condition over the remaining roster.
func RemovePlayer(room *internal.Room, playerID string) RemovalResult {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	player, ok := room.Players[playerID]
	if !ok {
		return RemovalResult{}
	}
	wasHost := player.IsHost

	delete(room.Players, playerID)
	room.JoinOrder = slices.DeleteFunc(room.JoinOrder, func(id string) bool {
		return id == playerID
	})

	result := RemovalResult{
		Removed:    true,
		PlayerName: player.Name,
		Emptied:    len(room.Players) == 0,
	}

	if wasHost && len(room.Players) > 0 {
		next := room.Players[room.JoinOrder[0]]
		next.IsHost = true
		result.NewHostID = next.Id
		log.Printf("[RemovePlayer] room=%s host left, promoted %s (%s)", room.Code, next.Id, next.Name)
	}

	log.Printf("[RemovePlayer] room=%s player=%s (%s) removed, remaining=%d",
		room.Code, playerID, player.Name, len(room.Players))

	// The departed player may have been the last submission/vote the
	// round was waiting for.
	if len(room.Players) > 0 {
		switch room.Phase {
		case internal.PhaseSubmittingFake:
			if allSubmitted(room) {
				result.AdvancedToVoting = true
				result.Options = prepareVoting(room)
			}
		case internal.PhaseVoting:
			if allVoted(room) {
				calculateScores(room)
				result.RoundFinished = true
				result.Results = buildRoundResults(room)
			}
		case internal.PhaseFinalTest:
			result.FinalTestComplete = allFinalAnswered(room)
		}
	}

	return result
}

// StartGame samples the question pool and begins round 0. Requires the
// room to be waiting with at least MinPlayersToStart players.
func StartGame(room *internal.Room, pool []internal.Question) (internal.QuestionPrompt, error) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != internal.PhaseWaiting {
		return internal.QuestionPrompt{}, ErrInvalidPhase
	}
	if len(room.Players) < internal.MinPlayersToStart {
		return internal.QuestionPrompt{}, ErrInsufficientPlayers
	}
	// A game needs at least one question; starting straight into the
	// final test would leave nothing to play.
	if len(pool) == 0 {
		return internal.QuestionPrompt{}, ErrNoQuestions
	}

	// Sample without replacement.
	drawn := make([]internal.Question, len(pool))
	copy(drawn, pool)
	utils.Shuffle(drawn)
	if len(drawn) > room.MaxRounds {
		drawn = drawn[:room.MaxRounds]
	}

	room.Questions = drawn
	room.CurrentRound = 0
	room.Rounds = room.Rounds[:0]
	beginRound(room, 0)

	log.Printf("[StartGame] room=%s started with %d players, %d questions",
		room.Code, len(room.Players), len(drawn))

	return currentPrompt(room), nil
}

// beginRound seeds a new round from the question at index, or moves the
// room into the final test when the questions are exhausted. Caller
// holds the lock.
func beginRound(room *internal.Room, index int) {
	if index >= len(room.Questions) {
		room.Phase = internal.PhaseFinalTest
		room.FinalTestStartTime = time.Now()
		log.Printf("[beginRound] room=%s questions exhausted, entering final test", room.Code)
		return
	}

	room.Rounds = append(room.Rounds, internal.NewRound(room.Questions[index]))
	for _, p := range room.Players {
		p.ResetRoundState()
	}
	room.Phase = internal.PhaseSubmittingFake

	log.Printf("[beginRound] room=%s round=%d question=%d", room.Code, index, room.Questions[index].ID)
}

func currentPrompt(room *internal.Room) internal.QuestionPrompt {
	q := room.Questions[room.CurrentRound]
	return internal.QuestionPrompt{
		Round:       room.CurrentRound + 1,
		TotalRounds: len(room.Questions),
		Text:        q.Text,
		Category:    q.Category,
	}
}

// SubmitFakeAnswer records a player's fake answer for the current round.
// Empty text is an explicit skip: it counts toward completion and is
// penalized, but never enters the option pool. The duplicate/own-answer
// checks and the write happen under the room lock, so two concurrent
// submissions can never both pass the duplicate check.
func SubmitFakeAnswer(room *internal.Room, playerID, text string) (internal.FakeAnswerResult, error) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != internal.PhaseSubmittingFake {
		return internal.FakeAnswerResult{}, ErrInvalidPhase
	}
	player, ok := room.Players[playerID]
	if !ok {
		return internal.FakeAnswerResult{}, ErrUnknownPlayer
	}
	round := room.CurrentRoundState()

	result := internal.FakeAnswerResult{Total: len(room.Players)}
	normalized := utils.Normalize(text)

	if normalized == "" {
		// Timed-out skip: recorded for completion, penalized, excluded
		// from the options.
		round.FakeAnswers[playerID] = ""
		player.SubmittedAnswer = ""
		player.HasSubmitted = true
		player.SubmitTime = time.Now()
		player.Score -= internal.TimeoutPenalty
		result.Skipped = true
		result.Penalized = true
		log.Printf("[SubmitFakeAnswer] room=%s player=%s skipped, penalty=%d",
			room.Code, playerID, internal.TimeoutPenalty)
	} else {
		if utils.Matches(text, round.CorrectAnswer, round.AcceptableAnswers) {
			return internal.FakeAnswerResult{}, ErrCorrectAnswerSubmitted
		}
		for otherID, other := range round.FakeAnswers {
			if otherID != playerID && other != "" && other == normalized {
				return internal.FakeAnswerResult{}, ErrDuplicateAnswer
			}
		}

		now := time.Now()
		round.FakeAnswers[playerID] = normalized
		player.SubmittedAnswer = normalized
		player.HasSubmitted = true
		player.SubmitTime = now

		if now.Sub(round.StartTime) > internal.FakeSubmitTimeLimit {
			player.Score -= internal.TimeoutPenalty
			result.Penalized = true
		}
		log.Printf("[SubmitFakeAnswer] room=%s player=%s submitted %q late=%v",
			room.Code, playerID, normalized, result.Penalized)
	}

	result.Submitted = submittedCount(room)
	if allSubmitted(room) {
		result.AdvancedToVoting = true
		result.Options = prepareVoting(room)
		result.QuestionText = round.QuestionText
	}
	return result, nil
}

// prepareVoting assembles and shuffles the option pool and moves the
// room into voting. Caller holds the lock.
func prepareVoting(room *internal.Room) []string {
	round := room.CurrentRoundState()

	options := make([]string, 0, len(round.FakeAnswers)+1)
	for _, fake := range round.FakeAnswers {
		if fake != "" {
			options = append(options, fake)
		}
	}
	options = append(options, utils.Normalize(round.CorrectAnswer))
	utils.Shuffle(options)

	round.AllOptions = options
	round.VotingStartTime = time.Now()
	room.Phase = internal.PhaseVoting

	log.Printf("[prepareVoting] room=%s round=%d options=%d", room.Code, room.CurrentRound, len(options))
	return options
}

// SubmitVote records a player's chosen answer. Empty text is a
// penalized skip. A vote for the voter's own fake answer is rejected,
// which is also what keeps self-votes out of the deception bonus.
func SubmitVote(room *internal.Room, playerID, text string) (internal.VoteRecordResult, error) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != internal.PhaseVoting {
		return internal.VoteRecordResult{}, ErrInvalidPhase
	}
	player, ok := room.Players[playerID]
	if !ok {
		return internal.VoteRecordResult{}, ErrUnknownPlayer
	}
	round := room.CurrentRoundState()

	result := internal.VoteRecordResult{Total: len(room.Players)}
	normalized := utils.Normalize(text)

	if normalized == "" {
		round.Votes[playerID] = ""
		player.VotedAnswer = ""
		player.HasVoted = true
		player.VoteTime = time.Now()
		player.Score -= internal.TimeoutPenalty
		result.Skipped = true
		result.Penalized = true
		log.Printf("[SubmitVote] room=%s player=%s skipped, penalty=%d",
			room.Code, playerID, internal.TimeoutPenalty)
	} else {
		if own := round.FakeAnswers[playerID]; own != "" && normalized == own {
			return internal.VoteRecordResult{}, ErrOwnAnswerVoted
		}

		now := time.Now()
		round.Votes[playerID] = normalized
		player.VotedAnswer = normalized
		player.HasVoted = true
		player.VoteTime = now

		if now.Sub(round.VotingStartTime) > internal.VoteTimeLimit {
			player.Score -= internal.TimeoutPenalty
			result.Penalized = true
		}
		log.Printf("[SubmitVote] room=%s player=%s voted %q late=%v",
			room.Code, playerID, normalized, result.Penalized)
	}

	result.Voted = votedCount(room)
	if allVoted(room) {
		calculateScores(room)
		result.RoundFinished = true
		result.Results = buildRoundResults(room)
	}
	return result, nil
}

// calculateScores applies the round scoring and moves the room to
// SHOWING_RESULTS. Caller holds the lock.
//
// Non-skip voters gain CorrectVotePoints for the truth, lose
// WrongVotePenalty otherwise. Separately, every player earns
// DeceptionBonus per vote their fake answer collected; self-votes never
// appear because they are rejected at submission time.
func calculateScores(room *internal.Room) {
	round := room.CurrentRoundState()
	correct := utils.Normalize(round.CorrectAnswer)

	for _, player := range room.Players {
		if player.HasVoted && player.VotedAnswer != "" {
			if player.VotedAnswer == correct {
				player.Score += internal.CorrectVotePoints
			} else {
				player.Score -= internal.WrongVotePenalty
			}
		}

		if fake := round.FakeAnswers[player.Id]; fake != "" {
			player.Score += round.VotesFor(fake) * internal.DeceptionBonus
		}
	}

	room.Phase = internal.PhaseShowingResults
	log.Printf("[calculateScores] room=%s round=%d scored, showing results", room.Code, room.CurrentRound)
}

func buildRoundResults(room *internal.Room) *internal.RoundResults {
	round := room.CurrentRoundState()
	correct := utils.Normalize(round.CorrectAnswer)

	votes := make([]internal.PlayerVoteDetail, 0, len(room.Players))
	for _, player := range room.OrderedPlayers() {
		fake := round.FakeAnswers[player.Id]
		votes = append(votes, internal.PlayerVoteDetail{
			PlayerID:      player.Id,
			PlayerName:    player.Name,
			VotedFor:      player.VotedAnswer,
			WasCorrect:    player.HasVoted && player.VotedAnswer != "" && player.VotedAnswer == correct,
			FakeAnswer:    fake,
			VotesReceived: round.VotesFor(fake),
		})
	}

	return &internal.RoundResults{
		CorrectAnswer: round.CorrectAnswer,
		PlayerVotes:   votes,
		Leaderboard:   Leaderboard(room),
	}
}

// AddReaction stores an emoji reaction against a revealed answer. Legal
// only while results are showing; last write per (answer, player) wins.
func AddReaction(room *internal.Room, playerID, answerText, emoji string) (string, internal.Reaction, error) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != internal.PhaseShowingResults {
		return "", internal.Reaction{}, ErrInvalidPhase
	}
	player, ok := room.Players[playerID]
	if !ok {
		return "", internal.Reaction{}, ErrUnknownPlayer
	}

	round := room.CurrentRoundState()
	normalized := utils.Normalize(answerText)
	if round.Reactions[normalized] == nil {
		round.Reactions[normalized] = make(map[string]internal.Reaction)
	}
	reaction := internal.Reaction{Emoji: emoji, PlayerName: player.Name}
	round.Reactions[normalized][playerID] = reaction

	return normalized, reaction, nil
}

// NextResult describes what NextRound moved the room into.
type NextResult struct {
	EnteredFinalTest bool
	Prompt           internal.QuestionPrompt
	State            internal.RoomState
}

// NextRound advances past the shown results, either into the next round
// or into the final test once the drawn questions are exhausted.
func NextRound(room *internal.Room) (NextResult, error) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != internal.PhaseShowingResults {
		return NextResult{}, ErrInvalidPhase
	}

	room.CurrentRound++
	beginRound(room, room.CurrentRound)

	result := NextResult{State: room.Snapshot()}
	if room.Phase == internal.PhaseFinalTest {
		result.EnteredFinalTest = true
	} else {
		result.Prompt = currentPrompt(room)
	}
	return result, nil
}

// FinalTestQuestions lists the drawn questions for the final test,
// without their answers.
func FinalTestQuestions(room *internal.Room) []internal.QuestionPrompt {
	room.Mu.RLock()
	defer room.Mu.RUnlock()

	prompts := make([]internal.QuestionPrompt, 0, len(room.Questions))
	for i, q := range room.Questions {
		prompts = append(prompts, internal.QuestionPrompt{
			Round:       i,
			TotalRounds: len(room.Questions),
			Text:        q.Text,
			Category:    q.Category,
		})
	}
	return prompts
}

// SubmitFinalAnswer stores a player's raw final-test answer for one
// question. Matching is deferred to finalization.
func SubmitFinalAnswer(room *internal.Room, playerID string, questionIndex int, text string) error {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != internal.PhaseFinalTest {
		return ErrInvalidPhase
	}
	player, ok := room.Players[playerID]
	if !ok {
		return ErrUnknownPlayer
	}
	if questionIndex < 0 || questionIndex >= len(room.Questions) {
		return ErrInvalidPhase
	}

	player.FinalAnswers[questionIndex] = text
	return nil
}

// AllFinalAnswersIn reports whether every player has answered every
// drawn question.
func AllFinalAnswersIn(room *internal.Room) bool {
	room.Mu.RLock()
	defer room.Mu.RUnlock()
	return allFinalAnswered(room)
}

func allFinalAnswered(room *internal.Room) bool {
	for _, player := range room.Players {
		if len(player.FinalAnswers) < len(room.Questions) {
			return false
		}
	}
	return len(room.Players) > 0
}

// FinalizeResults grades every player's final-test answers, adds the
// per-correct bonus, and ends the game. It only succeeds once per game:
// the phase check rejects a second call, so racing triggers (everyone
// finished vs. window timeout) cannot double-award bonuses.
func FinalizeResults(room *internal.Room) ([]internal.FinalScore, []internal.QuestionSummary, error) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.Phase != internal.PhaseFinalTest {
		return nil, nil, ErrInvalidPhase
	}

	scores := make([]internal.FinalScore, 0, len(room.Players))
	for _, player := range room.OrderedPlayers() {
		correctCount := 0
		for i, q := range room.Questions {
			if answer, ok := player.FinalAnswers[i]; ok &&
				utils.Matches(answer, q.CorrectAnswer, q.AcceptableAnswers) {
				correctCount++
			}
		}
		bonus := correctCount * internal.FinalBonusPerCorrect
		player.Score += bonus
		scores = append(scores, internal.FinalScore{
			PlayerID:     player.Id,
			PlayerName:   player.Name,
			CorrectCount: correctCount,
			BonusScore:   bonus,
			TotalScore:   player.Score,
		})
	}

	summaries := make([]internal.QuestionSummary, 0, len(room.Questions))
	for i, q := range room.Questions {
		summaries = append(summaries, internal.QuestionSummary{
			Index:         i,
			Text:          q.Text,
			CorrectAnswer: q.CorrectAnswer,
			Category:      q.Category,
		})
	}

	room.Phase = internal.PhaseGameOver
	log.Printf("[FinalizeResults] room=%s game over, %d players graded", room.Code, len(scores))
	return scores, summaries, nil
}

// ResetInPlace clears the room back to an empty waiting state.
func ResetInPlace(room *internal.Room) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	room.Players = make(map[string]*internal.Player)
	room.JoinOrder = room.JoinOrder[:0]
	resetGameState(room)
	room.ColorCursor = 0

	log.Printf("[ResetInPlace] room=%s cleared", room.Code)
}

// ResetKeepingRoster starts a fresh game with the same roster: identity,
// name, color and host flag survive; scores and round history do not.
func ResetKeepingRoster(room *internal.Room) internal.RoomState {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	for _, player := range room.Players {
		player.Score = 0
		player.FinalAnswers = make(map[int]string)
		player.ResetRoundState()
	}
	resetGameState(room)

	log.Printf("[ResetKeepingRoster] room=%s reset with %d players kept", room.Code, len(room.Players))
	return room.Snapshot()
}

// resetGameState drops everything a new game must not see. Caller holds
// the lock.
func resetGameState(room *internal.Room) {
	room.Phase = internal.PhaseWaiting
	room.CurrentRound = 0
	room.Rounds = make([]*internal.Round, 0)
	room.Questions = nil
	room.FinalTestStartTime = time.Time{}
}

// Leaderboard returns players by descending score; ties keep join
// order. Caller holds the lock.
func Leaderboard(room *internal.Room) []internal.PlayerSnapshot {
	players := room.OrderedPlayers()
	slices.SortStableFunc(players, func(a, b *internal.Player) int {
		return b.Score - a.Score
	})

	board := make([]internal.PlayerSnapshot, 0, len(players))
	for _, p := range players {
		board = append(board, p.Snapshot())
	}
	return board
}

// LeaderboardSnapshot is Leaderboard with its own locking, for callers
// outside the state machine.
func LeaderboardSnapshot(room *internal.Room) []internal.PlayerSnapshot {
	room.Mu.RLock()
	defer room.Mu.RUnlock()
	return Leaderboard(room)
}

// MarkDisconnected flags a mid-game player as not connected without
// removing them, pending the disconnect grace period.
func MarkDisconnected(room *internal.Room, playerID string) (string, bool) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	player, ok := room.Players[playerID]
	if !ok {
		return "", false
	}
	player.IsConnected = false
	player.Conn = nil
	log.Printf("[MarkDisconnected] room=%s player=%s (%s) lost connection", room.Code, playerID, player.Name)
	return player.Name, true
}

// MarkConnected clears the not-connected flag when the same handle
// reattaches before the removal timer fires.
func MarkConnected(room *internal.Room, playerID string) (string, bool) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	player, ok := room.Players[playerID]
	if !ok {
		return "", false
	}
	player.IsConnected = true
	log.Printf("[MarkConnected] room=%s player=%s (%s) reconnected", room.Code, playerID, player.Name)
	return player.Name, true
}

// IsDisconnected reports whether the player is still present but
// flagged as not connected (used by the grace-period timer).
func IsDisconnected(room *internal.Room, playerID string) bool {
	room.Mu.RLock()
	defer room.Mu.RUnlock()

	player, ok := room.Players[playerID]
	return ok && !player.IsConnected
}

// Completion helpers; callers hold the lock.

func allSubmitted(room *internal.Room) bool {
	for _, p := range room.Players {
		if !p.HasSubmitted {
			return false
		}
	}
	return len(room.Players) > 0
}

func submittedCount(room *internal.Room) int {
	count := 0
	for _, p := range room.Players {
		if p.HasSubmitted {
			count++
		}
	}
	return count
}

func allVoted(room *internal.Room) bool {
	for _, p := range room.Players {
		if !p.HasVoted {
			return false
		}
	}
	return len(room.Players) > 0
}

func votedCount(room *internal.Room) int {
	count := 0
	for _, p := range room.Players {
		if p.HasVoted {
			count++
		}
	}
	return count
}
