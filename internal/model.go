package internal

import "time"

const (
	MaxPlayersPerRoom = 4
	MinPlayersToStart = 2
	MaxRounds         = 10

	FakeSubmitTimeLimit = 20 * time.Second
	VoteTimeLimit       = 10 * time.Second
	ResultsAdvanceDelay = 10 * time.Second
	FinalTestDuration   = 120 * time.Second
	GameOverResetDelay  = 30 * time.Second
	DisconnectGrace     = 15 * time.Second

	CorrectVotePoints    = 1000
	WrongVotePenalty     = 500
	DeceptionBonus       = 500
	FinalBonusPerCorrect = 500
	TimeoutPenalty       = 100
)

type GamePhase string

const (
	PhaseWaiting        GamePhase = "waiting"
	PhaseSubmittingFake GamePhase = "submitting_fake"
	PhaseVoting         GamePhase = "voting"
	PhaseShowingResults GamePhase = "showing_results"
	PhaseFinalTest      GamePhase = "final_test"
	PhaseGameOver       GamePhase = "game_over"
)

// PlayerColors is the palette cycled through as players join a room.
var PlayerColors = []string{"blue", "red", "orange", "green"}

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Question is an entry from the question bank. AcceptableAnswers is a
// comma-delimited list of alternate spellings accepted as correct.
type Question struct {
	ID                int    `json:"id"`
	Text              string `json:"question_text"`
	CorrectAnswer     string `json:"correct_answer"`
	AcceptableAnswers string `json:"acceptable_answers,omitempty"`
	Category          string `json:"category,omitempty"`
	Difficulty        string `json:"difficulty,omitempty"`
	IsActive          bool   `json:"is_active"`
}

type RoomState struct {
	Code         string           `json:"room_code"`
	DisplayName  string           `json:"display_name"`
	Phase        GamePhase        `json:"phase"`
	CurrentRound int              `json:"current_round"`
	MaxRounds    int              `json:"max_rounds"`
	PlayerCount  int              `json:"player_count"`
	MaxPlayers   int              `json:"max_players"`
	Players      []PlayerSnapshot `json:"players"`
}

// RoomInfo is the registry listing entry served to lobby browsers.
type RoomInfo struct {
	Code        string    `json:"code"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description,omitempty"`
	PlayerCount int       `json:"player_count"`
	MaxPlayers  int       `json:"max_players"`
	Phase       GamePhase `json:"phase"`
	IsJoinable  bool      `json:"is_joinable"`
}

type QuestionPrompt struct {
	Round       int    `json:"round"`
	TotalRounds int    `json:"total_rounds"`
	Text        string `json:"text"`
	Category    string `json:"category,omitempty"`
}

// FakeAnswerResult reports the outcome of one fake-answer submission,
// including whether it completed the round and moved the room to voting.
type FakeAnswerResult struct {
	Skipped          bool     `json:"skipped"`
	Penalized        bool     `json:"penalized"`
	Submitted        int      `json:"submitted"`
	Total            int      `json:"total"`
	AdvancedToVoting bool     `json:"advanced_to_voting"`
	Options          []string `json:"options,omitempty"`
	QuestionText     string   `json:"question_text,omitempty"`
}

type VoteRecordResult struct {
	Skipped       bool          `json:"skipped"`
	Penalized     bool          `json:"penalized"`
	Voted         int           `json:"voted"`
	Total         int           `json:"total"`
	RoundFinished bool          `json:"round_finished"`
	Results       *RoundResults `json:"results,omitempty"`
}

type RoundResults struct {
	CorrectAnswer string             `json:"correct_answer"`
	PlayerVotes   []PlayerVoteDetail `json:"player_votes"`
	Leaderboard   []PlayerSnapshot   `json:"leaderboard"`
}

type PlayerVoteDetail struct {
	PlayerID      string `json:"player_id"`
	PlayerName    string `json:"player_name"`
	VotedFor      string `json:"voted_for"`
	WasCorrect    bool   `json:"was_correct"`
	FakeAnswer    string `json:"fake_answer,omitempty"`
	VotesReceived int    `json:"votes_received"`
}

// Reaction is one player's emoji response to a revealed answer.
type Reaction struct {
	Emoji      string `json:"emoji"`
	PlayerName string `json:"player_name"`
}

type FinalScore struct {
	PlayerID     string `json:"player_id"`
	PlayerName   string `json:"player_name"`
	CorrectCount int    `json:"correct_count"`
	BonusScore   int    `json:"bonus_score"`
	TotalScore   int    `json:"total_score"`
}

type QuestionSummary struct {
	Index         int    `json:"index"`
	Text          string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
	Category      string `json:"category,omitempty"`
}
