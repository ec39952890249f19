package internal

import "time"

// Round holds the immutable question payload for one round plus the
// mutable submission/vote/reaction state accumulated while it is played.
// Rounds are appended to the room's list when they begin and kept for
// the remainder of the room's life.
type Round struct {
	QuestionID        int    `json:"question_id"`
	QuestionText      string `json:"question_text"`
	CorrectAnswer     string `json:"correct_answer"`
	AcceptableAnswers string `json:"acceptable_answers,omitempty"`

	// FakeAnswers maps player id to their normalized submission. An
	// empty value is a recorded skip: it counts toward completion but
	// never enters the option pool.
	FakeAnswers map[string]string `json:"fake_answers"`

	// Votes maps player id to the normalized answer they chose. Empty
	// means an explicit skip.
	Votes map[string]string `json:"votes"`

	// AllOptions is the shuffled voting pool: every non-empty fake
	// answer plus the normalized correct answer.
	AllOptions []string `json:"all_options"`

	StartTime       time.Time `json:"start_time"`
	VotingStartTime time.Time `json:"voting_start_time"`

	// Reactions maps normalized answer text -> player id -> reaction.
	Reactions map[string]map[string]Reaction `json:"reactions"`
}

func NewRound(q Question) *Round {
	return &Round{
		QuestionID:        q.ID,
		QuestionText:      q.Text,
		CorrectAnswer:     q.CorrectAnswer,
		AcceptableAnswers: q.AcceptableAnswers,
		FakeAnswers:       make(map[string]string),
		Votes:             make(map[string]string),
		Reactions:         make(map[string]map[string]Reaction),
		StartTime:         time.Now(),
	}
}

// VotesFor counts votes cast for the given normalized answer.
func (r *Round) VotesFor(answer string) int {
	if answer == "" {
		return 0
	}
	count := 0
	for _, v := range r.Votes {
		if v == answer {
			count++
		}
	}
	return count
}
