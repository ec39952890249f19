package game

import "errors"

// Every rejection the state machine can hand back to the boundary
// adapter. All are local, recoverable and user-facing; none terminate
// the room.
var (
	ErrInvalidPhase           = errors.New("action not allowed in current phase")
	ErrUnknownPlayer          = errors.New("player not in room")
	ErrRoomFull               = errors.New("room is full")
	ErrNameConflict           = errors.New("display name already taken")
	ErrCorrectAnswerSubmitted = errors.New("cannot submit the correct answer as a fake")
	ErrDuplicateAnswer        = errors.New("another player already submitted that answer")
	ErrOwnAnswerVoted         = errors.New("cannot vote for your own fake answer")
	ErrNotAuthorized          = errors.New("only the host may do that")
	ErrInsufficientPlayers    = errors.New("not enough players to start")
	ErrNoQuestions            = errors.New("question pool is empty")
)
