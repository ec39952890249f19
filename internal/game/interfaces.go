package game

import (
	"context"

	"github.com/denizokt/fibbr-backend/internal"
)

// QuestionSource supplies the active question pool a game is drawn from.
type QuestionSource interface {
	FetchActiveQuestions(ctx context.Context) ([]internal.Question, error)
}

// StatsRecorder receives aggregate game events. Calls are fire-and-forget:
// failures are logged and never affect game flow.
type StatsRecorder interface {
	RecordGameStarted(ctx context.Context, roomCode string, playerCount int) error
	RecordGameFinished(ctx context.Context, roomCode string, scores []internal.FinalScore, accountIDs map[string]string) error
}

// AccountLinker resolves an optional connection token to a stable
// external user id, used only to attribute post-game statistics.
type AccountLinker interface {
	LinkedAccount(ctx context.Context, token string) (string, bool)
}
