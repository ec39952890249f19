package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/denizokt/fibbr-backend/internal"
	"github.com/denizokt/fibbr-backend/internal/game"
)

// QuestionStore is the admin surface over the question bank.
type QuestionStore interface {
	ListQuestions(ctx context.Context, category string) ([]internal.Question, error)
	GetQuestion(ctx context.Context, id int) (internal.Question, error)
	CreateQuestion(ctx context.Context, q internal.Question) (int, error)
	UpdateQuestion(ctx context.Context, q internal.Question) error
	DeleteQuestion(ctx context.Context, id int) error
	ListCategories(ctx context.Context) ([]string, error)
}

type Server struct {
	hub       *game.Hub
	registry  *game.Registry
	questions QuestionStore

	// publicURL is the externally reachable base URL encoded into the
	// room share QR codes.
	publicURL string
}

func NewServer(port int, publicURL string, hub *game.Hub, registry *game.Registry, questions QuestionStore) *http.Server {
	s := &Server{
		hub:       hub,
		registry:  registry,
		questions: questions,
		publicURL: publicURL,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
