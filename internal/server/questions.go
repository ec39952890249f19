package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/denizokt/fibbr-backend/internal"
	"github.com/denizokt/fibbr-backend/internal/store"
)

// Question bank administration. These endpoints feed the game, not the
// players: the hub only reads the bank through game.QuestionSource.

func (s *Server) ListQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	questions, err := s.questions.ListQuestions(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) GetQuestionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}

	question, err := s.questions.GetQuestion(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (s *Server) CreateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	var question internal.Question
	if err := json.NewDecoder(r.Body).Decode(&question); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if question.Text == "" || question.CorrectAnswer == "" {
		http.Error(w, "question_text and correct_answer are required", http.StatusBadRequest)
		return
	}

	id, err := s.questions.CreateQuestion(r.Context(), question)
	if err != nil {
		s.storeError(w, err)
		return
	}
	question.ID = id
	writeJSON(w, http.StatusCreated, question)
}

func (s *Server) UpdateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}

	var question internal.Question
	if err := json.NewDecoder(r.Body).Decode(&question); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	question.ID = id

	if err := s.questions.UpdateQuestion(r.Context(), question); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (s *Server) DeleteQuestionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}

	if err := s.questions.DeleteQuestion(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := s.questions.ListCategories(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrQuestionNotFound):
		http.Error(w, "question not found", http.StatusNotFound)
	case errors.Is(err, store.ErrDuplicateQuestion):
		http.Error(w, "question text already exists", http.StatusConflict)
	default:
		log.Printf("[storeError] %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
