package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denizokt/fibbr-backend/internal"
)

var (
	ErrQuestionNotFound     = errors.New("question not found")
	ErrDuplicateQuestion    = errors.New("question text already exists")
	UnexpectedDatabaseError = errors.New("unexpected database error")
)

// Schema holds the tables the store expects. Tests apply it to a fresh
// container; deployments run it once at provisioning.
const Schema = `
CREATE TABLE IF NOT EXISTS questions (
	id SERIAL PRIMARY KEY,
	question_text TEXT NOT NULL UNIQUE,
	correct_answer TEXT NOT NULL,
	acceptable_answers TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	difficulty TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	api_token TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS game_stats (
	id SERIAL PRIMARY KEY,
	room_code TEXT NOT NULL,
	player_count INT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS game_results (
	id SERIAL PRIMARY KEY,
	room_code TEXT NOT NULL,
	player_name TEXT NOT NULL,
	account_id TEXT,
	correct_count INT NOT NULL,
	bonus_score INT NOT NULL,
	total_score INT NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Store is the pgx-backed question bank and statistics sink.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const questionColumns = "id, question_text, correct_answer, acceptable_answers, category, difficulty, is_active"

// FetchActiveQuestions returns every question eligible for drawing into
// a game.
func (s *Store) FetchActiveQuestions(ctx context.Context) ([]internal.Question, error) {
	query := "SELECT " + questionColumns + " FROM questions WHERE is_active ORDER BY id"

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// ListQuestions returns all questions, optionally filtered by category.
func (s *Store) ListQuestions(ctx context.Context, category string) ([]internal.Question, error) {
	query := "SELECT " + questionColumns + " FROM questions"
	args := []any{}
	if category != "" {
		query += " WHERE category = $1"
		args = append(args, category)
	}
	query += " ORDER BY id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func scanQuestions(rows pgx.Rows) ([]internal.Question, error) {
	questions := make([]internal.Question, 0)
	for rows.Next() {
		var q internal.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.CorrectAnswer, &q.AcceptableAnswers,
			&q.Category, &q.Difficulty, &q.IsActive); err != nil {
			return nil, fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}
	return questions, nil
}

func (s *Store) GetQuestion(ctx context.Context, id int) (internal.Question, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+questionColumns+" FROM questions WHERE id = $1", id)

	var q internal.Question
	err := row.Scan(&q.ID, &q.Text, &q.CorrectAnswer, &q.AcceptableAnswers,
		&q.Category, &q.Difficulty, &q.IsActive)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return internal.Question{}, ErrQuestionNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return internal.Question{}, err
		default:
			return internal.Question{}, fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
		}
	}
	return q, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q internal.Question) (int, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO questions(question_text, correct_answer, acceptable_answers, category, difficulty, is_active)
		 VALUES($1, $2, $3, $4, $5, $6) RETURNING id`,
		q.Text, q.CorrectAnswer, q.AcceptableAnswers, q.Category, q.Difficulty, q.IsActive)

	var id int
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// "23505" is the PostgreSQL error code for unique_violation
			if pgErr.Code == "23505" {
				return 0, ErrDuplicateQuestion
			}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
	}
	return id, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q internal.Question) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE questions
		 SET question_text = $1, correct_answer = $2, acceptable_answers = $3,
		     category = $4, difficulty = $5, is_active = $6
		 WHERE id = $7`,
		q.Text, q.CorrectAnswer, q.AcceptableAnswers, q.Category, q.Difficulty, q.IsActive, q.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateQuestion
		}
		return wrapQueryError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM questions WHERE id = $1", id)
	if err != nil {
		return wrapQueryError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT DISTINCT category FROM questions WHERE category <> '' ORDER BY category")
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}
	return categories, nil
}

// RecordGameStarted implements game.StatsRecorder.
func (s *Store) RecordGameStarted(ctx context.Context, roomCode string, playerCount int) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO game_stats(room_code, player_count) VALUES($1, $2)",
		roomCode, playerCount)
	if err != nil {
		return wrapQueryError(err)
	}
	return nil
}

// RecordGameFinished implements game.StatsRecorder: one result row per
// player, with the account id attached when the player was linked.
func (s *Store) RecordGameFinished(ctx context.Context, roomCode string, scores []internal.FinalScore, accountIDs map[string]string) error {
	for _, score := range scores {
		var accountID *string
		if id, ok := accountIDs[score.PlayerID]; ok {
			accountID = &id
		}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO game_results(room_code, player_name, account_id, correct_count, bonus_score, total_score)
			 VALUES($1, $2, $3, $4, $5, $6)`,
			roomCode, score.PlayerName, accountID, score.CorrectCount, score.BonusScore, score.TotalScore)
		if err != nil {
			return wrapQueryError(err)
		}
	}
	return nil
}

// LinkedAccount implements game.AccountLinker. Lookup failures other
// than a missing token are logged and treated as unlinked; joining must
// never fail because the users table is unreachable.
func (s *Store) LinkedAccount(ctx context.Context, token string) (string, bool) {
	row := s.pool.QueryRow(ctx, "SELECT id FROM users WHERE api_token = $1", token)

	var id string
	if err := row.Scan(&id); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("[LinkedAccount] lookup failed: %v", err)
		}
		return "", false
	}
	return id, true
}

func wrapQueryError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", UnexpectedDatabaseError, err)
}
