package api

import (
	"context"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// QuizService /Quiz
type QuizService struct{ c *Client }

func NewQuizService(c *Client) *QuizService { return &QuizService{c: c} }

func (s *QuizService) List(ctx context.Context) ([]models.Quiz, error) {
	return Do[[]models.Quiz](ctx, s.c, Get("/Quiz"))
}

// Start opens a new attempt with its question list.
func (s *QuizService) Start(ctx context.Context, quizID int) (models.QuizAttempt, error) {
	return Do[models.QuizAttempt](ctx, s.c, Post("/Quiz/{id}/attempt", nil).With("id", quizID))
}

// Questions the ordered question list of an attempt.
func (s *QuizService) Questions(ctx context.Context, attemptID int) ([]models.QuizQuestion, error) {
	return Do[[]models.QuizQuestion](ctx, s.c, Get("/Quiz/attempt/{id}/questions").With("id", attemptID))
}

func (s *QuizService) Submit(ctx context.Context, req models.SubmitAttemptRequest) (models.AttemptResult, error) {
	r := Post("/Quiz/attempt/{id}/submit", req).With("id", req.AttemptID)
	return Do[models.AttemptResult](ctx, s.c, r)
}

func (s *QuizService) Attempts(ctx context.Context) ([]models.AttemptResult, error) {
	return Do[[]models.AttemptResult](ctx, s.c, Get("/Quiz/attempts"))
}

// Certificate returns the caller's certificate; a 404 means none was issued.
func (s *QuizService) Certificate(ctx context.Context) (models.Certificate, error) {
	return Do[models.Certificate](ctx, s.c, Get("/Quiz/certificate"))
}

func (s *QuizService) IssueCertificate(ctx context.Context, attemptID int) (models.Certificate, error) {
	return Do[models.Certificate](ctx, s.c, Post("/Quiz/certificate", map[string]int{"idIntento": attemptID}))
}
