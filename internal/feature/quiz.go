package feature

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"

	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// QuizSource attempt endpoints (api.QuizService).
type QuizSource interface {
	Start(ctx context.Context, quizID int) (models.QuizAttempt, error)
	Questions(ctx context.Context, attemptID int) ([]models.QuizQuestion, error)
	Submit(ctx context.Context, req models.SubmitAttemptRequest) (models.AttemptResult, error)
	IssueCertificate(ctx context.Context, attemptID int) (models.Certificate, error)
}

// ErrNoAttempt an answer or submission was made before an attempt was started.
var ErrNoAttempt = errors.New("no quiz attempt in progress")

// QuizState snapshot of one quiz attempt.
type QuizState struct {
	Attempt     state.Resource[models.QuizAttempt]
	Selected    map[int]int // question id -> answer id
	Result      state.Resource[models.AttemptResult]
	Certificate state.Resource[models.Certificate]
	Errors      ValidationErrors
}

var (
	attemptLens = state.Lens[QuizState, models.QuizAttempt]{
		Get: func(s QuizState) state.Resource[models.QuizAttempt] { return s.Attempt },
		Set: func(s QuizState, r state.Resource[models.QuizAttempt]) QuizState { s.Attempt = r; return s },
	}
	resultLens = state.Lens[QuizState, models.AttemptResult]{
		Get: func(s QuizState) state.Resource[models.AttemptResult] { return s.Result },
		Set: func(s QuizState, r state.Resource[models.AttemptResult]) QuizState { s.Result = r; return s },
	}
	certificateLens = state.Lens[QuizState, models.Certificate]{
		Get: func(s QuizState) state.Resource[models.Certificate] { return s.Certificate },
		Set: func(s QuizState, r state.Resource[models.Certificate]) QuizState { s.Certificate = r; return s },
	}
)

// Quiz certification attempt flow: start, answer, submit, certificate.
type Quiz struct {
	holder[QuizState]
	src QuizSource
}

func NewQuiz(parent context.Context, src QuizSource, logger *zap.Logger) *Quiz {
	return &Quiz{holder: newHolder(parent, QuizState{}, logger, "quiz"), src: src}
}

// Start opens a new attempt and discards any previous answers and result.
// An attempt that comes back without questions has them fetched separately.
func (q *Quiz) Start(ctx context.Context, quizID int) error {
	return load(ctx, q.holder, attemptLens, "quiz_attempt", func(ctx context.Context) (models.QuizAttempt, error) {
		a, err := q.src.Start(ctx, quizID)
		if err != nil || len(a.Questions) > 0 {
			return a, err
		}
		a.Questions, err = q.src.Questions(ctx, a.ID)
		return a, err
	}, func(s QuizState, _ models.QuizAttempt) QuizState {
		s.Selected = map[int]int{}
		s.Result = state.Resource[models.AttemptResult]{}
		s.Certificate = state.Resource[models.Certificate]{}
		s.Errors = nil
		return s
	})
}

// Select records the chosen answer for a question of the current attempt.
func (q *Quiz) Select(questionID, answerID int) error {
	var err error
	q.store.Update(func(s QuizState) QuizState {
		if !s.Attempt.Loaded() {
			err = ErrNoAttempt
			return s
		}
		if !answerBelongs(s.Attempt.Data, questionID, answerID) {
			err = fmt.Errorf("answer %d is not an option of question %d", answerID, questionID)
			return s
		}
		sel := maps.Clone(s.Selected)
		if sel == nil {
			sel = map[int]int{}
		}
		sel[questionID] = answerID
		s.Selected = sel
		return s
	})
	return err
}

// Unanswered question ids still without a selection, in question order.
func (q *Quiz) Unanswered() []int {
	s := q.State()
	var out []int
	for _, qq := range s.Attempt.Data.Questions {
		if _, ok := s.Selected[qq.ID]; !ok {
			out = append(out, qq.ID)
		}
	}
	return out
}

// Submit scores the attempt; a passing result requests the certificate.
func (q *Quiz) Submit(ctx context.Context) (models.AttemptResult, error) {
	s := q.State()
	if !s.Attempt.Loaded() {
		return models.AttemptResult{}, ErrNoAttempt
	}
	errs := ValidationErrors{}
	for _, id := range q.Unanswered() {
		errs.add(strconv.Itoa(id), "Seleccione una respuesta")
	}
	q.store.Update(func(s QuizState) QuizState {
		s.Errors = errs
		return s
	})
	if err := errs.err(); err != nil {
		return models.AttemptResult{}, err
	}

	req := models.SubmitAttemptRequest{AttemptID: s.Attempt.Data.ID}
	for _, qq := range s.Attempt.Data.Questions {
		req.Answers = append(req.Answers, models.SubmittedAnswer{QuestionID: qq.ID, AnswerID: s.Selected[qq.ID]})
	}
	if err := load(ctx, q.holder, resultLens, "quiz_result", func(ctx context.Context) (models.AttemptResult, error) {
		return q.src.Submit(ctx, req)
	}, nil); err != nil {
		return models.AttemptResult{}, err
	}

	res := q.State().Result.Data
	q.logger.Info("Quiz attempt scored",
		zap.Int("attempt_id", res.AttemptID),
		zap.Float64("score", res.Score),
		zap.Bool("passed", res.Passed),
	)
	if res.Passed {
		err := load(ctx, q.holder, certificateLens, "certificate", func(ctx context.Context) (models.Certificate, error) {
			return q.src.IssueCertificate(ctx, res.AttemptID)
		}, nil)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func answerBelongs(a models.QuizAttempt, questionID, answerID int) bool {
	for _, qq := range a.Questions {
		if qq.ID != questionID {
			continue
		}
		for _, ans := range qq.Answers {
			if ans.ID == answerID {
				return true
			}
		}
	}
	return false
}
