package models

import "time"

// Quiz certification questionnaire
type Quiz struct {
	ID          int    `json:"id"`
	Title       string `json:"titulo"`
	Description string `json:"descripcion"`
	PassScore   int    `json:"puntajeMinimo"` // percentage 0-100
	Questions   int    `json:"totalPreguntas"`
}

// QuizQuestion one question of an attempt; Answers keep backend order.
type QuizQuestion struct {
	ID      int          `json:"id"`
	Order   int          `json:"orden"`
	Text    string       `json:"enunciado"`
	Answers []QuizAnswer `json:"respuestas"`
}

// QuizAnswer multiple-choice option. Correctness is never sent to the client.
type QuizAnswer struct {
	ID   int    `json:"id"`
	Text string `json:"texto"`
}

// QuizAttempt started attempt with its ordered question list
type QuizAttempt struct {
	ID        int            `json:"id"`
	QuizID    int            `json:"idCuestionario"`
	UserID    int            `json:"idUsuario"`
	StartedAt time.Time      `json:"fechaInicio"`
	Finished  bool           `json:"finalizado"`
	Questions []QuizQuestion `json:"preguntas"`
}

// SubmittedAnswer selected option for one question
type SubmittedAnswer struct {
	QuestionID int `json:"idPregunta"`
	AnswerID   int `json:"idRespuesta"`
}

// SubmitAttemptRequest body of POST /Quiz/attempt/{id}/submit
type SubmitAttemptRequest struct {
	AttemptID int               `json:"idIntento"`
	Answers   []SubmittedAnswer `json:"respuestas"`
}

// AttemptResult scored attempt
type AttemptResult struct {
	AttemptID  int       `json:"idIntento"`
	Correct    int       `json:"correctas"`
	Total      int       `json:"total"`
	Score      float64   `json:"puntaje"` // percentage 0-100
	Passed     bool      `json:"aprobado"`
	FinishedAt time.Time `json:"fechaFin"`
}

// Certificate issued once per user for a passing result (uniqueness enforced by the backend)
type Certificate struct {
	ID        int       `json:"id"`
	UserID    int       `json:"idUsuario"`
	AttemptID int       `json:"idIntento"`
	Code      string    `json:"codigoVerificacion"`
	IssuedAt  time.Time `json:"fechaEmision"`
	Score     float64   `json:"puntaje"`
	URL       string    `json:"url,omitempty"`
}
