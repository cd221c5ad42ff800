package model

import (
	"github.com/google/uuid"
)

// AnswerStatus is the derived palette status of a question. It is
// recomputed from the answer's source fields on demand and never
// persisted, so it cannot diverge from them.
type AnswerStatus string

const (
	StatusAnsweredMarked AnswerStatus = "answered-marked-review"
	StatusMarked         AnswerStatus = "marked-review"
	StatusAnswered       AnswerStatus = "answered"
	StatusNotAnswered    AnswerStatus = "not-answered"
)

// Answer is the per-question answer state. SelectedOption is the option
// index as a string, nil while unset. JSON field names follow the
// snapshot persistence contract.
type Answer struct {
	QuestionID      uuid.UUID `json:"questionId"`
	SelectedOption  *string   `json:"selectedOption"`
	MarkedForReview bool      `json:"markedForReview"`
}

// Status derives the palette status. Precedence when several conditions
// hold: answered-and-marked, marked-only, answered, not-answered.
func (a Answer) Status() AnswerStatus {
	switch {
	case a.MarkedForReview && a.SelectedOption != nil:
		return StatusAnsweredMarked
	case a.MarkedForReview:
		return StatusMarked
	case a.SelectedOption != nil:
		return StatusAnswered
	default:
		return StatusNotAnswered
	}
}

// Snapshot is the persisted projection of a running session, keyed by
// test id. Only source fields are stored; derived status is not.
type Snapshot struct {
	Answers              []Answer `json:"answers"`
	CurrentQuestionIndex int      `json:"currentQuestionIndex"`
	RemainingTime        int      `json:"remainingTime"`
}
