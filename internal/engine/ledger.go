package engine

import (
	"github.com/prashnahq/pariksha-backend/internal/model"
)

// Ledger holds per-question answer state in test definition order.
// Entries are created once at session initialization and never deleted
// individually; recovery replaces the whole ledger.
type Ledger struct {
	answers []model.Answer
}

// NewLedger initializes one unanswered, unmarked entry per question.
func NewLedger(questions []model.Question) *Ledger {
	answers := make([]model.Answer, len(questions))
	for i, q := range questions {
		answers[i] = model.Answer{QuestionID: q.ID}
	}
	return &Ledger{answers: answers}
}

// Len returns the number of ledger entries.
func (l *Ledger) Len() int {
	return len(l.answers)
}

// SetAnswer overwrites the selected option for the question at index.
// The option value is stored as passed; only the index is validated.
// Returns false for an out-of-range index.
func (l *Ledger) SetAnswer(index int, option string) bool {
	if index < 0 || index >= len(l.answers) {
		return false
	}
	l.answers[index].SelectedOption = &option
	return true
}

// ToggleReview flips the review flag for the question at index.
func (l *Ledger) ToggleReview(index int) bool {
	if index < 0 || index >= len(l.answers) {
		return false
	}
	l.answers[index].MarkedForReview = !l.answers[index].MarkedForReview
	return true
}

// Answer returns the entry at index.
func (l *Ledger) Answer(index int) (model.Answer, bool) {
	if index < 0 || index >= len(l.answers) {
		return model.Answer{}, false
	}
	return l.answers[index], true
}

// Answers returns a copy of the full ledger.
func (l *Ledger) Answers() []model.Answer {
	out := make([]model.Answer, len(l.answers))
	copy(out, l.answers)
	return out
}

// Status derives the palette status for the question at index.
func (l *Ledger) Status(index int) model.AnswerStatus {
	if index < 0 || index >= len(l.answers) {
		return model.StatusNotAnswered
	}
	return l.answers[index].Status()
}

// Restore replaces the whole ledger with recovered answers. A snapshot
// whose entry count does not match the test definition is unusable and
// is rejected.
func (l *Ledger) Restore(answers []model.Answer) bool {
	if len(answers) != len(l.answers) {
		return false
	}
	restored := make([]model.Answer, len(answers))
	copy(restored, answers)
	l.answers = restored
	return true
}

// StatusCounts summarizes the palette for the summary panel.
type StatusCounts struct {
	Answered       int `json:"answered"`
	Marked         int `json:"marked"`
	AnsweredMarked int `json:"answered_marked"`
	NotAnswered    int `json:"not_answered"`
}

// Counts tallies derived statuses across the ledger.
func (l *Ledger) Counts() StatusCounts {
	var c StatusCounts
	for i := range l.answers {
		switch l.answers[i].Status() {
		case model.StatusAnsweredMarked:
			c.AnsweredMarked++
		case model.StatusMarked:
			c.Marked++
		case model.StatusAnswered:
			c.Answered++
		default:
			c.NotAnswered++
		}
	}
	return c
}
