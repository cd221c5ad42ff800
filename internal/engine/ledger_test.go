package engine

import (
	"testing"

	"github.com/google/uuid"

	"github.com/prashnahq/pariksha-backend/internal/model"
)

func makeQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:        uuid.New(),
			Text:      "question",
			Options:   []string{"a", "b", "c", "d"},
			SubjectID: "physics",
			OrderNum:  i,
		}
	}
	return qs
}

func TestNewLedgerInitialization(t *testing.T) {
	qs := makeQuestions(5)
	l := NewLedger(qs)

	if l.Len() != 5 {
		t.Fatalf("expected 5 entries, got %d", l.Len())
	}
	for i, a := range l.Answers() {
		if a.QuestionID != qs[i].ID {
			t.Errorf("entry %d: question id mismatch", i)
		}
		if a.SelectedOption != nil || a.MarkedForReview {
			t.Errorf("entry %d: expected unset/unmarked, got %+v", i, a)
		}
		if got := a.Status(); got != model.StatusNotAnswered {
			t.Errorf("entry %d: expected not-answered, got %s", i, got)
		}
	}
}

func TestStatusPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		answer func(l *Ledger)
		want   model.AnswerStatus
	}{
		{
			name:   "answered and marked",
			answer: func(l *Ledger) { l.SetAnswer(0, "2"); l.ToggleReview(0) },
			want:   model.StatusAnsweredMarked,
		},
		{
			name:   "marked only",
			answer: func(l *Ledger) { l.ToggleReview(0) },
			want:   model.StatusMarked,
		},
		{
			name:   "answered only",
			answer: func(l *Ledger) { l.SetAnswer(0, "0") },
			want:   model.StatusAnswered,
		},
		{
			name:   "untouched",
			answer: func(l *Ledger) {},
			want:   model.StatusNotAnswered,
		},
		{
			name:   "mark then unmark keeps answer",
			answer: func(l *Ledger) { l.SetAnswer(0, "1"); l.ToggleReview(0); l.ToggleReview(0) },
			want:   model.StatusAnswered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(makeQuestions(3))
			tt.answer(l)
			if got := l.Status(0); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSetAnswerOverwrites(t *testing.T) {
	l := NewLedger(makeQuestions(2))

	l.SetAnswer(1, "0")
	l.SetAnswer(1, "3")

	a, ok := l.Answer(1)
	if !ok {
		t.Fatal("expected answer at index 1")
	}
	if a.SelectedOption == nil || *a.SelectedOption != "3" {
		t.Errorf("expected selected option 3, got %v", a.SelectedOption)
	}
}

func TestLedgerBounds(t *testing.T) {
	l := NewLedger(makeQuestions(2))

	if l.SetAnswer(-1, "0") || l.SetAnswer(2, "0") {
		t.Error("out-of-range SetAnswer must report false")
	}
	if l.ToggleReview(-1) || l.ToggleReview(2) {
		t.Error("out-of-range ToggleReview must report false")
	}
	for _, a := range l.Answers() {
		if a.SelectedOption != nil || a.MarkedForReview {
			t.Error("out-of-range mutation altered the ledger")
		}
	}
}

func TestCounts(t *testing.T) {
	l := NewLedger(makeQuestions(4))
	l.SetAnswer(0, "1")
	l.ToggleReview(1)
	l.SetAnswer(2, "0")
	l.ToggleReview(2)
	// index 3 untouched

	c := l.Counts()
	if c.Answered != 1 || c.Marked != 1 || c.AnsweredMarked != 1 || c.NotAnswered != 1 {
		t.Errorf("unexpected counts: %+v", c)
	}
}

func TestRestoreRejectsMismatch(t *testing.T) {
	l := NewLedger(makeQuestions(3))

	if l.Restore(make([]model.Answer, 2)) {
		t.Error("restore with wrong entry count must be rejected")
	}

	opt := "1"
	recovered := l.Answers()
	recovered[2].SelectedOption = &opt
	if !l.Restore(recovered) {
		t.Fatal("restore with matching entry count must succeed")
	}
	if got := l.Status(2); got != model.StatusAnswered {
		t.Errorf("expected answered after restore, got %s", got)
	}
}
