package engine

import (
	"testing"

	"github.com/google/uuid"

	"github.com/prashnahq/pariksha-backend/internal/model"
)

func subjectQuestions() []model.Question {
	subjects := []string{"physics", "physics", "chemistry", "math", "chemistry"}
	qs := make([]model.Question, len(subjects))
	for i, s := range subjects {
		qs[i] = model.Question{ID: uuid.New(), SubjectID: s, OrderNum: i}
	}
	return qs
}

func TestGoToBounds(t *testing.T) {
	n := NewNavigator(subjectQuestions())

	if n.GoTo(-1) {
		t.Error("GoTo(-1) must be ignored")
	}
	if n.GoTo(5) {
		t.Error("GoTo(len) must be ignored")
	}
	if n.Index() != 0 {
		t.Errorf("index changed by out-of-range GoTo: %d", n.Index())
	}

	if !n.GoTo(3) {
		t.Error("GoTo(3) must succeed")
	}
	if n.Index() != 3 {
		t.Errorf("expected index 3, got %d", n.Index())
	}
}

func TestNextPreviousClamp(t *testing.T) {
	n := NewNavigator(subjectQuestions())

	if n.Previous() {
		t.Error("Previous at first question must not move")
	}

	for i := 0; i < 10; i++ {
		n.Next()
	}
	if n.Index() != 4 {
		t.Errorf("expected clamp at last question, got %d", n.Index())
	}
	if n.Next() {
		t.Error("Next at last question must not move")
	}
}

func TestSubjectFilterKeepsAbsoluteIndexes(t *testing.T) {
	n := NewNavigator(subjectQuestions())
	n.GoTo(1)

	n.SetFilter("chemistry")

	// The filter narrows the visible palette but neither the question
	// order nor the cursor.
	if n.Index() != 1 {
		t.Errorf("filter moved the cursor to %d", n.Index())
	}
	visible := n.Visible()
	if len(visible) != 2 || visible[0] != 2 || visible[1] != 4 {
		t.Errorf("expected visible [2 4], got %v", visible)
	}

	// Selecting from the filtered palette uses the absolute index.
	if !n.GoTo(visible[1]) {
		t.Error("selection from filtered palette must succeed")
	}
	if n.Index() != 4 {
		t.Errorf("expected absolute index 4, got %d", n.Index())
	}

	n.SetFilter("")
	if got := len(n.Visible()); got != 5 {
		t.Errorf("cleared filter should show all 5, got %d", got)
	}
}

func TestNavigatorRestoreClamps(t *testing.T) {
	n := NewNavigator(subjectQuestions())

	n.Restore(99)
	if n.Index() != 4 {
		t.Errorf("expected clamp to last index, got %d", n.Index())
	}
	n.Restore(-3)
	if n.Index() != 0 {
		t.Errorf("expected clamp to 0, got %d", n.Index())
	}
}
