package engine

import (
	"github.com/prashnahq/pariksha-backend/internal/model"
)

// Navigator owns the current-question cursor and the subject filter.
// The filter narrows the palette view only; it never changes question
// order or the cursor, and palette selections map back to absolute
// indexes in the full sequence.
type Navigator struct {
	questions []model.Question
	index     int
	filter    string // subject id, "" = all
}

// NewNavigator starts at the first question with no filter.
func NewNavigator(questions []model.Question) *Navigator {
	return &Navigator{questions: questions}
}

// Index returns the absolute index of the current question.
func (n *Navigator) Index() int {
	return n.index
}

// GoTo moves the cursor to an absolute index. Out-of-range requests are
// silently ignored; the return value reports whether the cursor moved.
func (n *Navigator) GoTo(index int) bool {
	if index < 0 || index >= len(n.questions) {
		return false
	}
	n.index = index
	return true
}

// Next advances the cursor. No wraparound at the last question.
func (n *Navigator) Next() bool {
	return n.GoTo(n.index + 1)
}

// Previous moves the cursor back. No wraparound at the first question.
func (n *Navigator) Previous() bool {
	return n.GoTo(n.index - 1)
}

// SetFilter narrows the palette to one subject. Empty clears the filter.
func (n *Navigator) SetFilter(subjectID string) {
	n.filter = subjectID
}

// Filter returns the active subject filter, "" when showing all.
func (n *Navigator) Filter() string {
	return n.filter
}

// Visible returns the absolute indexes of questions matching the
// active filter, in definition order.
func (n *Navigator) Visible() []int {
	out := make([]int, 0, len(n.questions))
	for i, q := range n.questions {
		if n.filter == "" || q.SubjectID == n.filter {
			out = append(out, i)
		}
	}
	return out
}

// Restore sets the cursor from a recovered snapshot, clamped into range.
func (n *Navigator) Restore(index int) {
	if index < 0 {
		index = 0
	}
	if max := len(n.questions) - 1; index > max && max >= 0 {
		index = max
	}
	n.index = index
}
