package model

import (
	"github.com/google/uuid"
)

// Subject groups questions inside a test (e.g. Physics, Chemistry).
// IDs are human-readable slugs scoped to the test.
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Question is a single multiple-choice question. Text and options are
// pre-sanitized rich content (may contain markup or TeX-style notation)
// and must be passed through to the client untouched.
type Question struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Options   []string  `json:"options"`
	SubjectID string    `json:"subject_id"`
	OrderNum  int       `json:"order_num"`
}

// TestDefinition is the immutable description of a test. It is loaded
// once at session start and never mutated by the session engine.
type TestDefinition struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	Questions       []Question `json:"questions"`
	Subjects        []Subject  `json:"subjects"`
}

// DurationSeconds returns the total session duration in seconds.
func (t *TestDefinition) DurationSeconds() int {
	return t.DurationMinutes * 60
}

// TestSummary is the listing row shown on the student portal before a
// test is opened. Submitted reflects whether this student already has a
// recorded submission for the test.
type TestSummary struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
	QuestionCount   int       `json:"question_count"`
	Submitted       bool      `json:"submitted"`
}

// CreateTestRequest is the payload for creating a new test.
type CreateTestRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
}
