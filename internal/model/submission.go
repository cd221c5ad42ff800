package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmitTrigger records which terminal event ended a session.
type SubmitTrigger string

const (
	TriggerManual     SubmitTrigger = "manual"
	TriggerTimeout    SubmitTrigger = "timeout"
	TriggerViolations SubmitTrigger = "violations"
)

// Submission is the final answer ledger handed to the external
// collection path when a session reaches the Submitted phase. Grading
// happens downstream; the engine only emits raw answers.
type Submission struct {
	TestID      uuid.UUID     `json:"testId"`
	StudentID   int           `json:"student_id"`
	Answers     []Answer      `json:"answers"`
	Trigger     SubmitTrigger `json:"trigger"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// ViolationKind enumerates integrity violation types. Only visibility
// loss counts toward forced submission today.
type ViolationKind string

const (
	ViolationTabHidden ViolationKind = "tab-hidden"
)

// Violation is a timestamped integrity breach event. Individual events
// are persisted for proctor review; the session itself only tracks the
// running count.
type Violation struct {
	TestID     uuid.UUID     `json:"test_id"`
	StudentID  int           `json:"student_id"`
	Kind       ViolationKind `json:"kind"`
	Count      int           `json:"count"`
	OccurredAt time.Time     `json:"occurred_at"`
}
