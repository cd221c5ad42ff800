package engine

import (
	"context"
	"errors"
	"time"

	"github.com/prashnahq/pariksha-backend/internal/model"
)

// Phase is the session lifecycle phase. Warned is Active with an
// unacknowledged integrity warning; mutations stay accepted. Submitted
// is terminal and one-way.
type Phase string

const (
	PhaseActive    Phase = "active"
	PhaseWarned    Phase = "warned"
	PhaseSubmitted Phase = "submitted"
)

// Engine errors.
var (
	// ErrSessionSubmitted is returned for mutation requests after the
	// terminal transition. The request is a no-op; the submitted ledger
	// is never altered.
	ErrSessionSubmitted = errors.New("session already submitted")
	// ErrSessionClosed is returned when the session loop has been torn down.
	ErrSessionClosed = errors.New("session closed")
)

// SnapshotStore persists the session snapshot keyed by test id.
// Load returns (nil, nil) when no usable snapshot exists — a corrupt
// snapshot is discarded by the store, not surfaced as an error.
type SnapshotStore interface {
	Save(ctx context.Context, testID string, snap *model.Snapshot) error
	Load(ctx context.Context, testID string) (*model.Snapshot, error)
	Delete(ctx context.Context, testID string) error
}

// SubmissionSink receives the final answer ledger on the terminal
// transition. The engine fires and forgets; delivery retries are the
// sink's concern.
type SubmissionSink interface {
	Submit(ctx context.Context, sub *model.Submission) error
}

// ViolationReporter receives individual integrity violation events for
// proctor visibility and durable logging. Best-effort.
type ViolationReporter interface {
	Report(ctx context.Context, v model.Violation)
}

// Options tunes the session cadences. Zero values take the production
// defaults; tests shrink the intervals to run simulated time.
type Options struct {
	TickInterval     time.Duration // countdown cadence, default 1s
	SnapshotInterval time.Duration // autosave cadence, default 5s
	ViolationLimit   int           // forced-submission threshold, default 3
	BlurWindow       time.Duration // content obscuring window after blur, default 500ms
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.SnapshotInterval <= 0 {
		o.SnapshotInterval = 5 * time.Second
	}
	if o.ViolationLimit <= 0 {
		o.ViolationLimit = 3
	}
	if o.BlurWindow <= 0 {
		o.BlurWindow = 500 * time.Millisecond
	}
	return o
}

// EventKind enumerates session events pushed to the hosting shell.
type EventKind string

const (
	EventClock     EventKind = "clock"
	EventWarning   EventKind = "warning"
	EventSubmitted EventKind = "submitted"
)

// Event is a push notification from the session loop, fanned out to
// every subscriber. Delivery is best-effort per subscriber: one that
// falls behind drops clock ticks first, never warnings or the terminal
// event (those are buffered ahead of ticks).
type Event struct {
	Kind           EventKind           `json:"kind"`
	Clock          string              `json:"clock,omitempty"`
	Remaining      int                 `json:"remaining,omitempty"`
	ViolationCount int                 `json:"violation_count,omitempty"`
	Forced         bool                `json:"forced,omitempty"`
	Trigger        model.SubmitTrigger `json:"trigger,omitempty"`
}

// PaletteEntry is one cell of the question palette. Index is always the
// absolute position in the full question sequence, also when the
// palette is narrowed by a subject filter.
type PaletteEntry struct {
	Index      int                `json:"index"`
	QuestionID string             `json:"question_id"`
	Status     model.AnswerStatus `json:"status"`
	Current    bool               `json:"current"`
}

// View is a read-only projection of the session state for rendering.
type View struct {
	Phase           Phase          `json:"phase"`
	CurrentIndex    int            `json:"current_index"`
	SubjectFilter   string         `json:"subject_filter,omitempty"`
	Remaining       int            `json:"remaining"`
	Clock           string         `json:"clock"`
	ViolationCount  int            `json:"violation_count"`
	WarningPending  bool           `json:"warning_pending"`
	Fullscreen      bool           `json:"fullscreen"`
	ContentObscured bool           `json:"content_obscured"`
	Counts          StatusCounts   `json:"counts"`
	Palette         []PaletteEntry `json:"palette"`
	Answers         []model.Answer `json:"answers"`
}
