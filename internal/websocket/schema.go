package websocket

import (
	"github.com/prashnahq/pariksha-backend/internal/engine"
	"github.com/prashnahq/pariksha-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer     Action = "answer"
	ActionReview     Action = "review"
	ActionGoTo       Action = "goto"
	ActionNext       Action = "next"
	ActionPrevious   Action = "previous"
	ActionFilter     Action = "filter"
	ActionSignal     Action = "signal"
	ActionAckWarning Action = "ack_warning"
	ActionFullscreen Action = "fullscreen"
	ActionSubmit     Action = "submit"
	ActionState      Action = "state"
	ActionPing       Action = "ping"
)

// Request carries every client action; unused fields stay zero. The
// envelope is flat so the handler can decode once and dispatch on
// Action.
type Request struct {
	Action Action `json:"action"`

	// answer, review, goto
	Index int `json:"index"`
	// answer
	Option string `json:"option"`
	// filter: subject id, empty clears
	Subject string `json:"subject"`
	// signal: visibility-lost, window-blurred, restricted-action,
	// fullscreen-toggled
	Signal string `json:"signal"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventClock     Event = "clock"
	EventWarning   Event = "warning"
	EventSubmitted Event = "submitted"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// StateResponse pushes the full render projection. Sent on connect and
// after every accepted mutation.
type StateResponse struct {
	Event Event       `json:"event"`
	State engine.View `json:"state"`
}

// ClockResponse is the once-a-second countdown push.
type ClockResponse struct {
	Event     Event  `json:"event"`
	Clock     string `json:"clock"`
	Remaining int    `json:"remaining"`
}

// WarningResponse tells the client to block the screen with the
// violation dialog. Final means the threshold was reached and a forced
// submission follows.
type WarningResponse struct {
	Event          Event `json:"event"`
	ViolationCount int   `json:"violation_count"`
	Final          bool  `json:"final"`
}

// SubmittedResponse is the terminal event.
type SubmittedResponse struct {
	Event   Event               `json:"event"`
	Trigger model.SubmitTrigger `json:"trigger"`
	Forced  bool                `json:"forced"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
