package engine

import "time"

// SignalKind enumerates integrity signals from the hosting shell.
// The shell translates browser-specific events (visibilitychange, blur,
// contextmenu, key combinations, fullscreenchange) into these variants
// so the engine never depends on event names.
type SignalKind string

const (
	SignalVisibilityLost    SignalKind = "visibility-lost"
	SignalWindowBlurred     SignalKind = "window-blurred"
	SignalRestrictedAction  SignalKind = "restricted-action"
	SignalFullscreenToggled SignalKind = "fullscreen-toggled"
)

// ParseSignal maps a wire value onto a SignalKind.
func ParseSignal(s string) (SignalKind, bool) {
	switch k := SignalKind(s); k {
	case SignalVisibilityLost, SignalWindowBlurred, SignalRestrictedAction, SignalFullscreenToggled:
		return k, true
	}
	return "", false
}

// Monitor accumulates integrity violations and tracks the cosmetic
// display flags. Only visibility loss counts toward the forced
// submission threshold; blur obscures content briefly, restricted
// actions are pure prevention, fullscreen is a display-mode flag.
type Monitor struct {
	limit          int
	blurWindow     time.Duration
	violations     int
	warningPending bool
	blurredUntil   time.Time
	fullscreen     bool
}

// NewMonitor creates a monitor with the given forced-submission
// threshold and blur suppression window.
func NewMonitor(limit int, blurWindow time.Duration) *Monitor {
	return &Monitor{limit: limit, blurWindow: blurWindow}
}

// RecordViolation counts one visibility-loss violation and raises the
// warning flag. The count is monotonic and not resettable within a
// session. Returns the new count and whether the threshold is reached.
func (m *Monitor) RecordViolation() (count int, exceeded bool) {
	m.violations++
	m.warningPending = true
	return m.violations, m.violations >= m.limit
}

// Blur opens the content-obscuring window. Purely cosmetic; no
// violation is counted.
func (m *Monitor) Blur(now time.Time) {
	m.blurredUntil = now.Add(m.blurWindow)
}

// ContentObscured reports whether content is currently suppressed.
func (m *Monitor) ContentObscured(now time.Time) bool {
	return now.Before(m.blurredUntil)
}

// Acknowledge clears the pending warning display. The violation count
// is untouched.
func (m *Monitor) Acknowledge() {
	m.warningPending = false
}

// ToggleFullscreen flips the display-mode flag and returns it.
func (m *Monitor) ToggleFullscreen() bool {
	m.fullscreen = !m.fullscreen
	return m.fullscreen
}

// Violations returns the running violation count.
func (m *Monitor) Violations() int {
	return m.violations
}

// WarningPending reports whether a warning awaits acknowledgement.
func (m *Monitor) WarningPending() bool {
	return m.warningPending
}

// Fullscreen reports the display-mode flag.
func (m *Monitor) Fullscreen() bool {
	return m.fullscreen
}
