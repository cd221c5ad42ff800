package engine

import (
	"testing"
	"time"
)

func TestViolationThreshold(t *testing.T) {
	m := NewMonitor(3, 500*time.Millisecond)

	if c, exceeded := m.RecordViolation(); c != 1 || exceeded {
		t.Errorf("first violation: count=%d exceeded=%v", c, exceeded)
	}
	if c, exceeded := m.RecordViolation(); c != 2 || exceeded {
		t.Errorf("second violation: count=%d exceeded=%v", c, exceeded)
	}
	if c, exceeded := m.RecordViolation(); c != 3 || !exceeded {
		t.Errorf("third violation: count=%d exceeded=%v", c, exceeded)
	}
}

func TestAcknowledgeDoesNotResetCount(t *testing.T) {
	m := NewMonitor(3, 500*time.Millisecond)

	m.RecordViolation()
	if !m.WarningPending() {
		t.Fatal("violation must raise the warning")
	}

	m.Acknowledge()
	if m.WarningPending() {
		t.Error("acknowledge must clear the warning display")
	}
	if m.Violations() != 1 {
		t.Errorf("acknowledge must not reset the count, got %d", m.Violations())
	}
}

func TestBlurWindowIsTransient(t *testing.T) {
	m := NewMonitor(3, 500*time.Millisecond)
	now := time.Now()

	m.Blur(now)
	if !m.ContentObscured(now.Add(100 * time.Millisecond)) {
		t.Error("content must be obscured inside the blur window")
	}
	if m.ContentObscured(now.Add(600 * time.Millisecond)) {
		t.Error("content must be restored after the blur window")
	}
	if m.Violations() != 0 {
		t.Error("blur must not count as a violation")
	}
}

func TestFullscreenToggle(t *testing.T) {
	m := NewMonitor(3, 500*time.Millisecond)

	if !m.ToggleFullscreen() {
		t.Error("first toggle must enable fullscreen")
	}
	if m.ToggleFullscreen() {
		t.Error("second toggle must disable fullscreen")
	}
	if m.Violations() != 0 {
		t.Error("fullscreen toggling must not count as a violation")
	}
}
