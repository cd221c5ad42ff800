package engine

import "testing"

func TestCountdownTick(t *testing.T) {
	c := NewCountdown(3)

	if c.Tick() {
		t.Error("tick 1: not expired yet")
	}
	if c.Tick() {
		t.Error("tick 2: not expired yet")
	}
	if !c.Tick() {
		t.Error("tick 3: expected expiry at zero")
	}
	if c.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", c.Remaining())
	}

	// Further ticks stay at zero.
	c.Tick()
	if c.Remaining() != 0 {
		t.Errorf("remaining went below zero: %d", c.Remaining())
	}
}

func TestCountdownRestoreClamps(t *testing.T) {
	c := NewCountdown(600)

	c.Restore(9999, 600)
	if c.Remaining() != 600 {
		t.Errorf("expected clamp to 600, got %d", c.Remaining())
	}

	c.Restore(-5, 600)
	if c.Remaining() != 0 {
		t.Errorf("expected clamp to 0, got %d", c.Remaining())
	}

	c.Restore(42, 600)
	if c.Remaining() != 42 {
		t.Errorf("expected 42, got %d", c.Remaining())
	}
}

func TestClockFormat(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{3599, "00:59:59"},
		{3600, "01:00:00"},
		{10800, "03:00:00"},
		{3725, "01:02:05"},
	}
	for _, tt := range tests {
		if got := Clock(tt.seconds); got != tt.want {
			t.Errorf("Clock(%d) = %s, want %s", tt.seconds, got, tt.want)
		}
	}
}
