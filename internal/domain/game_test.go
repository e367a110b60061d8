package domain

import (
	"math"
	"testing"
	"time"
)

func TestTimeControlSeconds(t *testing.T) {
	if got := (TimeControl{Minutes: 5}).InitialSeconds(); got != 300 {
		t.Fatalf("expected 300, got %d", got)
	}
	if got := (TimeControl{Minutes: 0.5}).InitialSeconds(); got != 30 {
		t.Fatalf("expected 30, got %d", got)
	}
}

func TestTimeControlValid(t *testing.T) {
	cases := map[float64]bool{5: true, 0.1: true, 0: false, -3: false, 0.001: false, math.NaN(): false, math.Inf(1): false}
	for m, want := range cases {
		if got := (TimeControl{Minutes: m}).Valid(); got != want {
			t.Fatalf("minutes=%v: expected %v, got %v", m, want, got)
		}
	}
}

func TestResultDurationNeverNegative(t *testing.T) {
	now := time.Now()
	r := &GameResult{StartedAt: now, EndedAt: now.Add(-time.Second)}
	if r.Duration() != 0 {
		t.Fatalf("expected zero duration, got %v", r.Duration())
	}
}
