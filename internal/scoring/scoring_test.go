package scoring

import (
	"testing"
	"time"
)

const timer = 10 * time.Second

func TestSingleChoiceSpeedCurve(t *testing.T) {
	if got := SingleChoice(1, 1, 0, timer); got != 1000 {
		t.Fatalf("instant correct answer: expected 1000, got %d", got)
	}
	if got := SingleChoice(1, 1, timer, timer); got != 500 {
		t.Fatalf("deadline correct answer: expected 500, got %d", got)
	}
	if got := SingleChoice(0, 1, 0, timer); got != 0 {
		t.Fatalf("wrong answer: expected 0, got %d", got)
	}
	if got := SingleChoice(1, 1, timer/2, timer); got != 750 {
		t.Fatalf("halfway answer: expected 750, got %d", got)
	}
	// response times outside the window clamp to the bounds
	if got := SingleChoice(1, 1, -time.Second, timer); got != 1000 {
		t.Fatalf("negative response time clamps to 1000, got %d", got)
	}
	if got := SingleChoice(1, 1, 2*timer, timer); got != 500 {
		t.Fatalf("overlong response time clamps to 500, got %d", got)
	}
}

func TestMultiChoiceExactSetOnly(t *testing.T) {
	correct := []int{1, 3}

	if got := MultiChoice([]int{3, 1}, correct, 0, timer); got != 1000 {
		t.Fatalf("order must not matter, got %d", got)
	}
	if got := MultiChoice([]int{1}, correct, 0, timer); got != 0 {
		t.Fatalf("subset must score 0, got %d", got)
	}
	if got := MultiChoice([]int{1, 3, 0}, correct, 0, timer); got != 0 {
		t.Fatalf("superset must score 0, got %d", got)
	}
	if got := MultiChoice([]int{1, 2}, correct, 0, timer); got != 0 {
		t.Fatalf("mismatch must score 0, got %d", got)
	}
	if got := MultiChoice([]int{1, 1}, correct, 0, timer); got != 0 {
		t.Fatalf("duplicate selection must not pass as exact set, got %d", got)
	}
}

func TestSliderLogProximity(t *testing.T) {
	if got := Slider(100, 100, 1, 10000); got != 1000 {
		t.Fatalf("exact guess: expected 1000, got %d", got)
	}
	if got := Slider(1, 10000, 1, 10000); got != 0 {
		t.Fatalf("maximal error: expected 0, got %d", got)
	}
	// one decade off across four decades of range
	if got := Slider(1000, 100, 1, 10000); got != 750 {
		t.Fatalf("one decade off: expected 750, got %d", got)
	}
	if got := Slider(0, 100, 1, 10000); got != 0 {
		t.Fatalf("non-positive guess: expected 0, got %d", got)
	}
	if got := Slider(50, 100, 10, 10); got != 0 {
		t.Fatalf("degenerate range: expected 0, got %d", got)
	}
}

func TestRankingConcordance(t *testing.T) {
	correct := []int{0, 1, 2}

	if got := Ranking([]int{0, 1, 2}, correct, 0, timer); got != 1000 {
		t.Fatalf("perfect instant ranking: expected 1000, got %d", got)
	}
	if got := Ranking([]int{2, 1, 0}, correct, 0, timer); got != 0 {
		t.Fatalf("fully reversed ranking: expected 0, got %d", got)
	}
	// one adjacent swap leaves 2 of 3 pairs concordant:
	// round(2/3 * (0.75 + 0.25) * 1000) = 667
	if got := Ranking([]int{1, 0, 2}, correct, 0, timer); got != 667 {
		t.Fatalf("single swap: expected 667, got %d", got)
	}
	// at the deadline the multiplier is 0.875: round(0.875 * 1000) = 875
	if got := Ranking([]int{0, 1, 2}, correct, timer, timer); got != 875 {
		t.Fatalf("deadline perfect ranking: expected 875, got %d", got)
	}
	if got := Ranking([]int{0}, []int{0}, 0, timer); got != 1000 {
		t.Fatalf("single item trivially scores 1000, got %d", got)
	}
}

func TestRankingSpeedMultiplierIsNotClamped(t *testing.T) {
	correct := []int{0, 1, 2}
	// three timer durations late: speed = 1 - 3/2 = -0.5,
	// round(1 * (0.75 + 0.25*-0.5) * 1000) = 625
	if got := Ranking([]int{0, 1, 2}, correct, 3*timer, timer); got != 625 {
		t.Fatalf("late ranking must use the unclamped multiplier, got %d", got)
	}
}
