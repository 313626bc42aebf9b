// Package scoring holds the pure per-variant scoring functions. Each maps a
// submitted answer, the ground truth, and timing into an integer point value.
package scoring

import (
	"math"
	"time"
)

// SingleChoice scores a single-choice answer: 0 when wrong, otherwise the
// speed score between 1000 (instant) and 500 (at the deadline).
func SingleChoice(selected, correct int, responseTime, timerDuration time.Duration) int {
	if selected != correct {
		return 0
	}
	return speedScore(responseTime, timerDuration)
}

// MultiChoice requires an exact set match, no partial credit. On a match the
// speed score applies as for single-choice.
func MultiChoice(selected, correct []int, responseTime, timerDuration time.Duration) int {
	if len(selected) != len(correct) {
		return 0
	}
	chosen := make(map[int]struct{}, len(selected))
	for _, idx := range selected {
		chosen[idx] = struct{}{}
	}
	if len(chosen) != len(correct) {
		return 0
	}
	for _, idx := range correct {
		if _, ok := chosen[idx]; !ok {
			return 0
		}
	}
	return speedScore(responseTime, timerDuration)
}

// Slider scores by log-scale proximity:
//
//	error = |log10(guess) - log10(correct)|
//	range = log10(max) - log10(min)
//	score = round(1000 * max(0, 1 - error/range))
//
// Non-positive inputs or a degenerate range score 0.
func Slider(guess, correct, min, max float64) int {
	if guess <= 0 || correct <= 0 || min <= 0 || max <= 0 {
		return 0
	}
	span := math.Log10(max) - math.Log10(min)
	if span <= 0 {
		return 0
	}
	err := math.Abs(math.Log10(guess) - math.Log10(correct))
	return int(math.Round(1000 * math.Max(0, 1-err/span)))
}

// Ranking scores pairwise concordance over all n*(n-1)/2 unordered pairs,
// scaled by a speed multiplier:
//
//	accuracy = concordant / totalPairs
//	speed    = 1 - responseTime/timerDuration/2
//	score    = round(accuracy * (0.75 + 0.25*speed) * 1000)
//
// The speed multiplier is intentionally not clamped: admission and resolution
// use different clocks, so a very late but still-admitted response can push
// it negative. Fewer than two items trivially score 1000.
func Ranking(submitted, correct []int, responseTime, timerDuration time.Duration) int {
	n := len(correct)
	if n < 2 {
		return 1000
	}

	pos := make(map[int]int, len(submitted))
	for i, item := range submitted {
		pos[item] = i
	}

	concordant := 0
	totalPairs := n * (n - 1) / 2
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if pos[correct[i]] < pos[correct[j]] {
				concordant++
			}
		}
	}

	accuracy := float64(concordant) / float64(totalPairs)
	speed := 1 - float64(responseTime)/float64(timerDuration)/2
	return int(math.Round(accuracy * (0.75 + 0.25*speed) * 1000))
}

// speedScore maps elapsed response time onto [500, 1000], clamped at the
// timer bounds: floor((1 - clamp(rt/td, 0, 1)/2) * 1000).
func speedScore(responseTime, timerDuration time.Duration) int {
	ratio := float64(responseTime) / float64(timerDuration)
	ratio = math.Min(1, math.Max(0, ratio))
	return int(math.Floor((1 - ratio/2) * 1000))
}
