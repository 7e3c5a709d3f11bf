// Package pipeline turns fetched goals into progress values and summary statistics.
package pipeline

import (
	"math"
	"time"

	"github.com/theirongolddev/sgp/internal/model"
)

// Band thresholds, applied to the unclamped ratio.
const (
	completeAt   = 1.0
	warningAbove = 0.7
)

// Ratio returns saved/target, or 0 when target is not positive.
// Non-finite inputs are treated as 0.
func Ratio(saved, target float64) float64 {
	saved, target = coerce(saved), coerce(target)
	if target <= 0 {
		return 0
	}
	return saved / target
}

// PercentDisplay rounds ratio*100 half-up. It is not clamped, so an
// over-saved goal reports more than 100.
func PercentDisplay(ratio float64) int {
	return roundHalfUp(coerce(ratio) * 100)
}

// PercentForBar returns ratio*100 clamped to [0,100].
func PercentForBar(ratio float64) float64 {
	p := coerce(ratio) * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// BandFor maps an unclamped ratio to its status band.
// The 0.7 boundary itself is danger; 1.0 is complete.
func BandFor(ratio float64) model.Band {
	ratio = coerce(ratio)
	switch {
	case ratio >= completeAt:
		return model.BandComplete
	case ratio > warningAbove:
		return model.BandWarning
	default:
		return model.BandDanger
	}
}

// Evaluate computes every progress value for one saved/target pair.
func Evaluate(saved, target float64) model.Progress {
	r := Ratio(saved, target)
	return model.Progress{
		Ratio:          r,
		PercentDisplay: PercentDisplay(r),
		PercentForBar:  PercentForBar(r),
		Band:           BandFor(r),
	}
}

// EvaluateGoal is Evaluate applied to a goal's amounts.
func EvaluateGoal(g model.Goal) model.Progress {
	return Evaluate(g.Saved(), g.Target())
}

// IsCompleted reports whether saved has reached target. A goal with both
// amounts at 0 counts as completed.
func IsCompleted(g model.Goal) bool {
	return g.Saved() >= g.Target()
}

// DaysLeft returns whole days from now until the goal's deadline, negative
// once it has passed. ok is false when the deadline does not parse.
func DaysLeft(g model.Goal, now time.Time) (days int, ok bool) {
	d, ok := g.DeadlineTime()
	if !ok {
		return 0, false
	}
	now = now.In(d.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.Location())
	due := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return int(math.Round(due.Sub(today).Hours() / 24)), true
}

func coerce(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// roundHalfUp rounds toward +Inf on .5, so 72.5 -> 73 and -0.5 -> 0.
func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}
