package pipeline

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/theirongolddev/sgp/internal/model"
)

// Sort keys accepted by SortGoals.
const (
	SortName     = "name"
	SortProgress = "progress"
	SortDeadline = "deadline"
	SortTarget   = "target"
	SortSaved    = "saved"
)

// SortKeys lists the valid SortGoals keys.
var SortKeys = []string{SortName, SortProgress, SortDeadline, SortTarget, SortSaved}

// FilterByCategory returns goals in the given category (case-insensitive).
func FilterByCategory(goals []model.Goal, category string) []model.Goal {
	if category == "" {
		return goals
	}
	var result []model.Goal
	for _, g := range goals {
		if strings.EqualFold(string(g.Category), category) {
			result = append(result, g)
		}
	}
	return result
}

// FilterByName returns goals whose name contains the substring.
func FilterByName(goals []model.Goal, query string) []model.Goal {
	if query == "" {
		return goals
	}
	var result []model.Goal
	for _, g := range goals {
		if containsIgnoreCase(g.Name, query) {
			result = append(result, g)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// SortGoals returns a stably sorted copy. Progress, target and saved sort
// descending; name and deadline ascending, with unparseable deadlines last.
func SortGoals(goals []model.Goal, key string) ([]model.Goal, error) {
	out := slices.Clone(goals)

	var less func(a, b model.Goal) bool
	switch key {
	case "", SortName:
		less = func(a, b model.Goal) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case SortProgress:
		less = func(a, b model.Goal) bool {
			return Ratio(a.Saved(), a.Target()) > Ratio(b.Saved(), b.Target())
		}
	case SortTarget:
		less = func(a, b model.Goal) bool { return a.Target() > b.Target() }
	case SortSaved:
		less = func(a, b model.Goal) bool { return a.Saved() > b.Saved() }
	case SortDeadline:
		less = func(a, b model.Goal) bool {
			da, okA := a.DeadlineTime()
			db, okB := b.DeadlineTime()
			if okA != okB {
				return okA
			}
			return okA && da.Before(db)
		}
	default:
		return nil, fmt.Errorf("unknown sort key %q (want one of %s)", key, strings.Join(SortKeys, ", "))
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

// FindGoal returns the goal with the given id.
func FindGoal(goals []model.Goal, id model.ID) (model.Goal, bool) {
	for _, g := range goals {
		if g.ID == id {
			return g, true
		}
	}
	return model.Goal{}, false
}

// WithCreated returns a new list with g appended.
func WithCreated(goals []model.Goal, g model.Goal) []model.Goal {
	out := make([]model.Goal, 0, len(goals)+1)
	out = append(out, goals...)
	return append(out, g)
}

// WithUpdated returns a new list with the goal matching g.ID replaced.
// The list is returned unchanged (as a copy) if no goal matches.
func WithUpdated(goals []model.Goal, g model.Goal) []model.Goal {
	out := slices.Clone(goals)
	for i := range out {
		if out[i].ID == g.ID {
			out[i] = g
		}
	}
	return out
}

// WithoutGoal returns a new list without the goal matching id.
func WithoutGoal(goals []model.Goal, id model.ID) []model.Goal {
	out := make([]model.Goal, 0, len(goals))
	for _, g := range goals {
		if g.ID != id {
			out = append(out, g)
		}
	}
	return out
}
