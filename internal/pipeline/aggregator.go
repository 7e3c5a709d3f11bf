package pipeline

import (
	"github.com/theirongolddev/sgp/internal/model"
)

// Aggregate computes summary statistics over goals. It never mutates its
// input, and an empty slice yields zero values with "N/A" as the most
// common category.
func Aggregate(goals []model.Goal) model.Summary {
	stats := model.Summary{MostCommonCategory: model.NoCategory}
	if len(goals) == 0 {
		return stats
	}

	stats.TotalGoals = len(goals)
	stats.HighestTarget = goals[0].Target()
	stats.LowestSaved = goals[0].Saved()

	var ratioSum float64
	for _, g := range goals {
		saved, target := g.Saved(), g.Target()

		stats.TotalSaved += saved
		stats.TotalTarget += target
		if IsCompleted(g) {
			stats.CompletedGoals++
		}
		if target > stats.HighestTarget {
			stats.HighestTarget = target
		}
		if saved < stats.LowestSaved {
			stats.LowestSaved = saved
		}

		r := Ratio(saved, target)
		ratioSum += r
		switch BandFor(r) {
		case model.BandComplete:
			stats.Bands.Complete++
		case model.BandWarning:
			stats.Bands.Warning++
		default:
			stats.Bands.Danger++
		}
	}

	stats.ActiveGoals = stats.TotalGoals - stats.CompletedGoals
	if stats.TotalTarget > 0 {
		stats.OverallPercent = roundHalfUp(stats.TotalSaved / stats.TotalTarget * 100)
	}
	stats.AverageProgressPercent = roundHalfUp(ratioSum / float64(stats.TotalGoals) * 100)

	stats.Categories = CountCategories(goals)
	stats.MostCommonCategory = mostCommon(stats.Categories)

	return stats
}

// CountCategories groups goals by raw category value in first-seen order.
func CountCategories(goals []model.Goal) []model.CategoryCount {
	idx := make(map[model.Category]int)
	var counts []model.CategoryCount
	for _, g := range goals {
		i, ok := idx[g.Category]
		if !ok {
			i = len(counts)
			idx[g.Category] = i
			counts = append(counts, model.CategoryCount{Category: g.Category})
		}
		counts[i].Count++
	}
	return counts
}

// mostCommon picks the highest count. Strict comparison keeps the
// first-seen category on ties.
func mostCommon(counts []model.CategoryCount) string {
	if len(counts) == 0 {
		return model.NoCategory
	}
	best := counts[0]
	for _, c := range counts[1:] {
		if c.Count > best.Count {
			best = c
		}
	}
	return string(best.Category)
}

// ActiveGoals returns goals whose saved amount is below target.
func ActiveGoals(goals []model.Goal) []model.Goal {
	var result []model.Goal
	for _, g := range goals {
		if !IsCompleted(g) {
			result = append(result, g)
		}
	}
	return result
}

// CompletedGoals returns goals whose saved amount has reached target.
func CompletedGoals(goals []model.Goal) []model.Goal {
	var result []model.Goal
	for _, g := range goals {
		if IsCompleted(g) {
			result = append(result, g)
		}
	}
	return result
}
