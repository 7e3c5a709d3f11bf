package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/sgp/internal/model"
)

func openTemp(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func summary(total, completed int, saved, target float64) model.Summary {
	return model.Summary{
		TotalGoals:         total,
		CompletedGoals:     completed,
		ActiveGoals:        total - completed,
		TotalSaved:         saved,
		TotalTarget:        target,
		OverallPercent:     int(saved / target * 100),
		MostCommonCategory: "Travel",
		Categories: []model.CategoryCount{
			{Category: "Travel", Count: 2},
			{Category: "Health", Count: 1},
		},
		Bands: model.BandCounts{Danger: 1, Complete: completed},
	}
}

func TestRecordAndRecent(t *testing.T) {
	h := openTemp(t)
	t0 := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	_, err := h.Record("summary", summary(3, 1, 500, 1000), t0)
	require.NoError(t, err)
	second, err := h.Record("tui", summary(3, 2, 800, 1000), t0.Add(time.Hour))
	require.NoError(t, err)
	require.NotZero(t, second.ID)

	snaps, err := h.Recent(0)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	require.Equal(t, second.ID, snaps[0].ID)
	require.Equal(t, "tui", snaps[0].Source)
	require.True(t, snaps[0].TakenAt.Equal(t0.Add(time.Hour)))
	require.Equal(t, 2, snaps[0].Summary.CompletedGoals)
	require.Equal(t, 800.0, snaps[0].Summary.TotalSaved)
	require.Equal(t, summary(3, 2, 800, 1000).Categories, snaps[0].Summary.Categories)

	limited, err := h.Recent(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestLatest_Empty(t *testing.T) {
	h := openTemp(t)
	_, ok, err := h.Latest()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPrune(t *testing.T) {
	h := openTemp(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		_, err := h.Record("summary", summary(i+1, 0, 1, 10), now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	removed, err := h.Prune(2)
	require.NoError(t, err)
	require.EqualValues(t, 3, removed)

	snaps, err := h.Recent(0)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	require.Equal(t, 5, snaps[0].Summary.TotalGoals)
	// Categories of pruned snapshots go with them.
	var orphans int
	require.NoError(t, h.db.QueryRow(`SELECT COUNT(*) FROM snapshot_categories
		WHERE snapshot_id NOT IN (SELECT id FROM snapshots)`).Scan(&orphans))
	require.Zero(t, orphans)
}

func TestDiff(t *testing.T) {
	d := Diff(summary(2, 1, 100, 1000), summary(3, 1, 250, 1500))
	require.Equal(t, Delta{Goals: 1, Saved: 150, Target: 500, OverallPercent: 6}, d)
	require.True(t, Diff(summary(1, 0, 1, 10), summary(1, 0, 1, 10)).IsZero())
}
