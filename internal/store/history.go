// Package store provides a SQLite-backed history of analytics snapshots.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/sgp/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// History records one Summary per successful load so later runs can show
// how totals moved. Goals themselves are never stored.
type History struct {
	db *sql.DB
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*History, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the history database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record stores a snapshot of s taken at the given time.
func (h *History) Record(source string, s model.Summary, at time.Time) (model.Snapshot, error) {
	tx, err := h.db.Begin()
	if err != nil {
		return model.Snapshot{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT INTO snapshots
		(taken_at, source, total_goals, completed_goals, active_goals,
		 total_saved, total_target, overall_percent, most_common,
		 highest_target, lowest_saved, average_percent,
		 bands_danger, bands_warning, bands_complete)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(time.RFC3339Nano), source, s.TotalGoals, s.CompletedGoals, s.ActiveGoals,
		s.TotalSaved, s.TotalTarget, s.OverallPercent, s.MostCommonCategory,
		s.HighestTarget, s.LowestSaved, s.AverageProgressPercent,
		s.Bands.Danger, s.Bands.Warning, s.Bands.Complete,
	)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("inserting snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Snapshot{}, err
	}

	for i, c := range s.Categories {
		_, err = tx.Exec(`INSERT INTO snapshot_categories (snapshot_id, position, category, goal_count)
			VALUES (?, ?, ?, ?)`, id, i, string(c.Category), c.Count)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("inserting snapshot category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{ID: id, TakenAt: at.UTC(), Source: source, Summary: s}, nil
}

// Recent returns up to n snapshots, newest first. n <= 0 returns all.
func (h *History) Recent(n int) ([]model.Snapshot, error) {
	query := `SELECT id, taken_at, source, total_goals, completed_goals, active_goals,
		total_saved, total_target, overall_percent, most_common,
		highest_target, lowest_saved, average_percent,
		bands_danger, bands_warning, bands_complete
		FROM snapshots ORDER BY id DESC`
	var args []any
	if n > 0 {
		query += " LIMIT ?"
		args = append(args, n)
	}

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var snaps []model.Snapshot
	for rows.Next() {
		var sn model.Snapshot
		var takenAt string
		s := &sn.Summary
		if err := rows.Scan(&sn.ID, &takenAt, &sn.Source,
			&s.TotalGoals, &s.CompletedGoals, &s.ActiveGoals,
			&s.TotalSaved, &s.TotalTarget, &s.OverallPercent, &s.MostCommonCategory,
			&s.HighestTarget, &s.LowestSaved, &s.AverageProgressPercent,
			&s.Bands.Danger, &s.Bands.Warning, &s.Bands.Complete,
		); err != nil {
			return nil, err
		}
		sn.TakenAt, _ = time.Parse(time.RFC3339Nano, takenAt)
		snaps = append(snaps, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range snaps {
		cats, err := h.loadCategories(snaps[i].ID)
		if err != nil {
			return nil, err
		}
		snaps[i].Summary.Categories = cats
	}
	return snaps, nil
}

// Latest returns the newest snapshot, if any.
func (h *History) Latest() (model.Snapshot, bool, error) {
	snaps, err := h.Recent(1)
	if err != nil || len(snaps) == 0 {
		return model.Snapshot{}, false, err
	}
	return snaps[0], true, nil
}

// Prune deletes all but the newest keep snapshots and returns how many were removed.
func (h *History) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := h.db.Exec(`DELETE FROM snapshots WHERE id NOT IN
		(SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return res.RowsAffected()
}

func (h *History) loadCategories(id int64) ([]model.CategoryCount, error) {
	rows, err := h.db.Query(`SELECT category, goal_count FROM snapshot_categories
		WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cats []model.CategoryCount
	for rows.Next() {
		var c model.CategoryCount
		var name string
		if err := rows.Scan(&name, &c.Count); err != nil {
			return nil, err
		}
		c.Category = model.Category(name)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Delta is the change between two snapshots.
type Delta struct {
	Goals          int
	Completed      int
	Saved          float64
	Target         float64
	OverallPercent int
}

// Diff returns cur minus prev.
func Diff(prev, cur model.Summary) Delta {
	return Delta{
		Goals:          cur.TotalGoals - prev.TotalGoals,
		Completed:      cur.CompletedGoals - prev.CompletedGoals,
		Saved:          cur.TotalSaved - prev.TotalSaved,
		Target:         cur.TotalTarget - prev.TotalTarget,
		OverallPercent: cur.OverallPercent - prev.OverallPercent,
	}
}

// IsZero reports whether nothing changed.
func (d Delta) IsZero() bool {
	return d == Delta{}
}
