package model

import "time"

// Band is the status band of a goal's progress.
type Band int

const (
	BandDanger Band = iota
	BandWarning
	BandComplete
)

// String implements fmt.Stringer.
func (b Band) String() string {
	switch b {
	case BandComplete:
		return "complete"
	case BandWarning:
		return "warning"
	default:
		return "danger"
	}
}

// Progress holds the derived progress values of one goal.
type Progress struct {
	Ratio          float64 // saved/target, unclamped; 0 when target <= 0
	PercentDisplay int     // rounded, may exceed 100
	PercentForBar  float64 // clamped to [0,100]
	Band           Band
}

// CategoryCount is the number of goals in one category.
type CategoryCount struct {
	Category Category
	Count    int
}

// BandCounts counts goals per status band.
type BandCounts struct {
	Danger   int
	Warning  int
	Complete int
}

// Summary holds aggregate statistics over a goal collection.
type Summary struct {
	TotalGoals             int
	CompletedGoals         int
	ActiveGoals            int
	TotalSaved             float64
	TotalTarget            float64
	OverallPercent         int
	MostCommonCategory     string
	HighestTarget          float64
	LowestSaved            float64
	AverageProgressPercent int

	Categories []CategoryCount // first-seen order
	Bands      BandCounts
}

// CompletionRate returns completed/total as a percentage, 0 when empty.
func (s Summary) CompletionRate() float64 {
	if s.TotalGoals == 0 {
		return 0
	}
	return float64(s.CompletedGoals) / float64(s.TotalGoals) * 100
}

// Snapshot is a persisted point-in-time Summary.
type Snapshot struct {
	ID      int64
	TakenAt time.Time
	Source  string
	Summary Summary
}
