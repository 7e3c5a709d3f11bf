package goalapi

import (
	"time"

	"github.com/theirongolddev/sgp/internal/model"
)

// Status is the phase of a goal-list fetch.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// FailedMessage is the single page-level message shown for any fetch failure.
const FailedMessage = "Failed to fetch goals"

// LoadState is the result of fetching the goal list. Every page consumes
// it the same way: spinner while loading, one flat message on failure.
type LoadState struct {
	Status    Status
	Goals     []model.Goal
	Err       error
	FetchedAt time.Time
}

// Loading returns the in-flight state.
func Loading() LoadState { return LoadState{Status: StatusLoading} }

// Loaded returns a successful state.
func Loaded(goals []model.Goal, at time.Time) LoadState {
	return LoadState{Status: StatusLoaded, Goals: goals, FetchedAt: at}
}

// Failed returns a failed state.
func Failed(err error, at time.Time) LoadState {
	return LoadState{Status: StatusFailed, Err: err, FetchedAt: at}
}

// Ready reports whether goals are available.
func (s LoadState) Ready() bool { return s.Status == StatusLoaded }

// Message returns the text a page shows for non-loaded states.
func (s LoadState) Message() string {
	switch s.Status {
	case StatusLoading:
		return "Loading..."
	case StatusFailed:
		return FailedMessage
	}
	return ""
}
