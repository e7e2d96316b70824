package pipeline

import (
	"errors"

	"tg_export/internal/model"
)

// Configuration and source errors abort a run; use errors.Is against these.
var (
	// ErrConfiguration marks an invalid flag or target combination,
	// detected before any fetch begins.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrSourceUnavailable marks a fatal transport failure while fetching
	// from the message source.
	ErrSourceUnavailable = errors.New("message source unavailable")
)

// State names the orchestrator's position in a run.
type State string

// Run states. Done and Failed are terminal.
const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateExporting   State = "exporting"
	StateSummarizing State = "summarizing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// TargetStats counts per-target write outcomes.
type TargetStats struct {
	Written int
	Skipped int
	Failed  int
}

// Failure records one message that a target could not accept.
type Failure struct {
	MessageID int64
	Target    string
	Err       error
}

// Result accumulates over a run and is returned when it ends, successfully
// or not. Fetched counts raw messages pulled from the source; Matched
// counts messages accepted by the filter inside the pagination bounds.
type Result struct {
	Fetched  int
	Matched  int
	Targets  map[string]*TargetStats
	Failures []Failure
	Preview  []model.Message
	State    State
}

func newResult(targets []string) *Result {
	r := &Result{
		Targets: make(map[string]*TargetStats, len(targets)),
		State:   StateIdle,
	}
	for _, name := range targets {
		r.Targets[name] = &TargetStats{}
	}
	return r
}

// FailedIDs returns the IDs of messages that failed for the given target,
// in the order they failed.
func (r *Result) FailedIDs(target string) []int64 {
	var ids []int64
	for _, f := range r.Failures {
		if f.Target == target {
			ids = append(ids, f.MessageID)
		}
	}
	return ids
}
