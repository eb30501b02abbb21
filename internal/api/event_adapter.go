package api

import (
	"time"

	"trialstats/app"
)

// Run event types.
const (
	EventRunCompleted = "run_completed"
	EventRunFailed    = "run_failed"
)

// NewRunEvent describes the outcome of a run for the hub. report may be nil
// when err is set.
func NewRunEvent(analysis string, report *app.Report, err error) RunEvent {
	event := RunEvent{
		Analysis:  analysis,
		EventType: EventRunCompleted,
		Status:    "ok",
		Timestamp: time.Now(),
	}
	if err != nil {
		event.EventType = EventRunFailed
		event.Status = "error"
		event.Error = err.Error()
		return event
	}
	event.RunID = report.RunID.String()
	event.TrialCount = report.TrialCount
	if !report.Loaded {
		event.Status = "no_data"
		event.Error = report.LoadError
	}
	return event
}
