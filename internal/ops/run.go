package ops

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomops/internal/assemble"
	appLog "roomops/internal/log"
	"roomops/internal/model"
	"roomops/internal/schedule"
	"roomops/internal/taskgen"
)

// Source yields one detail view per booked event, strictly one at a time.
// fn must not retain the view after it returns.
type Source interface {
	Visit(ctx context.Context, fn func(assemble.DetailView)) error
}

// EventOutcome records what happened to one visited event.
type EventOutcome struct {
	Index int         `json:"index"`
	Event model.Event `json:"event"`

	// Discarded is set for fatal assembly failures (no room / no times).
	Discarded bool `json:"discarded,omitempty"`
	// Failed is set when task generation rejected the event, e.g. a time
	// outside the operating window.
	Failed bool   `json:"failed,omitempty"`
	Reason string `json:"reason,omitempty"`

	Tasks int `json:"tasks"`
}

// Report summarizes one run.
type Report struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Events     []EventOutcome `json:"events"`
	Kept       int            `json:"kept"`
	Discarded  int            `json:"discarded"`
	Failed     int            `json:"failed"`
	Tasks      int            `json:"tasks"`
}

// Run visits every event in src, assembles it and files its tasks into
// store. Per-event problems are recorded in the report and never stop the
// run; only a Source failure does, in which case the partial report is
// returned alongside the error.
func Run(ctx context.Context, src Source, store *schedule.Store) (Report, error) {
	if src == nil {
		return Report{}, errors.New("ops: source is nil")
	}
	if store == nil {
		return Report{}, errors.New("ops: store is nil")
	}

	rep := Report{StartedAt: time.Now()}
	idx := 0

	err := src.Visit(ctx, func(v assemble.DetailView) {
		out := processOne(idx, v, store)
		idx++

		switch {
		case out.Discarded:
			rep.Discarded++
		case out.Failed:
			rep.Failed++
		default:
			rep.Kept++
		}
		rep.Tasks += out.Tasks
		rep.Events = append(rep.Events, out)
	})
	rep.FinishedAt = time.Now()

	appLog.Info("run finished",
		"events", len(rep.Events),
		"kept", rep.Kept,
		"discarded", rep.Discarded,
		"failed", rep.Failed,
		"tasks", rep.Tasks,
		"elapsed", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond),
	)

	if err != nil {
		return rep, fmt.Errorf("ops: visiting events: %w", err)
	}
	return rep, nil
}

func processOne(idx int, v assemble.DetailView, store *schedule.Store) EventOutcome {
	res := assemble.Assemble(v)
	out := EventOutcome{Index: idx, Event: res.Event}

	if !res.OK() {
		out.Discarded = true
		out.Reason = res.Reason
		appLog.Warn("event discarded", "index", idx, "room", res.Event.Room, "reason", res.Reason)
		return out
	}
	if res.Event.Error != "" {
		appLog.Debug("event advisory", "index", idx, "room", res.Event.Room, "note", res.Event.Error)
	}

	tasks, err := taskgen.Generate(res.Event, store)
	if err != nil {
		out.Failed = true
		out.Reason = err.Error()
		appLog.Error("task generation failed", err, "index", idx, "room", res.Event.Room)
		return out
	}
	out.Tasks = len(tasks)
	return out
}
