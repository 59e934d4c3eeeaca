// Package assemble builds a model.Event from one booking detail panel,
// applying the per-field fatal / non-fatal validation policy.
package assemble

import (
	"roomops/internal/clock"
	"roomops/internal/extract"
	appLog "roomops/internal/log"
	"roomops/internal/model"
)

// Notes recorded on Event.Error (non-fatal) or Result.Reason (fatal).
const (
	NoRoom       = "No room number"
	NoSetup      = "No setup description"
	NoTimes      = "No start time or end time"
	NoAccessTime = "No access time"
)

// DetailView exposes the raw fields of one opened event detail panel. Each
// accessor reports false when the panel does not show that field.
type DetailView interface {
	Room() (string, bool)
	Header() (string, bool)
	TimeFragment() (string, bool)
	AccessTimeFragment() (string, bool)
}

// Result is either a kept Event or a discarded one with the fatal reason.
type Result struct {
	Event     model.Event
	Discarded bool
	Reason    string
}

// OK reports whether the event should go on to task generation.
func (r Result) OK() bool {
	return !r.Discarded
}

func discard(ev model.Event, reason string) Result {
	ev.Error = reason
	return Result{Event: ev, Discarded: true, Reason: reason}
}

// Assemble reads the view field by field in the order room, setup, time,
// access. A missing room or time pair discards the event and skips the
// remaining fields. Times are only kept when clock.Parse accepts them, so an
// unreadable access time falls back to the start time downstream.
func Assemble(v DetailView) Result {
	var ev model.Event

	room, ok := v.Room()
	if !ok || room == "" {
		return discard(ev, NoRoom)
	}
	ev.Room = room

	if header, ok := v.Header(); !ok || header == "" {
		ev.Error = NoSetup
	} else if desc, err := extract.SetupDescription(header); err != nil {
		appLog.Debug("setup description unreadable", "room", room, "err", err)
		ev.Error = NoSetup
	} else {
		ev.SetupDescription = desc
	}

	frag, ok := v.TimeFragment()
	if !ok || frag == "" {
		return discard(ev, NoTimes)
	}
	start, end, err := extract.EventTimes(frag)
	if err != nil {
		appLog.Warn("event times unreadable", "room", room, "err", err)
		return discard(ev, NoTimes)
	}
	for _, s := range []string{start, end} {
		if _, err := clock.Parse(s); err != nil {
			appLog.Warn("event times unreadable", "room", room, "err", err)
			return discard(ev, NoTimes)
		}
	}
	ev.StartTime = start
	ev.EndTime = end

	accessFrag, ok := v.AccessTimeFragment()
	if !ok {
		ev.Error = NoAccessTime
		return Result{Event: ev}
	}
	access, err := extract.AccessTime(accessFrag)
	if err == nil {
		_, err = clock.Parse(access)
	}
	if err != nil {
		appLog.Debug("access time unreadable", "room", room, "err", err)
		ev.Error = NoAccessTime
		return Result{Event: ev}
	}
	ev.AccessTime = access

	return Result{Event: ev}
}
