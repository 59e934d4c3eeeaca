// Package taskgen derives the four facility tasks of a booking event and
// files them into a schedule.Store.
package taskgen

import (
	"fmt"

	"roomops/internal/clock"
	"roomops/internal/model"
	"roomops/internal/schedule"
)

// Generate builds the Unlock, Greet, Reset and Lock tasks for ev and appends
// them to store in that order.
//
// An event without room, start or end is ignored (nil, nil). Greet, Reset
// and Lock are slotted in the half-hour bucket of the extracted time; when
// that bucket differs from the verbatim time the task carries a note. If any
// of the four slots falls outside the operating window, nothing is appended
// and a *schedule.UnknownSlotError is returned.
func Generate(ev model.Event, store *schedule.Store) ([]model.Task, error) {
	if store == nil || !ev.Valid() {
		return nil, nil
	}

	unlock, err := clock.UnlockSlot(ev.AccessTime, ev.StartTime)
	if err != nil {
		return nil, fmt.Errorf("taskgen: unlock time for room %s: %w", ev.Room, err)
	}
	greet, greetNote, err := slotFor(ev.StartTime)
	if err != nil {
		return nil, fmt.Errorf("taskgen: start time for room %s: %w", ev.Room, err)
	}
	end, endNote, err := slotFor(ev.EndTime)
	if err != nil {
		return nil, fmt.Errorf("taskgen: end time for room %s: %w", ev.Room, err)
	}

	tasks := []model.Task{
		{Time: unlock, Room: ev.Room, Type: model.TaskUnlock},
		{Time: greet, Room: ev.Room, Type: model.TaskGreet, Error: greetNote},
		{Time: end, Room: ev.Room, Type: model.TaskReset, MoreInfo: ev.SetupDescription, Error: endNote},
		{Time: end, Room: ev.Room, Type: model.TaskLock, Error: endNote},
	}

	for _, t := range tasks {
		if !store.Has(t.Time) {
			return nil, fmt.Errorf("taskgen: %s task for room %s: %w", t.Type, ev.Room, &schedule.UnknownSlotError{Label: t.Time})
		}
	}
	for _, t := range tasks {
		if err := store.Append(t.Time, t); err != nil {
			return nil, fmt.Errorf("taskgen: %s task for room %s: %w", t.Type, ev.Room, err)
		}
	}
	return tasks, nil
}

// slotFor maps a verbatim clock string to its slot label and returns a note
// when the time was not on a half-hour boundary.
func slotFor(verbatim string) (label, note string, err error) {
	t, err := clock.Parse(verbatim)
	if err != nil {
		return "", "", err
	}
	label = clock.Label(clock.RoundDown(t))
	if !clock.RoundDown(t).Equal(t) {
		note = fmt.Sprintf("%s rounded down to %s", verbatim, label)
	}
	return label, note, nil
}
