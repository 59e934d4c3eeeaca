// Package schedule holds the day's tasks keyed by a fixed set of half-hour
// slot labels spanning the operating window (5:00 AM to 1:00 AM).
package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"roomops/internal/clock"
	"roomops/internal/model"
)

const (
	// SlotCount is the number of half-hour slots in the operating window.
	SlotCount = 40

	dayStartHour = 5
)

// UnknownSlotError is returned when a task's slot label is not one of the
// fixed labels: the source produced a time outside the operating window or
// off a half-hour boundary.
type UnknownSlotError struct {
	Label string
}

func (e *UnknownSlotError) Error() string {
	return fmt.Sprintf("schedule: %q is not a slot in the operating window", e.Label)
}

// Slot is one label with its tasks, as returned by Store.Slots.
type Slot struct {
	Label string       `json:"label"`
	Tasks []model.Task `json:"tasks"`
}

// Store maps the fixed slot labels to tasks. The key set never changes after
// New; tasks within a slot keep insertion order.
//
// A Store has a single writer (the task generator during a run). Readers
// that run concurrently with other runs should use a completed Store.
type Store struct {
	labels []string
	index  map[string]int
	tasks  [][]model.Task
}

// New builds an empty store with the 40 labels "5:00 AM" ... "12:30 AM".
func New() *Store {
	labels := slotLabels()
	s := &Store{
		labels: labels,
		index:  make(map[string]int, len(labels)),
		tasks:  make([][]model.Task, len(labels)),
	}
	for i, l := range labels {
		s.index[l] = i
	}
	return s
}

// slotLabels expands a half-hourly rule over the operating window.
func slotLabels() []string {
	start := time.Date(2000, time.January, 1, dayStartHour, 0, 0, 0, time.UTC)
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.MINUTELY,
		Interval: int(clock.SlotLength / time.Minute),
		Count:    SlotCount,
		Dtstart:  start,
	})
	if err != nil {
		// Static rule; failing here is a programming error.
		panic(fmt.Sprintf("schedule: invalid slot rule: %v", err))
	}

	times := r.All()
	labels := make([]string, 0, len(times))
	for _, t := range times {
		labels = append(labels, clock.Label(t))
	}
	return labels
}

// Labels returns the slot labels in chronological order.
func (s *Store) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Has reports whether label is one of the fixed slot labels.
func (s *Store) Has(label string) bool {
	_, ok := s.index[label]
	return ok
}

// Append adds tasks to the slot named label.
func (s *Store) Append(label string, tasks ...model.Task) error {
	i, ok := s.index[label]
	if !ok {
		return &UnknownSlotError{Label: label}
	}
	s.tasks[i] = append(s.tasks[i], tasks...)
	return nil
}

// Tasks returns the tasks in slot label. Asking for a label outside the
// fixed set is a programming error and panics.
func (s *Store) Tasks(label string) []model.Task {
	i, ok := s.index[label]
	if !ok {
		panic(&UnknownSlotError{Label: label})
	}
	out := make([]model.Task, len(s.tasks[i]))
	copy(out, s.tasks[i])
	return out
}

// Slots returns every slot, empty ones included, in chronological order.
func (s *Store) Slots() []Slot {
	out := make([]Slot, len(s.labels))
	for i, l := range s.labels {
		tasks := make([]model.Task, len(s.tasks[i]))
		copy(tasks, s.tasks[i])
		out[i] = Slot{Label: l, Tasks: tasks}
	}
	return out
}

// Len returns the total number of tasks across all slots.
func (s *Store) Len() int {
	n := 0
	for _, ts := range s.tasks {
		n += len(ts)
	}
	return n
}

// SlotTime returns the wall-clock start of label on the operating day that
// begins on day. Slots after midnight fall on the following calendar date.
func (s *Store) SlotTime(day time.Time, label string) (time.Time, error) {
	i, ok := s.index[label]
	if !ok {
		return time.Time{}, &UnknownSlotError{Label: label}
	}
	y, m, d := day.Date()
	start := time.Date(y, m, d, dayStartHour, 0, 0, 0, day.Location())
	return start.Add(time.Duration(i) * clock.SlotLength), nil
}
