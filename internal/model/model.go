package model

// Event is one booking occurrence for one room on one day, as read from a
// single detail panel of the booking application.
//
// Empty strings mean "absent". Room, StartTime and EndTime are required for
// task generation; the others are optional.
type Event struct {
	Room             string `json:"room"`
	SetupDescription string `json:"setup_description,omitempty"`

	// StartTime / EndTime are civil 12-hour clock strings, e.g. "6:30 PM".
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	// AccessTime is when the room becomes usable before the event. When
	// empty, unlock timing falls back to StartTime.
	AccessTime string `json:"access_time,omitempty"`

	// Error is the last non-fatal validation note. Diagnostics only.
	Error string `json:"error,omitempty"`
}

// Valid reports whether the event carries everything task generation needs.
func (e Event) Valid() bool {
	return e.Room != "" && e.StartTime != "" && e.EndTime != ""
}

// TaskType is the kind of facility action a Task represents.
type TaskType string

const (
	TaskUnlock TaskType = "Unlock"
	TaskGreet  TaskType = "Greet"
	TaskReset  TaskType = "Reset"
	TaskLock   TaskType = "Lock"
)

// Task is one scheduled operational action derived from an Event.
type Task struct {
	// Time is the half-hour slot label the task belongs in.
	Time string   `json:"time"`
	Room string   `json:"room"`
	Type TaskType `json:"type"`

	// MoreInfo is only set on Reset tasks (the setup description).
	MoreInfo string `json:"more_info,omitempty"`
	Error    string `json:"error,omitempty"`
}
