// Package ics publishes a day's schedule as an iCalendar feed so staff can
// subscribe to it from any calendar client.
package ics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"roomops/internal/clock"
	"roomops/internal/schedule"
)

const productID = "-//roomops//facility tasks//EN"

// uidNamespace scopes task UIDs; the same task on the same day always gets
// the same UID so clients update events instead of duplicating them.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("roomops/tasks"))

// Export renders every task in store as a 30-minute VEVENT on the operating
// day that starts on day (interpreted in day's location).
func Export(store *schedule.Store, day time.Time) ([]byte, error) {
	if store == nil {
		return nil, errors.New("ics: store is nil")
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	stamp := time.Now().UTC()
	for _, slot := range store.Slots() {
		if len(slot.Tasks) == 0 {
			continue
		}
		start, err := store.SlotTime(day, slot.Label)
		if err != nil {
			return nil, err
		}
		for seq, task := range slot.Tasks {
			ev := cal.AddEvent(TaskUID(day, slot.Label, seq, string(task.Type), task.Room))
			ev.SetDtStampTime(stamp)
			ev.SetStartAt(start)
			ev.SetEndAt(start.Add(clock.SlotLength))
			ev.SetSummary(string(task.Type) + " " + task.Room)
			ev.SetLocation(task.Room)
			if desc := description(task.MoreInfo, task.Error); desc != "" {
				ev.SetDescription(desc)
			}
		}
	}

	return []byte(cal.Serialize()), nil
}

// TaskUID derives a stable event UID for one task occurrence.
func TaskUID(day time.Time, label string, seq int, taskType, room string) string {
	key := strings.Join([]string{
		day.Format("2006-01-02"),
		label,
		taskType,
		room,
		strconv.Itoa(seq),
	}, "|")
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@roomops"
}

func description(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
