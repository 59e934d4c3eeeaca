// Package clock normalizes 12-hour civil time strings into half-hour slot
// labels.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LabelLayout is the canonical slot label format, e.g. "6:30 PM".
const LabelLayout = "3:04 PM"

// SlotLength is the width of one schedule slot.
const SlotLength = 30 * time.Minute

// UnlockLead is how far before the access/start bucket rooms are unlocked.
const UnlockLead = 30 * time.Minute

var layouts = []string{"3PM", "3 PM", "3:04PM", "3:04 PM"}

// referenceDay anchors parsed clock values. Only hour and minute matter.
var referenceDay = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// FormatError reports a clock string that matched none of the layouts.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("clock: unrecognized 12-hour time %q", e.Input)
}

// Parse reads "11AM", "11 am", "6:30PM", "6:30 p.m." and friends into an
// hour/minute on a fixed reference day.
func Parse(s string) (time.Time, error) {
	v := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), ".", ""))
	if !validHour(v) {
		return time.Time{}, &FormatError{Input: s}
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return referenceDay.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
		}
	}
	return time.Time{}, &FormatError{Input: s}
}

// validHour reports whether the leading digits of v are a 12-hour clock hour.
// time.Parse alone accepts hour 0.
func validHour(v string) bool {
	n := 0
	for n < len(v) && v[n] >= '0' && v[n] <= '9' {
		n++
	}
	if n == 0 || n > 2 {
		return false
	}
	h, err := strconv.Atoi(v[:n])
	return err == nil && h >= 1 && h <= 12
}

// RoundDown truncates t to the start of its half-hour: minutes 0-29 map to
// hour:00, minutes 30-59 to hour:30.
func RoundDown(t time.Time) time.Time {
	base := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	if t.Minute() >= 30 {
		return base.Add(30 * time.Minute)
	}
	return base
}

// Label formats t as a slot label.
func Label(t time.Time) string {
	return t.Format(LabelLayout)
}

// Bucket parses s and returns the label of its half-hour bucket.
func Bucket(s string) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Label(RoundDown(t)), nil
}

// UnlockSlot returns the slot in which a room must be unlocked: the bucket
// of access (or start when access is empty) minus UnlockLead. The
// subtraction wraps across midnight.
func UnlockSlot(access, start string) (string, error) {
	ref := access
	if strings.TrimSpace(ref) == "" {
		ref = start
	}
	t, err := Parse(ref)
	if err != nil {
		return "", err
	}
	return Label(RoundDown(t).Add(-UnlockLead)), nil
}
