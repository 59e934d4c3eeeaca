// Package extract turns the raw text and HTML fragments captured from a
// booking detail panel into typed event fields.
//
// Every extractor is a pure function of one string. All marker literals the
// booking markup depends on ("Event Start", "Access Time", ", act." ...) live
// in this package so that upstream markup drift is fixed in one place.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Markers used by the booking application's detail panel.
const (
	MarkerEventStart  = "Event Start"
	MarkerEventEnd    = "Event End"
	MarkerReservedEnd = "Reserved End"
	MarkerAccessTime  = "Access Time"

	actSuffix = ", act."

	// maxInputInError bounds how much raw markup ends up in error messages.
	maxInputInError = 200
)

var (
	// clockPattern matches a 12-hour clock time: "10:00 AM", "9am", "6:30 p.m.".
	clockPattern = `\d{1,2}(?::\d{2})?\s?[aApP]\.?[mM]\.?`

	clockFull = regexp.MustCompile(`^` + clockPattern + `$`)

	// clockSearch keeps the hour from starting inside another number, so
	// "at6:00 PM" yields "6:00 PM" rather than "00 PM".
	clockSearch = regexp.MustCompile(`(?:^|[^\d:])(` + clockPattern + `)`)
)

// Error is returned by every extractor. Input holds the raw fragment that
// failed so upstream markup changes can be diagnosed from logs.
type Error struct {
	Field  string
	Reason string
	Input  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s: %s (input %q)", e.Field, e.Reason, truncate(e.Input))
}

func newError(field, reason, input string) *Error {
	return &Error{Field: field, Reason: reason, Input: input}
}

// IsClock reports whether s is exactly one 12-hour clock time.
func IsClock(s string) bool {
	return clockFull.MatchString(s)
}

// FindClock returns the first 12-hour clock time inside s.
func FindClock(s string) (string, bool) {
	m := clockSearch.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// SetupDescription extracts the setup label from an event header such as
//
//	"Med Deli Catering Meeting - Talley Student Union - 3220 - (Conference, 5, act. 0)"
//
// which yields "Conference, 5".
func SetupDescription(header string) (string, error) {
	open := strings.Index(header, "(")
	if open < 0 {
		return "", newError("setup description", "no parenthesized group", header)
	}

	inner := header[open+1:]
	if end := strings.Index(inner, ")"); end >= 0 {
		inner = inner[:end]
	}
	if cut := strings.Index(inner, actSuffix); cut >= 0 {
		inner = inner[:cut]
	}

	desc := strings.TrimSpace(inner)
	if desc == "" {
		return "", newError("setup description", "empty setup group", header)
	}
	return desc, nil
}

func truncate(s string) string {
	if len(s) <= maxInputInError {
		return s
	}
	return s[:maxInputInError] + "..."
}
