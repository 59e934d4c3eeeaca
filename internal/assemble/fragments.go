package assemble

import "strings"

// Fragments is a captured snapshot of one detail panel. It is what the
// browser scraper hands over once the panel has rendered.
type Fragments struct {
	RoomText   string `json:"room,omitempty"`
	HeaderText string `json:"header,omitempty"`
	TimesHTML  string `json:"times_html,omitempty"`

	// HasAccessTime is true when an "Access Time" label was present.
	HasAccessTime bool   `json:"has_access_time,omitempty"`
	AccessHTML    string `json:"access_html,omitempty"`
}

func present(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

func (f Fragments) Room() (string, bool)         { return present(f.RoomText) }
func (f Fragments) Header() (string, bool)       { return present(f.HeaderText) }
func (f Fragments) TimeFragment() (string, bool) { return present(f.TimesHTML) }

func (f Fragments) AccessTimeFragment() (string, bool) {
	if !f.HasAccessTime {
		return "", false
	}
	return f.AccessHTML, true
}
