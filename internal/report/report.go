// Package report prints a finished run to the console.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"roomops/internal/model"
	"roomops/internal/ops"
	"roomops/internal/schedule"
)

type styles struct {
	title  lipgloss.Style
	slot   lipgloss.Style
	task   map[model.TaskType]lipgloss.Style
	muted  lipgloss.Style
	failed lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().Bold(true).Underline(true),
		slot:  r.NewStyle().Bold(true).Width(10),
		task: map[model.TaskType]lipgloss.Style{
			model.TaskUnlock: r.NewStyle().Foreground(lipgloss.Color("2")),
			model.TaskGreet:  r.NewStyle().Foreground(lipgloss.Color("4")),
			model.TaskReset:  r.NewStyle().Foreground(lipgloss.Color("3")),
			model.TaskLock:   r.NewStyle().Foreground(lipgloss.Color("1")),
		},
		muted:  r.NewStyle().Faint(true),
		failed: r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Render writes the non-empty slots of store followed by a summary of rep.
func Render(w io.Writer, store *schedule.Store, rep ops.Report) error {
	st := newStyles(w)
	var b strings.Builder

	b.WriteString(st.title.Render("Facility tasks"))
	b.WriteString("\n")

	for _, slot := range store.Slots() {
		if len(slot.Tasks) == 0 {
			continue
		}
		for i, t := range slot.Tasks {
			label := ""
			if i == 0 {
				label = slot.Label
			}
			b.WriteString(st.slot.Render(label))
			b.WriteString(st.taskStyle(t.Type).Render(fmt.Sprintf("%-6s", t.Type)))
			b.WriteString(" room " + t.Room)
			if t.MoreInfo != "" {
				b.WriteString(" (" + t.MoreInfo + ")")
			}
			if t.Error != "" {
				b.WriteString(" " + st.muted.Render("["+t.Error+"]"))
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n%d events: %d kept, %d discarded, %d failed, %d tasks\n",
		len(rep.Events), rep.Kept, rep.Discarded, rep.Failed, rep.Tasks)
	for _, e := range rep.Events {
		if !e.Discarded && !e.Failed {
			continue
		}
		room := e.Event.Room
		if room == "" {
			room = "?"
		}
		b.WriteString(st.failed.Render(fmt.Sprintf("  #%d room %s: %s", e.Index, room, e.Reason)))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (s styles) taskStyle(t model.TaskType) lipgloss.Style {
	if st, ok := s.task[t]; ok {
		return st
	}
	return s.muted
}
