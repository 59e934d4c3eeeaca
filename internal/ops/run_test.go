package ops

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"roomops/internal/assemble"
	"roomops/internal/model"
	"roomops/internal/schedule"
)

func timesHTML(start, end string) string {
	return `<dt>Reserved Start</dt><dd><!---->` + start + `<!----></dd>` +
		`<dt>Event Start</dt><dd><!---->` + start + `<!----></dd>` +
		`<dt>Event End</dt><dd><!---->` + end + `<!----></dd>` +
		`<dt>Reserved End</dt><dd><!---->` + end + `<!----></dd>`
}

func sampleDay() FragmentSource {
	return FragmentSource{
		{
			RoomText:      "4265",
			HeaderText:    "Board Dinner - Union - 4265 - (Conference, 12, act. 10)",
			TimesHTML:     timesHTML("6:30 PM", "8:00 PM"),
			HasAccessTime: true,
			AccessHTML:    `<p>Access at 6:00 PM</p>`,
		},
		// no room: discarded
		{HeaderText: "Ghost - Union - (Theater, 4, act. 0)", TimesHTML: timesHTML("9:00 AM", "10:00 AM")},
		// no access time: falls back to start
		{
			RoomText:   "3220",
			HeaderText: "Catering - Union - 3220 - (Conference, 5, act. 0)",
			TimesHTML:  timesHTML("6:00 PM", "7:00 PM"),
		},
		// starts before the operating window: lookup failure
		{RoomText: "101", TimesHTML: timesHTML("5:00 AM", "6:00 AM")},
		// no times: discarded
		{RoomText: "102", HeaderText: "Broken - (Banquet, 1, act. 0)"},
	}
}

func TestRun(t *testing.T) {
	store := schedule.New()
	rep, err := Run(context.Background(), sampleDay(), store)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if rep.Kept != 2 || rep.Discarded != 2 || rep.Failed != 1 {
		t.Errorf("kept/discarded/failed = %d/%d/%d, want 2/2/1", rep.Kept, rep.Discarded, rep.Failed)
	}
	if rep.Tasks != 8 || store.Len() != 8 {
		t.Errorf("tasks = %d (store %d), want 8", rep.Tasks, store.Len())
	}
	if len(rep.Events) != 5 {
		t.Fatalf("len(Events) = %d, want 5", len(rep.Events))
	}
	if rep.Events[1].Reason != assemble.NoRoom || rep.Events[4].Reason != assemble.NoTimes {
		t.Errorf("discard reasons = %q, %q", rep.Events[1].Reason, rep.Events[4].Reason)
	}
	if !rep.Events[3].Failed {
		t.Errorf("event 3 should be a lookup failure: %+v", rep.Events[3])
	}

	// 5:30 PM holds both unlocks in processing order.
	unlocks := store.Tasks("5:30 PM")
	if len(unlocks) != 2 || unlocks[0].Room != "4265" || unlocks[1].Room != "3220" {
		t.Errorf("5:30 PM slot = %+v", unlocks)
	}
	for _, task := range unlocks {
		if task.Type != model.TaskUnlock {
			t.Errorf("unexpected task in 5:30 PM: %+v", task)
		}
	}
	for _, slot := range store.Slots() {
		for _, task := range slot.Tasks {
			if task.Room == "101" || task.Room == "102" {
				t.Errorf("failed event leaked a task: %+v", task)
			}
		}
	}
}

func TestRunDeterministic(t *testing.T) {
	a, b := schedule.New(), schedule.New()
	if _, err := Run(context.Background(), sampleDay(), a); err != nil {
		t.Fatal(err)
	}
	if _, err := Run(context.Background(), sampleDay(), b); err != nil {
		t.Fatal(err)
	}
	sa, sb := a.Slots(), b.Slots()
	for i := range sa {
		if len(sa[i].Tasks) != len(sb[i].Tasks) {
			t.Fatalf("slot %s differs", sa[i].Label)
		}
		for j := range sa[i].Tasks {
			if sa[i].Tasks[j] != sb[i].Tasks[j] {
				t.Errorf("slot %s task %d differs", sa[i].Label, j)
			}
		}
	}
}

func TestRunAccessTimeUnlock(t *testing.T) {
	tests := []struct {
		name       string
		access     string
		start      string
		wantUnlock string
		wantNote   string
	}{
		{name: "hour glued to text", access: `<p>Access at7:00 PM</p>`, start: "7:30 PM", wantUnlock: "6:30 PM"},
		{name: "out of range falls back to start", access: `<p>Access at 13:00 PM</p>`, start: "6:30 PM", wantUnlock: "6:00 PM", wantNote: assemble.NoAccessTime},
		{name: "zero hour falls back to start", access: `<p>Access at 0:30 pm</p>`, start: "6:30 PM", wantUnlock: "6:00 PM", wantNote: assemble.NoAccessTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := FragmentSource{{
				RoomText:      "4265",
				HeaderText:    "Board Dinner - Union - 4265 - (Conference, 12, act. 10)",
				TimesHTML:     timesHTML(tt.start, "9:00 PM"),
				HasAccessTime: true,
				AccessHTML:    tt.access,
			}}
			store := schedule.New()
			rep, err := Run(context.Background(), src, store)
			if err != nil {
				t.Fatal(err)
			}
			if rep.Kept != 1 || rep.Failed != 0 || rep.Tasks != 4 {
				t.Fatalf("kept/failed/tasks = %d/%d/%d, want 1/0/4", rep.Kept, rep.Failed, rep.Tasks)
			}
			if rep.Events[0].Event.Error != tt.wantNote {
				t.Errorf("note = %q, want %q", rep.Events[0].Event.Error, tt.wantNote)
			}
			unlocks := store.Tasks(tt.wantUnlock)
			if len(unlocks) != 1 || unlocks[0].Type != model.TaskUnlock {
				t.Errorf("%s slot = %+v, want one unlock", tt.wantUnlock, unlocks)
			}
		})
	}
}

func TestRunUnreadableStartIsDiscarded(t *testing.T) {
	src := FragmentSource{{RoomText: "4265", TimesHTML: timesHTML("13:00 PM", "9:00 PM")}}
	store := schedule.New()
	rep, err := Run(context.Background(), src, store)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Discarded != 1 || rep.Failed != 0 || store.Len() != 0 {
		t.Errorf("discarded/failed/tasks = %d/%d/%d, want 1/0/0", rep.Discarded, rep.Failed, store.Len())
	}
	if rep.Events[0].Reason != assemble.NoTimes {
		t.Errorf("reason = %q, want %q", rep.Events[0].Reason, assemble.NoTimes)
	}
}

type failingSource struct {
	before FragmentSource
}

func (f failingSource) Visit(ctx context.Context, fn func(assemble.DetailView)) error {
	if err := f.before.Visit(ctx, fn); err != nil {
		return err
	}
	return errors.New("navigation timeout")
}

func TestRunSourceErrorKeepsPartialReport(t *testing.T) {
	store := schedule.New()
	rep, err := Run(context.Background(), failingSource{before: sampleDay()[:1]}, store)
	if err == nil {
		t.Fatal("expected source error")
	}
	if rep.Kept != 1 || store.Len() != 4 {
		t.Errorf("partial run lost data: kept=%d tasks=%d", rep.Kept, store.Len())
	}
}

func TestRunNilArguments(t *testing.T) {
	if _, err := Run(context.Background(), nil, schedule.New()); err == nil {
		t.Error("expected error for nil source")
	}
	if _, err := Run(context.Background(), FragmentSource{}, nil); err == nil {
		t.Error("expected error for nil store")
	}
}

func TestFragmentSourceHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := 0
	err := sampleDay().Visit(ctx, func(assemble.DetailView) { n++ })
	if !errors.Is(err, context.Canceled) || n != 0 {
		t.Errorf("Visit() = %v after %d events, want context.Canceled after 0", err, n)
	}
}

func TestRecorderAndReplay(t *testing.T) {
	rec := &Recorder{Source: sampleDay()}
	if _, err := Run(context.Background(), rec, schedule.New()); err != nil {
		t.Fatal(err)
	}
	if len(rec.Captured()) != 5 {
		t.Fatalf("captured %d panels, want 5", len(rec.Captured()))
	}

	path := filepath.Join(t.TempDir(), "dump", "fragments.json")
	if err := SaveFragments(path, rec.Captured()); err != nil {
		t.Fatalf("SaveFragments() error: %v", err)
	}
	replay, err := LoadFragments(path)
	if err != nil {
		t.Fatalf("LoadFragments() error: %v", err)
	}

	store := schedule.New()
	rep, err := Run(context.Background(), replay, store)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Kept != 2 || store.Len() != 8 {
		t.Errorf("replay kept=%d tasks=%d, want 2/8", rep.Kept, store.Len())
	}
}

func TestLatest(t *testing.T) {
	var l Latest
	if l.Get() != nil {
		t.Fatal("Get() before first run should be nil")
	}
	day := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	snap, err := l.RunAndStore(context.Background(), sampleDay(), day)
	if err != nil {
		t.Fatal(err)
	}
	if l.Get() != snap || snap.Store.Len() != 8 || !snap.Day.Equal(day) {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	_, err = l.RunAndStore(context.Background(), failingSource{}, day)
	if err == nil || l.Get().Err == nil {
		t.Errorf("failed run should still be published with its error")
	}
}
