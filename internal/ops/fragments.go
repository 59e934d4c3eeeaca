package ops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"roomops/internal/assemble"
)

// FragmentSource replays previously captured detail panels. It backs the
// -replay flag and tests.
type FragmentSource []assemble.Fragments

// Visit implements Source.
func (s FragmentSource) Visit(ctx context.Context, fn func(assemble.DetailView)) error {
	for _, f := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(f)
	}
	return nil
}

// LoadFragments reads a JSON array of captured panels written by
// SaveFragments.
func LoadFragments(path string) (FragmentSource, error) {
	if path == "" {
		return nil, errors.New("ops: fragments path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out FragmentSource
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("ops: decode %s: %w", path, err)
	}
	return out, nil
}

// SaveFragments writes captured panels as indented JSON (0600).
func SaveFragments(path string, frags []assemble.Fragments) error {
	if path == "" {
		return errors.New("ops: fragments path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(frags, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Recorder wraps a Source and keeps a copy of every panel it yields, so a
// live scrape can be dumped and replayed later.
type Recorder struct {
	Source Source

	captured []assemble.Fragments
}

// Visit implements Source.
func (r *Recorder) Visit(ctx context.Context, fn func(assemble.DetailView)) error {
	return r.Source.Visit(ctx, func(v assemble.DetailView) {
		r.captured = append(r.captured, Capture(v))
		fn(v)
	})
}

// Captured returns the panels seen so far.
func (r *Recorder) Captured() []assemble.Fragments {
	return r.captured
}

// Capture snapshots any DetailView into Fragments.
func Capture(v assemble.DetailView) assemble.Fragments {
	if f, ok := v.(assemble.Fragments); ok {
		return f
	}
	var f assemble.Fragments
	f.RoomText, _ = v.Room()
	f.HeaderText, _ = v.Header()
	f.TimesHTML, _ = v.TimeFragment()
	f.AccessHTML, f.HasAccessTime = v.AccessTimeFragment()
	return f
}
