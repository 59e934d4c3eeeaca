package clock

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		wantHour int
		wantMin  int
		wantErr  bool
	}{
		{in: "11AM", wantHour: 11},
		{in: "11 am", wantHour: 11},
		{in: "6:30 PM", wantHour: 18, wantMin: 30},
		{in: "6:30pm", wantHour: 18, wantMin: 30},
		{in: "6:30 p.m.", wantHour: 18, wantMin: 30},
		{in: "12:00 AM", wantHour: 0},
		{in: "12:15 PM", wantHour: 12, wantMin: 15},
		{in: "  9:05 AM  ", wantHour: 9, wantMin: 5},
		{in: "18:00", wantErr: true},
		{in: "0:30 pm", wantErr: true},
		{in: "00 PM", wantErr: true},
		{in: "13:00 PM", wantErr: true},
		{in: "123 AM", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				var ferr *FormatError
				if !errors.As(err, &ferr) || ferr.Input != tt.in {
					t.Errorf("expected *FormatError carrying input, got %v", err)
				}
				return
			}
			if got.Hour() != tt.wantHour || got.Minute() != tt.wantMin {
				t.Errorf("Parse(%q) = %02d:%02d, want %02d:%02d", tt.in, got.Hour(), got.Minute(), tt.wantHour, tt.wantMin)
			}
		})
	}
}

func TestBucket(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10:00 AM", "10:00 AM"},
		{"10:29 AM", "10:00 AM"},
		{"10:30 AM", "10:30 AM"},
		{"10:59 AM", "10:30 AM"},
		{"6:15 PM", "6:00 PM"},
		{"9am", "9:00 AM"},
		{"12:45 AM", "12:30 AM"},
	}
	for _, tt := range tests {
		got, err := Bucket(tt.in)
		if err != nil {
			t.Fatalf("Bucket(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Bucket(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoundDownIdempotent(t *testing.T) {
	for _, in := range []string{"5:00 AM", "10:30 AM", "11:30 PM", "12:00 AM"} {
		p, err := Parse(in)
		if err != nil {
			t.Fatal(err)
		}
		once := RoundDown(p)
		if !once.Equal(p) {
			t.Errorf("RoundDown(%s) moved an exact boundary to %s", in, Label(once))
		}
		if twice := RoundDown(once); !twice.Equal(once) {
			t.Errorf("RoundDown not idempotent for %s", in)
		}
	}
}

func TestUnlockSlot(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		start   string
		want    string
		wantErr bool
	}{
		{name: "access time on boundary", access: "10:30 AM", start: "11:00 AM", want: "10:00 AM"},
		{name: "start fallback", access: "", start: "6:15 PM", want: "5:30 PM"},
		{name: "access rounds down first", access: "6:00 PM", start: "6:30 PM", want: "5:30 PM"},
		{name: "access with odd minutes", access: "6:44 PM", start: "7:00 PM", want: "6:00 PM"},
		{name: "wraps across midnight", access: "12:10 AM", start: "1:00 AM", want: "11:30 PM"},
		{name: "wraps across noon", access: "", start: "12:00 PM", want: "11:30 AM"},
		{name: "bad access", access: "soon", start: "6:00 PM", wantErr: true},
		{name: "bad start", access: "", start: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnlockSlot(tt.access, tt.start)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnlockSlot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("UnlockSlot(%q, %q) = %q, want %q", tt.access, tt.start, got, tt.want)
			}
		})
	}
}
