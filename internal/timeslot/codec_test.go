package timeslot

import (
	"strings"
	"testing"
	"time"
)

func TestSplitInstantRoundTrip(t *testing.T) {
	instants := []time.Time{
		time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC),
	}
	offsets := []int{0, -180, -210, 60, 330, 720}

	for _, in := range instants {
		for _, off := range offsets {
			fields := Split(in, off)
			out, err := Instant(fields, off)
			if err != nil {
				t.Fatalf("Instant(%v, %d): %v", fields, off, err)
			}
			if !out.Equal(in) {
				t.Errorf("round trip at offset %d: got %v, want %v", off, out, in)
			}
		}
	}
}

func TestSplitUsesCallerOffset(t *testing.T) {
	// 14:00 UTC is 11:00 at UTC-3.
	in := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	fields := Split(in, -180)
	if fields.Date != "2026-03-10" || fields.Clock != "11:00" {
		t.Errorf("Split = %+v, want 2026-03-10 11:00", fields)
	}
}

func TestSplitDateShiftAcrossOffset(t *testing.T) {
	// 01:00 UTC is still the previous day at UTC-3.
	in := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	fields := Split(in, -180)
	if fields.Date != "2026-03-09" || fields.Clock != "22:00" {
		t.Errorf("Split = %+v, want 2026-03-09 22:00", fields)
	}
}

func TestFormatPreservingOffset(t *testing.T) {
	in := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	got := FormatPreservingOffset(in, -180)
	if !strings.HasSuffix(got, "-03:00") {
		t.Errorf("wire string %q does not carry -03:00 offset", got)
	}
	if !strings.HasPrefix(got, "2026-03-10T11:00:00") {
		t.Errorf("wire string %q does not read 11:00 local", got)
	}

	back, err := time.Parse(time.RFC3339, got)
	if err != nil {
		t.Fatalf("parse wire string: %v", err)
	}
	if !back.Equal(in) {
		t.Errorf("wire string decodes to %v, want %v", back, in)
	}
}

func TestEndOfSlot(t *testing.T) {
	tests := []struct {
		start    string
		duration int
		want     string
	}{
		{"10:00", 60, "11:00"},
		{"10:00", 30, "10:30"},
		{"09:15", 45, "10:00"},
		{"23:30", 60, "00:30"}, // wraps past midnight
		{"23:00", 120, "01:00"},
		{"00:00", 1440, "00:00"},
	}

	for _, tt := range tests {
		got, err := EndOfSlot(tt.start, tt.duration)
		if err != nil {
			t.Fatalf("EndOfSlot(%q, %d): %v", tt.start, tt.duration, err)
		}
		if got != tt.want {
			t.Errorf("EndOfSlot(%q, %d) = %q, want %q", tt.start, tt.duration, got, tt.want)
		}
	}
}

func TestEndOfSlotBadClock(t *testing.T) {
	if _, err := EndOfSlot("25:00", 30); err == nil {
		t.Error("expected error for invalid clock")
	}
}

func TestSameLocalDayMidnightBoundary(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)

	midnight := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC) // 00:00 local
	justBefore := midnight.Add(-time.Millisecond)

	dayStart := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) // same local day as midnight

	if !SameLocalDay(midnight, dayStart, loc) {
		t.Error("local midnight should belong to that day")
	}
	if SameLocalDay(justBefore, dayStart, loc) {
		t.Error("one millisecond before midnight should belong to the previous day")
	}
}
