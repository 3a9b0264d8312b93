// Package timeslot converts between absolute instants and the local
// calendar-day / time-of-day fields the scheduling UI edits. The caller's
// UTC offset travels with the encoded form so a slot entered as 14:00 local
// round-trips as 14:00 local regardless of where the server runs.
package timeslot

import (
	"fmt"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// LocalFields is the calendar-day and time-of-day of an instant in some
// fixed UTC offset.
type LocalFields struct {
	Date  string `json:"date"`  // YYYY-MM-DD
	Clock string `json:"time"`  // HH:MM, 24h
}

// Split renders an instant as local fields in the given UTC offset.
// Encoding is injective for minute-aligned instants: no two distinct
// instants produce the same (date, clock, offset) tuple.
func Split(t time.Time, offsetMinutes int) LocalFields {
	local := t.In(zone(offsetMinutes))
	return LocalFields{
		Date:  local.Format(dateLayout),
		Clock: local.Format(clockLayout),
	}
}

// Instant reconstructs the absolute instant for local fields expressed in
// the given UTC offset.
func Instant(f LocalFields, offsetMinutes int) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+"T"+clockLayout, f.Date+"T"+f.Clock, zone(offsetMinutes))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse local fields: %w", err)
	}
	return t, nil
}

// FormatPreservingOffset renders an instant as an RFC 3339 string in the
// given UTC offset rather than UTC, so the wire form keeps the caller's
// local wall-clock reading.
func FormatPreservingOffset(t time.Time, offsetMinutes int) string {
	return t.In(zone(offsetMinutes)).Format(time.RFC3339)
}

// EndOfSlot derives an end clock from a start clock plus a duration in
// minutes. Minutes that roll past 23:59 wrap to the next day implicitly
// (hour modulo 24); callers picking long durations must not assume the end
// stays within the start's calendar day.
func EndOfSlot(startClock string, durationMinutes int) (string, error) {
	start, err := time.Parse(clockLayout, startClock)
	if err != nil {
		return "", fmt.Errorf("parse start clock: %w", err)
	}
	total := (start.Hour()*60 + start.Minute() + durationMinutes) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60), nil
}

// LocalDate is the calendar date of an instant in the given location,
// used as the day-bucket key.
func LocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

// SameLocalDay reports whether two instants fall on the same calendar date
// in the given location. Day boundaries are half-open: an instant exactly
// at local midnight belongs to that day.
func SameLocalDay(a, b time.Time, loc *time.Location) bool {
	return LocalDate(a, loc) == LocalDate(b, loc)
}

func zone(offsetMinutes int) *time.Location {
	if offsetMinutes == 0 {
		return time.UTC
	}
	sign := "+"
	m := offsetMinutes
	if m < 0 {
		sign = "-"
		m = -m
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, m/60, m%60)
	return time.FixedZone(name, offsetMinutes*60)
}
