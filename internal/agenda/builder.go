// Package agenda derives the day-grouped scheduling projections the UI
// renders: today's agenda, the upcoming list, and the calendar feed. All
// builder functions are pure over their inputs; nothing here mutates the
// appointment list, which is owned by the scheduling store.
package agenda

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hbarros/praxis/internal/model"
	"github.com/hbarros/praxis/internal/timeslot"
)

// DayBucket groups the appointments of one local calendar date, ordered by
// time-of-day ascending. Buckets are derived on demand and never stored.
type DayBucket struct {
	Date         string              `json:"date"` // YYYY-MM-DD in the practice timezone
	Appointments []model.Appointment `json:"appointments"`
}

// GroupByDay buckets appointments by their local calendar date in loc.
// Bucket order is ascending by date; within a bucket appointments are
// ordered by start time, ties keeping their input order.
func GroupByDay(appointments []model.Appointment, loc *time.Location) []DayBucket {
	byDate := make(map[string][]model.Appointment)
	var dates []string

	for _, a := range appointments {
		date := timeslot.LocalDate(a.ScheduledFrom, loc)
		if _, seen := byDate[date]; !seen {
			dates = append(dates, date)
		}
		byDate[date] = append(byDate[date], a)
	}

	sort.Strings(dates)

	buckets := make([]DayBucket, 0, len(dates))
	for _, date := range dates {
		apps := byDate[date]
		sort.SliceStable(apps, func(i, j int) bool {
			return apps[i].ScheduledFrom.Before(apps[j].ScheduledFrom)
		})
		buckets = append(buckets, DayBucket{Date: date, Appointments: apps})
	}
	return buckets
}

// FilterUpcoming keeps appointments whose local calendar date is today or
// later. The comparison is date-only: a session earlier today that has not
// been completed still counts as upcoming for list purposes.
func FilterUpcoming(appointments []model.Appointment, now time.Time, loc *time.Location) []model.Appointment {
	today := timeslot.LocalDate(now, loc)
	var out []model.Appointment
	for _, a := range appointments {
		if timeslot.LocalDate(a.ScheduledFrom, loc) >= today {
			out = append(out, a)
		}
	}
	return out
}

// FilterToday keeps appointments on today's local calendar date. The day
// boundary is half-open: a session exactly at local midnight belongs to
// that day.
func FilterToday(appointments []model.Appointment, now time.Time, loc *time.Location) []model.Appointment {
	var out []model.Appointment
	for _, a := range appointments {
		if timeslot.SameLocalDay(a.ScheduledFrom, now, loc) {
			out = append(out, a)
		}
	}
	return out
}

// FilterBySearch keeps appointments whose patient display name contains the
// term, case-insensitively. An empty term is the identity. Appointments
// whose patient is missing from the index never match a non-empty term.
func FilterBySearch(appointments []model.Appointment, patients map[string]model.Patient, term string) []model.Appointment {
	term = strings.TrimSpace(term)
	if term == "" {
		return appointments
	}
	needle := strings.ToLower(term)

	var out []model.Appointment
	for _, a := range appointments {
		p, ok := patients[a.PatientID]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(p.DisplayName), needle) {
			out = append(out, a)
		}
	}
	return out
}

// Builder memoizes the last day-grouped computation so a reactive caller
// re-rendering with unchanged inputs gets the same value back without
// recomputing. This is a performance contract only: the result is always
// value-equal to a fresh GroupByDay.
type Builder struct {
	loc *time.Location

	mu      sync.Mutex
	lastKey string
	last    []DayBucket
}

// NewBuilder creates a Builder grouping into the given practice timezone.
func NewBuilder(loc *time.Location) *Builder {
	return &Builder{loc: loc}
}

// Buckets returns the day-grouped projection for the appointment list,
// reusing the previous result when the list is unchanged.
func (b *Builder) Buckets(appointments []model.Appointment) []DayBucket {
	key := fingerprint(appointments)

	b.mu.Lock()
	defer b.mu.Unlock()

	if key == b.lastKey && b.last != nil {
		return b.last
	}
	b.last = GroupByDay(appointments, b.loc)
	b.lastKey = key
	return b.last
}

func fingerprint(appointments []model.Appointment) string {
	var sb strings.Builder
	for _, a := range appointments {
		sb.WriteString(a.ID)
		sb.WriteByte('|')
		sb.WriteString(strconv.FormatInt(a.ScheduledFrom.UnixMilli(), 10))
		sb.WriteByte('|')
		sb.WriteString(strconv.FormatInt(a.UpdatedAt.UnixMilli(), 10))
		sb.WriteByte(';')
	}
	return sb.String()
}
