// Package ics renders the practice schedule as an iCalendar feed that any
// external calendar application can subscribe to read-only.
package ics

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/hbarros/praxis/internal/model"
)

const productID = "-//praxis//scheduling//EN"

// Feed builds a VCALENDAR containing one VEVENT per appointment. Cancelled
// appointments are included with STATUS:CANCELLED so subscribed calendars
// remove them rather than showing stale slots.
func Feed(appointments []model.Appointment, patients map[string]model.Patient) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, a := range appointments {
		cal.Children = append(cal.Children, event(a, patients))
	}
	return cal
}

// Render encodes the feed to its wire form.
func Render(appointments []model.Appointment, patients map[string]model.Patient) ([]byte, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(Feed(appointments, patients)); err != nil {
		return nil, fmt.Errorf("encode calendar feed: %w", err)
	}
	return buf.Bytes(), nil
}

func event(a model.Appointment, patients map[string]model.Patient) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, a.ID+"@praxis")
	ve.Props.SetText(ical.PropSummary, summary(a, patients))
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, a.ScheduledFrom)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, a.ScheduledTo)
	ve.Props.SetText(ical.PropStatus, status(a.Status))
	if a.Summary != "" {
		ve.Props.SetText(ical.PropDescription, a.Summary)
	}
	if a.Modality == model.ModalityRemote {
		ve.Props.SetText(ical.PropLocation, "Remote session")
	}
	return ve
}

func summary(a model.Appointment, patients map[string]model.Patient) string {
	if p, ok := patients[a.PatientID]; ok && p.DisplayName != "" {
		return "Session: " + p.DisplayName
	}
	return "Session"
}

func status(s model.Status) string {
	switch s {
	case model.StatusConfirmed, model.StatusCompleted:
		return "CONFIRMED"
	case model.StatusCancelled:
		return "CANCELLED"
	default:
		return "TENTATIVE"
	}
}
