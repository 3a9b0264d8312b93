package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/hbarros/praxis/internal/model"
)

func testAppointment(id, patientID string, status model.Status) model.Appointment {
	from := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	return model.Appointment{
		ID:            id,
		PatientID:     patientID,
		TherapistID:   "t-1",
		ScheduledFrom: from,
		ScheduledTo:   from.Add(time.Hour),
		Modality:      model.ModalityPresential,
		Status:        status,
	}
}

func TestRenderProducesEvents(t *testing.T) {
	patients := map[string]model.Patient{
		"p-1": {ID: "p-1", DisplayName: "Ana Souza"},
	}
	apps := []model.Appointment{
		testAppointment("a-1", "p-1", model.StatusConfirmed),
		testAppointment("a-2", "p-unknown", model.StatusPending),
	}

	out, err := Render(apps, patients)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	feed := string(out)

	if got := strings.Count(feed, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("event count = %d, want 2", got)
	}
	if !strings.Contains(feed, "UID:a-1@praxis") {
		t.Error("missing UID for a-1")
	}
	if !strings.Contains(feed, "SUMMARY:Session: Ana Souza") {
		t.Error("missing patient name in summary")
	}
	if !strings.Contains(feed, "STATUS:CONFIRMED") {
		t.Error("confirmed appointment should map to STATUS:CONFIRMED")
	}
	if !strings.Contains(feed, "STATUS:TENTATIVE") {
		t.Error("pending appointment should map to STATUS:TENTATIVE")
	}
}

func TestRenderCancelledKeepsEvent(t *testing.T) {
	apps := []model.Appointment{testAppointment("a-3", "p-1", model.StatusCancelled)}

	out, err := Render(apps, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(string(out), "STATUS:CANCELLED") {
		t.Error("cancelled appointment should stay in the feed as CANCELLED")
	}
}

func TestRenderRemoteLocation(t *testing.T) {
	a := testAppointment("a-4", "p-1", model.StatusConfirmed)
	a.Modality = model.ModalityRemote

	out, err := Render([]model.Appointment{a}, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(string(out), "LOCATION:Remote session") {
		t.Error("remote appointment should carry a location hint")
	}
}
