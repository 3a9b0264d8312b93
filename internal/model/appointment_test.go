package model

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusPending, StatusPending, true},
		{StatusCompleted, StatusCompleted, true},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDraftEditing(t *testing.T) {
	d := NewDraft(DraftFields{PatientID: "p1"})
	if id, ok := d.Editing(); ok || id != "" {
		t.Errorf("new draft reported editing id %q", id)
	}

	e := EditDraft("a1", DraftFields{PatientID: "p1"})
	id, ok := e.Editing()
	if !ok || id != "a1" {
		t.Errorf("edit draft Editing() = %q, %v, want a1, true", id, ok)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{"pending", "confirmed", "completed", "cancelled"} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false", s)
		}
	}
	if ValidStatus("archived") {
		t.Error("ValidStatus(archived) = true")
	}
}
