package model

import "time"

// DraftFields are the editable appointment fields composed in the drawer.
type DraftFields struct {
	PatientID     string    `json:"patient_id"`
	TherapistID   string    `json:"therapist_id"`
	ScheduledFrom time.Time `json:"scheduled_from"`
	ScheduledTo   time.Time `json:"scheduled_to"`
	Modality      Modality  `json:"modality"`
	Status        Status    `json:"status"`
	CostCents     *int64    `json:"cost_cents,omitempty"`
	Summary       string    `json:"summary,omitempty"`
}

// Draft is a tagged create-or-edit variant: whether a drawer session is
// creating a new appointment or editing an existing one is carried in the
// type, not inferred from an optional id.
type Draft struct {
	originalID string
	Fields     DraftFields
}

// NewDraft starts a draft for a brand-new appointment.
func NewDraft(fields DraftFields) Draft {
	return Draft{Fields: fields}
}

// EditDraft starts a draft editing the appointment with the given id.
func EditDraft(originalID string, fields DraftFields) Draft {
	return Draft{originalID: originalID, Fields: fields}
}

// Editing returns the id of the appointment being edited, and whether this
// draft is an edit at all.
func (d Draft) Editing() (string, bool) {
	return d.originalID, d.originalID != ""
}

// Patch converts the draft fields into a full-replace patch for an update.
func (d Draft) Patch() Patch {
	f := d.Fields
	return Patch{
		PatientID:     &f.PatientID,
		ScheduledFrom: &f.ScheduledFrom,
		ScheduledTo:   &f.ScheduledTo,
		Modality:      &f.Modality,
		Status:        &f.Status,
		CostCents:     f.CostCents,
		Summary:       &f.Summary,
	}
}
