package model

import "time"

// Modality says how a session is held.
type Modality string

const (
	ModalityPresential Modality = "presential"
	ModalityRemote     Modality = "remote"
)

// Status is the appointment lifecycle status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ValidModality reports whether s names a known modality.
func ValidModality(s string) bool {
	return Modality(s) == ModalityPresential || Modality(s) == ModalityRemote
}

// ValidStatus reports whether s names a known lifecycle status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an appointment may move from one status to
// another. Forward path is pending -> confirmed -> completed; cancellation is
// reachable from pending or confirmed but not from completed. Staying on the
// same status is always allowed (idempotent saves).
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// Appointment is one scheduled therapist-patient session. The interval
// [ScheduledFrom, ScheduledTo) is half-open; ScheduledFrom < ScheduledTo.
type Appointment struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	TherapistID   string    `json:"therapist_id"`
	ScheduledFrom time.Time `json:"scheduled_from"`
	ScheduledTo   time.Time `json:"scheduled_to"`
	Modality      Modality  `json:"modality"`
	Status        Status    `json:"status"`
	CostCents     *int64    `json:"cost_cents,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Patch holds a partial appointment update. Nil fields are left unchanged.
type Patch struct {
	PatientID     *string    `json:"patient_id,omitempty"`
	ScheduledFrom *time.Time `json:"scheduled_from,omitempty"`
	ScheduledTo   *time.Time `json:"scheduled_to,omitempty"`
	Modality      *Modality  `json:"modality,omitempty"`
	Status        *Status    `json:"status,omitempty"`
	CostCents     *int64     `json:"cost_cents,omitempty"`
	Summary       *string    `json:"summary,omitempty"`
}
