// Package drawer holds the short-lived state machine behind the
// appointment editing drawer: one session composes one create or edit,
// validates it, and hands the finished draft to the scheduling store.
// A Session belongs to a single view and is not safe for concurrent use.
package drawer

import (
	"context"
	"fmt"
	"time"

	"github.com/hbarros/praxis/internal/model"
	"github.com/hbarros/praxis/internal/timeslot"
)

// State represents the drawer lifecycle state.
type State string

const (
	StateClosed           State = "closed"
	StateOpen             State = "open"
	StateConfirmingSave   State = "confirming-save"
	StateConfirmingDelete State = "confirming-delete"
)

// DefaultDurationMinutes is the sticky duration a fresh session starts with.
const DefaultDurationMinutes = 60

// PatientLookup resolves the patient behind a draft, including the contact
// address a calendar invite needs.
type PatientLookup interface {
	ByID(ctx context.Context, id string) (*model.Patient, error)
}

// Session is the ephemeral edit state for at most one appointment. It is
// destroyed on save-confirm or cancel and never persisted.
type Session struct {
	lookup PatientLookup
	loc    *time.Location

	state           State
	draft           model.Draft
	durationMinutes int

	// needsInvite marks sessions whose save also produces an external
	// calendar invite, which requires a resolvable patient contact.
	needsInvite     bool
	patient         *model.Patient
	patientResolved bool
}

// NewSession creates a closed session for the given practice timezone.
func NewSession(lookup PatientLookup, loc *time.Location) *Session {
	return &Session{lookup: lookup, loc: loc, state: StateClosed, durationMinutes: DefaultDurationMinutes}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Draft returns the draft being composed.
func (s *Session) Draft() model.Draft { return s.draft }

// OpenCreate opens the drawer for a new appointment.
func (s *Session) OpenCreate(needsInvite bool) error {
	if s.state != StateClosed {
		return fmt.Errorf("drawer already open (state %s)", s.state)
	}
	s.state = StateOpen
	s.needsInvite = needsInvite
	s.durationMinutes = DefaultDurationMinutes
	s.draft = model.NewDraft(model.DraftFields{
		Modality: model.ModalityPresential,
		Status:   model.StatusPending,
	})
	s.patient = nil
	s.patientResolved = false
	return nil
}

// OpenEdit opens the drawer over an existing appointment, seeding the draft
// and the sticky duration from its current interval.
func (s *Session) OpenEdit(a model.Appointment, needsInvite bool) error {
	if s.state != StateClosed {
		return fmt.Errorf("drawer already open (state %s)", s.state)
	}
	s.state = StateOpen
	s.needsInvite = needsInvite
	s.draft = model.EditDraft(a.ID, model.DraftFields{
		PatientID:     a.PatientID,
		TherapistID:   a.TherapistID,
		ScheduledFrom: a.ScheduledFrom,
		ScheduledTo:   a.ScheduledTo,
		Modality:      a.Modality,
		Status:        a.Status,
		CostCents:     a.CostCents,
		Summary:       a.Summary,
	})
	if d := int(a.ScheduledTo.Sub(a.ScheduledFrom).Minutes()); d > 0 {
		s.durationMinutes = d
	} else {
		s.durationMinutes = DefaultDurationMinutes
	}
	s.patient = nil
	s.patientResolved = false
	return nil
}

// SetPatient changes the draft's patient and invalidates the previously
// resolved contact.
func (s *Session) SetPatient(id string) {
	s.draft.Fields.PatientID = id
	s.patient = nil
	s.patientResolved = false
}

// SetTherapist sets the therapist reference on the draft.
func (s *Session) SetTherapist(id string) {
	s.draft.Fields.TherapistID = id
}

// SetStart moves the start time and recomputes the end from the currently
// selected duration, which acts as a sticky multiplier across edits within
// one session.
func (s *Session) SetStart(start time.Time) {
	s.draft.Fields.ScheduledFrom = start
	s.draft.Fields.ScheduledTo = start.Add(time.Duration(s.durationMinutes) * time.Minute)
}

// SetDuration changes the sticky duration and recomputes the end from the
// current start.
func (s *Session) SetDuration(minutes int) {
	if minutes <= 0 {
		minutes = DefaultDurationMinutes
	}
	s.durationMinutes = minutes
	if !s.draft.Fields.ScheduledFrom.IsZero() {
		s.draft.Fields.ScheduledTo = s.draft.Fields.ScheduledFrom.Add(time.Duration(minutes) * time.Minute)
	}
}

// SetEnd moves the end time directly. A positive resulting interval reseeds
// the sticky duration so a later SetStart keeps the chosen length.
func (s *Session) SetEnd(end time.Time) {
	s.draft.Fields.ScheduledTo = end
	if !s.draft.Fields.ScheduledFrom.IsZero() {
		if d := int(end.Sub(s.draft.Fields.ScheduledFrom).Minutes()); d > 0 {
			s.durationMinutes = d
		}
	}
}

// DurationMinutes returns the sticky duration.
func (s *Session) DurationMinutes() int { return s.durationMinutes }

// SetModality sets the session modality.
func (s *Session) SetModality(m model.Modality) {
	s.draft.Fields.Modality = m
}

// SetStatus sets the lifecycle status on the draft.
func (s *Session) SetStatus(st model.Status) {
	s.draft.Fields.Status = st
}

// SetSummary sets the free-text summary.
func (s *Session) SetSummary(text string) {
	s.draft.Fields.Summary = text
}

// SetCost sets the optional session cost in cents; nil clears it.
func (s *Session) SetCost(cents *int64) {
	s.draft.Fields.CostCents = cents
}

// ResolveContact loads the draft's patient through the lookup collaborator
// so the contact-address gate can be evaluated. Until it has run, saves of
// invite-bearing sessions stay disabled rather than submitting with absent
// contact data.
func (s *Session) ResolveContact(ctx context.Context) error {
	id := s.draft.Fields.PatientID
	if id == "" {
		return &model.ValidationError{Field: "patient", Reason: "no patient selected"}
	}
	p, err := s.lookup.ByID(ctx, id)
	if err != nil {
		return fmt.Errorf("resolve patient contact: %w", err)
	}
	s.patient = p
	s.patientResolved = true
	return nil
}

// Validate runs the pre-submit gate. now anchors the no-past-date rule,
// which applies to new appointments only; edits to already-past sessions
// are permitted.
func (s *Session) Validate(now time.Time) error {
	f := s.draft.Fields
	if f.PatientID == "" {
		return &model.ValidationError{Field: "patient", Reason: "required"}
	}
	if f.ScheduledFrom.IsZero() {
		return &model.ValidationError{Field: "date", Reason: "required"}
	}
	if _, editing := s.draft.Editing(); !editing {
		if timeslot.LocalDate(f.ScheduledFrom, s.loc) < timeslot.LocalDate(now, s.loc) {
			return &model.ValidationError{Field: "date", Reason: "cannot schedule in the past"}
		}
	}
	if f.ScheduledTo.IsZero() {
		return &model.ValidationError{Field: "end_time", Reason: "required"}
	}
	if !f.ScheduledFrom.Before(f.ScheduledTo) {
		return &model.ValidationError{Field: "end_time", Reason: "must be after start time"}
	}
	if !model.ValidModality(string(f.Modality)) {
		return &model.ValidationError{Field: "modality", Reason: "required"}
	}
	if !model.ValidStatus(string(f.Status)) {
		return &model.ValidationError{Field: "status", Reason: "required"}
	}
	return nil
}

// CanSave reports whether the save action is enabled: the draft validates
// and, for invite-bearing sessions, the patient contact has resolved to a
// usable address.
func (s *Session) CanSave(now time.Time) bool {
	if s.state != StateOpen {
		return false
	}
	if s.Validate(now) != nil {
		return false
	}
	if s.needsInvite {
		return s.patientResolved && s.patient.HasContact()
	}
	return true
}

// BeginSave moves open -> confirming-save. The validation gate must pass
// before any confirmation dialog may appear.
func (s *Session) BeginSave(now time.Time) error {
	if s.state != StateOpen {
		return fmt.Errorf("cannot save from state %s", s.state)
	}
	if err := s.Validate(now); err != nil {
		return err
	}
	if s.needsInvite && (!s.patientResolved || !s.patient.HasContact()) {
		return &model.ValidationError{Field: "patient", Reason: "contact address required for calendar invite"}
	}
	s.state = StateConfirmingSave
	return nil
}

// ConfirmSave closes the session and returns the finished draft for
// persistence.
func (s *Session) ConfirmSave() (model.Draft, error) {
	if s.state != StateConfirmingSave {
		return model.Draft{}, fmt.Errorf("cannot confirm save from state %s", s.state)
	}
	draft := s.draft
	s.reset()
	return draft, nil
}

// BeginDelete moves open -> confirming-delete. Only edit sessions can
// delete.
func (s *Session) BeginDelete() error {
	if s.state != StateOpen {
		return fmt.Errorf("cannot delete from state %s", s.state)
	}
	if _, editing := s.draft.Editing(); !editing {
		return fmt.Errorf("nothing to delete in a create session")
	}
	s.state = StateConfirmingDelete
	return nil
}

// ConfirmDelete closes the session and returns the id to delete.
func (s *Session) ConfirmDelete() (string, error) {
	if s.state != StateConfirmingDelete {
		return "", fmt.Errorf("cannot confirm delete from state %s", s.state)
	}
	id, _ := s.draft.Editing()
	s.reset()
	return id, nil
}

// CancelConfirm returns a confirming-* state to open.
func (s *Session) CancelConfirm() {
	if s.state == StateConfirmingSave || s.state == StateConfirmingDelete {
		s.state = StateOpen
	}
}

// Cancel closes the drawer, discarding the draft.
func (s *Session) Cancel() {
	s.reset()
}

func (s *Session) reset() {
	s.state = StateClosed
	s.draft = model.Draft{}
	s.durationMinutes = DefaultDurationMinutes
	s.needsInvite = false
	s.patient = nil
	s.patientResolved = false
}
