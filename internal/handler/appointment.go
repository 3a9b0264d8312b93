package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hbarros/praxis/internal/calendarsync"
	"github.com/hbarros/praxis/internal/drawer"
	"github.com/hbarros/praxis/internal/model"
	"github.com/hbarros/praxis/internal/scheduling"
	"github.com/hbarros/praxis/internal/store"
	"github.com/hbarros/praxis/internal/timeslot"
	"github.com/hbarros/praxis/internal/websocket"
)

// AppointmentHandler exposes the appointment lifecycle over HTTP. Creates run
// through a drawer session so the same validation and contact gates apply no
// matter which client submits.
type AppointmentHandler struct {
	sched        *scheduling.Store
	appointments *store.AppointmentStore
	patients     *store.PatientStore
	calendar     *calendarsync.Coordinator
	hub          *websocket.Hub
	loc          *time.Location
}

func NewAppointmentHandler(sched *scheduling.Store, as *store.AppointmentStore, ps *store.PatientStore, calendar *calendarsync.Coordinator, hub *websocket.Hub, loc *time.Location) *AppointmentHandler {
	return &AppointmentHandler{
		sched:        sched,
		appointments: as,
		patients:     ps,
		calendar:     calendar,
		hub:          hub,
		loc:          loc,
	}
}

func (h *AppointmentHandler) broadcast(action, id string) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("appointment", action, id, nil))
	}
}

// appointmentRequest carries the local wall-clock fields the drawer composes.
// The start instant is rebuilt from date, clock time, and the client's UTC
// offset so the booked wall time survives timezone round trips.
type appointmentRequest struct {
	PatientID        string `json:"patient_id"`
	TherapistID      string `json:"therapist_id"`
	Date             string `json:"date"`       // YYYY-MM-DD
	StartTime        string `json:"start_time"` // HH:MM
	DurationMinutes  int    `json:"duration_minutes"`
	UTCOffsetMinutes int    `json:"utc_offset_minutes"`
	Modality         string `json:"modality"`
	Status           string `json:"status"`
	CostCents        *int64 `json:"cost_cents"`
	Summary          string `json:"summary"`
	SendInvite       bool   `json:"send_invite"`
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	var err error
	if r.URL.Query().Get("scope") == "all" {
		err = h.sched.FetchAll(r.Context())
	} else {
		err = h.sched.FetchUpcoming(r.Context(), 0)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	apps := h.sched.Appointments()
	if apps == nil {
		apps = []model.Appointment{}
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.appointments.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if appt == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "appointment not found"})
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := h.calendar.GateSchedule(); err != nil {
		writeError(w, err)
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	start, err := timeslot.Instant(timeslot.LocalFields{Date: req.Date, Clock: req.StartTime}, req.UTCOffsetMinutes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD and start_time HH:MM"})
		return
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = drawer.DefaultDurationMinutes
	}
	// The end clock stays on the start's calendar date; a slot rolling past
	// midnight yields an end before its start and fails drawer validation.
	endClock, err := timeslot.EndOfSlot(req.StartTime, duration)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_time must be HH:MM"})
		return
	}
	end, err := timeslot.Instant(timeslot.LocalFields{Date: req.Date, Clock: endClock}, req.UTCOffsetMinutes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	sess := drawer.NewSession(h.patients, h.loc)
	if err := sess.OpenCreate(req.SendInvite); err != nil {
		writeError(w, err)
		return
	}
	sess.SetPatient(req.PatientID)
	sess.SetTherapist(req.TherapistID)
	sess.SetStart(start)
	sess.SetEnd(end)
	if req.Modality != "" {
		sess.SetModality(model.Modality(req.Modality))
	}
	if req.Status != "" {
		sess.SetStatus(model.Status(req.Status))
	}
	sess.SetSummary(req.Summary)
	sess.SetCost(req.CostCents)

	if req.SendInvite {
		if err := sess.ResolveContact(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := sess.BeginSave(time.Now()); err != nil {
		writeError(w, err)
		return
	}
	draft, err := sess.ConfirmSave()
	if err != nil {
		writeError(w, err)
		return
	}

	appt, err := h.sched.Create(r.Context(), draft.Fields)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("created", appt.ID)
	writeJSON(w, http.StatusCreated, createdResponse{
		Appointment:   appt,
		StartsAtLocal: timeslot.FormatPreservingOffset(appt.ScheduledFrom, req.UTCOffsetMinutes),
	})
}

// createdResponse echoes the stored appointment plus the start rendered in
// the submitting client's UTC offset, so the caller sees the wall-clock time
// it actually booked.
type createdResponse struct {
	*model.Appointment
	StartsAtLocal string `json:"starts_at_local"`
}

// appointmentUpdateRequest is a partial update. Rescheduling requires date and
// start_time together; duration falls back to the existing interval length.
type appointmentUpdateRequest struct {
	PatientID        *string `json:"patient_id"`
	Date             *string `json:"date"`
	StartTime        *string `json:"start_time"`
	DurationMinutes  *int    `json:"duration_minutes"`
	UTCOffsetMinutes int     `json:"utc_offset_minutes"`
	Modality         *string `json:"modality"`
	Status           *string `json:"status"`
	CostCents        *int64  `json:"cost_cents"`
	Summary          *string `json:"summary"`
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.appointments.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "appointment not found"})
		return
	}

	var req appointmentUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	patch, err := h.buildPatch(existing, req)
	if err != nil {
		writeError(w, err)
		return
	}

	appt, err := h.sched.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("updated", appt.ID)
	writeJSON(w, http.StatusOK, appt)
}

func (h *AppointmentHandler) buildPatch(existing *model.Appointment, req appointmentUpdateRequest) (model.Patch, error) {
	var patch model.Patch

	if req.Status != nil {
		next := model.Status(*req.Status)
		if !model.ValidStatus(*req.Status) {
			return patch, &model.ValidationError{Field: "status", Reason: "unknown status"}
		}
		if next != existing.Status && !model.CanTransition(existing.Status, next) {
			return patch, &model.ValidationError{
				Field:  "status",
				Reason: fmt.Sprintf("cannot move from %s to %s", existing.Status, next),
			}
		}
		patch.Status = &next
	}

	if req.Date != nil || req.StartTime != nil || req.DurationMinutes != nil {
		if req.Date == nil || req.StartTime == nil {
			return patch, &model.ValidationError{Field: "date", Reason: "rescheduling requires date and start_time"}
		}
		start, err := timeslot.Instant(timeslot.LocalFields{Date: *req.Date, Clock: *req.StartTime}, req.UTCOffsetMinutes)
		if err != nil {
			return patch, &model.ValidationError{Field: "date", Reason: "date must be YYYY-MM-DD and start_time HH:MM"}
		}
		duration := int(existing.ScheduledTo.Sub(existing.ScheduledFrom).Minutes())
		if req.DurationMinutes != nil {
			duration = *req.DurationMinutes
		}
		if duration <= 0 {
			return patch, &model.ValidationError{Field: "duration_minutes", Reason: "must be positive"}
		}
		end := start.Add(time.Duration(duration) * time.Minute)
		patch.ScheduledFrom = &start
		patch.ScheduledTo = &end
	}

	if req.PatientID != nil {
		patch.PatientID = req.PatientID
	}
	if req.Modality != nil {
		if !model.ValidModality(*req.Modality) {
			return patch, &model.ValidationError{Field: "modality", Reason: "unknown modality"}
		}
		m := model.Modality(*req.Modality)
		patch.Modality = &m
	}
	if req.CostCents != nil {
		patch.CostCents = req.CostCents
	}
	if req.Summary != nil {
		patch.Summary = req.Summary
	}

	return patch, nil
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.sched.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// Select marks an appointment as the active one for detail panes on connected
// front-desk views.
func (h *AppointmentHandler) Select(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.sched.Select(id)

	selected := h.sched.Selected()
	if selected == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "appointment not found"})
		return
	}
	h.broadcast("selected", selected.ID)
	writeJSON(w, http.StatusOK, selected)
}

func (h *AppointmentHandler) Selected(w http.ResponseWriter, r *http.Request) {
	selected := h.sched.Selected()
	if selected == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, selected)
}

func (h *AppointmentHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.sched.ClearSelection()
	h.broadcast("selection_cleared", "")
	w.WriteHeader(http.StatusNoContent)
}
