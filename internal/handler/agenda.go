package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hbarros/praxis/internal/agenda"
	"github.com/hbarros/praxis/internal/scheduling"
	"github.com/hbarros/praxis/internal/store"
)

// AgendaHandler serves the day-grouped upcoming view with incremental reveal.
type AgendaHandler struct {
	sched    *scheduling.Store
	patients *store.PatientStore
	builder  *agenda.Builder
	reveal   *agenda.Reveal
	loc      *time.Location
}

func NewAgendaHandler(sched *scheduling.Store, ps *store.PatientStore, builder *agenda.Builder, reveal *agenda.Reveal, loc *time.Location) *AgendaHandler {
	return &AgendaHandler{sched: sched, patients: ps, builder: builder, reveal: reveal, loc: loc}
}

type agendaResponse struct {
	Days    []agenda.DayBucket `json:"days"`
	Visible int                `json:"visible"`
	HasMore bool               `json:"has_more"`
	Busy    bool               `json:"busy"`
}

// Get returns the visible slice of upcoming day buckets. The search parameter
// filters by patient name before grouping; today's appointments stay included
// regardless of the current clock time.
func (h *AgendaHandler) Get(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.FetchUpcoming(r.Context(), 0); err != nil {
		writeError(w, err)
		return
	}

	apps := agenda.FilterUpcoming(h.sched.Appointments(), time.Now(), h.loc)

	if term := r.URL.Query().Get("search"); term != "" {
		index, err := h.patients.Index(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		apps = agenda.FilterBySearch(apps, index, term)
	}

	buckets := h.builder.Buckets(apps)
	visible := h.reveal.Visible()
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			visible = n
		}
	}

	writeJSON(w, http.StatusOK, agendaResponse{
		Days:    visibleOrEmpty(buckets, visible),
		Visible: visible,
		HasMore: agenda.HasMore(buckets, visible),
		Busy:    h.reveal.Busy(),
	})
}

// Today returns only appointments on the current local date, the front-desk
// day sheet.
func (h *AgendaHandler) Today(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.FetchUpcoming(r.Context(), 0); err != nil {
		writeError(w, err)
		return
	}

	apps := agenda.FilterToday(h.sched.Appointments(), time.Now(), h.loc)
	buckets := h.builder.Buckets(apps)
	writeJSON(w, http.StatusOK, visibleOrEmpty(buckets, len(buckets)))
}

// Reveal advances the visible window by one step. Triggers that land inside
// the debounce interval of a previous one are absorbed.
func (h *AgendaHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	advanced := h.reveal.Advance()
	writeJSON(w, http.StatusOK, map[string]any{
		"advanced": advanced,
		"visible":  h.reveal.Visible(),
		"busy":     h.reveal.Busy(),
	})
}

// ResetReveal collapses the agenda back to its initial window.
func (h *AgendaHandler) ResetReveal(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("visible"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			n = parsed
		}
	}
	h.reveal.Reset(n)
	writeJSON(w, http.StatusOK, map[string]any{"visible": h.reveal.Visible()})
}

func visibleOrEmpty(buckets []agenda.DayBucket, n int) []agenda.DayBucket {
	out := agenda.VisibleSlice(buckets, n)
	if out == nil {
		out = []agenda.DayBucket{}
	}
	return out
}
