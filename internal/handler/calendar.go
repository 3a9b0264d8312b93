package handler

import (
	"log/slog"
	"net/http"

	"github.com/hbarros/praxis/internal/calendarsync"
	"github.com/hbarros/praxis/internal/ics"
	"github.com/hbarros/praxis/internal/store"
)

// CalendarHandler drives the external calendar connection and exposes the
// read-only iCalendar feed.
type CalendarHandler struct {
	coordinator  *calendarsync.Coordinator
	appointments *store.AppointmentStore
	patients     *store.PatientStore
	logger       *slog.Logger
}

func NewCalendarHandler(c *calendarsync.Coordinator, as *store.AppointmentStore, ps *store.PatientStore, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{coordinator: c, appointments: as, patients: ps, logger: logger}
}

func (h *CalendarHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Connect(r.Context()); err != nil {
		h.logger.Error("calendar connect failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "calendar authorization failed"})
		return
	}
	writeJSON(w, http.StatusOK, h.coordinator.Status())
}

func (h *CalendarHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.coordinator.Disconnect(r.Context())
	writeJSON(w, http.StatusOK, h.coordinator.Status())
}

// Sync kicks off a background sync. A sync already in flight is not an
// error; the current status is returned either way.
func (h *CalendarHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.TriggerSync(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.coordinator.Status())
}

func (h *CalendarHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coordinator.Status())
}

// Feed serves every appointment as an iCalendar document.
func (h *CalendarHandler) Feed(w http.ResponseWriter, r *http.Request) {
	apps, err := h.appointments.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	index, err := h.patients.Index(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out, err := ics.Render(apps, index)
	if err != nil {
		h.logger.Error("feed render failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to render feed"})
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="praxis.ics"`)
	w.Write(out)
}
