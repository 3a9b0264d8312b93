package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hbarros/praxis/internal/model"
	"github.com/hbarros/praxis/internal/store"
	"github.com/hbarros/praxis/internal/websocket"
)

type PatientHandler struct {
	patients *store.PatientStore
	hub      *websocket.Hub
}

func NewPatientHandler(ps *store.PatientStore, hub *websocket.Hub) *PatientHandler {
	return &PatientHandler{patients: ps, hub: hub}
}

func (h *PatientHandler) broadcast(action, id string) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("patient", action, id, nil))
	}
}

type patientRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "display_name is required"})
		return
	}

	patient, err := h.patients.Create(r.Context(), req.DisplayName, req.Email, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("created", patient.ID)
	writeJSON(w, http.StatusCreated, patient)
}

func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	patients, err := h.patients.List(r.Context(), includeArchived)
	if err != nil {
		writeError(w, err)
		return
	}
	if patients == nil {
		patients = []model.Patient{}
	}
	writeJSON(w, http.StatusOK, patients)
}

func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	patient, err := h.patients.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (h *PatientHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.patients.SetArchived(r.Context(), id, true); err != nil {
		writeError(w, err)
		return
	}
	h.broadcast("archived", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PatientHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.patients.SetArchived(r.Context(), id, false); err != nil {
		writeError(w, err)
		return
	}
	h.broadcast("unarchived", id)
	w.WriteHeader(http.StatusNoContent)
}
