package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hbarros/praxis/internal/reminder"
	"github.com/hbarros/praxis/internal/store"
)

// PushHandler manages web push subscriptions for appointment reminders.
type PushHandler struct {
	subs    *store.SubscriptionStore
	service *reminder.Service
	logger  *slog.Logger
}

func NewPushHandler(ss *store.SubscriptionStore, svc *reminder.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{subs: ss, service: svc, logger: logger}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint and keys are required"})
		return
	}

	sub, err := h.subs.Create(req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		h.logger.Error("failed to store push subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save subscription"})
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.subs.Delete(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete subscription"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subs.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list subscriptions"})
		return
	}
	if subs == nil {
		subs = []store.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// VAPIDKey returns the public key browsers need to subscribe.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"key": h.service.VAPIDPublicKey()})
}
