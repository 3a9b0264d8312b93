package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hbarros/praxis/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP responses. Unknown errors become a
// generic 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": verr.Error(),
			"field": verr.Field,
		})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, model.ErrSlotConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "time slot conflicts with another appointment"})
	case errors.Is(err, model.ErrCalendarNotConnected):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":             "calendar connection required before scheduling",
			"calendar_required": true,
		})
	case errors.Is(err, model.ErrCalendarTokenExpired):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":             "calendar authorization expired, reconnect to continue",
			"calendar_required": true,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
