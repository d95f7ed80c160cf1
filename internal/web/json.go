package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/schedule"
)

const maxBodyBytes = 4 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

type errorResponse struct {
	Error     string        `json:"error"`
	Field     string        `json:"field,omitempty"`
	Hint      string        `json:"hint,omitempty"`
	Conflicts []model.Event `json:"conflicts,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// writeMutationError maps orchestrator and store errors onto responses.
func writeMutationError(w http.ResponseWriter, r *http.Request, err error, out schedule.Outcome) {
	var ve *model.ValidationError
	var pe *schedule.PersistenceError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, model.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	case errors.Is(err, schedule.ErrCancelled):
		resp := errorResponse{Error: "cancelled", Conflicts: out.Conflicts}
		if len(out.Conflicts) > 0 {
			resp.Hint = "time slot overlaps existing events; retry with force=1 to save anyway"
		} else {
			resp.Hint = "recurring event; retry with scope=single or scope=series"
		}
		writeJSON(w, http.StatusConflict, resp)
	case errors.As(err, &pe):
		writeError(w, http.StatusBadGateway, pe.Error())
	default:
		appLog.Error("request failed", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
