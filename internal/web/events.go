package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

type eventsEnvelope struct {
	Events []model.Event `json:"events"`
}

type formsEnvelope struct {
	Events []model.EventForm `json:"events"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.List(r.Context())
	if err != nil {
		appLog.Error("list events failed", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, eventsEnvelope{Events: events})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var f model.EventForm
	if err := readJSON(w, r, &f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.validForm(w, f) {
		return
	}
	ev, err := s.store.Create(r.Context(), f)
	if err != nil {
		appLog.Error("create event failed", err, "title", f.Title)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.refresh(r)
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	var env formsEnvelope
	if err := readJSON(w, r, &env); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, f := range env.Events {
		if !s.validForm(w, f) {
			return
		}
	}
	events, err := s.store.BulkCreate(r.Context(), env.Events)
	if err != nil {
		appLog.Error("bulk create failed", err, "count", len(env.Events))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	s.refresh(r)
	writeJSON(w, http.StatusCreated, eventsEnvelope{Events: events})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var ev model.Event
	if err := readJSON(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.validForm(w, ev.Form()) {
		return
	}
	out, err := s.store.Update(r.Context(), id, ev)
	if errors.Is(err, model.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		appLog.Error("update event failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.refresh(r)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, model.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		appLog.Error("delete event failed", err, "id", id)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.refresh(r)
	w.WriteHeader(http.StatusNoContent)
}

// validForm writes a 422 and reports false when f is rejected.
func (s *Server) validForm(w http.ResponseWriter, f model.EventForm) bool {
	var ve *model.ValidationError
	if err := f.Validate(); errors.As(err, &ve) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ve.Message, Field: ve.Field})
		return false
	} else if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// refresh re-reads the orchestrator's cache after a raw write.
func (s *Server) refresh(r *http.Request) {
	if s.svc == nil {
		return
	}
	if err := s.svc.Refresh(r.Context()); err != nil {
		appLog.Warn("cache refresh after raw write failed", "path", r.URL.Path, "err", err.Error())
	}
}
