package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"eventcal/internal/model"
	"eventcal/internal/schedule"
)

// answers reads the prompt answers a client sends up front:
// ?scope=single|series and ?force=1.
func answers(r *http.Request) schedule.Answers {
	q := r.URL.Query()
	force, _ := strconv.ParseBool(q.Get("force"))
	return schedule.Answers{Scope: schedule.ParseScope(q.Get("scope")), Force: force}
}

func (s *Server) handleScheduleCreate(w http.ResponseWriter, r *http.Request) {
	var f model.EventForm
	if err := readJSON(w, r, &f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.Repeat.Type == "" {
		f.Repeat = model.NoRepeat()
	}
	out, err := s.svc.Create(r.Context(), f, answers(r))
	if err != nil {
		writeMutationError(w, r, err, out)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleScheduleEdit(w http.ResponseWriter, r *http.Request) {
	var patch model.EventPatch
	if err := readJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.svc.Edit(r.Context(), chi.URLParam(r, "id"), patch, answers(r))
	if err != nil {
		writeMutationError(w, r, err, out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleScheduleDelete(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Delete(r.Context(), chi.URLParam(r, "id"), answers(r))
	if err != nil {
		writeMutationError(w, r, err, out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type moveRequest struct {
	Date model.Date `json:"date"`
}

func (s *Server) handleScheduleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Date.IsValid() {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	out, err := s.svc.Move(r.Context(), chi.URLParam(r, "id"), req.Date)
	if err != nil {
		writeMutationError(w, r, err, out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleConflicts previews the overlap check for a slot:
// ?date=YYYY-MM-DD&startTime=HH:MM&endTime=HH:MM[&excludeId=].
func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := model.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	start, err := model.ParseTimeOfDay(q.Get("startTime"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startTime")
		return
	}
	end, err := model.ParseTimeOfDay(q.Get("endTime"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endTime")
		return
	}
	f := model.EventForm{Date: d, StartTime: start, EndTime: end}
	conflicts := s.svc.Conflicts(f, q.Get("excludeId"))
	if conflicts == nil {
		conflicts = []model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	related, err := s.svc.Related(chi.URLParam(r, "id"))
	if err != nil {
		writeMutationError(w, r, err, schedule.Outcome{})
		return
	}
	if related == nil {
		related = []model.Event{}
	}
	writeJSON(w, http.StatusOK, eventsEnvelope{Events: related})
}
