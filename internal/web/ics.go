package web

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"eventcal/internal/ics"
	appLog "eventcal/internal/log"
	"eventcal/internal/schedule"
)

// handleExport writes the cached events as an iCalendar feed. ?series=1
// collapses bounded series back into RRULEs.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	series, _ := strconv.ParseBool(r.URL.Query().Get("series"))
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="eventcal.ics"`)
	if err := ics.Export(w, s.svc.Events(), ics.ExportOptions{Series: series, Stamp: s.now()}); err != nil {
		appLog.Error("ics export failed", err)
	}
}

type importResponse struct {
	Created  int `json:"created"`
	Restored int `json:"restored"`
	Skipped  int `json:"skipped"`
}

// handleImport reads an iCalendar body. Plain and RRULE events go through the
// normal create path with conflicts accepted; already expanded instances are
// restored as they are.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	batch, err := ics.Import(io.LimitReader(r.Body, maxBodyBytes), s.cfg.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := importResponse{Skipped: batch.Skipped}
	for _, f := range batch.Forms {
		out, err := s.svc.Create(r.Context(), f, schedule.Answers{Force: true})
		if err != nil {
			appLog.Warn("import stopped", "created", resp.Created, "title", f.Title, "err", err.Error())
			writeMutationError(w, r, err, out)
			return
		}
		resp.Created += len(out.Saved)
	}
	out, err := s.svc.Restore(r.Context(), batch.Instances)
	if err != nil {
		writeMutationError(w, r, err, out)
		return
	}
	resp.Restored = len(out.Saved)

	appLog.Info("calendar imported", "created", resp.Created, "restored", resp.Restored, "skipped", resp.Skipped)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"alerts": s.feed.List()})
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	if !s.feed.Dismiss(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
