package web

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"eventcal/internal/calendar"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/notify"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.New("calendar.html").Funcs(template.FuncMap{
	"notifyLabel": model.NotificationLabel,
}).ParseFS(templateFS, "templates/calendar.html"))

// calendarView is the state of one rendered view: which view, around which
// date, filtered by which search term.
type calendarView struct {
	View   calendar.View
	Date   model.Date
	Query  string
	Events []model.Event
	Grid   calendar.Grid
}

// resolveView reads ?view=, ?date= and ?q= and renders the grid. A missing or
// malformed date means today.
func (s *Server) resolveView(r *http.Request) calendarView {
	q := r.URL.Query()
	cv := calendarView{
		View:  calendar.ParseView(q.Get("view")),
		Query: q.Get("q"),
	}
	d, err := model.ParseDate(q.Get("date"))
	if err != nil {
		d = s.today()
	}
	cv.Date = d
	cv.Events = calendar.FilterEvents(s.svc.Events(), cv.Query, cv.View, d)
	cv.Grid = calendar.Render(cv.View, d, cv.Events, s.holidays)
	return cv
}

type calendarResponse struct {
	Title    string            `json:"title"`
	View     calendar.View     `json:"view"`
	Date     string            `json:"date"`
	Prev     string            `json:"prev"`
	Next     string            `json:"next"`
	Events   []model.Event     `json:"events"`
	Grid     calendar.Grid     `json:"grid"`
	Holidays calendar.Holidays `json:"holidays"`
	Loaded   bool              `json:"loaded"`
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	cv := s.resolveView(r)
	writeJSON(w, http.StatusOK, calendarResponse{
		Title:    cv.Grid.Title,
		View:     cv.View,
		Date:     cv.Date.String(),
		Prev:     calendar.Navigate(cv.View, cv.Date, -1).String(),
		Next:     calendar.Navigate(cv.View, cv.Date, 1).String(),
		Events:   cv.Events,
		Grid:     cv.Grid,
		Holidays: s.holidays.InMonth(cv.Date),
		Loaded:   s.svc.Loaded(),
	})
}

type pageData struct {
	calendarView
	Labels   [7]string
	Today    string
	PrevURL  string
	NextURL  string
	WeekURL  string
	MonthURL string
	Alerts   []notify.Alert
}

// handleCalendarPage renders the grid as HTML. The capture job waits for the
// body's data-ready attribute before taking its screenshot.
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	cv := s.resolveView(r)
	data := pageData{
		calendarView: cv,
		Labels:       calendar.WeekdayLabels,
		Today:        s.today().String(),
		PrevURL:      viewURL(cv.View, calendar.Navigate(cv.View, cv.Date, -1), cv.Query),
		NextURL:      viewURL(cv.View, calendar.Navigate(cv.View, cv.Date, 1), cv.Query),
		WeekURL:      viewURL(calendar.ViewWeek, cv.Date, cv.Query),
		MonthURL:     viewURL(calendar.ViewMonth, cv.Date, cv.Query),
		Alerts:       s.feed.List(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		appLog.Error("render calendar page failed", err)
	}
}

func viewURL(view calendar.View, d model.Date, query string) string {
	v := url.Values{}
	v.Set("view", string(view))
	v.Set("date", d.String())
	if query != "" {
		v.Set("q", query)
	}
	return "/calendar?" + v.Encode()
}
