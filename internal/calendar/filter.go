package calendar

import (
	"sort"
	"strings"

	"eventcal/internal/model"
)

// EventsForDay returns the events dated d, ordered by start time.
func EventsForDay(events []model.Event, d model.Date) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		if ev.Date == d {
			out = append(out, ev)
		}
	}
	sortByStart(out)
	return out
}

// Search keeps events whose title, description or location contains term,
// ignoring case. An empty term keeps everything.
func Search(events []model.Event, term string) []model.Event {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return append([]model.Event(nil), events...)
	}
	out := make([]model.Event, 0)
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Title), term) ||
			strings.Contains(strings.ToLower(ev.Description), term) ||
			strings.Contains(strings.ToLower(ev.Location), term) {
			out = append(out, ev)
		}
	}
	return out
}

// FilterEvents applies the search term and then keeps the events visible in
// the view around current. The result is ordered by date and start time.
func FilterEvents(events []model.Event, term string, view View, current model.Date) []model.Event {
	start, end := Range(view, current)
	matched := Search(events, term)
	out := make([]model.Event, 0, len(matched))
	for _, ev := range matched {
		if IsDateInRange(ev.Date, start, end) {
			out = append(out, ev)
		}
	}
	sortByStart(out)
	return out
}

func sortByStart(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return a.StartTime < b.StartTime
	})
}
