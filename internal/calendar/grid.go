package calendar

import (
	"eventcal/internal/model"
)

// Holidays maps YYYY-MM-DD to a holiday name.
type Holidays map[string]string

// For returns the holiday name on d, if any.
func (h Holidays) For(d model.Date) string {
	if h == nil {
		return ""
	}
	return h[d.String()]
}

// InMonth returns the holidays that fall in the month of d.
func (h Holidays) InMonth(d model.Date) Holidays {
	out := make(Holidays)
	for k, v := range h {
		hd, err := model.ParseDate(k)
		if err != nil {
			continue
		}
		if hd.Year == d.Year && hd.Month == d.Month {
			out[k] = v
		}
	}
	return out
}

// Cell is one day box in a rendered grid. Empty cells (padding outside the
// month) have Day == 0.
type Cell struct {
	Day     int           `json:"day"`
	Date    string        `json:"date,omitempty"`
	Holiday string        `json:"holiday,omitempty"`
	Events  []model.Event `json:"events,omitempty"`
}

// Grid is a rendered view: a title and rows of seven cells.
type Grid struct {
	View  View      `json:"view"`
	Title string    `json:"title"`
	Weeks [][7]Cell `json:"weeks"`
}

// MonthGrid renders the month containing d with the given (already
// filtered) events and holidays.
func MonthGrid(d model.Date, events []model.Event, holidays Holidays) Grid {
	g := Grid{View: ViewMonth, Title: FormatMonth(d)}
	for _, week := range MonthWeeks(d) {
		var row [7]Cell
		for i, day := range week {
			if day == 0 {
				continue
			}
			cd := model.Date{Year: d.Year, Month: d.Month, Day: day}
			row[i] = Cell{
				Day:     day,
				Date:    cd.String(),
				Holiday: holidays.For(cd),
				Events:  EventsForDay(events, cd),
			}
		}
		g.Weeks = append(g.Weeks, row)
	}
	return g
}

// WeekGrid renders the week containing d as a single row.
func WeekGrid(d model.Date, events []model.Event, holidays Holidays) Grid {
	g := Grid{View: ViewWeek, Title: FormatWeek(d)}
	var row [7]Cell
	for i, cd := range WeekDates(d) {
		row[i] = Cell{
			Day:     cd.Day,
			Date:    cd.String(),
			Holiday: holidays.For(cd),
			Events:  EventsForDay(events, cd),
		}
	}
	g.Weeks = append(g.Weeks, row)
	return g
}

// Render builds the grid for view around d.
func Render(view View, d model.Date, events []model.Event, holidays Holidays) Grid {
	if view == ViewWeek {
		return WeekGrid(d, events, holidays)
	}
	return MonthGrid(d, events, holidays)
}
