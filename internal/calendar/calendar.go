// Package calendar builds the month and week views: day grids, labels,
// navigation and the event filtering that feeds them. All dates are naive
// local calendar dates.
package calendar

import (
	"fmt"
	"time"

	"eventcal/internal/model"
)

// View selects the calendar layout.
type View string

const (
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

// ParseView maps a query value to a View. Anything other than "week" is a
// month view.
func ParseView(s string) View {
	if s == string(ViewWeek) {
		return ViewWeek
	}
	return ViewMonth
}

// WeekdayLabels are the grid column headers, Sunday first.
var WeekdayLabels = [7]string{"일", "월", "화", "수", "목", "금", "토"}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// weekday returns the day of the week for a naive date.
func weekday(d model.Date) time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// WeekDates returns the Sunday-to-Saturday week containing d.
func WeekDates(d model.Date) [7]model.Date {
	sunday := d.AddDays(-int(weekday(d)))
	var out [7]model.Date
	for i := range out {
		out[i] = sunday.AddDays(i)
	}
	return out
}

// MonthWeeks lays out the month containing d as rows of seven cells.
// Cells outside the month hold 0; the others hold the day of month.
func MonthWeeks(d model.Date) [][7]int {
	first := model.Date{Year: d.Year, Month: d.Month, Day: 1}
	days := DaysInMonth(d.Year, d.Month)
	offset := int(weekday(first))

	var weeks [][7]int
	var week [7]int
	col := offset
	for day := 1; day <= days; day++ {
		week[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

// FormatMonth renders "2025년 10월".
func FormatMonth(d model.Date) string {
	return fmt.Sprintf("%d년 %d월", d.Year, int(d.Month))
}

// FormatWeek renders "2025년 10월 3주". A week belongs to the month of its
// Thursday, so the first days of January can be labelled as December.
func FormatWeek(d model.Date) string {
	thursday := WeekDates(d)[4]
	n := (thursday.Day-1)/7 + 1
	return fmt.Sprintf("%d년 %d월 %d주", thursday.Year, int(thursday.Month), n)
}

// FormatDate renders the date of day within d's month as YYYY-MM-DD.
// A zero day formats d itself.
func FormatDate(d model.Date, day int) string {
	if day > 0 {
		d.Day = day
	}
	return d.String()
}

// IsDateInRange reports whether start <= d <= end.
func IsDateInRange(d, start, end model.Date) bool {
	return !d.Before(start) && !d.After(end)
}

// Navigate moves the current date one page in the given direction
// (+1 next, -1 previous). Month navigation lands on the first of the month.
func Navigate(view View, d model.Date, dir int) model.Date {
	if view == ViewWeek {
		return d.AddDays(7 * dir)
	}
	m := time.Date(d.Year, d.Month+time.Month(dir), 1, 0, 0, 0, 0, time.UTC)
	return model.DateOf(m)
}

// Range returns the first and last date shown by the view around d.
func Range(view View, d model.Date) (model.Date, model.Date) {
	if view == ViewWeek {
		w := WeekDates(d)
		return w[0], w[6]
	}
	first := model.Date{Year: d.Year, Month: d.Month, Day: 1}
	last := model.Date{Year: d.Year, Month: d.Month, Day: DaysInMonth(d.Year, d.Month)}
	return first, last
}
