// Package ics converts events to and from iCalendar (RFC 5545) data.
package ics

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/recur"
	"eventcal/internal/series"
)

const (
	DefaultProdID = "-//eventcal//eventcal 1.0//KO"

	propRepeat = ical.ComponentProperty("X-EVENTCAL-REPEAT")
	propNotify = ical.ComponentProperty("X-EVENTCAL-NOTIFY")

	floatingLayout = "20060102T150405"
	dateLayout     = "20060102"
)

// ExportOptions controls the shape of the exported calendar.
type ExportOptions struct {
	ProdID string
	// Series collapses every recurring group into one VEVENT with an RRULE
	// (and EXDATE for removed instances) instead of one VEVENT per instance.
	Series bool
	// Stamp is written as DTSTAMP. Zero means now.
	Stamp time.Time
}

// Export writes events as a VCALENDAR to w. Times are floating local times.
func Export(w io.Writer, events []model.Event, opts ExportOptions) error {
	if opts.ProdID == "" {
		opts.ProdID = DefaultProdID
	}
	if opts.Stamp.IsZero() {
		opts.Stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(opts.ProdID)

	var count int
	if opts.Series {
		for _, g := range groupSeries(events) {
			if r := g[0].Repeat; !r.IsRepeating() || r.EndDate == nil {
				for _, ev := range g {
					addInstance(cal, ev, opts.Stamp)
					count++
				}
				continue
			}
			addSeries(cal, g, opts.Stamp)
			count++
		}
	} else {
		for _, ev := range events {
			addInstance(cal, ev, opts.Stamp)
			count++
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("ics export: %w", err)
	}
	appLog.Info("ics export completed", "events", len(events), "vevents", count, "series", opts.Series)
	return nil
}

func newVEvent(cal *ical.Calendar, ev model.Event, stamp time.Time) *ical.VEvent {
	ve := cal.AddEvent(ev.ID + "@eventcal")
	ve.SetDtStampTime(stamp)
	ve.SetProperty(ical.ComponentPropertyDtStart, floating(ev.Date, ev.StartTime))
	ve.SetProperty(ical.ComponentPropertyDtEnd, floating(ev.Date, ev.EndTime))
	ve.SetSummary(ev.Title)
	if ev.Description != "" {
		ve.SetDescription(ev.Description)
	}
	if ev.Location != "" {
		ve.SetLocation(ev.Location)
	}
	if ev.Category != "" {
		ve.SetProperty(ical.ComponentPropertyCategories, string(ev.Category))
	}
	if ev.NotificationTime > 0 {
		ve.SetProperty(propNotify, strconv.Itoa(ev.NotificationTime))
		alarm := ve.AddAlarm()
		alarm.SetProperty(ical.ComponentPropertyAction, "DISPLAY")
		alarm.SetProperty(ical.ComponentPropertyTrigger, fmt.Sprintf("-PT%dM", ev.NotificationTime))
		alarm.SetProperty(ical.ComponentPropertyDescription, ev.Title)
	}
	return ve
}

func addInstance(cal *ical.Calendar, ev model.Event, stamp time.Time) {
	ve := newVEvent(cal, ev, stamp)
	if isRepeatType(ev.Repeat.Type) {
		ve.SetProperty(propRepeat, formatRepeat(ev.Repeat))
	}
}

// addSeries writes the first instance of g with an RRULE. Dates the rule
// produces that no longer have an instance become EXDATEs.
func addSeries(cal *ical.Calendar, g []model.Event, stamp time.Time) {
	first := g[0]
	ve := newVEvent(cal, first, stamp)
	ve.SetProperty(ical.ComponentPropertyRrule, recur.ToRRule(first.Repeat))

	present := make(map[model.Date]bool, len(g))
	for _, ev := range g {
		present[ev.Date] = true
	}
	dates, err := recur.Dates(first.Form(), recur.Config{})
	if err != nil {
		appLog.Warn("ics export: cannot expand series for exdates", "id", first.ID, "err", err.Error())
		return
	}
	for _, d := range dates {
		if !present[d] {
			ve.AddProperty(ical.ComponentPropertyExdate, floating(d, first.StartTime))
		}
	}
}

// groupSeries splits events into recurring groups (same series key and end
// date) ordered by date, and singletons. Groups keep the order of their first
// member.
func groupSeries(events []model.Event) [][]model.Event {
	type groupKey struct {
		key series.Key
		end string
	}
	index := make(map[groupKey]int)
	var groups [][]model.Event

	for _, ev := range events {
		k, ok := series.KeyOf(ev)
		if !ok {
			groups = append(groups, []model.Event{ev})
			continue
		}
		gk := groupKey{key: k, end: formatEnd(ev.Repeat.EndDate)}
		if i, seen := index[gk]; seen {
			groups[i] = append(groups[i], ev)
			continue
		}
		index[gk] = len(groups)
		groups = append(groups, []model.Event{ev})
	}

	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Date.Before(g[j].Date) })
	}
	return groups
}

func isRepeatType(t model.RepeatType) bool {
	return t != "" && t != model.RepeatNone
}

// formatRepeat renders a rule as "type/interval/endDate", "-" standing for
// a missing end date.
func formatRepeat(r model.RepeatRule) string {
	end := formatEnd(r.EndDate)
	if end == "" {
		end = "-"
	}
	return strings.Join([]string{string(r.Type), strconv.Itoa(r.Interval), end}, "/")
}

func formatEnd(d *model.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func floating(d model.Date, t model.TimeOfDay) string {
	return time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), 0, 0, time.UTC).Format(floatingLayout)
}
