package ics

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/recur"
)

// Batch is the result of an import.
type Batch struct {
	// Forms are templates to create through the normal create path, so
	// repeating ones are expanded there.
	Forms []model.EventForm
	// Instances are already concrete occurrences (exported instances or
	// RRULE events with EXDATEs) to store as they are.
	Instances []model.EventForm
	// Skipped counts VEVENTs that could not be mapped.
	Skipped int
}

// Len is the number of importable entries.
func (b Batch) Len() int { return len(b.Forms) + len(b.Instances) }

// Import reads a VCALENDAR. UTC and TZID times are converted to loc; floating
// times are taken as they are. loc defaults to time.Local.
func Import(r io.Reader, loc *time.Location) (Batch, error) {
	var batch Batch
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		appLog.Error("ics parse failed", err)
		return batch, fmt.Errorf("ics import: %w", err)
	}

	for _, ve := range cal.Events() {
		if err := importVEvent(&batch, ve, loc); err != nil {
			batch.Skipped++
			appLog.Warn("ics vevent skipped", "uid", propValue(ve, ical.ComponentPropertyUniqueId), "err", err.Error())
		}
	}

	appLog.Info("ics import parsed",
		"forms", len(batch.Forms), "instances", len(batch.Instances), "skipped", batch.Skipped)
	return batch, nil
}

func importVEvent(batch *Batch, ve *ical.VEvent, loc *time.Location) error {
	// Overrides of a recurring instance have no standalone meaning here.
	if ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")) != nil {
		return errors.New("recurrence override not supported")
	}

	start, allDay, err := propTime(ve.GetProperty(ical.ComponentPropertyDtStart), loc)
	if err != nil {
		return fmt.Errorf("DTSTART: %w", err)
	}

	f := model.EventForm{
		Title:       propValue(ve, ical.ComponentPropertySummary),
		Description: propValue(ve, ical.ComponentPropertyDescription),
		Location:    propValue(ve, ical.ComponentPropertyLocation),
		Category:    category(propValue(ve, ical.ComponentPropertyCategories)),
		Date:        model.DateOf(start),
		Repeat:      model.NoRepeat(),
	}
	if f.Title == "" {
		f.Title = "(제목 없음)"
	}

	if allDay {
		f.StartTime = model.NewTimeOfDay(0, 0)
		f.EndTime = model.NewTimeOfDay(23, 59)
	} else {
		f.StartTime = model.NewTimeOfDay(start.Hour(), start.Minute())
		f.EndTime = endTime(ve, start, loc)
	}

	f.NotificationTime = notification(ve)

	if v := propValue(ve, propRepeat); v != "" {
		rule, err := parseRepeat(v)
		if err != nil {
			return err
		}
		f.Repeat = rule
		batch.Instances = append(batch.Instances, f)
		return nil
	}

	if v := propValue(ve, ical.ComponentPropertyRrule); v != "" {
		rule, err := recur.FromRRule(v)
		if err != nil {
			return err
		}
		f.Repeat = rule

		exdates := exDates(ve, loc)
		if len(exdates) == 0 || !rule.IsRepeating() || rule.EndDate == nil {
			batch.Forms = append(batch.Forms, f)
			return nil
		}
		res, err := recur.Expand(f, recur.Config{})
		if err != nil {
			return err
		}
		for _, inst := range res.Instances {
			if !exdates[inst.Date] {
				batch.Instances = append(batch.Instances, inst)
			}
		}
		return nil
	}

	batch.Forms = append(batch.Forms, f)
	return nil
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return strings.TrimSpace(textUnescaper.Replace(prop.Value))
	}
	return ""
}

var textUnescaper = strings.NewReplacer(`\\`, `\`, `\;`, ";", `\,`, ",", `\n`, "\n", `\N`, "\n")

// propTime parses a DATE or DATE-TIME property. Floating values are read as
// wall-clock time in loc.
func propTime(prop *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	if prop == nil || prop.Value == "" {
		return time.Time{}, false, errors.New("missing value")
	}
	v := strings.TrimSpace(prop.Value)

	if vs, ok := prop.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		t, err := time.ParseInLocation(dateLayout, v, loc)
		return t, true, err
	}
	if !strings.Contains(v, "T") {
		t, err := time.ParseInLocation(dateLayout, v, loc)
		return t, true, err
	}
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		return t.In(loc), false, err
	}
	if tz, ok := prop.ICalParameters["TZID"]; ok && len(tz) > 0 {
		src, err := time.LoadLocation(tz[0])
		if err != nil {
			return time.Time{}, false, fmt.Errorf("unknown TZID %q: %w", tz[0], err)
		}
		t, err := time.ParseInLocation(floatingLayout, v, src)
		return t.In(loc), false, err
	}
	t, err := time.ParseInLocation(floatingLayout, v, loc)
	return t, false, err
}

// endTime returns the end time of day. Events without DTEND last an hour;
// events ending on a later day are cut at 23:59.
func endTime(ve *ical.VEvent, start time.Time, loc *time.Location) model.TimeOfDay {
	end := start.Add(time.Hour)
	if t, _, err := propTime(ve.GetProperty(ical.ComponentPropertyDtEnd), loc); err == nil {
		end = t
	}
	if model.DateOf(end) != model.DateOf(start) {
		return model.NewTimeOfDay(23, 59)
	}
	return model.NewTimeOfDay(end.Hour(), end.Minute())
}

func category(v string) model.Category {
	for _, part := range strings.Split(v, ",") {
		for _, c := range model.Categories {
			if strings.TrimSpace(part) == string(c) {
				return c
			}
		}
	}
	return model.CategoryOther
}

func notification(ve *ical.VEvent) int {
	if v := propValue(ve, propNotify); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	for _, c := range ve.Components {
		alarm, ok := c.(*ical.VAlarm)
		if !ok {
			continue
		}
		if p := alarm.GetProperty(ical.ComponentPropertyTrigger); p != nil {
			if n, ok := triggerMinutes(p.Value); ok {
				return n
			}
		}
	}
	return 0
}

var triggerRe = regexp.MustCompile(`^-P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// triggerMinutes converts a negative relative TRIGGER such as -PT10M or -P1D
// into minutes before start.
func triggerMinutes(v string) (int, bool) {
	m := triggerRe.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return 0, false
	}
	n := func(s string) int {
		i, _ := strconv.Atoi(s)
		return i
	}
	minutes := n(m[1])*7*24*60 + n(m[2])*24*60 + n(m[3])*60 + n(m[4])
	return minutes, minutes > 0
}

// parseRepeat reads a "type/interval/endDate" value.
func parseRepeat(v string) (model.RepeatRule, error) {
	parts := strings.Split(v, "/")
	if len(parts) != 3 {
		return model.RepeatRule{}, fmt.Errorf("bad %s value %q", propRepeat, v)
	}
	typ := model.RepeatType(parts[0])
	switch typ {
	case model.RepeatNone, model.RepeatDaily, model.RepeatWeekly, model.RepeatMonthly, model.RepeatYearly:
	default:
		return model.RepeatRule{}, fmt.Errorf("bad repeat type %q", parts[0])
	}
	interval, err := strconv.Atoi(parts[1])
	if err != nil {
		return model.RepeatRule{}, fmt.Errorf("bad repeat interval %q: %w", parts[1], err)
	}
	rule := model.RepeatRule{Type: typ, Interval: interval}
	if parts[2] != "" && parts[2] != "-" {
		end, err := model.ParseDate(parts[2])
		if err != nil {
			return model.RepeatRule{}, fmt.Errorf("bad repeat end date %q: %w", parts[2], err)
		}
		rule.EndDate = &end
	}
	return rule, nil
}

func exDates(ve *ical.VEvent, loc *time.Location) map[model.Date]bool {
	out := make(map[model.Date]bool)
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			single := *p
			single.Value = part
			if t, _, err := propTime(&single, loc); err == nil {
				out[model.DateOf(t)] = true
			}
		}
	}
	return out
}
