package recur

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

const (
	defaultMaxOccurrences = 5000
)

// Config controls recurrence expansion.
type Config struct {
	// MaxOccurrences caps the number of instances produced for one form.
	// If zero, defaultMaxOccurrences is used.
	MaxOccurrences int
}

// Result is the expanded instance list.
type Result struct {
	Instances []model.EventForm
}

var frequencies = map[model.RepeatType]rrule.Frequency{
	model.RepeatDaily:   rrule.DAILY,
	model.RepeatWeekly:  rrule.WEEKLY,
	model.RepeatMonthly: rrule.MONTHLY,
	model.RepeatYearly:  rrule.YEARLY,
}

// Expand turns a form into the concrete dated instances it describes,
// ascending by date. Every instance copies the form and only differs in Date.
//
//   - repeat type none: one instance on form.Date
//   - daily / weekly: every interval days / interval weeks
//   - monthly: same day-of-month every interval months; months without that
//     day are skipped, never clamped to month end
//   - yearly: same month and day every interval years; Feb 29 only lands in
//     leap years
//
// No instance is dated after Repeat.EndDate. A repeating form without an end
// date, or with an interval below 1, yields just the start date. A series
// longer than MaxOccurrences is rejected with a ValidationError on
// repeat.endDate and no instances.
func Expand(form model.EventForm, cfg Config) (Result, error) {
	var result Result

	if !form.Date.IsValid() {
		return result, errors.New("expand: form date is not a valid date")
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}

	rule := form.Repeat
	freq, known := frequencies[rule.Type]
	if !known || rule.Interval < 1 || rule.EndDate == nil {
		if rule.Type != "" && rule.Type != model.RepeatNone {
			appLog.Warn("expand: incomplete repeat rule, producing single instance",
				"title", form.Title, "rule", rule.String())
		}
		result.Instances = []model.EventForm{form}
		return result, nil
	}
	if rule.EndDate.Before(form.Date) {
		return result, model.NewValidationError("repeat.endDate", model.MsgRepeatEndBefore)
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     freq,
		Interval: rule.Interval,
		Dtstart:  midnight(form.Date),
		Until:    midnight(*rule.EndDate),
	})
	if err != nil {
		return result, fmt.Errorf("expand: build rule %s: %w", rule.String(), err)
	}

	next := r.Iterator()
	for {
		t, ok := next()
		if !ok {
			break
		}
		if len(result.Instances) == cfg.MaxOccurrences {
			appLog.Warn("expand: series exceeds occurrence cap",
				"title", form.Title,
				"rule", rule.String(),
				"cap", cfg.MaxOccurrences,
			)
			return Result{}, model.NewValidationError("repeat.endDate", model.MsgRepeatTooMany)
		}
		inst := form
		inst.Date = model.DateOf(t)
		result.Instances = append(result.Instances, inst)
	}

	return result, nil
}

// Dates is a convenience over Expand that returns only the instance dates.
func Dates(form model.EventForm, cfg Config) ([]model.Date, error) {
	res, err := Expand(form, cfg)
	if err != nil {
		return nil, err
	}
	out := make([]model.Date, len(res.Instances))
	for i, inst := range res.Instances {
		out[i] = inst.Date
	}
	return out, nil
}

// midnight anchors a naive date in UTC so the rule engine never sees DST.
func midnight(d model.Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}
