package recur

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"eventcal/internal/model"
)

// FromRRule converts an iCalendar RRULE value into a RepeatRule. Only plain
// FREQ/INTERVAL/UNTIL rules map cleanly; rules with BY* parts or COUNT are
// rejected because the instance dates would not follow from the start date
// alone.
func FromRRule(s string) (model.RepeatRule, error) {
	opt, err := rrule.StrToROptionInLocation(strings.TrimPrefix(strings.TrimSpace(s), "RRULE:"), time.UTC)
	if err != nil {
		return model.RepeatRule{}, fmt.Errorf("parse rrule %q: %w", s, err)
	}
	if len(opt.Bymonth) > 0 || len(opt.Bymonthday) > 0 || len(opt.Byweekday) > 0 ||
		len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 || len(opt.Bysetpos) > 0 || opt.Count > 0 {
		return model.RepeatRule{}, fmt.Errorf("unsupported rrule %q", s)
	}

	var typ model.RepeatType
	for k, v := range frequencies {
		if v == opt.Freq {
			typ = k
		}
	}
	if typ == "" {
		return model.RepeatRule{}, fmt.Errorf("unsupported rrule frequency in %q", s)
	}

	interval := opt.Interval
	if interval == 0 {
		interval = 1
	}
	out := model.RepeatRule{Type: typ, Interval: interval}
	if !opt.Until.IsZero() {
		end := model.DateOf(opt.Until)
		out.EndDate = &end
	}
	return out, nil
}

// ToRRule renders a repeating rule as an RRULE value. It returns "" for
// rules that do not repeat.
func ToRRule(r model.RepeatRule) string {
	freq, ok := frequencies[r.Type]
	if !ok || r.Interval < 1 {
		return ""
	}
	opt := rrule.ROption{Freq: freq, Interval: r.Interval}
	if r.EndDate != nil {
		opt.Until = midnight(*r.EndDate)
	}
	return opt.RRuleString()
}
